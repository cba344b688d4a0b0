// Package shaders provides embedded GLSL shader sources.
package shaders

import _ "embed"

// BatchVertexShader is the vertex shader for singleton and instanced batches.
//
//go:embed batch.vert
var BatchVertexShader string

// BatchFragmentShader is the fragment shader for batches.
//
//go:embed batch.frag
var BatchFragmentShader string
