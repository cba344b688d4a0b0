package scene

import "github.com/ironblock/bim-demo/pkg/math"

// Handle is an opaque reference to a resource owned by a MeshSink.
type Handle uint64

// NoHandle is the zero handle.
const NoHandle Handle = 0

// MaterialDesc describes a material to create.
type MaterialDesc struct {
	Key       ColorKey
	Color     *Color // nil for the default material
	DepthBias float32
}

// MeshDesc describes a mesh to upload.
type MeshDesc struct {
	Name     string
	Parent   Handle
	Material Handle
	Payload  *ShapePayload
}

// MeshSink is the rendering engine boundary. The builder uploads each group's
// vertex data through CreateMesh once, then places it with either SetTransform
// or SetInstances.
type MeshSink interface {
	CreateRoot() Handle
	SetRootTransform(root Handle, m math.Mat4)
	CreateMaterial(desc MaterialDesc) (Handle, error)
	CreateMesh(desc MeshDesc) (Handle, error)
	SetTransform(mesh Handle, m math.Mat4) error
	SetInstances(mesh Handle, transforms []float32) error
	Freeze(mesh Handle)
	Release(h Handle)
}
