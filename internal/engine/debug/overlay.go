package debug

import (
	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/ironblock/bim-demo/internal/engine/shader"
	"github.com/ironblock/bim-demo/pkg/math"
)

const lineVertexShader = `#version 410 core
layout(location = 0) in vec3 aPosition;
uniform mat4 uViewProj;
void main() {
    gl_Position = uViewProj * vec4(aPosition, 1.0);
}
`

const lineFragmentShader = `#version 410 core
uniform vec4 uColor;
out vec4 fragColor;
void main() {
    fragColor = uColor;
}
`

// Box is one wireframe box queued for drawing.
type Box struct {
	Bounds math.Box3
	Color  [4]float32
}

// Overlay draws wireframe boxes on top of the scene.
type Overlay struct {
	program *shader.Program
	vao     uint32
	vbo     uint32
	Enabled bool
}

// NewOverlay compiles the line program and allocates its buffers.
func NewOverlay() (*Overlay, error) {
	prog, err := shader.Compile(lineVertexShader, lineFragmentShader)
	if err != nil {
		return nil, err
	}

	o := &Overlay{program: prog, Enabled: true}
	gl.GenVertexArrays(1, &o.vao)
	gl.GenBuffers(1, &o.vbo)

	gl.BindVertexArray(o.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, o.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, BoxLineVertexCount*3*4, nil, gl.DYNAMIC_DRAW)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, 12, 0)
	gl.BindVertexArray(0)

	return o, nil
}

// Draw renders boxes as lines. Depth testing stays on so hidden edges are
// occluded by geometry in front of them.
func (o *Overlay) Draw(viewProj math.Mat4, boxes ...Box) {
	if !o.Enabled || len(boxes) == 0 {
		return
	}

	o.program.Use()
	o.program.SetMat4("uViewProj", viewProj)
	gl.BindVertexArray(o.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, o.vbo)

	for _, b := range boxes {
		verts := BoxLines(b.Bounds, 0)
		if verts == nil {
			continue
		}
		gl.BufferSubData(gl.ARRAY_BUFFER, 0, len(verts)*4, gl.Ptr(verts))
		o.program.SetVec4("uColor", b.Color)
		gl.DrawArrays(gl.LINES, 0, BoxLineVertexCount)
	}
	gl.BindVertexArray(0)
}

// Destroy releases GPU resources.
func (o *Overlay) Destroy() {
	gl.DeleteBuffers(1, &o.vbo)
	gl.DeleteVertexArrays(1, &o.vao)
	o.program.Delete()
}

// ReadPixels reads the current framebuffer as RGBA, bottom row first.
func ReadPixels(width, height int) []byte {
	pixels := make([]byte, width*height*4)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	return pixels
}
