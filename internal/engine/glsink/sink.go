// Package glsink uploads scene batches to OpenGL and draws them.
package glsink

import (
	"errors"
	"fmt"
	"sort"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/ironblock/bim-demo/internal/engine/glsink/shaders"
	"github.com/ironblock/bim-demo/internal/engine/shader"
	"github.com/ironblock/bim-demo/internal/scene"
	"github.com/ironblock/bim-demo/pkg/math"
)

// Sink errors.
var (
	ErrUnknownHandle = errors.New("unknown handle")
	ErrFrozen        = errors.New("mesh is frozen")
)

// Vertex attribute locations shared with batch.vert.
const (
	attrPosition = 0
	attrNormal   = 1
	attrInstance = 2 // mat4 occupies 2..5
)

// defaultColor is drawn for meshes whose material has no color.
var defaultColor = [4]float32{0.78, 0.78, 0.76, 1}

type material struct {
	color [4]float32
	bias  float32
}

func (m *material) transparent() bool {
	return m.color[3] < 1
}

type mesh struct {
	handle     scene.Handle
	name       string
	root       scene.Handle
	material   scene.Handle
	vao        uint32
	vbo        uint32
	nbo        uint32
	ebo        uint32
	ibo        uint32
	indexCount int32
	instances  int32
	model      math.Mat4
	frozen     bool
}

// Sink is a scene.MeshSink backed by an OpenGL 4.1 context. All methods must
// run on the thread that owns the context.
type Sink struct {
	log     *zap.Logger
	program *shader.Program

	next      scene.Handle
	roots     map[scene.Handle]math.Mat4
	materials map[scene.Handle]*material
	meshes    map[scene.Handle]*mesh
	order     []*mesh // creation order
	dirty     bool

	// Highlighted mesh and instance, tinted when drawn.
	highlight         scene.Handle
	highlightInstance int
}

// New compiles the batch shader. A GL context must be current.
func New(log *zap.Logger) (*Sink, error) {
	if log == nil {
		log = zap.NewNop()
	}
	program, err := shader.Compile(shaders.BatchVertexShader, shaders.BatchFragmentShader)
	if err != nil {
		return nil, fmt.Errorf("batch shader: %w", err)
	}
	return &Sink{
		log:       log,
		program:   program,
		roots:     make(map[scene.Handle]math.Mat4),
		materials: make(map[scene.Handle]*material),
		meshes:    make(map[scene.Handle]*mesh),
	}, nil
}

func (s *Sink) alloc() scene.Handle {
	s.next++
	return s.next
}

// CreateRoot implements scene.MeshSink.
func (s *Sink) CreateRoot() scene.Handle {
	h := s.alloc()
	s.roots[h] = math.Identity()
	return h
}

// SetRootTransform implements scene.MeshSink.
func (s *Sink) SetRootTransform(root scene.Handle, m math.Mat4) {
	if _, ok := s.roots[root]; ok {
		s.roots[root] = m
	}
}

// CreateMaterial implements scene.MeshSink.
func (s *Sink) CreateMaterial(desc scene.MaterialDesc) (scene.Handle, error) {
	mat := &material{color: defaultColor, bias: desc.DepthBias}
	if desc.Color != nil {
		mat.color = [4]float32{desc.Color.R, desc.Color.G, desc.Color.B, desc.Color.A}
	}
	h := s.alloc()
	s.materials[h] = mat
	return h, nil
}

// CreateMesh implements scene.MeshSink.
func (s *Sink) CreateMesh(desc scene.MeshDesc) (scene.Handle, error) {
	p := desc.Payload
	if err := p.Validate(); err != nil {
		return scene.NoHandle, err
	}
	if _, ok := s.materials[desc.Material]; !ok {
		return scene.NoHandle, fmt.Errorf("%w: material %d", ErrUnknownHandle, desc.Material)
	}

	m := &mesh{
		handle:     s.alloc(),
		name:       desc.Name,
		root:       desc.Parent,
		material:   desc.Material,
		indexCount: int32(len(p.Indices)),
		model:      math.Identity(),
	}

	gl.GenVertexArrays(1, &m.vao)
	gl.BindVertexArray(m.vao)

	// Position
	gl.GenBuffers(1, &m.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, m.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(p.Positions)*4, unsafe.Pointer(&p.Positions[0]), gl.STATIC_DRAW)
	gl.VertexAttribPointerWithOffset(attrPosition, 3, gl.FLOAT, false, 3*4, 0)
	gl.EnableVertexAttribArray(attrPosition)

	// Normal, or a constant up vector when the shape has none
	if len(p.Normals) > 0 {
		gl.GenBuffers(1, &m.nbo)
		gl.BindBuffer(gl.ARRAY_BUFFER, m.nbo)
		gl.BufferData(gl.ARRAY_BUFFER, len(p.Normals)*4, unsafe.Pointer(&p.Normals[0]), gl.STATIC_DRAW)
		gl.VertexAttribPointerWithOffset(attrNormal, 3, gl.FLOAT, false, 3*4, 0)
		gl.EnableVertexAttribArray(attrNormal)
	} else {
		gl.DisableVertexAttribArray(attrNormal)
		gl.VertexAttrib3f(attrNormal, 0, 1, 0)
	}

	gl.GenBuffers(1, &m.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, m.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(p.Indices)*4, unsafe.Pointer(&p.Indices[0]), gl.STATIC_DRAW)

	gl.BindVertexArray(0)

	if code := gl.GetError(); code != gl.NO_ERROR {
		s.deleteMesh(m)
		return scene.NoHandle, fmt.Errorf("uploading %s: GL error 0x%x", desc.Name, code)
	}

	s.meshes[m.handle] = m
	s.order = append(s.order, m)
	s.dirty = true
	return m.handle, nil
}

func (s *Sink) lookupMesh(h scene.Handle) (*mesh, error) {
	m, ok := s.meshes[h]
	if !ok {
		return nil, fmt.Errorf("%w: mesh %d", ErrUnknownHandle, h)
	}
	if m.frozen {
		return nil, fmt.Errorf("%w: %s", ErrFrozen, m.name)
	}
	return m, nil
}

// SetTransform implements scene.MeshSink.
func (s *Sink) SetTransform(h scene.Handle, t math.Mat4) error {
	m, err := s.lookupMesh(h)
	if err != nil {
		return err
	}
	m.model = t
	m.instances = 0
	return nil
}

// SetInstances implements scene.MeshSink. transforms holds one column-major
// matrix per instance.
func (s *Sink) SetInstances(h scene.Handle, transforms []float32) error {
	m, err := s.lookupMesh(h)
	if err != nil {
		return err
	}
	if len(transforms) == 0 || len(transforms)%16 != 0 {
		return fmt.Errorf("instance buffer of %d floats is not a list of matrices", len(transforms))
	}

	gl.BindVertexArray(m.vao)
	if m.ibo == 0 {
		gl.GenBuffers(1, &m.ibo)
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, m.ibo)
	gl.BufferData(gl.ARRAY_BUFFER, len(transforms)*4, unsafe.Pointer(&transforms[0]), gl.STATIC_DRAW)

	// One vec4 column per attribute slot, advanced once per instance
	const stride = 16 * 4
	for col := uint32(0); col < 4; col++ {
		loc := attrInstance + col
		gl.VertexAttribPointerWithOffset(loc, 4, gl.FLOAT, false, stride, uintptr(col*16))
		gl.EnableVertexAttribArray(loc)
		gl.VertexAttribDivisor(loc, 1)
	}
	gl.BindVertexArray(0)

	m.instances = int32(len(transforms) / 16)
	return nil
}

// Freeze implements scene.MeshSink.
func (s *Sink) Freeze(h scene.Handle) {
	if m, ok := s.meshes[h]; ok {
		m.frozen = true
	}
}

// Release implements scene.MeshSink.
func (s *Sink) Release(h scene.Handle) {
	if m, ok := s.meshes[h]; ok {
		s.deleteMesh(m)
		delete(s.meshes, h)
		s.dirty = true
		if s.highlight == h {
			s.highlight = scene.NoHandle
		}
		return
	}
	if _, ok := s.materials[h]; ok {
		delete(s.materials, h)
		return
	}
	if _, ok := s.roots[h]; ok {
		delete(s.roots, h)
		return
	}
	s.log.Warn("release of unknown handle", zap.Uint64("handle", uint64(h)))
}

func (s *Sink) deleteMesh(m *mesh) {
	if m.vao != 0 {
		gl.DeleteVertexArrays(1, &m.vao)
	}
	for _, buf := range []*uint32{&m.vbo, &m.nbo, &m.ebo, &m.ibo} {
		if *buf != 0 {
			gl.DeleteBuffers(1, buf)
		}
	}
}

// Highlight tints one instance of a mesh. Singleton meshes use instance 0.
// Pass scene.NoHandle to clear.
func (s *Sink) Highlight(h scene.Handle, instance int) {
	s.highlight = h
	s.highlightInstance = instance
}

// Stats returns live resource counts.
func (s *Sink) Stats() (meshes, materials, roots int) {
	return len(s.meshes), len(s.materials), len(s.roots)
}

// Render draws every live mesh, opaque first.
func (s *Sink) Render(viewProj math.Mat4, lightDir math.Vec3) {
	if s.dirty {
		s.order = drawOrder(s.order, s.meshes, s.materials)
		s.dirty = false
	}
	if len(s.order) == 0 {
		return
	}

	s.program.Use()
	s.program.SetMat4("uViewProj", viewProj)
	s.program.SetVec3("uLightDir", lightDir.Normalize())
	s.program.SetVec4("uHighlight", [4]float32{1.0, 0.55, 0.1, 0.6})

	gl.Enable(gl.DEPTH_TEST)
	gl.Enable(gl.POLYGON_OFFSET_FILL)
	gl.Disable(gl.CULL_FACE)

	blending := false
	for _, m := range s.order {
		mat := s.materials[m.material]
		if mat == nil {
			continue
		}
		if mat.transparent() && !blending {
			gl.Enable(gl.BLEND)
			gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
			gl.DepthMask(false)
			blending = true
		}

		root, ok := s.roots[m.root]
		if !ok {
			root = math.Identity()
		}
		s.program.SetMat4("uRoot", root)
		s.program.SetVec4("uColor", mat.color)
		gl.PolygonOffset(mat.bias, mat.bias)

		s.program.SetInt("uHighlightInstance", s.highlightFor(m))

		gl.BindVertexArray(m.vao)
		if m.instances > 0 {
			s.program.SetBool("uInstanced", true)
			gl.DrawElementsInstanced(gl.TRIANGLES, m.indexCount, gl.UNSIGNED_INT, nil, m.instances)
		} else {
			s.program.SetBool("uInstanced", false)
			s.program.SetMat4("uModel", m.model)
			gl.DrawElements(gl.TRIANGLES, m.indexCount, gl.UNSIGNED_INT, nil)
		}
	}

	gl.BindVertexArray(0)
	gl.Disable(gl.POLYGON_OFFSET_FILL)
	if blending {
		gl.DepthMask(true)
		gl.Disable(gl.BLEND)
	}
}

// highlightFor returns the instance of m to tint, or -1.
func (s *Sink) highlightFor(m *mesh) int32 {
	if m.handle != s.highlight {
		return -1
	}
	return int32(s.highlightInstance)
}

// drawOrder drops released meshes and sorts opaque meshes before transparent
// ones, keeping creation order within each class.
func drawOrder(order []*mesh, live map[scene.Handle]*mesh, materials map[scene.Handle]*material) []*mesh {
	out := order[:0]
	for _, m := range order {
		if _, ok := live[m.handle]; ok {
			out = append(out, m)
		}
	}
	transparent := func(m *mesh) bool {
		mat, ok := materials[m.material]
		return ok && mat.transparent()
	}
	sort.SliceStable(out, func(i, j int) bool {
		return !transparent(out[i]) && transparent(out[j])
	})
	return out
}

// Destroy releases every GL resource.
func (s *Sink) Destroy() {
	for _, m := range s.meshes {
		s.deleteMesh(m)
	}
	s.meshes = make(map[scene.Handle]*mesh)
	s.materials = make(map[scene.Handle]*material)
	s.roots = make(map[scene.Handle]math.Mat4)
	s.order = nil
	if s.program != nil {
		s.program.Delete()
	}
}

var _ scene.MeshSink = (*Sink)(nil)
