package scene

import (
	"fmt"

	"github.com/ironblock/bim-demo/pkg/math"
)

// MemoryResource is a resource held by a MemorySink.
type MemoryResource struct {
	Kind      string // "root", "material" or "mesh"
	Material  MaterialDesc
	Mesh      MeshDesc
	Transform math.Mat4
	Instances []float32
	Frozen    bool
}

// MemorySink is a MeshSink that keeps resources in memory. It backs headless
// builds and lets callers inject upload failures.
type MemorySink struct {
	Resources map[Handle]*MemoryResource
	Uploads   int
	Releases  int
	Root      math.Mat4

	// FailMesh, when set, makes CreateMesh fail for matching descriptors.
	FailMesh func(desc MeshDesc) error

	next Handle
}

// NewMemorySink returns an empty sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{
		Resources: make(map[Handle]*MemoryResource),
		Root:      math.Identity(),
	}
}

// Live returns the number of resources not yet released.
func (m *MemorySink) Live() int {
	return len(m.Resources)
}

func (m *MemorySink) add(r *MemoryResource) Handle {
	m.next++
	m.Resources[m.next] = r
	return m.next
}

// CreateRoot implements MeshSink.
func (m *MemorySink) CreateRoot() Handle {
	return m.add(&MemoryResource{Kind: "root", Transform: math.Identity()})
}

// SetRootTransform implements MeshSink.
func (m *MemorySink) SetRootTransform(root Handle, t math.Mat4) {
	if r, ok := m.Resources[root]; ok {
		r.Transform = t
	}
	m.Root = t
}

// CreateMaterial implements MeshSink.
func (m *MemorySink) CreateMaterial(desc MaterialDesc) (Handle, error) {
	return m.add(&MemoryResource{Kind: "material", Material: desc}), nil
}

// CreateMesh implements MeshSink.
func (m *MemorySink) CreateMesh(desc MeshDesc) (Handle, error) {
	if m.FailMesh != nil {
		if err := m.FailMesh(desc); err != nil {
			return NoHandle, err
		}
	}
	m.Uploads++
	return m.add(&MemoryResource{Kind: "mesh", Mesh: desc, Transform: math.Identity()}), nil
}

// SetTransform implements MeshSink.
func (m *MemorySink) SetTransform(mesh Handle, t math.Mat4) error {
	r, ok := m.Resources[mesh]
	if !ok {
		return fmt.Errorf("unknown mesh %d", mesh)
	}
	r.Transform = t
	return nil
}

// SetInstances implements MeshSink.
func (m *MemorySink) SetInstances(mesh Handle, transforms []float32) error {
	r, ok := m.Resources[mesh]
	if !ok {
		return fmt.Errorf("unknown mesh %d", mesh)
	}
	if len(transforms)%16 != 0 {
		return fmt.Errorf("instance buffer of %d floats", len(transforms))
	}
	r.Instances = transforms
	return nil
}

// Freeze implements MeshSink.
func (m *MemorySink) Freeze(mesh Handle) {
	if r, ok := m.Resources[mesh]; ok {
		r.Frozen = true
	}
}

// Release implements MeshSink. Releasing an unknown handle panics so double
// releases surface in tests.
func (m *MemorySink) Release(h Handle) {
	if _, ok := m.Resources[h]; !ok {
		panic(fmt.Sprintf("scene: release of unknown handle %d", h))
	}
	delete(m.Resources, h)
	m.Releases++
}
