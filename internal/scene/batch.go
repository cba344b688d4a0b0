package scene

import (
	"github.com/ironblock/bim-demo/pkg/math"
)

// BatchID identifies a renderable batch within a scene. IDs start at 1.
type BatchID uint32

// BatchMode tells how a batch places its geometry.
type BatchMode uint8

const (
	ModeSingleton BatchMode = iota // transform baked into the mesh
	ModeInstanced                  // per-instance transform buffer
)

// String returns the mode name.
func (m BatchMode) String() string {
	switch m {
	case ModeSingleton:
		return "singleton"
	case ModeInstanced:
		return "instanced"
	default:
		return "unknown"
	}
}

// Placement is the per-batch placement data. It is either Singleton or
// Instanced; consumers switch on the concrete type.
type Placement interface {
	Mode() BatchMode
	Len() int
	placement()
}

// Singleton places a shape exactly once.
type Singleton struct {
	Transform math.Mat4
	Element   ElementID
}

// Mode returns ModeSingleton.
func (Singleton) Mode() BatchMode { return ModeSingleton }

// Len returns 1.
func (Singleton) Len() int { return 1 }

func (Singleton) placement() {}

// Instanced places a shape several times. Transforms holds 16 floats per
// instance in placement order; Elements[i] is the element of instance i.
type Instanced struct {
	Transforms []float32
	Elements   []ElementID
}

// Mode returns ModeInstanced.
func (Instanced) Mode() BatchMode { return ModeInstanced }

// Len returns the number of instances.
func (p Instanced) Len() int { return len(p.Elements) }

func (Instanced) placement() {}

// TransformAt returns the transform of instance i.
func (p Instanced) TransformAt(i int) math.Mat4 {
	return math.FromSlice(p.Transforms[i*16 : i*16+16])
}

// RenderableBatch is the renderable unit for one (shape, material) pair.
type RenderableBatch struct {
	ID          BatchID
	Key         GroupKey
	Material    Handle
	Mesh        Handle
	Placement   Placement
	LocalBounds math.Box3
	VertexCount int
	IndexCount  int
	Visible     bool
	Frozen      bool
}

// Mode returns the placement mode.
func (b *RenderableBatch) Mode() BatchMode {
	return b.Placement.Mode()
}

// InstanceCount returns the number of placements covered by the batch.
func (b *RenderableBatch) InstanceCount() int {
	return b.Placement.Len()
}

// ElementLookup returns the element of each instance, indexed by instance
// position.
func (b *RenderableBatch) ElementLookup() []ElementID {
	switch p := b.Placement.(type) {
	case Singleton:
		return []ElementID{p.Element}
	case Instanced:
		return p.Elements
	default:
		return nil
	}
}

// WorldTransforms calls fn with the world transform of every instance.
func (b *RenderableBatch) WorldTransforms(root math.Mat4, fn func(i int, m math.Mat4)) {
	switch p := b.Placement.(type) {
	case Singleton:
		fn(0, root.Mul(p.Transform))
	case Instanced:
		for i := 0; i < p.Len(); i++ {
			fn(i, root.Mul(p.TransformAt(i)))
		}
	}
}

func newPlacement(instances []Instance) Placement {
	if len(instances) == 1 {
		return Singleton{
			Transform: instances[0].Transform,
			Element:   instances[0].Element,
		}
	}
	p := Instanced{
		Transforms: make([]float32, 0, len(instances)*16),
		Elements:   make([]ElementID, len(instances)),
	}
	for i, inst := range instances {
		p.Transforms = append(p.Transforms, inst.Transform[:]...)
		p.Elements[i] = inst.Element
	}
	return p
}
