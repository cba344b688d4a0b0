package scene

import (
	"github.com/ironblock/bim-demo/pkg/math"
)

// BoundsInfo describes the world-space extent of a scene.
type BoundsInfo struct {
	Min      math.Vec3
	Max      math.Vec3
	Center   math.Vec3
	Size     math.Vec3
	Diagonal float32
}

// NewBoundsInfo derives center, size and diagonal from a box.
func NewBoundsInfo(box math.Box3) BoundsInfo {
	size := box.Size()
	return BoundsInfo{
		Min:      box.Min,
		Max:      box.Max,
		Center:   box.Center(),
		Size:     size,
		Diagonal: size.Length(),
	}
}

// ComputeBounds accumulates the world bounds of every instance of every
// visible, non-empty batch. ok is false when nothing contributed.
func ComputeBounds(root math.Mat4, batches []*RenderableBatch) (info BoundsInfo, ok bool) {
	box := math.EmptyBox()
	for _, b := range batches {
		if b == nil || !b.Visible || b.VertexCount == 0 || b.LocalBounds.IsEmpty() {
			continue
		}
		b.WorldTransforms(root, func(_ int, m math.Mat4) {
			box = box.Union(b.LocalBounds.Transform(m))
		})
	}
	if box.IsEmpty() {
		return BoundsInfo{}, false
	}
	return NewBoundsInfo(box), true
}
