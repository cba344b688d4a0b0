// Package debug provides viewer overlays and capture helpers.
package debug

import "github.com/ironblock/bim-demo/pkg/math"

// BoxLineVertexCount is the number of vertices BoxLines emits (12 edges × 2).
const BoxLineVertexCount = 24

// BoxLines returns line-list vertices, [x, y, z] each, for the edges of b
// grown by pad on every side. An empty box yields nil.
func BoxLines(b math.Box3, pad float32) []float32 {
	if b.IsEmpty() {
		return nil
	}
	lo := b.Min.Sub(math.Vec3{X: pad, Y: pad, Z: pad})
	hi := b.Max.Add(math.Vec3{X: pad, Y: pad, Z: pad})

	return []float32{
		// Bottom face
		lo.X, lo.Y, lo.Z, hi.X, lo.Y, lo.Z,
		hi.X, lo.Y, lo.Z, hi.X, lo.Y, hi.Z,
		hi.X, lo.Y, hi.Z, lo.X, lo.Y, hi.Z,
		lo.X, lo.Y, hi.Z, lo.X, lo.Y, lo.Z,
		// Top face
		lo.X, hi.Y, lo.Z, hi.X, hi.Y, lo.Z,
		hi.X, hi.Y, lo.Z, hi.X, hi.Y, hi.Z,
		hi.X, hi.Y, hi.Z, lo.X, hi.Y, hi.Z,
		lo.X, hi.Y, hi.Z, lo.X, hi.Y, lo.Z,
		// Vertical edges
		lo.X, lo.Y, lo.Z, lo.X, hi.Y, lo.Z,
		hi.X, lo.Y, lo.Z, hi.X, hi.Y, lo.Z,
		hi.X, lo.Y, hi.Z, hi.X, hi.Y, hi.Z,
		lo.X, lo.Y, hi.Z, lo.X, hi.Y, hi.Z,
	}
}
