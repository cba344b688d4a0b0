package scene

import (
	"github.com/ironblock/bim-demo/pkg/math"
)

// unitCube returns a cube spanning (0,0,0)-(1,1,1).
func unitCube() *ShapePayload {
	return &ShapePayload{
		Positions: []float32{
			0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0,
			0, 0, 1, 1, 0, 1, 1, 1, 1, 0, 1, 1,
		},
		Normals: []float32{
			-1, -1, -1, 1, -1, -1, 1, 1, -1, -1, 1, -1,
			-1, -1, 1, 1, -1, 1, 1, 1, 1, -1, 1, 1,
		},
		Indices: []uint32{
			0, 2, 1, 0, 3, 2,
			4, 5, 6, 4, 6, 7,
			0, 1, 5, 0, 5, 4,
			3, 6, 2, 3, 7, 6,
			0, 4, 7, 0, 7, 3,
			1, 2, 6, 1, 6, 5,
		},
	}
}

// shapeTable is a ShapeSource that counts fetches per shape.
type shapeTable struct {
	shapes  map[ShapeID]*ShapePayload
	fetches map[ShapeID]int
}

func newShapeTable(ids ...ShapeID) *shapeTable {
	t := &shapeTable{
		shapes:  make(map[ShapeID]*ShapePayload),
		fetches: make(map[ShapeID]int),
	}
	for _, id := range ids {
		t.shapes[id] = unitCube()
	}
	return t
}

func (t *shapeTable) Shape(id ShapeID) (*ShapePayload, bool) {
	t.fetches[id]++
	p, ok := t.shapes[id]
	return p, ok
}

func place(element ElementID, shape ShapeID, x, y, z float32, c *Color) RawPlacement {
	return RawPlacement{
		Element:   element,
		Shape:     shape,
		Transform: math.Translate(x, y, z),
		Color:     c,
	}
}

func noAxis() Options {
	opts := DefaultOptions()
	opts.Axis = AxisNone
	return opts
}

// stepAll drives b to completion and returns every snapshot seen.
func stepAll(b *Builder) ([]BuildProgress, StepResult) {
	var snaps []BuildProgress
	for i := 0; i < 10000; i++ {
		res := b.Step()
		if res.Status != StepInProgress {
			return snaps, res
		}
		snaps = append(snaps, res.Progress)
	}
	panic("build did not finish")
}
