package formats

import (
	"fmt"
	"math/rand/v2"
)

// GenerateOptions controls synthetic model generation.
type GenerateOptions struct {
	Columns       int
	Rows          int
	Floors        int
	Spacing       float32 // Distance between grid cells
	FloorHeight   float32
	ShapeVariants int // Distinct box shapes to draw from
	Colors        int // Palette entries used, 0 leaves every placement uncolored
	Seed          uint64
	UpAxis        PLDUpAxis
}

// DefaultGenerateOptions returns a small tower with a few repeated shapes.
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{
		Columns:       10,
		Rows:          10,
		Floors:        5,
		Spacing:       3,
		FloorHeight:   3,
		ShapeVariants: 6,
		Colors:        4,
		Seed:          1,
		UpAxis:        PLDUpY,
	}
}

var generatedTypes = []string{"IfcColumn", "IfcWall", "IfcSlab", "IfcBeam", "IfcWindow", "IfcDoor"}

var generatedPalette = [][4]float32{
	{0.80, 0.80, 0.78, 1},
	{0.55, 0.35, 0.20, 1},
	{0.30, 0.50, 0.75, 0.4},
	{0.70, 0.20, 0.20, 1},
	{0.25, 0.60, 0.30, 1},
	{0.95, 0.85, 0.30, 1},
}

// Generate builds a deterministic grid model for a given seed.
func Generate(opts GenerateOptions) (*PLD, error) {
	if opts.Columns <= 0 || opts.Rows <= 0 || opts.Floors <= 0 {
		return nil, fmt.Errorf("grid dimensions must be positive, got %dx%dx%d", opts.Columns, opts.Rows, opts.Floors)
	}
	if opts.ShapeVariants <= 0 {
		return nil, fmt.Errorf("shape variants must be positive, got %d", opts.ShapeVariants)
	}
	if opts.Colors < 0 || opts.Colors > len(generatedPalette) {
		return nil, fmt.Errorf("colors must be in [0, %d], got %d", len(generatedPalette), opts.Colors)
	}

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))

	pld := &PLD{
		Version: CurrentPLDVersion,
		UpAxis:  opts.UpAxis,
		Name:    fmt.Sprintf("grid-%dx%dx%d-seed%d", opts.Columns, opts.Rows, opts.Floors, opts.Seed),
	}

	for i := 0; i < opts.ShapeVariants; i++ {
		sx := 1 + 0.5*float32(i%3)
		sy := 1 + 0.5*float32((i/3)%3)
		sz := 1 + 0.25*float32(i/9)
		shape := makeBoxShape(int64(i+1), sx, sy, sz)
		pld.Shapes = append(pld.Shapes, shape)
	}

	var id int64
	for f := 0; f < opts.Floors; f++ {
		for r := 0; r < opts.Rows; r++ {
			for c := 0; c < opts.Columns; c++ {
				id++
				variant := rng.IntN(opts.ShapeVariants)
				pld.Elements = append(pld.Elements, PLDElement{
					ID:   id,
					Type: generatedTypes[variant%len(generatedTypes)],
					Name: fmt.Sprintf("L%02d-%c%d", f+1, 'A'+rune(r%26), c+1),
				})

				x := float32(c) * opts.Spacing
				h := float32(f) * opts.FloorHeight
				d := float32(r) * opts.Spacing
				pl := PLDPlacement{
					Element:   id,
					Shape:     pld.Shapes[variant].ID,
					Transform: translation(x, h, d),
				}
				if opts.UpAxis == PLDUpZ {
					pl.Transform = translation(x, d, h)
				}
				if opts.Colors > 0 {
					color := generatedPalette[rng.IntN(opts.Colors)]
					pl.Color = &color
				}
				pld.Placements = append(pld.Placements, pl)
			}
		}
	}

	return pld, nil
}

// translation returns a column-major translation matrix.
func translation(x, y, z float32) [16]float32 {
	return [16]float32{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		x, y, z, 1,
	}
}

// makeBoxShape returns a box from the origin to (sx, sy, sz) with flat
// per-face normals.
func makeBoxShape(id int64, sx, sy, sz float32) PLDShape {
	type face struct {
		normal  [3]float32
		corners [4][3]float32
	}
	faces := []face{
		{[3]float32{0, 0, 1}, [4][3]float32{{0, 0, sz}, {sx, 0, sz}, {sx, sy, sz}, {0, sy, sz}}},
		{[3]float32{0, 0, -1}, [4][3]float32{{sx, 0, 0}, {0, 0, 0}, {0, sy, 0}, {sx, sy, 0}}},
		{[3]float32{1, 0, 0}, [4][3]float32{{sx, 0, sz}, {sx, 0, 0}, {sx, sy, 0}, {sx, sy, sz}}},
		{[3]float32{-1, 0, 0}, [4][3]float32{{0, 0, 0}, {0, 0, sz}, {0, sy, sz}, {0, sy, 0}}},
		{[3]float32{0, 1, 0}, [4][3]float32{{0, sy, sz}, {sx, sy, sz}, {sx, sy, 0}, {0, sy, 0}}},
		{[3]float32{0, -1, 0}, [4][3]float32{{0, 0, 0}, {sx, 0, 0}, {sx, 0, sz}, {0, 0, sz}}},
	}

	shape := PLDShape{
		ID:        id,
		Positions: make([]float32, 0, 24*3),
		Normals:   make([]float32, 0, 24*3),
		Indices:   make([]uint32, 0, 36),
	}
	for i, f := range faces {
		for _, c := range f.corners {
			shape.Positions = append(shape.Positions, c[0], c[1], c[2])
			shape.Normals = append(shape.Normals, f.normal[0], f.normal[1], f.normal[2])
		}
		base := uint32(i * 4)
		shape.Indices = append(shape.Indices, base, base+1, base+2, base, base+2, base+3)
	}
	return shape
}
