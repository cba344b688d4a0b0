// Package source adapts placement dumps to the scene builder's inputs.
package source

import (
	"fmt"

	"github.com/ironblock/bim-demo/internal/scene"
	"github.com/ironblock/bim-demo/pkg/formats"
	"github.com/ironblock/bim-demo/pkg/math"
)

// Model serves a parsed dump as placements, shapes and element metadata.
// Shape payloads share the dump's slices and must not be mutated.
type Model struct {
	pld      *formats.PLD
	shapes   map[scene.ShapeID]*formats.PLDShape
	elements map[scene.ElementID]scene.ElementInfo
}

// New indexes p for lookup by ID.
func New(p *formats.PLD) *Model {
	m := &Model{
		pld:      p,
		shapes:   make(map[scene.ShapeID]*formats.PLDShape, len(p.Shapes)),
		elements: make(map[scene.ElementID]scene.ElementInfo, len(p.Elements)),
	}
	for i := range p.Shapes {
		m.shapes[scene.ShapeID(p.Shapes[i].ID)] = &p.Shapes[i]
	}
	for _, e := range p.Elements {
		m.elements[scene.ElementID(e.ID)] = scene.ElementInfo{Type: e.Type, Name: e.Name}
	}
	return m
}

// Open parses the dump at path.
func Open(path string) (*Model, error) {
	p, err := formats.ParsePLDFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening model %s: %w", path, err)
	}
	return New(p), nil
}

// Name returns the model name stored in the dump.
func (m *Model) Name() string {
	return m.pld.Name
}

// PLD returns the underlying dump.
func (m *Model) PLD() *formats.PLD {
	return m.pld
}

// Shape implements scene.ShapeSource.
func (m *Model) Shape(id scene.ShapeID) (*scene.ShapePayload, bool) {
	s, ok := m.shapes[id]
	if !ok {
		return nil, false
	}
	return &scene.ShapePayload{
		Positions: s.Positions,
		Normals:   s.Normals,
		Indices:   s.Indices,
	}, true
}

// Element implements scene.Metadata.
func (m *Model) Element(id scene.ElementID) (scene.ElementInfo, bool) {
	info, ok := m.elements[id]
	return info, ok
}

// Placements converts every dump placement in file order.
func (m *Model) Placements() []scene.RawPlacement {
	out := make([]scene.RawPlacement, len(m.pld.Placements))
	for i, pl := range m.pld.Placements {
		out[i] = scene.RawPlacement{
			Element:   scene.ElementID(pl.Element),
			Shape:     scene.ShapeID(pl.Shape),
			Transform: math.Mat4(pl.Transform),
		}
		if pl.Color != nil {
			out[i].Color = &scene.Color{R: pl.Color[0], G: pl.Color[1], B: pl.Color[2], A: pl.Color[3]}
		}
	}
	return out
}

// Axis returns the conversion the dump asks for, or fallback when the
// dump is already Y-up.
func (m *Model) Axis(fallback scene.AxisConversion) scene.AxisConversion {
	if m.pld.UpAxis == formats.PLDUpZ {
		return scene.AxisZUpToYUp
	}
	return fallback
}
