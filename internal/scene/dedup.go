package scene

import (
	"fmt"

	"github.com/ironblock/bim-demo/pkg/math"
)

// ElementID identifies the model element a placement originates from.
type ElementID int64

// ShapeID identifies a distinct piece of vertex/index geometry.
type ShapeID int64

// RawPlacement is one occurrence of a shape in the source model.
type RawPlacement struct {
	Element   ElementID
	Shape     ShapeID
	Transform math.Mat4
	Color     *Color // nil when the source assigns no color
}

// ShapePayload holds triangle-list geometry with flat xyz arrays.
type ShapePayload struct {
	Positions []float32
	Normals   []float32
	Indices   []uint32
}

// VertexCount returns the number of vertices.
func (p *ShapePayload) VertexCount() int {
	if p == nil {
		return 0
	}
	return len(p.Positions) / 3
}

// Empty reports whether the payload has no vertices or no indices.
func (p *ShapePayload) Empty() bool {
	return p == nil || len(p.Positions) < 3 || len(p.Indices) == 0
}

// Validate checks that the payload can be uploaded as a triangle list.
func (p *ShapePayload) Validate() error {
	if p.Empty() {
		return ErrMissingOrEmptyShape
	}
	if len(p.Positions)%3 != 0 {
		return fmt.Errorf("%w: %d position floats", ErrMalformedShape, len(p.Positions))
	}
	if len(p.Normals) != 0 && len(p.Normals) != len(p.Positions) {
		return fmt.Errorf("%w: %d normals for %d positions", ErrMalformedShape, len(p.Normals)/3, len(p.Positions)/3)
	}
	if len(p.Indices)%3 != 0 {
		return fmt.Errorf("%w: %d indices is not a triangle list", ErrMalformedShape, len(p.Indices))
	}
	vc := uint32(p.VertexCount())
	for i, idx := range p.Indices {
		if idx >= vc {
			return fmt.Errorf("%w: index %d at %d exceeds %d vertices", ErrMalformedShape, idx, i, vc)
		}
	}
	return nil
}

// ShapeSource supplies shape geometry by ID.
type ShapeSource interface {
	Shape(id ShapeID) (*ShapePayload, bool)
}

// ShapeSourceFunc adapts a function to ShapeSource.
type ShapeSourceFunc func(id ShapeID) (*ShapePayload, bool)

// Shape calls f(id).
func (f ShapeSourceFunc) Shape(id ShapeID) (*ShapePayload, bool) {
	return f(id)
}

// Instance is one placement of a group's shape.
type Instance struct {
	Element   ElementID
	Transform math.Mat4
}

// GroupKey is the identity of a geometry group.
type GroupKey struct {
	Shape ShapeID
	Color ColorKey
}

// GeometryGroup collects every placement of one shape with one material.
type GeometryGroup struct {
	Key       GroupKey
	Color     *Color // first color seen for the key, used for the material
	Payload   *ShapePayload
	Instances []Instance
}

// DedupReport summarizes a deduplication pass.
type DedupReport struct {
	Placements        int
	Accepted          int
	SkippedPlacements int
	MissingShapes     []ShapeID
	ShapeFetches      int
}

// Dedup groups placements by (shape, quantized color) in first-seen order.
// Each shape is requested from src at most once. Placements whose shape is
// missing or empty are skipped and reported.
func Dedup(placements []RawPlacement, src ShapeSource) ([]*GeometryGroup, DedupReport) {
	report := DedupReport{Placements: len(placements)}

	var groups []*GeometryGroup
	byKey := make(map[GroupKey]*GeometryGroup)
	payloads := make(map[ShapeID]*ShapePayload)
	rejected := make(map[ShapeID]bool)

	for i := range placements {
		p := &placements[i]
		key := GroupKey{Shape: p.Shape, Color: QuantizeColor(p.Color)}

		group, ok := byKey[key]
		if !ok {
			if rejected[p.Shape] {
				report.SkippedPlacements++
				continue
			}
			payload, fetched := payloads[p.Shape]
			if !fetched {
				report.ShapeFetches++
				var found bool
				payload, found = src.Shape(p.Shape)
				if !found || payload.Empty() {
					rejected[p.Shape] = true
					report.MissingShapes = append(report.MissingShapes, p.Shape)
					report.SkippedPlacements++
					continue
				}
				payloads[p.Shape] = payload
			}
			group = &GeometryGroup{
				Key:     key,
				Color:   p.Color,
				Payload: payload,
			}
			// key 0 is the default material; a color that packs to it must
			// not tint uncolored geometry
			if key.Color == NoColor {
				group.Color = nil
			}
			byKey[key] = group
			groups = append(groups, group)
		}

		group.Instances = append(group.Instances, Instance{
			Element:   p.Element,
			Transform: p.Transform,
		})
		report.Accepted++
	}

	return groups, report
}
