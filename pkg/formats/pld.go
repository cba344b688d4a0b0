package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
)

// PLD format errors.
var (
	ErrInvalidPLDMagic       = errors.New("invalid PLD magic: expected 'GPLD'")
	ErrUnsupportedPLDVersion = errors.New("unsupported PLD version")
	ErrTruncatedPLDData      = errors.New("truncated PLD data")
)

const pldMagic = "GPLD"

// PLDVersion represents the PLD file version.
type PLDVersion struct {
	Major uint8
	Minor uint8
}

// CurrentPLDVersion is the version written by WritePLD.
var CurrentPLDVersion = PLDVersion{Major: 1, Minor: 1}

// String returns the version as "Major.Minor".
func (v PLDVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// AtLeast returns true if version is >= major.minor.
func (v PLDVersion) AtLeast(major, minor uint8) bool {
	if v.Major > major {
		return true
	}
	return v.Major == major && v.Minor >= minor
}

// PLDUpAxis is the vertical axis of the authoring tool.
type PLDUpAxis uint8

const (
	PLDUpY PLDUpAxis = 0
	PLDUpZ PLDUpAxis = 1
)

// String returns a human-readable axis name.
func (a PLDUpAxis) String() string {
	switch a {
	case PLDUpY:
		return "Y-up"
	case PLDUpZ:
		return "Z-up"
	default:
		return fmt.Sprintf("Unknown(%d)", a)
	}
}

// PLDShape is a shared vertex payload referenced by placements.
type PLDShape struct {
	ID        int64
	Positions []float32 // xyz triples
	Normals   []float32 // xyz triples, empty if absent
	Indices   []uint32
}

// VertexCount returns the number of vertices.
func (s *PLDShape) VertexCount() int {
	return len(s.Positions) / 3
}

// PLDElement is a model element record.
type PLDElement struct {
	ID   int64
	Type string // e.g. "IfcWall"
	Name string
}

// PLDPlacement puts one element's shape into the world.
type PLDPlacement struct {
	Element   int64
	Shape     int64
	Transform [16]float32 // column-major
	Color     *[4]float32 // RGBA in [0,1], nil for default material
}

// PLD represents a parsed placement dump.
type PLD struct {
	Version    PLDVersion
	UpAxis     PLDUpAxis // v1.1+
	Name       string
	Shapes     []PLDShape
	Elements   []PLDElement
	Placements []PLDPlacement
}

// CountByType returns the count of placements for each element type.
func (p *PLD) CountByType() map[string]int {
	types := make(map[int64]string, len(p.Elements))
	for _, e := range p.Elements {
		types[e.ID] = e.Type
	}
	counts := make(map[string]int)
	for _, pl := range p.Placements {
		counts[types[pl.Element]]++
	}
	return counts
}

// TriangleCount returns the triangle total over all placements.
func (p *PLD) TriangleCount() int {
	tris := make(map[int64]int, len(p.Shapes))
	for i := range p.Shapes {
		tris[p.Shapes[i].ID] = len(p.Shapes[i].Indices) / 3
	}
	total := 0
	for _, pl := range p.Placements {
		total += tris[pl.Shape]
	}
	return total
}

// ParsePLD parses a PLD file from raw bytes.
func ParsePLD(data []byte) (*PLD, error) {
	if len(data) < 6 {
		return nil, ErrTruncatedPLDData
	}

	// Check magic "GPLD"
	if string(data[0:4]) != pldMagic {
		return nil, ErrInvalidPLDMagic
	}

	version := PLDVersion{
		Major: data[4],
		Minor: data[5],
	}

	// Supported versions: 1.0 - 1.1
	if version.Major != 1 || version.Minor > 1 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedPLDVersion, version)
	}

	pld := &PLD{
		Version: version,
	}

	r := bytes.NewReader(data[6:])

	// Up axis (v1.1+)
	if version.AtLeast(1, 1) {
		if err := binary.Read(r, binary.LittleEndian, &pld.UpAxis); err != nil {
			return nil, fmt.Errorf("%w: reading up axis", ErrTruncatedPLDData)
		}
	}

	name, err := readPLDString(r)
	if err != nil {
		return nil, fmt.Errorf("%w: reading model name", err)
	}
	pld.Name = name

	// Shapes
	shapeCount, err := readPLDCount(r, 8+4+1+4)
	if err != nil {
		return nil, fmt.Errorf("%w: reading shape count", err)
	}
	pld.Shapes = make([]PLDShape, 0, shapeCount)
	for i := uint32(0); i < shapeCount; i++ {
		shape, err := parsePLDShape(r)
		if err != nil {
			return nil, fmt.Errorf("parsing shape %d: %w", i, err)
		}
		pld.Shapes = append(pld.Shapes, shape)
	}

	// Elements
	elementCount, err := readPLDCount(r, 8+2+2)
	if err != nil {
		return nil, fmt.Errorf("%w: reading element count", err)
	}
	pld.Elements = make([]PLDElement, 0, elementCount)
	for i := uint32(0); i < elementCount; i++ {
		var elem PLDElement
		if err := binary.Read(r, binary.LittleEndian, &elem.ID); err != nil {
			return nil, fmt.Errorf("%w: reading element %d id", ErrTruncatedPLDData, i)
		}
		if elem.Type, err = readPLDString(r); err != nil {
			return nil, fmt.Errorf("%w: reading element %d type", err, i)
		}
		if elem.Name, err = readPLDString(r); err != nil {
			return nil, fmt.Errorf("%w: reading element %d name", err, i)
		}
		pld.Elements = append(pld.Elements, elem)
	}

	// Placements
	placementCount, err := readPLDCount(r, 8+8+64+1)
	if err != nil {
		return nil, fmt.Errorf("%w: reading placement count", err)
	}
	pld.Placements = make([]PLDPlacement, 0, placementCount)
	for i := uint32(0); i < placementCount; i++ {
		pl, err := parsePLDPlacement(r)
		if err != nil {
			return nil, fmt.Errorf("parsing placement %d: %w", i, err)
		}
		pld.Placements = append(pld.Placements, pl)
	}

	return pld, nil
}

// parsePLDShape parses a single shape record.
func parsePLDShape(r *bytes.Reader) (PLDShape, error) {
	var shape PLDShape

	if err := binary.Read(r, binary.LittleEndian, &shape.ID); err != nil {
		return PLDShape{}, fmt.Errorf("%w: reading shape id", ErrTruncatedPLDData)
	}

	vertexCount, err := readPLDCount(r, 12)
	if err != nil {
		return PLDShape{}, fmt.Errorf("%w: reading vertex count", err)
	}
	shape.Positions = make([]float32, vertexCount*3)
	if err := binary.Read(r, binary.LittleEndian, shape.Positions); err != nil {
		return PLDShape{}, fmt.Errorf("%w: reading positions", ErrTruncatedPLDData)
	}

	var hasNormals uint8
	if err := binary.Read(r, binary.LittleEndian, &hasNormals); err != nil {
		return PLDShape{}, fmt.Errorf("%w: reading normals flag", ErrTruncatedPLDData)
	}
	if hasNormals != 0 {
		shape.Normals = make([]float32, vertexCount*3)
		if err := binary.Read(r, binary.LittleEndian, shape.Normals); err != nil {
			return PLDShape{}, fmt.Errorf("%w: reading normals", ErrTruncatedPLDData)
		}
	}

	indexCount, err := readPLDCount(r, 4)
	if err != nil {
		return PLDShape{}, fmt.Errorf("%w: reading index count", err)
	}
	shape.Indices = make([]uint32, indexCount)
	if err := binary.Read(r, binary.LittleEndian, shape.Indices); err != nil {
		return PLDShape{}, fmt.Errorf("%w: reading indices", ErrTruncatedPLDData)
	}

	return shape, nil
}

// parsePLDPlacement parses a single placement record.
func parsePLDPlacement(r *bytes.Reader) (PLDPlacement, error) {
	var pl PLDPlacement

	if err := binary.Read(r, binary.LittleEndian, &pl.Element); err != nil {
		return PLDPlacement{}, fmt.Errorf("%w: reading element id", ErrTruncatedPLDData)
	}
	if err := binary.Read(r, binary.LittleEndian, &pl.Shape); err != nil {
		return PLDPlacement{}, fmt.Errorf("%w: reading shape id", ErrTruncatedPLDData)
	}
	if err := binary.Read(r, binary.LittleEndian, &pl.Transform); err != nil {
		return PLDPlacement{}, fmt.Errorf("%w: reading transform", ErrTruncatedPLDData)
	}

	var hasColor uint8
	if err := binary.Read(r, binary.LittleEndian, &hasColor); err != nil {
		return PLDPlacement{}, fmt.Errorf("%w: reading color flag", ErrTruncatedPLDData)
	}
	if hasColor != 0 {
		var color [4]float32
		if err := binary.Read(r, binary.LittleEndian, &color); err != nil {
			return PLDPlacement{}, fmt.Errorf("%w: reading color", ErrTruncatedPLDData)
		}
		pl.Color = &color
	}

	return pl, nil
}

// readPLDCount reads a uint32 record count and rejects counts that cannot
// fit in the remaining data given a minimum record size.
func readPLDCount(r *bytes.Reader, minSize int) (uint32, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return 0, ErrTruncatedPLDData
	}
	if uint64(n)*uint64(minSize) > uint64(r.Len()) {
		return 0, ErrTruncatedPLDData
	}
	return n, nil
}

// readPLDString reads a uint16 length-prefixed string.
func readPLDString(r *bytes.Reader) (string, error) {
	var n uint16
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", ErrTruncatedPLDData
	}
	if n == 0 {
		return "", nil
	}
	if int(n) > r.Len() {
		return "", ErrTruncatedPLDData
	}
	buf := make([]byte, n)
	if _, err := r.Read(buf); err != nil {
		return "", ErrTruncatedPLDData
	}
	return string(buf), nil
}

// ParsePLDFile parses a PLD file from disk.
func ParsePLDFile(path string) (*PLD, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading PLD file: %w", err)
	}
	return ParsePLD(data)
}
