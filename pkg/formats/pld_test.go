package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestParsePLD_MagicValidation(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{
			name:    "valid magic",
			data:    makeMinimalPLD("GPLD", 1, 1),
			wantErr: nil,
		},
		{
			name:    "invalid magic",
			data:    makeMinimalPLD("XPLD", 1, 1),
			wantErr: ErrInvalidPLDMagic,
		},
		{
			name:    "empty data",
			data:    []byte{},
			wantErr: ErrTruncatedPLDData,
		},
		{
			name:    "truncated data",
			data:    []byte{'G', 'P', 'L'},
			wantErr: ErrTruncatedPLDData,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePLD(tt.data)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestParsePLD_VersionSupport(t *testing.T) {
	tests := []struct {
		name    string
		major   uint8
		minor   uint8
		wantErr bool
	}{
		{"v1.0", 1, 0, false},
		{"v1.1", 1, 1, false},
		{"v0.9 unsupported", 0, 9, true},
		{"v1.2 unsupported", 1, 2, true},
		{"v2.0 unsupported", 2, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := makeMinimalPLD("GPLD", tt.major, tt.minor)
			_, err := ParsePLD(data)
			if (err != nil) != tt.wantErr {
				t.Errorf("version %d.%d: got error=%v, wantErr=%v", tt.major, tt.minor, err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrUnsupportedPLDVersion) {
				t.Errorf("expected ErrUnsupportedPLDVersion, got %v", err)
			}
		})
	}
}

func TestPLDVersion_AtLeast(t *testing.T) {
	tests := []struct {
		version PLDVersion
		major   uint8
		minor   uint8
		want    bool
	}{
		{PLDVersion{1, 1}, 1, 1, true},
		{PLDVersion{1, 1}, 1, 0, true},
		{PLDVersion{1, 0}, 1, 1, false},
		{PLDVersion{1, 1}, 2, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.version.String(), func(t *testing.T) {
			if got := tt.version.AtLeast(tt.major, tt.minor); got != tt.want {
				t.Errorf("AtLeast(%d, %d) = %v, want %v", tt.major, tt.minor, got, tt.want)
			}
		})
	}
}

func TestParsePLD_V10HasNoUpAxis(t *testing.T) {
	pld, err := ParsePLD(makeMinimalPLD("GPLD", 1, 0))
	if err != nil {
		t.Fatalf("ParsePLD failed: %v", err)
	}
	if pld.UpAxis != PLDUpY {
		t.Errorf("expected Y-up for v1.0, got %s", pld.UpAxis)
	}
	if pld.Name != "minimal" {
		t.Errorf("expected name 'minimal', got %q", pld.Name)
	}
}

func TestParsePLD_RoundTrip(t *testing.T) {
	src := samplePLD()

	data, err := EncodePLD(src)
	if err != nil {
		t.Fatalf("EncodePLD failed: %v", err)
	}

	pld, err := ParsePLD(data)
	if err != nil {
		t.Fatalf("ParsePLD failed: %v", err)
	}

	if pld.Version != CurrentPLDVersion {
		t.Errorf("expected version %s, got %s", CurrentPLDVersion, pld.Version)
	}
	if pld.UpAxis != PLDUpZ {
		t.Errorf("expected Z-up, got %s", pld.UpAxis)
	}
	if pld.Name != "sample" {
		t.Errorf("expected name 'sample', got %q", pld.Name)
	}
	if len(pld.Shapes) != 2 {
		t.Fatalf("expected 2 shapes, got %d", len(pld.Shapes))
	}

	cube := pld.Shapes[0]
	if cube.VertexCount() != 24 || len(cube.Indices) != 36 || len(cube.Normals) != 72 {
		t.Errorf("cube: got %d vertices, %d indices, %d normals", cube.VertexCount(), len(cube.Indices), len(cube.Normals))
	}
	bare := pld.Shapes[1]
	if bare.ID != 7 || len(bare.Normals) != 0 || bare.VertexCount() != 3 {
		t.Errorf("bare shape: got id=%d normals=%d vertices=%d", bare.ID, len(bare.Normals), bare.VertexCount())
	}

	if len(pld.Elements) != 2 || pld.Elements[1].Type != "IfcDoor" || pld.Elements[1].Name != "" {
		t.Errorf("unexpected elements: %+v", pld.Elements)
	}

	if len(pld.Placements) != 3 {
		t.Fatalf("expected 3 placements, got %d", len(pld.Placements))
	}
	if pld.Placements[0].Color != nil {
		t.Error("expected first placement to have no color")
	}
	if c := pld.Placements[1].Color; c == nil || *c != [4]float32{0.5, 0.25, 1, 0.5} {
		t.Errorf("unexpected color on second placement: %v", c)
	}
	if pld.Placements[2].Transform[12] != 4 {
		t.Errorf("expected x translation 4, got %f", pld.Placements[2].Transform[12])
	}
}

func TestParsePLD_TruncatedEverywhere(t *testing.T) {
	data, err := EncodePLD(samplePLD())
	if err != nil {
		t.Fatalf("EncodePLD failed: %v", err)
	}

	for cut := 0; cut < len(data); cut++ {
		_, err := ParsePLD(data[:cut])
		if !errors.Is(err, ErrTruncatedPLDData) {
			t.Fatalf("cut at %d of %d: expected ErrTruncatedPLDData, got %v", cut, len(data), err)
		}
	}
}

func TestParsePLD_HugeCount(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("GPLD")
	buf.WriteByte(1)
	buf.WriteByte(1)
	buf.WriteByte(0)
	binary.Write(&buf, binary.LittleEndian, uint16(0))          // name
	binary.Write(&buf, binary.LittleEndian, uint32(0xFFFFFFFF)) // shapes

	_, err := ParsePLD(buf.Bytes())
	if !errors.Is(err, ErrTruncatedPLDData) {
		t.Errorf("expected ErrTruncatedPLDData, got %v", err)
	}
}

func TestPLD_Counts(t *testing.T) {
	pld := samplePLD()

	counts := pld.CountByType()
	if counts["IfcWall"] != 2 || counts["IfcDoor"] != 1 {
		t.Errorf("unexpected counts: %v", counts)
	}

	// two cube placements (12 triangles each) + one triangle
	if got := pld.TriangleCount(); got != 25 {
		t.Errorf("expected 25 triangles, got %d", got)
	}
}

func TestWritePLD_RejectsBadShapes(t *testing.T) {
	tests := []struct {
		name  string
		shape PLDShape
	}{
		{"ragged positions", PLDShape{ID: 1, Positions: []float32{0, 0}}},
		{"normal mismatch", PLDShape{ID: 1, Positions: []float32{0, 0, 0}, Normals: []float32{0, 1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := WritePLD(&buf, &PLD{Shapes: []PLDShape{tt.shape}}); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestWritePLDFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.pld")
	if err := WritePLDFile(path, samplePLD()); err != nil {
		t.Fatalf("WritePLDFile failed: %v", err)
	}

	pld, err := ParsePLDFile(path)
	if err != nil {
		t.Fatalf("ParsePLDFile failed: %v", err)
	}
	if len(pld.Placements) != 3 {
		t.Errorf("expected 3 placements, got %d", len(pld.Placements))
	}

	if _, err := ParsePLDFile(filepath.Join(t.TempDir(), "missing.pld")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

// makeMinimalPLD creates a header with a name and no records.
func makeMinimalPLD(magic string, major, minor uint8) []byte {
	var buf bytes.Buffer
	buf.WriteString(magic)
	buf.WriteByte(major)
	buf.WriteByte(minor)
	if major == 1 && minor >= 1 {
		buf.WriteByte(byte(PLDUpY))
	}
	binary.Write(&buf, binary.LittleEndian, uint16(len("minimal")))
	buf.WriteString("minimal")
	binary.Write(&buf, binary.LittleEndian, uint32(0)) // shapes
	binary.Write(&buf, binary.LittleEndian, uint32(0)) // elements
	binary.Write(&buf, binary.LittleEndian, uint32(0)) // placements
	return buf.Bytes()
}

func samplePLD() *PLD {
	color := [4]float32{0.5, 0.25, 1, 0.5}
	return &PLD{
		UpAxis: PLDUpZ,
		Name:   "sample",
		Shapes: []PLDShape{
			makeBoxShape(3, 1, 1, 1),
			{ID: 7, Positions: []float32{0, 0, 0, 1, 0, 0, 0, 1, 0}, Indices: []uint32{0, 1, 2}},
		},
		Elements: []PLDElement{
			{ID: 10, Type: "IfcWall", Name: "W-1"},
			{ID: 11, Type: "IfcDoor"},
		},
		Placements: []PLDPlacement{
			{Element: 10, Shape: 3, Transform: translation(0, 0, 0)},
			{Element: 10, Shape: 3, Transform: translation(2, 0, 0), Color: &color},
			{Element: 11, Shape: 7, Transform: translation(4, 0, 0)},
		},
	}
}
