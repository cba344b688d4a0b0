package formats

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
)

// EncodePLD serializes p using CurrentPLDVersion.
func EncodePLD(p *PLD) ([]byte, error) {
	var buf bytes.Buffer
	if err := WritePLD(&buf, p); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WritePLD writes p to w using CurrentPLDVersion.
func WritePLD(w io.Writer, p *PLD) error {
	var buf bytes.Buffer

	buf.WriteString(pldMagic)
	buf.WriteByte(CurrentPLDVersion.Major)
	buf.WriteByte(CurrentPLDVersion.Minor)
	buf.WriteByte(byte(p.UpAxis))
	if err := writePLDString(&buf, p.Name); err != nil {
		return fmt.Errorf("writing model name: %w", err)
	}

	binary.Write(&buf, binary.LittleEndian, uint32(len(p.Shapes)))
	for i := range p.Shapes {
		s := &p.Shapes[i]
		if len(s.Positions)%3 != 0 {
			return fmt.Errorf("shape %d: position count %d is not a multiple of 3", s.ID, len(s.Positions))
		}
		if len(s.Normals) != 0 && len(s.Normals) != len(s.Positions) {
			return fmt.Errorf("shape %d: %d normals for %d positions", s.ID, len(s.Normals), len(s.Positions))
		}
		binary.Write(&buf, binary.LittleEndian, s.ID)
		binary.Write(&buf, binary.LittleEndian, uint32(s.VertexCount()))
		binary.Write(&buf, binary.LittleEndian, s.Positions)
		if len(s.Normals) > 0 {
			buf.WriteByte(1)
			binary.Write(&buf, binary.LittleEndian, s.Normals)
		} else {
			buf.WriteByte(0)
		}
		binary.Write(&buf, binary.LittleEndian, uint32(len(s.Indices)))
		binary.Write(&buf, binary.LittleEndian, s.Indices)
	}

	binary.Write(&buf, binary.LittleEndian, uint32(len(p.Elements)))
	for _, e := range p.Elements {
		binary.Write(&buf, binary.LittleEndian, e.ID)
		if err := writePLDString(&buf, e.Type); err != nil {
			return fmt.Errorf("element %d type: %w", e.ID, err)
		}
		if err := writePLDString(&buf, e.Name); err != nil {
			return fmt.Errorf("element %d name: %w", e.ID, err)
		}
	}

	binary.Write(&buf, binary.LittleEndian, uint32(len(p.Placements)))
	for _, pl := range p.Placements {
		binary.Write(&buf, binary.LittleEndian, pl.Element)
		binary.Write(&buf, binary.LittleEndian, pl.Shape)
		binary.Write(&buf, binary.LittleEndian, pl.Transform)
		if pl.Color != nil {
			buf.WriteByte(1)
			binary.Write(&buf, binary.LittleEndian, *pl.Color)
		} else {
			buf.WriteByte(0)
		}
	}

	_, err := w.Write(buf.Bytes())
	return err
}

// WritePLDFile writes p to a file on disk.
func WritePLDFile(path string, p *PLD) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating PLD file: %w", err)
	}
	if err := WritePLD(f, p); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writePLDString(buf *bytes.Buffer, s string) error {
	if len(s) > math.MaxUint16 {
		return fmt.Errorf("string of %d bytes exceeds %d", len(s), math.MaxUint16)
	}
	binary.Write(buf, binary.LittleEndian, uint16(len(s)))
	buf.WriteString(s)
	return nil
}
