package scene

import (
	"fmt"
	gomath "math"
	"strings"

	"github.com/ironblock/bim-demo/pkg/math"
)

// AxisConversion is the handedness/axis correction applied to the scene root.
type AxisConversion int

const (
	AxisNone AxisConversion = iota
	AxisFlipX
	AxisFlipY
	AxisFlipZ
	AxisZUpToYUp
)

var axisNames = map[AxisConversion]string{
	AxisNone:     "none",
	AxisFlipX:    "flip-x",
	AxisFlipY:    "flip-y",
	AxisFlipZ:    "flip-z",
	AxisZUpToYUp: "z-up",
}

// String returns the config name of the conversion.
func (a AxisConversion) String() string {
	if name, ok := axisNames[a]; ok {
		return name
	}
	return fmt.Sprintf("AxisConversion(%d)", int(a))
}

// ParseAxisConversion parses a config name such as "flip-z".
func ParseAxisConversion(s string) (AxisConversion, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for a, name := range axisNames {
		if name == s {
			return a, nil
		}
	}
	return AxisNone, fmt.Errorf("unknown axis conversion %q", s)
}

// Matrix returns the conversion as a transform.
func (a AxisConversion) Matrix() math.Mat4 {
	switch a {
	case AxisFlipX:
		return math.Scale(-1, 1, 1)
	case AxisFlipY:
		return math.Scale(1, -1, 1)
	case AxisFlipZ:
		return math.Scale(1, 1, -1)
	case AxisZUpToYUp:
		return math.RotateX(-gomath.Pi / 2)
	default:
		return math.Identity()
	}
}

// Normalize applies conv to the scene root once. Later calls, and calls on a
// disposed scene, return false and leave the root unchanged.
func Normalize(s *SceneModel, conv AxisConversion) bool {
	if s == nil || s.disposed || s.axisApplied {
		return false
	}
	s.Root = conv.Matrix().Mul(s.Root)
	s.axisApplied = true
	s.sink.SetRootTransform(s.root, s.Root)
	return true
}
