package scene

import (
	"fmt"

	"github.com/chewxy/math32"
)

// Color is an RGBA color with channels in [0, 1].
type Color struct {
	R, G, B, A float32
}

// ColorKey identifies a quantized color. Placements whose colors share a key
// share a material.
type ColorKey uint32

// NoColor is the key of placements that carry no color.
const NoColor ColorKey = 0

// QuantizeColor packs each channel scaled to [0,255] as
// r + g*256 + b*65536 + a*16777216. A nil color maps to NoColor.
//
// Fully transparent black also packs to zero and is therefore rendered with
// the default material.
func QuantizeColor(c *Color) ColorKey {
	if c == nil {
		return NoColor
	}
	return ColorKey(quantizeChannel(c.R)) |
		ColorKey(quantizeChannel(c.G))<<8 |
		ColorKey(quantizeChannel(c.B))<<16 |
		ColorKey(quantizeChannel(c.A))<<24
}

func quantizeChannel(v float32) uint32 {
	if math32.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint32(math32.Round(v * 255))
}

// RGBA returns the 8-bit channels encoded in the key.
func (k ColorKey) RGBA() (r, g, b, a uint8) {
	return uint8(k), uint8(k >> 8), uint8(k >> 16), uint8(k >> 24)
}

// String returns the key as #rrggbbaa, or "none".
func (k ColorKey) String() string {
	if k == NoColor {
		return "none"
	}
	r, g, b, a := k.RGBA()
	return fmt.Sprintf("#%02x%02x%02x%02x", r, g, b, a)
}
