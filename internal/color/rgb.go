package color

import (
	"encoding/json"
	"fmt"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// RGB is a linear color with each channel in [0,1].
type RGB struct{ R, G, B float64 }

var (
	Black   = RGB{0, 0, 0}
	Red     = RGB{1, 0, 0}
	Green   = RGB{0, 1, 0}
	Blue    = RGB{0, 0, 1}
	Cyan    = RGB{0, 1, 1}
	Magenta = RGB{1, 0, 1}
	Yellow  = RGB{1, 1, 0}
	White   = RGB{1, 1, 1}
)

// Scale multiplies every channel by a.
func (c RGB) Scale(a float64) RGB {
	return RGB{R: c.R * a, G: c.G * a, B: c.B * a}
}

// Clamp clamps every channel into [0,1].
func (c RGB) Clamp() RGB {
	return RGB{R: clamp01(c.R), G: clamp01(c.G), B: clamp01(c.B)}
}

// Channels returns the color in driver channel order (R, G, B).
func (c RGB) Channels() [3]float64 {
	return [3]float64{c.R, c.G, c.B}
}

// NRGBA converts to an 8-bit opaque color for pixel devices.
func (c RGB) NRGBA() color.NRGBA {
	return color.NRGBA{R: to255(c.R), G: to255(c.G), B: to255(c.B), A: 255}
}

func (c RGB) String() string {
	return fmt.Sprintf("(%.3f,%.3f,%.3f)", c.R, c.G, c.B)
}

// MarshalJSON encodes the color as [r,g,b].
func (c RGB) MarshalJSON() ([]byte, error) {
	ch := c.Channels()
	return json.Marshal(ch[:])
}

// FromSlice builds a color from a 3-element slice, e.g. decoded from YAML or JSON.
func FromSlice(v []float64) (RGB, error) {
	if len(v) != 3 {
		return Black, fmt.Errorf("color needs 3 channels, got %d", len(v))
	}
	return RGB{R: v[0], G: v[1], B: v[2]}.Clamp(), nil
}

// HSB converts hue, saturation and brightness (all in [0,1]) to RGB.
// Hue wraps modulo 1.
func HSB(h, s, b float64) RGB {
	h = math.Mod(h, 1)
	if h < 0 {
		h++
	}
	c := colorful.Hsv(h*360, clamp01(s), clamp01(b)).Clamped()
	return RGB{R: c.R, G: c.G, B: c.B}
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

func to255(x float64) uint8 {
	return uint8(math.Round(clamp01(x) * 255))
}
