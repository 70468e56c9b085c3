// Package colormap maps scalar measurements to colours.
package colormap

import (
	"image/color"
	"math"
)

// Diverging is a piecewise-linear colour scale over [0, 1] with evenly spaced stops
type Diverging struct {
	Name  string
	stops []color.NRGBA
}

// NewDiverging builds a scale from at least two evenly spaced stops
func NewDiverging(name string, stops ...color.NRGBA) *Diverging {
	if len(stops) < 2 {
		panic("colormap: a scale needs at least two stops")
	}
	s := make([]color.NRGBA, len(stops))
	copy(s, stops)
	return &Diverging{Name: name, stops: s}
}

// RdYlBuR is the ColorBrewer red-yellow-blue scale reversed so that
// 0 is blue (low) and 1 is red (high).
var RdYlBuR = NewDiverging("RdYlBu_r",
	color.NRGBA{0x31, 0x36, 0x95, 0xff},
	color.NRGBA{0x45, 0x75, 0xb4, 0xff},
	color.NRGBA{0x74, 0xad, 0xd1, 0xff},
	color.NRGBA{0xab, 0xd9, 0xe9, 0xff},
	color.NRGBA{0xe0, 0xf3, 0xf8, 0xff},
	color.NRGBA{0xff, 0xff, 0xbf, 0xff},
	color.NRGBA{0xfe, 0xe0, 0x90, 0xff},
	color.NRGBA{0xfd, 0xae, 0x61, 0xff},
	color.NRGBA{0xf4, 0x6d, 0x43, 0xff},
	color.NRGBA{0xd7, 0x30, 0x27, 0xff},
	color.NRGBA{0xa5, 0x00, 0x26, 0xff},
)

// At returns the colour at position t. NaN maps to the midpoint and
// out-of-range values are clamped.
func (d *Diverging) At(t float64) color.NRGBA {
	r, g, b, a := d.RGBA(t)
	return color.NRGBA{R: to8(r), G: to8(g), B: to8(b), A: to8(a)}
}

// RGBA returns the unquantised colour at position t with channels in [0, 1]
func (d *Diverging) RGBA(t float64) (r, g, b, a float64) {
	if math.IsNaN(t) {
		t = 0.5
	}
	t = math.Max(0, math.Min(1, t))

	pos := t * float64(len(d.stops)-1)
	i := int(math.Floor(pos))
	if i >= len(d.stops)-1 {
		i = len(d.stops) - 2
	}
	frac := pos - float64(i)
	lo, hi := d.stops[i], d.stops[i+1]

	return lerp(lo.R, hi.R, frac), lerp(lo.G, hi.G, frac), lerp(lo.B, hi.B, frac), lerp(lo.A, hi.A, frac)
}

// Midpoint returns the neutral colour of the scale
func (d *Diverging) Midpoint() color.NRGBA {
	return d.At(0.5)
}

func lerp(a, b uint8, t float64) float64 {
	return (float64(a) + (float64(b)-float64(a))*t) / 255
}

func to8(v float64) uint8 {
	return uint8(math.Round(v * 255))
}

// WithAlpha returns c with its alpha replaced by the given opacity in [0, 1]
func WithAlpha(c color.NRGBA, opacity float64) color.NRGBA {
	opacity = math.Max(0, math.Min(1, opacity))
	c.A = uint8(math.Round(opacity * 255))
	return c
}
