package colormap

import (
	"errors"
	"image/color"
	"math"
	"testing"
)

// redness is the hue angle measured from blue (240) toward red, with hues
// just below 360 treated as slightly past red.
func redness(r, g, b, _ float64) float64 {
	max := math.Max(r, math.Max(g, b))
	min := math.Min(r, math.Min(g, b))
	d := max - min
	if d == 0 {
		return math.NaN()
	}

	var hue float64
	switch max {
	case r:
		hue = 60 * math.Mod((g-b)/d, 6)
	case g:
		hue = 60 * ((b-r)/d + 2)
	default:
		hue = 60 * ((r-g)/d + 4)
	}
	if hue < 0 {
		hue += 360
	}
	if hue > 300 {
		hue -= 360
	}
	return 240 - hue
}

func TestRdYlBuR_Endpoints(t *testing.T) {
	if got := RdYlBuR.At(0); got != (color.NRGBA{0x31, 0x36, 0x95, 0xff}) {
		t.Errorf("At(0) = %v, want dark blue", got)
	}
	if got := RdYlBuR.At(1); got != (color.NRGBA{0xa5, 0x00, 0x26, 0xff}) {
		t.Errorf("At(1) = %v, want dark red", got)
	}
	if got := RdYlBuR.Midpoint(); got != (color.NRGBA{0xff, 0xff, 0xbf, 0xff}) {
		t.Errorf("Midpoint() = %v, want pale yellow", got)
	}
}

func TestRdYlBuR_Clamps(t *testing.T) {
	if RdYlBuR.At(-3) != RdYlBuR.At(0) {
		t.Error("At(-3) should clamp to At(0)")
	}
	if RdYlBuR.At(7) != RdYlBuR.At(1) {
		t.Error("At(7) should clamp to At(1)")
	}
	if RdYlBuR.At(math.NaN()) != RdYlBuR.Midpoint() {
		t.Error("At(NaN) should be the midpoint")
	}
}

func TestRdYlBuR_RednessMonotonic(t *testing.T) {
	prev := math.Inf(-1)
	for i := 0; i <= 100; i++ {
		tt := float64(i) / 100
		r := redness(RdYlBuR.RGBA(tt))
		if math.IsNaN(r) {
			t.Fatalf("At(%v) is achromatic", tt)
		}
		if r < prev-1e-9 {
			t.Fatalf("redness decreased at t=%v: %v < %v", tt, r, prev)
		}
		prev = r
	}
}

func TestValueScale_NormalizeEndpoints(t *testing.T) {
	s := NewValueScale(8.7, 22.1)

	lo, err := s.Normalize(8.7)
	if err != nil || lo != 0 {
		t.Errorf("Normalize(min) = (%v, %v), want (0, nil)", lo, err)
	}
	hi, err := s.Normalize(22.1)
	if err != nil || hi != 1 {
		t.Errorf("Normalize(max) = (%v, %v), want (1, nil)", hi, err)
	}
	if s.Color(8.7) != RdYlBuR.At(0) || s.Color(22.1) != RdYlBuR.At(1) {
		t.Error("Color() at the extremes should match the scale endpoints")
	}
}

func TestValueScale_Degenerate(t *testing.T) {
	s := NewValueScale(10, 10)
	if !s.Degenerate() {
		t.Fatal("Degenerate() = false, want true")
	}

	_, err := s.Normalize(10)
	if !errors.Is(err, ErrDegenerateRange) {
		t.Errorf("Normalize() error = %v, want ErrDegenerateRange", err)
	}
	if got := s.Color(10); got != RdYlBuR.Midpoint() {
		t.Errorf("Color() = %v, want midpoint %v", got, RdYlBuR.Midpoint())
	}
}

func TestWithAlpha(t *testing.T) {
	c := WithAlpha(color.NRGBA{R: 10, G: 20, B: 30, A: 255}, 0.8)
	if c.A != 204 || c.R != 10 {
		t.Errorf("WithAlpha() = %v, want alpha 204", c)
	}
}
