package colormap

import (
	"errors"
	"fmt"
	"image/color"
)

// ErrDegenerateRange is returned when every value is identical and a
// min-max normalisation is undefined.
var ErrDegenerateRange = errors.New("degenerate value range")

// ValueScale normalises values against the observed [Min, Max] and colours
// them with a diverging scale.
type ValueScale struct {
	Min, Max float64
	Colors   *Diverging
}

// NewValueScale creates a scale over [min, max] using RdYlBuR
func NewValueScale(min, max float64) *ValueScale {
	return &ValueScale{Min: min, Max: max, Colors: RdYlBuR}
}

// Degenerate reports whether the range has zero width
func (s *ValueScale) Degenerate() bool {
	return s.Max == s.Min
}

// Normalize maps v linearly so that Min is 0 and Max is 1
func (s *ValueScale) Normalize(v float64) (float64, error) {
	if s.Degenerate() {
		return 0, fmt.Errorf("normalize %v over [%v, %v]: %w", v, s.Min, s.Max, ErrDegenerateRange)
	}
	return (v - s.Min) / (s.Max - s.Min), nil
}

// Color returns the colour for v. A degenerate range colours every value
// with the scale midpoint.
func (s *ValueScale) Color(v float64) color.NRGBA {
	t, err := s.Normalize(v)
	if err != nil {
		return s.Colors.Midpoint()
	}
	return s.Colors.At(t)
}
