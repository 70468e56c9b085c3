package render

import (
	"math"
	"strconv"
)

// niceTicks returns about target evenly spaced values on 1/2/2.5/5 steps
// inside [min, max]. A zero-width range yields the single value and a
// non-finite bound yields none.
func niceTicks(min, max float64, target int) []float64 {
	if math.IsNaN(min) || math.IsNaN(max) || math.IsInf(min, 0) || math.IsInf(max, 0) {
		return nil
	}
	if max <= min || target < 1 {
		return []float64{min}
	}

	raw := (max - min) / float64(target)
	mag := math.Pow(10, math.Floor(math.Log10(raw)))
	step := 10 * mag
	for _, m := range []float64{1, 2, 2.5, 5, 10} {
		if m*mag >= raw {
			step = m * mag
			break
		}
	}

	first := math.Ceil(min/step) * step
	n := int(math.Floor((max-first)/step + 1e-9))
	p := math.Pow(10, float64(tickDecimals(step)))
	ticks := make([]float64, 0, n+1)
	for i := 0; i <= n; i++ {
		v := first + float64(i)*step
		// Snap away accumulated float error
		ticks = append(ticks, math.Round(v*p)/p)
	}
	if len(ticks) == 0 {
		return []float64{min, max}
	}
	return ticks
}

// formatTick prints v with just enough decimals for step
func formatTick(v, step float64) string {
	return strconv.FormatFloat(v, 'f', tickDecimals(step), 64)
}

func tickDecimals(step float64) int {
	d := 0
	for s := step; d < 6 && math.Abs(s-math.Round(s)) > 1e-9; s *= 10 {
		d++
	}
	return d
}
