package scales

import (
	"math"
	"strconv"

	"gonum.org/v1/gonum/floats"
)

var (
	e10 = math.Sqrt(50)
	e5  = math.Sqrt(10)
	e2  = math.Sqrt(2)
)

// tickIncrement returns the 1, 2 or 5 × 10^k step closest to splitting
// [start, stop] into count intervals. Negative results encode fractional steps
// as -1/step so that ticks stay exact decimals.
func tickIncrement(start, stop float64, count int) float64 {
	step := (stop - start) / math.Max(0, float64(count))
	power := math.Floor(math.Log10(step))
	errRatio := step / math.Pow(10, power)

	factor := 1.0
	switch {
	case errRatio >= e10:
		factor = 10
	case errRatio >= e5:
		factor = 5
	case errRatio >= e2:
		factor = 2
	}

	if power >= 0 {
		return factor * math.Pow(10, power)
	}
	return -math.Pow(10, -power) / factor
}

// tickStep is the absolute step between ticks
func tickStep(start, stop float64, count int) float64 {
	inc := tickIncrement(start, stop, count)
	if inc < 0 {
		return -1 / inc
	}
	return inc
}

// Ticks returns roughly count nicely rounded values spanning [start, stop]
func Ticks(start, stop float64, count int) []float64 {
	if count <= 0 || math.IsNaN(start) || math.IsNaN(stop) {
		return nil
	}
	if start == stop {
		return []float64{start}
	}

	reverse := stop < start
	if reverse {
		start, stop = stop, start
	}

	inc := tickIncrement(start, stop, count)
	if inc == 0 || math.IsInf(inc, 0) || math.IsNaN(inc) {
		return nil
	}

	var ticks []float64
	if inc > 0 {
		ticks = integerSpan(math.Ceil(start/inc), math.Floor(stop/inc))
		floats.Scale(inc, ticks)
	} else {
		inv := -inc
		ticks = integerSpan(math.Ceil(start*inv), math.Floor(stop*inv))
		for i := range ticks {
			ticks[i] /= inv
		}
	}

	if reverse {
		floats.Reverse(ticks)
	}
	return ticks
}

func integerSpan(lo, hi float64) []float64 {
	n := int(hi-lo) + 1
	switch {
	case n <= 0:
		return nil
	case n == 1:
		return []float64{lo}
	}
	dst := make([]float64, n)
	return floats.Span(dst, lo, hi)
}

// tickDecimals is the number of fraction digits needed to print ticks at step
func tickDecimals(step float64) int {
	if step <= 0 || math.IsInf(step, 0) || math.IsNaN(step) {
		return 0
	}
	d := -int(math.Floor(math.Log10(step)))
	if d < 0 {
		return 0
	}
	return d
}

func formatTick(v float64, decimals int) string {
	return strconv.FormatFloat(v, 'f', decimals, 64)
}
