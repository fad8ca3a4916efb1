// Package scales maps domain values (dates and numbers) onto pixel ranges and
// turns series into drawable paths.
package scales

import "math"

// Tick is one labelled position along an axis
type Tick struct {
	Position float64 `json:"position"`
	Label    string  `json:"label"`
}

// Ticker is a mapping that can produce axis ticks
type Ticker interface {
	Range() [2]float64
	TickMarks(count int) []Tick
}

// NumberScale maps numbers to pixels
type NumberScale interface {
	Ticker
	Map(v float64) float64
	Domain() [2]float64
}

// Linear is a rounded linear mapping from a numeric domain onto a pixel range.
// Outputs are not clamped to the range.
type Linear struct {
	domain [2]float64
	rng    [2]float64
}

// NewLinear creates a linear mapping
func NewLinear(domain, rng [2]float64) Linear {
	return Linear{domain: domain, rng: rng}
}

// Map interpolates v into the range and rounds half up to an integer pixel.
// NaN maps to NaN.
func (s Linear) Map(v float64) float64 {
	return round(s.rng[0] + (s.rng[1]-s.rng[0])*s.normalize(v))
}

func (s Linear) normalize(v float64) float64 {
	span := s.domain[1] - s.domain[0]
	if span == 0 {
		if math.IsNaN(v) {
			return math.NaN()
		}
		return 0.5
	}
	return (v - s.domain[0]) / span
}

// Domain returns the domain endpoints
func (s Linear) Domain() [2]float64 {
	return s.domain
}

// Range returns the range endpoints
func (s Linear) Range() [2]float64 {
	return s.rng
}

// TickMarks returns ticks over the domain, labelled with just enough decimals
// for the chosen step.
func (s Linear) TickMarks(count int) []Tick {
	values := Ticks(s.domain[0], s.domain[1], count)
	decimals := tickDecimals(tickStep(s.domain[0], s.domain[1], count))

	ticks := make([]Tick, 0, len(values))
	for _, v := range values {
		ticks = append(ticks, Tick{Position: s.Map(v), Label: formatTick(v, decimals)})
	}
	return ticks
}

func round(x float64) float64 {
	return math.Floor(x + 0.5)
}
