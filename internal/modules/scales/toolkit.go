package scales

import (
	"time"

	"github.com/aristath/ratechart/internal/modules/layout"
	"github.com/aristath/ratechart/internal/modules/series"
)

// Toolkit is the set of scale capabilities the chart depends on
type Toolkit interface {
	Linear(domain, rng [2]float64) NumberScale
	Time(domain [2]time.Time, rng [2]float64) DateScale
	Axis(s Ticker, o Orientation, tickSize float64) Axis
	Line(x DateScale, y NumberScale) PathGenerator
}

// Standard is the built-in toolkit
type Standard struct{}

func (Standard) Linear(domain, rng [2]float64) NumberScale {
	return NewLinear(domain, rng)
}

func (Standard) Time(domain [2]time.Time, rng [2]float64) DateScale {
	return NewTime(domain, rng)
}

func (Standard) Axis(s Ticker, o Orientation, tickSize float64) Axis {
	return NewAxis(s, o, tickSize)
}

func (Standard) Line(x DateScale, y NumberScale) PathGenerator {
	return NewLine(x, y)
}

// Domains are the fixed input intervals of both mappings
type Domains struct {
	Start time.Time
	End   time.Time
	Min   float64
	Max   float64
}

// Default domain bounds
const (
	DefaultStart = "2000-01-01"
	DefaultEnd   = "2019-01-01"
	DefaultMin   = 0
	DefaultMax   = 10
)

// DefaultDomains parses the literal default bounds
func DefaultDomains() Domains {
	return Domains{
		Start: series.ParseDate(DefaultStart),
		End:   series.ParseDate(DefaultEnd),
		Min:   DefaultMin,
		Max:   DefaultMax,
	}
}

// AxisGap is how far both axes are pushed away from the plot area
const AxisGap = 20

// Scales holds every mapping for one update cycle
type Scales struct {
	X     DateScale
	Y     NumberScale
	Line  PathGenerator
	XAxis Axis
	YAxis Axis
}

// Build derives the scales for the given plot metrics. The result depends only
// on its inputs.
func Build(tk Toolkit, m layout.Metrics, d Domains) Scales {
	width, height := float64(m.Width), float64(m.Height)

	x := tk.Time([2]time.Time{d.Start, d.End}, [2]float64{0, width})
	y := tk.Linear([2]float64{d.Min, d.Max}, [2]float64{height, 0})

	return Scales{
		X:     x,
		Y:     y,
		Line:  tk.Line(x, y),
		XAxis: tk.Axis(x, Bottom, -height-AxisGap),
		YAxis: tk.Axis(y, Left, -width-AxisGap),
	}
}
