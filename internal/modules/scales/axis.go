package scales

// Orientation is the side of the plot an axis is drawn on
type Orientation string

const (
	Bottom Orientation = "bottom"
	Left   Orientation = "left"
)

// Axis defaults
const (
	DefaultTickCount   = 10
	DefaultTickPadding = 3
)

// Axis is everything a renderer needs to draw one axis: the domain line,
// tick marks (negative sizes extend them across the plot as gridlines) and labels.
type Axis struct {
	Orientation   Orientation `json:"orientation"`
	Range         [2]float64  `json:"range"`
	TickSizeInner float64     `json:"tickSizeInner"`
	TickSizeOuter float64     `json:"tickSizeOuter"`
	TickPadding   float64     `json:"tickPadding"`
	Ticks         []Tick      `json:"ticks"`
}

// NewAxis builds an axis for s. tickSize applies to both the inner ticks and
// the outer ends of the domain line.
func NewAxis(s Ticker, o Orientation, tickSize float64) Axis {
	return Axis{
		Orientation:   o,
		Range:         s.Range(),
		TickSizeInner: tickSize,
		TickSizeOuter: tickSize,
		TickPadding:   DefaultTickPadding,
		Ticks:         s.TickMarks(DefaultTickCount),
	}
}

// Direction is +1 for axes whose ticks point down or right and -1 otherwise
func (a Axis) Direction() float64 {
	if a.Orientation == Left {
		return -1
	}
	return 1
}

// LabelOffset is the distance from the domain line to the tick labels
func (a Axis) LabelOffset() float64 {
	inner := a.TickSizeInner
	if inner < 0 {
		inner = 0
	}
	return a.Direction() * (inner + a.TickPadding)
}
