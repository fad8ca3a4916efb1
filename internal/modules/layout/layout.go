// Package layout derives the inner plotting area from the container size.
package layout

// Size is a container's pixel box
type Size struct {
	Width  int `json:"width" msgpack:"width"`
	Height int `json:"height" msgpack:"height"`
}

// Container is anything whose current rendered size can be read
type Container interface {
	Size() Size
}

// Fixed is a Container with a constant size
type Fixed Size

// Size returns the fixed size
func (f Fixed) Size() Size {
	return Size(f)
}

// Margins around the plot, in pixels
type Margins struct {
	Top    int `json:"top" yaml:"top"`
	Right  int `json:"right" yaml:"right"`
	Bottom int `json:"bottom" yaml:"bottom"`
	Left   int `json:"left" yaml:"left"`
}

// DefaultMargins leave room for axis labels on the left and series labels on the right
var DefaultMargins = Margins{Top: 30, Right: 120, Bottom: 40, Left: 35}

// Metrics are the margins plus the inner plot extents for one update cycle.
// Width and Height go zero or negative when the container is smaller than the margins.
type Metrics struct {
	Margins Margins `json:"margin"`
	Width   int     `json:"width"`
	Height  int     `json:"height"`
}

// Compute reads the container's current size and subtracts the margins.
func Compute(c Container, m Margins) Metrics {
	size := c.Size()
	return Metrics{
		Margins: m,
		Width:   size.Width - m.Left - m.Right,
		Height:  size.Height - m.Top - m.Bottom,
	}
}

// Outer is the full container size the metrics were derived from
func (m Metrics) Outer() Size {
	return Size{
		Width:  m.Width + m.Margins.Left + m.Margins.Right,
		Height: m.Height + m.Margins.Top + m.Margins.Bottom,
	}
}
