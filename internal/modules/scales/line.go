package scales

import (
	"math"
	"strconv"
	"strings"

	"github.com/aristath/ratechart/internal/modules/series"
)

// Point is a pixel coordinate
type Point struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
}

// Path is a polyline broken into segments wherever a point was undefined
type Path struct {
	Segments [][]Point `json:"segments" msgpack:"segments"`
}

// Empty reports whether the path has no points
func (p Path) Empty() bool {
	return len(p.Segments) == 0
}

// String renders the path as SVG path data, one moveto per segment
func (p Path) String() string {
	var b strings.Builder
	for _, seg := range p.Segments {
		for i, pt := range seg {
			if i == 0 {
				b.WriteByte('M')
			} else {
				b.WriteByte('L')
			}
			b.WriteString(strconv.FormatFloat(pt.X, 'f', -1, 64))
			b.WriteByte(',')
			b.WriteString(strconv.FormatFloat(pt.Y, 'f', -1, 64))
		}
	}
	return b.String()
}

// PathGenerator converts observations into a drawable path
type PathGenerator interface {
	Path(values []series.Observation) Path
}

// Line maps dates through X and values through Y
type Line struct {
	X DateScale
	Y NumberScale
}

// NewLine creates a line generator
func NewLine(x DateScale, y NumberScale) Line {
	return Line{X: x, Y: y}
}

// Path maps each observation in order. Points with a non-finite coordinate
// end the current segment and are dropped.
func (l Line) Path(values []series.Observation) Path {
	var p Path
	var seg []Point

	for _, obs := range values {
		pt := Point{X: l.X.Map(obs.Date), Y: l.Y.Map(obs.Value)}
		if !finite(pt.X) || !finite(pt.Y) {
			if len(seg) > 0 {
				p.Segments = append(p.Segments, seg)
				seg = nil
			}
			continue
		}
		seg = append(seg, pt)
	}
	if len(seg) > 0 {
		p.Segments = append(p.Segments, seg)
	}
	return p
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
