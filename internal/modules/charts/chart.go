package charts

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"

	"github.com/aristath/ratechart/internal/config"
	"github.com/aristath/ratechart/internal/modules/layout"
	"github.com/aristath/ratechart/internal/modules/render"
	"github.com/aristath/ratechart/internal/modules/scales"
	"github.com/aristath/ratechart/internal/modules/series"
)

// Element classes
const (
	ClassContainer = "chart-svg"
	ClassPlot      = "chart-g"
	ClassAxis      = "axis"
	ClassXAxis     = "x-axis"
	ClassYAxis     = "y-axis"
	ClassLineGroup = "line-group"
	ClassLine      = "line"
	ClassLabel     = "label"
)

// Options fixes everything about a chart except its data and container size
type Options struct {
	Series  series.Options
	Margins layout.Margins
	Domains scales.Domains
	Toolkit scales.Toolkit
}

// DefaultOptions returns the three-series unemployment chart
func DefaultOptions() Options {
	return Options{
		Series:  series.DefaultOptions(),
		Margins: layout.DefaultMargins,
		Domains: scales.DefaultDomains(),
		Toolkit: scales.Standard{},
	}
}

// OptionsFromDefinition converts a validated chart definition
func OptionsFromDefinition(def config.ChartDefinition) Options {
	ids := make([]series.ID, 0, len(def.Series))
	names := make(map[series.ID]string, len(def.Series))
	for _, s := range def.Series {
		id := series.ID(s.ID)
		ids = append(ids, id)
		names[id] = s.Name
	}

	return Options{
		Series: series.Options{
			IDs:        ids,
			Names:      names,
			DateColumn: def.DateColumn,
		},
		Margins: layout.Margins{
			Top:    def.Margins.Top,
			Right:  def.Margins.Right,
			Bottom: def.Margins.Bottom,
			Left:   def.Margins.Left,
		},
		Domains: scales.Domains{
			Start: series.ParseDate(def.Domain.Start),
			End:   series.ParseDate(def.Domain.End),
			Min:   def.Domain.Min,
			Max:   def.Domain.Max,
		},
		Toolkit: scales.Standard{},
	}
}

// Fingerprint hashes every option that changes the drawn frame. Frames
// rendered under different fingerprints never share a cache entry.
func (o Options) Fingerprint() string {
	h := sha256.New()
	fmt.Fprintf(h, "date=%s\n", o.Series.DateColumn)
	for _, id := range o.Series.IDs {
		fmt.Fprintf(h, "id=%q\n", id)
	}

	names := make([]string, 0, len(o.Series.Names))
	for id := range o.Series.Names {
		names = append(names, string(id))
	}
	sort.Strings(names)
	for _, id := range names {
		fmt.Fprintf(h, "name=%q:%q\n", id, o.Series.Names[series.ID(id)])
	}

	m := o.Margins
	fmt.Fprintf(h, "margins=%d,%d,%d,%d\n", m.Top, m.Right, m.Bottom, m.Left)
	d := o.Domains
	fmt.Fprintf(h, "domain=%d,%d,%g,%g\n", d.Start.Unix(), d.End.Unix(), d.Min, d.Max)
	fmt.Fprintf(h, "toolkit=%T\n", o.Toolkit)

	return hex.EncodeToString(h.Sum(nil))
}

// State is what one update cycle computed
type State struct {
	Metrics layout.Metrics
	Scales  scales.Scales
}

type lineElements struct {
	group render.Handle
	path  render.Handle
	label render.Handle
}

// Chart owns the element handles of one rendered chart. Elements are created
// once by NewChart; Update only changes their attributes.
type Chart struct {
	r      render.Renderer
	opts   Options
	series []series.Series

	svg   render.Handle
	plot  render.Handle
	xAxis render.Handle
	yAxis render.Handle
	lines []lineElements
}

// NewChart creates the chart's elements on r
func NewChart(r render.Renderer, data []series.Series, opts Options) *Chart {
	if opts.Toolkit == nil {
		opts.Toolkit = scales.Standard{}
	}

	c := &Chart{r: r, opts: opts, series: data}

	c.svg = r.CreateContainer(ClassContainer)
	c.plot = r.Append(c.svg, render.KindGroup, ClassPlot)
	c.xAxis = r.Append(c.plot, render.KindGroup, ClassAxis+" "+ClassXAxis)
	c.yAxis = r.Append(c.plot, render.KindGroup, ClassAxis+" "+ClassYAxis)

	c.lines = make([]lineElements, len(data))
	for i, s := range data {
		g := r.Append(c.plot, render.KindGroup, ClassLineGroup+" "+string(s.ID))
		c.lines[i] = lineElements{
			group: g,
			path:  r.Append(g, render.KindPath, ClassLine),
			label: r.Append(g, render.KindText, ClassLabel),
		}
	}
	return c
}

// Series returns the data the chart was built with
func (c *Chart) Series() []series.Series {
	return c.series
}

// Update runs one cycle: layout from the container's current size, fresh
// scales, then attribute updates on every element. The same size always
// produces the same state and element attributes.
func (c *Chart) Update(container layout.Container) State {
	m := layout.Compute(container, c.opts.Margins)
	sc := scales.Build(c.opts.Toolkit, m, c.opts.Domains)

	outer := m.Outer()
	c.r.SetSize(c.svg, outer.Width, outer.Height)
	c.r.PositionElement(c.plot, float64(m.Margins.Left), float64(m.Margins.Top))

	c.r.PositionElement(c.xAxis, 0, float64(m.Height+scales.AxisGap))
	c.r.DrawAxis(c.xAxis, sc.XAxis)
	c.r.PositionElement(c.yAxis, -scales.AxisGap, 0)
	c.r.DrawAxis(c.yAxis, sc.YAxis)

	for i, s := range c.series {
		el := c.lines[i]
		c.r.SetPathData(el.path, sc.Line.Path(s.Values))

		x, y := math.NaN(), math.NaN()
		if last, ok := s.Last(); ok {
			x = sc.X.Map(last.Date)
			y = sc.Y.Map(last.Value)
		}
		c.r.SetText(el.label, s.Name)
		c.r.PositionElement(el.label, x, y)
	}

	return State{Metrics: m, Scales: sc}
}
