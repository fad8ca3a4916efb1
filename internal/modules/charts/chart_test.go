package charts

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/ratechart/internal/config"
	"github.com/aristath/ratechart/internal/modules/dataset"
	"github.com/aristath/ratechart/internal/modules/layout"
	"github.com/aristath/ratechart/internal/modules/render"
	"github.com/aristath/ratechart/internal/modules/scales"
	"github.com/aristath/ratechart/internal/modules/series"
	testingpkg "github.com/aristath/ratechart/internal/testing"
)

func newFixtureChart(t *testing.T) (*Chart, *render.Document) {
	t.Helper()
	ds := testingpkg.NewDatasetFixture()
	data := series.Build(ds.Records, series.DefaultOptions())
	doc := render.NewDocument()
	return NewChart(doc, data, DefaultOptions()), doc
}

func element(t *testing.T, doc *render.Document, class string) render.Element {
	t.Helper()
	handles := doc.Find(class)
	require.Len(t, handles, 1, "class %s", class)
	e, ok := doc.Element(handles[0])
	require.True(t, ok)
	return e
}

func TestNewChart_CreatesElementsOnce(t *testing.T) {
	c, doc := newFixtureChart(t)

	assert.Len(t, doc.Find(ClassLineGroup), 3)
	assert.Len(t, doc.Find(ClassAxis), 2)
	assert.Len(t, doc.Find(ClassLine), 3)
	assert.Len(t, doc.Find(ClassLabel), 3)

	for _, id := range series.DefaultIDs {
		group := element(t, doc, string(id))
		assert.Len(t, group.Children, 2)
	}

	created := doc.Len()
	c.Update(layout.Fixed{Width: 960, Height: 500})
	c.Update(layout.Fixed{Width: 400, Height: 300})
	assert.Equal(t, created, doc.Len())
}

func TestChart_UpdatePositionsElements(t *testing.T) {
	c, doc := newFixtureChart(t)

	state := c.Update(layout.Fixed{Width: 960, Height: 500})
	assert.Equal(t, 805, state.Metrics.Width)
	assert.Equal(t, 430, state.Metrics.Height)

	root, ok := doc.Element(doc.Root())
	require.True(t, ok)
	assert.Equal(t, 960, root.Width)
	assert.Equal(t, 500, root.Height)

	plot := element(t, doc, ClassPlot)
	assert.Equal(t, 35.0, plot.X)
	assert.Equal(t, 30.0, plot.Y)

	x := element(t, doc, ClassXAxis)
	assert.Equal(t, 0.0, x.X)
	assert.Equal(t, 450.0, x.Y)
	require.NotNil(t, x.Axis)
	assert.Equal(t, -450.0, x.Axis.TickSizeInner)

	y := element(t, doc, ClassYAxis)
	assert.Equal(t, -20.0, y.X)
	assert.Equal(t, 0.0, y.Y)
	require.NotNil(t, y.Axis)
	assert.Equal(t, -825.0, y.Axis.TickSizeInner)
}

func TestChart_LabelsSitAtLastObservation(t *testing.T) {
	c, doc := newFixtureChart(t)
	state := c.Update(layout.Fixed{Width: 960, Height: 500})

	group := element(t, doc, string(series.UnitedStates))
	label, ok := doc.Element(group.Children[1])
	require.True(t, ok)

	assert.Equal(t, "United States", label.Text)
	assert.Equal(t, state.Scales.X.Map(series.ParseDate("2018-12-01")), label.X)
	assert.Equal(t, 262.0, label.Y)

	path, ok := doc.Element(group.Children[0])
	require.True(t, ok)
	// the "." row splits the national series in two
	assert.Len(t, path.Path.Segments, 2)
}

func TestChart_EmptySeriesLeavesLabelUndefined(t *testing.T) {
	doc := render.NewDocument()
	data := series.Build(nil, series.DefaultOptions())
	c := NewChart(doc, data, DefaultOptions())
	c.Update(layout.Fixed{Width: 960, Height: 500})

	for _, h := range doc.Find(ClassLabel) {
		label, ok := doc.Element(h)
		require.True(t, ok)
		assert.True(t, math.IsNaN(label.X))
		assert.True(t, math.IsNaN(label.Y))
	}
	for _, h := range doc.Find(ClassLine) {
		path, _ := doc.Element(h)
		assert.True(t, path.Path.Empty())
	}
}

func TestChart_UpdateIsIdempotent(t *testing.T) {
	c, _ := newFixtureChart(t)

	first := c.Update(layout.Fixed{Width: 960, Height: 500})
	second := c.Update(layout.Fixed{Width: 960, Height: 500})

	assert.Equal(t, first.Metrics, second.Metrics)
	assert.Equal(t, first.Scales.XAxis, second.Scales.XAxis)
	assert.Equal(t, first.Scales.YAxis, second.Scales.YAxis)
}

type countingToolkit struct {
	scales.Standard
	lines int
}

func (c *countingToolkit) Line(x scales.DateScale, y scales.NumberScale) scales.PathGenerator {
	c.lines++
	return c.Standard.Line(x, y)
}

func TestChart_UsesConfiguredToolkit(t *testing.T) {
	tk := &countingToolkit{}
	opts := DefaultOptions()
	opts.Toolkit = tk

	c := NewChart(render.NewDocument(), nil, opts)
	c.Update(layout.Fixed{Width: 500, Height: 300})
	c.Update(layout.Fixed{Width: 600, Height: 300})

	assert.Equal(t, 2, tk.lines)
}

func TestOptionsFromDefinition(t *testing.T) {
	def := config.DefaultChartDefinition()
	def.Series = []config.SeriesDefinition{{ID: "KSUR", Name: "Kansas"}}
	def.Margins.Right = 150
	def.Domain.Max = 12

	opts := OptionsFromDefinition(def)
	assert.Equal(t, []series.ID{"KSUR"}, opts.Series.IDs)
	assert.Equal(t, "Kansas", opts.Series.Names["KSUR"])
	assert.Equal(t, "DATE", opts.Series.DateColumn)
	assert.Equal(t, 150, opts.Margins.Right)
	assert.Equal(t, 12.0, opts.Domains.Max)
	assert.Equal(t, series.ParseDate("2000-01-01"), opts.Domains.Start)

	assert.Equal(t, DefaultOptions().Margins, OptionsFromDefinition(config.DefaultChartDefinition()).Margins)
}

func TestSession_RenderIsDeterministic(t *testing.T) {
	sess := NewSession(testingpkg.NewDatasetFixture(), DefaultOptions())

	first, state, err := sess.Render(layout.Size{Width: 960, Height: 500}, render.FormatSVG)
	require.NoError(t, err)
	assert.Equal(t, 805, state.Metrics.Width)

	_, _, err = sess.Render(layout.Size{Width: 300, Height: 200}, render.FormatSVG)
	require.NoError(t, err)

	second, _, err := sess.Render(layout.Size{Width: 960, Height: 500}, render.FormatSVG)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Contains(t, string(first), "<svg")
}

func TestOptions_Fingerprint(t *testing.T) {
	base := DefaultOptions().Fingerprint()
	assert.Len(t, base, 64)
	assert.Equal(t, base, DefaultOptions().Fingerprint())

	tests := []struct {
		name   string
		modify func(o *Options)
	}{
		{"margins", func(o *Options) { o.Margins.Left = 5 }},
		{"domain max", func(o *Options) { o.Domains.Max = 20 }},
		{"domain start", func(o *Options) { o.Domains.Start = series.ParseDate("1990-01-01") }},
		{"series ids", func(o *Options) { o.Series.IDs = []series.ID{"UNRATE"} }},
		{"series names", func(o *Options) {
			o.Series.Names = map[series.ID]string{"UNRATE": "National", "MOUR": "Missouri", "CLMUR": "Columbia"}
		}},
		{"date column", func(o *Options) { o.Series.DateColumn = "observation_date" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.modify(&opts)
			assert.NotEqual(t, base, opts.Fingerprint())
		})
	}
}

func TestSession_RenderRejectsEmptyContainer(t *testing.T) {
	sess := NewSession(&dataset.Dataset{}, DefaultOptions())

	_, state, err := sess.Render(layout.Size{}, render.FormatPNG)
	assert.ErrorIs(t, err, render.ErrInvalidSize)
	assert.Equal(t, -155, state.Metrics.Width)
}

func TestSession_RenderRejectsOversizedContainer(t *testing.T) {
	sess := NewSession(&dataset.Dataset{}, DefaultOptions())

	_, _, err := sess.Render(layout.Size{Width: 1 << 30, Height: 1 << 30}, render.FormatPNG)
	assert.ErrorIs(t, err, render.ErrTooLarge)

	_, _, err = sess.Render(layout.Size{Width: 40000, Height: 40000}, render.FormatSVG)
	assert.ErrorIs(t, err, render.ErrTooLarge)
}
