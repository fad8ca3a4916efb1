package render

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/ratechart/internal/modules/scales"
)

func newTree(t *testing.T) (*Document, Handle, Handle, Handle) {
	t.Helper()
	doc := NewDocument()
	svg := doc.CreateContainer("")
	plot := doc.Append(svg, KindGroup, "chart-g")
	group := doc.Append(plot, KindGroup, "line-group UNRATE")
	return doc, svg, plot, group
}

func TestDocument_Tree(t *testing.T) {
	doc, svg, plot, group := newTree(t)
	path := doc.Append(group, KindPath, "")
	text := doc.Append(group, KindText, "")

	assert.Equal(t, svg, doc.Root())
	assert.Equal(t, 5, doc.Len())

	el, ok := doc.Element(plot)
	require.True(t, ok)
	assert.Equal(t, svg, el.Parent)
	assert.Equal(t, []Handle{group}, el.Children)

	g, _ := doc.Element(group)
	assert.True(t, g.HasClass("line-group"))
	assert.True(t, g.HasClass("UNRATE"))
	assert.False(t, g.HasClass("line"))
	assert.Equal(t, []Handle{path, text}, g.Children)

	assert.Equal(t, []Handle{group}, doc.Find("UNRATE"))
}

func TestDocument_UnknownHandlesAreIgnored(t *testing.T) {
	doc := NewDocument()

	assert.Equal(t, NoHandle, doc.Append(NoHandle, KindGroup, "x"))
	assert.NotPanics(t, func() {
		doc.SetSize(42, 10, 10)
		doc.PositionElement(NoHandle, 1, 1)
		doc.SetText(7, "label")
		doc.SetPathData(-3, scales.Path{})
		doc.DrawAxis(99, scales.Axis{})
	})
	_, ok := doc.Element(3)
	assert.False(t, ok)
}

func TestDocument_UpdatesOverwrite(t *testing.T) {
	doc, svg, plot, _ := newTree(t)

	doc.SetSize(svg, 960, 500)
	doc.SetSize(svg, 800, 400)
	doc.PositionElement(plot, 35, 30)
	doc.DrawAxis(plot, scales.Axis{Orientation: scales.Bottom})
	doc.DrawAxis(plot, scales.Axis{Orientation: scales.Left})

	el, _ := doc.Element(svg)
	assert.Equal(t, 800, el.Width)
	assert.Equal(t, 400, el.Height)

	el, _ = doc.Element(plot)
	assert.Equal(t, 35.0, el.X)
	require.NotNil(t, el.Axis)
	assert.Equal(t, scales.Left, el.Axis.Orientation)
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"", FormatSVG},
		{"svg", FormatSVG},
		{"SVG", FormatSVG},
		{" png ", FormatPNG},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseFormat("gif")
	assert.ErrorIs(t, err, ErrUnknownFormat)
	assert.Equal(t, "image/png", FormatPNG.ContentType())
	assert.Equal(t, "image/svg+xml", FormatSVG.ContentType())
}

func populated(t *testing.T) (*Document, Handle) {
	t.Helper()
	doc, svg, plot, group := newTree(t)
	doc.SetSize(svg, 300, 200)
	doc.PositionElement(plot, 35, 30)

	axis := doc.Append(plot, KindGroup, "axis y-axis")
	y := scales.NewLinear([2]float64{0, 10}, [2]float64{130, 0})
	doc.DrawAxis(axis, scales.NewAxis(y, scales.Left, -165))
	doc.PositionElement(axis, -20, 0)

	path := doc.Append(group, KindPath, "")
	doc.SetPathData(path, scales.Path{Segments: [][]scales.Point{{{X: 0, Y: 130}, {X: 50, Y: 65}, {X: 100, Y: 20}}}})

	text := doc.Append(group, KindText, "")
	doc.SetText(text, "United States")
	doc.PositionElement(text, 100, 20)
	return doc, text
}

func TestEncode_SVG(t *testing.T) {
	var buf bytes.Buffer
	doc, _ := populated(t)
	require.NoError(t, doc.Encode(&buf, FormatSVG))

	out := buf.String()
	assert.Contains(t, out, "<svg")
	assert.Contains(t, out, "<path")
	assert.Contains(t, out, "United States")
}

func TestEncode_PNG(t *testing.T) {
	var buf bytes.Buffer
	doc, _ := populated(t)
	require.NoError(t, doc.Encode(&buf, FormatPNG))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")))
}

func TestEncode_Deterministic(t *testing.T) {
	doc, _ := populated(t)
	var a, b bytes.Buffer
	require.NoError(t, doc.Encode(&a, FormatSVG))
	require.NoError(t, doc.Encode(&b, FormatSVG))
	assert.Equal(t, a.Bytes(), b.Bytes())
}

func TestEncode_SkipsUndefinedPositions(t *testing.T) {
	doc, text := populated(t)
	doc.PositionElement(text, math.NaN(), math.NaN())

	var buf bytes.Buffer
	require.NoError(t, doc.Encode(&buf, FormatSVG))
	assert.NotContains(t, buf.String(), "United States")
}

func TestEncode_Errors(t *testing.T) {
	var buf bytes.Buffer

	assert.ErrorIs(t, NewDocument().Encode(&buf, FormatSVG), ErrNoContainer)

	doc, svg, _, _ := newTree(t)
	doc.SetSize(svg, 100, -5)
	assert.ErrorIs(t, doc.Encode(&buf, FormatSVG), ErrInvalidSize)

	doc.SetSize(svg, 100, 100)
	assert.ErrorIs(t, doc.Encode(&buf, Format("gif")), ErrUnknownFormat)
}

func TestEncode_RejectsOversizedContainer(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
	}{
		{"huge png", 1 << 30, 1 << 30},
		{"wide", MaxDimension + 1, 100},
		{"tall", 100, 40000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, svg, _, _ := newTree(t)
			doc.SetSize(svg, tt.width, tt.height)

			var buf bytes.Buffer
			assert.ErrorIs(t, doc.Encode(&buf, FormatPNG), ErrTooLarge)
			assert.Zero(t, buf.Len())
		})
	}

	doc, svg, _, _ := newTree(t)
	doc.SetSize(svg, MaxDimension, 10)
	var buf bytes.Buffer
	assert.NoError(t, doc.Encode(&buf, FormatSVG))
}
