package render

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/aristath/ratechart/internal/modules/scales"
)

// Format is an output image format
type Format string

const (
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
)

// ParseFormat accepts "svg" and "png" in any case; empty means svg
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "svg":
		return FormatSVG, nil
	case "png":
		return FormatPNG, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// ContentType returns the MIME type for the format
func (f Format) ContentType() string {
	if f == FormatPNG {
		return "image/png"
	}
	return "image/svg+xml"
}

var (
	ErrNoContainer   = errors.New("document has no container")
	ErrInvalidSize   = errors.New("container size must be positive")
	ErrTooLarge      = errors.New("container size exceeds limit")
	ErrUnknownFormat = errors.New("unknown format")
)

// MaxDimension caps the container width and height accepted by Encode
const MaxDimension = 8192

const (
	fontSize    = 10.0
	strokeWidth = 1.5
)

var (
	gridColor = drawing.ColorFromHex("d9d9d9")
	textColor = drawing.ColorFromHex("333333")
)

// Encode draws the document through go-chart's renderer for format and writes
// the image to w. Elements whose translation is undefined are skipped together
// with their children.
func (d *Document) Encode(w io.Writer, format Format) error {
	root := d.get(d.root)
	if root == nil {
		return ErrNoContainer
	}
	if root.Width <= 0 || root.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, root.Width, root.Height)
	}
	if root.Width > MaxDimension || root.Height > MaxDimension {
		return fmt.Errorf("%w: %dx%d, max %d", ErrTooLarge, root.Width, root.Height, MaxDimension)
	}

	var provider chart.RendererProvider
	switch format {
	case FormatSVG:
		provider = chart.SVG
	case FormatPNG:
		provider = chart.PNG
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	r, err := provider(root.Width, root.Height)
	if err != nil {
		return fmt.Errorf("failed to create %s renderer: %w", format, err)
	}

	font, err := chart.GetDefaultFont()
	if err != nil {
		return fmt.Errorf("failed to load font: %w", err)
	}
	r.SetFont(font)
	r.SetFontSize(fontSize)
	r.SetFontColor(textColor)

	p := &painter{r: r, doc: d}
	p.draw(d.root, 0, 0)

	if err := r.Save(w); err != nil {
		return fmt.Errorf("failed to write %s: %w", format, err)
	}
	return nil
}

type painter struct {
	r     chart.Renderer
	doc   *Document
	paths int
}

func (p *painter) draw(h Handle, ox, oy float64) {
	e := p.doc.get(h)
	if e == nil {
		return
	}
	x, y := ox+e.X, oy+e.Y
	if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
		return
	}

	switch e.Kind {
	case KindGroup:
		if e.Axis != nil {
			p.axis(*e.Axis, x, y)
		}
	case KindPath:
		p.path(e.Path, x, y)
	case KindText:
		p.text(e.Text, x, y, 0, 0)
	}

	for _, c := range e.Children {
		p.draw(c, x, y)
	}
}

func (p *painter) path(path scales.Path, x, y float64) {
	color := chart.GetDefaultColor(p.paths)
	p.paths++
	if path.Empty() {
		return
	}

	p.r.SetStrokeColor(color)
	p.r.SetStrokeWidth(strokeWidth)
	for _, seg := range path.Segments {
		for i, pt := range seg {
			if i == 0 {
				p.r.MoveTo(px(x+pt.X), px(y+pt.Y))
			} else {
				p.r.LineTo(px(x+pt.X), px(y+pt.Y))
			}
		}
	}
	p.r.Stroke()
}

func (p *painter) axis(a scales.Axis, x, y float64) {
	k := a.Direction()
	outer := k * a.TickSizeOuter
	inner := k * a.TickSizeInner

	p.r.SetStrokeColor(gridColor)
	p.r.SetStrokeWidth(1)

	if a.Orientation == scales.Left {
		p.r.MoveTo(px(x+outer), px(y+a.Range[0]))
		p.r.LineTo(px(x), px(y+a.Range[0]))
		p.r.LineTo(px(x), px(y+a.Range[1]))
		p.r.LineTo(px(x+outer), px(y+a.Range[1]))
		for _, t := range a.Ticks {
			p.r.MoveTo(px(x), px(y+t.Position))
			p.r.LineTo(px(x+inner), px(y+t.Position))
		}
	} else {
		p.r.MoveTo(px(x+a.Range[0]), px(y+outer))
		p.r.LineTo(px(x+a.Range[0]), px(y))
		p.r.LineTo(px(x+a.Range[1]), px(y))
		p.r.LineTo(px(x+a.Range[1]), px(y+outer))
		for _, t := range a.Ticks {
			p.r.MoveTo(px(x+t.Position), px(y))
			p.r.LineTo(px(x+t.Position), px(y+inner))
		}
	}
	p.r.Stroke()

	offset := a.LabelOffset()
	for _, t := range a.Ticks {
		if a.Orientation == scales.Left {
			p.text(t.Label, x+offset, y+t.Position, 1, 0.32)
		} else {
			p.text(t.Label, x+t.Position, y+offset, 0.5, 0.71)
		}
	}
}

// text draws body with its anchor at (x, y). anchor is the fraction of the
// text width left of x; dy shifts the baseline down in ems.
func (p *painter) text(body string, x, y, anchor, dy float64) {
	if body == "" {
		return
	}
	box := p.r.MeasureText(body)
	tx := x - anchor*float64(box.Width())
	ty := y + dy*fontSize
	p.r.Text(body, px(tx), px(ty))
}

func px(v float64) int {
	return int(math.Round(v))
}
