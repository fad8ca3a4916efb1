package render

import (
	"strings"

	"github.com/aristath/ratechart/internal/modules/scales"
)

// Element is a snapshot of one retained element
type Element struct {
	Kind     Kind
	Class    string
	Parent   Handle
	Children []Handle
	X, Y     float64 // translation relative to the parent
	Width    int
	Height   int
	Axis     *scales.Axis
	Path     scales.Path
	Text     string
}

// HasClass reports whether the element carries the given class
func (e Element) HasClass(class string) bool {
	for _, c := range strings.Fields(e.Class) {
		if c == class {
			return true
		}
	}
	return false
}

// Document is a retained element tree. Operations on unknown handles are ignored.
// It is not safe for concurrent use.
type Document struct {
	elements []*Element
	root     Handle
}

// NewDocument creates an empty document
func NewDocument() *Document {
	return &Document{root: NoHandle}
}

func (d *Document) add(e *Element) Handle {
	d.elements = append(d.elements, e)
	return Handle(len(d.elements) - 1)
}

func (d *Document) get(h Handle) *Element {
	if h < 0 || int(h) >= len(d.elements) {
		return nil
	}
	return d.elements[h]
}

// CreateContainer creates the top-level element. A document has one container;
// calling it again replaces the root.
func (d *Document) CreateContainer(class string) Handle {
	d.root = d.add(&Element{Kind: KindContainer, Class: class, Parent: NoHandle})
	return d.root
}

// Append creates a child of parent
func (d *Document) Append(parent Handle, kind Kind, class string) Handle {
	p := d.get(parent)
	if p == nil {
		return NoHandle
	}
	h := d.add(&Element{Kind: kind, Class: class, Parent: parent})
	p.Children = append(p.Children, h)
	return h
}

// SetSize sets the pixel size of an element
func (d *Document) SetSize(h Handle, width, height int) {
	if e := d.get(h); e != nil {
		e.Width, e.Height = width, height
	}
}

// PositionElement translates an element relative to its parent
func (d *Document) PositionElement(h Handle, x, y float64) {
	if e := d.get(h); e != nil {
		e.X, e.Y = x, y
	}
}

// DrawAxis attaches an axis to a group; the latest call wins
func (d *Document) DrawAxis(h Handle, axis scales.Axis) {
	if e := d.get(h); e != nil {
		a := axis
		e.Axis = &a
	}
}

// SetPathData replaces the path data of an element
func (d *Document) SetPathData(h Handle, path scales.Path) {
	if e := d.get(h); e != nil {
		e.Path = path
	}
}

// SetText replaces the text content of an element
func (d *Document) SetText(h Handle, text string) {
	if e := d.get(h); e != nil {
		e.Text = text
	}
}

// Root returns the container handle, or NoHandle before CreateContainer
func (d *Document) Root() Handle {
	return d.root
}

// Element returns a copy of the element at h
func (d *Document) Element(h Handle) (Element, bool) {
	e := d.get(h)
	if e == nil {
		return Element{}, false
	}
	cp := *e
	cp.Children = append([]Handle(nil), e.Children...)
	return cp, true
}

// Find returns every element carrying class, in creation order
func (d *Document) Find(class string) []Handle {
	var out []Handle
	for i, e := range d.elements {
		if e.HasClass(class) {
			out = append(out, Handle(i))
		}
	}
	return out
}

// Len is the number of elements ever created
func (d *Document) Len() int {
	return len(d.elements)
}
