// Package render holds the drawing surface the chart is built on.
// The chart creates its elements once and updates their attributes every
// cycle; the surface decides how that becomes pixels.
package render

import "github.com/aristath/ratechart/internal/modules/scales"

// Handle identifies an element created by a Renderer
type Handle int

// NoHandle is returned for operations on unknown parents
const NoHandle Handle = -1

// Kind is the type of a child element
type Kind string

const (
	KindContainer Kind = "svg"
	KindGroup     Kind = "g"
	KindPath      Kind = "path"
	KindText      Kind = "text"
)

// Renderer is the drawing surface used by the chart
type Renderer interface {
	CreateContainer(class string) Handle
	Append(parent Handle, kind Kind, class string) Handle
	SetSize(h Handle, width, height int)
	PositionElement(h Handle, x, y float64)
	DrawAxis(h Handle, axis scales.Axis)
	SetPathData(h Handle, path scales.Path)
	SetText(h Handle, text string)
}
