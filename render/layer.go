package render

// Layer draws one part of the globe frame into the shared buffer
type Layer interface {
	Render(ctx Context, buf *RenderBuffer)
}

// Hideable layers are skipped while Hidden reports true
type Hideable interface {
	Hidden() bool
}

// RenderPriority orders layers, lower draws first
type RenderPriority int

// Globe back to front, then text
const (
	PriorityBackground RenderPriority = iota * 10
	PriorityAmbient
	PriorityArc
	PriorityMarker
	PriorityLabel
	PriorityUI
	PriorityOverlay
)
