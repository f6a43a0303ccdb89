package render

import (
	"github.com/gdamore/tcell/v2"
)

type layerEntry struct {
	layer    Layer
	priority RenderPriority
	index    int // registration order for stable sort
}

// Orchestrator coordinates the render pipeline
type Orchestrator struct {
	screen   tcell.Screen
	buffer   *RenderBuffer
	layers   []layerEntry
	regCount int
	last     Context
}

// NewOrchestrator creates an orchestrator sized to the screen
func NewOrchestrator(screen tcell.Screen) *Orchestrator {
	w, h := screen.Size()
	return &Orchestrator{
		screen: screen,
		buffer: NewRenderBuffer(w, h),
		layers: make([]layerEntry, 0, 8),
		last:   NewContext(w, h, nil),
	}
}

// Register adds a layer at the specified priority. Maintains sorted order via insertion sort
func (o *Orchestrator) Register(l Layer, priority RenderPriority) {
	entry := layerEntry{layer: l, priority: priority, index: o.regCount}
	o.regCount++

	pos := len(o.layers)
	for i, e := range o.layers {
		if priority < e.priority || (priority == e.priority && entry.index < e.index) {
			pos = i
			break
		}
	}

	o.layers = append(o.layers, layerEntry{})
	copy(o.layers[pos+1:], o.layers[pos:])
	o.layers[pos] = entry
}

// Resize updates buffer dimensions and syncs the screen
func (o *Orchestrator) Resize(width, height int) {
	o.buffer.Resize(width, height)
	o.screen.Sync()
}

// RenderFrame runs the pipeline: clear, render all layers, flush, show
func (o *Orchestrator) RenderFrame(scene *Scene) {
	w, h := o.buffer.Size()
	ctx := NewContext(w, h, scene)

	o.buffer.Clear()
	for _, e := range o.layers {
		if h, ok := e.layer.(Hideable); ok && h.Hidden() {
			continue
		}
		e.layer.Render(ctx, o.buffer)
	}

	o.buffer.Flush(o.screen)
	o.screen.Show()
	o.last = ctx
}

// HitTest resolves a click against the most recently rendered frame
func (o *Orchestrator) HitTest(x, y int) (string, bool) {
	return HitTest(o.last, x, y)
}

// Buffer exposes the compositor, for tests and overlays
func (o *Orchestrator) Buffer() *RenderBuffer {
	return o.buffer
}
