package render

import (
	"github.com/gdamore/tcell/v2"
)

// Cell is one composited terminal cell
type Cell struct {
	Rune  rune
	Fg    RGB
	Bg    RGB
	Attrs tcell.AttrMask
}

var emptyCell = Cell{Fg: RgbText, Bg: RgbBackground}

// RenderBuffer is a compositor over a flat cell array, flushed to a tcell screen once per frame
type RenderBuffer struct {
	cells  []Cell
	width  int
	height int
}

// NewRenderBuffer creates a buffer with the specified dimensions
func NewRenderBuffer(width, height int) *RenderBuffer {
	b := &RenderBuffer{}
	b.Resize(width, height)
	return b
}

// Resize adjusts buffer dimensions, reallocates only if capacity insufficient
func (b *RenderBuffer) Resize(width, height int) {
	width, height = max(width, 0), max(height, 0)
	size := width * height
	if cap(b.cells) < size {
		b.cells = make([]Cell, size)
	} else {
		b.cells = b.cells[:size]
	}
	b.width = width
	b.height = height
	b.Clear()
}

// Clear resets all cells using exponential copy
func (b *RenderBuffer) Clear() {
	if len(b.cells) == 0 {
		return
	}
	b.cells[0] = emptyCell
	for filled := 1; filled < len(b.cells); filled *= 2 {
		copy(b.cells[filled:], b.cells[:filled])
	}
}

func (b *RenderBuffer) Size() (int, int) {
	return b.width, b.height
}

func (b *RenderBuffer) inBounds(x, y int) bool {
	return x >= 0 && x < b.width && y >= 0 && y < b.height
}

// Get returns the cell at x,y; out of bounds yields the empty cell
func (b *RenderBuffer) Get(x, y int) Cell {
	if !b.inBounds(x, y) {
		return emptyCell
	}
	return b.cells[y*b.width+x]
}

// Set composites a foreground glyph with the given blend mode, background untouched
func (b *RenderBuffer) Set(x, y int, r rune, fg RGB, mode BlendMode, alpha float64, attrs tcell.AttrMask) {
	if !b.inBounds(x, y) {
		return
	}
	dst := &b.cells[y*b.width+x]
	if r != 0 {
		dst.Rune = r
		dst.Attrs = attrs
	}
	switch mode {
	case BlendReplace:
		dst.Fg = fg
	case BlendAlpha:
		dst.Fg = dst.Fg.Blend(fg, alpha)
	case BlendAdd:
		dst.Fg = dst.Fg.Add(fg)
	case BlendMax:
		dst.Fg = dst.Fg.Max(fg)
	}
}

// SetFgOnly writes rune, foreground and attrs while preserving background
func (b *RenderBuffer) SetFgOnly(x, y int, r rune, fg RGB, attrs tcell.AttrMask) {
	if !b.inBounds(x, y) {
		return
	}
	dst := &b.cells[y*b.width+x]
	dst.Rune = r
	dst.Fg = fg
	dst.Attrs = attrs
}

// SetBgOnly updates background while preserving rune and foreground
func (b *RenderBuffer) SetBgOnly(x, y int, bg RGB) {
	if !b.inBounds(x, y) {
		return
	}
	b.cells[y*b.width+x].Bg = bg
}

// SetWithBg writes an opaque cell
func (b *RenderBuffer) SetWithBg(x, y int, r rune, fg, bg RGB) {
	if !b.inBounds(x, y) {
		return
	}
	b.cells[y*b.width+x] = Cell{Rune: r, Fg: fg, Bg: bg}
}

// Text writes s left to right from x and returns the column after the last rune
// Runes past the right edge are clipped
func (b *RenderBuffer) Text(x, y int, s string, fg RGB, attrs tcell.AttrMask) int {
	for _, r := range s {
		b.SetFgOnly(x, y, r, fg, attrs)
		x++
	}
	return x
}

// TextWithBg writes s with an explicit background
func (b *RenderBuffer) TextWithBg(x, y int, s string, fg, bg RGB) int {
	for _, r := range s {
		b.SetWithBg(x, y, r, fg, bg)
		x++
	}
	return x
}

// FillRow paints a row background across the full width
func (b *RenderBuffer) FillRow(y int, bg RGB) {
	for x := 0; x < b.width; x++ {
		b.SetBgOnly(x, y, bg)
	}
}

// Flush writes the buffer to screen; the caller shows it
func (b *RenderBuffer) Flush(screen tcell.Screen) {
	for y := 0; y < b.height; y++ {
		row := b.cells[y*b.width : (y+1)*b.width]
		for x, c := range row {
			r := c.Rune
			if r == 0 {
				r = ' '
			}
			style := tcell.StyleDefault.
				Foreground(c.Fg.Tcell()).
				Background(c.Bg.Tcell()).
				Attributes(c.Attrs)
			screen.SetContent(x, y, r, nil, style)
		}
	}
}
