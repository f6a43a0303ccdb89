package render

import (
	"fmt"
	"math"

	"github.com/gdamore/tcell/v2"
)

// MarkerLayer draws region pins with role brackets and price labels
type MarkerLayer struct {
	Labels bool
}

// MarkerColor returns the pin color for m at the given pulse phase
func MarkerColor(m Marker, pulse float64) RGB {
	switch {
	case !m.HasPrice:
		return RgbUnpriced
	case m.Cheap:
		return RgbCheap.Blend(RgbCheapPulse, 0.5+0.5*math.Sin(2*math.Pi*pulse))
	default:
		return RgbExpensive
	}
}

// Label formats the marker caption
func (m Marker) Label() string {
	s := m.Region
	if m.Index > 0 {
		s = fmt.Sprintf("%d %s", m.Index, m.Region)
	}
	if m.HasPrice {
		s += fmt.Sprintf(" $%.4f", m.Price)
	}
	return s
}

func (l *MarkerLayer) Render(ctx Context, buf *RenderBuffer) {
	for _, m := range ctx.Scene.Markers {
		x, y, _, ok := ctx.View.Project(m.Position, ctx.Scene.Angle)
		if !ok {
			continue
		}

		buf.SetFgOnly(x, y, '●', MarkerColor(m, ctx.Scene.Pulse), tcell.AttrBold)

		switch m.Role {
		case RoleTarget:
			buf.SetFgOnly(x-1, y, '[', RgbTarget, tcell.AttrBold)
			buf.SetFgOnly(x+1, y, ']', RgbTarget, tcell.AttrBold)
		case RoleSource:
			buf.SetFgOnly(x-1, y, '(', RgbSource, tcell.AttrNone)
			buf.SetFgOnly(x+1, y, ')', RgbSource, tcell.AttrNone)
		}

		if l.Labels {
			fg := RgbText
			if m.Role == RoleTarget {
				fg = RgbTarget
			}
			buf.Text(x+3, y, m.Label(), fg, tcell.AttrNone)
		}
	}
}
