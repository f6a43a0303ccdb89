package render

import (
	"math"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/spotglobe/vmath"
)

// AmbientLayer draws the scattered surface points of the near hemisphere
// Brightness follows depth so the sphere reads as lit from the viewer
type AmbientLayer struct {
	points []vmath.Vec3F
	radius float64
}

// NewAmbientLayer takes ownership of points; radius normalizes depth shading
func NewAmbientLayer(points []vmath.Vec3F, radius float64) *AmbientLayer {
	if radius <= 0 {
		radius = 1
	}
	return &AmbientLayer{points: points, radius: radius}
}

func (l *AmbientLayer) Render(ctx Context, buf *RenderBuffer) {
	for _, p := range l.points {
		x, y, depth, ok := ctx.View.Project(p, ctx.Scene.Angle)
		if !ok {
			continue
		}
		shade := depth / l.radius
		r := '·'
		if shade > 0.6 {
			r = '•'
		}
		buf.Set(x, y, r, RgbAmbientFar.Blend(RgbAmbientNear, shade), BlendMax, 1, tcell.AttrNone)
	}
}

// ArcLayer draws live migration events as fading great-circle trails
type ArcLayer struct {
	Samples int
}

func (l *ArcLayer) Render(ctx Context, buf *RenderBuffer) {
	n := l.Samples
	if n <= 1 {
		n = 32
	}
	for _, a := range ctx.Scene.Arcs {
		life := math.Max(0, math.Min(1, a.Life))
		fg := RgbBackground.Blend(RgbLive, 0.3+0.7*life)
		for i := 0; i <= n; i++ {
			t := float64(i) / float64(n)
			// Lift the midpoint so the trail arcs above the surface
			lift := 1 + 0.15*math.Sin(math.Pi*t)
			p := vmath.V3FScale(vmath.Slerp(a.From, a.To, t), lift)
			x, y, _, ok := ctx.View.Project(p, ctx.Scene.Angle)
			if !ok {
				continue
			}
			buf.Set(x, y, '∙', fg, BlendMax, 1, tcell.AttrNone)
		}
		if x, y, _, ok := ctx.View.Project(a.To, ctx.Scene.Angle); ok {
			buf.Set(x, y, '✦', fg, BlendReplace, 1, tcell.AttrBold)
		}
	}
}
