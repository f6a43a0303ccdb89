package render

import (
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/spotglobe/geo"
	"github.com/lixenwraith/spotglobe/parameter"
	"github.com/lixenwraith/spotglobe/vmath"
)

func newScreen(t *testing.T, w, h int) tcell.SimulationScreen {
	t.Helper()
	s := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, s.Init())
	s.SetSize(w, h)
	t.Cleanup(s.Fini)
	return s
}

func rowText(s tcell.Screen, y int) string {
	w, _ := s.Size()
	var b strings.Builder
	for x := 0; x < w; x++ {
		r, _, _, _ := s.GetContent(x, y)
		b.WriteRune(r)
	}
	return b.String()
}

func TestViewport_FitsGlobe(t *testing.T) {
	v := NewViewport(80, 25)
	assert.Equal(t, 40.0, v.CenterX)
	assert.Equal(t, 12.0, v.CenterY)
	assert.InDelta(t, 24*parameter.GlobeViewFill, v.ScaleY, 1e-9)
	assert.InDelta(t, v.ScaleY*parameter.CellAspect, v.ScaleX, 1e-9)

	// Wide and short terminals are limited by rows, narrow ones by columns
	narrow := NewViewport(20, 60)
	assert.InDelta(t, 10*parameter.GlobeViewFill, narrow.ScaleY, 1e-9)
}

func TestViewport_ProjectHemispheres(t *testing.T) {
	v := NewViewport(80, 25)

	x, y, depth, ok := v.Project(vmath.Vec3F{Z: 1}, 0)
	assert.True(t, ok)
	assert.Equal(t, 40, x)
	assert.Equal(t, 12, y)
	assert.Equal(t, 1.0, depth)

	_, _, _, ok = v.Project(vmath.Vec3F{Z: -1}, 0)
	assert.False(t, ok, "far hemisphere is hidden")

	// North pole sits above center
	_, y, _, _ = v.Project(vmath.Vec3F{Y: 1, Z: 0.01}, 0)
	assert.Less(t, y, 12)
}

func TestViewport_AzimuthBringsRegionToCenterColumn(t *testing.T) {
	v := NewViewport(80, 25)
	p := geo.Project(53, -8, parameter.MarkerRadius)

	x, _, depth, ok := v.Project(p, vmath.Azimuth(p))
	assert.True(t, ok)
	assert.Equal(t, 40, x)
	assert.Positive(t, depth)
}

func sceneFacing(region string, table *geo.Table) *Scene {
	pos := table.Position(region)
	var markers []Marker
	for i, r := range table.Regions() {
		markers = append(markers, Marker{
			Region:   r.Name,
			Position: r.Position,
			Price:    0.05,
			HasPrice: true,
			Index:    i + 1,
		})
	}
	return &Scene{Angle: vmath.Azimuth(pos), Markers: markers}
}

func TestHitTest(t *testing.T) {
	table := geo.DefaultTable()
	scene := sceneFacing("EU-West", table)
	ctx := NewContext(120, 40, scene)

	mx, my, _, ok := ctx.View.Project(table.Position("EU-West"), scene.Angle)
	require.True(t, ok)

	got, ok := HitTest(ctx, mx, my)
	require.True(t, ok)
	assert.Equal(t, "EU-West", got)

	got, ok = HitTest(ctx, mx+1, my)
	assert.True(t, ok, "neighbouring cell still hits")
	assert.Equal(t, "EU-West", got)

	_, ok = HitTest(ctx, 0, 0)
	assert.False(t, ok)

	// A marker on the far hemisphere is never hit, even at its projected cell
	back := vmath.V3FScale(table.Position("EU-West"), -1)
	bx, by, _, visible := ctx.View.Project(back, scene.Angle)
	require.False(t, visible)
	hidden := NewContext(120, 40, &Scene{Angle: scene.Angle, Markers: []Marker{{Region: "Antipode", Position: back}}})
	_, ok = HitTest(hidden, bx, by)
	assert.False(t, ok)
}

func TestMarkerColor(t *testing.T) {
	assert.Equal(t, RgbUnpriced, MarkerColor(Marker{}, 0))
	assert.Equal(t, RgbExpensive, MarkerColor(Marker{HasPrice: true}, 0))

	lo := MarkerColor(Marker{HasPrice: true, Cheap: true}, 0.75)
	hi := MarkerColor(Marker{HasPrice: true, Cheap: true}, 0.25)
	assert.Equal(t, RgbCheapPulse, hi)
	assert.NotEqual(t, hi, lo, "cheap markers pulse")
}

func TestMarkerLabel(t *testing.T) {
	assert.Equal(t, "US-East", Marker{Region: "US-East"}.Label())
	assert.Equal(t, "2 US-West $0.0412", Marker{Region: "US-West", Index: 2, Price: 0.0412, HasPrice: true}.Label())
}

func TestRenderBuffer_TextClipsAndBlends(t *testing.T) {
	b := NewRenderBuffer(5, 2)
	end := b.Text(3, 0, "abcd", RgbText, tcell.AttrNone)
	assert.Equal(t, 7, end)
	assert.Equal(t, 'a', b.Get(3, 0).Rune)
	assert.Equal(t, 'b', b.Get(4, 0).Rune)
	assert.Equal(t, rune(0), b.Get(5, 0).Rune, "out of bounds reads empty")

	b.Set(0, 1, '·', RGB{10, 200, 10}, BlendReplace, 1, tcell.AttrNone)
	b.Set(0, 1, 0, RGB{100, 50, 10}, BlendMax, 1, tcell.AttrNone)
	assert.Equal(t, RGB{100, 200, 10}, b.Get(0, 1).Fg)
	assert.Equal(t, '·', b.Get(0, 1).Rune)

	b.Clear()
	assert.Equal(t, rune(0), b.Get(3, 0).Rune)
	assert.Equal(t, RgbBackground, b.Get(3, 0).Bg)
}

type recordLayer struct {
	name string
	log  *[]string
}

func (r recordLayer) Render(Context, *RenderBuffer) { *r.log = append(*r.log, r.name) }

type hiddenLayer struct{ recordLayer }

func (hiddenLayer) Hidden() bool { return true }

func TestOrchestrator_PriorityOrder(t *testing.T) {
	screen := newScreen(t, 40, 10)
	o := NewOrchestrator(screen)

	var calls []string
	o.Register(recordLayer{"hud", &calls}, PriorityUI)
	o.Register(recordLayer{"ambient", &calls}, PriorityAmbient)
	o.Register(recordLayer{"marker-a", &calls}, PriorityMarker)
	o.Register(recordLayer{"marker-b", &calls}, PriorityMarker)
	o.Register(hiddenLayer{recordLayer{"hidden", &calls}}, PriorityOverlay)

	o.RenderFrame(&Scene{})
	assert.Equal(t, []string{"ambient", "marker-a", "marker-b", "hud"}, calls)
}

func TestOrchestrator_RendersGlobeAndHUD(t *testing.T) {
	screen := newScreen(t, 120, 40)
	o := NewOrchestrator(screen)

	table := geo.DefaultTable()
	o.Register(NewAmbientLayer(geo.Scatter(rngForTest(), 500, parameter.GlobeRadius), parameter.GlobeRadius), PriorityAmbient)
	o.Register(&MarkerLayer{Labels: true}, PriorityMarker)
	o.Register(HUDLayer{}, PriorityUI)

	scene := sceneFacing("EU-West", table)
	scene.Markers[2].Role = RoleTarget
	scene.Markers[2].Cheap = true
	scene.HUD = HUD{
		Savings:     "$1,234.00",
		Phase:       "VALIDATING",
		Target:      "EU-West",
		TargetPrice: "$0.0150",
		Eligible:    true,
		Alert:       "EU-West dropped to $0.0150",
		Connected:   true,
	}
	o.RenderFrame(scene)

	mx, my, _, ok := NewViewport(120, 40).Project(table.Position("EU-West"), scene.Angle)
	require.True(t, ok)
	r, _, _, _ := screen.GetContent(mx, my)
	assert.Equal(t, '●', r)
	l, _, _, _ := screen.GetContent(mx-1, my)
	assert.Equal(t, '[', l)

	assert.Contains(t, rowText(screen, 0), "spotglobe")
	assert.Contains(t, rowText(screen, 0), "$1,234.00/yr")
	assert.Contains(t, rowText(screen, 0), "● live")
	assert.Contains(t, rowText(screen, 1), "EU-West dropped to $0.0150")
	assert.Contains(t, rowText(screen, my), "3 EU-West $0.0500")

	bar := rowText(screen, 39)
	assert.Contains(t, bar, "VALIDATING")
	assert.Contains(t, bar, "→ EU-West")
	assert.Contains(t, bar, "cheap")

	hit, ok := o.HitTest(mx, my)
	assert.True(t, ok)
	assert.Equal(t, "EU-West", hit)
}

func TestArcLayer_DrawsVisibleTrail(t *testing.T) {
	table := geo.DefaultTable()
	from := table.Position("US-East")
	to := table.Position("EU-West")
	mid := vmath.Slerp(from, to, 0.5)

	scene := &Scene{
		Angle: vmath.Azimuth(mid),
		Arcs:  []Arc{{From: from, To: to, Life: 1}},
	}
	ctx := NewContext(120, 40, scene)
	buf := NewRenderBuffer(120, 40)
	(&ArcLayer{}).Render(ctx, buf)

	tx, ty, _, ok := ctx.View.Project(to, scene.Angle)
	require.True(t, ok)
	assert.Equal(t, '✦', buf.Get(tx, ty).Rune)

	drawn := 0
	for y := 0; y < 40; y++ {
		for x := 0; x < 120; x++ {
			if buf.Get(x, y).Rune == '∙' {
				drawn++
			}
		}
	}
	assert.Greater(t, drawn, 5)
}
