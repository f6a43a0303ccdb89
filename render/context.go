package render

import (
	"math"

	"github.com/lixenwraith/spotglobe/parameter"
	"github.com/lixenwraith/spotglobe/vmath"
)

// MarkerRole tags a marker with its part in the current migration
type MarkerRole uint8

const (
	RoleNone MarkerRole = iota
	RoleTarget
	RoleSource
)

// Marker is a region pin on the globe
type Marker struct {
	Region   string
	Position vmath.Vec3F
	Price    float64
	HasPrice bool
	Cheap    bool
	Role     MarkerRole
	Index    int // 1-based key shortcut, 0 for none
}

// Arc is a live migration event drawn along the great circle
type Arc struct {
	From, To vmath.Vec3F
	Label    string
	// Life is the remaining fraction of the event lifetime in [0,1]
	Life float64
}

// HUD is the text state shown over the globe
type HUD struct {
	Savings       string
	Phase         string
	Target        string
	Source        string
	TargetPrice   string
	Eligible      bool
	BlockedReason string
	Alert         string
	Stale         bool
	Connected     bool
	Muted         bool
	Live          []string
}

// Scene is everything a frame draws, rebuilt by the dashboard each tick
type Scene struct {
	Angle   float64
	Pulse   float64 // [0,1) cycle used to animate cheap markers
	Markers []Marker
	Arcs    []Arc
	HUD     HUD
}

// Viewport maps globe space to terminal cells
type Viewport struct {
	CenterX, CenterY float64
	ScaleX, ScaleY   float64
}

// NewViewport fits the globe into width x height, leaving the HUD rows free
func NewViewport(width, height int) Viewport {
	rows := float64(max(height-parameter.HUDRows, 1))
	cols := float64(max(width, 1))
	r := math.Min(rows, cols/parameter.CellAspect) * parameter.GlobeViewFill
	return Viewport{
		CenterX: cols / 2,
		CenterY: rows / 2,
		ScaleX:  r * parameter.CellAspect,
		ScaleY:  r,
	}
}

// Project rotates p by yaw and maps it to a cell
// depth is the rotated z; visible is false for the far hemisphere
func (v Viewport) Project(p vmath.Vec3F, yaw float64) (x, y int, depth float64, visible bool) {
	q := vmath.V3FRotateY(p, yaw)
	x = int(math.Round(v.CenterX + q.X*v.ScaleX))
	y = int(math.Round(v.CenterY - q.Y*v.ScaleY))
	return x, y, q.Z, q.Z > 0
}

// Context is passed to every layer for one frame
type Context struct {
	Width, Height int
	View          Viewport
	Scene         *Scene
}

// NewContext builds a frame context for the given size
func NewContext(width, height int, scene *Scene) Context {
	if scene == nil {
		scene = &Scene{}
	}
	return Context{
		Width:  width,
		Height: height,
		View:   NewViewport(width, height),
		Scene:  scene,
	}
}

// HitTest returns the visible marker closest to cell x,y within the hit radius
// Distances are measured in row units so a click is equally tolerant in both axes
func HitTest(ctx Context, x, y int) (string, bool) {
	best := ""
	bestDist := math.Inf(1)
	bestDepth := math.Inf(-1)
	for _, m := range ctx.Scene.Markers {
		mx, my, depth, ok := ctx.View.Project(m.Position, ctx.Scene.Angle)
		if !ok {
			continue
		}
		dx := float64(x-mx) / parameter.CellAspect
		dy := float64(y - my)
		d := math.Hypot(dx, dy)
		if d > parameter.MarkerHitRadius {
			continue
		}
		if d < bestDist || (d == bestDist && depth > bestDepth) {
			best, bestDist, bestDepth = m.Region, d, depth
		}
	}
	return best, best != ""
}
