package rotation

import (
	"math"
	"time"

	"github.com/lixenwraith/spotglobe/geo"
	"github.com/lixenwraith/spotglobe/parameter"
	"github.com/lixenwraith/spotglobe/vmath"
)

// Config holds the rotation tuning
type Config struct {
	// IdleRate is the idle spin in radians per second
	IdleRate float64
	// Damping is the exponential approach constant toward a target (1/s)
	Damping float64
}

func DefaultConfig() Config {
	return Config{
		IdleRate: parameter.IdleRotationRate,
		Damping:  parameter.RotationDamping,
	}
}

// Controller produces the globe yaw each frame
// Idle: constant spin. Targeting: damped approach along the shortest arc to the yaw
// that brings the target marker to the front
type Controller struct {
	cfg   Config
	table *geo.Table

	angle       float64
	target      string
	targetAngle float64
	hasTarget   bool
}

func NewController(table *geo.Table, cfg Config) *Controller {
	return &Controller{cfg: cfg, table: table}
}

// SetTarget starts targeting region; unknown regions aim at the table fallback
func (c *Controller) SetTarget(region string) {
	c.target = region
	c.targetAngle = vmath.Azimuth(c.table.Position(region))
	c.hasTarget = true
}

// ClearTarget returns to idle spin from the current angle
func (c *Controller) ClearTarget() {
	c.target = ""
	c.hasTarget = false
}

// Update advances the angle by dt and returns it
func (c *Controller) Update(dt time.Duration) float64 {
	if dt <= 0 {
		return c.angle
	}
	sec := dt.Seconds()

	if !c.hasTarget {
		c.angle += c.cfg.IdleRate * sec
		return c.angle
	}

	cur := vmath.NormalizeAngle(c.angle)
	diff := vmath.ShortestAngle(cur, c.targetAngle)
	c.angle = vmath.Damp(cur, cur+diff, c.cfg.Damping, sec)
	return c.angle
}

// Angle returns the current yaw in radians
func (c *Controller) Angle() float64 {
	return c.angle
}

// Target returns the region being tracked
func (c *Controller) Target() (string, bool) {
	return c.target, c.hasTarget
}

// Remaining returns the absolute shortest-arc distance to the target yaw
func (c *Controller) Remaining() float64 {
	if !c.hasTarget {
		return 0
	}
	return math.Abs(vmath.ShortestAngle(c.angle, c.targetAngle))
}
