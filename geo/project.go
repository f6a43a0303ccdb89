package geo

import (
	"math"
	"math/rand"

	"github.com/lixenwraith/spotglobe/vmath"
)

// Project maps latitude/longitude in degrees onto a sphere of the given radius
// Polar angle comes from latitude, azimuth is longitude offset by 180° with X flipped
// (0,0) lands on +X, longitude -90 on +Z which faces the viewer at yaw 0
func Project(lat, lon, radius float64) vmath.Vec3F {
	phi := vmath.DegToRad(90 - lat)
	theta := vmath.DegToRad(lon + 180)

	sinPhi, cosPhi := math.Sincos(phi)
	sinTheta, cosTheta := math.Sincos(theta)

	return vmath.Vec3F{
		X: -(radius * sinPhi * cosTheta),
		Y: radius * cosPhi,
		Z: radius * sinPhi * sinTheta,
	}
}

// Scatter samples n surface points from uniform random latitude/longitude
// Generated once per globe build; the caller owns rng for reproducibility
func Scatter(rng *rand.Rand, n int, radius float64) []vmath.Vec3F {
	if n <= 0 {
		return nil
	}
	points := make([]vmath.Vec3F, n)
	for i := range points {
		lat := rng.Float64()*180 - 90
		lon := rng.Float64()*360 - 180
		points[i] = Project(lat, lon, radius)
	}
	return points
}
