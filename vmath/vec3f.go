package vmath

import (
	"math"
)

// Vec3F is a float64 3D vector used for globe geometry
type Vec3F struct {
	X, Y, Z float64
}

func V3FAdd(a, b Vec3F) Vec3F {
	return Vec3F{a.X + b.X, a.Y + b.Y, a.Z + b.Z}
}

func V3FSub(a, b Vec3F) Vec3F {
	return Vec3F{a.X - b.X, a.Y - b.Y, a.Z - b.Z}
}

func V3FScale(v Vec3F, s float64) Vec3F {
	return Vec3F{v.X * s, v.Y * s, v.Z * s}
}

func V3FMagSq(v Vec3F) float64 {
	return v.X*v.X + v.Y*v.Y + v.Z*v.Z
}

func V3FMag(v Vec3F) float64 {
	return math.Sqrt(V3FMagSq(v))
}

func V3FNormalize(v Vec3F) Vec3F {
	mag := V3FMag(v)
	if mag == 0 {
		return Vec3F{}
	}
	inv := 1.0 / mag
	return Vec3F{v.X * inv, v.Y * inv, v.Z * inv}
}

// V3FRotateY turns a point about the vertical axis by the globe yaw angle
// Convention: yaw = Azimuth(p) brings p onto the +Z axis (facing the viewer)
func V3FRotateY(v Vec3F, yaw float64) Vec3F {
	sin, cos := math.Sincos(yaw)
	return Vec3F{
		X: v.X*cos - v.Z*sin,
		Y: v.Y,
		Z: v.X*sin + v.Z*cos,
	}
}

// Azimuth returns the yaw that brings p to face the viewer, atan2(x, z)
func Azimuth(v Vec3F) float64 {
	return math.Atan2(v.X, v.Z)
}

func V3FDot(a, b Vec3F) float64 {
	return a.X*b.X + a.Y*b.Y + a.Z*b.Z
}

// Slerp interpolates along the great circle between a and b, keeping a's radius
// Nearly parallel inputs fall back to a normalized lerp
func Slerp(a, b Vec3F, t float64) Vec3F {
	ra := V3FMag(a)
	na, nb := V3FNormalize(a), V3FNormalize(b)
	dot := max(-1, min(1, V3FDot(na, nb)))
	omega := math.Acos(dot)

	var out Vec3F
	if sinO := math.Sin(omega); sinO < 1e-6 {
		out = V3FNormalize(V3FAdd(V3FScale(na, 1-t), V3FScale(nb, t)))
	} else {
		wa := math.Sin((1-t)*omega) / sinO
		wb := math.Sin(t*omega) / sinO
		out = V3FAdd(V3FScale(na, wa), V3FScale(nb, wb))
	}
	return V3FScale(out, ra)
}
