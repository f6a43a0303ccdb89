package vmath

import "math"

// TwoPi is a full turn in radians
const TwoPi = 2 * math.Pi

// NormalizeAngle wraps an angle into [0, 2π)
func NormalizeAngle(a float64) float64 {
	if math.IsNaN(a) || math.IsInf(a, 0) {
		return 0
	}
	r := math.Mod(a, TwoPi)
	if r < 0 {
		r += TwoPi
	}
	// Mod of a tiny negative value rounds back up to exactly 2π
	if r >= TwoPi {
		r = 0
	}
	return r
}

// ShortestAngle returns the signed difference to - from in (-π, π]
// Inputs need not be normalized
func ShortestAngle(from, to float64) float64 {
	diff := NormalizeAngle(to) - NormalizeAngle(from)
	if diff > math.Pi {
		diff -= TwoPi
	}
	if diff <= -math.Pi {
		diff += TwoPi
	}
	return diff
}

// Damp moves current toward target with exponential decay
// Frame-rate independent: two steps of dt equal one step of 2*dt
// lambda is the damping constant (1/s), dt is elapsed seconds
func Damp(current, target, lambda, dt float64) float64 {
	if dt <= 0 || lambda <= 0 {
		return current
	}
	return Lerp(current, target, 1-math.Exp(-lambda*dt))
}

// Lerp interpolates linearly between a and b
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// DegToRad converts degrees to radians
func DegToRad(deg float64) float64 {
	return deg * (math.Pi / 180)
}
