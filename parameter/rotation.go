package parameter

// Globe Rotation
const (
	// IdleRotationRate is the continuous spin rate when no region is selected (rad/s)
	IdleRotationRate = 0.05

	// RotationDamping is the exponential damping constant used when turning toward a target
	// Higher values converge faster; 4 settles within ~1s
	RotationDamping = 4.0
)
