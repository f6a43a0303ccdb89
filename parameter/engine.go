package parameter

import "time"

// Loop
const (
	// FrameUpdateInterval paces Step when the loop runs on the wall clock (~30 FPS)
	FrameUpdateInterval = 33 * time.Millisecond

	// MaxFrameDelta bounds dt handed to frame callbacks so a stalled terminal does not snap the globe
	MaxFrameDelta = 100 * time.Millisecond
)

// Event ring
const (
	// EventQueueSize is the live frame ring capacity, a power of two; frames past it are dropped
	EventQueueSize = 1 << 10

	EventBufferMask = EventQueueSize - 1
)
