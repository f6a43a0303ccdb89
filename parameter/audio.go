package parameter

import "time"

// Audio Hardware Settings
const (
	AudioSampleRate = 44100

	// AudioBufferDuration is the mixer tick; one buffer is written per tick
	AudioBufferDuration = 50 * time.Millisecond

	// AudioBufferSamples is frames per mixer tick
	AudioBufferSamples = AudioSampleRate * int(AudioBufferDuration/time.Millisecond) / 1000

	// AudioBytesPerFrame is stereo s16le
	AudioBytesPerFrame = 4

	// AudioPlayQueue bounds pending chime requests
	AudioPlayQueue = 16

	// AudioMasterVolume is the default linear gain
	AudioMasterVolume = 0.6
)

// Alert Chimes
const (
	ChimeDropFrequency    = 880.0
	ChimeDropSecond       = 659.25
	ChimeSuccessFrequency = 987.77
	ChimeSuccessSecond    = 1318.51
	ChimeBlockedFrequency = 220.0

	ChimeNoteDuration = 120 * time.Millisecond
	ChimeDuration     = 240 * time.Millisecond
	ChimeAttack       = 5 * time.Millisecond
	ChimeRelease      = 80 * time.Millisecond
)
