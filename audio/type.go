package audio

import "errors"

// Chime identifies an alert sound
type Chime int

const (
	ChimeDrop    Chime = iota // price drop detected
	ChimeSuccess              // migration confirmed
	ChimeBlocked              // migration vetoed
	chimeCount
)

func (c Chime) String() string {
	switch c {
	case ChimeDrop:
		return "drop"
	case ChimeSuccess:
		return "success"
	case ChimeBlocked:
		return "blocked"
	default:
		return "unknown"
	}
}

// BackendType identifies the audio backend
type BackendType int

const (
	BackendPulse BackendType = iota
	BackendPipeWire
	BackendALSA
	BackendSoX
	BackendFFplay
	BackendOSS
)

// BackendConfig describes a CLI audio backend fed raw s16le stereo on stdin
type BackendConfig struct {
	Type BackendType
	Name string
	Path string
	Args []string
}

// Sentinel errors
var (
	ErrNoAudioBackend = errors.New("no compatible audio backend found")
	ErrPipeClosed     = errors.New("audio pipe closed")
)
