package audio

import (
	"math"
	"math/rand"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"

	"github.com/lixenwraith/spotglobe/parameter"
)

// WaveType defines oscillator wave shapes
type WaveType int

const (
	WaveSine WaveType = iota
	WaveSquare
	WaveSaw
	WaveNoise
)

// oscillator generates raw audio waves
type oscillator struct {
	freq     float64
	phase    float64
	duration int
	position int
	wave     WaveType
	rate     beep.SampleRate
}

// NewOscillator creates a finite oscillator streamer
func NewOscillator(freq float64, duration time.Duration, wave WaveType, rate beep.SampleRate) beep.Streamer {
	return &oscillator{
		freq:     freq,
		duration: rate.N(duration),
		wave:     wave,
		rate:     rate,
	}
}

func (o *oscillator) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		if o.position >= o.duration {
			return i, i > 0
		}

		var val float64
		switch o.wave {
		case WaveSine:
			val = math.Sin(2 * math.Pi * o.phase)
		case WaveSquare:
			if o.phase < 0.5 {
				val = 1.0
			} else {
				val = -1.0
			}
		case WaveSaw:
			val = 2.0 * (o.phase - 0.5)
		case WaveNoise:
			val = rand.Float64()*2 - 1
		}

		samples[i][0] = val
		samples[i][1] = val

		o.phase += o.freq / float64(o.rate)
		o.phase -= math.Floor(o.phase)
		o.position++
	}
	return len(samples), true
}

func (o *oscillator) Err() error { return nil }

// envelope applies attack/release shaping to a stream
type envelope struct {
	streamer       beep.Streamer
	position       int
	attackSamples  int
	releaseSamples int
	totalSamples   int
}

// NewEnvelope wraps s with a linear attack and release over duration
func NewEnvelope(s beep.Streamer, duration, attack, release time.Duration, rate beep.SampleRate) beep.Streamer {
	return &envelope{
		streamer:       s,
		attackSamples:  rate.N(attack),
		releaseSamples: rate.N(release),
		totalSamples:   rate.N(duration),
	}
}

func (e *envelope) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = e.streamer.Stream(samples)

	releaseStart := e.totalSamples - e.releaseSamples
	for i := 0; i < n; i++ {
		if e.position >= e.totalSamples {
			return i, i > 0
		}

		vol := 1.0
		if e.position < e.attackSamples {
			vol = float64(e.position) / float64(e.attackSamples)
		}
		if e.releaseSamples > 0 && e.position >= releaseStart {
			vol = math.Min(vol, float64(e.totalSamples-e.position)/float64(e.releaseSamples))
		}

		samples[i][0] *= vol
		samples[i][1] *= vol
		e.position++
	}
	return n, ok
}

func (e *envelope) Err() error { return e.streamer.Err() }

// newVolume applies linear gain; zero or less is silent
func newVolume(s beep.Streamer, vol float64) beep.Streamer {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(vol)}
}

func note(freq float64, d time.Duration, wave WaveType, rate beep.SampleRate) beep.Streamer {
	osc := NewOscillator(freq, d, wave, rate)
	return NewEnvelope(osc, d, parameter.ChimeAttack, parameter.ChimeRelease, rate)
}

// dropChime is a falling two-tone sine
func dropChime(rate beep.SampleRate) beep.Streamer {
	return beep.Seq(
		note(parameter.ChimeDropFrequency, parameter.ChimeNoteDuration, WaveSine, rate),
		note(parameter.ChimeDropSecond, parameter.ChimeNoteDuration, WaveSine, rate),
	)
}

// successChime is a rising square pair
func successChime(rate beep.SampleRate) beep.Streamer {
	return newVolume(beep.Seq(
		note(parameter.ChimeSuccessFrequency, parameter.ChimeNoteDuration, WaveSquare, rate),
		note(parameter.ChimeSuccessSecond, parameter.ChimeNoteDuration, WaveSquare, rate),
	), 0.5)
}

// blockedChime is a low saw buzz
func blockedChime(rate beep.SampleRate) beep.Streamer {
	return newVolume(note(parameter.ChimeBlockedFrequency, parameter.ChimeDuration, WaveSaw, rate), 0.7)
}

// NewChime returns a fresh streamer for c, nil when c is unknown
func NewChime(c Chime, rate beep.SampleRate) beep.Streamer {
	switch c {
	case ChimeDrop:
		return dropChime(rate)
	case ChimeSuccess:
		return successChime(rate)
	case ChimeBlocked:
		return blockedChime(rate)
	default:
		return nil
	}
}
