package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/spotglobe/core"
	"github.com/lixenwraith/spotglobe/parameter"
)

// activeSound tracks a playing chime instance
type activeSound struct {
	buffer floatBuffer
	pos    int
	volume float64
}

type playRequest struct {
	chime  Chime
	volume float64
}

// Mixer sums active chimes and writes s16le stereo to the backend pipe
type Mixer struct {
	output io.Writer
	cache  *chimeCache
	tick   time.Duration

	playQueue chan playRequest
	stopChan  chan struct{}
	done      chan struct{}
	started   atomic.Bool
	stopped   atomic.Bool

	// Accessed only by mix goroutine
	active []activeSound

	played  atomic.Uint64
	dropped atomic.Uint64

	errChan chan error
}

// NewMixer creates a mixer writing to out
func NewMixer(out io.Writer, cache *chimeCache) *Mixer {
	return &Mixer{
		output:    out,
		cache:     cache,
		tick:      parameter.AudioBufferDuration,
		playQueue: make(chan playRequest, parameter.AudioPlayQueue),
		stopChan:  make(chan struct{}),
		done:      make(chan struct{}),
		active:    make([]activeSound, 0, 4),
		errChan:   make(chan error, 1),
	}
}

// Start begins the mixing loop
func (m *Mixer) Start() {
	if m.stopped.Load() || !m.started.CompareAndSwap(false, true) {
		return
	}
	core.Go(m.loop)
}

// Stop signals the mixer to halt and waits for the loop to exit
func (m *Mixer) Stop() {
	if m.stopped.CompareAndSwap(false, true) {
		close(m.stopChan)
		if m.started.Load() {
			<-m.done
		}
	}
}

// Play queues a chime; a full queue drops the request
func (m *Mixer) Play(c Chime, volume float64) bool {
	if m.stopped.Load() {
		return false
	}
	select {
	case m.playQueue <- playRequest{chime: c, volume: volume}:
		return true
	default:
		m.dropped.Add(1)
		return false
	}
}

// Errors returns the pipe failure channel
func (m *Mixer) Errors() <-chan error {
	return m.errChan
}

func (m *Mixer) loop() {
	defer close(m.done)

	ticker := time.NewTicker(m.tick)
	defer ticker.Stop()

	samples := parameter.AudioBufferSamples
	mixBuf := make([]float64, samples)
	outBytes := make([]byte, samples*parameter.AudioBytesPerFrame)

	for {
		select {
		case <-m.stopChan:
			return

		case req := <-m.playQueue:
			m.enqueue(req)

		case <-ticker.C:
			clear(mixBuf)
			if len(m.active) > 0 {
				m.active = m.mixActive(mixBuf)
			}
			floatToBytes(mixBuf, outBytes)

			// Silence keeps the pipe primed between chimes
			if _, err := m.output.Write(outBytes); err != nil {
				select {
				case m.errChan <- fmt.Errorf("%w: %v", ErrPipeClosed, err):
				default:
				}
				return
			}
		}
	}
}

func (m *Mixer) enqueue(req playRequest) {
	buf := m.cache.get(req.chime)
	if len(buf) == 0 {
		return
	}
	m.active = append(m.active, activeSound{buffer: buf, volume: req.volume})
	m.played.Add(1)
}

// mixActive mixes active sounds into buf and returns the ones still playing
func (m *Mixer) mixActive(buf []float64) []activeSound {
	remaining := m.active[:0]
	for i := range m.active {
		s := &m.active[i]
		for j := 0; j < len(buf) && s.pos < len(s.buffer); j++ {
			buf[j] += s.buffer[s.pos] * s.volume
			s.pos++
		}
		if s.pos < len(s.buffer) {
			remaining = append(remaining, *s)
		}
	}
	return remaining
}

// floatToBytes converts mono float64 to interleaved stereo int16 LE with soft limiting
func floatToBytes(in []float64, out []byte) {
	for i, v := range in {
		if v > 0.8 {
			v = 0.8 + 0.2*(1.0-1.0/(1.0+(v-0.8)*5.0))
		} else if v < -0.8 {
			v = -0.8 - 0.2*(1.0-1.0/(1.0+(-v-0.8)*5.0))
		}
		v = max(-1.0, min(1.0, v))

		i16 := int16(v * 32767)
		idx := i * 4
		binary.LittleEndian.PutUint16(out[idx:], uint16(i16))
		binary.LittleEndian.PutUint16(out[idx+2:], uint16(i16))
	}
}

// Stats returns played and dropped counts
func (m *Mixer) Stats() (played, dropped uint64) {
	return m.played.Load(), m.dropped.Load()
}
