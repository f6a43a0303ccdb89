package audio

import (
	"sync"

	"github.com/gopxl/beep"

	"github.com/lixenwraith/spotglobe/parameter"
)

// floatBuffer is mono float64 samples at unity gain
type floatBuffer []float64

// chimeCache stores rendered chime buffers
type chimeCache struct {
	mu    sync.RWMutex
	rate  beep.SampleRate
	store [chimeCount]floatBuffer
	ready [chimeCount]bool
}

func newChimeCache(rate beep.SampleRate) *chimeCache {
	if rate <= 0 {
		rate = beep.SampleRate(parameter.AudioSampleRate)
	}
	return &chimeCache{rate: rate}
}

// get returns the cached buffer, rendering on first use
func (c *chimeCache) get(ch Chime) floatBuffer {
	if ch < 0 || ch >= chimeCount {
		return nil
	}

	c.mu.RLock()
	if c.ready[ch] {
		buf := c.store[ch]
		c.mu.RUnlock()
		return buf
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ready[ch] {
		return c.store[ch]
	}
	buf := render(NewChime(ch, c.rate))
	c.store[ch] = buf
	c.ready[ch] = true
	return buf
}

func (c *chimeCache) preload() {
	for ch := Chime(0); ch < chimeCount; ch++ {
		c.get(ch)
	}
}

// render drains a finite streamer into a mono buffer
func render(s beep.Streamer) floatBuffer {
	if s == nil {
		return nil
	}
	var out floatBuffer
	chunk := make([][2]float64, 512)
	for {
		n, ok := s.Stream(chunk)
		for i := 0; i < n; i++ {
			out = append(out, (chunk[i][0]+chunk[i][1])/2)
		}
		if !ok {
			return out
		}
	}
}
