package audio

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"

	"github.com/gopxl/beep"
	"go.uber.org/zap"

	"github.com/lixenwraith/spotglobe/core"
	"github.com/lixenwraith/spotglobe/parameter"
)

// Config holds chime playback settings
type Config struct {
	Muted  bool
	Volume float64
}

// DefaultConfig returns unmuted playback at the default master volume
func DefaultConfig() Config {
	return Config{Volume: parameter.AudioMasterVolume}
}

// backendPipe is an opened backend accepting raw PCM
type backendPipe struct {
	io.WriteCloser
	cmd *exec.Cmd
}

func (b *backendPipe) Close() error {
	err := b.WriteCloser.Close()
	if b.cmd != nil && b.cmd.Process != nil {
		_ = b.cmd.Process.Kill()
		_ = b.cmd.Wait()
	}
	return err
}

// openBackend starts the CLI player or opens the OSS device
func openBackend(b *BackendConfig) (io.WriteCloser, error) {
	if b.Type == BackendOSS {
		f, err := os.OpenFile(b.Path, os.O_WRONLY, 0)
		if err != nil {
			return nil, err
		}
		return f, nil
	}

	cmd := exec.Command(b.Path, b.Args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		stdin.Close()
		return nil, err
	}
	return &backendPipe{WriteCloser: stdin, cmd: cmd}, nil
}

// Player plays alert chimes through a system audio backend
// Playback degrades to silent when muted, when no backend is found, or when the pipe breaks
type Player struct {
	config Config
	log    *zap.Logger

	detect func() (*BackendConfig, error)
	open   func(*BackendConfig) (io.WriteCloser, error)

	mu      sync.Mutex
	backend *BackendConfig
	out     io.WriteCloser
	mixer   *Mixer
	wg      sync.WaitGroup

	silent  atomic.Bool
	running atomic.Bool
}

// NewPlayer creates a player; nothing is opened until Init/Start
func NewPlayer(cfg Config, log *zap.Logger) *Player {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Volume <= 0 && !cfg.Muted {
		cfg.Volume = parameter.AudioMasterVolume
	}
	cfg.Volume = min(cfg.Volume, 1)
	return &Player{
		config: cfg,
		log:    log,
		detect: DetectBackend,
		open:   openBackend,
	}
}

func (p *Player) Name() string           { return "audio" }
func (p *Player) Dependencies() []string { return nil }

// Init detects a backend; failure switches to silent mode rather than erroring
func (p *Player) Init(context.Context) error {
	if p.config.Muted {
		p.silent.Store(true)
		p.log.Info("audio_muted")
		return nil
	}
	b, err := p.detect()
	if err != nil {
		p.silent.Store(true)
		p.log.Info("audio_disabled", zap.Error(err))
		return nil
	}
	p.backend = b
	p.log.Info("audio_backend", zap.String("backend", b.Name))
	return nil
}

// Start opens the backend and launches the mixer
func (p *Player) Start() error {
	if p.silent.Load() || !p.running.CompareAndSwap(false, true) {
		return nil
	}
	if p.backend == nil {
		p.silent.Store(true)
		return nil
	}

	out, err := p.open(p.backend)
	if err != nil {
		p.silent.Store(true)
		p.log.Warn("audio_open_failed", zap.String("backend", p.backend.Name), zap.Error(err))
		return nil
	}

	cache := newChimeCache(beep.SampleRate(parameter.AudioSampleRate))
	cache.preload()
	mixer := NewMixer(out, cache)

	p.mu.Lock()
	p.out = out
	p.mixer = mixer
	p.mu.Unlock()

	mixer.Start()
	p.wg.Add(1)
	core.Go(func() {
		defer p.wg.Done()
		select {
		case err := <-mixer.Errors():
			p.silent.Store(true)
			p.log.Warn("audio_pipe_failed", zap.Error(err))
		case <-mixer.done:
		}
	})
	return nil
}

// Play queues a chime, returns false when nothing will be heard
func (p *Player) Play(c Chime) bool {
	if p.silent.Load() || !p.running.Load() {
		return false
	}
	p.mu.Lock()
	m := p.mixer
	p.mu.Unlock()
	if m == nil {
		return false
	}
	return m.Play(c, p.config.Volume)
}

// Enabled reports whether chimes reach a device
func (p *Player) Enabled() bool {
	return p.running.Load() && !p.silent.Load()
}

// Stop halts the mixer and closes the backend
func (p *Player) Stop() error {
	if !p.running.CompareAndSwap(true, false) {
		return nil
	}

	p.mu.Lock()
	m, out := p.mixer, p.out
	p.mixer, p.out = nil, nil
	p.mu.Unlock()

	if m != nil {
		m.Stop()
	}
	p.wg.Wait()

	if out != nil {
		if err := out.Close(); err != nil {
			return fmt.Errorf("audio: close backend: %w", err)
		}
	}
	return nil
}
