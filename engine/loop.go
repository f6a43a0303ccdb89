package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/lixenwraith/spotglobe/event"
	"github.com/lixenwraith/spotglobe/parameter"
	"github.com/lixenwraith/spotglobe/status"
)

// ErrLoopStopped is returned by Step after Stop
var ErrLoopStopped = errors.New("engine: loop stopped")

// FrameFunc receives the capped elapsed time since the previous frame
type FrameFunc func(dt time.Duration)

// LoopConfig configures a Loop, zero fields take parameter defaults
type LoopConfig struct {
	Clock         Clock
	FrameInterval time.Duration
	MaxFrameDelta time.Duration
	Status        *status.Registry
	Logger        *zap.Logger
}

// Loop is the single serialized timeline
// Every state mutation happens inside Step: due timers, queued events, then frame callbacks
// Producers on other goroutines only Push to the queue
type Loop struct {
	clock    Clock
	interval time.Duration
	maxDelta time.Duration

	queue  *event.Queue
	router *event.Router
	timers *Timers
	frames []FrameFunc

	last time.Time

	stopChan chan struct{}
	stopOnce sync.Once
	stopped  atomic.Bool

	log         *zap.Logger
	statFrames  *atomic.Int64
	statEvents  *atomic.Int64
	statDropped *atomic.Int64
}

// NewLoop creates a loop with an empty queue and router
func NewLoop(cfg LoopConfig) *Loop {
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}
	if cfg.FrameInterval <= 0 {
		cfg.FrameInterval = parameter.FrameUpdateInterval
	}
	if cfg.MaxFrameDelta <= 0 {
		cfg.MaxFrameDelta = parameter.MaxFrameDelta
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	reg := status.OrNew(cfg.Status)

	q := event.NewQueue()
	return &Loop{
		clock:       cfg.Clock,
		interval:    cfg.FrameInterval,
		maxDelta:    cfg.MaxFrameDelta,
		queue:       q,
		router:      event.NewRouter(q),
		timers:      NewTimers(cfg.Clock.Now()),
		stopChan:    make(chan struct{}),
		log:         cfg.Logger,
		statFrames:  reg.Ints.Get(status.KeyFrames),
		statEvents:  reg.Ints.Get(status.KeyEvents),
		statDropped: reg.Ints.Get(status.KeyQueueDropped),
	}
}

func (l *Loop) Queue() *event.Queue   { return l.queue }
func (l *Loop) Router() *event.Router { return l.router }
func (l *Loop) Timers() *Timers       { return l.timers }
func (l *Loop) Clock() Clock          { return l.clock }

// Push stamps and enqueues an event, safe from any goroutine
func (l *Loop) Push(t event.EventType, payload any) {
	l.queue.Push(event.Event{Type: t, Payload: payload, Timestamp: l.clock.Now()})
}

// RegisterHandler adds an event handler, must be called before Run
func (l *Loop) RegisterHandler(h event.Handler) {
	l.router.Register(h)
}

// OnFrame adds a per-frame callback, must be called before Run
func (l *Loop) OnFrame(fn FrameFunc) {
	l.frames = append(l.frames, fn)
}

// Step runs one serialized cycle at loop time now
func (l *Loop) Step(now time.Time) error {
	if l.stopped.Load() {
		return ErrLoopStopped
	}

	var dt time.Duration
	if !l.last.IsZero() {
		dt = now.Sub(l.last)
		if dt < 0 {
			dt = 0
		}
		if dt > l.maxDelta {
			dt = l.maxDelta
		}
	}
	l.last = now

	l.timers.Advance(now)
	n := l.router.DispatchAll()

	for _, fn := range l.frames {
		fn(dt)
	}

	l.statFrames.Add(1)
	l.statEvents.Add(int64(n))
	l.statDropped.Store(int64(l.queue.Dropped()))
	return nil
}

// Run steps the loop on every frame tick until ctx is done or Stop is called
// Returns nil on Stop, ctx.Err() on cancellation
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	l.log.Debug("loop_started", zap.Duration("frame_interval", l.interval))

	if err := l.Step(l.clock.Now()); err != nil {
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			l.Stop()
			return ctx.Err()
		case <-l.stopChan:
			l.log.Debug("loop_stopped")
			return nil
		case <-ticker.C:
			if err := l.Step(l.clock.Now()); err != nil {
				return nil
			}
		}
	}
}

// Stop halts Run, idempotent and safe from any goroutine
func (l *Loop) Stop() {
	l.stopOnce.Do(func() {
		l.stopped.Store(true)
		close(l.stopChan)
	})
}

// Stopped reports whether Stop has been called
func (l *Loop) Stopped() bool {
	return l.stopped.Load()
}
