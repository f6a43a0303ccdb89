package price

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lixenwraith/spotglobe/core"
	"github.com/lixenwraith/spotglobe/event"
	"github.com/lixenwraith/spotglobe/parameter"
)

// Poller fetches a snapshot on a fixed cadence and publishes results to the loop
// One fetch is in flight at a time; ticks that fire during a slow fetch are skipped
type Poller struct {
	fetcher  Fetcher
	pub      event.Publisher
	interval time.Duration
	timeout  time.Duration
	log      *zap.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
}

// NewPoller creates a poller, zero durations take parameter defaults
func NewPoller(fetcher Fetcher, pub event.Publisher, interval, timeout time.Duration, log *zap.Logger) *Poller {
	if interval <= 0 {
		interval = parameter.PollInterval
	}
	if timeout <= 0 || timeout > interval {
		timeout = min(parameter.FetchTimeout, interval)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Poller{
		fetcher:  fetcher,
		pub:      pub,
		interval: interval,
		timeout:  timeout,
		log:      log,
	}
}

func (p *Poller) Name() string           { return "price-poller" }
func (p *Poller) Dependencies() []string { return nil }

func (p *Poller) Init(context.Context) error {
	if p.fetcher == nil || p.pub == nil {
		return errors.New("price poller: fetcher and publisher are required")
	}
	return nil
}

// Start launches the poll goroutine; the first fetch runs immediately
func (p *Poller) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return nil
	}
	p.started = true

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})
	core.Go(func() { p.run(ctx) })
	p.log.Info("price_poller_started", zap.Duration("interval", p.interval), zap.Duration("timeout", p.timeout))
	return nil
}

// Stop halts polling and waits for an in-flight fetch to be abandoned
func (p *Poller) Stop() error {
	p.mu.Lock()
	if !p.started || p.cancel == nil {
		p.mu.Unlock()
		return nil
	}
	cancel, done := p.cancel, p.done
	p.cancel = nil
	p.mu.Unlock()

	cancel()
	<-done
	return nil
}

func (p *Poller) run(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	fetchCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	snap, err := p.fetcher.Fetch(fetchCtx)
	if ctx.Err() != nil {
		// Stopping; results after teardown are discarded
		return
	}
	if err != nil {
		p.pub.Push(event.EventPriceFetchFailed, err)
		return
	}
	p.pub.Push(event.EventPriceSnapshot, snap)
}
