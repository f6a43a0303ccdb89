package price

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/lixenwraith/spotglobe/engine"
	"github.com/lixenwraith/spotglobe/event"
	"github.com/lixenwraith/spotglobe/parameter"
	"github.com/lixenwraith/spotglobe/status"
)

// FeedConfig tunes drop detection
type FeedConfig struct {
	DropRatio  float64
	TieBreak   TieBreak
	AlertTTL   time.Duration
	CheapPrice float64
}

// DefaultFeedConfig returns parameter defaults
func DefaultFeedConfig() FeedConfig {
	return FeedConfig{
		DropRatio:  parameter.DropRatio,
		TieBreak:   TieBreak(parameter.DropTieBreak),
		AlertTTL:   parameter.DropAlertDuration,
		CheapPrice: parameter.CheapPriceThreshold,
	}
}

// FeedState is the observable feed state
type FeedState struct {
	Snapshot Snapshot
	Drop     *DropEvent
	// Stale is set after a failed poll until the next success
	Stale bool
}

// Feed holds the latest snapshot and the active drop alert
// Owned by the loop goroutine; subscribers receive copies
type Feed struct {
	cfg    FeedConfig
	timers *engine.Timers

	snapshot Snapshot
	drop     *DropEvent
	dropTask *engine.Task
	stale    bool

	notifier engine.Notifier[FeedState]
	log      *zap.Logger

	statPolls    *atomic.Int64
	statFailures *atomic.Int64
	statDrops    *atomic.Int64
	statRegions  *atomic.Int64
}

// NewFeed creates an empty feed scheduling alert expiry on timers
func NewFeed(cfg FeedConfig, timers *engine.Timers, log *zap.Logger, reg *status.Registry) *Feed {
	if log == nil {
		log = zap.NewNop()
	}
	reg = status.OrNew(reg)
	return &Feed{
		cfg:          cfg,
		timers:       timers,
		log:          log,
		statPolls:    reg.Ints.Get(status.KeyPolls),
		statFailures: reg.Ints.Get(status.KeyFetchFailures),
		statDrops:    reg.Ints.Get(status.KeyDrops),
		statRegions:  reg.Ints.Get(status.KeySnapshotRegions),
	}
}

// Apply replaces the snapshot wholesale and runs drop detection against the previous one
// An empty snapshot is "no data yet" and changes nothing
func (f *Feed) Apply(s Snapshot) (DropEvent, bool) {
	f.statPolls.Add(1)
	if s.Empty() {
		f.log.Debug("price_snapshot_empty")
		return DropEvent{}, false
	}

	prev := f.snapshot
	f.snapshot = s
	f.stale = false
	f.statRegions.Store(int64(s.Len()))

	cands := DetectDrops(prev, s, f.cfg.DropRatio)
	drop, ok := PickDrop(cands, f.cfg.TieBreak)
	if ok {
		if len(cands) > 1 {
			f.log.Info("price_drop_tie",
				zap.Int("candidates", len(cands)),
				zap.String("policy", string(f.cfg.TieBreak)),
				zap.String("picked", drop.Region))
		}
		f.raise(drop)
	}

	f.notify()
	return drop, ok
}

func (f *Feed) raise(d DropEvent) {
	if f.dropTask != nil {
		f.dropTask.Cancel()
	}
	f.drop = &d
	f.statDrops.Add(1)
	f.log.Info("price_drop",
		zap.String("region", d.Region),
		zap.Float64("previous", d.PreviousPrice),
		zap.Float64("current", d.CurrentPrice))

	f.dropTask = f.timers.After(f.cfg.AlertTTL, func() {
		f.dropTask = nil
		f.drop = nil
		f.notify()
	})
}

// MarkFailed records a failed poll; the previous snapshot is retained
func (f *Feed) MarkFailed(err error) {
	f.statFailures.Add(1)
	f.log.Warn("price_fetch_failed", zap.Error(err))
	if !f.stale {
		f.stale = true
		f.notify()
	}
}

// Snapshot returns the latest non-empty snapshot
func (f *Feed) Snapshot() Snapshot {
	return f.snapshot
}

// LatestDrop returns the active drop alert
func (f *Feed) LatestDrop() (DropEvent, bool) {
	if f.drop == nil {
		return DropEvent{}, false
	}
	return *f.drop, true
}

// ClearDrop removes the active alert and cancels its expiry
func (f *Feed) ClearDrop() {
	if f.drop == nil {
		return
	}
	if f.dropTask != nil {
		f.dropTask.Cancel()
		f.dropTask = nil
	}
	f.drop = nil
	f.notify()
}

// IsCheap reports whether region is currently below the cheap threshold
func (f *Feed) IsCheap(region string) bool {
	return f.snapshot.IsCheap(region, f.cfg.CheapPrice)
}

// State returns the current observable state
func (f *Feed) State() FeedState {
	st := FeedState{Snapshot: f.snapshot, Stale: f.stale}
	if f.drop != nil {
		d := *f.drop
		st.Drop = &d
	}
	return st
}

// Subscribe registers an observer, returns unsubscribe
func (f *Feed) Subscribe(fn func(FeedState)) func() {
	return f.notifier.Subscribe(fn)
}

func (f *Feed) notify() {
	f.notifier.Notify(f.State())
}

// HandleEvent applies poller results on the loop
func (f *Feed) HandleEvent(ev event.Event) {
	switch ev.Type {
	case event.EventPriceSnapshot:
		if s, ok := ev.Payload.(Snapshot); ok {
			f.Apply(s)
		}
	case event.EventPriceFetchFailed:
		err, _ := ev.Payload.(error)
		f.MarkFailed(err)
	}
}

func (f *Feed) EventTypes() []event.EventType {
	return []event.EventType{event.EventPriceSnapshot, event.EventPriceFetchFailed}
}
