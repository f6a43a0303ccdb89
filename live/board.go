package live

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lixenwraith/spotglobe/engine"
	"github.com/lixenwraith/spotglobe/event"
	"github.com/lixenwraith/spotglobe/parameter"
	"github.com/lixenwraith/spotglobe/status"
)

// MigrationEvent is an externally reported migration shown until it expires
type MigrationEvent struct {
	ID         string
	Source     string
	Target     string
	ReceivedAt time.Time
	ExpiresAt  time.Time
}

type entry struct {
	ev   MigrationEvent
	task *engine.Task
}

// Board holds live migration events, each with its own expiry task
// Owned by the loop goroutine
type Board struct {
	ttl    time.Duration
	timers *engine.Timers
	events []entry
	closed bool

	notifier engine.Notifier[[]MigrationEvent]
	log      *zap.Logger

	statEvents    *atomic.Int64
	statActive    *atomic.Int64
	statMalformed *atomic.Int64
}

// NewBoard creates a board; ttl <= 0 takes the parameter default
func NewBoard(ttl time.Duration, timers *engine.Timers, log *zap.Logger, reg *status.Registry) *Board {
	if ttl <= 0 {
		ttl = parameter.LiveEventTTL
	}
	if log == nil {
		log = zap.NewNop()
	}
	reg = status.OrNew(reg)
	return &Board{
		ttl:           ttl,
		timers:        timers,
		log:           log,
		statEvents:    reg.Ints.Get(status.KeyLiveEvents),
		statActive:    reg.Ints.Get(status.KeyLiveActive),
		statMalformed: reg.Ints.Get(status.KeyMalformed),
	}
}

// Receive publishes a frame as a new event expiring ttl after now
// Concurrent events are never coalesced
func (b *Board) Receive(f Frame) (MigrationEvent, bool) {
	if b.closed {
		return MigrationEvent{}, false
	}
	now := b.timers.Now()
	ev := MigrationEvent{
		ID:         uuid.NewString(),
		Source:     f.Source,
		Target:     f.Target,
		ReceivedAt: now,
		ExpiresAt:  now.Add(b.ttl),
	}

	id := ev.ID
	task := b.timers.After(b.ttl, func() { b.expire(id) })
	b.events = append(b.events, entry{ev: ev, task: task})

	b.statEvents.Add(1)
	b.statActive.Store(int64(len(b.events)))
	b.log.Info("live_migration_event",
		zap.String("id", ev.ID),
		zap.String("source", ev.Source),
		zap.String("target", ev.Target))
	b.notify()
	return ev, true
}

// ReceiveRaw parses and receives one frame; bad frames are logged and dropped
func (b *Board) ReceiveRaw(data []byte) error {
	f, err := ParseFrame(data)
	if err != nil {
		if errors.Is(err, ErrMalformedFrame) {
			b.statMalformed.Add(1)
			b.log.Warn("live_frame_malformed", zap.Error(err), zap.Int("bytes", len(data)))
		} else {
			b.log.Debug("live_frame_ignored", zap.Error(err))
		}
		return err
	}
	b.Receive(f)
	return nil
}

func (b *Board) expire(id string) {
	for i, e := range b.events {
		if e.ev.ID == id {
			b.events = append(b.events[:i], b.events[i+1:]...)
			b.statActive.Store(int64(len(b.events)))
			b.notify()
			return
		}
	}
}

// Events returns the visible events, oldest first
func (b *Board) Events() []MigrationEvent {
	out := make([]MigrationEvent, len(b.events))
	for i, e := range b.events {
		out[i] = e.ev
	}
	return out
}

// Subscribe observes the visible event list
func (b *Board) Subscribe(fn func([]MigrationEvent)) func() {
	return b.notifier.Subscribe(fn)
}

func (b *Board) notify() {
	b.notifier.Notify(b.Events())
}

// Close cancels every pending expiry and rejects further frames
func (b *Board) Close() {
	if b.closed {
		return
	}
	b.closed = true
	for _, e := range b.events {
		e.task.Cancel()
	}
	b.events = nil
	b.statActive.Store(0)
}

// HandleEvent receives raw frames pushed by the network sources
func (b *Board) HandleEvent(ev event.Event) {
	if data, ok := ev.Payload.([]byte); ok {
		b.ReceiveRaw(data)
	}
}

func (b *Board) EventTypes() []event.EventType {
	return []event.EventType{event.EventLiveFrame}
}
