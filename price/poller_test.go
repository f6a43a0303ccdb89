package price

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/lixenwraith/spotglobe/event"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []event.Event
}

func (r *recordingPublisher) Push(t event.EventType, payload any) {
	r.mu.Lock()
	r.events = append(r.events, event.Event{Type: t, Payload: payload})
	r.mu.Unlock()
}

func (r *recordingPublisher) snapshot() []event.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]event.Event(nil), r.events...)
}

type scriptedFetcher struct {
	calls    atomic.Int32
	inFlight atomic.Int32
	maxSeen  atomic.Int32
	delay    time.Duration
	fail     bool
}

func (s *scriptedFetcher) Fetch(ctx context.Context) (Snapshot, error) {
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	if n > s.maxSeen.Load() {
		s.maxSeen.Store(n)
	}
	s.calls.Add(1)

	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return Snapshot{}, ctx.Err()
		}
	}
	if s.fail {
		return Snapshot{}, errors.New("backend unavailable")
	}
	return MustSnapshot("US-East", 0.05), nil
}

func TestPollerFetchesImmediatelyAndOnTick(t *testing.T) {
	fetcher := &scriptedFetcher{}
	pub := &recordingPublisher{}
	p := NewPoller(fetcher, pub, 20*time.Millisecond, 10*time.Millisecond, zaptest.NewLogger(t))

	require.NoError(t, p.Init(context.Background()))
	require.NoError(t, p.Start())

	require.Eventually(t, func() bool { return len(pub.snapshot()) >= 3 }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, p.Stop())
	require.NoError(t, p.Stop())

	for _, ev := range pub.snapshot() {
		assert.Equal(t, event.EventPriceSnapshot, ev.Type)
	}
}

func TestPollerReportsFailures(t *testing.T) {
	pub := &recordingPublisher{}
	p := NewPoller(&scriptedFetcher{fail: true}, pub, time.Hour, time.Second, nil)
	require.NoError(t, p.Start())
	require.Eventually(t, func() bool { return len(pub.snapshot()) == 1 }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, p.Stop())

	ev := pub.snapshot()[0]
	assert.Equal(t, event.EventPriceFetchFailed, ev.Type)
	assert.EqualError(t, ev.Payload.(error), "backend unavailable")
}

func TestPollerSingleFetchInFlight(t *testing.T) {
	fetcher := &scriptedFetcher{delay: 30 * time.Millisecond}
	pub := &recordingPublisher{}
	p := NewPoller(fetcher, pub, 5*time.Millisecond, 5*time.Millisecond, nil)

	require.NoError(t, p.Start())
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, p.Stop())

	assert.Equal(t, int32(1), fetcher.maxSeen.Load())
}

func TestPollerStopDiscardsInFlight(t *testing.T) {
	fetcher := &scriptedFetcher{delay: time.Second}
	pub := &recordingPublisher{}
	p := NewPoller(fetcher, pub, time.Hour, 2*time.Second, nil)

	require.NoError(t, p.Start())
	require.Eventually(t, func() bool { return fetcher.calls.Load() == 1 }, time.Second, time.Millisecond)
	require.NoError(t, p.Stop())

	assert.Empty(t, pub.snapshot())
}

func TestPollerInitRequiresCollaborators(t *testing.T) {
	assert.Error(t, NewPoller(nil, nil, 0, 0, nil).Init(context.Background()))
}
