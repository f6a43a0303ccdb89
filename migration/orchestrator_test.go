package migration

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/lixenwraith/spotglobe/engine"
	"github.com/lixenwraith/spotglobe/event"
	"github.com/lixenwraith/spotglobe/live"
	"github.com/lixenwraith/spotglobe/parameter"
	"github.com/lixenwraith/spotglobe/price"
	"github.com/lixenwraith/spotglobe/savings"
	"github.com/lixenwraith/spotglobe/status"
)

var epoch = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type fakeMigrator struct {
	mu    sync.Mutex
	calls []Request
	err   error
}

func (f *fakeMigrator) Migrate(ctx context.Context, req Request) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	return f.err
}

type queuePublisher struct {
	events []event.Event
}

func (q *queuePublisher) Push(t event.EventType, payload any) {
	q.events = append(q.events, event.Event{Type: t, Payload: payload})
}

type harness struct {
	orch     *Orchestrator
	feed     *price.Feed
	savings  *savings.Accumulator
	timers   *engine.Timers
	migrator *fakeMigrator
	pub      *queuePublisher
	deferred []func()
	reg      *status.Registry
}

// newHarness runs remote calls only when runSpawned is called
func newHarness(t *testing.T, source SourcePolicy) *harness {
	t.Helper()
	h := &harness{
		timers:   engine.NewTimers(epoch),
		migrator: &fakeMigrator{},
		pub:      &queuePublisher{},
		reg:      status.NewRegistry(),
	}
	log := zaptest.NewLogger(t)
	h.feed = price.NewFeed(price.DefaultFeedConfig(), h.timers, log, h.reg)
	h.savings = savings.NewAccumulator(decimal.Zero, engine.NewMockClock(epoch), h.reg)
	if source == nil {
		source = PairComplement{Primary: "US-East", Secondary: "US-West"}
	}
	h.orch = NewOrchestrator(DefaultConfig(), Deps{
		Timers:    h.timers,
		Publisher: h.pub,
		Migrator:  h.migrator,
		Source:    source,
		Prices:    h.feed,
		Savings:   h.savings,
		Spawn:     func(fn func()) { h.deferred = append(h.deferred, fn) },
		Logger:    log,
		Status:    h.reg,
	})
	return h
}

// runSpawned executes pending remote calls and delivers their results
func (h *harness) runSpawned() {
	fns := h.deferred
	h.deferred = nil
	for _, fn := range fns {
		fn()
	}
	evs := h.pub.events
	h.pub.events = nil
	for _, ev := range evs {
		h.orch.HandleEvent(ev)
	}
}

func (h *harness) advance(d time.Duration) {
	h.timers.Advance(h.timers.Now().Add(d))
}

func TestScenarioSuccessfulMigration(t *testing.T) {
	h := newHarness(t, nil)
	h.feed.Apply(price.MustSnapshot("US-East", 0.05))
	drop, ok := h.feed.Apply(price.MustSnapshot("US-East", 0.038))
	require.True(t, ok)
	assert.Equal(t, price.DropEvent{Region: "US-East", PreviousPrice: 0.05, CurrentPrice: 0.038}, drop)

	require.True(t, h.orch.SelectTarget("US-East"))
	st := h.orch.State()
	assert.Equal(t, PhaseTargetSelected, st.Phase)
	assert.True(t, st.Eligible)

	require.True(t, h.orch.ConfirmMigrate())
	assert.Equal(t, PhaseValidating, h.orch.State().Phase)

	h.runSpawned()
	require.Len(t, h.migrator.calls, 1)
	assert.Equal(t, Request{SourceRegion: "US-West", TargetRegion: "US-East"}, h.migrator.calls[0])

	st = h.orch.State()
	assert.Equal(t, PhaseSuccessResetting, st.Phase)
	assert.True(t, h.savings.Decimal().Equal(decimal.RequireFromString("1051.2")))
	assert.True(t, st.LastDelta.Equal(decimal.RequireFromString("1051.2")))
	_, ok = h.feed.LatestDrop()
	assert.False(t, ok, "success clears the drop alert")

	h.advance(1499 * time.Millisecond)
	assert.Equal(t, PhaseSuccessResetting, h.orch.State().Phase)
	h.advance(time.Millisecond)
	st = h.orch.State()
	assert.Equal(t, PhaseIdle, st.Phase)
	assert.Empty(t, st.Target)
	assert.Equal(t, int64(1), h.reg.Ints.Get(status.KeyMigrations).Load())
	assert.Equal(t, "IDLE", h.reg.Strings.Get(status.KeyState).Load())
}

func TestScenarioBlockedMigration(t *testing.T) {
	h := newHarness(t, nil)
	h.migrator.err = ErrRejected
	h.feed.Apply(price.MustSnapshot("EU-West", 0.038))

	h.orch.SelectTarget("EU-West")
	h.orch.ConfirmMigrate()
	h.runSpawned()

	st := h.orch.State()
	assert.Equal(t, PhaseBlocked, st.Phase)
	assert.Equal(t, DefaultConfig().BlockedReason, st.BlockedReason)
	assert.Equal(t, "EU-West", st.Target)
	assert.True(t, h.savings.Decimal().IsZero())
	assert.Equal(t, 0, h.timers.Len(), "no automatic retry or reset")

	require.True(t, h.orch.Cancel())
	st = h.orch.State()
	assert.Equal(t, PhaseIdle, st.Phase)
	assert.Empty(t, st.BlockedReason)
}

func TestConfirmWhileValidatingIgnored(t *testing.T) {
	h := newHarness(t, nil)
	h.orch.SelectTarget("US-West")
	require.True(t, h.orch.ConfirmMigrate())

	assert.False(t, h.orch.ConfirmMigrate())
	assert.False(t, h.orch.ConfirmMigrate())
	assert.Len(t, h.deferred, 1, "only one remote call")

	h.runSpawned()
	assert.Len(t, h.migrator.calls, 1)
}

func TestSelectAndCancelWhileValidatingIgnored(t *testing.T) {
	h := newHarness(t, nil)
	h.orch.SelectTarget("US-West")
	h.orch.ConfirmMigrate()

	assert.False(t, h.orch.SelectTarget("EU-West"))
	assert.False(t, h.orch.Cancel())
	st := h.orch.State()
	assert.Equal(t, PhaseValidating, st.Phase)
	assert.Equal(t, "US-West", st.Target)
}

func TestCancelFromTargetSelected(t *testing.T) {
	h := newHarness(t, nil)
	h.feed.Apply(price.MustSnapshot("US-East", 0.05))
	h.feed.Apply(price.MustSnapshot("US-East", 0.01))

	h.orch.SelectTarget("US-East")
	require.True(t, h.orch.Cancel())

	st := h.orch.State()
	assert.Equal(t, PhaseIdle, st.Phase)
	assert.Empty(t, st.Target)
	_, ok := h.feed.LatestDrop()
	assert.False(t, ok)

	assert.False(t, h.orch.Cancel(), "cancel from IDLE is a no-op")
}

func TestConfirmRequiresTarget(t *testing.T) {
	h := newHarness(t, nil)
	assert.False(t, h.orch.ConfirmMigrate())
	assert.Empty(t, h.deferred)
}

func TestSelectNonCheapAllowed(t *testing.T) {
	h := newHarness(t, nil)
	h.feed.Apply(price.MustSnapshot("AP-South", 0.055))
	require.True(t, h.orch.SelectTarget("AP-South"))

	st := h.orch.State()
	assert.Equal(t, PhaseTargetSelected, st.Phase)
	assert.False(t, st.Eligible)
	assert.True(t, st.HasPrice)
}

func TestReselectDuringResetCancelsTimer(t *testing.T) {
	h := newHarness(t, nil)
	h.feed.Apply(price.MustSnapshot("US-East", 0.038, "EU-West", 0.039))
	h.orch.SelectTarget("US-East")
	h.orch.ConfirmMigrate()
	h.runSpawned()
	require.Equal(t, PhaseSuccessResetting, h.orch.State().Phase)

	require.True(t, h.orch.SelectTarget("EU-West"))
	h.advance(2 * time.Second)

	st := h.orch.State()
	assert.Equal(t, PhaseTargetSelected, st.Phase)
	assert.Equal(t, "EU-West", st.Target)
}

func TestNonCheapSuccessCreditsNothing(t *testing.T) {
	h := newHarness(t, nil)
	h.feed.Apply(price.MustSnapshot("AP-South", 0.055))
	h.orch.SelectTarget("AP-South")
	h.orch.ConfirmMigrate()
	h.runSpawned()

	st := h.orch.State()
	assert.Equal(t, PhaseSuccessResetting, st.Phase)
	assert.True(t, st.LastDelta.IsZero())
	assert.True(t, h.savings.Decimal().IsZero())
}

func TestUnpricedTargetCreditsNothing(t *testing.T) {
	h := newHarness(t, nil)
	h.orch.SelectTarget("Mars-Central")
	h.orch.ConfirmMigrate()
	h.runSpawned()

	assert.Equal(t, PhaseSuccessResetting, h.orch.State().Phase)
	assert.True(t, h.savings.Decimal().IsZero())
}

func TestStaleResultIgnored(t *testing.T) {
	h := newHarness(t, nil)
	h.orch.HandleEvent(event.Event{
		Type:    event.EventMigrationResult,
		Payload: Result{Seq: 99, Request: Request{TargetRegion: "US-East"}},
	})
	assert.Equal(t, PhaseIdle, h.orch.State().Phase)
}

func TestTrackedSourcePolicy(t *testing.T) {
	tracked := NewTrackedDeployment("US-East")
	h := newHarness(t, tracked)
	h.feed.Apply(price.MustSnapshot("EU-West", 0.03, "AP-South", 0.03))

	h.orch.SelectTarget("EU-West")
	h.orch.ConfirmMigrate()
	h.runSpawned()
	h.advance(2 * time.Second)

	h.orch.SelectTarget("AP-South")
	h.orch.ConfirmMigrate()
	h.runSpawned()

	require.Len(t, h.migrator.calls, 2)
	assert.Equal(t, "US-East", h.migrator.calls[0].SourceRegion)
	assert.Equal(t, "EU-West", h.migrator.calls[1].SourceRegion)
	assert.Equal(t, "AP-South", tracked.Current())
}

func TestHandleEventRoutesIntents(t *testing.T) {
	h := newHarness(t, nil)
	h.orch.HandleEvent(event.Event{Type: event.EventSelectRegion, Payload: "US-West"})
	assert.Equal(t, PhaseTargetSelected, h.orch.State().Phase)

	h.orch.HandleEvent(event.Event{Type: event.EventConfirmMigrate})
	assert.Equal(t, PhaseValidating, h.orch.State().Phase)

	h.runSpawned()
	assert.Equal(t, PhaseSuccessResetting, h.orch.State().Phase)
}

func TestSubscribeSeesTransitions(t *testing.T) {
	h := newHarness(t, nil)
	var phases []Phase
	h.orch.Subscribe(func(s State) { phases = append(phases, s.Phase) })

	h.orch.SelectTarget("US-West")
	h.orch.ConfirmMigrate()
	h.runSpawned()
	h.advance(1500 * time.Millisecond)

	assert.Equal(t, []Phase{PhaseTargetSelected, PhaseValidating, PhaseSuccessResetting, PhaseIdle}, phases)
}

func TestCloseStopsMutations(t *testing.T) {
	h := newHarness(t, nil)
	h.orch.SelectTarget("US-West")
	h.orch.ConfirmMigrate()

	h.orch.Close()
	h.runSpawned()
	assert.Equal(t, PhaseValidating, h.orch.State().Phase)
	assert.False(t, h.orch.SelectTarget("EU-West"))
}

func TestRealGoroutineSpawn(t *testing.T) {
	timers := engine.NewTimers(epoch)
	q := event.NewQueue()
	pub := publisherFunc(func(t event.EventType, p any) { q.Push(event.Event{Type: t, Payload: p}) })
	feed := price.NewFeed(price.DefaultFeedConfig(), timers, nil, nil)
	orch := NewOrchestrator(DefaultConfig(), Deps{
		Timers:    timers,
		Publisher: pub,
		Migrator:  &fakeMigrator{err: errors.New("dry run failed")},
		Source:    PairComplement{Primary: "US-East", Secondary: "US-West"},
		Prices:    feed,
		Savings:   savings.NewAccumulator(decimal.Zero, nil, nil),
	})

	orch.SelectTarget("EU-West")
	orch.ConfirmMigrate()

	require.Eventually(t, func() bool { return q.Len() == 1 }, 2*time.Second, time.Millisecond)
	for _, ev := range q.Consume() {
		orch.HandleEvent(ev)
	}
	assert.Equal(t, PhaseBlocked, orch.State().Phase)
}

type publisherFunc func(event.EventType, any)

func (f publisherFunc) Push(t event.EventType, p any) { f(t, p) }

func TestResultSurvivesLiveFrameFlood(t *testing.T) {
	clock := engine.NewMockClock(epoch)
	reg := status.NewRegistry()
	log := zaptest.NewLogger(t)
	loop := engine.NewLoop(engine.LoopConfig{Clock: clock, Status: reg, Logger: log})

	feed := price.NewFeed(price.DefaultFeedConfig(), loop.Timers(), log, reg)
	acc := savings.NewAccumulator(decimal.Zero, clock, reg)
	var spawned []func()
	orch := NewOrchestrator(DefaultConfig(), Deps{
		Timers:    loop.Timers(),
		Publisher: loop,
		Migrator:  &fakeMigrator{},
		Source:    PairComplement{Primary: "US-East", Secondary: "US-West"},
		Prices:    feed,
		Savings:   acc,
		Spawn:     func(fn func()) { spawned = append(spawned, fn) },
		Logger:    log,
		Status:    reg,
	})
	board := live.NewBoard(parameter.LiveEventTTL, loop.Timers(), log, reg)
	loop.RegisterHandler(feed)
	loop.RegisterHandler(orch)
	loop.RegisterHandler(board)

	loop.Push(event.EventPriceSnapshot, price.MustSnapshot("EU-West", 0.02))
	loop.Push(event.EventSelectRegion, "EU-West")
	loop.Push(event.EventConfirmMigrate, nil)
	require.NoError(t, loop.Step(clock.Advance(10*time.Millisecond)))
	require.Equal(t, PhaseValidating, orch.State().Phase)
	require.Len(t, spawned, 1)

	// Result is queued, then a frame burst larger than the ring lands before the next step
	spawned[0]()
	frame, err := live.EncodeFrame("US-East", "AP-South", epoch.UnixMilli())
	require.NoError(t, err)
	for i := 0; i < 2*parameter.EventQueueSize; i++ {
		loop.Push(event.EventLiveFrame, frame)
	}
	require.NoError(t, loop.Step(clock.Advance(10*time.Millisecond)))

	assert.Equal(t, PhaseSuccessResetting, orch.State().Phase)
	assert.Greater(t, acc.Total(), 0.0)
	assert.Equal(t, uint64(parameter.EventQueueSize), loop.Queue().Dropped())
	assert.NotEmpty(t, board.Events())
}

func TestWatchdogBlocksSilentCall(t *testing.T) {
	h := newHarness(t, nil)
	h.feed.Apply(price.MustSnapshot("US-East", 0.03))
	require.True(t, h.orch.SelectTarget("US-East"))
	require.True(t, h.orch.ConfirmMigrate())

	deadline := DefaultConfig().CallTimeout + parameter.MigrateWatchdogMargin
	h.advance(deadline - time.Millisecond)
	assert.Equal(t, PhaseValidating, h.orch.State().Phase)

	h.advance(time.Millisecond)
	st := h.orch.State()
	assert.Equal(t, PhaseBlocked, st.Phase)
	assert.Equal(t, parameter.BlockedReason, st.BlockedReason)
	assert.Equal(t, int64(1), h.reg.Ints.Get(status.KeyBlocked).Load())

	// The late result is stale and the operator can leave BLOCKED
	h.runSpawned()
	assert.Equal(t, PhaseBlocked, h.orch.State().Phase)
	assert.True(t, h.savings.Decimal().IsZero())
	assert.True(t, h.orch.Cancel())
}

func TestWatchdogDisarmedByResult(t *testing.T) {
	h := newHarness(t, nil)
	h.feed.Apply(price.MustSnapshot("US-East", 0.03))
	require.True(t, h.orch.SelectTarget("US-East"))
	require.True(t, h.orch.ConfirmMigrate())
	h.runSpawned()
	require.Equal(t, PhaseSuccessResetting, h.orch.State().Phase)

	h.advance(DefaultConfig().CallTimeout + parameter.MigrateWatchdogMargin)
	assert.Equal(t, PhaseIdle, h.orch.State().Phase)
	assert.Zero(t, h.reg.Ints.Get(status.KeyBlocked).Load())
}
