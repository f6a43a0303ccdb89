package migration

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/lixenwraith/spotglobe/core"
	"github.com/lixenwraith/spotglobe/engine"
	"github.com/lixenwraith/spotglobe/event"
	"github.com/lixenwraith/spotglobe/parameter"
	"github.com/lixenwraith/spotglobe/price"
	"github.com/lixenwraith/spotglobe/savings"
	"github.com/lixenwraith/spotglobe/status"
)

// ErrNoResult is recorded when a call outlives its timeout without reporting back
var ErrNoResult = errors.New("migration: no result before watchdog deadline")

// PriceView is the feed surface the orchestrator reads and clears
type PriceView interface {
	Snapshot() price.Snapshot
	ClearDrop()
}

// Config holds workflow tuning
type Config struct {
	FleetSize     int
	BaselinePrice float64
	CheapPrice    float64
	ResetDelay    time.Duration
	CallTimeout   time.Duration
	BlockedReason string
}

func DefaultConfig() Config {
	return Config{
		FleetSize:     parameter.FleetSize,
		BaselinePrice: parameter.BaselinePrice,
		CheapPrice:    parameter.CheapPriceThreshold,
		ResetDelay:    parameter.AutoResetDelay,
		CallTimeout:   parameter.MigrateTimeout,
		BlockedReason: parameter.BlockedReason,
	}
}

// Deps are the orchestrator collaborators
// Spawn runs the remote call off the loop, defaults to core.Go
type Deps struct {
	Timers    *engine.Timers
	Publisher event.Publisher
	Migrator  Migrator
	Source    SourcePolicy
	Prices    PriceView
	Savings   *savings.Accumulator
	Spawn     func(func())
	Logger    *zap.Logger
	Status    *status.Registry
}

// Result is the outcome of one remote call, delivered back on the loop
type Result struct {
	Seq     uint64
	Request Request
	Err     error
}

// State is the observable workflow state
type State struct {
	Phase  Phase
	Target string
	// Source is the inferred source of the in-flight or last migration
	Source        string
	TargetPrice   float64
	HasPrice      bool
	Eligible      bool
	BlockedReason string
	LastDelta     decimal.Decimal
}

type pendingCall struct {
	seq      uint64
	req      Request
	price    float64
	hasPrice bool
}

// Orchestrator is the migration workflow state machine
// Owned by the loop goroutine; the remote call runs on a spawned goroutine and
// reports back through the event queue
type Orchestrator struct {
	cfg Config
	d   Deps

	phase     Phase
	target    string
	source    string
	blocked   string
	lastDelta decimal.Decimal
	pending   pendingCall
	seq       uint64
	resetTask *engine.Task
	watchdog  *engine.Task

	ctx    context.Context
	cancel context.CancelFunc
	closed bool

	notifier engine.Notifier[State]
	log      *zap.Logger

	statSuccess *atomic.Int64
	statBlocked *atomic.Int64
	statPhase   *status.AtomicString
}

func NewOrchestrator(cfg Config, d Deps) *Orchestrator {
	if d.Spawn == nil {
		d.Spawn = core.Go
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	reg := status.OrNew(d.Status)
	ctx, cancel := context.WithCancel(context.Background())

	o := &Orchestrator{
		cfg:         cfg,
		d:           d,
		ctx:         ctx,
		cancel:      cancel,
		log:         d.Logger,
		statSuccess: reg.Ints.Get(status.KeyMigrations),
		statBlocked: reg.Ints.Get(status.KeyBlocked),
		statPhase:   reg.Strings.Get(status.KeyState),
	}
	o.statPhase.Store(o.phase.String())
	return o
}

func (o *Orchestrator) transition(to Phase) bool {
	if !CanTransition(o.phase, to) {
		o.log.Debug("migration_transition_rejected",
			zap.Stringer("from", o.phase), zap.Stringer("to", to))
		return false
	}
	o.phase = to
	o.statPhase.Store(to.String())
	return true
}

// SelectTarget sets the inspected region and clears any blocking message
// Ignored while a migration is validating
func (o *Orchestrator) SelectTarget(region string) bool {
	if o.closed || region == "" {
		return false
	}
	if !o.transition(PhaseTargetSelected) {
		return false
	}
	if o.resetTask != nil {
		o.resetTask.Cancel()
		o.resetTask = nil
	}
	o.target = region
	o.blocked = ""
	o.log.Info("migration_target_selected",
		zap.String("region", region), zap.Bool("eligible", o.State().Eligible))
	o.notify()
	return true
}

// Cancel returns to idle from TARGET_SELECTED or BLOCKED
func (o *Orchestrator) Cancel() bool {
	if o.closed || (o.phase != PhaseTargetSelected && o.phase != PhaseBlocked) {
		return false
	}
	o.transition(PhaseIdle)
	o.target = ""
	o.blocked = ""
	o.d.Prices.ClearDrop()
	o.notify()
	return true
}

// ConfirmMigrate starts the remote call for the selected target
// Valid only from TARGET_SELECTED; VALIDATING blocks overlapping calls
func (o *Orchestrator) ConfirmMigrate() bool {
	if o.closed || o.phase != PhaseTargetSelected {
		o.log.Debug("migration_confirm_ignored", zap.Stringer("phase", o.phase))
		return false
	}

	req := Request{
		SourceRegion: o.d.Source.Source(o.target),
		TargetRegion: o.target,
	}
	p, ok := o.d.Prices.Snapshot().Price(o.target)

	o.seq++
	o.pending = pendingCall{seq: o.seq, req: req, price: p, hasPrice: ok}
	o.source = req.SourceRegion
	o.transition(PhaseValidating)
	o.log.Info("migration_started",
		zap.Uint64("seq", o.seq),
		zap.String("source", req.SourceRegion),
		zap.String("target", req.TargetRegion))
	o.notify()

	seq := o.seq
	ctx, cancel := context.WithTimeout(o.ctx, o.cfg.CallTimeout)
	migrator, pub := o.d.Migrator, o.d.Publisher
	o.d.Spawn(func() {
		defer cancel()
		err := migrator.Migrate(ctx, req)
		pub.Push(event.EventMigrationResult, Result{Seq: seq, Request: req, Err: err})
	})

	// VALIDATING always ends, even if the result never makes it back
	o.watchdog = o.d.Timers.After(o.cfg.CallTimeout+parameter.MigrateWatchdogMargin, func() {
		o.watchdog = nil
		o.log.Warn("migration_watchdog_fired", zap.Uint64("seq", seq))
		o.complete(Result{Seq: seq, Request: req, Err: ErrNoResult})
	})
	return true
}

func (o *Orchestrator) complete(res Result) {
	if o.closed || o.phase != PhaseValidating || res.Seq != o.pending.seq {
		o.log.Debug("migration_result_stale", zap.Uint64("seq", res.Seq))
		return
	}
	if o.watchdog != nil {
		o.watchdog.Cancel()
		o.watchdog = nil
	}

	if res.Err != nil {
		o.transition(PhaseBlocked)
		o.blocked = o.cfg.BlockedReason
		o.statBlocked.Add(1)
		o.log.Warn("migration_blocked",
			zap.String("target", res.Request.TargetRegion), zap.Error(res.Err))
		o.notify()
		return
	}

	delta := decimal.Zero
	if o.pending.hasPrice {
		delta = savings.AnnualizedDelta(o.cfg.BaselinePrice, o.pending.price, o.cfg.FleetSize)
	} else {
		o.log.Warn("migration_target_unpriced", zap.String("target", res.Request.TargetRegion))
	}
	credited := o.d.Savings.Credit(res.Request.TargetRegion, delta)
	if !credited {
		delta = decimal.Zero
	}
	o.lastDelta = delta
	o.d.Source.Migrated(res.Request)
	o.d.Prices.ClearDrop()

	o.transition(PhaseSuccessResetting)
	o.statSuccess.Add(1)
	o.log.Info("migration_succeeded",
		zap.String("source", res.Request.SourceRegion),
		zap.String("target", res.Request.TargetRegion),
		zap.String("delta", delta.StringFixed(2)))

	o.resetTask = o.d.Timers.After(o.cfg.ResetDelay, func() {
		o.resetTask = nil
		if o.transition(PhaseIdle) {
			o.target = ""
			o.notify()
		}
	})
	o.notify()
}

// HandleEvent routes operator intents and remote results
func (o *Orchestrator) HandleEvent(ev event.Event) {
	switch ev.Type {
	case event.EventSelectRegion:
		if region, ok := ev.Payload.(string); ok {
			o.SelectTarget(region)
		}
	case event.EventConfirmMigrate:
		o.ConfirmMigrate()
	case event.EventCancel:
		o.Cancel()
	case event.EventMigrationResult:
		if res, ok := ev.Payload.(Result); ok {
			o.complete(res)
		}
	}
}

func (o *Orchestrator) EventTypes() []event.EventType {
	return []event.EventType{
		event.EventSelectRegion,
		event.EventConfirmMigrate,
		event.EventCancel,
		event.EventMigrationResult,
	}
}

// State returns the workflow state with the target's current price
func (o *Orchestrator) State() State {
	st := State{
		Phase:         o.phase,
		Target:        o.target,
		Source:        o.source,
		BlockedReason: o.blocked,
		LastDelta:     o.lastDelta,
	}
	if o.target != "" {
		st.TargetPrice, st.HasPrice = o.d.Prices.Snapshot().Price(o.target)
		st.Eligible = st.HasPrice && st.TargetPrice < o.cfg.CheapPrice
	}
	return st
}

// Subscribe observes state changes
func (o *Orchestrator) Subscribe(fn func(State)) func() {
	return o.notifier.Subscribe(fn)
}

func (o *Orchestrator) notify() {
	o.notifier.Notify(o.State())
}

// Close aborts an in-flight call and cancels the pending reset
// Later results and operator actions are ignored
func (o *Orchestrator) Close() {
	if o.closed {
		return
	}
	o.closed = true
	o.cancel()
	if o.resetTask != nil {
		o.resetTask.Cancel()
		o.resetTask = nil
	}
	if o.watchdog != nil {
		o.watchdog.Cancel()
		o.watchdog = nil
	}
}
