package savings

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lixenwraith/spotglobe/engine"
	"github.com/lixenwraith/spotglobe/parameter"
	"github.com/lixenwraith/spotglobe/status"
)

// Entry is one credited migration
type Entry struct {
	Region string
	Delta  decimal.Decimal
	At     time.Time
}

// Accumulator is a display total of projected annual savings
// The total only ever increases; non-positive deltas are ignored
type Accumulator struct {
	total    decimal.Decimal
	history  []Entry
	clock    engine.Clock
	notifier engine.Notifier[decimal.Decimal]
	statFlt  *status.AtomicFloat
}

// NewAccumulator starts at initial, which must not be negative
func NewAccumulator(initial decimal.Decimal, clock engine.Clock, reg *status.Registry) *Accumulator {
	if initial.IsNegative() {
		initial = decimal.Zero
	}
	if clock == nil {
		clock = engine.SystemClock{}
	}
	a := &Accumulator{
		total:   initial,
		clock:   clock,
		statFlt: status.OrNew(reg).Floats.Get(status.KeySavingsTotal),
	}
	a.statFlt.Set(initial.InexactFloat64())
	return a
}

// Add credits delta, returns false when the total is unchanged
func (a *Accumulator) Add(delta decimal.Decimal) bool {
	return a.Credit("", delta)
}

// Credit is Add with the region recorded in history
func (a *Accumulator) Credit(region string, delta decimal.Decimal) bool {
	if !delta.IsPositive() {
		return false
	}
	a.total = a.total.Add(delta)
	a.history = append(a.history, Entry{Region: region, Delta: delta, At: a.clock.Now()})
	a.statFlt.Set(a.total.InexactFloat64())
	a.notifier.Notify(a.total)
	return true
}

// Total returns the running total as a float for display
func (a *Accumulator) Total() float64 {
	return a.total.InexactFloat64()
}

// Decimal returns the exact running total
func (a *Accumulator) Decimal() decimal.Decimal {
	return a.total
}

// History returns credited entries, oldest first
func (a *Accumulator) History() []Entry {
	out := make([]Entry, len(a.history))
	copy(out, a.history)
	return out
}

// Subscribe observes total changes
func (a *Accumulator) Subscribe(fn func(decimal.Decimal)) func() {
	return a.notifier.Subscribe(fn)
}

// AnnualizedDelta is (baseline - target) * fleet * hours per year
// Negative when target is dearer than baseline; callers credit only positive values
func AnnualizedDelta(baseline, target float64, fleet int) decimal.Decimal {
	return decimal.NewFromFloat(baseline).
		Sub(decimal.NewFromFloat(target)).
		Mul(decimal.NewFromInt(int64(fleet))).
		Mul(decimal.NewFromInt(parameter.HoursPerYear))
}

// FormatUSD renders d as dollars with thousands separators, e.g. $12,450.00
func FormatUSD(d decimal.Decimal) string {
	s := d.Abs().StringFixed(2)
	whole, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	if d.IsNegative() {
		b.WriteByte('-')
	}
	b.WriteByte('$')
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}
