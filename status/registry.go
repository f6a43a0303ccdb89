package status

import "sync/atomic"

// Metric keys shared by producers and the collector
const (
	KeyPolls           = "price.polls"
	KeyFetchFailures   = "price.fetch_failures"
	KeyDrops           = "price.drops"
	KeySnapshotRegions = "price.snapshot_regions"
	KeyMigrations      = "migration.success"
	KeyBlocked         = "migration.blocked"
	KeyState           = "migration.state"
	KeySavingsTotal    = "savings.total"
	KeyLiveEvents      = "live.events"
	KeyLiveActive      = "live.active"
	KeyMalformed       = "live.malformed_frames"
	KeyFrames          = "engine.frames"
	KeyEvents          = "engine.events"
	KeyQueueDropped    = "engine.queue_dropped"
	KeySourceConnected = "network.connected"
)

// Registry is the central metrics facade
// Components cache pointers during construction; hot paths write directly to atomics
type Registry struct {
	Bools   *MetricMap[atomic.Bool]
	Ints    *MetricMap[atomic.Int64]
	Floats  *MetricMap[AtomicFloat]
	Strings *MetricMap[AtomicString]
}

// NewRegistry creates an initialized Registry
func NewRegistry() *Registry {
	return &Registry{
		Bools:   NewMetricMap[atomic.Bool](),
		Ints:    NewMetricMap[atomic.Int64](),
		Floats:  NewMetricMap[AtomicFloat](),
		Strings: NewMetricMap[AtomicString](),
	}
}

// OrNew returns r, or a private registry when r is nil
// Lets components accept an optional registry without nil checks on every write
func OrNew(r *Registry) *Registry {
	if r == nil {
		return NewRegistry()
	}
	return r
}

// TotalCount returns total metrics across all types
func (r *Registry) TotalCount() int {
	return r.Bools.Count() + r.Ints.Count() + r.Floats.Count() + r.Strings.Count()
}
