package event

import (
	"time"
)

// EventType represents the type of dashboard event
type EventType int

const (
	// EventPriceSnapshot delivers a freshly fetched price snapshot
	// Trigger: price.Poller fetch success
	// Consumer: Feed, Orchestrator | Payload: price.Snapshot
	EventPriceSnapshot EventType = iota

	// EventPriceFetchFailed reports a failed poll, previous data is retained
	// Trigger: price.Poller fetch error | Payload: error
	EventPriceFetchFailed

	// EventLiveFrame carries one raw push-channel frame, parsed on the loop
	// Trigger: network.WebSocketSource, network.RedisSource
	// Consumer: live.Board | Payload: []byte
	EventLiveFrame

	// EventMigrationResult reports the outcome of an in-flight migrate call
	// Trigger: migration.Orchestrator remote call goroutine
	// Consumer: migration.Orchestrator | Payload: migration.Result
	EventMigrationResult

	// EventSelectRegion signals operator intent to inspect a region
	// Trigger: number key, marker click
	// Consumer: migration.Orchestrator | Payload: string (region)
	EventSelectRegion

	// EventConfirmMigrate signals operator confirm
	// Trigger: Enter or 'm' | Payload: nil
	EventConfirmMigrate

	// EventCancel signals operator cancel
	// Trigger: Esc or 'c' | Payload: nil
	EventCancel

	// EventResize signals terminal dimension change
	// Trigger: tcell resize | Payload: nil
	EventResize

	// EventQuit requests loop shutdown
	// Trigger: 'q', Ctrl+C | Payload: nil
	EventQuit

	eventTypeCount
)

var eventTypeNames = [eventTypeCount]string{
	EventPriceSnapshot:    "price_snapshot",
	EventPriceFetchFailed: "price_fetch_failed",
	EventLiveFrame:        "live_frame",
	EventMigrationResult:  "migration_result",
	EventSelectRegion:     "select_region",
	EventConfirmMigrate:   "confirm_migrate",
	EventCancel:           "cancel",
	EventResize:           "resize",
	EventQuit:             "quit",
}

func (t EventType) String() string {
	if t < 0 || t >= eventTypeCount {
		return "unknown"
	}
	return eventTypeNames[t]
}

// Event is a single unit of work for the serialized dispatcher
type Event struct {
	Type      EventType
	Payload   any
	Timestamp time.Time
}

// Publisher accepts events from producer goroutines
// engine.Loop implements it by stamping and enqueueing
type Publisher interface {
	Push(t EventType, payload any)
}
