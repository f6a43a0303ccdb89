package parameter

import "time"

// Live Event Channel
const (
	// LiveEventTTL is the lifetime of a pushed migration event overlay
	LiveEventTTL = 4000 * time.Millisecond

	// LiveMigrationEventType is the only frame type the client renders
	LiveMigrationEventType = "MIGRATION_EVENT"

	// LiveMaxFrameSize caps a single push frame
	LiveMaxFrameSize = 64 * 1024

	// LiveRedisChannel is the pub/sub channel name for the Redis push source
	LiveRedisChannel = "spotglobe:events"
)
