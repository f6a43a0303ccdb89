package parameter

import "time"

// Migration Workflow
const (
	// FleetSize is the assumed node count used to annualize savings
	FleetSize = 10

	// HoursPerYear converts an hourly delta to an annual one
	HoursPerYear = 24 * 365

	// BaselinePrice is the assumed hourly price of the current deployment (USD/hr)
	BaselinePrice = 0.05

	// AutoResetDelay is the dwell time in success state before returning to idle
	AutoResetDelay = 1500 * time.Millisecond

	// MigrateTimeout bounds the remote migration call including its dry run
	MigrateTimeout = 30 * time.Second

	// MigrateWatchdogMargin is added to MigrateTimeout before a silent call is treated as blocked
	MigrateWatchdogMargin = 2 * time.Second

	// PrimaryRegion and SecondaryRegion form the fixed deployment pair
	// Source of a migration is the member of the pair that is not the target
	PrimaryRegion   = "US-East"
	SecondaryRegion = "US-West"

	// SourcePolicy names the default source inference policy ("pair" or "tracked")
	SourcePolicy = "pair"

	// BlockedReason is shown when the remote dry run rejects a migration
	BlockedReason = "Migration blocked by dry run: projected egress cost exceeds spot savings. Cancel or pick another region."
)
