package parameter

import "time"

// Price Feed
const (
	// PollInterval is the cadence of price snapshot fetches
	PollInterval = 3000 * time.Millisecond

	// FetchTimeout bounds a single snapshot fetch, must stay below PollInterval
	FetchTimeout = 2500 * time.Millisecond

	// DropRatio is the fraction of the previous price below which a region qualifies as a drop
	// current < previous * DropRatio
	DropRatio = 0.8

	// DropAlertDuration is how long a drop alert stays visible without user action
	DropAlertDuration = 4000 * time.Millisecond

	// CheapPriceThreshold marks a region as a migration candidate (USD/hr)
	CheapPriceThreshold = 0.04

	// PriceKeyPrefix is the Redis key prefix used by the price oracle store
	PriceKeyPrefix = "price:"
)

// DropTieBreak names the default policy used when several regions drop in one tick
const DropTieBreak = "first"
