package parameter

import "time"

// Dashboard
const (
	// MarkerPulsePeriod is one full brightness cycle of a cheap marker
	MarkerPulsePeriod = 1200 * time.Millisecond

	// MaxRegionShortcuts is the number of regions reachable by digit keys
	MaxRegionShortcuts = 9

	// MaxLiveLines caps the live event list in the HUD
	MaxLiveLines = 6

	// PriceSourceHTTP and PriceSourceRedis name the snapshot fetchers
	PriceSourceHTTP  = "http"
	PriceSourceRedis = "redis"
)
