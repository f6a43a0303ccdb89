package parameter

import "time"

// Development Simulator
// Mirrors the behaviour of the orchestration backend closely enough to drive the client locally
const (
	SimulatorAddr          = ":8080"
	SimulatorTickInterval  = 3 * time.Second
	SimulatorPriceFloor    = 0.04
	SimulatorPriceSpread   = 0.02
	SimulatorDropChance    = 0.15
	SimulatorDropFactor    = 0.3
	SimulatorEgressGB      = 500.0
	SimulatorEgressPerGB   = 0.09
	SimulatorReplicas      = 50.0
	SimulatorHorizonHours  = 24.0
	SimulatorWriteDeadline = 5 * time.Second
)

// Simulator store
const (
	// SimulatorPriceTTL expires Redis price keys that stop being refreshed
	SimulatorPriceTTL = 10 * time.Second

	SimulatorFallbackPrice   = 0.05
	SimulatorFallbackLatency = 50
)
