package service

import "context"

// Service defines the lifecycle interface for background producers
// Services own goroutines and connections: pollers, push-channel transports, audio
//
// Lifecycle:
//  1. Construction
//  2. Init(ctx) - acquire resources (dial, ping, open device)
//  3. Start() - launch background goroutines
//  4. [runtime operation, results pushed to the loop queue]
//  5. Stop() - halt goroutines, release resources
type Service interface {
	// Name returns the unique identifier for this service
	Name() string

	// Dependencies returns names of services that must Init before this one
	Dependencies() []string

	// Init acquires resources, ctx bounds the acquisition only
	Init(ctx context.Context) error

	// Start begins service operation, called after all services have initialized
	Start() error

	// Stop halts service operation and releases resources
	// Must be idempotent - safe to call multiple times
	Stop() error
}
