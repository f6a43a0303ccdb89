package parameter

import "time"

// Remote Endpoints
const (
	// DefaultAPIBase is the orchestration service HTTP root
	DefaultAPIBase = "http://localhost:8080/api"

	// DefaultPushURL is the push channel endpoint
	DefaultPushURL = "ws://localhost:8080/api/ws"

	// DialTimeout bounds the push channel handshake
	DialTimeout = 5 * time.Second

	// UserAgent identifies the client to the orchestration service
	UserAgent = "spotglobe/1.0"
)
