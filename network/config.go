package network

import (
	"time"

	"github.com/lixenwraith/spotglobe/parameter"
)

// Kind selects the push channel transport
type Kind uint8

const (
	KindNone Kind = iota
	KindWebSocket
	KindRedis
)

func (k Kind) String() string {
	switch k {
	case KindWebSocket:
		return "websocket"
	case KindRedis:
		return "redis"
	default:
		return "none"
	}
}

// Config holds push channel settings
type Config struct {
	Kind Kind

	// URL is the WebSocket endpoint for KindWebSocket
	URL string

	// RedisAddr and Channel address the pub/sub source for KindRedis
	RedisAddr string
	Channel   string

	DialTimeout  time.Duration
	WriteTimeout time.Duration

	// ReadLimit is the transport-level frame cap
	// Kept above the parser's limit so an oversized frame is dropped, not fatal to the connection
	ReadLimit int64
}

// DefaultConfig returns the WebSocket configuration against the local backend
func DefaultConfig() *Config {
	return &Config{
		Kind:         KindWebSocket,
		URL:          parameter.DefaultPushURL,
		Channel:      parameter.LiveRedisChannel,
		DialTimeout:  parameter.DialTimeout,
		WriteTimeout: time.Second,
		ReadLimit:    16 * parameter.LiveMaxFrameSize,
	}
}

func (c *Config) withDefaults() *Config {
	d := DefaultConfig()
	if c == nil {
		return d
	}
	out := *c
	if out.DialTimeout <= 0 {
		out.DialTimeout = d.DialTimeout
	}
	if out.WriteTimeout <= 0 {
		out.WriteTimeout = d.WriteTimeout
	}
	if out.ReadLimit <= 0 {
		out.ReadLimit = d.ReadLimit
	}
	if out.Channel == "" {
		out.Channel = d.Channel
	}
	return &out
}
