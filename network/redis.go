package network

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/lixenwraith/spotglobe/core"
	"github.com/lixenwraith/spotglobe/event"
	"github.com/lixenwraith/spotglobe/status"
)

// RedisSource forwards pub/sub messages carrying push frames to the loop
// Frames share the WebSocket wire shape and are parsed by the live board
type RedisSource struct {
	config *Config
	pub    event.Publisher
	log    *zap.Logger

	client  redis.UniversalClient
	ownsCli bool

	connected *atomic.Bool
	frames    *atomic.Int64

	mu      sync.Mutex
	sub     *redis.PubSub
	done    chan struct{}
	stopped atomic.Bool
}

// NewRedisSource creates a source; a nil client is built from cfg.RedisAddr at Init
func NewRedisSource(cfg *Config, client redis.UniversalClient, pub event.Publisher, log *zap.Logger, reg *status.Registry) *RedisSource {
	if log == nil {
		log = zap.NewNop()
	}
	reg = status.OrNew(reg)
	return &RedisSource{
		config:    cfg.withDefaults(),
		pub:       pub,
		log:       log,
		client:    client,
		connected: reg.Bools.Get(status.KeySourceConnected),
		frames:    reg.Ints.Get("network.frames"),
	}
}

func (s *RedisSource) Name() string           { return "push-redis" }
func (s *RedisSource) Dependencies() []string { return nil }

// Init pings the server and confirms the channel subscription
func (s *RedisSource) Init(ctx context.Context) error {
	if s.pub == nil {
		return errors.New("redis source: publisher is required")
	}
	if s.client == nil {
		if s.config.RedisAddr == "" {
			return errors.New("redis source: address is required")
		}
		s.client = redis.NewClient(&redis.Options{
			Addr:        s.config.RedisAddr,
			DialTimeout: s.config.DialTimeout,
		})
		s.ownsCli = true
	}

	ictx, cancel := context.WithTimeout(ctx, s.config.DialTimeout)
	defer cancel()

	if err := s.client.Ping(ictx).Err(); err != nil {
		s.closeClient()
		return fmt.Errorf("redis source: ping: %w", err)
	}

	sub := s.client.Subscribe(ictx, s.config.Channel)
	if _, err := sub.Receive(ictx); err != nil {
		_ = sub.Close()
		s.closeClient()
		return fmt.Errorf("redis source: subscribe %s: %w", s.config.Channel, err)
	}

	s.mu.Lock()
	s.sub = sub
	s.mu.Unlock()
	s.connected.Store(true)
	s.log.Info("push_channel_connected", zap.String("channel", s.config.Channel))
	return nil
}

// Start launches the message pump
func (s *RedisSource) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sub == nil {
		return errors.New("redis source: not initialized")
	}
	if s.done != nil {
		return nil
	}
	s.done = make(chan struct{})
	ch, done := s.sub.Channel(), s.done
	core.Go(func() { s.pump(ch, done) })
	return nil
}

func (s *RedisSource) pump(ch <-chan *redis.Message, done chan struct{}) {
	defer close(done)
	defer s.connected.Store(false)

	for msg := range ch {
		s.frames.Add(1)
		s.pub.Push(event.EventLiveFrame, []byte(msg.Payload))
	}
	s.log.Info("push_channel_closed", zap.String("channel", s.config.Channel))
}

// Stop releases the subscription and waits for the pump to drain
func (s *RedisSource) Stop() error {
	if !s.stopped.CompareAndSwap(false, true) {
		return nil
	}

	s.mu.Lock()
	sub, done := s.sub, s.done
	s.sub = nil
	s.mu.Unlock()

	var err error
	if sub != nil {
		err = sub.Close()
	}
	if done != nil {
		<-done
	}
	s.closeClient()
	s.connected.Store(false)
	return err
}

func (s *RedisSource) closeClient() {
	if s.ownsCli && s.client != nil {
		_ = s.client.Close()
		s.client = nil
	}
}
