package network

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/lixenwraith/spotglobe/core"
	"github.com/lixenwraith/spotglobe/event"
	"github.com/lixenwraith/spotglobe/parameter"
	"github.com/lixenwraith/spotglobe/status"
)

// WebSocketSource reads push frames from the orchestration service and forwards
// the raw bytes to the loop as EventLiveFrame
// A closed channel is not reopened; the view keeps polling prices without live events
type WebSocketSource struct {
	config *Config
	pub    event.Publisher
	log    *zap.Logger

	connected *atomic.Bool
	frames    *atomic.Int64

	mu      sync.Mutex
	conn    *websocket.Conn
	done    chan struct{}
	closing atomic.Bool
}

// NewWebSocketSource creates a source; nothing is dialed until Init
func NewWebSocketSource(cfg *Config, pub event.Publisher, log *zap.Logger, reg *status.Registry) *WebSocketSource {
	if log == nil {
		log = zap.NewNop()
	}
	reg = status.OrNew(reg)
	return &WebSocketSource{
		config:    cfg.withDefaults(),
		pub:       pub,
		log:       log,
		connected: reg.Bools.Get(status.KeySourceConnected),
		frames:    reg.Ints.Get("network.frames"),
	}
}

func (s *WebSocketSource) Name() string           { return "push-websocket" }
func (s *WebSocketSource) Dependencies() []string { return nil }

// Init performs the handshake, bounded by ctx and the dial timeout
func (s *WebSocketSource) Init(ctx context.Context) error {
	if s.pub == nil {
		return errors.New("websocket source: publisher is required")
	}
	if s.config.URL == "" {
		return errors.New("websocket source: url is required")
	}

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: s.config.DialTimeout,
	}
	header := http.Header{}
	header.Set("User-Agent", parameter.UserAgent)

	dctx, cancel := context.WithTimeout(ctx, s.config.DialTimeout)
	defer cancel()

	conn, resp, err := dialer.DialContext(dctx, s.config.URL, header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return fmt.Errorf("websocket source: dial %s: %w", s.config.URL, err)
	}
	conn.SetReadLimit(s.config.ReadLimit)

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
	s.connected.Store(true)
	s.log.Info("push_channel_connected", zap.String("url", s.config.URL))
	return nil
}

// Start launches the read goroutine
func (s *WebSocketSource) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return errors.New("websocket source: not initialized")
	}
	if s.done != nil {
		return nil
	}
	s.done = make(chan struct{})
	conn, done := s.conn, s.done
	core.Go(func() { s.readLoop(conn, done) })
	return nil
}

func (s *WebSocketSource) readLoop(conn *websocket.Conn, done chan struct{}) {
	defer close(done)
	defer s.connected.Store(false)

	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			if s.closing.Load() || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Info("push_channel_closed")
			} else {
				s.log.Warn("push_channel_lost", zap.Error(err))
			}
			return
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}
		s.frames.Add(1)
		s.pub.Push(event.EventLiveFrame, data)
	}
}

// Stop sends a close frame, closes the connection and waits for the reader
func (s *WebSocketSource) Stop() error {
	if !s.closing.CompareAndSwap(false, true) {
		return nil
	}

	s.mu.Lock()
	conn, done := s.conn, s.done
	s.conn = nil
	s.mu.Unlock()

	if conn == nil {
		return nil
	}

	deadline := time.Now().Add(s.config.WriteTimeout)
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	err := conn.Close()

	if done != nil {
		<-done
	}
	s.connected.Store(false)
	return err
}

// Connected reports whether the read loop is live
func (s *WebSocketSource) Connected() bool {
	return s.connected.Load()
}
