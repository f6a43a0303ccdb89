package network

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/lixenwraith/spotglobe/event"
	"github.com/lixenwraith/spotglobe/live"
	"github.com/lixenwraith/spotglobe/status"
)

type recorder struct {
	mu     sync.Mutex
	events []event.Event
}

func (r *recorder) Push(t event.EventType, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event.Event{Type: t, Payload: payload})
}

func (r *recorder) snapshot() []event.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]event.Event(nil), r.events...)
}

// pushServer upgrades one connection, writes frames and holds it open until release
func pushServer(t *testing.T, frames [][]byte, release <-chan struct{}) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for _, f := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, f); err != nil {
				return
			}
		}
		go func() {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
		<-release
	}))
	t.Cleanup(srv.Close)
	return srv
}

func mustFrame(t *testing.T, source, target string, ms int64) []byte {
	t.Helper()
	b, err := live.EncodeFrame(source, target, ms)
	require.NoError(t, err)
	return b
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWebSocketSource_ForwardsFrames(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	frames := [][]byte{
		mustFrame(t, "US-East", "EU-West", 1000),
		[]byte(`{"type":`),
		mustFrame(t, "US-West", "AP-South", 2000),
	}
	srv := pushServer(t, frames, release)

	rec := &recorder{}
	reg := status.NewRegistry()
	cfg := DefaultConfig()
	cfg.URL = wsURL(srv)
	src := NewWebSocketSource(cfg, rec, zaptest.NewLogger(t), reg)

	require.NoError(t, src.Init(context.Background()))
	require.NoError(t, src.Start())
	assert.True(t, src.Connected())
	assert.True(t, reg.Bools.Get(status.KeySourceConnected).Load())

	require.Eventually(t, func() bool { return len(rec.snapshot()) == 3 }, 2*time.Second, 10*time.Millisecond)

	got := rec.snapshot()
	for i, ev := range got {
		assert.Equal(t, event.EventLiveFrame, ev.Type)
		assert.Equal(t, frames[i], ev.Payload)
	}

	require.NoError(t, src.Stop())
	assert.False(t, src.Connected())
	assert.NoError(t, src.Stop(), "second stop is a no-op")
}

func TestWebSocketSource_NoReconnectAfterServerClose(t *testing.T) {
	release := make(chan struct{})
	srv := pushServer(t, [][]byte{mustFrame(t, "US-East", "EU-West", 1)}, release)

	rec := &recorder{}
	cfg := DefaultConfig()
	cfg.URL = wsURL(srv)
	src := NewWebSocketSource(cfg, rec, zaptest.NewLogger(t), nil)
	require.NoError(t, src.Init(context.Background()))
	require.NoError(t, src.Start())

	close(release)
	require.Eventually(t, func() bool { return !src.Connected() }, 2*time.Second, 10*time.Millisecond)
	assert.Len(t, rec.snapshot(), 1)
	assert.NoError(t, src.Stop())
}

func TestWebSocketSource_InitErrors(t *testing.T) {
	t.Run("missing publisher", func(t *testing.T) {
		src := NewWebSocketSource(DefaultConfig(), nil, nil, nil)
		assert.Error(t, src.Init(context.Background()))
	})

	t.Run("dial failure", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		defer srv.Close()

		cfg := DefaultConfig()
		cfg.URL = wsURL(srv)
		cfg.DialTimeout = time.Second
		src := NewWebSocketSource(cfg, &recorder{}, zaptest.NewLogger(t), nil)
		assert.Error(t, src.Init(context.Background()))
		assert.Error(t, src.Start())
		assert.NoError(t, src.Stop())
	})
}

func TestRedisSource_InitFailsWithoutServer(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Kind = KindRedis
	cfg.RedisAddr = "127.0.0.1:1"
	cfg.DialTimeout = 200 * time.Millisecond

	src := NewRedisSource(cfg, nil, &recorder{}, zaptest.NewLogger(t), nil)
	assert.Equal(t, "push-redis", src.Name())
	assert.Error(t, src.Init(context.Background()))
	assert.Error(t, src.Start())
	assert.NoError(t, src.Stop())
}

func TestRedisSource_RequiresAddress(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RedisAddr = ""
	src := NewRedisSource(cfg, nil, &recorder{}, nil, nil)
	assert.Error(t, src.Init(context.Background()))
}

func TestConfig_Defaults(t *testing.T) {
	var cfg *Config
	d := cfg.withDefaults()
	assert.Equal(t, KindWebSocket, d.Kind)
	assert.Equal(t, "websocket", d.Kind.String())
	assert.Equal(t, "redis", KindRedis.String())
	assert.Equal(t, "none", KindNone.String())

	partial := (&Config{Kind: KindRedis, RedisAddr: "x:6379"}).withDefaults()
	assert.Equal(t, KindRedis, partial.Kind)
	assert.Positive(t, partial.DialTimeout)
	assert.NotEmpty(t, partial.Channel)
	assert.Greater(t, partial.ReadLimit, int64(0))
}
