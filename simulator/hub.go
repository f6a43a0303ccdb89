package simulator

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/lixenwraith/spotglobe/core"
	"github.com/lixenwraith/spotglobe/live"
	"github.com/lixenwraith/spotglobe/parameter"
)

// Relay republishes push frames on a Redis channel
type Relay interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// Hub fans push frames out to every connected WebSocket client
type Hub struct {
	upgrader websocket.Upgrader
	log      *zap.Logger
	relay    Relay
	channel  string

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
	closed  bool
}

// NewHub creates a hub; relay may be nil
func NewHub(relay Relay, log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		log:     log,
		relay:   relay,
		channel: parameter.LiveRedisChannel,
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// Handle upgrades the request and keeps the connection until the client leaves
func (h *Hub) Handle(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("ws_upgrade_failed", zap.Error(err))
		return
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[conn] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.log.Info("ws_client_connected", zap.Int("clients", n))

	// Reads only detect the close; clients never send
	core.Go(func() {
		defer h.remove(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	_, ok := h.clients[conn]
	delete(h.clients, conn)
	h.mu.Unlock()
	if ok {
		conn.Close()
		h.log.Info("ws_client_disconnected")
	}
}

// Broadcast writes data to every client, dropping the ones that fail
// Returns the number of clients written
func (h *Hub) Broadcast(data []byte) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	sent := 0
	deadline := time.Now().Add(parameter.SimulatorWriteDeadline)
	for conn := range h.clients {
		_ = conn.SetWriteDeadline(deadline)
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.log.Warn("ws_write_failed", zap.Error(err))
			conn.Close()
			delete(h.clients, conn)
			continue
		}
		sent++
	}
	return sent
}

// BroadcastMigration announces an accepted migration on every push transport
func (h *Hub) BroadcastMigration(ctx context.Context, source, target string) error {
	data, err := live.EncodeFrame(source, target, time.Now().UnixMilli())
	if err != nil {
		return err
	}
	n := h.Broadcast(data)
	h.log.Info("migration_event_broadcast", zap.String("source", source), zap.String("target", target), zap.Int("clients", n))

	if h.relay != nil {
		if err := h.relay.Publish(ctx, h.channel, data).Err(); err != nil {
			return err
		}
	}
	return nil
}

// Count returns connected clients
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client and refuses new ones
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for conn := range h.clients {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(time.Second))
		conn.Close()
		delete(h.clients, conn)
	}
}
