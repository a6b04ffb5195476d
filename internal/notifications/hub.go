package notifications

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"leconn/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	maxConnsPerUser = 12
	maxTotalConns   = 10000
)

var (
	ErrServerFull = errors.New("server connection limit reached")
	ErrUserFull   = errors.New("user connection limit reached")
)

// Hub tracks the websocket clients of this instance, grouped by user.
type Hub struct {
	mu     sync.RWMutex
	byUser map[uint]map[*Client]struct{}
	total  int
	log    *slog.Logger
}

func NewHub() *Hub {
	return &Hub{
		byUser: make(map[uint]map[*Client]struct{}),
		log:    observability.Logger.With(slog.String("hub", "feed")),
	}
}

// Name labels the hub in metrics.
func (h *Hub) Name() string { return "feed" }

// Register admits a connection for userID within the per-user and global
// limits. conn may be nil in tests.
func (h *Hub) Register(userID uint, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.total >= maxTotalConns {
		return nil, ErrServerFull
	}
	set := h.byUser[userID]
	if len(set) >= maxConnsPerUser {
		return nil, ErrUserFull
	}
	if set == nil {
		set = make(map[*Client]struct{})
		h.byUser[userID] = set
	}

	c := newClient(h, conn, userID)
	set[c] = struct{}{}
	h.total++
	observability.WebSocketConnectionsTotal.Inc()
	h.log.Debug("websocket connected", slog.Uint64("user_id", uint64(userID)))
	return c, nil
}

// UnregisterClient forgets c and closes its queue. Unknown clients are ignored.
func (h *Hub) UnregisterClient(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set := h.byUser[c.UserID]
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.byUser, c.UserID)
	}
	h.total--
	close(c.Send)
	observability.WebSocketConnectionsTotal.Dec()
}

// ConnectionCount reports the number of registered clients.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.total
}

// Broadcast queues message for every connection of userID.
func (h *Hub) Broadcast(userID uint, message string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.byUser[userID] {
		c.TrySend([]byte(message))
	}
}

// BroadcastAll queues message for every connection.
func (h *Hub) BroadcastAll(message string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	data := []byte(message)
	for _, set := range h.byUser {
		for c := range set {
			c.TrySend(data)
		}
	}
}

// StartWiring delivers messages published through n on any instance to the
// clients of this hub.
func (h *Hub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartSubscriber(ctx, h.route)
}

func (h *Hub) route(channel, payload string) {
	if channel == BroadcastChannel {
		h.BroadcastAll(payload)
		return
	}
	if rest, ok := strings.CutPrefix(channel, userChannelPrefix); ok {
		if id, err := strconv.ParseUint(rest, 10, 64); err == nil {
			h.Broadcast(uint(id), payload)
			return
		}
	}
	h.log.Warn("dropping message from unexpected channel", slog.String("channel", channel))
}

// Shutdown closes every client queue; each WritePump then sends a close frame
// and ends its connection.
func (h *Hub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, set := range h.byUser {
		for c := range set {
			close(c.Send)
		}
	}
	observability.WebSocketConnectionsTotal.Sub(float64(h.total))
	h.byUser = make(map[uint]map[*Client]struct{})
	h.total = 0
	return nil
}
