package notifications

import (
	"log/slog"
	"time"

	"leconn/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = time.Minute
	pingInterval = pongWait * 9 / 10
	maxInbound   = 4 << 10
	sendBuffer   = 256
)

var dropNotice = []byte(`{"type":"` + EventMessagesDropped + `","payload":{"reason":"buffer_full"}}`)

// Client is one websocket connection. The hub writes to Send; WritePump is
// the only goroutine that writes to Conn.
type Client struct {
	hub    *Hub
	Conn   *websocket.Conn
	Send   chan []byte
	UserID uint
}

func newClient(hub *Hub, conn *websocket.Conn, userID uint) *Client {
	return &Client{hub: hub, Conn: conn, UserID: userID, Send: make(chan []byte, sendBuffer)}
}

// ReadPump consumes inbound frames until the peer goes away. The feed is
// push-only, so frames are read for their control side effects and dropped.
func (c *Client) ReadPump() {
	reason := "closed"
	defer func() {
		c.hub.UnregisterClient(c)
		_ = c.Conn.Close()
		c.hub.log.Debug("websocket disconnected",
			slog.Uint64("user_id", uint64(c.UserID)), slog.String("reason", reason))
	}()

	c.Conn.SetReadLimit(maxInbound)
	extend := func(string) error { return c.Conn.SetReadDeadline(time.Now().Add(pongWait)) }
	_ = extend("")
	c.Conn.SetPongHandler(extend)

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				reason = err.Error()
			}
			return
		}
	}
}

// WritePump drains Send to the connection and pings the peer. A closed Send
// ends the connection with a close frame.
func (c *Client) WritePump() {
	ping := time.NewTicker(pingInterval)
	defer ping.Stop()
	defer c.Conn.Close()

	for {
		var (
			kind int
			data []byte
		)
		select {
		case msg, open := <-c.Send:
			kind, data = websocket.TextMessage, msg
			if !open {
				kind, data = websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "")
			}
		case <-ping.C:
			kind = websocket.PingMessage
		}

		_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.Conn.WriteMessage(kind, data); err != nil || kind == websocket.CloseMessage {
			return
		}
	}
}

// TrySend queues message without blocking. When the queue is full the
// message is lost and the client is told to refetch, if there is room for
// the notice.
func (c *Client) TrySend(message []byte) {
	defer func() {
		// Send was closed by Unregister or Shutdown.
		if recover() != nil {
			observability.WebSocketBackpressureDrops.WithLabelValues(c.hub.Name(), "closed").Inc()
		}
	}()

	select {
	case c.Send <- message:
		return
	default:
	}
	observability.WebSocketBackpressureDrops.WithLabelValues(c.hub.Name(), "full").Inc()
	select {
	case c.Send <- dropNotice:
	default:
	}
}
