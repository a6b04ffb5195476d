package feedclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
)

// wsURL converts the client's base URL to the websocket endpoint.
func (c *Client) wsURL(ticket string) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/api/ws"
	u.RawQuery = url.Values{"ticket": {ticket}}.Encode()
	return u.String(), nil
}

// Subscribe opens the realtime stream. Events are delivered on the returned
// channel until ctx is cancelled or the connection drops; the channel is
// then closed. Malformed messages are skipped.
func (c *Client) Subscribe(ctx context.Context) (<-chan Event, error) {
	ticket, err := c.IssueTicket(ctx)
	if err != nil {
		return nil, fmt.Errorf("issue ticket: %w", err)
	}
	target, err := c.wsURL(ticket)
	if err != nil {
		return nil, err
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, target, nil)
	if resp != nil && resp.Body != nil {
		defer func() { _ = resp.Body.Close() }()
	}
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", target, err)
	}

	events := make(chan Event, 64)
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		case <-done:
		}
		_ = conn.Close()
	}()
	go func() {
		defer close(events)
		defer close(done)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var ev Event
			if err := json.Unmarshal(data, &ev); err != nil || ev.Type == "" {
				continue
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return events, nil
}

// Follow applies every event from Subscribe to store until the stream ends.
func Follow(events <-chan Event, store *Store) {
	for ev := range events {
		_ = store.ApplyEvent(ev)
	}
}
