// Package notifications fans realtime feed events out to websocket clients,
// across instances through Redis pub/sub.
package notifications

import (
	"context"
	"fmt"
	"log/slog"

	"leconn/internal/observability"

	"github.com/redis/go-redis/v9"
	"github.com/sourcegraph/conc/panics"
)

const (
	// BroadcastChannel carries events for every connected user.
	BroadcastChannel  = "leconn:feed"
	userChannelPrefix = "leconn:user:"
)

// UserChannel is the pub/sub channel for events addressed to one user.
func UserChannel(userID uint) string {
	return fmt.Sprintf("%s%d", userChannelPrefix, userID)
}

// Notifier publishes encoded events to Redis. A Notifier without a client
// accepts and discards everything.
type Notifier struct {
	rdb *redis.Client
}

func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

func (n *Notifier) enabled() bool { return n != nil && n.rdb != nil }

// PublishUser sends payload to the instances holding userID's connections.
func (n *Notifier) PublishUser(ctx context.Context, userID uint, payload string) error {
	if !n.enabled() {
		return nil
	}
	return n.rdb.Publish(ctx, UserChannel(userID), payload).Err()
}

// PublishBroadcast sends payload to every instance.
func (n *Notifier) PublishBroadcast(ctx context.Context, payload string) error {
	if !n.enabled() {
		return nil
	}
	return n.rdb.Publish(ctx, BroadcastChannel, payload).Err()
}

// StartSubscriber listens on the broadcast and per-user channels and hands
// each message to onMessage until ctx ends. It returns once the subscription
// is confirmed, so nothing published afterwards is missed.
func (n *Notifier) StartSubscriber(ctx context.Context, onMessage func(channel, payload string)) error {
	if !n.enabled() {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, userChannelPrefix+"*", BroadcastChannel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %s: %w", BroadcastChannel, err)
	}

	messages := sub.Channel()
	go func() {
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				var pc panics.Catcher
				pc.Try(func() { onMessage(msg.Channel, msg.Payload) })
				if r := pc.Recovered(); r != nil {
					observability.Logger.Error("notification handler panicked",
						slog.String("channel", msg.Channel), slog.String("panic", r.String()))
				}
			}
		}
	}()
	return nil
}
