package notifications

import (
	"encoding/json"
	"fmt"
)

// Realtime event types delivered over /api/ws.
const (
	EventPostCreated         = "post_created"
	EventPostDeleted         = "post_deleted"
	EventPostReactionUpdated = "post_reaction_updated"
	EventMessagesDropped     = "messages_dropped"
)

// Event is the envelope written to websocket clients.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// PostReactionPayload carries the counters of a post after a like or repost.
type PostReactionPayload struct {
	PostID      uint `json:"post_id"`
	LikeCount   int  `json:"like_count"`
	RepostCount int  `json:"repost_count"`
	ReplyCount  int  `json:"reply_count"`
}

// PostDeletedPayload identifies a removed post.
type PostDeletedPayload struct {
	PostID uint `json:"post_id"`
	UserID uint `json:"user_id"`
}

// Encode renders an event as the JSON text frame sent to clients.
func Encode(eventType string, payload interface{}) (string, error) {
	b, err := json.Marshal(Event{Type: eventType, Payload: payload})
	if err != nil {
		return "", fmt.Errorf("marshal %s event: %w", eventType, err)
	}
	return string(b), nil
}
