// Package feedclient is a Go client for the leconn API: HTTP calls, an
// optimistic post store, a like coalescer and a realtime event stream.
package feedclient

import (
	"encoding/json"
	"fmt"
	"time"
)

// Author is the user block embedded in a post.
type Author struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Image    string `json:"image"`
}

// Post mirrors the feed shape returned by the posts endpoints.
type Post struct {
	ID          uint      `json:"id"`
	Content     string    `json:"content"`
	ParentID    *uint     `json:"parent_id,omitempty"`
	RootID      *uint     `json:"root_id,omitempty"`
	LikeCount   int       `json:"like_count"`
	RepostCount int       `json:"repost_count"`
	ReplyCount  int       `json:"reply_count"`
	IsLiked     bool      `json:"is_liked"`
	IsReposted  bool      `json:"is_reposted"`
	User        Author    `json:"user"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// LikeState is the server's answer to a like call.
type LikeState struct {
	PostID    uint `json:"post_id"`
	Liked     bool `json:"liked"`
	LikeCount int  `json:"like_count"`
}

// Event is a realtime message. Payload is decoded by the caller according
// to Type.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Event types sent by the server.
const (
	EventPostCreated         = "post_created"
	EventPostDeleted         = "post_deleted"
	EventPostReactionUpdated = "post_reaction_updated"
)

// ReactionCounts is the payload of EventPostReactionUpdated.
type ReactionCounts struct {
	PostID      uint `json:"post_id"`
	LikeCount   int  `json:"like_count"`
	RepostCount int  `json:"repost_count"`
	ReplyCount  int  `json:"reply_count"`
}

// APIError is a non-2xx response.
type APIError struct {
	Status  int    `json:"-"`
	Message string `json:"error"`
	Code    string `json:"code"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}
