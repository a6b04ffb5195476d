package models

import (
	"strings"
	"time"
)

// Like records that a user likes a post. Row existence is the source of
// truth; Post.LikeCount caches the number of rows per post.
type Like struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	PostID    uint      `gorm:"primaryKey;autoIncrement:false;index" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Post *Post `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
}

// LikeAction is the intended final state sent by a client.
type LikeAction string

const (
	LikeActionLike   LikeAction = "like"
	LikeActionUnlike LikeAction = "unlike"
)

// ParseLikeAction validates a client supplied action. An empty string yields
// ok=false with no error, meaning "toggle".
func ParseLikeAction(raw string) (action LikeAction, ok bool, err error) {
	switch LikeAction(strings.ToLower(strings.TrimSpace(raw))) {
	case "":
		return "", false, nil
	case LikeActionLike:
		return LikeActionLike, true, nil
	case LikeActionUnlike:
		return LikeActionUnlike, true, nil
	default:
		return "", false, NewValidationError("action must be \"like\" or \"unlike\"")
	}
}

// Liked reports the row state this action asks for.
func (a LikeAction) Liked() bool {
	return a == LikeActionLike
}

// LikeState is the result of a like transaction.
type LikeState struct {
	PostID    uint `json:"post_id"`
	Liked     bool `json:"liked"`
	LikeCount int  `json:"like_count"`
	// Changed is false when the request was a no-op (already in that state).
	Changed bool `json:"-"`
}
