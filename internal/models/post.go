package models

import "time"

// PostMaxLength is the maximum number of characters in a post body.
const PostMaxLength = 280

// Post is a short text message. The counter columns are maintained by the
// repositories inside the same transaction that changes the underlying rows.
type Post struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	User        *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	ParentID    *uint     `gorm:"index" json:"parent_id,omitempty"`
	Parent      *Post     `gorm:"foreignKey:ParentID;constraint:OnDelete:CASCADE" json:"-"`
	RootID      *uint     `gorm:"index" json:"root_id,omitempty"`
	Root        *Post     `gorm:"foreignKey:RootID;constraint:OnDelete:CASCADE" json:"-"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	LikeCount   int       `gorm:"not null;default:0" json:"like_count"`
	RepostCount int       `gorm:"not null;default:0" json:"repost_count"`
	ReplyCount  int       `gorm:"not null;default:0" json:"reply_count"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// FeedPost is a post as presented to a particular viewer: the author block,
// the aggregated like count and whether the viewer liked it.
type FeedPost struct {
	ID          uint        `json:"id"`
	Content     string      `json:"content"`
	ParentID    *uint       `json:"parent_id,omitempty"`
	RootID      *uint       `json:"root_id,omitempty"`
	LikeCount   int         `json:"like_count"`
	RepostCount int         `json:"repost_count"`
	ReplyCount  int         `json:"reply_count"`
	IsLiked     bool        `json:"is_liked"`
	IsReposted  bool        `json:"is_reposted"`
	User        UserSummary `json:"user"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// FeedFilter narrows a feed query.
type FeedFilter struct {
	// ViewerID is the caller; it only affects IsLiked/IsReposted.
	ViewerID uint
	// UserID restricts the feed to one author.
	UserID *uint
	// ParentID restricts the feed to direct replies of a post.
	ParentID *uint
	// BeforeID pages backwards from an earlier result.
	BeforeID *uint
	Limit    int
}

// Feed limits.
const (
	DefaultFeedLimit = 20
	MaxFeedLimit     = 100
)

// CreatePostInput is the payload for a new post or reply.
type CreatePostInput struct {
	UserID   uint
	Content  string
	ParentID *uint
}
