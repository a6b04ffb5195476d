package models

import "time"

// Follow is a directed edge from follower to following.
type Follow struct {
	FollowerID  uint      `gorm:"primaryKey;autoIncrement:false" json:"follower_id"`
	FollowingID uint      `gorm:"primaryKey;autoIncrement:false;index" json:"following_id"`
	CreatedAt   time.Time `json:"created_at"`

	Follower  *User `gorm:"foreignKey:FollowerID;constraint:OnDelete:CASCADE" json:"-"`
	Following *User `gorm:"foreignKey:FollowingID;constraint:OnDelete:CASCADE" json:"-"`
}

// FollowState is returned after a follow or unfollow.
type FollowState struct {
	UserID         uint  `json:"user_id"`
	Following      bool  `json:"following"`
	FollowerCount  int64 `json:"follower_count"`
	FollowingCount int64 `json:"following_count"`
}

// Repost shares an existing post. A user holds at most one repost per post.
type Repost struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_reposts_user_post" json:"user_id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_reposts_user_post;index" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Post *Post `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
}

// RepostState is returned after a repost or un-repost.
type RepostState struct {
	PostID      uint `json:"post_id"`
	Reposted    bool `json:"reposted"`
	RepostCount int  `json:"repost_count"`
	Changed     bool `json:"-"`
}
