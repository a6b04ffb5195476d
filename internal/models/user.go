// Package models contains data structures for the application's domain models.
package models

import "time"

// User is an account that can author posts, like, repost and follow.
// Users are hard-deleted so that their posts, likes and follows cascade.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Username  string    `gorm:"uniqueIndex;not null" json:"username"`
	Email     string    `gorm:"uniqueIndex;not null" json:"-"`
	Password  string    `gorm:"not null" json:"-"`
	Image     string    `json:"image"`
	Banner    string    `json:"banner,omitempty"`
	Bio       string    `json:"bio"`
	Website   string    `json:"website"`
	Location  string    `json:"location"`
	IsAdmin   bool      `gorm:"default:false" json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserSummary is the author block embedded in feed items.
type UserSummary struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Image    string `json:"image"`
}

// Profile is the public view of a user returned by the profile endpoint.
type Profile struct {
	ID             uint      `json:"id"`
	Name           string    `json:"name"`
	Username       string    `json:"username"`
	Image          string    `json:"image"`
	Bio            string    `json:"bio"`
	Website        string    `json:"website"`
	Location       string    `json:"location"`
	CreatedAt      time.Time `json:"created_at"`
	FollowerCount  int64     `json:"follower_count"`
	FollowingCount int64     `json:"following_count"`
	PostCount      int64     `json:"post_count"`
}

// PrivateUser includes fields only the account owner may see.
type PrivateUser struct {
	Profile
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
}

// ProfileUpdate holds the optional fields a user may change on their profile.
type ProfileUpdate struct {
	Name     *string `json:"name"`
	Image    *string `json:"image"`
	Banner   *string `json:"banner"`
	Bio      *string `json:"bio"`
	Website  *string `json:"website"`
	Location *string `json:"location"`
}
