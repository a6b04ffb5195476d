package repository

import (
	"context"

	"leconn/internal/models"

	"gorm.io/gorm"
)

// Stats is a snapshot of table sizes plus the number of posts whose cached
// counters disagree with their rows.
type Stats struct {
	Users        int64 `json:"users"`
	Posts        int64 `json:"posts"`
	Likes        int64 `json:"likes"`
	Reposts      int64 `json:"reposts"`
	Follows      int64 `json:"follows"`
	DriftedPosts int64 `json:"drifted_posts"`
}

const driftedPostsSQL = `
SELECT COUNT(*) FROM posts
WHERE like_count <> (SELECT COUNT(*) FROM likes WHERE likes.post_id = posts.id)
	OR repost_count <> (SELECT COUNT(*) FROM reposts WHERE reposts.post_id = posts.id)
	OR reply_count <> (SELECT COUNT(*) FROM posts AS replies WHERE replies.parent_id = posts.id)`

// CollectStats counts rows in every table.
func CollectStats(ctx context.Context, db *gorm.DB) (*Stats, error) {
	db = db.WithContext(ctx)
	s := &Stats{}
	counts := []struct {
		model interface{}
		dest  *int64
	}{
		{&models.User{}, &s.Users},
		{&models.Post{}, &s.Posts},
		{&models.Like{}, &s.Likes},
		{&models.Repost{}, &s.Reposts},
		{&models.Follow{}, &s.Follows},
	}
	for _, c := range counts {
		if err := db.Model(c.model).Count(c.dest).Error; err != nil {
			return nil, models.NewInternalError(err)
		}
	}
	if err := db.Raw(driftedPostsSQL).Scan(&s.DriftedPosts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return s, nil
}
