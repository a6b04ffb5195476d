package repository

import (
	"context"

	"leconn/internal/models"
	"leconn/internal/observability"

	"gorm.io/gorm"
)

// RepostRepository owns the reposts table and posts.repost_count.
type RepostRepository interface {
	SetReposted(ctx context.Context, userID, postID uint, reposted bool) (*models.RepostState, error)
}

type repostRepository struct {
	db      *gorm.DB
	reposts reaction
}

// NewRepostRepository creates a new repost repository
func NewRepostRepository(db *gorm.DB) RepostRepository {
	return &repostRepository{db: db, reposts: reaction{
		table:   "reposts",
		counter: "repost_count",
		row:     func(userID, postID uint) any { return &models.Repost{UserID: userID, PostID: postID} },
		log:     observability.StoreLog("reposts"),
	}}
}

func (r *repostRepository) SetReposted(ctx context.Context, userID, postID uint, reposted bool) (*models.RepostState, error) {
	res, err := r.reposts.apply(ctx, r.db, "SetReposted", userID, postID, func(*gorm.DB) (bool, error) {
		return reposted, nil
	})
	if err != nil {
		return nil, err
	}
	return &models.RepostState{PostID: postID, Reposted: res.on, Changed: res.changed, RepostCount: res.count}, nil
}
