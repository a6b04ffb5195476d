package repository

import (
	"context"
	"log/slog"

	"leconn/internal/cache"
	"leconn/internal/models"
	"leconn/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FollowRepository manages the follow graph.
type FollowRepository interface {
	SetFollowing(ctx context.Context, followerID, followingID uint, following bool) (*models.FollowState, error)
	IsFollowing(ctx context.Context, followerID, followingID uint) (bool, error)
	Counts(ctx context.Context, userID uint) (followers, following int64, err error)
}

type followRepository struct {
	db  *gorm.DB
	log observability.StoreLog
}

// NewFollowRepository creates a new follow repository
func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db, log: observability.StoreLog("follows")}
}

func (r *followRepository) SetFollowing(ctx context.Context, followerID, followingID uint, following bool) (*models.FollowState, error) {
	db := r.db.WithContext(ctx)

	var res *gorm.DB
	if following {
		res = db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "follower_id"}, {Name: "following_id"}},
			DoNothing: true,
		}).Create(&models.Follow{FollowerID: followerID, FollowingID: followingID})
	} else {
		res = db.Where("follower_id = ? AND following_id = ?", followerID, followingID).Delete(&models.Follow{})
	}
	if res.Error != nil {
		return nil, translateError(res.Error, "User", followingID)
	}

	cache.ForgetProfiles(ctx, followerID, followingID)

	followers, followingCount, err := r.Counts(ctx, followingID)
	if err != nil {
		return nil, err
	}

	r.log.Changed(ctx, "follow",
		slog.Uint64("follower_id", uint64(followerID)),
		slog.Uint64("following_id", uint64(followingID)),
		slog.Bool("following", following))
	return &models.FollowState{
		UserID:         followingID,
		Following:      following,
		FollowerCount:  followers,
		FollowingCount: followingCount,
	}, nil
}

func (r *followRepository) IsFollowing(ctx context.Context, followerID, followingID uint) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&n).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return n > 0, nil
}

func (r *followRepository) Counts(ctx context.Context, userID uint) (int64, int64, error) {
	var followers, following int64
	db := r.db.WithContext(ctx)
	if err := db.Model(&models.Follow{}).Where("following_id = ?", userID).Count(&followers).Error; err != nil {
		return 0, 0, models.NewInternalError(err)
	}
	if err := db.Model(&models.Follow{}).Where("follower_id = ?", userID).Count(&following).Error; err != nil {
		return 0, 0, models.NewInternalError(err)
	}
	return followers, following, nil
}
