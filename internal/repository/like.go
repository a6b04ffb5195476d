package repository

import (
	"context"

	"leconn/internal/models"
	"leconn/internal/observability"

	"gorm.io/gorm"
)

// LikeRepository owns the likes table and the posts.like_count cache.
type LikeRepository interface {
	// SetLiked moves the (user, post) pair to the requested state in one
	// transaction and adjusts like_count only when a row was inserted or
	// deleted.
	SetLiked(ctx context.Context, userID, postID uint, liked bool) (*models.LikeState, error)
	// Toggle flips the current state inside the same transaction.
	Toggle(ctx context.Context, userID, postID uint) (*models.LikeState, error)
	IsLiked(ctx context.Context, userID, postID uint) (bool, error)
	LikedPostIDs(ctx context.Context, userID uint, postIDs []uint) ([]uint, error)
}

type likeRepository struct {
	db    *gorm.DB
	likes reaction
}

// NewLikeRepository creates a new like repository
func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &likeRepository{db: db, likes: reaction{
		table:   "likes",
		counter: "like_count",
		row:     func(userID, postID uint) any { return &models.Like{UserID: userID, PostID: postID} },
		log:     observability.StoreLog("likes"),
	}}
}

func (r *likeRepository) SetLiked(ctx context.Context, userID, postID uint, liked bool) (*models.LikeState, error) {
	return r.run(ctx, "SetLiked", userID, postID, func(*gorm.DB) (bool, error) {
		return liked, nil
	})
}

func (r *likeRepository) Toggle(ctx context.Context, userID, postID uint) (*models.LikeState, error) {
	return r.run(ctx, "Toggle", userID, postID, func(tx *gorm.DB) (bool, error) {
		exists, err := r.likes.exists(tx, userID, postID)
		return !exists, err
	})
}

func (r *likeRepository) run(ctx context.Context, method string, userID, postID uint, target func(*gorm.DB) (bool, error)) (*models.LikeState, error) {
	res, err := r.likes.apply(ctx, r.db, method, userID, postID, target)
	if err != nil {
		return nil, err
	}
	return &models.LikeState{PostID: postID, Liked: res.on, Changed: res.changed, LikeCount: res.count}, nil
}

func (r *likeRepository) IsLiked(ctx context.Context, userID, postID uint) (bool, error) {
	liked, err := r.likes.exists(r.db.WithContext(ctx), userID, postID)
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return liked, nil
}

func (r *likeRepository) LikedPostIDs(ctx context.Context, userID uint, postIDs []uint) ([]uint, error) {
	if userID == 0 || len(postIDs) == 0 {
		return []uint{}, nil
	}
	var liked []uint
	if err := r.db.WithContext(ctx).
		Model(&models.Like{}).
		Where("user_id = ? AND post_id IN ?", userID, postIDs).
		Pluck("post_id", &liked).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return liked, nil
}
