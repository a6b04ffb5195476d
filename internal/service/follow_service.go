package service

import (
	"context"

	"leconn/internal/models"
	"leconn/internal/repository"
)

// FollowService provides follow/unfollow business logic.
type FollowService struct {
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
}

func NewFollowService(followRepo repository.FollowRepository, userRepo repository.UserRepository) *FollowService {
	return &FollowService{followRepo: followRepo, userRepo: userRepo}
}

func (s *FollowService) Follow(ctx context.Context, followerID, targetID uint) (*models.FollowState, error) {
	if followerID == targetID {
		return nil, models.NewValidationError("You cannot follow yourself")
	}
	if _, err := s.userRepo.GetByID(ctx, targetID); err != nil {
		return nil, err
	}
	return s.followRepo.SetFollowing(ctx, followerID, targetID, true)
}

// Unfollow is idempotent. Unfollowing a missing user still reports NOT_FOUND.
func (s *FollowService) Unfollow(ctx context.Context, followerID, targetID uint) (*models.FollowState, error) {
	if followerID == targetID {
		return nil, models.NewValidationError("You cannot unfollow yourself")
	}
	if _, err := s.userRepo.GetByID(ctx, targetID); err != nil {
		return nil, err
	}
	return s.followRepo.SetFollowing(ctx, followerID, targetID, false)
}
