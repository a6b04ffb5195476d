package service

import (
	"context"

	"leconn/internal/models"
	"leconn/internal/observability"
	"leconn/internal/repository"
)

// LikeService applies like intents from clients.
type LikeService struct {
	likeRepo repository.LikeRepository
}

func NewLikeService(likeRepo repository.LikeRepository) *LikeService {
	return &LikeService{likeRepo: likeRepo}
}

// Apply parses a raw client action and routes it to SetLike, or to ToggleLike
// when the action is absent.
func (s *LikeService) Apply(ctx context.Context, userID, postID uint, rawAction string) (*models.LikeState, error) {
	action, explicit, err := models.ParseLikeAction(rawAction)
	if err != nil {
		return nil, err
	}
	if !explicit {
		return s.ToggleLike(ctx, userID, postID)
	}
	return s.SetLike(ctx, userID, postID, action)
}

func (s *LikeService) SetLike(ctx context.Context, userID, postID uint, action models.LikeAction) (*models.LikeState, error) {
	state, err := s.likeRepo.SetLiked(ctx, userID, postID, action.Liked())
	if err != nil {
		return nil, err
	}
	observability.RecordReaction("like", string(action), state.Changed)
	return state, nil
}

// ToggleLike flips the caller's current like state. The decision happens
// inside the repository transaction.
func (s *LikeService) ToggleLike(ctx context.Context, userID, postID uint) (*models.LikeState, error) {
	state, err := s.likeRepo.Toggle(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	action := models.LikeActionUnlike
	if state.Liked {
		action = models.LikeActionLike
	}
	observability.RecordReaction("like", string(action), state.Changed)
	return state, nil
}

// RepostService applies repost intents.
type RepostService struct {
	repostRepo repository.RepostRepository
}

func NewRepostService(repostRepo repository.RepostRepository) *RepostService {
	return &RepostService{repostRepo: repostRepo}
}

func (s *RepostService) SetRepost(ctx context.Context, userID, postID uint, reposted bool) (*models.RepostState, error) {
	state, err := s.repostRepo.SetReposted(ctx, userID, postID, reposted)
	if err != nil {
		return nil, err
	}
	action := "unrepost"
	if reposted {
		action = "repost"
	}
	observability.RecordReaction("repost", action, state.Changed)
	return state, nil
}
