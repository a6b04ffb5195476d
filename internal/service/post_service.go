// Package service holds the business rules between HTTP handlers and the
// repositories.
package service

import (
	"context"

	"leconn/internal/models"
	"leconn/internal/repository"
	"leconn/internal/validation"
)

type PostService struct {
	postRepo repository.PostRepository
}

type ListPostsInput struct {
	ViewerID uint
	UserID   *uint
	BeforeID *uint
	Limit    int
}

type DeletePostInput struct {
	UserID uint
	PostID uint
}

func NewPostService(postRepo repository.PostRepository) *PostService {
	return &PostService{postRepo: postRepo}
}

// CreatePost validates content and stores a post or reply. The returned post
// is in feed shape so it can be rendered and broadcast directly.
func (s *PostService) CreatePost(ctx context.Context, in models.CreatePostInput) (*models.FeedPost, error) {
	content, err := validation.NormalizePostContent(in.Content)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if in.ParentID != nil && *in.ParentID == 0 {
		return nil, models.NewValidationError("Invalid parent_id")
	}
	in.Content = content

	post, err := s.postRepo.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	return s.postRepo.GetFeedPost(ctx, post.ID, in.UserID)
}

func (s *PostService) ListPosts(ctx context.Context, in ListPostsInput) ([]models.FeedPost, error) {
	if in.Limit < 0 || in.Limit > models.MaxFeedLimit {
		return nil, models.NewValidationError("limit must be between 1 and 100")
	}
	return s.postRepo.List(ctx, models.FeedFilter{
		ViewerID: in.ViewerID,
		UserID:   in.UserID,
		BeforeID: in.BeforeID,
		Limit:    in.Limit,
	})
}

func (s *PostService) GetPost(ctx context.Context, postID, viewerID uint) (*models.FeedPost, error) {
	return s.postRepo.GetFeedPost(ctx, postID, viewerID)
}

// ListReplies returns direct replies of postID, newest first.
func (s *PostService) ListReplies(ctx context.Context, postID, viewerID uint, limit int) ([]models.FeedPost, error) {
	if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	return s.postRepo.List(ctx, models.FeedFilter{
		ViewerID: viewerID,
		ParentID: &postID,
		Limit:    limit,
	})
}

// DeletePost removes a post owned by the caller. A post owned by someone
// else reports NOT_FOUND so its existence is not leaked.
func (s *PostService) DeletePost(ctx context.Context, in DeletePostInput) (*models.Post, error) {
	return s.postRepo.DeleteOwned(ctx, in.PostID, in.UserID)
}
