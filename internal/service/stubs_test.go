package service

import (
	"context"
	"errors"
	"testing"

	"leconn/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn          func(context.Context, models.CreatePostInput) (*models.Post, error)
	getByIDFn         func(context.Context, uint) (*models.Post, error)
	getFeedPostFn     func(context.Context, uint, uint) (*models.FeedPost, error)
	listFn            func(context.Context, models.FeedFilter) ([]models.FeedPost, error)
	deleteOwnedFn     func(context.Context, uint, uint) (*models.Post, error)
	recountCountersFn func(context.Context) (int64, error)
}

func (s *postRepoStub) Create(ctx context.Context, in models.CreatePostInput) (*models.Post, error) {
	return s.createFn(ctx, in)
}
func (s *postRepoStub) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id)
}
func (s *postRepoStub) GetFeedPost(ctx context.Context, id, viewerID uint) (*models.FeedPost, error) {
	return s.getFeedPostFn(ctx, id, viewerID)
}
func (s *postRepoStub) List(ctx context.Context, filter models.FeedFilter) ([]models.FeedPost, error) {
	return s.listFn(ctx, filter)
}
func (s *postRepoStub) DeleteOwned(ctx context.Context, postID, userID uint) (*models.Post, error) {
	return s.deleteOwnedFn(ctx, postID, userID)
}
func (s *postRepoStub) RecountCounters(ctx context.Context) (int64, error) {
	return s.recountCountersFn(ctx)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn: func(_ context.Context, in models.CreatePostInput) (*models.Post, error) {
			return &models.Post{ID: 1, UserID: in.UserID, Content: in.Content, ParentID: in.ParentID}, nil
		},
		getByIDFn: func(_ context.Context, id uint) (*models.Post, error) { return &models.Post{ID: id}, nil },
		getFeedPostFn: func(_ context.Context, id, _ uint) (*models.FeedPost, error) {
			return &models.FeedPost{ID: id}, nil
		},
		listFn:            func(_ context.Context, _ models.FeedFilter) ([]models.FeedPost, error) { return nil, nil },
		deleteOwnedFn:     func(_ context.Context, id, _ uint) (*models.Post, error) { return &models.Post{ID: id}, nil },
		recountCountersFn: func(_ context.Context) (int64, error) { return 0, nil },
	}
}

// likeRepoStub is a stub for repository.LikeRepository.
type likeRepoStub struct {
	setLikedFn     func(context.Context, uint, uint, bool) (*models.LikeState, error)
	toggleFn       func(context.Context, uint, uint) (*models.LikeState, error)
	isLikedFn      func(context.Context, uint, uint) (bool, error)
	likedPostIDsFn func(context.Context, uint, []uint) ([]uint, error)
}

func (s *likeRepoStub) SetLiked(ctx context.Context, userID, postID uint, liked bool) (*models.LikeState, error) {
	return s.setLikedFn(ctx, userID, postID, liked)
}
func (s *likeRepoStub) Toggle(ctx context.Context, userID, postID uint) (*models.LikeState, error) {
	return s.toggleFn(ctx, userID, postID)
}
func (s *likeRepoStub) IsLiked(ctx context.Context, userID, postID uint) (bool, error) {
	return s.isLikedFn(ctx, userID, postID)
}
func (s *likeRepoStub) LikedPostIDs(ctx context.Context, userID uint, postIDs []uint) ([]uint, error) {
	return s.likedPostIDsFn(ctx, userID, postIDs)
}

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn       func(context.Context, uint) (*models.User, error)
	getByEmailFn    func(context.Context, string) (*models.User, error)
	getByUsernameFn func(context.Context, string) (*models.User, error)
	getProfileFn    func(context.Context, uint) (*models.Profile, error)
	createFn        func(context.Context, *models.User) error
	updateProfileFn func(context.Context, uint, models.ProfileUpdate) (*models.User, error)
	deleteFn        func(context.Context, uint) error
	listFn          func(context.Context, int, int) ([]models.User, error)
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) GetProfile(ctx context.Context, id uint) (*models.Profile, error) {
	return s.getProfileFn(ctx, id)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) UpdateProfile(ctx context.Context, id uint, update models.ProfileUpdate) (*models.User, error) {
	return s.updateProfileFn(ctx, id, update)
}
func (s *userRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *userRepoStub) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.listFn(ctx, limit, offset)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn:       func(_ context.Context, id uint) (*models.User, error) { return &models.User{ID: id}, nil },
		getByEmailFn:    func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		getByUsernameFn: func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		getProfileFn:    func(_ context.Context, id uint) (*models.Profile, error) { return &models.Profile{ID: id}, nil },
		createFn:        func(_ context.Context, u *models.User) error { u.ID = 1; return nil },
		updateProfileFn: func(_ context.Context, id uint, _ models.ProfileUpdate) (*models.User, error) {
			return &models.User{ID: id}, nil
		},
		deleteFn: func(_ context.Context, _ uint) error { return nil },
		listFn:   func(_ context.Context, _, _ int) ([]models.User, error) { return nil, nil },
	}
}

// followRepoStub is a stub for repository.FollowRepository.
type followRepoStub struct {
	setFollowingFn func(context.Context, uint, uint, bool) (*models.FollowState, error)
}

func (s *followRepoStub) SetFollowing(ctx context.Context, followerID, followingID uint, following bool) (*models.FollowState, error) {
	return s.setFollowingFn(ctx, followerID, followingID, following)
}
func (s *followRepoStub) IsFollowing(_ context.Context, _, _ uint) (bool, error) { return false, nil }
func (s *followRepoStub) Counts(_ context.Context, _ uint) (int64, int64, error) { return 0, 0, nil }

func assertAppErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertAppErrorCode(t, err, models.CodeValidation)
}
