package service

import (
	"context"
	"testing"

	"leconn/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLikeService_Apply(t *testing.T) {
	t.Parallel()

	var setCalls []bool
	toggles := 0
	repo := &likeRepoStub{
		setLikedFn: func(_ context.Context, _, postID uint, liked bool) (*models.LikeState, error) {
			setCalls = append(setCalls, liked)
			return &models.LikeState{PostID: postID, Liked: liked, Changed: true}, nil
		},
		toggleFn: func(_ context.Context, _, postID uint) (*models.LikeState, error) {
			toggles++
			return &models.LikeState{PostID: postID, Liked: true, LikeCount: 1, Changed: true}, nil
		},
	}
	svc := NewLikeService(repo)
	ctx := context.Background()

	state, err := svc.Apply(ctx, 1, 2, "like")
	require.NoError(t, err)
	assert.True(t, state.Liked)

	state, err = svc.Apply(ctx, 1, 2, "UNLIKE")
	require.NoError(t, err)
	assert.False(t, state.Liked)

	_, err = svc.Apply(ctx, 1, 2, "")
	require.NoError(t, err)

	_, err = svc.Apply(ctx, 1, 2, "love")
	assertValidationError(t, err)

	assert.Equal(t, []bool{true, false}, setCalls)
	assert.Equal(t, 1, toggles)
}

func TestLikeService_PropagatesNotFound(t *testing.T) {
	t.Parallel()
	repo := &likeRepoStub{
		setLikedFn: func(_ context.Context, _, postID uint, _ bool) (*models.LikeState, error) {
			return nil, models.NewNotFoundError("Post", postID)
		},
	}
	svc := NewLikeService(repo)
	_, err := svc.SetLike(context.Background(), 1, 99, models.LikeActionLike)
	assertAppErrorCode(t, err, models.CodeNotFound)
}
