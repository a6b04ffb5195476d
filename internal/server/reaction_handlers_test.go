package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"leconn/internal/middleware"
	"leconn/internal/models"
	"leconn/internal/service"
	"leconn/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func likeState(t *testing.T, body []byte) models.LikeState {
	t.Helper()
	var state models.LikeState
	require.NoError(t, json.Unmarshal(body, &state), string(body))
	return state
}

func TestLikePost_ExplicitActions(t *testing.T) {
	env := newTestServer(t, true)
	author := createUser(t, env, "author")
	fan := createUser(t, env, "fan")
	post := testutil.CreatePost(t, env.db, author.ID, "like me")
	token := env.token(t, fan)
	path := fmt.Sprintf("/api/posts/%d/like", post.ID)

	steps := []struct {
		action        string
		expectedLiked bool
		expectedCount int
	}{
		{action: "like", expectedLiked: true, expectedCount: 1},
		{action: "like", expectedLiked: true, expectedCount: 1},
		{action: "unlike", expectedLiked: false, expectedCount: 0},
		{action: "unlike", expectedLiked: false, expectedCount: 0},
	}
	for i, step := range steps {
		resp, body := env.do(t, http.MethodPost, path, token, map[string]string{"action": step.action})
		require.Equal(t, http.StatusOK, resp.StatusCode, "step %d: %s", i, body)
		state := likeState(t, body)
		assert.Equal(t, post.ID, state.PostID)
		assert.Equal(t, step.expectedLiked, state.Liked, "step %d", i)
		assert.Equal(t, step.expectedCount, state.LikeCount, "step %d", i)
		assert.Equal(t, int64(step.expectedCount), testutil.LikeRows(t, env.db, post.ID))
	}
}

func TestLikePost_ToggleWithoutBody(t *testing.T) {
	env := newTestServer(t, false)
	author := createUser(t, env, "author")
	post := testutil.CreatePost(t, env.db, author.ID, "toggle me")
	token := env.token(t, author)
	path := fmt.Sprintf("/api/posts/%d/like", post.ID)

	resp, body := env.do(t, http.MethodPost, path, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, likeState(t, body).Liked)

	resp, body = env.do(t, http.MethodPost, path, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	state := likeState(t, body)
	assert.False(t, state.Liked)
	assert.Equal(t, 0, state.LikeCount)
}

func TestLikePost_Errors(t *testing.T) {
	env := newTestServer(t, false)
	user := createUser(t, env, "user")
	post := testutil.CreatePost(t, env.db, user.ID, "post")
	token := env.token(t, user)

	resp, _ := env.do(t, http.MethodPost, fmt.Sprintf("/api/posts/%d/like", post.ID), token, map[string]string{"action": "love"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = env.do(t, http.MethodPost, "/api/posts/999999/like", token, map[string]string{"action": "like"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = env.do(t, http.MethodPost, "/api/posts/abc/like", token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	assert.Equal(t, 0, testutil.StoredLikeCount(t, env.db, post.ID))
}

func TestUnlikePost(t *testing.T) {
	env := newTestServer(t, false)
	user := createUser(t, env, "user")
	post := testutil.CreatePost(t, env.db, user.ID, "post")
	token := env.token(t, user)
	path := fmt.Sprintf("/api/posts/%d/like", post.ID)

	resp, _ := env.do(t, http.MethodPost, path, token, map[string]string{"action": "like"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := env.do(t, http.MethodDelete, path, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	state := likeState(t, body)
	assert.False(t, state.Liked)
	assert.Equal(t, 0, state.LikeCount)
}

func TestLikePost_ConcurrentUsersCountEveryLike(t *testing.T) {
	env := newTestServer(t, false)
	author := createUser(t, env, "author")
	post := testutil.CreatePost(t, env.db, author.ID, "popular")
	path := fmt.Sprintf("/api/posts/%d/like", post.ID)

	const fans = 8
	tokens := make([]string, fans)
	for i := range tokens {
		tokens[i] = env.token(t, createUser(t, env, fmt.Sprintf("fan%d", i)))
	}

	var wg sync.WaitGroup
	for _, token := range tokens {
		wg.Add(1)
		go func(token string) {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{"action":"like"}`))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+token)
			resp, err := env.s.App().Test(req, -1)
			if assert.NoError(t, err) {
				_ = resp.Body.Close()
				assert.Equal(t, http.StatusOK, resp.StatusCode)
			}
		}(token)
	}
	wg.Wait()

	assert.Equal(t, fans, testutil.StoredLikeCount(t, env.db, post.ID))
	assert.Equal(t, int64(fans), testutil.LikeRows(t, env.db, post.ID))
}

func TestRepostPost(t *testing.T) {
	env := newTestServer(t, false)
	user := createUser(t, env, "sharer")
	post := testutil.CreatePost(t, env.db, user.ID, "share me")
	token := env.token(t, user)
	path := fmt.Sprintf("/api/posts/%d/repost", post.ID)

	resp, body := env.do(t, http.MethodPost, path, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var state models.RepostState
	require.NoError(t, json.Unmarshal(body, &state))
	assert.True(t, state.Reposted)
	assert.Equal(t, 1, state.RepostCount)

	resp, body = env.do(t, http.MethodDelete, path, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &state))
	assert.False(t, state.Reposted)
	assert.Equal(t, 0, state.RepostCount)
}

// MockLikeRepository is a mock of the LikeRepository interface
type MockLikeRepository struct {
	mock.Mock
}

func (m *MockLikeRepository) SetLiked(ctx context.Context, userID, postID uint, liked bool) (*models.LikeState, error) {
	args := m.Called(ctx, userID, postID, liked)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LikeState), args.Error(1)
}

func (m *MockLikeRepository) Toggle(ctx context.Context, userID, postID uint) (*models.LikeState, error) {
	args := m.Called(ctx, userID, postID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LikeState), args.Error(1)
}

func (m *MockLikeRepository) IsLiked(ctx context.Context, userID, postID uint) (bool, error) {
	args := m.Called(ctx, userID, postID)
	return args.Bool(0), args.Error(1)
}

func (m *MockLikeRepository) LikedPostIDs(ctx context.Context, userID uint, postIDs []uint) ([]uint, error) {
	args := m.Called(ctx, userID, postIDs)
	return args.Get(0).([]uint), args.Error(1)
}

func TestLikePost_RoutesActionToRepository(t *testing.T) {
	mockRepo := new(MockLikeRepository)
	s := &Server{likeService: service.NewLikeService(mockRepo)}

	app := fiber.New()
	app.Post("/posts/:id/like", func(c *fiber.Ctx) error {
		c.Locals(middleware.LocalUserID, uint(7))
		return c.Next()
	}, s.LikePost)

	// Changed=false keeps the handler from publishing.
	mockRepo.On("SetLiked", mock.Anything, uint(7), uint(42), true).
		Return(&models.LikeState{PostID: 42, Liked: true, LikeCount: 3}, nil).Once()
	mockRepo.On("Toggle", mock.Anything, uint(7), uint(42)).
		Return(&models.LikeState{PostID: 42, Liked: false, LikeCount: 2}, nil).Once()

	tests := []struct {
		name          string
		body          string
		expectedLiked bool
	}{
		{name: "Explicit like", body: `{"action":"LIKE"}`, expectedLiked: true},
		{name: "Empty body toggles", body: "", expectedLiked: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/posts/42/like", strings.NewReader(tt.body))
			if tt.body != "" {
				req.Header.Set("Content-Type", "application/json")
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, http.StatusOK, resp.StatusCode)

			var state models.LikeState
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&state))
			assert.Equal(t, tt.expectedLiked, state.Liked)
		})
	}
	mockRepo.AssertExpectations(t)
}
