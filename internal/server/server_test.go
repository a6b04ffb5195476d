package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"leconn/internal/config"
	"leconn/internal/models"
	"leconn/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func testConfig() *config.Config {
	return &config.Config{
		Env:                    "test",
		Port:                   "0",
		JWTSecret:              "test-secret",
		AllowedOrigins:         "*",
		LikeRateLimitPerMinute: 1000,
		PostRateLimitPerMinute: 1000,
	}
}

type testEnv struct {
	s  *Server
	db *gorm.DB
	mr *miniredis.Miniredis
}

// newTestServer builds a server on an in-memory database. withRedis adds a
// miniredis instance.
func newTestServer(t *testing.T, withRedis bool) *testEnv {
	t.Helper()
	db := testutil.NewSQLiteDB(t)

	env := &testEnv{db: db}
	var rdb *redis.Client
	if withRedis {
		env.mr = miniredis.RunT(t)
		rdb = redis.NewClient(&redis.Options{Addr: env.mr.Addr()})
	}

	s, err := NewServerWithDeps(testConfig(), db, rdb)
	require.NoError(t, err)
	env.s = s
	t.Cleanup(func() {
		if rdb != nil {
			_ = rdb.Close()
		}
	})
	return env
}

func (e *testEnv) token(t *testing.T, user *models.User) string {
	t.Helper()
	tok, err := e.s.auth.IssueToken(user.ID, user.Username)
	require.NoError(t, err)
	return tok
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.s.App().Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	payload, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, payload
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestServer(t, false)

	resp, body := env.do(t, http.MethodGet, "/api/", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))

	resp, body = env.do(t, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var ready map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &ready))
	assert.Equal(t, "degraded", ready["status"])

	resp, _ = env.do(t, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestReadiness_WithRedisIsHealthy(t *testing.T) {
	env := newTestServer(t, true)

	resp, body := env.do(t, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"status":"healthy"`)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := newTestServer(t, false)

	for _, path := range []string{"/api/posts", "/api/users/me", "/api/auth/me"} {
		resp, _ := env.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
	}

	resp, _ := env.do(t, http.MethodGet, "/api/posts", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func createUser(t *testing.T, env *testEnv, name string) *models.User {
	t.Helper()
	return testutil.CreateUser(t, env.db, name)
}
