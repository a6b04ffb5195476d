package repository

import (
	"bytes"
	"context"
	"errors"
	"regexp"
	"testing"

	"leconn/internal/models"
	"leconn/internal/observability"
	"leconn/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepostRepository_SetReposted(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewRepostRepository(db)
	ctx := context.Background()

	author := testutil.CreateUser(t, db, "author")
	sharer := testutil.CreateUser(t, db, "sharer")
	post := testutil.CreatePost(t, db, author.ID, "share me")

	state, err := repo.SetReposted(ctx, sharer.ID, post.ID, true)
	require.NoError(t, err)
	assert.True(t, state.Changed)
	assert.Equal(t, 1, state.RepostCount)

	state, err = repo.SetReposted(ctx, sharer.ID, post.ID, true)
	require.NoError(t, err)
	assert.False(t, state.Changed)
	assert.Equal(t, 1, state.RepostCount)

	state, err = repo.SetReposted(ctx, sharer.ID, post.ID, false)
	require.NoError(t, err)
	assert.Equal(t, 0, state.RepostCount)

	_, err = repo.SetReposted(ctx, sharer.ID, 555, true)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestRepostRepository_Postgres_FailureIsLoggedAndRolledBack(t *testing.T) {
	var logs bytes.Buffer
	observability.ConfigureLogger(&logs, "production", "info")
	t.Cleanup(func() { observability.ConfigureLogger(&logs, "test", "info") })

	db, mock := setupMockDB(t)
	repo := NewRepostRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "posts" SET "updated_at"=$1 WHERE id = $2`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "reposts" .* ON CONFLICT \("user_id","post_id"\) DO NOTHING`).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := repo.SetReposted(context.Background(), 1, 42, true)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())

	out := logs.String()
	assert.Contains(t, out, `"msg":"store error"`)
	assert.Contains(t, out, `"table":"reposts"`)
	assert.Contains(t, out, `"op":"SetReposted"`)
}

func TestFollowRepository(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()

	a := testutil.CreateUser(t, db, "a")
	b := testutil.CreateUser(t, db, "b")

	state, err := repo.SetFollowing(ctx, a.ID, b.ID, true)
	require.NoError(t, err)
	assert.True(t, state.Following)
	assert.Equal(t, int64(1), state.FollowerCount)

	_, err = repo.SetFollowing(ctx, a.ID, b.ID, true)
	require.NoError(t, err, "following twice is idempotent")

	following, err := repo.IsFollowing(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, following)

	followers, followingCount, err := repo.Counts(ctx, a.ID)
	require.NoError(t, err)
	assert.Zero(t, followers)
	assert.Equal(t, int64(1), followingCount)

	state, err = repo.SetFollowing(ctx, a.ID, b.ID, false)
	require.NoError(t, err)
	assert.Zero(t, state.FollowerCount)

	_, err = repo.SetFollowing(ctx, a.ID, 9999, true)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}
