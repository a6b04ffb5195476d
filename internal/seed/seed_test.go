package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"leconn/internal/models"
	"leconn/internal/repository"
	"leconn/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestLoadScenario(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
random_seed: 42
users: 3
posts_per_user: 2
accounts:
  - username: ada
    email: ada@example.com
`), 0o600))

	sc, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, int64(42), sc.RandomSeed)
	assert.Equal(t, 3, sc.Users)
	assert.Equal(t, 2, sc.PostsPerUser)
	assert.Equal(t, DefaultScenario().MaxLikes, sc.MaxLikes, "unset fields keep defaults")
	require.Len(t, sc.Accounts, 1)
	assert.Equal(t, "ada", sc.Accounts[0].Username)

	require.NoError(t, os.WriteFile(path, []byte("reply_ratio: 2\n"), 0o600))
	_, err = LoadScenario(path)
	assert.Error(t, err)

	_, err = LoadScenario(filepath.Join(dir, "missing.yml"))
	assert.Error(t, err)
}

func TestSeeder_RunKeepsCountersConsistent(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	s := NewSeeder(db).WithBcryptCost(bcrypt.MinCost)

	sc := DefaultScenario()
	sc.RandomSeed = 7
	sc.Users = 6
	sc.PostsPerUser = 3
	sc.MaxLikes = 4
	sc.FollowsPerUser = 2

	res, err := s.Run(ctx, sc)
	require.NoError(t, err)
	assert.Equal(t, 7, res.Users)
	assert.Equal(t, 21, res.Posts+res.Replies)
	assert.LessOrEqual(t, res.Follows, 7*2)

	var likeRows int64
	require.NoError(t, db.Model(&models.Like{}).Count(&likeRows).Error)
	assert.Equal(t, int64(res.Likes), likeRows)

	// Recounting from rows must not change anything the seeder wrote.
	var before []models.Post
	require.NoError(t, db.Order("id").Find(&before).Error)
	_, err = repository.NewPostRepository(db).RecountCounters(ctx)
	require.NoError(t, err)
	var after []models.Post
	require.NoError(t, db.Order("id").Find(&after).Error)
	require.Len(t, after, len(before))
	for i := range before {
		assert.Equal(t, before[i].LikeCount, after[i].LikeCount, "post %d", before[i].ID)
		assert.Equal(t, before[i].ReplyCount, after[i].ReplyCount, "post %d", before[i].ID)
		assert.Equal(t, before[i].RepostCount, after[i].RepostCount, "post %d", before[i].ID)
		assert.LessOrEqual(t, len([]rune(before[i].Content)), models.PostMaxLength)
	}

	var admin models.User
	require.NoError(t, db.Where("username = ?", "admin").First(&admin).Error)
	assert.True(t, admin.IsAdmin)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(DefaultPassword)))

	require.NoError(t, s.ClearAll(ctx))
	var users int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	assert.Zero(t, users)
}

func TestUsernameFor(t *testing.T) {
	assert.Equal(t, "mary_oconnor3", usernameFor("Mary", "O'Connor", 3))
	assert.LessOrEqual(t, len(usernameFor("Bartholomew", "Featherstonehaugh", 123)), 30)
}
