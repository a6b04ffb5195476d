package service

import (
	"context"
	"strings"
	"testing"

	"leconn/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const goodPassword = "SecurePass12!@"

func TestUserService_Signup(t *testing.T) {
	t.Parallel()

	t.Run("hashes password and normalizes email", func(t *testing.T) {
		t.Parallel()
		repo := noopUserRepo()
		var created *models.User
		repo.createFn = func(_ context.Context, u *models.User) error {
			u.ID = 5
			created = u
			return nil
		}
		svc := NewUserService(repo).WithBcryptCost(bcrypt.MinCost)

		user, err := svc.Signup(context.Background(), SignupInput{
			Username: "gopher", Email: " Gopher@Example.com ", Password: goodPassword,
		})
		require.NoError(t, err)
		assert.Equal(t, uint(5), user.ID)
		assert.Equal(t, "gopher@example.com", created.Email)
		assert.Equal(t, "gopher", created.Name, "name defaults to username")
		assert.NotEqual(t, goodPassword, created.Password)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.Password), []byte(goodPassword)))
	})

	t.Run("validation", func(t *testing.T) {
		t.Parallel()
		svc := NewUserService(noopUserRepo()).WithBcryptCost(bcrypt.MinCost)
		cases := []SignupInput{
			{Username: "go", Email: "a@example.com", Password: goodPassword},
			{Username: "gopher", Email: "nope", Password: goodPassword},
			{Username: "gopher", Email: "a@example.com", Password: "short"},
		}
		for _, in := range cases {
			_, err := svc.Signup(context.Background(), in)
			assertValidationError(t, err)
		}
	})

	t.Run("duplicate email is conflict", func(t *testing.T) {
		t.Parallel()
		repo := noopUserRepo()
		repo.getByEmailFn = func(_ context.Context, _ string) (*models.User, error) {
			return &models.User{ID: 1}, nil
		}
		svc := NewUserService(repo).WithBcryptCost(bcrypt.MinCost)
		_, err := svc.Signup(context.Background(), SignupInput{Username: "gopher", Email: "a@example.com", Password: goodPassword})
		assertAppErrorCode(t, err, models.CodeConflict)
	})
}

func TestUserService_Login(t *testing.T) {
	t.Parallel()
	hash, err := bcrypt.GenerateFromPassword([]byte(goodPassword), bcrypt.MinCost)
	require.NoError(t, err)

	repo := noopUserRepo()
	repo.getByEmailFn = func(_ context.Context, email string) (*models.User, error) {
		if email == "known@example.com" {
			return &models.User{ID: 3, Email: email, Password: string(hash)}, nil
		}
		return nil, nil
	}
	svc := NewUserService(repo)
	ctx := context.Background()

	user, err := svc.Login(ctx, "known@example.com", goodPassword)
	require.NoError(t, err)
	assert.Equal(t, uint(3), user.ID)

	_, err = svc.Login(ctx, "known@example.com", "WrongPass12!@")
	assertAppErrorCode(t, err, models.CodeUnauthorized)

	_, err = svc.Login(ctx, "ghost@example.com", goodPassword)
	assertAppErrorCode(t, err, models.CodeUnauthorized)

	_, err = svc.Login(ctx, "", "")
	assertValidationError(t, err)
}

func TestUserService_UpdateProfile_Validation(t *testing.T) {
	t.Parallel()
	repo := noopUserRepo()
	called := false
	repo.updateProfileFn = func(_ context.Context, id uint, _ models.ProfileUpdate) (*models.User, error) {
		called = true
		return &models.User{ID: id}, nil
	}
	svc := NewUserService(repo)

	bio := strings.Repeat("x", 500)
	_, err := svc.UpdateProfile(context.Background(), 1, models.ProfileUpdate{Bio: &bio})
	assertValidationError(t, err)
	assert.False(t, called)
}

func TestFollowService(t *testing.T) {
	t.Parallel()
	var calls []bool
	follows := &followRepoStub{
		setFollowingFn: func(_ context.Context, _, following uint, on bool) (*models.FollowState, error) {
			calls = append(calls, on)
			return &models.FollowState{UserID: following, Following: on}, nil
		},
	}
	users := noopUserRepo()
	users.getByIDFn = func(_ context.Context, id uint) (*models.User, error) {
		if id == 404 {
			return nil, models.NewNotFoundError("User", id)
		}
		return &models.User{ID: id}, nil
	}
	svc := NewFollowService(follows, users)
	ctx := context.Background()

	_, err := svc.Follow(ctx, 1, 1)
	assertValidationError(t, err)

	_, err = svc.Follow(ctx, 1, 404)
	assertAppErrorCode(t, err, models.CodeNotFound)

	state, err := svc.Follow(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, state.Following)

	state, err = svc.Unfollow(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, state.Following)

	assert.Equal(t, []bool{true, false}, calls)
}
