package repository

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"leconn/internal/cache"
	"leconn/internal/models"
	"leconn/internal/observability"

	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	// GetProfile returns the public profile with follow and post counts.
	GetProfile(ctx context.Context, id uint) (*models.Profile, error)
	Create(ctx context.Context, user *models.User) error
	UpdateProfile(ctx context.Context, id uint, update models.ProfileUpdate) (*models.User, error)
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, limit, offset int) ([]models.User, error)
}

type userRepository struct {
	db  *gorm.DB
	log observability.StoreLog
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db, log: observability.StoreLog("users")}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translateError(err, "User", id)
	}
	return &user, nil
}

// GetByEmail returns (nil, nil) when no user has that email.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, "email = ?", strings.ToLower(strings.TrimSpace(email)))
}

// GetByUsername returns (nil, nil) when the username is free.
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, "username = ?", strings.TrimSpace(username))
}

func (r *userRepository) findOne(ctx context.Context, query string, arg string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where(query, arg).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) GetProfile(ctx context.Context, id uint) (*models.Profile, error) {
	profile, err := cache.Load(ctx, cache.ProfileKey(id), cache.ProfileTTL, func(ctx context.Context) (models.Profile, error) {
		return r.loadProfile(ctx, id)
	})
	if err != nil {
		return nil, translateError(err, "User", id)
	}
	return &profile, nil
}

func (r *userRepository) loadProfile(ctx context.Context, id uint) (models.Profile, error) {
	db := r.db.WithContext(ctx)
	var user models.User
	if err := db.First(&user, id).Error; err != nil {
		return models.Profile{}, err
	}

	p := models.Profile{
		ID:        user.ID,
		Name:      user.Name,
		Username:  user.Username,
		Image:     user.Image,
		Bio:       user.Bio,
		Website:   user.Website,
		Location:  user.Location,
		CreatedAt: user.CreatedAt,
	}
	counts := []struct {
		dest  *int64
		model any
		where string
	}{
		{&p.FollowerCount, &models.Follow{}, "following_id = ?"},
		{&p.FollowingCount, &models.Follow{}, "follower_id = ?"},
		{&p.PostCount, &models.Post{}, "user_id = ?"},
	}
	for _, c := range counts {
		if err := db.Model(c.model).Where(c.where, id).Count(c.dest).Error; err != nil {
			return models.Profile{}, err
		}
	}
	return p, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("User already exists", nil)
		}
		return models.NewInternalError(err)
	}
	r.log.Changed(ctx, "create", slog.Uint64("user_id", uint64(user.ID)))
	return nil
}

func (r *userRepository) UpdateProfile(ctx context.Context, id uint, update models.ProfileUpdate) (*models.User, error) {
	changes := map[string]interface{}{}
	set := func(column string, v *string) {
		if v != nil {
			changes[column] = strings.TrimSpace(*v)
		}
	}
	set("name", update.Name)
	set("image", update.Image)
	set("banner", update.Banner)
	set("bio", update.Bio)
	set("website", update.Website)
	set("location", update.Location)

	db := r.db.WithContext(ctx)
	if len(changes) > 0 {
		res := db.Model(&models.User{}).Where("id = ?", id).Updates(changes)
		if res.Error != nil {
			return nil, models.NewInternalError(res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, models.NewNotFoundError("User", id)
		}
		cache.ForgetProfiles(ctx, id)
		r.log.Changed(ctx, "update", slog.Uint64("user_id", uint64(id)), slog.Int("fields", len(changes)))
	}

	var user models.User
	if err := db.First(&user, id).Error; err != nil {
		return nil, translateError(err, "User", id)
	}
	return &user, nil
}

func (r *userRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.User{}, id)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("User", id)
	}
	cache.ForgetProfiles(ctx, id)
	r.log.Changed(ctx, "delete", slog.Uint64("user_id", uint64(id)))
	return nil
}

func (r *userRepository) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).Order("id ASC").Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}
