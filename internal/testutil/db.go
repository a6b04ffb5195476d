// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"context"
	"fmt"
	"testing"

	"leconn/internal/config"
	"leconn/internal/database"
	"leconn/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// NewSQLiteDB returns an isolated, migrated in-memory database.
func NewSQLiteDB(t testing.TB) *gorm.DB {
	t.Helper()

	cfg := &config.Config{
		Env:                      "test",
		DBDriver:                 "sqlite",
		DBPath:                   fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
		DBMaxOpenConns:           1,
		DBMaxIdleConns:           1,
		DBConnMaxLifetimeMinutes: 60,
	}

	db, err := database.Connect(context.Background(), cfg)
	require.NoError(t, err)

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// CreateUser inserts a user with a unique username derived from name.
func CreateUser(t testing.TB, db *gorm.DB, name string) *models.User {
	t.Helper()
	suffix := uuid.NewString()[:8]
	user := &models.User{
		Name:     name,
		Username: name + "_" + suffix,
		Email:    name + "_" + suffix + "@example.com",
		Password: "not-a-real-hash",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreatePost inserts a top-level post authored by userID.
func CreatePost(t testing.TB, db *gorm.DB, userID uint, content string) *models.Post {
	t.Helper()
	post := &models.Post{UserID: userID, Content: content}
	require.NoError(t, db.Create(post).Error)
	return post
}

// LikeRows counts like rows for a post.
func LikeRows(t testing.TB, db *gorm.DB, postID uint) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.Like{}).Where("post_id = ?", postID).Count(&n).Error)
	return n
}

// StoredLikeCount reads the cached counter column for a post.
func StoredLikeCount(t testing.TB, db *gorm.DB, postID uint) int {
	t.Helper()
	var post models.Post
	require.NoError(t, db.Select("like_count").First(&post, postID).Error)
	return post.LikeCount
}
