package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"leconn/internal/cache"
	"leconn/internal/models"
	"leconn/internal/observability"

	"gorm.io/gorm"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	// Create inserts a post. Replies bump the parent's reply_count in the
	// same transaction.
	Create(ctx context.Context, input models.CreatePostInput) (*models.Post, error)
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	// GetFeedPost returns one post shaped for viewerID.
	GetFeedPost(ctx context.Context, id, viewerID uint) (*models.FeedPost, error)
	// List returns posts newest first with aggregated like counts.
	List(ctx context.Context, filter models.FeedFilter) ([]models.FeedPost, error)
	// DeleteOwned hard-deletes the post only if userID authored it.
	DeleteOwned(ctx context.Context, postID, userID uint) (*models.Post, error)
	// RecountCounters rebuilds every counter column from rows and returns
	// the number of posts that had drifted.
	RecountCounters(ctx context.Context) (int64, error)
}

type postRepository struct {
	db  *gorm.DB
	log observability.StoreLog
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db, log: observability.StoreLog("posts")}
}

func (r *postRepository) Create(ctx context.Context, input models.CreatePostInput) (*models.Post, error) {
	defer observability.TrackQuery("Create", "posts")()

	post := &models.Post{
		UserID:   input.UserID,
		Content:  input.Content,
		ParentID: input.ParentID,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if input.ParentID != nil {
			var parent models.Post
			if err := tx.Select("id", "root_id").First(&parent, *input.ParentID).Error; err != nil {
				return translateError(err, "Post", *input.ParentID)
			}
			rootID := parent.ID
			if parent.RootID != nil {
				rootID = *parent.RootID
			}
			post.RootID = &rootID
		}

		if err := tx.Omit("User", "Parent", "Root").Create(post).Error; err != nil {
			return translateError(err, "User", input.UserID)
		}

		if input.ParentID != nil {
			return adjustCounter(tx, *input.ParentID, "reply_count", 1)
		}
		return nil
	})
	if err != nil {
		return nil, translateError(err, "Post", post.ID)
	}

	cache.ForgetProfiles(ctx, post.UserID)
	r.log.Changed(ctx, "create", slog.Uint64("post_id", uint64(post.ID)), slog.Uint64("user_id", uint64(post.UserID)))
	return post, nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).First(&post, id).Error; err != nil {
		return nil, translateError(err, "Post", id)
	}
	return &post, nil
}

// feedRow is the flat scan target of feedQuery.
type feedRow struct {
	ID             uint
	Content        string
	ParentID       *uint
	RootID         *uint
	LikeCount      int
	RepostCount    int
	ReplyCount     int
	IsLiked        bool
	IsReposted     bool
	AuthorID       uint
	AuthorName     string
	AuthorUsername string
	AuthorImage    string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (row feedRow) toFeedPost() models.FeedPost {
	return models.FeedPost{
		ID:          row.ID,
		Content:     row.Content,
		ParentID:    row.ParentID,
		RootID:      row.RootID,
		LikeCount:   row.LikeCount,
		RepostCount: row.RepostCount,
		ReplyCount:  row.ReplyCount,
		IsLiked:     row.IsLiked,
		IsReposted:  row.IsReposted,
		User: models.UserSummary{
			ID:       row.AuthorID,
			Name:     row.AuthorName,
			Username: row.AuthorUsername,
			Image:    row.AuthorImage,
		},
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

// feedQuery selects posts with their author, the like count aggregated from
// rows, and the viewer's like/repost flags.
func (r *postRepository) feedQuery(ctx context.Context, viewerID uint) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("posts").
		Select(`posts.id, posts.content, posts.parent_id, posts.root_id,
			posts.reply_count, posts.repost_count, posts.created_at, posts.updated_at,
			(SELECT COUNT(*) FROM likes WHERE likes.post_id = posts.id) AS like_count,
			EXISTS(SELECT 1 FROM likes WHERE likes.post_id = posts.id AND likes.user_id = ?) AS is_liked,
			EXISTS(SELECT 1 FROM reposts WHERE reposts.post_id = posts.id AND reposts.user_id = ?) AS is_reposted,
			users.id AS author_id, users.name AS author_name, users.username AS author_username,
			COALESCE(users.image, '') AS author_image`, viewerID, viewerID).
		Joins("JOIN users ON users.id = posts.user_id")
}

func (r *postRepository) GetFeedPost(ctx context.Context, id, viewerID uint) (*models.FeedPost, error) {
	var rows []feedRow
	if err := r.feedQuery(ctx, viewerID).Where("posts.id = ?", id).Limit(1).Scan(&rows).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	if len(rows) == 0 {
		return nil, models.NewNotFoundError("Post", id)
	}
	post := rows[0].toFeedPost()
	return &post, nil
}

func (r *postRepository) List(ctx context.Context, filter models.FeedFilter) ([]models.FeedPost, error) {
	defer observability.TrackQuery("List", "posts")()

	limit := filter.Limit
	if limit <= 0 {
		limit = models.DefaultFeedLimit
	}
	if limit > models.MaxFeedLimit {
		limit = models.MaxFeedLimit
	}

	q := r.feedQuery(ctx, filter.ViewerID)
	if filter.UserID != nil {
		q = q.Where("posts.user_id = ?", *filter.UserID)
	}
	if filter.ParentID != nil {
		q = q.Where("posts.parent_id = ?", *filter.ParentID)
	}
	if filter.BeforeID != nil {
		q = q.Where("posts.id < ?", *filter.BeforeID)
	}

	var rows []feedRow
	if err := q.Order("posts.created_at DESC, posts.id DESC").Limit(limit).Scan(&rows).Error; err != nil {
		return nil, models.NewInternalError(err)
	}

	posts := make([]models.FeedPost, 0, len(rows))
	for _, row := range rows {
		posts = append(posts, row.toFeedPost())
	}
	return posts, nil
}

func (r *postRepository) DeleteOwned(ctx context.Context, postID, userID uint) (*models.Post, error) {
	defer observability.TrackQuery("DeleteOwned", "posts")()

	var post models.Post
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", postID, userID).First(&post).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Post", postID)
			}
			return err
		}

		res := tx.Where("id = ? AND user_id = ?", postID, userID).Delete(&models.Post{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Post", postID)
		}

		if post.ParentID != nil {
			return adjustCounter(tx, *post.ParentID, "reply_count", -1)
		}
		return nil
	})
	if err != nil {
		return nil, translateError(err, "Post", postID)
	}

	cache.ForgetProfiles(ctx, userID)
	r.log.Changed(ctx, "delete", slog.Uint64("post_id", uint64(postID)), slog.Uint64("user_id", uint64(userID)))
	return &post, nil
}

const recountCountersSQL = `
UPDATE posts SET
	like_count = (SELECT COUNT(*) FROM likes WHERE likes.post_id = posts.id),
	repost_count = (SELECT COUNT(*) FROM reposts WHERE reposts.post_id = posts.id),
	reply_count = (SELECT COUNT(*) FROM posts AS replies WHERE replies.parent_id = posts.id)
WHERE like_count <> (SELECT COUNT(*) FROM likes WHERE likes.post_id = posts.id)
	OR repost_count <> (SELECT COUNT(*) FROM reposts WHERE reposts.post_id = posts.id)
	OR reply_count <> (SELECT COUNT(*) FROM posts AS replies WHERE replies.parent_id = posts.id)`

func (r *postRepository) RecountCounters(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Exec(recountCountersSQL)
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	if res.RowsAffected > 0 {
		r.log.Changed(ctx, "recount", slog.Int64("posts", res.RowsAffected))
	}
	return res.RowsAffected, nil
}
