package repository

import (
	"context"
	"log/slog"
	"time"

	"leconn/internal/models"
	"leconn/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// reaction is a (user_id, post_id) keyed table whose row count is cached in
// a posts counter column. Likes and reposts are both reactions.
type reaction struct {
	table   string
	counter string
	row     func(userID, postID uint) any
	log     observability.StoreLog
}

type reactionResult struct {
	on      bool
	changed bool
	count   int
}

// apply runs one reaction transaction: lock the post, let target pick the
// wanted state, insert-or-ignore or delete the row, and move the counter
// only when the row changed.
func (rx reaction) apply(ctx context.Context, db *gorm.DB, method string, userID, postID uint, target func(*gorm.DB) (bool, error)) (reactionResult, error) {
	ctx, span := observability.StartStoreSpan(ctx, rx.table, method)
	defer observability.TrackQuery(method, rx.table)()

	var res reactionResult
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockPost(tx, postID); err != nil {
			return err
		}

		on, err := target(tx)
		if err != nil {
			return err
		}
		changed, err := rx.write(tx, userID, postID, on)
		if err != nil {
			return err
		}
		if delta := counterDelta(changed, on); delta != 0 {
			if err := adjustCounter(tx, postID, rx.counter, delta); err != nil {
				return err
			}
		}

		count, err := readCounter(tx, postID, rx.counter)
		if err != nil {
			return err
		}
		res = reactionResult{on: on, changed: changed, count: count}
		return nil
	})
	err = translateError(err, "Post", postID)
	observability.FinishSpan(span, err)
	if err != nil {
		if !models.IsCode(err, models.CodeNotFound) {
			rx.log.Failed(ctx, method, err)
		}
		return reactionResult{}, err
	}

	rx.log.Changed(ctx, method,
		slog.Uint64("user_id", uint64(userID)),
		slog.Uint64("post_id", uint64(postID)),
		slog.Bool("on", res.on),
		slog.Bool("changed", res.changed))
	return res, nil
}

// write inserts-or-ignores or deletes the row and reports whether a row was
// actually written.
func (rx reaction) write(tx *gorm.DB, userID, postID uint, on bool) (bool, error) {
	var res *gorm.DB
	if on {
		res = tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "post_id"}},
			DoNothing: true,
		}).Create(rx.row(userID, postID))
	} else {
		res = tx.Where("user_id = ? AND post_id = ?", userID, postID).Delete(rx.row(0, 0))
	}
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (rx reaction) exists(tx *gorm.DB, userID, postID uint) (bool, error) {
	var n int64
	err := tx.Model(rx.row(0, 0)).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Count(&n).Error
	return n > 0, err
}

// lockPost touches the post row inside tx. The UPDATE both proves the post
// exists and holds its row lock until commit, which serializes concurrent
// reactions on the same post.
func lockPost(tx *gorm.DB, postID uint) error {
	res := tx.Model(&models.Post{}).
		Where("id = ?", postID).
		UpdateColumn("updated_at", time.Now())
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Post", postID)
	}
	return nil
}

// adjustCounter adds delta to a posts counter column, never going below zero.
func adjustCounter(tx *gorm.DB, postID uint, column string, delta int) error {
	expr := gorm.Expr(column+" + ?", delta)
	if delta < 0 {
		expr = gorm.Expr("CASE WHEN "+column+" + ? < 0 THEN 0 ELSE "+column+" + ? END", delta, delta)
	}
	return tx.Model(&models.Post{}).
		Where("id = ?", postID).
		UpdateColumn(column, expr).Error
}

func readCounter(tx *gorm.DB, postID uint, column string) (int, error) {
	var value int
	err := tx.Model(&models.Post{}).
		Select(column).
		Where("id = ?", postID).
		Scan(&value).Error
	return value, err
}

func counterDelta(changed, on bool) int {
	switch {
	case !changed:
		return 0
	case on:
		return 1
	default:
		return -1
	}
}
