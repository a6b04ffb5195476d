package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// queryLog sends GORM output to slog. At Warn it reports failed and slow
// statements; at Info every statement.
type queryLog struct {
	log   *slog.Logger
	level logger.LogLevel
	slow  time.Duration
}

func newQueryLog(l *slog.Logger, level logger.LogLevel, slow time.Duration) logger.Interface {
	return queryLog{log: l, level: level, slow: slow}
}

func (q queryLog) LogMode(level logger.LogLevel) logger.Interface {
	q.level = level
	return q
}

func (q queryLog) printf(ctx context.Context, at logger.LogLevel, lvl slog.Level, msg string, args []any) {
	if q.level >= at {
		q.log.Log(ctx, lvl, fmt.Sprintf(msg, args...))
	}
}

func (q queryLog) Info(ctx context.Context, msg string, args ...any) {
	q.printf(ctx, logger.Info, slog.LevelInfo, msg, args)
}

func (q queryLog) Warn(ctx context.Context, msg string, args ...any) {
	q.printf(ctx, logger.Warn, slog.LevelWarn, msg, args)
}

func (q queryLog) Error(ctx context.Context, msg string, args ...any) {
	q.printf(ctx, logger.Error, slog.LevelError, msg, args)
}

func (q queryLog) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if q.level == logger.Silent {
		return
	}
	took := time.Since(begin)

	var (
		lvl slog.Level
		msg string
	)
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && q.level >= logger.Error:
		lvl, msg = slog.LevelError, "query failed"
	case q.slow > 0 && took > q.slow && q.level >= logger.Warn:
		lvl, msg = slog.LevelWarn, "slow query"
	case q.level >= logger.Info:
		lvl, msg = slog.LevelDebug, "query"
	default:
		return
	}

	stmt, rows := fc()
	attrs := []slog.Attr{
		slog.String("sql", stmt),
		slog.Int64("rows", rows),
		slog.Duration("took", took),
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	q.log.LogAttrs(ctx, lvl, msg, attrs...)
}
