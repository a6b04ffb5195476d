package middleware

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"leconn/internal/models"
	"leconn/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const codeRateLimited = "RATE_LIMITED"

var errNoLimiterStore = errors.New("rate limiter has no redis client")

// Quota is a fixed-window request budget for one named action, counted per
// user when authenticated and per remote IP otherwise.
type Quota struct {
	Name   string
	Limit  int
	Window time.Duration
	// FailClosed answers 503 when Redis cannot be reached instead of letting
	// the request through.
	FailClosed bool
}

func limitsDisabled() bool {
	switch os.Getenv("APP_ENV") {
	case "", "test", "development":
		return true
	}
	return false
}

func (q Quota) key(subject string) string {
	return "leconn:rl:" + q.Name + ":" + subject
}

// Take spends one request of the quota for subject. It reports whether the
// request fits and how long until the window resets.
func (q Quota) Take(ctx context.Context, rdb *redis.Client, subject string) (bool, time.Duration, error) {
	if limitsDisabled() {
		return true, 0, nil
	}
	if rdb == nil {
		return false, 0, errNoLimiterStore
	}

	key := q.key(subject)
	var count *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		count = p.Incr(ctx, key)
		ttl = p.PTTL(ctx, key)
		return nil
	})
	if err != nil {
		return false, 0, err
	}

	left := ttl.Val()
	if left < 0 {
		// First hit of the window, or a key that lost its expiry.
		if err := rdb.PExpire(ctx, key, q.Window).Err(); err != nil {
			return false, 0, err
		}
		left = q.Window
	}
	return count.Val() <= int64(q.Limit), left, nil
}

func subjectOf(c *fiber.Ctx) string {
	if uid, ok := UserID(c); ok {
		return "user:" + strconv.FormatUint(uint64(uid), 10)
	}
	return "ip:" + c.IP()
}

// Handler enforces the quota in front of a route.
func (q Quota) Handler(rdb *redis.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ok, left, err := q.Take(c.UserContext(), rdb, subjectOf(c))
		if err != nil {
			observability.RedisErrorRate.WithLabelValues("ratelimit").Inc()
			if !q.FailClosed {
				return c.Next()
			}
			observability.Logger.WarnContext(c.UserContext(), "rate limiter unavailable",
				"quota", q.Name, "error", err.Error())
			return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
				Error: "rate limiting unavailable, try again shortly",
				Code:  codeRateLimited,
			})
		}
		if ok {
			return c.Next()
		}

		secs := int((left + time.Second - 1) / time.Second)
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(secs))
		return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
			Error: fmt.Sprintf("too many %s requests", q.Name),
			Code:  codeRateLimited,
		})
	}
}

// RateLimit is shorthand for a fail-open Quota handler.
func RateLimit(rdb *redis.Client, limit int, window time.Duration, name string) fiber.Handler {
	return Quota{Name: name, Limit: limit, Window: window}.Handler(rdb)
}
