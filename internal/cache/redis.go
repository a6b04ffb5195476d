// Package cache wraps the shared Redis client used for read-through caching.
// Every helper tolerates a missing client so the API runs without Redis.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"leconn/internal/observability"

	"github.com/redis/go-redis/v9"
)

var client *redis.Client

// errorCounter counts failed commands by name; a cache miss is not a failure.
type errorCounter struct{}

func (errorCounter) DialHook(next redis.DialHook) redis.DialHook { return next }

func (errorCounter) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		countFailure(cmd.Name(), err)
		return err
	}
}

func (errorCounter) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		err := next(ctx, cmds)
		countFailure("pipeline", err)
		return err
	}
}

func countFailure(op string, err error) {
	if err != nil && !errors.Is(err, redis.Nil) {
		observability.RedisErrorRate.WithLabelValues(op).Inc()
	}
}

// options accepts a redis:// URL or a bare host:port.
func options(addr string) (*redis.Options, error) {
	if strings.Contains(addr, "://") {
		return redis.ParseURL(addr)
	}
	return &redis.Options{Addr: addr}, nil
}

// InitRedis connects to addr and installs the client for the package. It
// returns nil, leaving the cache disabled, when addr is invalid or the
// server does not answer within five seconds.
func InitRedis(ctx context.Context, addr string) *redis.Client {
	client = nil

	opts, err := options(addr)
	if err != nil {
		observability.Logger.Warn("redis disabled: bad REDIS_URL", slog.String("error", err.Error()))
		return nil
	}

	c := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := c.Ping(pingCtx).Err(); err != nil {
		observability.Logger.Warn("redis disabled: unreachable", slog.String("addr", opts.Addr), slog.String("error", err.Error()))
		_ = c.Close()
		return nil
	}

	SetClient(c)
	observability.Logger.Info("redis connected", slog.String("addr", opts.Addr))
	return c
}

// SetClient installs c, which may be nil, as the package client.
func SetClient(c *redis.Client) {
	if c != nil {
		c.AddHook(errorCounter{})
	}
	client = c
}

// GetClient returns the installed client or nil.
func GetClient() *redis.Client {
	return client
}
