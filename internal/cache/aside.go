package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"leconn/internal/observability"

	"github.com/redis/go-redis/v9"
)

// ProfileTTL bounds how stale a cached profile may be when an
// invalidation is missed.
const ProfileTTL = 2 * time.Minute

// ProfileKey is where the public profile of a user is cached.
func ProfileKey(userID uint) string {
	return fmt.Sprintf("leconn:profile:%d", userID)
}

// Load returns the JSON value cached under key, or calls fill and caches its
// result for ttl. Redis trouble degrades to calling fill; only fill errors
// reach the caller, and they are never cached.
func Load[T any](ctx context.Context, key string, ttl time.Duration, fill func(context.Context) (T, error)) (T, error) {
	if client != nil {
		raw, err := client.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			var hit T
			if json.Unmarshal(raw, &hit) == nil {
				return hit, nil
			}
		case !errors.Is(err, redis.Nil):
			observability.Logger.DebugContext(ctx, "cache read failed", slog.String("key", key), slog.String("error", err.Error()))
		}
	}

	v, err := fill(ctx)
	if err != nil || client == nil {
		return v, err
	}
	if raw, mErr := json.Marshal(v); mErr == nil {
		client.Set(ctx, key, raw, ttl)
	}
	return v, nil
}

// Forget drops the given keys. Without a client it does nothing.
func Forget(ctx context.Context, keys ...string) {
	if client == nil || len(keys) == 0 {
		return
	}
	client.Del(ctx, keys...)
}

// ForgetProfiles drops the cached profiles of the given users.
func ForgetProfiles(ctx context.Context, userIDs ...uint) {
	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = ProfileKey(id)
	}
	Forget(ctx, keys...)
}
