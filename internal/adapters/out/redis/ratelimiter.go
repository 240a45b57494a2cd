// Package redis holds the Redis-backed adapters.
package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// RateLimiter is a fixed-window counter per key. Every window has its own
// Redis key, so a burst at the end of one window does not extend the next.
type RateLimiter struct {
	c      redis.UniversalClient
	prefix string
	limit  int64
	window time.Duration
	now    func() time.Time
}

func NewRateLimiter(c redis.UniversalClient, prefix string, limit int64, window time.Duration) *RateLimiter {
	return &RateLimiter{
		c:      c,
		prefix: prefix,
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

// NewClient opens a client for addr.
func NewClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// Allow counts one hit for key and reports whether it is within the limit,
// together with the count in the current window.
func (rl *RateLimiter) Allow(ctx context.Context, key string) (bool, int64, error) {
	bucket := rl.now().UnixNano() / int64(rl.window)
	k := rl.prefix + key + ":" + strconv.FormatInt(bucket, 10)

	pipe := rl.c.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, rl.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, errors.Wrap(err, "redis ratelimit")
	}

	n := incr.Val()
	return n <= rl.limit, n, nil
}

// Window is the length of one counting window.
func (rl *RateLimiter) Window() time.Duration {
	return rl.window
}

// Ping checks that Redis answers.
func (rl *RateLimiter) Ping(ctx context.Context) error {
	if err := rl.c.Ping(ctx).Err(); err != nil {
		return errors.Wrap(err, "redis ping")
	}
	return nil
}
