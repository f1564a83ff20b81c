package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"rideintake/internal/ratelimit"
)

const rateLimitPrefix = "ratelimit:"

// RateLimiter is a fixed-window limiter shared by every instance that talks to
// the same Redis. The window opens with the first INCR of a key and ends when
// the key expires.
type RateLimiter struct {
	client *redis.Client
}

// NewRateLimiter creates a new RateLimiter.
func NewRateLimiter(client *redis.Client) *RateLimiter {
	return &RateLimiter{client: client}
}

// Allow counts one call for key and reports whether it fits in the window.
func (l *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (ratelimit.Decision, error) {
	redisKey := rateLimitPrefix + key

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pttl := pipe.PTTL(ctx, redisKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return ratelimit.Decision{}, err
	}

	count := incr.Val()
	ttl := pttl.Val()

	// A new key, or one whose expiry was lost, opens a fresh window.
	if count == 1 || ttl < 0 {
		if err := l.client.PExpire(ctx, redisKey, window).Err(); err != nil {
			return ratelimit.Decision{}, err
		}
		ttl = window
	}

	resetAt := time.Now().Add(ttl)
	if count > int64(limit) {
		return ratelimit.Decision{Allowed: false, Count: int(count), RetryAfter: ttl, ResetAt: resetAt}, nil
	}
	return ratelimit.Decision{Allowed: true, Count: int(count), ResetAt: resetAt}, nil
}
