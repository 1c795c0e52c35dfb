package redis

import (
	"context"
	"fmt"
	"time"
)

// RateLimiter caps how often one Telegram account may run a given operation
// (extraction requests, callback taps). Fixed-window counters live in Redis
// so the cap holds across restarts and replicas.
type RateLimiter struct {
	client *Client
}

func NewRateLimiter(client *Client) *RateLimiter {
	return &RateLimiter{client: client}
}

// Allow consumes one slot from the account's window for op. The first hit of
// a fresh window arms its expiry. Redis failures fail open: an unreachable
// limiter must not silence the bot, so the caller gets true plus the error
// to log.
func (r *RateLimiter) Allow(ctx context.Context, tgID int64, op string, limit int, window time.Duration) (bool, error) {
	key := fmt.Sprintf("ratelimit:%s:%d", op, tgID)

	count, err := r.client.Incr(ctx, key)
	if err != nil {
		return true, err
	}
	if count == 1 {
		if err := r.client.Expire(ctx, key, window); err != nil {
			return true, err
		}
	}
	return count <= int64(limit), nil
}
