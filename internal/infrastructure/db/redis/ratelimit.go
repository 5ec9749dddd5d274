package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ChallengeLimiter enforces the challenges-per-window limit with a shared
// Redis counter so all instances see the same budget.
// Key format: chlimit:<user_id>:<window_start_unix>
type ChallengeLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

// NewChallengeLimiter creates a ChallengeLimiter wrapping the given Redis
// client.
func NewChallengeLimiter(client *redis.Client, limit int64, window time.Duration) *ChallengeLimiter {
	if window <= 0 {
		window = time.Hour
	}
	return &ChallengeLimiter{client: client, limit: limit, window: window}
}

// Allow atomically counts one issuance and reports whether the user is
// still within the window limit. INCR and EXPIRE run in one pipeline so a
// first write cannot leave an unbounded key behind.
func (l *ChallengeLimiter) Allow(ctx context.Context, userID string) (bool, error) {
	if l.limit <= 0 {
		return true, nil
	}

	key := l.key(userID, time.Now().UTC())

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limit incr: %w", err)
	}

	return incr.Val() <= l.limit, nil
}

func (l *ChallengeLimiter) key(userID string, now time.Time) string {
	return fmt.Sprintf("chlimit:%s:%d", userID, now.Truncate(l.window).Unix())
}
