package rate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds limiter tuning parameters.
type Config struct {
	// MaxAttempts is the number of failures allowed per window. Zero disables
	// the limiter.
	MaxAttempts int
	Window      time.Duration
	Prefix      string
}

// Limiter counts failed sign-in attempts per email.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

// New creates a [Limiter] backed by rdb.
func New(rdb redis.UniversalClient, cfg Config) *Limiter {
	if cfg.Window <= 0 {
		cfg.Window = 15 * time.Minute
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "gc"
	}
	return &Limiter{redis: rdb, config: cfg}
}

func (l *Limiter) key(email string) string {
	return l.config.Prefix + ":rl:login:" + strings.ToLower(strings.TrimSpace(email))
}

func (l *Limiter) enabled() bool {
	return l != nil && l.config.MaxAttempts > 0
}

// Check returns ErrRateLimited, wrapped with the remaining cooldown, when email
// has used up its attempts in the current window.
func (l *Limiter) Check(ctx context.Context, email string) error {
	if !l.enabled() {
		return nil
	}
	key := l.key(email)
	count, err := l.redis.Get(ctx, key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if count < int64(l.config.MaxAttempts) {
		return nil
	}

	ttl, err := l.redis.TTL(ctx, key).Result()
	if err != nil || ttl < 0 {
		ttl = l.config.Window
	}
	return fmt.Errorf("%w: retry in %s", ErrRateLimited, ttl.Round(time.Second))
}

// Fail records a failed attempt and returns the count in the current window.
func (l *Limiter) Fail(ctx context.Context, email string) (int, error) {
	if !l.enabled() {
		return 0, nil
	}
	key := l.key(email)
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	// Fixed window: only the first hit sets the TTL.
	if count == 1 {
		if err := l.redis.Expire(ctx, key, l.config.Window).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}
	return int(count), nil
}

// Reset clears the counter after a successful sign-in.
func (l *Limiter) Reset(ctx context.Context, email string) error {
	if !l.enabled() {
		return nil
	}
	if err := l.redis.Del(ctx, l.key(email)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}
