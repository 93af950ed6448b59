package rate

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T, cfg Config) (*Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return New(rdb, cfg), mr
}

func TestLimiterBlocksAfterMaxAttempts(t *testing.T) {
	l, mr := newTestLimiter(t, Config{MaxAttempts: 3, Window: time.Minute, Prefix: "t"})
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		require.NoError(t, l.Check(ctx, "admin@example.com"))
		n, err := l.Fail(ctx, "admin@example.com")
		require.NoError(t, err)
		assert.Equal(t, i, n)
	}

	err := l.Check(ctx, "Admin@Example.com ")
	require.ErrorIs(t, err, ErrRateLimited)
	assert.Contains(t, err.Error(), "retry in 1m0s")
	assert.Equal(t, time.Minute, mr.TTL("t:rl:login:admin@example.com"))

	require.NoError(t, l.Check(ctx, "other@example.com"))
}

func TestLimiterWindowExpires(t *testing.T) {
	l, mr := newTestLimiter(t, Config{MaxAttempts: 1, Window: time.Minute})
	ctx := context.Background()

	_, err := l.Fail(ctx, "a@example.com")
	require.NoError(t, err)
	require.ErrorIs(t, l.Check(ctx, "a@example.com"), ErrRateLimited)

	mr.FastForward(61 * time.Second)
	require.NoError(t, l.Check(ctx, "a@example.com"))
}

func TestLimiterResetClearsCounter(t *testing.T) {
	l, mr := newTestLimiter(t, Config{MaxAttempts: 1})
	ctx := context.Background()

	_, err := l.Fail(ctx, "a@example.com")
	require.NoError(t, err)
	require.NoError(t, l.Reset(ctx, "a@example.com"))
	assert.False(t, mr.Exists("gc:rl:login:a@example.com"))
	require.NoError(t, l.Check(ctx, "a@example.com"))
}

func TestLimiterDisabled(t *testing.T) {
	l, mr := newTestLimiter(t, Config{})
	ctx := context.Background()

	n, err := l.Fail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, mr.Keys())
	require.NoError(t, l.Check(ctx, "a@example.com"))

	var nilLimiter *Limiter
	require.NoError(t, nilLimiter.Check(ctx, "a@example.com"))
}

func TestLimiterRedisDown(t *testing.T) {
	l, mr := newTestLimiter(t, Config{MaxAttempts: 2})
	mr.Close()

	require.ErrorIs(t, l.Check(context.Background(), "a@example.com"), ErrRedisUnavailable)
	_, err := l.Fail(context.Background(), "a@example.com")
	require.ErrorIs(t, err, ErrRedisUnavailable)
}
