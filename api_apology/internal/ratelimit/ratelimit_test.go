package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisLimiter(t *testing.T, cfg Config) (*RedisLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisLimiter(client, cfg), mr
}

func TestRedisLimiterAnonymousWindow(t *testing.T) {
	l, mr := newRedisLimiter(t, Config{AnonLimit: 3, AuthedLimit: 5, Window: time.Hour})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d, err := l.Allow(ctx, "1.2.3.4", false)
		require.NoError(t, err)
		assert.True(t, d.Allowed, "request %d", i)
		assert.Equal(t, 3-(i+1), d.Remaining)
	}

	d, err := l.Allow(ctx, "1.2.3.4", false)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 3, d.Limit)

	val, err := mr.Get("ratelimit:1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, "3", val)
	assert.Equal(t, time.Hour, mr.TTL("ratelimit:1.2.3.4"))
	assert.Equal(t, time.Hour, d.ResetIn)

	mr.FastForward(time.Hour + time.Second)
	d, err = l.Allow(ctx, "1.2.3.4", false)
	require.NoError(t, err)
	assert.True(t, d.Allowed, "window should reset after expiry")
}

func TestRedisLimiterWindowDoesNotSlide(t *testing.T) {
	l, mr := newRedisLimiter(t, Config{AnonLimit: 2, Window: time.Hour})
	ctx := context.Background()

	_, err := l.Allow(ctx, "5.6.7.8", false)
	require.NoError(t, err)

	mr.FastForward(40 * time.Minute)
	d, err := l.Allow(ctx, "5.6.7.8", false)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 20*time.Minute, mr.TTL("ratelimit:5.6.7.8"), "expiry is fixed at the first request")
	assert.Equal(t, 20*time.Minute, d.ResetIn)

	d, err = l.Allow(ctx, "5.6.7.8", false)
	require.NoError(t, err)
	assert.False(t, d.Allowed)

	mr.FastForward(20*time.Minute + time.Second)
	d, err = l.Allow(ctx, "5.6.7.8", false)
	require.NoError(t, err)
	assert.True(t, d.Allowed, "budget resets one window after the first request")
}

func TestRedisLimiterAuthedBudget(t *testing.T) {
	l, _ := newRedisLimiter(t, Config{AnonLimit: 1, AuthedLimit: 2})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		d, err := l.Allow(ctx, "client-a", true)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
	}
	d, err := l.Allow(ctx, "client-a", true)
	require.NoError(t, err)
	assert.False(t, d.Allowed)

	d, err = l.Allow(ctx, "client-b", false)
	require.NoError(t, err)
	assert.True(t, d.Allowed, "clients are counted separately")
}

func TestRedisLimiterDefaults(t *testing.T) {
	l, _ := newRedisLimiter(t, Config{})
	assert.Equal(t, DefaultAnonLimit, l.cfg.AnonLimit)
	assert.Equal(t, DefaultAuthedLimit, l.cfg.AuthedLimit)
	assert.Equal(t, time.Hour, l.cfg.Window)
}

func TestRedisLimiterBackendError(t *testing.T) {
	l, mr := newRedisLimiter(t, Config{})
	mr.Close()
	_, err := l.Allow(context.Background(), "x", false)
	assert.Error(t, err)
}

func TestMemoryLimiterWindow(t *testing.T) {
	l := NewMemoryLimiter(Config{AnonLimit: 2, Window: time.Minute}, time.Hour)
	defer l.Stop()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		d, _ := l.Allow(ctx, "ip", false)
		assert.True(t, d.Allowed)
	}
	d, _ := l.Allow(ctx, "ip", false)
	assert.False(t, d.Allowed)
	assert.Equal(t, time.Minute, d.ResetIn)

	now = now.Add(time.Minute)
	d, _ = l.Allow(ctx, "ip", false)
	assert.True(t, d.Allowed)

	now = now.Add(2 * time.Minute)
	l.cleanup()
	assert.Equal(t, 0, l.size())
}
