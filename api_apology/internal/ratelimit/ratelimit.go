package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const (
	DefaultAnonLimit   = 10
	DefaultAuthedLimit = 100
	DefaultWindow      = time.Hour

	keyPrefix = "ratelimit:"
)

// Config holds per-window request budgets.
type Config struct {
	AnonLimit   int
	AuthedLimit int
	Window      time.Duration
}

func (c Config) withDefaults() Config {
	if c.AnonLimit <= 0 {
		c.AnonLimit = DefaultAnonLimit
	}
	if c.AuthedLimit <= 0 {
		c.AuthedLimit = DefaultAuthedLimit
	}
	if c.Window <= 0 {
		c.Window = DefaultWindow
	}
	return c
}

func (c Config) limitFor(authed bool) int {
	if authed {
		return c.AuthedLimit
	}
	return c.AnonLimit
}

// Decision is the outcome of one rate limit check.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetIn   time.Duration
}

// Limiter counts requests per client in fixed windows.
type Limiter interface {
	Allow(ctx context.Context, clientID string, authed bool) (Decision, error)
}

// RedisLimiter keeps counters in Redis under ratelimit:<client>.
// The window starts at a client's first request and expires with the key;
// later requests only increment, so the expiry is never pushed back.
type RedisLimiter struct {
	client goredis.Cmdable
	cfg    Config
}

func NewRedisLimiter(client goredis.Cmdable, cfg Config) *RedisLimiter {
	return &RedisLimiter{client: client, cfg: cfg.withDefaults()}
}

func (l *RedisLimiter) Allow(ctx context.Context, clientID string, authed bool) (Decision, error) {
	key := keyPrefix + clientID
	limit := l.cfg.limitFor(authed)

	current, err := l.client.Get(ctx, key).Int()
	if err != nil && !errors.Is(err, goredis.Nil) {
		return Decision{}, fmt.Errorf("read counter: %w", err)
	}

	if current >= limit {
		ttl, err := l.client.TTL(ctx, key).Result()
		if err != nil {
			return Decision{}, fmt.Errorf("read ttl: %w", err)
		}
		if ttl < 0 {
			ttl = l.cfg.Window
		}
		return Decision{Allowed: false, Limit: limit, Remaining: 0, ResetIn: ttl}, nil
	}

	var (
		incr *goredis.IntCmd
		ttl  *goredis.DurationCmd
	)
	_, err = l.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, l.cfg.Window)
		ttl = pipe.TTL(ctx, key)
		return nil
	})
	if err != nil {
		return Decision{}, fmt.Errorf("increment counter: %w", err)
	}

	remaining := limit - int(incr.Val())
	if remaining < 0 {
		remaining = 0
	}
	resetIn := ttl.Val()
	if resetIn <= 0 {
		resetIn = l.cfg.Window
	}
	return Decision{Allowed: true, Limit: limit, Remaining: remaining, ResetIn: resetIn}, nil
}

type window struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter is the single-process fallback used when no Redis is configured.
type MemoryLimiter struct {
	cfg Config
	now func() time.Time

	mu      sync.Mutex
	windows map[string]*window

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewMemoryLimiter starts a limiter whose expired windows are swept every cleanupInterval.
func NewMemoryLimiter(cfg Config, cleanupInterval time.Duration) *MemoryLimiter {
	if cleanupInterval <= 0 {
		cleanupInterval = time.Minute
	}
	l := &MemoryLimiter{
		cfg:     cfg.withDefaults(),
		now:     time.Now,
		windows: make(map[string]*window),
		stopCh:  make(chan struct{}),
	}
	go l.cleanupLoop(cleanupInterval)
	return l
}

// Stop ends the cleanup goroutine.
func (l *MemoryLimiter) Stop() {
	l.stopOnce.Do(func() { close(l.stopCh) })
}

func (l *MemoryLimiter) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.cleanup()
		case <-l.stopCh:
			return
		}
	}
}

func (l *MemoryLimiter) cleanup() {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	for id, w := range l.windows {
		if !now.Before(w.resetAt) {
			delete(l.windows, id)
		}
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, clientID string, authed bool) (Decision, error) {
	limit := l.cfg.limitFor(authed)
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[clientID]
	if !ok || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Add(l.cfg.Window)}
		l.windows[clientID] = w
	}

	if w.count >= limit {
		return Decision{Allowed: false, Limit: limit, ResetIn: w.resetAt.Sub(now)}, nil
	}
	w.count++
	return Decision{Allowed: true, Limit: limit, Remaining: limit - w.count, ResetIn: w.resetAt.Sub(now)}, nil
}

func (l *MemoryLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}
