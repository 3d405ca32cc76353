package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Config sets how many requests a key may make per window.
type Config struct {
	Enabled bool          `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	Limit   int           `env:"RATE_LIMIT_REQUESTS" envDefault:"60"`
	Window  time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`
}

// Result describes the state of a key after a request was counted.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter returns how long a rejected caller should wait. Zero when allowed.
func (r Result) RetryAfter(now time.Time) time.Duration {
	if r.Allowed {
		return 0
	}
	return max(r.ResetAt.Sub(now), 0)
}

// Limiter counts one request for key.
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

// Store increments a counter that expires window after its first hit.
type Store interface {
	IncrementAndGet(ctx context.Context, key string, window time.Duration) (count int64, ttl time.Duration, err error)
}

// FixedWindow allows Limit requests per key in each Window.
type FixedWindow struct {
	store Store
	cfg   Config
	now   func() time.Time
}

// NewFixedWindow validates cfg and returns a limiter backed by store.
func NewFixedWindow(store Store, cfg Config) (*FixedWindow, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if cfg.Limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive, got %d", ErrInvalidConfig, cfg.Limit)
	}
	if cfg.Window <= 0 {
		return nil, fmt.Errorf("%w: window must be positive, got %s", ErrInvalidConfig, cfg.Window)
	}
	return &FixedWindow{store: store, cfg: cfg, now: time.Now}, nil
}

// Allow counts the request and reports whether it fits in the current window.
func (l *FixedWindow) Allow(ctx context.Context, key string) (Result, error) {
	count, ttl, err := l.store.IncrementAndGet(ctx, key, l.cfg.Window)
	if err != nil {
		return Result{}, err
	}
	if ttl <= 0 {
		ttl = l.cfg.Window
	}
	return Result{
		Allowed:   count <= int64(l.cfg.Limit),
		Limit:     l.cfg.Limit,
		Remaining: max(l.cfg.Limit-int(count), 0),
		ResetAt:   l.now().Add(ttl),
	}, nil
}
