package ratelimit

import (
	"context"
	"time"
)

const (
	DefaultLimit  = 10
	DefaultWindow = time.Hour
)

// Limiter applies one limit and window to every key of a store.
type Limiter struct {
	store  CounterStore
	limit  int
	window time.Duration
	now    func() time.Time
}

func NewLimiter(store CounterStore, limit int, window time.Duration) *Limiter {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Limiter{
		store:  store,
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

// WithClock replaces the time source, for tests.
func (l *Limiter) WithClock(now func() time.Time) *Limiter {
	l.now = now
	return l
}

func (l *Limiter) Allow(ctx context.Context, key string) (bool, error) {
	return l.store.Allow(ctx, key, l.limit, l.window, l.now())
}

func (l *Limiter) Window() time.Duration {
	return l.window
}

func (l *Limiter) Limit() int {
	return l.limit
}
