package ratelimit

import (
	"context"
	"time"
)

// Limiter decides whether one more attempt under key is allowed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// SlidingWindowLimiter allows limit attempts per key within any window.
// It guards password checks of protected links.
type SlidingWindowLimiter struct {
	store  Store
	limit  int64
	window time.Duration
}

func NewSlidingWindowLimiter(store Store, limit int64, window time.Duration) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		store:  store,
		limit:  limit,
		window: window,
	}
}

func (l *SlidingWindowLimiter) Allow(ctx context.Context, key string) (bool, error) {
	count, err := l.store.Record(ctx, key, l.window)
	if err != nil {
		return false, err
	}

	return count <= l.limit, nil
}
