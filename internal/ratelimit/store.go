package ratelimit

import (
	"context"
	"time"
)

// Store counts attempts in a sliding window.
type Store interface {
	// Record adds an attempt under key and returns how many attempts fall
	// within the last window, this one included.
	Record(ctx context.Context, key string, window time.Duration) (int64, error)
}
