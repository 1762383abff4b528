package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// sweepEvery is the number of Record calls between sweeps of idle keys.
const sweepEvery = 1024

// RateLimitMemoryStore is an in-memory implementation of ratelimit.Store.
// Timestamps of a key are kept in ascending order.
type RateLimitMemoryStore struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	windows  map[string]time.Duration
	now      func() time.Time
	records  int
}

// NewRateLimitMemoryStore creates a new in-memory rate limit store.
func NewRateLimitMemoryStore() *RateLimitMemoryStore {
	return NewRateLimitMemoryStoreWithClock(time.Now)
}

// NewRateLimitMemoryStoreWithClock creates a store reading time from now.
func NewRateLimitMemoryStoreWithClock(now func() time.Time) *RateLimitMemoryStore {
	return &RateLimitMemoryStore{
		requests: make(map[string][]time.Time),
		windows:  make(map[string]time.Duration),
		now:      now,
	}
}

func (s *RateLimitMemoryStore) Record(_ context.Context, key string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	valid := append(prune(s.requests[key], now.Add(-window)), now)
	s.requests[key] = valid
	s.windows[key] = window

	s.records++
	if s.records%sweepEvery == 0 {
		s.sweep(now)
	}

	return int64(len(valid)), nil
}

// Len returns the number of keys currently tracked.
func (s *RateLimitMemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.requests)
}

// sweep forgets keys whose newest request left its window.
func (s *RateLimitMemoryStore) sweep(now time.Time) {
	for key, timestamps := range s.requests {
		if len(prune(timestamps, now.Add(-s.windows[key]))) == 0 {
			delete(s.requests, key)
			delete(s.windows, key)
		}
	}
}

// prune drops the timestamps at or before cutoff.
func prune(timestamps []time.Time, cutoff time.Time) []time.Time {
	i := sort.Search(len(timestamps), func(i int) bool {
		return timestamps[i].After(cutoff)
	})

	return timestamps[i:]
}
