package store

import (
	"context"
	"maps"
	"sort"
	"sync"

	"github.com/zophiezlan/spoo-horse/internal/shortener"
)

// MemoryStore is an in-memory implementation of shortener.Repository.
type MemoryStore struct {
	mu    sync.RWMutex
	links map[string]*shortener.ShortLink // alias -> link
	seq   map[string]uint64               // alias -> insertion order
	next  uint64
}

// NewMemoryStore creates a new in-memory link store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		links: make(map[string]*shortener.ShortLink),
		seq:   make(map[string]uint64),
	}
}

func (m *MemoryStore) Insert(_ context.Context, link *shortener.ShortLink) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.links[link.Alias]; ok {
		return shortener.ErrAliasTaken
	}

	m.links[link.Alias] = clone(link)
	m.seq[link.Alias] = m.next
	m.next++

	return nil
}

func (m *MemoryStore) Get(_ context.Context, alias string) (*shortener.ShortLink, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	link, ok := m.links[alias]
	if !ok {
		return nil, shortener.ErrNotFound
	}

	return clone(link), nil
}

func (m *MemoryStore) RecordClick(_ context.Context, alias, ip string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	link, ok := m.links[alias]
	if !ok {
		return 0, shortener.ErrNotFound
	}

	if link.Exhausted() {
		return link.TotalClicks, shortener.ErrLinkExhausted
	}

	link.TotalClicks++
	link.IPClicks[ip]++

	return link.TotalClicks, nil
}

func (m *MemoryStore) Count(_ context.Context, filter shortener.Filter) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var n int64

	for _, link := range m.links {
		if filter.Matches(link) {
			n++
		}
	}

	return n, nil
}

func (m *MemoryStore) Aggregate(_ context.Context, filter shortener.Filter) (shortener.Totals, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var totals shortener.Totals

	for _, link := range m.links {
		if filter.Matches(link) {
			totals.Count++
			totals.SumClicks += link.TotalClicks
		}
	}

	if totals.Count > 0 {
		totals.AvgClicks = float64(totals.SumClicks) / float64(totals.Count)
	}

	return totals, nil
}

func (m *MemoryStore) Top(_ context.Context, filter shortener.Filter, n int) ([]*shortener.ShortLink, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := make([]*shortener.ShortLink, 0, len(m.links))

	for _, link := range m.links {
		if filter.Matches(link) {
			matched = append(matched, link)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if a.TotalClicks != b.TotalClicks {
			return a.TotalClicks > b.TotalClicks
		}

		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}

		return m.seq[a.Alias] < m.seq[b.Alias]
	})

	if len(matched) > n {
		matched = matched[:n]
	}

	out := make([]*shortener.ShortLink, len(matched))
	for i, link := range matched {
		out[i] = clone(link)
	}

	return out, nil
}

// Shutdown is a no-op for MemoryStore.
func (m *MemoryStore) Shutdown() error {
	return nil
}

func clone(link *shortener.ShortLink) *shortener.ShortLink {
	c := *link

	c.IPClicks = make(map[string]int64, len(link.IPClicks))
	maps.Copy(c.IPClicks, link.IPClicks)

	if link.MaxClicks != nil {
		v := *link.MaxClicks
		c.MaxClicks = &v
	}

	if link.ExpiresAt != nil {
		v := *link.ExpiresAt
		c.ExpiresAt = &v
	}

	return &c
}

// Compile-time check.
var _ shortener.Repository = (*MemoryStore)(nil)
