package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zophiezlan/spoo-horse/internal/shortener"
	"github.com/zophiezlan/spoo-horse/internal/store"
)

// trackingStore counts lookups that reach the wrapped store and can pin the
// total RecordClick reports.
type trackingStore struct {
	*store.MemoryStore
	gets  int
	total int64
}

func (s *trackingStore) Get(ctx context.Context, alias string) (*shortener.ShortLink, error) {
	s.gets++

	return s.MemoryStore.Get(ctx, alias)
}

func (s *trackingStore) RecordClick(ctx context.Context, alias, ip string) (int64, error) {
	total, err := s.MemoryStore.RecordClick(ctx, alias, ip)
	if err != nil || s.total == 0 {
		return total, err
	}

	return s.total, nil
}

func newCachedRepo(t *testing.T) (*store.RedisCacheRepository, *trackingStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	inner := &trackingStore{MemoryStore: store.NewMemoryStore()}

	return store.NewRedisCacheRepository(inner, client, time.Minute), inner, mr
}

func insertLink(t *testing.T, repo shortener.Repository, alias string) {
	t.Helper()

	require.NoError(t, repo.Insert(context.Background(), &shortener.ShortLink{
		Alias:     alias,
		TargetURL: "https://example.com/" + alias,
		CreatedAt: time.Now().UTC(),
		IPClicks:  map[string]int64{},
	}))
}

func TestRedisCacheRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("serves lookups from the cache", func(t *testing.T) {
		repo, inner, _ := newCachedRepo(t)
		insertLink(t, repo, "🐎")

		link, err := repo.Get(ctx, "🐎")
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/🐎", link.TargetURL)
		assert.Zero(t, inner.gets)
	})

	t.Run("a counters-only hash is a miss", func(t *testing.T) {
		repo, inner, mr := newCachedRepo(t)
		insertLink(t, inner, "🦄")
		mr.HSet("link:🦄", "total_clicks", "7")

		link, err := repo.Get(ctx, "🦄")
		require.NoError(t, err)
		assert.Equal(t, "🦄", link.Alias)
		assert.Equal(t, "https://example.com/🦄", link.TargetURL)
		assert.Equal(t, 1, inner.gets)
		assert.Equal(t, "https://example.com/🦄", mr.HGet("link:🦄", "target_url"))
	})

	t.Run("clicks on an evicted link do not recreate it", func(t *testing.T) {
		repo, _, mr := newCachedRepo(t)
		insertLink(t, repo, "🌀")
		mr.Del("link:🌀")

		total, err := repo.RecordClick(ctx, "🌀", "203.0.113.1")
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.False(t, mr.Exists("link:🌀"))
		assert.False(t, mr.Exists("link:🌀:ips"))
	})

	t.Run("clicks refresh cached counters", func(t *testing.T) {
		repo, inner, _ := newCachedRepo(t)
		insertLink(t, repo, "🎉")

		for range 2 {
			_, err := repo.RecordClick(ctx, "🎉", "203.0.113.1")
			require.NoError(t, err)
		}

		link, err := repo.Get(ctx, "🎉")
		require.NoError(t, err)
		assert.Equal(t, int64(2), link.TotalClicks)
		assert.Equal(t, int64(2), link.IPClicks["203.0.113.1"])
		assert.Zero(t, inner.gets)
	})

	t.Run("a stale total never lowers the cached one", func(t *testing.T) {
		repo, inner, mr := newCachedRepo(t)
		insertLink(t, repo, "🪐")
		mr.HSet("link:🪐", "total_clicks", "9")

		inner.total = 4
		_, err := repo.RecordClick(ctx, "🪐", "203.0.113.1")
		require.NoError(t, err)
		assert.Equal(t, "9", mr.HGet("link:🪐", "total_clicks"))

		inner.total = 12
		_, err = repo.RecordClick(ctx, "🪐", "203.0.113.1")
		require.NoError(t, err)
		assert.Equal(t, "12", mr.HGet("link:🪐", "total_clicks"))
	})

	t.Run("expired entries fall back to the store", func(t *testing.T) {
		repo, inner, mr := newCachedRepo(t)
		insertLink(t, repo, "🍕")

		mr.FastForward(2 * time.Minute)

		link, err := repo.Get(ctx, "🍕")
		require.NoError(t, err)
		assert.Equal(t, "🍕", link.Alias)
		assert.Equal(t, 1, inner.gets)
	})
}
