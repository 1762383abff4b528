package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zophiezlan/spoo-horse/internal/shortener"
)

// runRepositoryContract exercises the behaviour every link store must share.
// Each subtest uses a fresh source tag so shared databases can be reused.
func runRepositoryContract(t *testing.T, repo shortener.Repository) {
	t.Helper()

	ctx := context.Background()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	newLink := func(source string, offset time.Duration) *shortener.ShortLink {
		return &shortener.ShortLink{
			Alias:     "t" + uuid.NewString()[:12],
			TargetURL: "https://example.com/" + source,
			CreatedAt: base.Add(offset),
			CreatorIP: "10.0.0.1",
			IPClicks:  map[string]int64{},
			Source:    source,
		}
	}

	t.Run("insert and get round trip", func(t *testing.T) {
		source := uuid.NewString()
		maxClicks := int64(3)
		link := newLink(source, 0)
		link.MaxClicks = &maxClicks
		link.PasswordHash = "hash"
		link.ConfigPreview = `{"k":"v"}`

		require.NoError(t, repo.Insert(ctx, link))

		got, err := repo.Get(ctx, link.Alias)
		require.NoError(t, err)
		assert.Equal(t, link.Alias, got.Alias)
		assert.Equal(t, link.TargetURL, got.TargetURL)
		assert.True(t, link.CreatedAt.Equal(got.CreatedAt))
		assert.Equal(t, int64(0), got.TotalClicks)
		require.NotNil(t, got.MaxClicks)
		assert.Equal(t, int64(3), *got.MaxClicks)
		assert.Equal(t, "hash", got.PasswordHash)
		assert.Equal(t, source, got.Source)
		assert.Equal(t, `{"k":"v"}`, got.ConfigPreview)
	})

	t.Run("insert rejects taken alias and keeps the original", func(t *testing.T) {
		source := uuid.NewString()
		first := newLink(source, 0)
		require.NoError(t, repo.Insert(ctx, first))

		second := newLink(source, time.Second)
		second.Alias = first.Alias
		second.TargetURL = "https://other.example.com"

		err := repo.Insert(ctx, second)
		require.ErrorIs(t, err, shortener.ErrAliasTaken)

		got, err := repo.Get(ctx, first.Alias)
		require.NoError(t, err)
		assert.Equal(t, first.TargetURL, got.TargetURL)
	})

	t.Run("get unknown alias returns ErrNotFound", func(t *testing.T) {
		_, err := repo.Get(ctx, "missing-"+uuid.NewString())
		assert.ErrorIs(t, err, shortener.ErrNotFound)
	})

	t.Run("record click increments total and per-ip counters", func(t *testing.T) {
		link := newLink(uuid.NewString(), 0)
		require.NoError(t, repo.Insert(ctx, link))

		total, err := repo.RecordClick(ctx, link.Alias, "1.2.3.4")
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)

		total, err = repo.RecordClick(ctx, link.Alias, "1.2.3.4")
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)

		total, err = repo.RecordClick(ctx, link.Alias, "5.6.7.8")
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)

		got, err := repo.Get(ctx, link.Alias)
		require.NoError(t, err)
		assert.Equal(t, int64(3), got.TotalClicks)
		assert.Equal(t, map[string]int64{"1.2.3.4": 2, "5.6.7.8": 1}, got.IPClicks)
	})

	t.Run("record click on unknown alias returns ErrNotFound", func(t *testing.T) {
		_, err := repo.RecordClick(ctx, "missing-"+uuid.NewString(), "1.2.3.4")
		assert.ErrorIs(t, err, shortener.ErrNotFound)
	})

	t.Run("record click stops at max clicks", func(t *testing.T) {
		maxClicks := int64(2)
		link := newLink(uuid.NewString(), 0)
		link.MaxClicks = &maxClicks
		require.NoError(t, repo.Insert(ctx, link))

		for range 2 {
			_, err := repo.RecordClick(ctx, link.Alias, "1.2.3.4")
			require.NoError(t, err)
		}

		_, err := repo.RecordClick(ctx, link.Alias, "1.2.3.4")
		require.ErrorIs(t, err, shortener.ErrLinkExhausted)

		got, err := repo.Get(ctx, link.Alias)
		require.NoError(t, err)
		assert.Equal(t, int64(2), got.TotalClicks)
	})

	t.Run("concurrent clicks never exceed max clicks", func(t *testing.T) {
		maxClicks := int64(5)
		link := newLink(uuid.NewString(), 0)
		link.MaxClicks = &maxClicks
		require.NoError(t, repo.Insert(ctx, link))

		var (
			wg sync.WaitGroup
			mu sync.Mutex
			ok int
		)

		for range 20 {
			wg.Add(1)

			go func() {
				defer wg.Done()

				if _, err := repo.RecordClick(ctx, link.Alias, "9.9.9.9"); err == nil {
					mu.Lock()
					ok++
					mu.Unlock()
				}
			}()
		}

		wg.Wait()

		assert.Equal(t, 5, ok)

		got, err := repo.Get(ctx, link.Alias)
		require.NoError(t, err)
		assert.Equal(t, int64(5), got.TotalClicks)
	})

	t.Run("concurrent inserts of one alias admit a single winner", func(t *testing.T) {
		alias := "t" + uuid.NewString()[:12]

		var (
			wg    sync.WaitGroup
			mu    sync.Mutex
			wins  int
			taken int
		)

		for range 10 {
			wg.Add(1)

			go func() {
				defer wg.Done()

				link := newLink(uuid.NewString(), 0)
				link.Alias = alias

				err := repo.Insert(ctx, link)

				mu.Lock()
				defer mu.Unlock()

				if err == nil {
					wins++
				} else if assert.ErrorIs(t, err, shortener.ErrAliasTaken) {
					taken++
				}
			}()
		}

		wg.Wait()

		assert.Equal(t, 1, wins)
		assert.Equal(t, 9, taken)
	})

	t.Run("count and aggregate honour the source filter", func(t *testing.T) {
		source := uuid.NewString()

		links := []*shortener.ShortLink{
			newLink(source, 0),
			newLink(source, time.Second),
			newLink(source, 2*time.Second),
		}

		for _, link := range links {
			require.NoError(t, repo.Insert(ctx, link))
		}

		for range 3 {
			_, err := repo.RecordClick(ctx, links[0].Alias, "1.1.1.1")
			require.NoError(t, err)
		}

		_, err := repo.RecordClick(ctx, links[1].Alias, "1.1.1.1")
		require.NoError(t, err)

		n, err := repo.Count(ctx, shortener.Filter{Source: source})
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)

		totals, err := repo.Aggregate(ctx, shortener.Filter{Source: source})
		require.NoError(t, err)
		assert.Equal(t, int64(3), totals.Count)
		assert.Equal(t, int64(4), totals.SumClicks)
		assert.InDelta(t, 4.0/3.0, totals.AvgClicks, 0.0001)
	})

	t.Run("aggregate over empty set is zero", func(t *testing.T) {
		totals, err := repo.Aggregate(ctx, shortener.Filter{Source: uuid.NewString()})
		require.NoError(t, err)
		assert.Equal(t, shortener.Totals{}, totals)
	})

	t.Run("top orders by clicks then creation time", func(t *testing.T) {
		source := uuid.NewString()

		older := newLink(source, 0)
		newer := newLink(source, time.Minute)
		busy := newLink(source, 2*time.Minute)
		idle := newLink(source, 3*time.Minute)

		for _, link := range []*shortener.ShortLink{newer, older, busy, idle} {
			require.NoError(t, repo.Insert(ctx, link))
		}

		clicks := map[string]int{busy.Alias: 3, older.Alias: 1, newer.Alias: 1}
		for alias, n := range clicks {
			for range n {
				_, err := repo.RecordClick(ctx, alias, "1.1.1.1")
				require.NoError(t, err)
			}
		}

		top, err := repo.Top(ctx, shortener.Filter{Source: source}, 3)
		require.NoError(t, err)
		require.Len(t, top, 3)
		assert.Equal(t, busy.Alias, top[0].Alias)
		assert.Equal(t, older.Alias, top[1].Alias)
		assert.Equal(t, newer.Alias, top[2].Alias)
	})
}
