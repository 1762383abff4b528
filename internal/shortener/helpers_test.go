package shortener_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/zophiezlan/spoo-horse/internal/alias"
	"github.com/zophiezlan/spoo-horse/internal/shortener"
	"github.com/zophiezlan/spoo-horse/internal/store"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var errBoom = errors.New("connection refused")

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func testOptions() []shortener.Option {
	return []shortener.Option{
		shortener.WithBcryptCost(bcrypt.MinCost),
		shortener.WithClock(func() time.Time { return fixedNow }),
	}
}

func newCodec(t *testing.T, opts ...alias.Option) *alias.Codec {
	t.Helper()

	codec, err := alias.NewCodec(alias.StyleEmoji, alias.DefaultTokenLength, opts...)
	require.NoError(t, err)

	return codec
}

func newService(t *testing.T, repo shortener.Repository, opts ...alias.Option) *shortener.Service {
	t.Helper()

	return shortener.NewService(repo, newCodec(t, opts...), nil, zap.NewNop(), testOptions()...)
}

// failingRepo fails every call with err.
type failingRepo struct {
	err error
}

func (f failingRepo) Insert(context.Context, *shortener.ShortLink) error { return f.err }

func (f failingRepo) Get(context.Context, string) (*shortener.ShortLink, error) { return nil, f.err }

func (f failingRepo) RecordClick(context.Context, string, string) (int64, error) { return 0, f.err }

func (f failingRepo) Count(context.Context, shortener.Filter) (int64, error) { return 0, f.err }

func (f failingRepo) Aggregate(context.Context, shortener.Filter) (shortener.Totals, error) {
	return shortener.Totals{}, f.err
}

func (f failingRepo) Top(context.Context, shortener.Filter, int) ([]*shortener.ShortLink, error) {
	return nil, f.err
}

// takenRepo reports every insert as a collision.
type takenRepo struct {
	*store.MemoryStore
	attempts int
}

func (r *takenRepo) Insert(context.Context, *shortener.ShortLink) error {
	r.attempts++

	return shortener.ErrAliasTaken
}

// seed stores link directly, bypassing validation.
func seed(t *testing.T, repo shortener.Repository, link *shortener.ShortLink) {
	t.Helper()

	if link.IPClicks == nil {
		link.IPClicks = map[string]int64{}
	}

	if link.CreatedAt.IsZero() {
		link.CreatedAt = fixedNow
	}

	require.NoError(t, repo.Insert(context.Background(), link))
}
