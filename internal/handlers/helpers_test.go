package handlers_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/zophiezlan/spoo-horse/internal/alias"
	"github.com/zophiezlan/spoo-horse/internal/analytics"
	"github.com/zophiezlan/spoo-horse/internal/handlers"
	"github.com/zophiezlan/spoo-horse/internal/ratelimit"
	"github.com/zophiezlan/spoo-horse/internal/shortener"
	"github.com/zophiezlan/spoo-horse/internal/store"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	testBaseURL  = "http://localhost:8888"
	testClientIP = "203.0.113.7"
)

type fixture struct {
	handler *handlers.LinkHandler
	store   *store.MemoryStore
}

type fixtureConfig struct {
	repo     shortener.Repository
	attempts ratelimit.Limiter
	domain   string
}

func newFixture(t *testing.T, configure ...func(*fixtureConfig)) *fixture {
	t.Helper()

	memory := store.NewMemoryStore()
	cfg := &fixtureConfig{repo: memory}

	for _, fn := range configure {
		fn(cfg)
	}

	codec, err := alias.NewCodec(alias.StyleEmoji, alias.DefaultTokenLength)
	require.NoError(t, err)

	opts := []shortener.Option{shortener.WithBcryptCost(bcrypt.MinCost)}
	logger := zap.NewNop()

	h := handlers.NewLinkHandler(
		shortener.NewService(cfg.repo, codec, nil, logger, opts...),
		shortener.NewResolver(cfg.repo, logger, opts...),
		shortener.NewStats(cfg.repo, logger, opts...),
		analytics.NewDisabledPublisher(logger),
		cfg.attempts,
		handlers.NewURLBuilder(testBaseURL, cfg.domain),
		logger,
	)

	return &fixture{handler: h, store: memory}
}

func withMeta(meta handlers.RequestMeta) context.Context {
	return handlers.ContextWithRequestMeta(context.Background(), meta)
}

func visitor() context.Context {
	return withMeta(handlers.RequestMeta{ClientIP: testClientIP, UserAgent: "TestAgent/1.0"})
}

func (f *fixture) seed(t *testing.T, link *shortener.ShortLink) {
	t.Helper()

	if link.IPClicks == nil {
		link.IPClicks = map[string]int64{}
	}

	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now().UTC()
	}

	require.NoError(t, f.store.Insert(context.Background(), link))
}

func hash(t *testing.T, password string) string {
	t.Helper()

	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	return string(h)
}
