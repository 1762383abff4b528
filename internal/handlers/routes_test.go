package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zophiezlan/spoo-horse/internal/handlers"
	"github.com/zophiezlan/spoo-horse/internal/middleware"
	"github.com/zophiezlan/spoo-horse/internal/ratelimit"
	"github.com/zophiezlan/spoo-horse/internal/shortener"
	"github.com/zophiezlan/spoo-horse/internal/store"
	"go.uber.org/zap"
)

const testAPIKey = "integration-secret"

func newRouter(t *testing.T) (*chi.Mux, *fixture) {
	t.Helper()

	f := newFixture(t)
	router := chi.NewMux()
	api := humachi.New(router, huma.DefaultConfig("Test", "1.0.0"))
	api.UseMiddleware(middleware.RequestMeta(api, testAPIKey))
	handlers.RegisterRoutes(api, f.handler)

	return router, f
}

func serve(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	return rec
}

func TestRoutes(t *testing.T) {
	t.Run("shorten then follow", func(t *testing.T) {
		router, f := newRouter(t)

		req := httptest.NewRequest(http.MethodPost, "/shorten",
			strings.NewReader(`{"url":"https://example.com/landing"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Forwarded-For", "198.51.100.4")

		rec := serve(router, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var body struct {
			Alias    string `json:"alias"`
			ShortURL string `json:"shortUrl"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, body.ShortURL, rec.Header().Get("Location"))

		stored, err := f.store.Get(context.Background(), body.Alias)
		require.NoError(t, err)
		assert.Equal(t, "198.51.100.4", stored.CreatorIP)

		rec = serve(router, httptest.NewRequest(http.MethodGet, "/"+body.Alias, nil))
		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "https://example.com/landing", rec.Header().Get("Location"))
		assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	})

	t.Run("static routes win over alias", func(t *testing.T) {
		router, f := newRouter(t)
		f.seed(t, &shortener.ShortLink{Alias: "📈", TargetURL: "https://example.com", TotalClicks: 2})

		rec := serve(router, httptest.NewRequest(http.MethodGet, "/leaderboard", nil))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var board struct {
			Links      []handlers.LeaderboardEntry `json:"links"`
			TotalLinks int64                       `json:"totalLinks"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &board))
		require.Len(t, board.Links, 1)
		assert.Equal(t, "📈", board.Links[0].Alias)
		assert.Equal(t, int64(1), board.TotalLinks)

		rec = serve(router, httptest.NewRequest(http.MethodGet, "/analytics", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("share reports authentication", func(t *testing.T) {
		router, _ := newRouter(t)

		req := httptest.NewRequest(http.MethodPost, "/api/integrations/share",
			strings.NewReader(`{"url":"https://example.com","config":"dark"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-API-Key", testAPIKey)

		rec := serve(router, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var body struct {
			Emojis        string `json:"emojis"`
			Authenticated bool   `json:"authenticated"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.True(t, body.Authenticated)
		assert.True(t, strings.HasPrefix(body.Emojis, "🌙"))
	})

	t.Run("stats of unknown alias", func(t *testing.T) {
		router, _ := newRouter(t)

		rec := serve(router, httptest.NewRequest(http.MethodGet, "/stats/%F0%9F%A6%84", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("leaderboard rejects out of range limit", func(t *testing.T) {
		router, _ := newRouter(t)

		rec := serve(router, httptest.NewRequest(http.MethodGet, "/leaderboard?limit=500", nil))
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}

func TestRoutes_ShareLimits(t *testing.T) {
	f := newFixture(t)
	router := chi.NewMux()
	api := humachi.New(router, huma.DefaultConfig("Test", "1.0.0"))
	api.UseMiddleware(middleware.RequestMeta(api, testAPIKey))
	api.UseMiddleware(middleware.PolicyRateLimiter(
		api,
		ratelimit.NewPolicyLimiter(store.NewRateLimitMemoryStore(), ratelimit.DefaultPolicy()),
		ratelimit.NewOperationScopeResolver(),
		zap.NewNop(),
	))
	handlers.RegisterRoutes(api, f.handler)

	share := func(apiKey string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/integrations/share",
			strings.NewReader(`{"url":"https://example.com","config":"dark"}`))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = "203.0.113.50:1234"

		if apiKey != "" {
			req.Header.Set(middleware.APIKeyHeader, apiKey)
		}

		return serve(router, req).Code
	}

	for range handlers.ShareLimits[0].Max {
		require.Equal(t, http.StatusCreated, share(""))
	}

	assert.Equal(t, http.StatusTooManyRequests, share(""))
	assert.Equal(t, http.StatusCreated, share(testAPIKey))
}
