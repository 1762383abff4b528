package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/zophiezlan/spoo-horse/internal/handlers"
	"github.com/zophiezlan/spoo-horse/internal/middleware"
)

type testOutput struct {
	Body string `json:"body"`
}

const testAPIKey = "integration-secret"

// captureMeta serves one request and returns the metadata seen by the handler.
func captureMeta(t *testing.T, req *http.Request) handlers.RequestMeta {
	t.Helper()

	router := chi.NewMux()
	api := humachi.New(router, huma.DefaultConfig("Test", "1.0.0"))
	api.UseMiddleware(middleware.RequestMeta(api, testAPIKey))

	metaChan := make(chan handlers.RequestMeta, 1)

	huma.Get(api, "/test", func(ctx context.Context, _ *struct{}) (*testOutput, error) {
		metaChan <- handlers.RequestMetaFromContext(ctx)

		return &testOutput{Body: "ok"}, nil
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	return <-metaChan
}

func TestRequestMeta_Headers(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("User-Agent", "curl/8.5.0")
	req.Header.Set("Referer", "https://tsdice.example/share")

	meta := captureMeta(t, req)

	assert.Equal(t, "curl/8.5.0", meta.UserAgent)
	assert.Equal(t, "https://tsdice.example/share", meta.Referrer)
	assert.False(t, meta.Authenticated)
}

func TestRequestMeta_ClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"single forwarded hop", map[string]string{"X-Forwarded-For": "203.0.113.7"}, "", "203.0.113.7"},
		{"first of many forwarded hops", map[string]string{"X-Forwarded-For": " 203.0.113.7 , 10.0.0.1"}, "", "203.0.113.7"},
		{
			"forwarded wins over real ip",
			map[string]string{"X-Forwarded-For": "203.0.113.7", "X-Real-IP": "198.51.100.2"},
			"",
			"203.0.113.7",
		},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.2"}, "", "198.51.100.2"},
		{"ipv4 remote address", nil, "192.0.2.10:5555", "192.0.2.10"},
		{"ipv6 remote address", nil, "[2001:db8::1]:4321", "2001:db8::1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.remote != "" {
				req.RemoteAddr = tt.remote
			}

			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}

			assert.Equal(t, tt.want, captureMeta(t, req).ClientIP)
		})
	}
}

func TestRequestMeta_APIKey(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want bool
	}{
		{"matching key", testAPIKey, true},
		{"wrong key", "guess", false},
		{"prefix of key", testAPIKey[:5], false},
		{"missing key", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.key != "" {
				req.Header.Set(middleware.APIKeyHeader, tt.key)
			}

			assert.Equal(t, tt.want, captureMeta(t, req).Authenticated)
		})
	}
}
