package middleware

import (
	"crypto/subtle"
	"net"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/zophiezlan/spoo-horse/internal/handlers"
)

// APIKeyHeader carries the integration API key.
const APIKeyHeader = "X-API-Key"

// RequestMeta is a middleware that adds client IP, user-agent, referrer and
// integration authentication to the request context. An empty apiKey
// disables authentication.
func RequestMeta(_ huma.API, apiKey string) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		meta := handlers.RequestMeta{
			ClientIP:      clientIP(ctx),
			UserAgent:     ctx.Header("User-Agent"),
			Referrer:      ctx.Header("Referer"),
			Authenticated: validAPIKey(apiKey, ctx.Header(APIKeyHeader)),
		}

		newCtx := handlers.ContextWithRequestMeta(ctx.Context(), meta)
		ctx = huma.WithContext(ctx, newCtx)

		next(ctx)
	}
}

// clientIP prefers proxy headers over the connection address. Only the first
// X-Forwarded-For hop is used.
func clientIP(ctx huma.Context) string {
	if xff := ctx.Header("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")

		return strings.TrimSpace(first)
	}

	if xri := ctx.Header("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	addr := ctx.RemoteAddr()
	if addr == "" {
		addr = ctx.Host()
	}

	ip, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}

	return ip
}

func validAPIKey(expected, got string) bool {
	if expected == "" || got == "" {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(expected), []byte(got)) == 1
}
