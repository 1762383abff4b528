package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"

	"github.com/danielgtaylor/huma/v2"
	"github.com/zophiezlan/spoo-horse/internal/handlers"
	"github.com/zophiezlan/spoo-horse/internal/ratelimit"
	"go.uber.org/zap"
)

type rateLimit struct {
	api      huma.API
	limiter  *ratelimit.PolicyLimiter
	resolver ratelimit.ScopeResolver
	logger   *zap.Logger
}

// PolicyRateLimiter returns a Huma middleware that applies policy-based rate
// limiting per client, a client being its IP and user-agent.
//
// Requests carrying a valid integration API key (see RequestMeta) are never
// limited. An operation can tune its limits through ratelimit.MetadataKey:
//   - Disabled: true skips limiting
//   - Limits replaces the policy with endpoint specific windows
//   - Scope replaces the scope derived from the HTTP method
func PolicyRateLimiter(
	api huma.API,
	limiter *ratelimit.PolicyLimiter,
	resolver ratelimit.ScopeResolver,
	logger *zap.Logger,
) func(ctx huma.Context, next func(huma.Context)) {
	rl := &rateLimit{
		api:      api,
		limiter:  limiter,
		resolver: resolver,
		logger:   logger,
	}

	return rl.handle
}

func (rl *rateLimit) handle(ctx huma.Context, next func(huma.Context)) {
	meta := handlers.RequestMetaFromContext(ctx.Context())
	if meta.Authenticated {
		next(ctx)

		return
	}

	op := ctx.Operation()
	cfg := ratelimit.EndpointConfigOf(op)

	if cfg != nil && cfg.Disabled {
		next(ctx)

		return
	}

	key := clientKey(ctx, meta)

	exceeded, err := rl.limiter.Allow(ctx.Context(), key, rl.resolver.Resolve(ctx))

	// Endpoint limits apply on top of the scopes, keyed by route template.
	if exceeded == nil && err == nil && cfg != nil && len(cfg.Limits) > 0 && op != nil {
		exceeded, err = rl.limiter.AllowLimits(ctx.Context(), key, op.Path, cfg.Limits)
	}

	if err != nil {
		rl.logger.Error("rate limit check failed", zap.String("path", operationPath(op)), zap.Error(err))
		_ = huma.WriteErr(rl.api, ctx, http.StatusInternalServerError, "internal server error", err)

		return
	}

	if exceeded != nil {
		rl.reject(ctx, op, meta, exceeded)

		return
	}

	next(ctx)
}

func (rl *rateLimit) reject(
	ctx huma.Context, op *huma.Operation, meta handlers.RequestMeta, exceeded *ratelimit.LimitExceeded,
) {
	rl.logger.Warn("rate limit exceeded",
		zap.String("path", operationPath(op)),
		zap.String("method", ctx.Method()),
		zap.String("scope", string(exceeded.Scope)),
		zap.Int64("count", exceeded.Count),
		zap.Int64("max", exceeded.Config.Max),
		zap.Duration("window", exceeded.Config.Window),
		zap.String("client_ip", meta.ClientIP),
	)

	ctx.SetHeader("Retry-After", strconv.Itoa(int(exceeded.Config.Window.Seconds())))

	msg := fmt.Sprintf("rate limit exceeded: %s scope, %d/%d requests in %s",
		exceeded.Scope, exceeded.Count, exceeded.Config.Max, exceeded.Config.Window)
	_ = huma.WriteErr(rl.api, ctx, http.StatusTooManyRequests, msg)
}

// clientKey hashes the client IP and user-agent. The request metadata is
// used when present, the raw request otherwise.
func clientKey(ctx huma.Context, meta handlers.RequestMeta) string {
	ip, ua := meta.ClientIP, meta.UserAgent
	if ip == "" {
		ip = clientIP(ctx)
		ua = ctx.Header("User-Agent")
	}

	hash := sha256.Sum256([]byte(ip + "|" + ua))

	return hex.EncodeToString(hash[:])
}

func operationPath(op *huma.Operation) string {
	if op == nil {
		return ""
	}

	return op.Path
}
