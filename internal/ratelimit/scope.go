package ratelimit

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// Scope names a group of limits in a Policy.
type Scope string

const (
	// ScopeGlobal is resolved for every request.
	ScopeGlobal Scope = "global"
	// ScopeRead covers stats, leaderboard and other safe methods.
	ScopeRead Scope = "read"
	// ScopeWrite covers link creation.
	ScopeWrite Scope = "write"
	// ScopeRedirect covers visits of short links.
	ScopeRedirect Scope = "redirect"
)

// MetadataKey is the huma operation metadata key holding an EndpointConfig.
const MetadataKey = "rateLimit"

// EndpointConfig tunes rate limiting of a single operation.
//
// Disabled skips limiting. Non-empty Limits are enforced instead of the
// policy, keyed by the operation's route template. Otherwise Scope, when set,
// replaces the scope derived from the HTTP method.
type EndpointConfig struct {
	Scope    Scope
	Limits   []LimitConfig
	Disabled bool
}

// ScopeResolver determines which scopes apply to a request.
type ScopeResolver interface {
	Resolve(ctx huma.Context) []Scope
}

// ScopeForMethod classifies safe methods as reads and everything else as writes.
func ScopeForMethod(method string) Scope {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return ScopeRead
	default:
		return ScopeWrite
	}
}

// OperationScopeResolver resolves ScopeGlobal plus the operation's configured
// scope, falling back to ScopeForMethod.
type OperationScopeResolver struct{}

func NewOperationScopeResolver() *OperationScopeResolver {
	return &OperationScopeResolver{}
}

func (r *OperationScopeResolver) Resolve(ctx huma.Context) []Scope {
	scope := ScopeForMethod(ctx.Method())

	if cfg := EndpointConfigOf(ctx.Operation()); cfg != nil && cfg.Scope != "" {
		scope = cfg.Scope
	}

	return []Scope{ScopeGlobal, scope}
}

// EndpointConfigOf returns the EndpointConfig attached to op, or nil.
func EndpointConfigOf(op *huma.Operation) *EndpointConfig {
	if op == nil {
		return nil
	}

	cfg, ok := op.Metadata[MetadataKey].(EndpointConfig)
	if !ok {
		return nil
	}

	return &cfg
}
