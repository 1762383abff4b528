package ratelimit

import "time"

// LimitConfig allows at most Max requests per Window.
type LimitConfig struct {
	Window time.Duration
	Max    int64
}

// Policy maps each scope to the limits enforced on it. Every limit of every
// resolved scope must pass for a request to be allowed.
type Policy struct {
	Limits map[Scope][]LimitConfig
}

// PolicyBuilder assembles a Policy.
type PolicyBuilder struct {
	policy *Policy
}

// NewPolicyBuilder starts an empty policy.
func NewPolicyBuilder() *PolicyBuilder {
	return &PolicyBuilder{policy: &Policy{Limits: make(map[Scope][]LimitConfig)}}
}

// AddLimit allows max requests per window on scope. Non-positive values are ignored.
func (b *PolicyBuilder) AddLimit(scope Scope, max int64, window time.Duration) *PolicyBuilder {
	if max <= 0 || window <= 0 {
		return b
	}

	b.policy.Limits[scope] = append(b.policy.Limits[scope], LimitConfig{Window: window, Max: max})

	return b
}

// Build returns the assembled policy.
func (b *PolicyBuilder) Build() *Policy {
	return b.policy
}

// DefaultPolicy is the policy used by the server. Writes create links and
// are limited far more strictly than redirects.
func DefaultPolicy() *Policy {
	return NewPolicyBuilder().
		AddLimit(ScopeGlobal, 1200, time.Minute).
		AddLimit(ScopeRead, 600, time.Minute).
		AddLimit(ScopeRedirect, 1000, time.Minute).
		AddLimit(ScopeWrite, 10, time.Minute).
		AddLimit(ScopeWrite, 100, time.Hour).
		AddLimit(ScopeWrite, 500, 24*time.Hour).
		Build()
}
