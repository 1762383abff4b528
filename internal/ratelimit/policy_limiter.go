package ratelimit

import (
	"context"
	"fmt"
)

// ScopeCustom is reported when an endpoint's own limits are exceeded.
const ScopeCustom Scope = "custom"

// LimitExceeded describes the first limit a request broke.
type LimitExceeded struct {
	Scope  Scope
	Config LimitConfig
	Count  int64
}

// PolicyLimiter counts requests per client against a Policy.
type PolicyLimiter struct {
	store  Store
	policy *Policy
}

func NewPolicyLimiter(store Store, policy *Policy) *PolicyLimiter {
	return &PolicyLimiter{
		store:  store,
		policy: policy,
	}
}

// Allow records the request under every limit of scopes and returns the first
// one exceeded, nil when the request may proceed.
func (l *PolicyLimiter) Allow(ctx context.Context, clientKey string, scopes []Scope) (*LimitExceeded, error) {
	for _, scope := range scopes {
		exceeded, err := l.check(ctx, clientKey, scope, l.policy.Limits[scope])
		if exceeded != nil || err != nil {
			return exceeded, err
		}
	}

	return nil, nil
}

// AllowLimits is Allow for an explicit set of limits. route keeps the
// counters of different endpoints apart.
func (l *PolicyLimiter) AllowLimits(
	ctx context.Context, clientKey, route string, limits []LimitConfig,
) (*LimitExceeded, error) {
	return l.check(ctx, clientKey+":"+route, ScopeCustom, limits)
}

func (l *PolicyLimiter) check(
	ctx context.Context, clientKey string, scope Scope, limits []LimitConfig,
) (*LimitExceeded, error) {
	for _, limit := range limits {
		key := fmt.Sprintf("%s:%s:%d", clientKey, scope, limit.Window.Milliseconds())

		count, err := l.store.Record(ctx, key, limit.Window)
		if err != nil {
			return nil, fmt.Errorf("record %s request: %w", scope, err)
		}

		if count > limit.Max {
			return &LimitExceeded{Scope: scope, Config: limit, Count: count}, nil
		}
	}

	return nil, nil
}
