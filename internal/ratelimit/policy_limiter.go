package ratelimit

import (
	"context"
	"fmt"
)

// LimitExceeded describes the first limit a request ran into.
type LimitExceeded struct {
	Scope  Scope
	Config LimitConfig
	Count  int64
}

// PolicyLimiter charges a request against every limit of every scope it
// falls under. Each client, scope and window has its own counter.
type PolicyLimiter struct {
	store  Store
	policy *Policy
}

func NewPolicyLimiter(store Store, policy *Policy) *PolicyLimiter {
	return &PolicyLimiter{store: store, policy: policy}
}

// Allow stops at the first exceeded limit; counters checked before it keep
// the hit.
func (l *PolicyLimiter) Allow(ctx context.Context, clientKey string, scopes []Scope) (bool, *LimitExceeded, error) {
	for _, scope := range scopes {
		for _, limit := range l.policy.Limits[scope] {
			count, err := l.store.Record(ctx, counterKey(clientKey, scope, limit), limit.Window)
			if err != nil {
				return false, nil, err
			}

			if count > limit.Max {
				return false, &LimitExceeded{Scope: scope, Config: limit, Count: count}, nil
			}
		}
	}

	return true, nil, nil
}

// AllowRoute charges a request against limits that belong to one route
// instead of the policy. LimitExceeded.Scope names the route.
func (l *PolicyLimiter) AllowRoute(ctx context.Context, clientKey, route string, limits []LimitConfig) (bool, *LimitExceeded, error) {
	scope := Scope("route " + route)

	for _, limit := range limits {
		count, err := l.store.Record(ctx, counterKey(clientKey, scope, limit), limit.Window)
		if err != nil {
			return false, nil, err
		}

		if count > limit.Max {
			return false, &LimitExceeded{Scope: scope, Config: limit, Count: count}, nil
		}
	}

	return true, nil, nil
}

func counterKey(clientKey string, scope Scope, limit LimitConfig) string {
	return fmt.Sprintf("api:%s:%s:%d", clientKey, scope, limit.Window.Milliseconds())
}
