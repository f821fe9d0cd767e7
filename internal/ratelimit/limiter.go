package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Exceeded describes the limit that rejected a request.
type Exceeded struct {
	Scope  Scope
	Config LimitConfig
	Count  int64
}

// RetryAfter is a conservative wait before the window can admit the client again.
func (e *Exceeded) RetryAfter() time.Duration {
	return e.Config.Window
}

// Error describes the exceeded limit.
func (e *Exceeded) Error() string {
	if e.Scope == "" {
		return fmt.Sprintf("rate limit exceeded: %d/%d requests in %s", e.Count, e.Config.Max, e.Config.Window)
	}

	return fmt.Sprintf("rate limit exceeded: %s scope, %d/%d requests in %s",
		e.Scope, e.Count, e.Config.Max, e.Config.Window)
}

// PolicyLimiter checks requests against a Policy, or against per-route limits when a route
// declares its own.
type PolicyLimiter struct {
	store  Store
	policy *Policy
}

// NewPolicyLimiter creates a limiter backed by store. A nil policy uses DefaultPolicy.
func NewPolicyLimiter(store Store, policy *Policy) *PolicyLimiter {
	if policy == nil {
		policy = DefaultPolicy()
	}

	return &PolicyLimiter{store: store, policy: policy}
}

// Allow records the request against every limit of every scope and reports the first one
// exceeded. A nil *Exceeded means the request is allowed.
func (l *PolicyLimiter) Allow(ctx context.Context, client string, scopes []Scope) (*Exceeded, error) {
	for _, scope := range scopes {
		for _, limit := range l.policy.Limits[scope] {
			key := fmt.Sprintf("%s:%s:%d", client, scope, limit.Window.Milliseconds())

			exceeded, err := l.record(ctx, key, scope, limit)
			if err != nil || exceeded != nil {
				return exceeded, err
			}
		}
	}

	return nil, nil
}

// AllowRoute applies limits declared by a route. Counters are per client and route template, so
// "/{code}" shares one budget across all codes.
func (l *PolicyLimiter) AllowRoute(ctx context.Context, client, route string, limits []LimitConfig) (*Exceeded, error) {
	for _, limit := range limits {
		key := fmt.Sprintf("%s:route:%s:%d", client, route, limit.Window.Milliseconds())

		exceeded, err := l.record(ctx, key, "", limit)
		if err != nil || exceeded != nil {
			return exceeded, err
		}
	}

	return nil, nil
}

func (l *PolicyLimiter) record(ctx context.Context, key string, scope Scope, limit LimitConfig) (*Exceeded, error) {
	count, err := l.store.Record(ctx, key, limit.Window)
	if err != nil {
		return nil, fmt.Errorf("record rate limit %s: %w", key, err)
	}

	if count > limit.Max {
		return &Exceeded{Scope: scope, Config: limit, Count: count}, nil
	}

	return nil, nil
}
