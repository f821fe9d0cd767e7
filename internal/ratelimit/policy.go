package ratelimit

import "time"

// LimitConfig allows at most Max requests in any Window.
type LimitConfig struct {
	Window time.Duration
	Max    int64
}

// Policy maps scopes to the limits applied to every request in that scope.
type Policy struct {
	Limits map[Scope][]LimitConfig
}

// DefaultPolicy is the policy used for routes without their own limits.
func DefaultPolicy() *Policy {
	return &Policy{
		Limits: map[Scope][]LimitConfig{
			ScopeGlobal: {{Window: time.Minute, Max: 2000}},
			ScopeRead:   {{Window: time.Minute, Max: 1000}},
			ScopeWrite: {
				{Window: time.Minute, Max: 10},
				{Window: time.Hour, Max: 100},
				{Window: 24 * time.Hour, Max: 500},
			},
		},
	}
}

// WriteLimits are the limits for endpoints that create records.
func WriteLimits() []LimitConfig {
	return DefaultPolicy().Limits[ScopeWrite]
}

// ReadLimits are the limits for the redirect endpoint.
func ReadLimits() []LimitConfig {
	return DefaultPolicy().Limits[ScopeRead]
}
