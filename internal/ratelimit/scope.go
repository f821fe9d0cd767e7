package ratelimit

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// Scope groups requests that share a default budget.
type Scope string

const (
	ScopeGlobal Scope = "global"
	ScopeRead   Scope = "read"
	ScopeWrite  Scope = "write"
)

// MetadataKey is the huma.Operation metadata key holding an EndpointConfig.
const MetadataKey = "rateLimit"

// EndpointConfig is attached to an operation to override the default policy.
type EndpointConfig struct {
	// Scope replaces method-based detection. Ignored when Limits is set.
	Scope Scope
	// Limits replaces the policy entirely for this route.
	Limits []LimitConfig
	// Disabled exempts the route, e.g. health checks.
	Disabled bool
}

// ScopesForMethod classifies safe methods as reads and everything else as writes.
func ScopesForMethod(method string) []Scope {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return []Scope{ScopeGlobal, ScopeRead}
	default:
		return []Scope{ScopeGlobal, ScopeWrite}
	}
}

// Scopes returns the policy scopes for a request to op, honouring the operation's Scope override.
func Scopes(op *huma.Operation, method string) []Scope {
	if cfg := EndpointConfigFrom(op); cfg != nil && cfg.Scope != "" {
		return []Scope{ScopeGlobal, cfg.Scope}
	}

	return ScopesForMethod(method)
}

// EndpointConfigFrom extracts the rate limit metadata of op, or nil.
func EndpointConfigFrom(op *huma.Operation) *EndpointConfig {
	if op == nil || op.Metadata == nil {
		return nil
	}

	cfg, ok := op.Metadata[MetadataKey].(EndpointConfig)
	if !ok {
		return nil
	}

	return &cfg
}
