package ratelimit

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// Scope groups API calls that share a budget.
type Scope string

const (
	ScopeGlobal Scope = "global"
	ScopeRead   Scope = "read"
	ScopeWrite  Scope = "write"
)

// MetadataKey is the huma operation metadata key holding an EndpointConfig.
const MetadataKey = "rateLimit"

// EndpointConfig tunes rate limiting for one operation.
type EndpointConfig struct {
	// Scope replaces the scope derived from the HTTP method. Ignored when
	// Limits is set.
	Scope Scope
	// Limits replace the policy for this operation.
	Limits []LimitConfig
	// Disabled exempts the operation.
	Disabled bool
}

func configOf(op *huma.Operation) (EndpointConfig, bool) {
	if op == nil || op.Metadata == nil {
		return EndpointConfig{}, false
	}

	cfg, ok := op.Metadata[MetadataKey].(EndpointConfig)

	return cfg, ok
}

// ConfigFor returns the operation's EndpointConfig, or nil when it has none.
func ConfigFor(ctx huma.Context) *EndpointConfig {
	cfg, ok := configOf(ctx.Operation())
	if !ok {
		return nil
	}

	return &cfg
}

// ScopeResolver picks the scopes charged for a request.
type ScopeResolver interface {
	Resolve(ctx huma.Context) []Scope
}

// MethodScope classifies safe methods as reads and everything else as writes.
func MethodScope(method string) Scope {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return ScopeRead
	default:
		return ScopeWrite
	}
}

// OperationScopeResolver charges the global scope plus the operation's
// configured scope, falling back to MethodScope.
type OperationScopeResolver struct{}

func NewOperationScopeResolver() *OperationScopeResolver {
	return &OperationScopeResolver{}
}

func (OperationScopeResolver) Resolve(ctx huma.Context) []Scope {
	if cfg, ok := configOf(ctx.Operation()); ok && cfg.Scope != "" {
		return []Scope{ScopeGlobal, cfg.Scope}
	}

	return []Scope{ScopeGlobal, MethodScope(ctx.Method())}
}

var _ ScopeResolver = OperationScopeResolver{}
