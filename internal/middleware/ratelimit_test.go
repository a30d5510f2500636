package middleware_test

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/serroba/golinks/internal/middleware"
	"github.com/serroba/golinks/internal/ratelimit"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

const (
	testHostAddr  = "192.168.1.1:12345"
	testUserAgent = "TestAgent/1.0"
)

var errMultipartNotSupported = errors.New("multipart not supported in mock")

func newTestAPI() huma.API {
	return humachi.New(chi.NewMux(), huma.DefaultConfig("Test", "1.0.0"))
}

type mockLimiter struct {
	allowed bool
	err     error
}

func (m *mockLimiter) Allow(_ context.Context, _ string) (bool, error) {
	return m.allowed, m.err
}

// mockHumaContext implements huma.Context for testing.
type mockHumaContext struct {
	headers    map[string]string
	respHeads  map[string]string
	remoteAddr string
	written    []byte
	statusCode int
	method     string
	operation  *huma.Operation
}

func newMockHumaContext() *mockHumaContext {
	return &mockHumaContext{
		headers:   make(map[string]string),
		respHeads: make(map[string]string),
		method:    "GET",
	}
}

func (m *mockHumaContext) Operation() *huma.Operation {
	return m.operation
}
func (m *mockHumaContext) Context() context.Context              { return context.Background() }
func (m *mockHumaContext) TLS() *tls.ConnectionState             { return nil }
func (m *mockHumaContext) Version() huma.ProtoVersion            { return huma.ProtoVersion{} }
func (m *mockHumaContext) Method() string                        { return m.method }
func (m *mockHumaContext) Host() string                          { return "go.example.com" }
func (m *mockHumaContext) RemoteAddr() string                    { return m.remoteAddr }
func (m *mockHumaContext) URL() url.URL                          { return url.URL{} }
func (m *mockHumaContext) Param(_ string) string                 { return "" }
func (m *mockHumaContext) Query(_ string) string                 { return "" }
func (m *mockHumaContext) Header(name string) string             { return m.headers[name] }
func (m *mockHumaContext) EachHeader(_ func(name, value string)) {}
func (m *mockHumaContext) BodyReader() io.Reader                 { return nil }
func (m *mockHumaContext) GetMultipartForm() (*multipart.Form, error) {
	return nil, errMultipartNotSupported
}
func (m *mockHumaContext) SetReadDeadline(_ time.Time) error { return nil }
func (m *mockHumaContext) SetStatus(code int)                { m.statusCode = code }
func (m *mockHumaContext) Status() int                       { return m.statusCode }
func (m *mockHumaContext) AppendHeader(_, _ string)          {}
func (m *mockHumaContext) SetHeader(k, v string)             { m.respHeads[k] = v }
func (m *mockHumaContext) BodyWriter() io.Writer             { return &mockBodyWriter{ctx: m} }

type mockBodyWriter struct {
	ctx *mockHumaContext
}

func (w *mockBodyWriter) Write(p []byte) (n int, err error) {
	w.ctx.written = append(w.ctx.written, p...)

	return len(p), nil
}

// mockPolicyStore is a mock store for testing PolicyRateLimiter.
type mockPolicyStore struct {
	counts map[string]int64
	err    error
}

func newMockPolicyStore() *mockPolicyStore {
	return &mockPolicyStore{counts: make(map[string]int64)}
}

func (m *mockPolicyStore) Record(_ context.Context, key string, _ time.Duration) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}

	m.counts[key]++

	return m.counts[key], nil
}

// mockScopeResolver is a mock resolver for testing.
type mockScopeResolver struct {
	scopes []ratelimit.Scope
}

func (m *mockScopeResolver) Resolve(_ huma.Context) []ratelimit.Scope {
	return m.scopes
}

// hit runs one request from the same client through mw and reports whether
// it reached the handler.
func hit(mw func(huma.Context, func(huma.Context)), op *huma.Operation) (*mockHumaContext, bool) {
	ctx := newMockHumaContext()
	ctx.remoteAddr = testHostAddr
	ctx.headers["User-Agent"] = testUserAgent
	ctx.operation = op

	passed := false
	mw(ctx, func(_ huma.Context) { passed = true })

	return ctx, passed
}

func withLimitConfig(path string, cfg ratelimit.EndpointConfig) *huma.Operation {
	return &huma.Operation{Path: path, Metadata: map[string]any{ratelimit.MetadataKey: cfg}}
}

func TestPolicyRateLimiter(t *testing.T) {
	oneGlobal := ratelimit.NewPolicyBuilder().AddLimit(ratelimit.ScopeGlobal, 1, time.Minute).Build()
	globalOnly := &mockScopeResolver{scopes: []ratelimit.Scope{ratelimit.ScopeGlobal}}

	newMW := func(store ratelimit.Store, policy *ratelimit.Policy, resolver ratelimit.ScopeResolver) func(huma.Context, func(huma.Context)) {
		return middleware.PolicyRateLimiter(newTestAPI(), ratelimit.NewPolicyLimiter(store, policy), resolver, zap.NewNop())
	}

	t.Run("rejects past the limit with Retry-After", func(t *testing.T) {
		mw := newMW(newMockPolicyStore(), oneGlobal, globalOnly)

		_, passed := hit(mw, nil)
		assert.True(t, passed)

		ctx, passed := hit(mw, nil)
		assert.False(t, passed)
		assert.Equal(t, http.StatusTooManyRequests, ctx.statusCode)
		assert.Equal(t, "60", ctx.respHeads["Retry-After"])
		assert.Contains(t, string(ctx.written), "global, 2/1 requests")
	})

	t.Run("scopes have separate budgets", func(t *testing.T) {
		store := newMockPolicyStore()
		policy := ratelimit.NewPolicyBuilder().
			AddLimit(ratelimit.ScopeRead, 3, time.Minute).
			AddLimit(ratelimit.ScopeWrite, 1, time.Minute).
			Build()
		reads := newMW(store, policy, &mockScopeResolver{scopes: []ratelimit.Scope{ratelimit.ScopeRead}})
		writes := newMW(store, policy, &mockScopeResolver{scopes: []ratelimit.Scope{ratelimit.ScopeWrite}})

		_, passed := hit(writes, nil)
		assert.True(t, passed)

		_, passed = hit(writes, nil)
		assert.False(t, passed)

		for range 3 {
			_, passed = hit(reads, nil)
			assert.True(t, passed, "reads are unaffected by the write budget")
		}
	})

	t.Run("store failure is a 500", func(t *testing.T) {
		store := newMockPolicyStore()
		store.err = errors.New("store error")

		ctx, passed := hit(newMW(store, oneGlobal, globalOnly), nil)

		assert.False(t, passed)
		assert.Equal(t, http.StatusInternalServerError, ctx.statusCode)
	})

	t.Run("disabled operations are never limited", func(t *testing.T) {
		mw := newMW(newMockPolicyStore(), oneGlobal, globalOnly)
		op := withLimitConfig("/health", ratelimit.EndpointConfig{Disabled: true})

		for range 3 {
			_, passed := hit(mw, op)
			assert.True(t, passed)
		}
	})

	t.Run("route limits replace the policy", func(t *testing.T) {
		generous := ratelimit.NewPolicyBuilder().AddLimit(ratelimit.ScopeGlobal, 100, time.Minute).Build()
		mw := newMW(newMockPolicyStore(), generous, globalOnly)
		op := withLimitConfig("/links", ratelimit.EndpointConfig{
			Limits: []ratelimit.LimitConfig{{Window: time.Hour, Max: 2}},
		})

		for range 2 {
			_, passed := hit(mw, op)
			assert.True(t, passed)
		}

		ctx, passed := hit(mw, op)
		assert.False(t, passed)
		assert.Equal(t, "3600", ctx.respHeads["Retry-After"])
		assert.Contains(t, string(ctx.written), "route /links")
	})

	t.Run("route limit store failure is a 500", func(t *testing.T) {
		store := newMockPolicyStore()
		store.err = errors.New("store error")
		op := withLimitConfig("/links", ratelimit.EndpointConfig{
			Limits: []ratelimit.LimitConfig{{Window: time.Minute, Max: 10}},
		})

		ctx, passed := hit(newMW(store, ratelimit.NewPolicyBuilder().Build(), globalOnly), op)

		assert.False(t, passed)
		assert.Equal(t, http.StatusInternalServerError, ctx.statusCode)
	})
}
