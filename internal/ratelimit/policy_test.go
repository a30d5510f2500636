package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/serroba/golinks/internal/ratelimit"
	"github.com/serroba/golinks/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicyBuilder(t *testing.T) {
	builder := ratelimit.NewPolicyBuilder().
		AddLimit(ratelimit.ScopeWrite, 2, time.Minute).
		AddLimit(ratelimit.ScopeWrite, 10, time.Hour)

	policy := builder.Build()
	builder.AddLimit(ratelimit.ScopeWrite, 1, time.Second)

	assert.Len(t, policy.Limits[ratelimit.ScopeWrite], 2, "built policies do not change with the builder")
	assert.Empty(t, policy.Limits[ratelimit.ScopeRead])
}

func TestPolicyLimiter_Allow(t *testing.T) {
	ctx := context.Background()
	policy := ratelimit.NewPolicyBuilder().
		AddLimit(ratelimit.ScopeGlobal, 5, time.Minute).
		AddLimit(ratelimit.ScopeWrite, 2, time.Minute).
		Build()

	t.Run("reports the exceeded limit", func(t *testing.T) {
		limiter := ratelimit.NewPolicyLimiter(store.NewRateLimitMemoryStore(), policy)
		scopes := []ratelimit.Scope{ratelimit.ScopeGlobal, ratelimit.ScopeWrite}

		for range 2 {
			allowed, exceeded, err := limiter.Allow(ctx, "client", scopes)
			require.NoError(t, err)
			assert.True(t, allowed)
			assert.Nil(t, exceeded)
		}

		allowed, exceeded, err := limiter.Allow(ctx, "client", scopes)

		require.NoError(t, err)
		assert.False(t, allowed)
		require.NotNil(t, exceeded)
		assert.Equal(t, ratelimit.ScopeWrite, exceeded.Scope)
		assert.Equal(t, int64(3), exceeded.Count)
		assert.Equal(t, int64(2), exceeded.Config.Max)
	})

	t.Run("scopes without limits are free", func(t *testing.T) {
		limiter := ratelimit.NewPolicyLimiter(store.NewRateLimitMemoryStore(), policy)

		for range 5 {
			allowed, _, err := limiter.Allow(ctx, "client", []ratelimit.Scope{ratelimit.ScopeRead})
			require.NoError(t, err)
			assert.True(t, allowed)
		}
	})

	t.Run("default policy admits a burst of reads", func(t *testing.T) {
		limiter := ratelimit.NewPolicyLimiter(store.NewRateLimitMemoryStore(), ratelimit.DefaultPolicy())

		allowed, _, err := limiter.Allow(ctx, "client", []ratelimit.Scope{ratelimit.ScopeGlobal, ratelimit.ScopeRead})

		require.NoError(t, err)
		assert.True(t, allowed)
	})
}
