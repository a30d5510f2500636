package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

type bucket struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64
}

// TokenBucketLimiter allows bursts of up to limit requests per key and refills
// at limit/per. Buckets live in process memory.
type TokenBucketLimiter struct {
	rate         rate.Limit
	burst        int
	cleanupAfter time.Duration
	buckets      sync.Map
}

// NewTokenBucketLimiter creates a limiter admitting limit requests per interval per key.
func NewTokenBucketLimiter(limit int, per time.Duration) *TokenBucketLimiter {
	return &TokenBucketLimiter{
		rate:         rate.Limit(float64(limit) / per.Seconds()),
		burst:        limit,
		cleanupAfter: 3 * time.Minute,
	}
}

func (l *TokenBucketLimiter) Allow(_ context.Context, key string) (bool, error) {
	b := l.bucketFor(key)
	b.lastSeen.Store(time.Now().UnixNano())

	return b.limiter.Allow(), nil
}

func (l *TokenBucketLimiter) bucketFor(key string) *bucket {
	if v, ok := l.buckets.Load(key); ok {
		return v.(*bucket)
	}

	b := &bucket{limiter: rate.NewLimiter(l.rate, l.burst)}
	b.lastSeen.Store(time.Now().UnixNano())

	actual, _ := l.buckets.LoadOrStore(key, b)

	return actual.(*bucket)
}

// Sweep drops buckets idle for longer than the cleanup interval.
func (l *TokenBucketLimiter) Sweep() {
	cutoff := time.Now().Add(-l.cleanupAfter).UnixNano()

	l.buckets.Range(func(k, v any) bool {
		if v.(*bucket).lastSeen.Load() < cutoff {
			l.buckets.Delete(k)
		}

		return true
	})
}

// Run sweeps idle buckets every minute until ctx is done.
func (l *TokenBucketLimiter) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Sweep()
		}
	}
}

var _ Limiter = (*TokenBucketLimiter)(nil)
