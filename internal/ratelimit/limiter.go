package ratelimit

import (
	"context"
	"time"
)

// Limiter admits or rejects a request identified by key.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Store counts hits per key over a trailing window.
type Store interface {
	// Record adds a hit for key and returns the hits within the last window,
	// the new one included.
	Record(ctx context.Context, key string, window time.Duration) (int64, error)
}

// SlidingWindowLimiter admits at most limit hits per key in any window. Its
// counters live in the Store, so a Redis store shares them across instances.
type SlidingWindowLimiter struct {
	store  Store
	prefix string
	limit  int64
	window time.Duration
}

// NewSlidingWindowLimiter prefixes every key with prefix so several limiters
// can share one store.
func NewSlidingWindowLimiter(store Store, prefix string, limit int64, window time.Duration) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		store:  store,
		prefix: prefix,
		limit:  limit,
		window: window,
	}
}

func (l *SlidingWindowLimiter) Allow(ctx context.Context, key string) (bool, error) {
	count, err := l.store.Record(ctx, l.prefix+key, l.window)
	if err != nil {
		return false, err
	}

	return count <= l.limit, nil
}

var _ Limiter = (*SlidingWindowLimiter)(nil)
