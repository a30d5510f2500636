package store

import (
	"context"
	"sync"
	"time"

	"github.com/serroba/golinks/internal/ratelimit"
)

type hitLog struct {
	hits   []time.Time
	window time.Duration
}

// prune drops hits older than the window relative to now.
func (h *hitLog) prune(now time.Time) {
	cutoff := now.Add(-h.window)

	i := 0
	for i < len(h.hits) && !h.hits[i].After(cutoff) {
		i++
	}

	h.hits = h.hits[i:]
}

// RateLimitMemoryStore is an in-memory implementation of ratelimit.Store for
// single-instance deployments.
type RateLimitMemoryStore struct {
	mu   sync.Mutex
	logs map[string]*hitLog
	now  func() time.Time
}

// NewRateLimitMemoryStore creates a new in-memory rate limit store.
func NewRateLimitMemoryStore() *RateLimitMemoryStore {
	return &RateLimitMemoryStore{
		logs: make(map[string]*hitLog),
		now:  time.Now,
	}
}

func (s *RateLimitMemoryStore) Record(_ context.Context, key string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	log, ok := s.logs[key]
	if !ok {
		log = &hitLog{}
		s.logs[key] = log
	}

	log.window = window
	log.prune(now)
	log.hits = append(log.hits, now)

	return int64(len(log.hits)), nil
}

// Sweep forgets keys whose every hit has left its window and returns how many were removed.
func (s *RateLimitMemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0

	for key, log := range s.logs {
		log.prune(now)

		if len(log.hits) == 0 {
			delete(s.logs, key)
			removed++
		}
	}

	return removed
}

// Run sweeps every interval until ctx is done.
func (s *RateLimitMemoryStore) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

var _ ratelimit.Store = (*RateLimitMemoryStore)(nil)
