package store

import "time"

// SetBeforeExec installs a hook that runs inside RedisStore.Update after its
// reads and before EXEC.
func (r *RedisStore) SetBeforeExec(fn func()) {
	r.beforeExec = fn
}

// SetClock replaces the clock LRUCacheRepository expires entries by.
func (r *LRUCacheRepository) SetClock(now func() time.Time) {
	r.now = now
}
