package store

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/serroba/golinks/internal/links"
)

type lruEntry struct {
	link    links.Link
	expires time.Time
}

// LRUCacheRepository wraps a Repository with an in-process LRU of links.
// Entries live for at most ttl, so writes made through another decorator
// over the same store show up once the entry expires.
type LRUCacheRepository struct {
	store links.Repository
	cache *lru.Cache
	ttl   time.Duration
	now   func() time.Time
}

// NewLRUCacheRepository creates a decorator that keeps up to size links in
// memory, each for at most ttl.
func NewLRUCacheRepository(store links.Repository, size int, ttl time.Duration) (*LRUCacheRepository, error) {
	if ttl <= 0 {
		return nil, fmt.Errorf("lru cache ttl must be positive, got %s", ttl)
	}

	cache, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("create lru cache: %w", err)
	}

	return &LRUCacheRepository{store: store, cache: cache, ttl: ttl, now: time.Now}, nil
}

// lookup returns the live entry for name, dropping it when expired.
func (r *LRUCacheRepository) lookup(name string, touch bool) (lruEntry, bool) {
	get := r.cache.Peek
	if touch {
		get = r.cache.Get
	}

	v, ok := get(name)
	if !ok {
		return lruEntry{}, false
	}

	entry, ok := v.(lruEntry)
	if !ok || !r.now().Before(entry.expires) {
		r.cache.Remove(name)

		return lruEntry{}, false
	}

	return entry, true
}

func (r *LRUCacheRepository) Get(ctx context.Context, name string) (*links.Link, error) {
	if entry, ok := r.lookup(name, true); ok {
		link := entry.link

		return &link, nil
	}

	link, err := r.store.Get(ctx, name)
	if err != nil {
		return nil, err
	}

	r.cache.Add(name, lruEntry{link: *link, expires: r.now().Add(r.ttl)})

	return link, nil
}

func (r *LRUCacheRepository) List(ctx context.Context) ([]links.Link, error) {
	return r.store.List(ctx)
}

func (r *LRUCacheRepository) IncrementCount(ctx context.Context, name string) error {
	if err := r.store.IncrementCount(ctx, name); err != nil {
		return err
	}

	if entry, ok := r.lookup(name, false); ok {
		entry.link.VisitCount++
		r.cache.Add(name, entry)
	}

	return nil
}

func (r *LRUCacheRepository) Create(ctx context.Context, name, url string) error {
	if err := r.store.Create(ctx, name, url); err != nil {
		return err
	}

	r.cache.Remove(name)

	return nil
}

func (r *LRUCacheRepository) Update(ctx context.Context, original, name, url string) (bool, error) {
	ok, err := r.store.Update(ctx, original, name, url)
	if err != nil {
		return false, err
	}

	r.cache.Remove(original)
	r.cache.Remove(name)

	return ok, nil
}

func (r *LRUCacheRepository) Delete(ctx context.Context, name string) error {
	if err := r.store.Delete(ctx, name); err != nil {
		return err
	}

	r.cache.Remove(name)

	return nil
}

var _ links.Repository = (*LRUCacheRepository)(nil)
