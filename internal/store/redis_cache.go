package store

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/golinks/internal/links"
)

// RedisCacheRepository wraps a Repository with Redis caching for lookups.
type RedisCacheRepository struct {
	store  links.Repository
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCacheRepository creates a new Redis-cached repository decorator.
func NewRedisCacheRepository(store links.Repository, client *redis.Client, ttl time.Duration) *RedisCacheRepository {
	return &RedisCacheRepository{
		store:  store,
		client: client,
		prefix: "cache:link:",
		ttl:    ttl,
	}
}

// Get retrieves a link by name, checking the cache first.
func (r *RedisCacheRepository) Get(ctx context.Context, name string) (*links.Link, error) {
	if link, ok := r.getFromCache(ctx, name); ok {
		return link, nil
	}

	link, err := r.store.Get(ctx, name)
	if err != nil {
		return nil, err
	}

	r.cacheLink(ctx, link)

	return link, nil
}

// List always reads from the underlying store.
func (r *RedisCacheRepository) List(ctx context.Context) ([]links.Link, error) {
	return r.store.List(ctx)
}

// IncrementCount updates the store and bumps the cached count when present.
func (r *RedisCacheRepository) IncrementCount(ctx context.Context, name string) error {
	if err := r.store.IncrementCount(ctx, name); err != nil {
		return err
	}

	_ = incrementIfExists.Run(ctx, r.client, []string{r.prefix + name}).Err()

	return nil
}

func (r *RedisCacheRepository) Create(ctx context.Context, name, url string) error {
	if err := r.store.Create(ctx, name, url); err != nil {
		return err
	}

	r.evict(ctx, name)

	return nil
}

func (r *RedisCacheRepository) Update(ctx context.Context, original, name, url string) (bool, error) {
	ok, err := r.store.Update(ctx, original, name, url)
	if err != nil {
		return false, err
	}

	r.evict(ctx, original, name)

	return ok, nil
}

func (r *RedisCacheRepository) Delete(ctx context.Context, name string) error {
	if err := r.store.Delete(ctx, name); err != nil {
		return err
	}

	r.evict(ctx, name)

	return nil
}

func (r *RedisCacheRepository) getFromCache(ctx context.Context, name string) (*links.Link, bool) {
	result, err := r.client.HGetAll(ctx, r.prefix+name).Result()
	if err != nil || len(result) == 0 {
		return nil, false
	}

	count, _ := strconv.ParseInt(result["visit_count"], 10, 64)

	return &links.Link{
		Name:       result["name"],
		URL:        result["url"],
		VisitCount: count,
	}, true
}

func (r *RedisCacheRepository) cacheLink(ctx context.Context, link *links.Link) {
	pipe := r.client.Pipeline()
	key := r.prefix + link.Name

	pipe.HSet(ctx, key, map[string]interface{}{
		"name":        link.Name,
		"url":         link.URL,
		"visit_count": link.VisitCount,
	})

	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}

	_, _ = pipe.Exec(ctx)
}

func (r *RedisCacheRepository) evict(ctx context.Context, names ...string) {
	keys := make([]string, len(names))
	for i, name := range names {
		keys[i] = r.prefix + name
	}

	_ = r.client.Del(ctx, keys...).Err()
}

// Shutdown is a no-op for RedisCacheRepository (client managed externally).
func (r *RedisCacheRepository) Shutdown() error {
	return nil
}

// Compile-time check.
var _ links.Repository = (*RedisCacheRepository)(nil)
