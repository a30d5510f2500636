package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/avast/retry-go"
	"github.com/redis/go-redis/v9"
	"github.com/serroba/golinks/internal/links"
)

// incrementIfExists keeps IncrementCount from creating hashes for unknown names.
var incrementIfExists = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
	return redis.call('HINCRBY', KEYS[1], 'visit_count', 1)
end
return 0
`)

// RedisStore is a Redis implementation of links.Repository.
type RedisStore struct {
	client   *redis.Client
	prefix   string // "link:" for name->{url, visit_count} hashes
	indexKey string // "links" set of every stored name

	txAttempts uint
	// beforeExec runs inside a rename transaction between its reads and EXEC.
	beforeExec func()
}

// NewRedisStore creates a new Redis-backed link store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client:   client,
		prefix:   "link:",
		indexKey: "links",

		txAttempts: 10,
	}
}

func (r *RedisStore) key(name string) string {
	return r.prefix + name
}

func (r *RedisStore) Get(ctx context.Context, name string) (*links.Link, error) {
	fields, err := r.client.HGetAll(ctx, r.key(name)).Result()
	if err != nil {
		return nil, err
	}

	if len(fields) == 0 {
		return nil, links.ErrNotFound
	}

	return linkFromHash(name, fields), nil
}

func (r *RedisStore) List(ctx context.Context) ([]links.Link, error) {
	names, err := r.client.SMembers(ctx, r.indexKey).Result()
	if err != nil {
		return nil, err
	}

	pipe := r.client.Pipeline()

	cmds := make([]*redis.MapStringStringCmd, len(names))
	for i, name := range names {
		cmds[i] = pipe.HGetAll(ctx, r.key(name))
	}

	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}

	all := make([]links.Link, 0, len(names))

	for i, cmd := range cmds {
		if fields := cmd.Val(); len(fields) > 0 {
			all = append(all, *linkFromHash(names[i], fields))
		}
	}

	return all, nil
}

func (r *RedisStore) IncrementCount(ctx context.Context, name string) error {
	return incrementIfExists.Run(ctx, r.client, []string{r.key(name)}).Err()
}

func (r *RedisStore) Create(ctx context.Context, name, url string) error {
	key := r.key(name)

	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}

		if n > 0 {
			return links.ErrDuplicateName
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, "url", url, "visit_count", 0)
			pipe.SAdd(ctx, r.indexKey, name)

			return nil
		})

		return err
	}, key)

	// A concurrent writer touched the key first.
	if errors.Is(err, redis.TxFailedErr) {
		return links.ErrDuplicateName
	}

	return err
}

// Update renames or repoints original. A transaction aborted because a
// watched key changed, e.g. by a visit count bump, is retried from the read;
// only a missing original reports false.
func (r *RedisStore) Update(ctx context.Context, original, name, url string) (bool, error) {
	origKey, newKey := r.key(original), r.key(name)

	var updated bool

	attempt := func(tx *redis.Tx) error {
		updated = false

		fields, err := tx.HGetAll(ctx, origKey).Result()
		if err != nil {
			return err
		}

		if len(fields) == 0 {
			return nil
		}

		if name != original {
			n, err := tx.Exists(ctx, newKey).Result()
			if err != nil {
				return err
			}

			if n > 0 {
				return links.ErrDuplicateName
			}
		}

		if r.beforeExec != nil {
			r.beforeExec()
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if name != original {
				pipe.Del(ctx, origKey)
				pipe.SRem(ctx, r.indexKey, original)
				pipe.SAdd(ctx, r.indexKey, name)
			}

			pipe.HSet(ctx, newKey, "url", url, "visit_count", fields["visit_count"])

			return nil
		})
		if err == nil {
			updated = true
		}

		return err
	}

	err := retry.Do(
		func() error { return r.client.Watch(ctx, attempt, origKey, newKey) },
		retry.Context(ctx),
		retry.Attempts(r.txAttempts),
		retry.Delay(5*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool { return errors.Is(err, redis.TxFailedErr) }),
	)
	if err != nil {
		return false, fmt.Errorf("update %s: %w", original, err)
	}

	return updated, nil
}

func (r *RedisStore) Delete(ctx context.Context, name string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.key(name))
		pipe.SRem(ctx, r.indexKey, name)

		return nil
	})

	return err
}

func linkFromHash(name string, fields map[string]string) *links.Link {
	count, _ := strconv.ParseInt(fields["visit_count"], 10, 64)

	return &links.Link{
		Name:       name,
		URL:        fields["url"],
		VisitCount: count,
	}
}

var _ links.Repository = (*RedisStore)(nil)
