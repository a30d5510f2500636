//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/golinks/internal/links"
	"github.com/serroba/golinks/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
)

type RedisSuite struct {
	suite.Suite
	ctx       context.Context
	container *tcredis.RedisContainer
	client    *redis.Client
}

func (s *RedisSuite) SetupSuite() {
	s.ctx = context.Background()

	container, err := tcredis.Run(s.ctx,
		"redis:7-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("Ready to accept connections").
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		s.T().Skipf("Redis container not available: %v", err)
	}

	s.container = container

	endpoint, err := container.Endpoint(s.ctx, "")
	s.Require().NoError(err)

	s.client = redis.NewClient(&redis.Options{Addr: endpoint})
	s.Require().NoError(s.client.Ping(s.ctx).Err())
}

func (s *RedisSuite) TearDownSuite() {
	if s.client != nil {
		_ = s.client.Close()
	}

	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func (s *RedisSuite) flush() {
	s.Require().NoError(s.client.FlushAll(s.ctx).Err())
}

func (s *RedisSuite) TestRedisStoreContract() {
	runRepositoryContract(s.T(), func(t *testing.T) links.Repository {
		t.Helper()
		s.flush()

		return store.NewRedisStore(s.client)
	})
}

func (s *RedisSuite) TestRedisCacheContract() {
	runRepositoryContract(s.T(), func(t *testing.T) links.Repository {
		t.Helper()
		s.flush()

		return store.NewRedisCacheRepository(store.NewMemoryStore(), s.client, time.Minute)
	})
}

func (s *RedisSuite) TestRedisCacheReadThrough() {
	s.flush()

	inner := &countingRepo{MemoryStore: store.NewMemoryStore()}
	cached := store.NewRedisCacheRepository(inner, s.client, time.Minute)
	t := s.T()

	require.NoError(t, cached.Create(s.ctx, "a", "https://a"))

	for range 3 {
		link, err := cached.Get(s.ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, "https://a", link.URL)
	}

	assert.Equal(t, 1, inner.gets, "repeated reads should hit the cache")

	require.NoError(t, cached.IncrementCount(s.ctx, "a"))

	link, err := cached.Get(s.ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, int64(1), link.VisitCount)

	ok, err := cached.Update(s.ctx, "a", "a", "https://b")
	require.NoError(t, err)
	require.True(t, ok)

	link, err = cached.Get(s.ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "https://b", link.URL)

	ttl := s.client.TTL(s.ctx, "cache:link:a").Val()
	assert.Positive(t, ttl)
}

func (s *RedisSuite) TestRateLimitRedisStore() {
	s.flush()

	rl := store.NewRateLimitRedisStore(s.client)
	t := s.T()

	for i := int64(1); i <= 3; i++ {
		count, err := rl.Record(s.ctx, "client", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, i, count)
	}

	count, err := rl.Record(s.ctx, "other", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	_, _ = rl.Record(s.ctx, "short", 50*time.Millisecond)
	time.Sleep(80 * time.Millisecond)

	count, err = rl.Record(s.ctx, "short", 50*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "expired entries should be pruned")
}

func (s *RedisSuite) TestRedisStoreUpdateRacingWrites() {
	s.Run("visit during a rename is retried, not a conflict", func() {
		s.flush()

		repo := store.NewRedisStore(s.client)
		s.Require().NoError(repo.Create(s.ctx, "docs", "https://docs"))

		bumps := 0

		repo.SetBeforeExec(func() {
			if bumps == 0 {
				bumps++
				s.Require().NoError(repo.IncrementCount(s.ctx, "docs"))
			}
		})

		ok, err := repo.Update(s.ctx, "docs", "wiki", "https://wiki")

		s.Require().NoError(err)
		s.True(ok)

		link, err := repo.Get(s.ctx, "wiki")
		s.Require().NoError(err)
		s.Equal("https://wiki", link.URL)
		s.Equal(int64(1), link.VisitCount)

		_, err = repo.Get(s.ctx, "docs")
		s.ErrorIs(err, links.ErrNotFound)
	})

	s.Run("original deleted mid-rename reports false", func() {
		s.flush()

		repo := store.NewRedisStore(s.client)
		s.Require().NoError(repo.Create(s.ctx, "docs", "https://docs"))

		deleted := false

		repo.SetBeforeExec(func() {
			if !deleted {
				deleted = true
				s.Require().NoError(s.client.Del(s.ctx, "link:docs").Err())
			}
		})

		ok, err := repo.Update(s.ctx, "docs", "wiki", "https://wiki")

		s.Require().NoError(err)
		s.False(ok)
	})
}

func TestRedisSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	suite.Run(t, new(RedisSuite))
}
