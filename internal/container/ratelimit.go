package container

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/serroba/golinks/internal/ratelimit"
	"github.com/serroba/golinks/internal/store"
)

// RateLimitPackage provides the API policy limiter and the redirect throttle.
// In-memory state is swept in the background until shutdown.
func RateLimitPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (ratelimit.Store, error) {
		opts := do.MustInvoke[*Options](i)

		if opts.RateLimitStore == StorageRedis {
			client, err := do.Invoke[*redis.Client](i)
			if err != nil {
				return nil, err
			}

			return store.NewRateLimitRedisStore(client), nil
		}

		s := store.NewRateLimitMemoryStore()
		do.MustInvoke[*Lifecycle](i).Go(func(ctx context.Context) { s.Run(ctx, time.Minute) })

		return s, nil
	})

	do.Provide(i, func(i *do.Injector) (*ratelimit.PolicyLimiter, error) {
		s, err := do.Invoke[ratelimit.Store](i)
		if err != nil {
			return nil, err
		}

		return ratelimit.NewPolicyLimiter(s, ratelimit.DefaultPolicy()), nil
	})

	// Redirects are throttled in process unless the counters are shared
	// through Redis.
	do.Provide(i, func(i *do.Injector) (ratelimit.Limiter, error) {
		opts := do.MustInvoke[*Options](i)

		if opts.RateLimitStore == StorageRedis {
			s, err := do.Invoke[ratelimit.Store](i)
			if err != nil {
				return nil, err
			}

			return ratelimit.NewSlidingWindowLimiter(s, "redirect:", int64(opts.RedirectRate), time.Second), nil
		}

		limiter := ratelimit.NewTokenBucketLimiter(opts.RedirectRate, time.Second)
		do.MustInvoke[*Lifecycle](i).Go(limiter.Run)

		return limiter, nil
	})
}
