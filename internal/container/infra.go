package container

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/serroba/golinks/internal/store"
	"go.uber.org/zap"
)

// Lifecycle carries the context background loops run under. The injector
// cancels it on shutdown.
type Lifecycle struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// Go runs fn in the background until shutdown.
func (l *Lifecycle) Go(fn func(ctx context.Context)) {
	go fn(l.ctx)
}

func (l *Lifecycle) Shutdown() error {
	l.cancel()

	return nil
}

// redisService owns the shared client so shutdown closes it once.
type redisService struct {
	client *redis.Client
}

func (s *redisService) Shutdown() error {
	return s.client.Close()
}

// NewLogger builds a production JSON logger or a development console logger.
func NewLogger(format string) (*zap.Logger, error) {
	if format == "json" {
		return zap.NewProduction()
	}

	return zap.NewDevelopment()
}

// LoggerPackage provides the validated options' logger and the lifecycle.
func LoggerPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*zap.Logger, error) {
		opts := do.MustInvoke[*Options](i)
		if err := opts.Validate(); err != nil {
			return nil, err
		}

		return NewLogger(opts.LogFormat)
	})

	do.Provide(i, func(_ *do.Injector) (*Lifecycle, error) {
		ctx, cancel := context.WithCancel(context.Background())

		return &Lifecycle{ctx: ctx, cancel: cancel}, nil
	})
}

// RedisPackage provides a Redis client. Startup waits for the server to answer.
func RedisPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*redisService, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		client, err := store.OpenRedis(context.Background(), opts.RedisAddr, store.DefaultConnectOptions, logger)
		if err != nil {
			return nil, err
		}

		return &redisService{client: client}, nil
	})

	do.Provide(i, func(i *do.Injector) (*redis.Client, error) {
		svc, err := do.Invoke[*redisService](i)
		if err != nil {
			return nil, err
		}

		return svc.client, nil
	})
}
