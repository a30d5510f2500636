package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	_ "github.com/tursodatabase/libsql-client-go/libsql" // libsql:// driver
	"go.uber.org/zap"
)

// ConnectOptions controls how long startup waits for a backing service.
type ConnectOptions struct {
	Attempts uint
	Delay    time.Duration
}

// DefaultConnectOptions retries for roughly ten seconds.
var DefaultConnectOptions = ConnectOptions{Attempts: 10, Delay: 500 * time.Millisecond}

func (o ConnectOptions) retry(ctx context.Context, logger *zap.Logger, what string, fn func() error) error {
	return retry.Do(
		fn,
		retry.Context(ctx),
		retry.Attempts(o.Attempts),
		retry.Delay(o.Delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logger.Warn("waiting for "+what, zap.Uint("attempt", n+1), zap.Error(err))
		}),
	)
}

// OpenPostgres creates a pool and waits until the database answers.
func OpenPostgres(ctx context.Context, databaseURL string, opts ConnectOptions, logger *zap.Logger) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}

	if err := opts.retry(ctx, logger, "postgres", func() error { return pool.Ping(ctx) }); err != nil {
		pool.Close()

		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	return pool, nil
}

// OpenSQL opens a libSQL database for libsql:// and https:// URLs and a local
// SQLite file otherwise.
func OpenSQL(ctx context.Context, dsn string, opts ConnectOptions, logger *zap.Logger) (*sql.DB, error) {
	driver := "sqlite3"
	if strings.HasPrefix(dsn, "libsql://") || strings.HasPrefix(dsn, "https://") {
		driver = "libsql"
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	if driver == "sqlite3" {
		_, _ = db.ExecContext(ctx, "PRAGMA journal_mode=WAL;")
		_, _ = db.ExecContext(ctx, "PRAGMA synchronous=NORMAL;")
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if err := opts.retry(ctx, logger, driver, func() error { return db.PingContext(ctx) }); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}

	logger.Info("sql store opened", zap.String("driver", driver))

	return db, nil
}

// OpenRedis creates a client and waits until Redis answers.
func OpenRedis(ctx context.Context, addr string, opts ConnectOptions, logger *zap.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	if err := opts.retry(ctx, logger, "redis", func() error { return client.Ping(ctx).Err() }); err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("connect redis: %w", err)
	}

	return client, nil
}
