package container

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/serroba/golinks/internal/audit"
	"github.com/serroba/golinks/internal/auth"
	"github.com/serroba/golinks/internal/health"
	"github.com/serroba/golinks/internal/links"
	"github.com/serroba/golinks/internal/messaging"
	"github.com/serroba/golinks/internal/store"
	"go.uber.org/zap"
)

// Backend is the configured link store before any cache is put in front of it.
type Backend struct {
	links.Repository
	// Audit is nil when the store keeps no audit trail.
	Audit links.AuditLog
	// Ping is nil for the in-process store.
	Ping health.Checker
}

// PostgresPackage provides the PostgreSQL store with its schema applied.
func PostgresPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*store.PostgresStore, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		pool, err := store.OpenPostgres(context.Background(), opts.DatabaseURL, store.DefaultConnectOptions, logger)
		if err != nil {
			return nil, err
		}

		if err := store.MigratePostgres(opts.DatabaseURL, logger); err != nil {
			pool.Close()

			return nil, err
		}

		return store.NewPostgresStore(pool), nil
	})
}

// SQLitePackage provides the SQLite or libSQL store with its schema applied.
func SQLitePackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*store.SQLStore, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		db, err := store.OpenSQL(context.Background(), opts.DatabaseFile, store.DefaultConnectOptions, logger)
		if err != nil {
			return nil, err
		}

		if err := store.MigrateSQLite(db, logger); err != nil {
			_ = db.Close()

			return nil, err
		}

		return store.NewSQLStore(db), nil
	})
}

func newBackend(i *do.Injector) (*Backend, error) {
	opts := do.MustInvoke[*Options](i)

	switch opts.Storage {
	case StoragePostgres:
		s, err := do.Invoke[*store.PostgresStore](i)
		if err != nil {
			return nil, err
		}

		return &Backend{Repository: s, Audit: s, Ping: s}, nil
	case StorageSQLite:
		s, err := do.Invoke[*store.SQLStore](i)
		if err != nil {
			return nil, err
		}

		return &Backend{Repository: s, Audit: s, Ping: s}, nil
	case StorageRedis:
		client, err := do.Invoke[*redis.Client](i)
		if err != nil {
			return nil, err
		}

		return &Backend{Repository: store.NewRedisStore(client), Ping: health.NewRedisChecker(client)}, nil
	default:
		s := store.NewMemoryStore()

		return &Backend{Repository: s, Audit: s}, nil
	}
}

func newRepository(i *do.Injector) (links.Repository, error) {
	opts := do.MustInvoke[*Options](i)

	backend, err := do.Invoke[*Backend](i)
	if err != nil {
		return nil, err
	}

	switch opts.Cache {
	case CacheRedis:
		client, err := do.Invoke[*redis.Client](i)
		if err != nil {
			return nil, err
		}

		return store.NewRedisCacheRepository(backend.Repository, client, opts.CacheTTL()), nil
	case CacheLRU:
		return store.NewLRUCacheRepository(backend.Repository, opts.CacheSize, opts.CacheTTL())
	default:
		return backend.Repository, nil
	}
}

func newAuditLog(i *do.Injector) (links.AuditLog, error) {
	opts := do.MustInvoke[*Options](i)
	sinks := audit.Tee{audit.NewLogSink(do.MustInvoke[*zap.Logger](i))}

	switch opts.AuditSink {
	case AuditStore:
		backend, err := do.Invoke[*Backend](i)
		if err != nil {
			return nil, err
		}

		if backend.Audit == nil {
			return nil, fmt.Errorf("%s storage keeps no audit trail", opts.Storage)
		}

		sinks = append(sinks, backend.Audit)
	case AuditStream, AuditChannel:
		group, err := do.Invoke[*messaging.PublisherGroup](i)
		if err != nil {
			return nil, err
		}

		sinks = append(sinks, audit.NewStreamPublisher(group.Publisher()))
	}

	return sinks, nil
}

// RepositoryPackage provides the link store, its caches, the audit trail and
// the link services built on them.
func RepositoryPackage(i *do.Injector) {
	do.Provide(i, newBackend)
	do.Provide(i, newRepository)
	do.Provide(i, newAuditLog)

	do.Provide(i, func(i *do.Injector) (*links.Service, error) {
		repo, err := do.Invoke[links.Repository](i)
		if err != nil {
			return nil, err
		}

		auditLog, err := do.Invoke[links.AuditLog](i)
		if err != nil {
			return nil, err
		}

		return links.NewService(repo, auditLog, do.MustInvoke[*zap.Logger](i), links.WithActor(signedInEmail)), nil
	})

	do.Provide(i, func(i *do.Injector) (*links.Resolver, error) {
		repo, err := do.Invoke[links.Repository](i)
		if err != nil {
			return nil, err
		}

		auditLog, err := do.Invoke[links.AuditLog](i)
		if err != nil {
			return nil, err
		}

		return links.NewResolver(repo, auditLog, do.MustInvoke[*zap.Logger](i)), nil
	})
}

// signedInEmail is the login guard's user, or "" when login is disabled.
func signedInEmail(ctx context.Context) string {
	if id, ok := auth.IdentityFromContext(ctx); ok {
		return id.Email
	}

	return ""
}
