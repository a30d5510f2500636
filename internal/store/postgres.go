package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/golinks/internal/links"
)

const pgUniqueViolation = "23505"

// PostgresStore is a PostgreSQL implementation of links.Repository and links.AuditLog.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed link store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (p *PostgresStore) Get(ctx context.Context, name string) (*links.Link, error) {
	query := `
		SELECT name, url, visit_count
		FROM links
		WHERE name = $1
	`

	var link links.Link

	err := p.pool.QueryRow(ctx, query, name).Scan(&link.Name, &link.URL, &link.VisitCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, links.ErrNotFound
		}

		return nil, err
	}

	return &link, nil
}

func (p *PostgresStore) List(ctx context.Context) ([]links.Link, error) {
	rows, err := p.pool.Query(ctx, `SELECT name, url, visit_count FROM links ORDER BY name`)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (links.Link, error) {
		var link links.Link
		err := row.Scan(&link.Name, &link.URL, &link.VisitCount)

		return link, err
	})
}

func (p *PostgresStore) IncrementCount(ctx context.Context, name string) error {
	_, err := p.pool.Exec(ctx, `UPDATE links SET visit_count = visit_count + 1 WHERE name = $1`, name)

	return err
}

func (p *PostgresStore) Create(ctx context.Context, name, url string) error {
	_, err := p.pool.Exec(ctx, `INSERT INTO links (name, url) VALUES ($1, $2)`, name, url)

	return mapPgError(err)
}

// Update holds a single pooled connection for the statement and releases it on every path.
func (p *PostgresStore) Update(ctx context.Context, original, name, url string) (bool, error) {
	query := `
		UPDATE links
		SET name = $2, url = $3, updated_at = now()
		WHERE name = $1
	`

	var updated bool

	err := p.pool.AcquireFunc(ctx, func(conn *pgxpool.Conn) error {
		tag, err := conn.Exec(ctx, query, original, name, url)
		if err != nil {
			return mapPgError(err)
		}

		updated = tag.RowsAffected() > 0

		return nil
	})

	return updated, err
}

func (p *PostgresStore) Delete(ctx context.Context, name string) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM links WHERE name = $1`, name)

	return err
}

// Log inserts the event into the audit_log table.
func (p *PostgresStore) Log(ctx context.Context, event *links.AuditEvent) error {
	query := `
		INSERT INTO audit_log (id, kind, name, detail, actor, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
	`

	_, err := p.pool.Exec(ctx, query, event.ID, string(event.Kind), event.Name, event.Detail, event.Actor, event.At)

	return err
}

// Ping checks database connectivity.
func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Shutdown closes the connection pool.
func (p *PostgresStore) Shutdown() error {
	p.pool.Close()

	return nil
}

func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return links.ErrDuplicateName
	}

	return err
}

var (
	_ links.Repository = (*PostgresStore)(nil)
	_ links.AuditLog   = (*PostgresStore)(nil)
)
