package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/serroba/golinks/internal/links"
)

// SQLStore is a database/sql implementation of links.Repository and
// links.AuditLog for SQLite files and libSQL (Turso) databases.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore wraps an open SQLite or libSQL handle.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Get(ctx context.Context, name string) (*links.Link, error) {
	var link links.Link

	err := s.db.QueryRowContext(ctx,
		`SELECT name, url, visit_count FROM links WHERE name = ?`, name,
	).Scan(&link.Name, &link.URL, &link.VisitCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, links.ErrNotFound
		}

		return nil, err
	}

	return &link, nil
}

func (s *SQLStore) List(ctx context.Context) ([]links.Link, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, url, visit_count FROM links ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var all []links.Link

	for rows.Next() {
		var link links.Link
		if err := rows.Scan(&link.Name, &link.URL, &link.VisitCount); err != nil {
			return nil, err
		}

		all = append(all, link)
	}

	return all, rows.Err()
}

func (s *SQLStore) IncrementCount(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE links SET visit_count = visit_count + 1 WHERE name = ?`, name)

	return err
}

func (s *SQLStore) Create(ctx context.Context, name, url string) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO links (name, url) VALUES (?, ?)`, name, url)

	return mapSQLiteError(err)
}

// Update runs on a dedicated connection that is returned to the pool on every path.
func (s *SQLStore) Update(ctx context.Context, original, name, url string) (bool, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	res, err := conn.ExecContext(ctx,
		`UPDATE links SET name = ?, url = ?, updated_at = CURRENT_TIMESTAMP WHERE name = ?`,
		name, url, original,
	)
	if err != nil {
		return false, mapSQLiteError(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return n > 0, nil
}

func (s *SQLStore) Delete(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM links WHERE name = ?`, name)

	return err
}

// Log inserts the event into the audit_log table.
func (s *SQLStore) Log(ctx context.Context, event *links.AuditEvent) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO audit_log (id, kind, name, detail, actor, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		event.ID, string(event.Kind), event.Name, event.Detail, event.Actor, event.At.UTC().Format(time.RFC3339Nano),
	)

	return err
}

// Ping checks database connectivity.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Shutdown closes the database handle.
func (s *SQLStore) Shutdown() error {
	return s.db.Close()
}

// mapSQLiteError translates unique-constraint failures. libSQL reports them as
// plain errors, so the message is checked as a fallback.
func mapSQLiteError(err error) error {
	if err == nil {
		return nil
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return links.ErrDuplicateName
		}
	}

	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return links.ErrDuplicateName
	}

	return err
}

var (
	_ links.Repository = (*SQLStore)(nil)
	_ links.AuditLog   = (*SQLStore)(nil)
)
