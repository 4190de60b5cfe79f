// Package store persists reminders in an embedded SQLite table. All access
// is funneled through the repository; the store itself has no business
// logic beyond schema management and row mapping.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/couchcryptid/location-reminder-service/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS reminders (
	id          TEXT PRIMARY KEY,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	location    TEXT NOT NULL,
	latitude    REAL NOT NULL,
	longitude   REAL NOT NULL,
	created_at  TIMESTAMP NOT NULL,
	seq         INTEGER
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_reminders_seq ON reminders(seq);
`

// ErrNotFound is returned by GetByID when no row matches the id.
var ErrNotFound = errors.New("reminder not found")

// Store is the durable reminder table. A single connection serializes all
// writes, which is the store's whole concurrency story; callers above it
// rely on id uniqueness rather than locking.
type Store struct {
	db *sql.DB
}

// Open initializes the SQLite database at path, creating the parent
// directory and the schema as needed. Use ":memory:" for tests.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Insert upserts a reminder by id. Re-inserting an existing id overwrites
// the row in place and keeps its original position in insertion order.
func (s *Store) Insert(ctx context.Context, r domain.Reminder) error {
	const q = `
	INSERT INTO reminders (id, title, description, location, latitude, longitude, created_at, seq)
	VALUES (?, ?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM reminders))
	ON CONFLICT(id) DO UPDATE SET
		title = excluded.title,
		description = excluded.description,
		location = excluded.location,
		latitude = excluded.latitude,
		longitude = excluded.longitude,
		created_at = excluded.created_at`

	_, err := s.db.ExecContext(ctx, q,
		r.ID, r.Title, r.Description, r.Location, r.Latitude, r.Longitude, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert reminder %s: %w", r.ID, err)
	}
	return nil
}

// GetAll returns every stored reminder in insertion order.
func (s *Store) GetAll(ctx context.Context) ([]domain.Reminder, error) {
	const q = `
	SELECT id, title, description, location, latitude, longitude, created_at
	FROM reminders ORDER BY seq`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query reminders: %w", err)
	}
	defer rows.Close()

	reminders := make([]domain.Reminder, 0)
	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		reminders = append(reminders, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reminders: %w", err)
	}
	return reminders, nil
}

// GetByID returns the reminder with the given id, or ErrNotFound.
func (s *Store) GetByID(ctx context.Context, id string) (domain.Reminder, error) {
	const q = `
	SELECT id, title, description, location, latitude, longitude, created_at
	FROM reminders WHERE id = ?`

	row := s.db.QueryRowContext(ctx, q, id)

	var r domain.Reminder
	var createdAt time.Time
	err := row.Scan(&r.ID, &r.Title, &r.Description, &r.Location, &r.Latitude, &r.Longitude, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Reminder{}, ErrNotFound
	}
	if err != nil {
		return domain.Reminder{}, fmt.Errorf("get reminder %s: %w", id, err)
	}
	r.CreatedAt = createdAt.UTC()
	return r, nil
}

// Delete removes a single reminder. Deleting an absent id is a no-op.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM reminders WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete reminder %s: %w", id, err)
	}
	return nil
}

// DeleteAll clears the table.
func (s *Store) DeleteAll(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM reminders`); err != nil {
		return fmt.Errorf("delete reminders: %w", err)
	}
	return nil
}

// Ping verifies the database connection, used by the readiness probe.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReminder(row rowScanner) (domain.Reminder, error) {
	var r domain.Reminder
	var createdAt time.Time
	if err := row.Scan(&r.ID, &r.Title, &r.Description, &r.Location, &r.Latitude, &r.Longitude, &createdAt); err != nil {
		return domain.Reminder{}, fmt.Errorf("scan reminder: %w", err)
	}
	r.CreatedAt = createdAt.UTC()
	return r, nil
}
