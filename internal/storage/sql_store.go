package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/lib/pq"  // PostgreSQL driver
	_ "modernc.org/sqlite" // SQLite driver

	sferrors "github.com/storefront-labs/storefront/internal/errors"
)

// Driver names registered by the imported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// SQLStore implements SessionStore on a database/sql handle.
// It is used with SQLite (the default, a file in ~/.storefront) and PostgreSQL
// (a session shared between machines). Values are stored as text.
type SQLStore struct {
	db     *sql.DB
	driver string
}

// NewSQLStore wraps an open database whose schema has already been migrated.
func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

// OpenSQLite opens (creating if needed) a SQLite session database at path and
// applies migrations. Use ":memory:" for a throwaway store.
func OpenSQLite(ctx context.Context, path string) (*SQLStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, sferrors.NewStoreUnavailable("cannot create session directory", err)
		}
	}

	db, err := sql.Open(DriverSQLite, path)
	if err != nil {
		return nil, sferrors.NewStoreUnavailable("cannot open SQLite session database", err)
	}
	// SQLite has a single writer; one connection also keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)

	return openMigrated(ctx, db, DriverSQLite)
}

// OpenPostgres connects to a PostgreSQL session database and applies migrations.
func OpenPostgres(ctx context.Context, dsn string) (*SQLStore, error) {
	db, err := sql.Open(DriverPostgres, dsn)
	if err != nil {
		return nil, sferrors.NewStoreUnavailable("cannot open PostgreSQL session database", err)
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxLifetime(5 * time.Minute)

	return openMigrated(ctx, db, DriverPostgres)
}

func openMigrated(ctx context.Context, db *sql.DB, driver string) (*SQLStore, error) {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, sferrors.NewStoreUnavailable(fmt.Sprintf("%s connectivity check failed", driver), err)
	}

	if err := NewMigrationRunner(db).Run(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return NewSQLStore(db, driver), nil
}

// DB exposes the underlying handle so the activity log can share the database.
func (s *SQLStore) DB() *sql.DB {
	return s.db
}

// Driver returns the database driver name.
func (s *SQLStore) Driver() string {
	return s.driver
}

// Get returns the value stored under key.
func (s *SQLStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT entry_value FROM session_entries WHERE entry_key = $1`,
		key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session key %s: %w", key, err)
	}
	return []byte(value), nil
}

// Set upserts value under key.
func (s *SQLStore) Set(ctx context.Context, key string, value []byte) error {
	if _, err := s.db.ExecContext(ctx, upsertEntry, key, string(value), time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to write session key %s: %w", key, err)
	}
	return nil
}

// Delete removes key.
func (s *SQLStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, deleteEntry, key); err != nil {
		return fmt.Errorf("failed to delete session key %s: %w", key, err)
	}
	return nil
}

// Commit applies the batch in one transaction.
func (s *SQLStore) Commit(ctx context.Context, batch Batch) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for key, value := range batch.Puts {
		if _, err := tx.ExecContext(ctx, upsertEntry, key, string(value), now); err != nil {
			return fmt.Errorf("failed to write session key %s: %w", key, err)
		}
	}
	for _, key := range batch.Deletes {
		if _, err := tx.ExecContext(ctx, deleteEntry, key); err != nil {
			return fmt.Errorf("failed to delete session key %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// CheckConnectivity pings the database.
func (s *SQLStore) CheckConnectivity(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return sferrors.NewStoreUnavailable(fmt.Sprintf("%s ping failed", s.driver), err)
	}
	return nil
}

// Close closes the database handle.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

const (
	upsertEntry = `
		INSERT INTO session_entries (entry_key, entry_value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (entry_key) DO UPDATE
		SET entry_value = excluded.entry_value, updated_at = excluded.updated_at`

	deleteEntry = `DELETE FROM session_entries WHERE entry_key = $1`
)

// Verify SQLStore implements SessionStore interface.
var _ SessionStore = (*SQLStore)(nil)
