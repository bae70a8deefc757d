package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// historyDepth is how many past values of a tracked key are kept.
const historyDepth = 10

// trackedKeys have their previous values kept in kv_history.
var trackedKeys = map[string]bool{
	KeyDocument: true,
}

// Entry is one past value of a tracked key.
type Entry struct {
	ID        int64     `db:"id"`
	Key       string    `db:"key"`
	Value     string    `db:"value"`
	WrittenAt time.Time `db:"written_at"`
}

// SQLiteStore implements Cache using a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

var (
	_ Cache         = (*SQLiteStore)(nil)
	_ HistoryReader = (*SQLiteStore)(nil)
)

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// An in-memory database exists per connection.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// Get returns the value stored under key, or ErrNotFound.
func (s *SQLiteStore) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.GetContext(ctx, &value, "SELECT value FROM kv WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("getting cache key %q: %w", key, err)
	}
	return value, nil
}

// Set stores value under key. Tracked keys also get a history row, and
// history beyond historyDepth is pruned.
func (s *SQLiteStore) Set(ctx context.Context, key, value string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, now,
	)
	if err != nil {
		return fmt.Errorf("setting cache key %q: %w", key, err)
	}

	if trackedKeys[key] {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO kv_history (key, value, written_at) VALUES (?, ?, ?)",
			key, value, now,
		)
		if err != nil {
			return fmt.Errorf("recording history for %q: %w", key, err)
		}

		_, err = tx.ExecContext(ctx, `
			DELETE FROM kv_history
			WHERE key = ? AND id NOT IN (
				SELECT id FROM kv_history WHERE key = ? ORDER BY id DESC LIMIT ?
			)`,
			key, key, historyDepth,
		)
		if err != nil {
			return fmt.Errorf("pruning history for %q: %w", key, err)
		}
	}

	return tx.Commit()
}

// Delete removes key. Deleting a missing key is not an error.
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", key)
	if err != nil {
		return fmt.Errorf("deleting cache key %q: %w", key, err)
	}
	return nil
}

// History returns up to limit past values of key, newest first.
func (s *SQLiteStore) History(ctx context.Context, key string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = historyDepth
	}

	var entries []Entry
	err := s.db.SelectContext(ctx, &entries, `
		SELECT id, key, value, written_at FROM kv_history
		WHERE key = ? ORDER BY id DESC LIMIT ?`,
		key, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying history for %q: %w", key, err)
	}
	return entries, nil
}
