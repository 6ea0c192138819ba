package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Entry is a single key-value record.
type Entry struct {
	Key   string
	Value string
}

// SQLiteStore is a string-keyed record store with a total byte quota,
// backed by a local SQLite database.
type SQLiteStore struct {
	db    *sqlx.DB
	quota int64
}

// openDB opens (or creates) a SQLite database at dbPath, enables WAL mode
// and foreign keys, and runs the given migrations.
func openDB(dbPath string, migrations []migration) (*sqlx.DB, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// A single connection keeps ":memory:" databases shared and
	// serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	if err := runMigrations(db, migrations); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return db, nil
}

// NewSQLiteStore opens the local record store at dbPath. A quota of zero
// or less disables the size limit.
func NewSQLiteStore(dbPath string, quota int64) (*SQLiteStore, error) {
	db, err := openDB(dbPath, questMigrations)
	if err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db, quota: quota}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Quota returns the configured byte quota.
func (s *SQLiteStore) Quota() int64 {
	return s.quota
}

// Get returns the value stored under key. The boolean is false when the
// key is absent.
func (s *SQLiteStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.GetContext(ctx, &value, "SELECT value FROM kv WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("getting %q: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key, replacing any previous value.
func (s *SQLiteStore) Set(ctx context.Context, key, value string) error {
	return s.SetAll(ctx, []Entry{{Key: key, Value: value}})
}

// SetAll writes every entry in one transaction. The quota is checked
// against the state after all entries are applied.
func (s *SQLiteStore) SetAll(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.checkQuota(ctx, tx, entries); err != nil {
		return err
	}

	now := time.Now().UTC()
	for _, e := range entries {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			e.Key, e.Value, now,
		)
		if err != nil {
			return fmt.Errorf("setting %q: %w", e.Key, err)
		}
	}

	return tx.Commit()
}

// checkQuota fails when the batch would exceed the quota. Records
// being replaced by the batch do not count towards the current usage.
func (s *SQLiteStore) checkQuota(ctx context.Context, tx *sqlx.Tx, batch []Entry) error {
	if s.quota <= 0 {
		return nil
	}

	keys := make([]string, len(batch))
	var need int64
	for i, b := range batch {
		keys[i] = b.Key
		need += recordSize(b.Key, b.Value)
	}

	query, args, err := sqlx.In(`
		SELECT COALESCE(SUM(LENGTH(CAST(key AS BLOB)) + LENGTH(CAST(value AS BLOB))), 0)
		FROM kv WHERE key NOT IN (?)`, keys)
	if err != nil {
		return fmt.Errorf("building quota query: %w", err)
	}

	var used int64
	if err := tx.GetContext(ctx, &used, tx.Rebind(query), args...); err != nil {
		return fmt.Errorf("measuring usage: %w", err)
	}

	if used+need > s.quota {
		return &QuotaError{Key: batch[0].Key, Need: used + need, Quota: s.quota}
	}
	return nil
}

func recordSize(key, value string) int64 {
	return int64(len(key) + len(value))
}

// Remove deletes key. Removing an absent key is not an error.
func (s *SQLiteStore) Remove(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", key); err != nil {
		return fmt.Errorf("removing %q: %w", key, err)
	}
	return nil
}

// Clear deletes every record.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM kv"); err != nil {
		return fmt.Errorf("clearing records: %w", err)
	}
	return nil
}

// Usage returns the number of bytes held by all records.
func (s *SQLiteStore) Usage(ctx context.Context) (int64, error) {
	var used int64
	err := s.db.GetContext(ctx, &used, `
		SELECT COALESCE(SUM(LENGTH(CAST(key AS BLOB)) + LENGTH(CAST(value AS BLOB))), 0) FROM kv`)
	if err != nil {
		return 0, fmt.Errorf("measuring usage: %w", err)
	}
	return used, nil
}

// Keys returns every stored key in sorted order.
func (s *SQLiteStore) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	if err := s.db.SelectContext(ctx, &keys, "SELECT key FROM kv ORDER BY key"); err != nil {
		return nil, fmt.Errorf("listing keys: %w", err)
	}
	return keys, nil
}
