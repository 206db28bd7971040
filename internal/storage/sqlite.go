package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"breeze-console/pkg/utils"

	_ "modernc.org/sqlite"
)

// SQLiteBackend keeps values in a local SQLite database file.
type SQLiteBackend struct {
	db *sql.DB
}

// OpenSQLiteBackend opens (or creates) the database at path and ensures the
// storage table exists. Use ":memory:" for a throwaway database.
func OpenSQLiteBackend(ctx context.Context, path string) (*SQLiteBackend, error) {
	if path == "" {
		return nil, errors.New("storage: sqlite path is empty")
	}
	db, err := utils.OpenDB(ctx, "sqlite", path, utils.PoolConfig{
		MaxOpenConns:    1,
		ConnMaxLifetime: -1,
		Init:            []string{"PRAGMA journal_mode=WAL", sqliteSchema},
	})
	if err != nil {
		return nil, fmt.Errorf("storage: open sqlite %s: %w", path, err)
	}
	return &SQLiteBackend{db: db}, nil
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS console_storage (
	namespace  TEXT NOT NULL,
	key        TEXT NOT NULL,
	value      BLOB NOT NULL,
	updated_at TEXT NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (namespace, key)
)
`

// DB exposes the handle for health checks.
func (s *SQLiteBackend) DB() *sql.DB { return s.db }

func (s *SQLiteBackend) Close() error { return s.db.Close() }

func (s *SQLiteBackend) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	const q = `SELECT value FROM console_storage WHERE namespace = ? AND key = ?`
	var v []byte
	if err := s.db.QueryRowContext(ctx, q, namespace, key).Scan(&v); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("storage: select: %w", err)
	}
	return v, nil
}

func (s *SQLiteBackend) Set(ctx context.Context, namespace, key string, value []byte) error {
	const q = `
INSERT INTO console_storage (namespace, key, value, updated_at)
VALUES (?, ?, ?, datetime('now'))
ON CONFLICT (namespace, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
`
	if _, err := s.db.ExecContext(ctx, q, namespace, key, value); err != nil {
		return fmt.Errorf("storage: upsert: %w", err)
	}
	return nil
}

func (s *SQLiteBackend) Delete(ctx context.Context, namespace, key string) error {
	const q = `DELETE FROM console_storage WHERE namespace = ? AND key = ?`
	if _, err := s.db.ExecContext(ctx, q, namespace, key); err != nil {
		return fmt.Errorf("storage: delete: %w", err)
	}
	return nil
}

func (s *SQLiteBackend) Clear(ctx context.Context, namespace string) error {
	return utils.WithTx(ctx, s.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		const del = `DELETE FROM console_storage WHERE namespace = ?`
		if _, err := tx.ExecContext(ctx, del, namespace); err != nil {
			return fmt.Errorf("storage: clear: %w", err)
		}
		return nil
	})
}
