package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"breeze-console/pkg/utils"
)

// PostgresBackend keeps values in a single key/value table.
//
// Table (created by EnsureSchema):
//
//	console_storage(namespace, key, value, updated_at), PRIMARY KEY (namespace, key)
type PostgresBackend struct {
	db *sql.DB
}

func NewPostgresBackend(db *sql.DB) (*PostgresBackend, error) {
	if db == nil {
		return nil, errors.New("storage: db is nil")
	}
	return &PostgresBackend{db: db}, nil
}

// EnsureSchema creates the storage table if it does not exist.
func (p *PostgresBackend) EnsureSchema(ctx context.Context) error {
	const q = `
CREATE TABLE IF NOT EXISTS console_storage (
	namespace  TEXT        NOT NULL,
	key        TEXT        NOT NULL,
	value      BYTEA       NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (namespace, key)
)
`
	if _, err := p.db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("storage: ensure schema: %w", err)
	}
	return nil
}

func (p *PostgresBackend) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	const q = `
SELECT value
FROM console_storage
WHERE namespace = $1 AND key = $2
`
	var v []byte
	if err := p.db.QueryRowContext(ctx, q, namespace, key).Scan(&v); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("storage: select: %w", err)
	}
	return v, nil
}

func (p *PostgresBackend) Set(ctx context.Context, namespace, key string, value []byte) error {
	const q = `
INSERT INTO console_storage (namespace, key, value, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (namespace, key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
`
	if _, err := p.db.ExecContext(ctx, q, namespace, key, value); err != nil {
		return fmt.Errorf("storage: upsert: %w", err)
	}
	return nil
}

func (p *PostgresBackend) Delete(ctx context.Context, namespace, key string) error {
	const q = `DELETE FROM console_storage WHERE namespace = $1 AND key = $2`
	if _, err := p.db.ExecContext(ctx, q, namespace, key); err != nil {
		return fmt.Errorf("storage: delete: %w", err)
	}
	return nil
}

// Clear locks the namespace rows before deleting so a concurrent Set cannot
// interleave with a half-cleared namespace.
func (p *PostgresBackend) Clear(ctx context.Context, namespace string) error {
	return utils.WithTx(ctx, p.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		const lock = `SELECT key FROM console_storage WHERE namespace = $1 FOR UPDATE`
		rows, err := tx.QueryContext(ctx, lock, namespace)
		if err != nil {
			return fmt.Errorf("storage: lock namespace: %w", err)
		}
		if err := rows.Close(); err != nil {
			return err
		}
		const del = `DELETE FROM console_storage WHERE namespace = $1`
		if _, err := tx.ExecContext(ctx, del, namespace); err != nil {
			return fmt.Errorf("storage: clear: %w", err)
		}
		return nil
	})
}
