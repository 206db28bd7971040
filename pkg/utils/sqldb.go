package utils

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PoolConfig controls database/sql pool behavior for the storage drivers.
// Zero values pick small defaults; the console has a single user.
type PoolConfig struct {
	MaxOpenConns int
	MaxIdleConns int
	// ConnMaxLifetime < 0 keeps connections open forever
	// (":memory:" SQLite databases vanish with their connection).
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration

	// Init runs once after the first successful ping, e.g. SQLite pragmas.
	Init []string
}

func (c PoolConfig) withDefaults() PoolConfig {
	out := c
	if out.MaxOpenConns <= 0 {
		out.MaxOpenConns = 4
	}
	if out.MaxIdleConns <= 0 {
		out.MaxIdleConns = 2
	}
	if out.MaxIdleConns > out.MaxOpenConns {
		out.MaxIdleConns = out.MaxOpenConns
	}
	switch {
	case out.ConnMaxLifetime < 0:
		out.ConnMaxLifetime = 0
	case out.ConnMaxLifetime == 0:
		out.ConnMaxLifetime = 30 * time.Minute
	}
	if out.ConnMaxIdleTime == 0 {
		out.ConnMaxIdleTime = 5 * time.Minute
	}
	if out.ConnMaxLifetime == 0 {
		out.ConnMaxIdleTime = 0
	}
	if out.PingTimeout <= 0 {
		out.PingTimeout = 5 * time.Second
	}
	return out
}

// OpenDB opens a database/sql handle, pings it and runs pool.Init.
// driverName is "pgx" (pgx stdlib) or "sqlite" (modernc).
// dsn must not be logged; for Postgres it contains the password.
func OpenDB(ctx context.Context, driverName, dsn string, pool PoolConfig) (*sql.DB, error) {
	pool = pool.withDefaults()

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driverName, err)
	}

	db.SetMaxOpenConns(pool.MaxOpenConns)
	db.SetMaxIdleConns(pool.MaxIdleConns)
	db.SetConnMaxLifetime(pool.ConnMaxLifetime)
	db.SetConnMaxIdleTime(pool.ConnMaxIdleTime)

	if err := HealthCheck(ctx, db, pool.PingTimeout); err != nil {
		_ = db.Close()
		return nil, err
	}
	for _, stmt := range pool.Init {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init %q: %w", stmt, err)
		}
	}
	return db, nil
}

// HealthCheck pings the DB with a timeout.
func HealthCheck(ctx context.Context, db *sql.DB, timeout time.Duration) error {
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("db ping failed: %w", err)
	}
	return nil
}

// TxFunc is the unit of work executed inside a transaction.
type TxFunc func(ctx context.Context, tx *sql.Tx) error

// WithTx runs fn inside a transaction. It rolls back when fn errors or
// panics (the panic is re-raised) and otherwise returns the commit error.
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn TxFunc) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		if cerr := tx.Commit(); cerr != nil {
			err = fmt.Errorf("commit tx: %w", cerr)
		}
	}()

	return fn(ctx, tx)
}
