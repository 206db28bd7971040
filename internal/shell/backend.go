package shell

import (
	"context"
	"fmt"
	"time"

	"breeze-console/internal/config"
	"breeze-console/internal/storage"
	"breeze-console/pkg/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
)

// openedBackend is a storage backend plus the resources behind it.
type openedBackend struct {
	backend storage.Backend
	health  func(ctx context.Context) error
	close   func() error
}

func openBackend(ctx context.Context, cfg config.Config) (openedBackend, error) {
	noop := openedBackend{
		health: func(context.Context) error { return nil },
		close:  func() error { return nil },
	}

	switch cfg.Storage.Driver {
	case config.DriverMemory:
		noop.backend = storage.NewMemoryBackend()
		return noop, nil

	case config.DriverFile:
		b, err := storage.NewFileBackend(cfg.Storage.File)
		if err != nil {
			return openedBackend{}, err
		}
		noop.backend = b
		return noop, nil

	case config.DriverSQLite:
		b, err := storage.OpenSQLiteBackend(ctx, cfg.Storage.SQLitePath)
		if err != nil {
			return openedBackend{}, fmt.Errorf("sqlite init: %w", err)
		}
		return openedBackend{
			backend: b,
			health:  func(ctx context.Context) error { return utils.HealthCheck(ctx, b.DB(), 2*time.Second) },
			close:   b.Close,
		}, nil

	case config.DriverRedis:
		rdb, err := utils.OpenRedis(ctx, utils.RedisConfig{Addr: cfg.RedisAddr()})
		if err != nil {
			return openedBackend{}, fmt.Errorf("redis init: %w", err)
		}
		b, err := storage.NewRedisBackend(rdb, "console")
		if err != nil {
			_ = rdb.Close()
			return openedBackend{}, err
		}
		return openedBackend{
			backend: b,
			health:  func(ctx context.Context) error { return pingRedis(ctx, rdb) },
			close:   rdb.Close,
		}, nil

	case config.DriverPostgres:
		db, err := utils.OpenDB(ctx, "pgx", cfg.PostgresDSN(), utils.PoolConfig{})
		if err != nil {
			return openedBackend{}, fmt.Errorf("postgres init: %w", err)
		}
		b, err := storage.NewPostgresBackend(db)
		if err != nil {
			_ = db.Close()
			return openedBackend{}, err
		}
		if err := b.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return openedBackend{}, err
		}
		return openedBackend{
			backend: b,
			health:  func(ctx context.Context) error { return utils.HealthCheck(ctx, db, 2*time.Second) },
			close:   db.Close,
		}, nil
	}
	return openedBackend{}, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}

func pingRedis(ctx context.Context, rdb *redis.Client) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}
