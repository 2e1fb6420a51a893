package storage

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/designcraft/designcraft-backend/pkg/config"
	"github.com/designcraft/designcraft-backend/pkg/db"
	"github.com/designcraft/designcraft-backend/pkg/logger"
	"github.com/designcraft/designcraft-backend/pkg/migrate"
	"github.com/designcraft/designcraft-backend/pkg/redis"
)

// Handle bundles the selected KV backend with the connections it owns.
type Handle struct {
	KV          KV
	Idempotency redis.IdempotencyStore
	RateLimits  Counter
	DB          *db.Client
	Redis       *redis.Client

	pingers []Pinger
}

// Open builds the KV backend named by cfg.Storage.Driver. Redis is connected
// whenever it is configured so webhook idempotency survives restarts; otherwise
// the guard falls back to process memory.
func Open(ctx context.Context, cfg *config.Config, logg *logger.Logger) (*Handle, error) {
	h := &Handle{}

	if cfg.Redis.Enabled() {
		client, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return nil, fmt.Errorf("bootstrap redis: %w", err)
		}
		h.Redis = client
		h.Idempotency = client
		h.RateLimits = client
		h.pingers = append(h.pingers, client)
	}

	driver := cfg.Storage.NormalizedDriver()
	switch driver {
	case config.StorageMemory:
		mem := NewMemory()
		h.KV = mem
		if h.Idempotency == nil {
			h.Idempotency = mem
			h.RateLimits = mem
		}
	case config.StorageFile:
		fileKV, err := NewFile(cfg.Storage.Dir)
		if err != nil {
			return nil, multierr.Append(err, h.Close())
		}
		h.KV = fileKV
		h.pingers = append(h.pingers, fileKV)
	case config.StorageRedis:
		if h.Redis == nil {
			return nil, fmt.Errorf("redis storage requires a redis endpoint")
		}
		redisKV, err := NewRedis(h.Redis)
		if err != nil {
			return nil, multierr.Append(err, h.Close())
		}
		h.KV = redisKV
	case config.StoragePostgres, config.StorageSQLite:
		client, err := db.New(ctx, cfg.DB, logg)
		if err != nil {
			return nil, multierr.Append(fmt.Errorf("bootstrap database: %w", err), h.Close())
		}
		h.DB = client
		h.pingers = append(h.pingers, client)
		if err := migrate.MaybeRun(ctx, cfg, logg, client); err != nil {
			return nil, multierr.Append(fmt.Errorf("run migrations: %w", err), h.Close())
		}
		sqlKV, err := NewSQL(client.DB())
		if err != nil {
			return nil, multierr.Append(err, h.Close())
		}
		h.KV = sqlKV
	default:
		return nil, multierr.Append(fmt.Errorf("unsupported storage driver %q", driver), h.Close())
	}

	if h.Idempotency == nil {
		mem := NewMemory()
		h.Idempotency = mem
		h.RateLimits = mem
	}

	if logg != nil {
		logg.Info(logg.WithField(ctx, "storage_driver", driver), "storage backend ready")
	}
	return h, nil
}

// Ping checks every connection the handle owns.
func (h *Handle) Ping(ctx context.Context) error {
	var err error
	for _, p := range h.pingers {
		err = multierr.Append(err, p.Ping(ctx))
	}
	return err
}

// Close releases the database and redis connections.
func (h *Handle) Close() error {
	var err error
	if h.DB != nil {
		err = multierr.Append(err, h.DB.Close())
	}
	if h.Redis != nil {
		err = multierr.Append(err, h.Redis.Close())
	}
	return err
}
