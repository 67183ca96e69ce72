// Package storage opens the document store selected by configuration.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/Proton-105/himera-continuity/internal/database"
	"github.com/Proton-105/himera-continuity/internal/docstore"
	"github.com/Proton-105/himera-continuity/internal/health"
	"github.com/Proton-105/himera-continuity/pkg/config"
	appredis "github.com/Proton-105/himera-continuity/pkg/redis"
)

// Backend is an opened document store plus the resources behind it.
type Backend struct {
	Store  docstore.Store
	Driver string
	// Check reports the reachability of the backing service. Nil for memory.
	Check health.Checkable

	closeFn func() error
}

// Close releases the connection behind the store.
func (b *Backend) Close(context.Context) error {
	if b == nil || b.closeFn == nil {
		return nil
	}
	return b.closeFn()
}

// Open connects to the store configured in cfg.Store. SQL drivers have their
// migrations applied before the store is returned.
func Open(ctx context.Context, cfg config.Config, log *slog.Logger) (*Backend, error) {
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("store_driver", cfg.Store.Driver), slog.String("collection", cfg.Store.Collection))

	switch cfg.Store.Driver {
	case "memory":
		log.Warn("using in-memory store, restart continuity will not survive the process")
		return &Backend{Store: docstore.NewMemoryStore(), Driver: cfg.Store.Driver}, nil

	case "redis":
		client, err := appredis.New(ctx, redisConfig(cfg.Redis))
		if err != nil {
			return nil, err
		}

		log.Info("document store ready")
		return &Backend{
			Store:   docstore.NewRedisStore(appredis.NewMetricsClient(client), cfg.Store.Collection, log),
			Driver:  cfg.Store.Driver,
			Check:   health.NewRedisChecker(client),
			closeFn: client.Close,
		}, nil

	case database.DriverPostgres, database.DriverSQLite:
		db, err := database.Open(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		if err := database.NewMigrator(db, log).ApplyDir(ctx, cfg.Database.MigrationsDir); err != nil {
			_ = db.Close()
			return nil, err
		}

		log.Info("document store ready")
		return sqlBackend(db, cfg, log), nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

func sqlBackend(db *sql.DB, cfg config.Config, log *slog.Logger) *Backend {
	return &Backend{
		Store:   docstore.NewSQLStore(db, cfg.Store.Collection, log),
		Driver:  cfg.Store.Driver,
		Check:   health.NewDBChecker(db),
		closeFn: db.Close,
	}
}

func redisConfig(c config.RedisConfig) appredis.Config {
	return appredis.Config{
		Addr:            c.Addr,
		Password:        c.Password,
		DB:              c.DB,
		PoolSize:        c.PoolSize,
		MinIdleConns:    c.MinIdleConns,
		PoolTimeout:     c.PoolTimeout,
		IdleTimeout:     c.IdleTimeout,
		MaxRetries:      c.MaxRetries,
		MinRetryBackoff: c.MinRetryBackoff,
		MaxRetryBackoff: c.MaxRetryBackoff,
		ConnectTimeout:  c.ConnectTimeout,
	}
}
