package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/Proton-105/himera-continuity/pkg/config"
)

// Store drivers backed by SQL.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Open connects to the SQL database selected by cfg.Store.Driver and waits
// until it answers a ping, backing off for at most cfg.Database.ConnectTimeout.
func Open(ctx context.Context, cfg config.Config, log *slog.Logger) (*sql.DB, error) {
	if log == nil {
		log = slog.Default()
	}

	driverName, dsn, err := dataSource(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Store.Driver, err)
	}
	if driverName == "sqlite3" {
		// single writer keeps SQLite from returning SQLITE_BUSY
		db.SetMaxOpenConns(1)
	}

	var policy backoff.BackOff = &backoff.StopBackOff{}
	if cfg.Database.ConnectTimeout > 0 {
		exp := backoff.NewExponentialBackOff()
		exp.MaxElapsedTime = cfg.Database.ConnectTimeout
		policy = exp
	}

	attempt := 0
	ping := func() error {
		attempt++
		if err := db.PingContext(ctx); err != nil {
			log.Warn("database not reachable yet", slog.String("driver", cfg.Store.Driver), slog.Int("attempt", attempt), slog.Any("error", err))
			return err
		}
		return nil
	}
	if err := backoff.Retry(ping, backoff.WithContext(policy, ctx)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Store.Driver, err)
	}

	log.Info("database connected", slog.String("driver", cfg.Store.Driver))
	return db, nil
}

func dataSource(cfg config.Config) (driverName, dsn string, err error) {
	switch cfg.Store.Driver {
	case DriverPostgres:
		return "postgres", cfg.GetDBConnectionString(), nil
	case DriverSQLite:
		if cfg.Database.SQLitePath == "" {
			return "", "", fmt.Errorf("database.sqlite_path is required for the sqlite driver")
		}
		return "sqlite3", "file:" + cfg.Database.SQLitePath + "?_busy_timeout=5000&_journal_mode=WAL", nil
	default:
		return "", "", fmt.Errorf("store driver %q is not SQL-backed", cfg.Store.Driver)
	}
}
