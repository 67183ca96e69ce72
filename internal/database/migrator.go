// Package database opens the SQL backends of the document store and applies
// their schema migrations.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"sort"
	"strings"
)

const upSuffix = ".up.sql"

// Migrator runs the *.up.sql files of a directory, one transaction per file,
// in lexical order. There is no version table: every file runs on every start,
// so statements have to be idempotent.
type Migrator struct {
	db  *sql.DB
	log *slog.Logger
}

// NewMigrator constructs a Migrator.
func NewMigrator(db *sql.DB, log *slog.Logger) *Migrator {
	if log == nil {
		log = slog.Default()
	}

	return &Migrator{db: db, log: log.With(slog.String("component", "migrator"))}
}

// ApplyDir applies the migrations found in dir on the local filesystem.
func (m *Migrator) ApplyDir(ctx context.Context, dir string) error {
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("read migrations dir %q: %w", dir, err)
	}

	return m.ApplyFS(ctx, os.DirFS(dir), ".")
}

// ApplyFS applies the migrations found under root in fsys.
func (m *Migrator) ApplyFS(ctx context.Context, fsys fs.FS, root string) error {
	names, err := ListMigrations(fsys, root)
	if err != nil {
		return fmt.Errorf("list migrations in %q: %w", root, err)
	}

	if len(names) == 0 {
		m.log.Info("no migrations to apply", slog.String("root", root))
		return nil
	}

	applied := 0
	for _, name := range names {
		ok, err := m.apply(ctx, fsys, path.Join(root, name))
		if err != nil {
			return err
		}
		if ok {
			applied++
		}
	}

	m.log.Info("migrations applied", slog.Int("applied", applied), slog.Int("found", len(names)))
	return nil
}

func (m *Migrator) apply(ctx context.Context, fsys fs.FS, name string) (bool, error) {
	log := m.log.With(slog.String("file", path.Base(name)))

	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return false, fmt.Errorf("read migration %q: %w", name, err)
	}

	stmt := strings.TrimSpace(string(data))
	if stmt == "" {
		log.Warn("empty migration skipped")
		return false, nil
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin migration %q: %w", name, err)
	}

	if _, err := tx.ExecContext(ctx, stmt); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			log.Error("migration rollback failed", slog.Any("error", rbErr))
		}
		return false, fmt.Errorf("execute migration %q: %w", name, err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit migration %q: %w", name, err)
	}

	log.Debug("migration applied")
	return true, nil
}

// ListMigrations returns the names of the *.up.sql files directly under root, sorted.
func ListMigrations(fsys fs.FS, root string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, root)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), upSuffix) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	return names, nil
}
