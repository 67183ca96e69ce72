package database

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sqlmock "gopkg.in/DATA-DOG/go-sqlmock.v1"

	"github.com/Proton-105/himera-continuity/internal/docstore"
	"github.com/Proton-105/himera-continuity/pkg/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMigratorApplyDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "002_second.up.sql"), []byte("CREATE INDEX b ON t (b);"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "001_first.up.sql"), []byte("CREATE TABLE t (b TEXT);"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "001_first.down.sql"), []byte("DROP TABLE t;"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "003_empty.up.sql"), []byte("  \n"), 0o600))

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE t").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectExec("CREATE INDEX b").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	require.NoError(t, NewMigrator(db, testLogger()).ApplyDir(context.Background(), dir))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigratorRollsBackOnFailure(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "001_broken.up.sql"), []byte("CREATE TABLE"), 0o600))

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE").WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err = NewMigrator(db, testLogger()).ApplyDir(context.Background(), dir)
	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigratorApplyFS(t *testing.T) {
	fsys := fstest.MapFS{
		"sql/001_a.up.sql":   {Data: []byte("CREATE TABLE a (x TEXT);")},
		"sql/001_a.down.sql": {Data: []byte("DROP TABLE a;")},
	}

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE a").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	require.NoError(t, NewMigrator(db, nil).ApplyFS(context.Background(), fsys, "sql"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigratorMissingDir(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	err = NewMigrator(db, testLogger()).ApplyDir(context.Background(), filepath.Join(t.TempDir(), "absent"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestListMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/002_b.up.sql":   {Data: []byte("x")},
		"migrations/001_a.up.sql":   {Data: []byte("x")},
		"migrations/001_a.down.sql": {Data: []byte("x")},
	}

	names, err := ListMigrations(fsys, "migrations")
	require.NoError(t, err)
	assert.Equal(t, []string{"001_a.up.sql", "002_b.up.sql"}, names)
}

func TestRepositoryMigrationsAreListed(t *testing.T) {
	names, err := ListMigrations(os.DirFS("../.."), "migrations")
	require.NoError(t, err)
	assert.Contains(t, names, "001_session_documents.up.sql")
}

func TestDataSource(t *testing.T) {
	cfg := config.Config{Store: config.StoreConfig{Driver: DriverPostgres}}
	cfg.Database = config.DatabaseConfig{Host: "db", Port: "5432", User: "bot", Password: "secret", Name: "himera", SSLMode: "disable"}

	driverName, dsn, err := dataSource(cfg)
	require.NoError(t, err)
	assert.Equal(t, "postgres", driverName)
	assert.Equal(t, "host=db port=5432 user=bot password=secret dbname=himera sslmode=disable", dsn)

	_, _, err = dataSource(config.Config{Store: config.StoreConfig{Driver: DriverSQLite}})
	assert.Error(t, err)

	_, _, err = dataSource(config.Config{Store: config.StoreConfig{Driver: "redis"}})
	assert.Error(t, err)
}

func TestSQLiteStoreEndToEnd(t *testing.T) {
	ctx := context.Background()
	cfg := config.Config{
		Store:    config.StoreConfig{Driver: DriverSQLite, Collection: "SESSION"},
		Database: config.DatabaseConfig{SQLitePath: filepath.Join(t.TempDir(), "session.db"), ConnectTimeout: time.Second},
	}

	db, err := Open(ctx, cfg, testLogger())
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, NewMigrator(db, testLogger()).ApplyDir(ctx, "../../migrations"))
	// migrations are re-applied on every start
	require.NoError(t, NewMigrator(db, testLogger()).ApplyDir(ctx, "../../migrations"))

	store := docstore.NewSQLStore(db, cfg.Store.Collection, testLogger())
	require.NoError(t, store.UpsertOne(ctx, "restart_marker", docstore.Document{"status_chat_id": int64(-100)}))
	require.NoError(t, store.UpsertOne(ctx, "restart_marker", docstore.Document{"status_chat_id": int64(-200)}))

	doc, err := store.FindOne(ctx, "restart_marker")
	require.NoError(t, err)
	chatID, ok := doc.Int64("status_chat_id")
	require.True(t, ok)
	assert.Equal(t, int64(-200), chatID)

	require.NoError(t, store.DeleteOne(ctx, "restart_marker"))
	_, err = store.FindOne(ctx, "restart_marker")
	assert.ErrorIs(t, err, docstore.ErrNotFound)
	assert.NoError(t, store.HealthCheck(ctx))
}
