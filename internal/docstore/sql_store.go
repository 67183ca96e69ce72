package docstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

const (
	selectDocumentQuery = `
		SELECT body
		FROM session_documents
		WHERE collection = $1 AND doc_id = $2
	`
	upsertDocumentQuery = `
		INSERT INTO session_documents (collection, doc_id, body, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (collection, doc_id)
		DO UPDATE SET body = EXCLUDED.body, updated_at = EXCLUDED.updated_at
	`
	deleteDocumentQuery = `
		DELETE FROM session_documents
		WHERE collection = $1 AND doc_id = $2
	`
)

// SQLStore persists documents as typed JSON rows in the session_documents table.
// The queries run unchanged on PostgreSQL (lib/pq) and SQLite (go-sqlite3).
type SQLStore struct {
	db         *sql.DB
	collection string
	log        *slog.Logger
	now        func() time.Time
}

var _ Store = (*SQLStore)(nil)

// NewSQLStore creates a SQL-backed Store for the given collection.
func NewSQLStore(db *sql.DB, collection string, log *slog.Logger) *SQLStore {
	if log == nil {
		log = slog.Default()
	}

	return &SQLStore{
		db:         db,
		collection: collection,
		log:        log,
		now:        time.Now,
	}
}

// FindOne selects and decodes the row stored for id.
func (s *SQLStore) FindOne(ctx context.Context, id string) (Document, error) {
	var body string
	err := s.db.QueryRowContext(ctx, selectDocumentQuery, s.collection, id).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}

		s.log.Error("failed to select document", slog.String("collection", s.collection), slog.String("id", id), slog.Any("error", err))
		return nil, fmt.Errorf("select document %s: %w", id, err)
	}

	doc, err := unmarshalDocument([]byte(body))
	if err != nil {
		return nil, fmt.Errorf("select document %s: %w", id, err)
	}

	return doc, nil
}

// UpsertOne inserts or replaces the row stored for id.
func (s *SQLStore) UpsertOne(ctx context.Context, id string, doc Document) error {
	if doc == nil {
		doc = Document{}
	}

	body, err := marshalDocument(doc)
	if err != nil {
		return fmt.Errorf("upsert document %s: %w", id, err)
	}

	if _, err := s.db.ExecContext(ctx, upsertDocumentQuery, s.collection, id, string(body), s.now().UnixMicro()); err != nil {
		s.log.Error("failed to upsert document", slog.String("collection", s.collection), slog.String("id", id), slog.Any("error", err))
		return fmt.Errorf("upsert document %s: %w", id, err)
	}

	return nil
}

// DeleteOne removes the row stored for id.
func (s *SQLStore) DeleteOne(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, deleteDocumentQuery, s.collection, id); err != nil {
		s.log.Error("failed to delete document", slog.String("collection", s.collection), slog.String("id", id), slog.Any("error", err))
		return fmt.Errorf("delete document %s: %w", id, err)
	}

	return nil
}

// HealthCheck pings the database.
func (s *SQLStore) HealthCheck(ctx context.Context) error {
	if s == nil || s.db == nil {
		return sql.ErrConnDone
	}
	return s.db.PingContext(ctx)
}
