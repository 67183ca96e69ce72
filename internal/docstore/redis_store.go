package docstore

import (
	"context"
	"fmt"
	"log/slog"
)

const (
	redisKeyPattern = "docstore:%s:%s"
	// idField is always written so that an empty document still occupies a key.
	idField = "_id"
)

// HashClient is the subset of pkg/redis used by RedisStore.
type HashClient interface {
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	ReplaceHash(ctx context.Context, key string, fields map[string]any) error
	Delete(ctx context.Context, key string) error
	HealthCheck(ctx context.Context) error
}

// RedisStore persists each document as a Redis hash.
type RedisStore struct {
	client     HashClient
	collection string
	log        *slog.Logger
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a Redis-backed Store for the given collection.
func NewRedisStore(client HashClient, collection string, log *slog.Logger) *RedisStore {
	if log == nil {
		log = slog.Default()
	}

	return &RedisStore{
		client:     client,
		collection: collection,
		log:        log,
	}
}

// FindOne loads the hash stored for id.
func (s *RedisStore) FindOne(ctx context.Context, id string) (Document, error) {
	fields, err := s.client.HGetAll(ctx, s.key(id))
	if err != nil {
		s.log.Error("failed to read document from redis", "collection", s.collection, "id", id, "error", err)
		return nil, fmt.Errorf("redis find %s: %w", id, err)
	}

	if len(fields) == 0 {
		return nil, ErrNotFound
	}

	doc := make(Document, len(fields))
	for key, value := range fields {
		if key == idField {
			continue
		}
		doc[key] = value
	}

	return doc, nil
}

// UpsertOne replaces the hash stored for id in a single MULTI/EXEC.
func (s *RedisStore) UpsertOne(ctx context.Context, id string, doc Document) error {
	fields := make(map[string]any, len(doc)+1)
	for key, value := range doc {
		encoded, err := encodeField(value)
		if err != nil {
			return fmt.Errorf("redis upsert %s: field %q: %w", id, key, err)
		}
		fields[key] = encoded
	}
	fields[idField] = id

	if err := s.client.ReplaceHash(ctx, s.key(id), fields); err != nil {
		s.log.Error("failed to write document to redis", "collection", s.collection, "id", id, "error", err)
		return fmt.Errorf("redis upsert %s: %w", id, err)
	}

	return nil
}

// DeleteOne removes the hash stored for id.
func (s *RedisStore) DeleteOne(ctx context.Context, id string) error {
	if err := s.client.Delete(ctx, s.key(id)); err != nil {
		s.log.Error("failed to delete document from redis", "collection", s.collection, "id", id, "error", err)
		return fmt.Errorf("redis delete %s: %w", id, err)
	}

	return nil
}

// HealthCheck pings Redis.
func (s *RedisStore) HealthCheck(ctx context.Context) error {
	return s.client.HealthCheck(ctx)
}

func (s *RedisStore) key(id string) string {
	return fmt.Sprintf(redisKeyPattern, s.collection, id)
}
