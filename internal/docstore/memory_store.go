package docstore

import (
	"context"
	"sync"
)

// MemoryStore keeps documents in process memory. Contents do not survive a
// restart, so it only suits tests and local runs without a database.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]Document
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]Document)}
}

// FindOne returns a copy of the stored document.
func (s *MemoryStore) FindOne(ctx context.Context, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return doc.Clone(), nil
}

// UpsertOne replaces the stored document.
func (s *MemoryStore) UpsertOne(ctx context.Context, id string, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	stored := doc.Clone()
	if stored == nil {
		stored = Document{}
	}

	s.mu.Lock()
	s.docs[id] = stored
	s.mu.Unlock()
	return nil
}

// DeleteOne removes the stored document.
func (s *MemoryStore) DeleteOne(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.docs, id)
	s.mu.Unlock()
	return nil
}

// Len reports how many documents are stored.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}
