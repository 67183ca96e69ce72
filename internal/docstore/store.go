// Package docstore provides a narrow document store keyed by string identifiers.
//
// A Store holds one collection. Documents are flat field maps; writes replace the
// whole document and no operation spans more than one document.
package docstore

import (
	"context"
	"errors"
)

// ErrNotFound indicates that no document exists under the requested identifier.
var ErrNotFound = errors.New("document not found")

// Store is the persistence contract shared by every backend.
type Store interface {
	// FindOne returns the document stored under id or ErrNotFound.
	FindOne(ctx context.Context, id string) (Document, error)
	// UpsertOne replaces the document stored under id, creating it when absent.
	UpsertOne(ctx context.Context, id string, doc Document) error
	// DeleteOne removes the document stored under id. Deleting a missing document is not an error.
	DeleteOne(ctx context.Context, id string) error
}
