package continuity

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/Proton-105/himera-continuity/internal/docstore"
)

const (
	fieldSession = "session"
	fieldDate    = "date"
	fieldPts     = "pts"
	fieldQts     = "qts"
	fieldSeq     = "seq"
)

// ErrNoSnapshot is returned when no session snapshot has been saved yet.
var ErrNoSnapshot = errors.New("no session snapshot")

// SessionSnapshot is the persisted transport session: the raw session
// material and the position it was taken at.
type SessionSnapshot struct {
	Session []byte
	Position
}

// SnapshotID derives the snapshot document id from a secret so the raw
// secret never appears in the store.
func SnapshotID(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// EncodeSnapshot converts a snapshot into its document form.
func EncodeSnapshot(s SessionSnapshot) docstore.Document {
	session := s.Session
	if session == nil {
		session = []byte{}
	}

	return docstore.Document{
		fieldSession: append([]byte(nil), session...),
		fieldDate:    s.Date,
		fieldPts:     s.Pts,
		fieldQts:     s.Qts,
		fieldSeq:     s.Seq,
	}
}

// DecodeSnapshot converts a stored document back into a snapshot.
func DecodeSnapshot(doc docstore.Document) (SessionSnapshot, error) {
	var s SessionSnapshot

	session, ok := doc.Bytes(fieldSession)
	if !ok {
		return SessionSnapshot{}, fmt.Errorf("decode snapshot: missing %s", fieldSession)
	}
	s.Session = append([]byte{}, session...)

	counters := []struct {
		field string
		dst   *int64
	}{
		{fieldDate, &s.Date},
		{fieldPts, &s.Pts},
		{fieldQts, &s.Qts},
		{fieldSeq, &s.Seq},
	}
	for _, c := range counters {
		v, ok := doc.Int64(c.field)
		if !ok {
			return SessionSnapshot{}, fmt.Errorf("decode snapshot: missing %s", c.field)
		}
		*c.dst = v
	}

	return s, nil
}

// SnapshotRepository stores the session snapshot under the hashed secret.
type SnapshotRepository struct {
	store docstore.Store
	id    string
}

// NewSnapshotRepository creates a repository keyed by SnapshotID(secret).
func NewSnapshotRepository(store docstore.Store, secret string) *SnapshotRepository {
	return &SnapshotRepository{store: store, id: SnapshotID(secret)}
}

// ID returns the document id the snapshot is stored under.
func (r *SnapshotRepository) ID() string {
	return r.id
}

// Save replaces the stored snapshot.
func (r *SnapshotRepository) Save(ctx context.Context, s SessionSnapshot) error {
	if err := r.store.UpsertOne(ctx, r.id, EncodeSnapshot(s)); err != nil {
		return fmt.Errorf("save session snapshot: %w", err)
	}
	return nil
}

// Load returns the stored snapshot or ErrNoSnapshot.
func (r *SnapshotRepository) Load(ctx context.Context) (SessionSnapshot, error) {
	doc, err := r.store.FindOne(ctx, r.id)
	if errors.Is(err, docstore.ErrNotFound) {
		return SessionSnapshot{}, ErrNoSnapshot
	}
	if err != nil {
		return SessionSnapshot{}, fmt.Errorf("load session snapshot: %w", err)
	}

	return DecodeSnapshot(doc)
}
