package continuity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Proton-105/himera-continuity/internal/docstore"
)

// MarkerDocumentID is the fixed document id of the restart marker.
const MarkerDocumentID = "restart_marker"

const (
	fieldStatusChatID    = "status_chat_id"
	fieldStatusMessageID = "status_message_id"
	fieldCreatedAtUs     = "created_at_us"
)

// ErrMalformedMarker marks a restart marker that lacks a required field.
var ErrMalformedMarker = errors.New("malformed restart marker")

// RestartMarker records a shutdown whose status message awaits reconciliation.
type RestartMarker struct {
	StatusChatID    int64
	StatusMessageID int64
	CreatedAtUs     int64

	missing []string
}

// Validate reports ErrMalformedMarker when any field was absent or not an integer.
func (m *RestartMarker) Validate() error {
	if m == nil {
		return ErrMalformedMarker
	}
	if len(m.missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrMalformedMarker, strings.Join(m.missing, ", "))
	}
	return nil
}

// StatusMessage returns the reference of the status message the marker points at.
func (m *RestartMarker) StatusMessage() MessageRef {
	return MessageRef{ChatID: m.StatusChatID, MessageID: m.StatusMessageID}
}

func markerFromDocument(doc docstore.Document) *RestartMarker {
	m := &RestartMarker{}

	read := func(field string, dst *int64) {
		v, ok := doc.Int64(field)
		if !ok {
			m.missing = append(m.missing, field)
			return
		}
		*dst = v
	}

	read(fieldStatusChatID, &m.StatusChatID)
	read(fieldStatusMessageID, &m.StatusMessageID)
	read(fieldCreatedAtUs, &m.CreatedAtUs)

	return m
}

// MarkerRepository persists the restart marker in the session collection.
type MarkerRepository struct {
	store docstore.Store
	log   *slog.Logger
}

// NewMarkerRepository creates a MarkerRepository on top of store.
func NewMarkerRepository(store docstore.Store, log *slog.Logger) *MarkerRepository {
	if log == nil {
		log = slog.Default()
	}

	return &MarkerRepository{store: store, log: log}
}

// RecordShutdownBegin writes the marker, replacing any previous one.
func (r *MarkerRepository) RecordShutdownBegin(ctx context.Context, chatID, messageID, nowUs int64) error {
	doc := docstore.Document{
		fieldStatusChatID:    chatID,
		fieldStatusMessageID: messageID,
		fieldCreatedAtUs:     nowUs,
	}

	if err := r.store.UpsertOne(ctx, MarkerDocumentID, doc); err != nil {
		return fmt.Errorf("record restart marker: %w", err)
	}

	r.log.Debug("restart marker recorded",
		slog.Int64("status_chat_id", chatID),
		slog.Int64("status_message_id", messageID),
		slog.Int64("created_at_us", nowUs),
	)

	return nil
}

// TakeAndClearMarker reads the marker and deletes it whatever its content.
// It returns nil when no marker exists. When the delete fails the marker is
// not returned, so it is never reconciled without being consumed.
func (r *MarkerRepository) TakeAndClearMarker(ctx context.Context) (*RestartMarker, error) {
	doc, findErr := r.store.FindOne(ctx, MarkerDocumentID)
	if errors.Is(findErr, docstore.ErrNotFound) {
		return nil, nil
	}

	if err := r.store.DeleteOne(ctx, MarkerDocumentID); err != nil {
		return nil, errors.Join(wrapErr("read restart marker", findErr), fmt.Errorf("delete restart marker: %w", err))
	}

	if findErr != nil {
		return nil, fmt.Errorf("read restart marker: %w", findErr)
	}

	return markerFromDocument(doc), nil
}

// Peek reads the marker without consuming it. It returns nil when no marker exists.
func (r *MarkerRepository) Peek(ctx context.Context) (*RestartMarker, error) {
	doc, err := r.store.FindOne(ctx, MarkerDocumentID)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read restart marker: %w", err)
	}

	return markerFromDocument(doc), nil
}

// Clear deletes the marker if present.
func (r *MarkerRepository) Clear(ctx context.Context) error {
	if err := r.store.DeleteOne(ctx, MarkerDocumentID); err != nil {
		return fmt.Errorf("delete restart marker: %w", err)
	}
	return nil
}

func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}
