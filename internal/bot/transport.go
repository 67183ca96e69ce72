package bot

import (
	"context"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"sync"

	telebot "gopkg.in/telebot.v3"
	"gopkg.in/yaml.v3"

	"github.com/Proton-105/himera-continuity/internal/continuity"
	"github.com/Proton-105/himera-continuity/internal/session"
	"github.com/Proton-105/himera-continuity/pkg/metrics"
)

// UpdateTracker follows the newest update seen by the poller and reports it
// as the transport position. Bot API updates carry no qts or seq counters.
type UpdateTracker struct {
	mu   sync.RWMutex
	id   int64
	date int64
}

var _ continuity.PositionSource = (*UpdateTracker)(nil)

// NewUpdateTracker returns a tracker at position zero.
func NewUpdateTracker() *UpdateTracker {
	return &UpdateTracker{}
}

// Filter is a telebot.MiddlewarePoller filter. It never drops updates.
func (t *UpdateTracker) Filter(u *telebot.Update) bool {
	if u == nil {
		return true
	}

	t.Observe(int64(u.ID), updateDate(u))
	return true
}

// Observe moves the tracker forward. Older update ids are ignored.
func (t *UpdateTracker) Observe(id, date int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if id < t.id {
		return
	}

	t.id = id
	if date != 0 {
		t.date = date
	}
	metrics.SetLastUpdateID(id)
}

// Position implements continuity.PositionSource.
func (t *UpdateTracker) Position(ctx context.Context) (continuity.Position, error) {
	if err := ctx.Err(); err != nil {
		return continuity.Position{}, err
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	return continuity.Position{Date: t.date, Pts: t.id}, nil
}

func updateDate(u *telebot.Update) int64 {
	for _, msg := range []*telebot.Message{u.Message, u.EditedMessage, u.ChannelPost, u.EditedChannelPost} {
		if msg != nil {
			return msg.Unixtime
		}
	}
	if u.Callback != nil && u.Callback.Message != nil {
		return u.Callback.Message.Unixtime
	}
	return 0
}

// SessionMaterial is the transport identity stored in the local session file.
type SessionMaterial struct {
	BotID    int64  `yaml:"bot_id"`
	Username string `yaml:"username"`
	IssuedAt int64  `yaml:"issued_at"`
}

// EncodeSessionMaterial renders m as the session file body.
func EncodeSessionMaterial(m SessionMaterial) ([]byte, error) {
	data, err := yaml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode session material: %w", err)
	}
	return data, nil
}

// DecodeSessionMaterial parses a session file body.
func DecodeSessionMaterial(data []byte) (SessionMaterial, error) {
	var m SessionMaterial
	if err := yaml.Unmarshal(data, &m); err != nil {
		return SessionMaterial{}, fmt.Errorf("decode session material: %w", err)
	}
	return m, nil
}

// EnsureSession writes the session file for me unless one is already present.
func EnsureSession(ctx context.Context, file *session.FileSource, me *telebot.User, issuedAt int64) (bool, error) {
	if file == nil || me == nil {
		return false, nil
	}

	data, err := EncodeSessionMaterial(SessionMaterial{BotID: me.ID, Username: me.Username, IssuedAt: issuedAt})
	if err != nil {
		return false, err
	}
	return file.WriteIfAbsent(ctx, data)
}

// RestoreSession loads the persisted snapshot, reinstates the session file
// when it is missing and resumes polling after the saved update id. It
// reports whether a snapshot was found.
func RestoreSession(
	ctx context.Context,
	snapshots *continuity.SnapshotRepository,
	file *session.FileSource,
	poller *telebot.LongPoller,
	tracker *UpdateTracker,
	log *slog.Logger,
) (bool, error) {
	if log == nil {
		log = slog.Default()
	}

	snap, err := snapshots.Load(ctx)
	if stdErrors.Is(err, continuity.ErrNoSnapshot) {
		log.Debug("no session snapshot to restore")
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if file != nil && len(snap.Session) > 0 {
		if _, err := file.WriteIfAbsent(ctx, snap.Session); err != nil {
			return true, err
		}
	}

	if poller != nil && int(snap.Pts) > poller.LastUpdateID {
		poller.LastUpdateID = int(snap.Pts)
	}
	if tracker != nil {
		tracker.Observe(snap.Pts, snap.Date)
	}

	log.Info("session snapshot restored",
		slog.Int64("pts", snap.Pts),
		slog.Int64("date", snap.Date),
		slog.Int("session_bytes", len(snap.Session)),
	)
	return true, nil
}
