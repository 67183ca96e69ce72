package continuity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/Proton-105/himera-continuity/internal/docstore"
	apperrors "github.com/Proton-105/himera-continuity/internal/errors"
)

const (
	shutdownStatusText = "Shutdowning system..."
	startupStatusText  = "Starting system..."

	// DowntimeMetric is the lifecycle statistic recorded after reconciliation.
	DowntimeMetric = "downtime"
)

// State is the lifecycle state of a Manager.
type State int32

const (
	StateRunning State = iota
	StateShuttingDown
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateShuttingDown:
		return "shutting_down"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// ErrorReporter receives failures of skipped steps.
type ErrorReporter interface {
	Handle(ctx context.Context, err error) (string, bool)
}

// Deps wires a Manager to its collaborators. Store is required; a nil Sink or
// Metrics behaves as if no destination was configured, and a nil Session
// disables snapshot persistence.
type Deps struct {
	Store    docstore.Store
	Secret   string
	Session  SessionSource
	Position PositionSource
	Sink     StatusSink
	Metrics  MetricsSink
	Clock    Clock
	Errors   ErrorReporter
	Log      *slog.Logger
}

// Manager runs the shutdown and startup halves of the restart continuity protocol.
type Manager struct {
	markers   *MarkerRepository
	snapshots *SnapshotRepository
	session   SessionSource
	position  PositionSource
	sink      StatusSink
	metrics   MetricsSink
	clock     Clock
	errs      ErrorReporter
	log       *slog.Logger

	state   atomic.Int32
	started atomic.Bool
}

// NewManager builds a Manager in the running state.
func NewManager(d Deps) *Manager {
	log := d.Log
	if log == nil {
		log = slog.Default()
	}

	m := &Manager{
		markers:   NewMarkerRepository(d.Store, log),
		snapshots: NewSnapshotRepository(d.Store, d.Secret),
		session:   d.Session,
		position:  d.Position,
		sink:      d.Sink,
		metrics:   d.Metrics,
		clock:     d.Clock,
		errs:      d.Errors,
		log:       log.With(slog.String("component", "continuity")),
	}

	if m.sink == nil {
		m.sink = nopStatusSink{}
	}
	if m.metrics == nil {
		m.metrics = nopMetricsSink{}
	}
	if m.clock == nil {
		m.clock = SystemClock{}
	}

	return m
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	return State(m.state.Load())
}

// Shutdown saves the session snapshot, posts the shutdown status line and
// records the restart marker pointing at it. Failed steps are reported and
// skipped; the manager always ends up stopped. Calls after the first are no-ops.
func (m *Manager) Shutdown(ctx context.Context) error {
	if !m.state.CompareAndSwap(int32(StateRunning), int32(StateShuttingDown)) {
		m.log.Debug("shutdown already handled", slog.String("state", m.State().String()))
		return nil
	}
	defer m.state.Store(int32(StateStopped))

	var errs []error

	if err := m.persistSnapshot(ctx); err != nil {
		errs = append(errs, m.report(ctx, err))
	}

	ref, err := m.sink.Post(ctx, shutdownStatusText)
	m.log.Info("preparing to shutdown")
	if err != nil {
		errs = append(errs, m.report(ctx, apperrors.NewTransportError("post status", err)))
		return errors.Join(errs...)
	}
	if ref == nil {
		m.log.Debug("no status message posted, restart marker skipped")
		return errors.Join(errs...)
	}

	if err := m.markers.RecordShutdownBegin(ctx, ref.ChatID, ref.MessageID, m.clock.NowMicros()); err != nil {
		errs = append(errs, m.report(ctx, apperrors.NewStoreError("record marker", err)))
	}

	return errors.Join(errs...)
}

func (m *Manager) persistSnapshot(ctx context.Context) error {
	if m.session == nil {
		return nil
	}

	unlock, err := m.session.Lock(ctx)
	if err != nil {
		return apperrors.NewSessionError("lock", err)
	}
	defer unlock()

	raw, err := m.session.ReadSession(ctx)
	if errors.Is(err, ErrNoSession) {
		m.log.Debug("no local session, snapshot skipped")
		return nil
	}
	if err != nil {
		return apperrors.NewSessionError("read", err)
	}

	if m.position == nil {
		return apperrors.NewTransportError("get state", errors.New("no position source"))
	}

	pos, err := m.position.Position(ctx)
	if err != nil {
		return apperrors.NewTransportError("get state", err)
	}

	if err := m.snapshots.Save(ctx, SessionSnapshot{Session: raw, Position: pos}); err != nil {
		return apperrors.NewStoreError("save snapshot", err)
	}

	m.log.Info("session snapshot saved",
		slog.String("snapshot_id", m.snapshots.ID()),
		slog.Int("session_bytes", len(raw)),
		slog.Int64("pts", pos.Pts),
	)

	return nil
}

// Startup consumes the restart marker left by the previous process and
// reconciles it. Only the first call does anything.
func (m *Manager) Startup(ctx context.Context) error {
	if !m.started.CompareAndSwap(false, true) {
		m.log.Debug("startup already handled")
		return nil
	}

	marker, err := m.markers.TakeAndClearMarker(ctx)
	if err != nil {
		return m.report(ctx, apperrors.NewStoreError("take marker", err))
	}

	if marker == nil {
		if _, err := m.sink.Post(ctx, startupStatusText); err != nil {
			return m.report(ctx, apperrors.NewTransportError("post status", err))
		}
		return nil
	}

	if err := marker.Validate(); err != nil {
		m.log.Debug("restart marker discarded", slog.Any("error", err))
		return nil
	}

	return m.reconcile(ctx, marker)
}

func (m *Manager) reconcile(ctx context.Context, marker *RestartMarker) error {
	durationUs := m.clock.NowMicros() - marker.CreatedAtUs
	formatted := FormatDurationUs(durationUs)

	m.metrics.Record(DowntimeMetric, durationUs)
	m.log.Info("bot downtime", slog.String("downtime", formatted), slog.Int64("downtime_us", durationUs))

	status := marker.StatusMessage()

	var errs []error
	if _, err := m.sink.Reply(ctx, fmt.Sprintf("Bot downtime %s.", formatted), status); err != nil {
		errs = append(errs, m.report(ctx, apperrors.NewTransportError("reply status", err)))
	}

	outcome, err := m.sink.Delete(ctx, status)
	switch {
	case err != nil:
		errs = append(errs, m.report(ctx, apperrors.NewTransportError("delete status", err)))
	case outcome == OutcomeForbidden:
		m.log.Debug("stale status message kept, delete forbidden",
			slog.Int64("chat_id", status.ChatID),
			slog.Int64("message_id", status.MessageID),
		)
	}

	return errors.Join(errs...)
}

func (m *Manager) report(ctx context.Context, err error) error {
	if m.errs != nil {
		m.errs.Handle(ctx, err)
	} else {
		m.log.Warn("continuity step skipped", slog.Any("error", err))
	}
	return err
}
