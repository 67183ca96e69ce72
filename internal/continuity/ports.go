// Package continuity keeps operator-visible state consistent across process
// restarts: a restart marker written on shutdown and reconciled on the next
// startup, and a snapshot of the transport session persisted alongside it.
package continuity

import (
	"context"
	"errors"
)

// ErrNoSession is returned by a SessionSource when no local session material exists.
var ErrNoSession = errors.New("no local session material")

// Position holds the transport counters saved with a session snapshot.
type Position struct {
	Date int64
	Pts  int64
	Qts  int64
	Seq  int64
}

// MessageRef identifies a message posted by a StatusSink.
type MessageRef struct {
	ChatID    int64
	MessageID int64
}

// Outcome reports how a sink handled an operation whose failure modes are expected.
type Outcome int

const (
	OutcomeOK Outcome = iota
	// OutcomeUnmodified means the message already had the requested content.
	OutcomeUnmodified
	// OutcomeForbidden means the transport refused the operation for lack of rights.
	OutcomeForbidden
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeUnmodified:
		return "unmodified"
	case OutcomeForbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

// SessionSource gives access to the locally stored session material.
type SessionSource interface {
	// ReadSession returns the full session blob or ErrNoSession.
	ReadSession(ctx context.Context) ([]byte, error)
	// Lock takes exclusive access to the session material until unlock is called.
	Lock(ctx context.Context) (func(), error)
}

// PositionSource reports the current transport position.
type PositionSource interface {
	Position(ctx context.Context) (Position, error)
}

// StatusSink posts operator status lines. A sink without a destination
// returns nil refs and performs no transport calls.
type StatusSink interface {
	Post(ctx context.Context, text string) (*MessageRef, error)
	Reply(ctx context.Context, text string, to MessageRef) (*MessageRef, error)
	Delete(ctx context.Context, ref MessageRef) (Outcome, error)
}

// MetricsSink receives lifecycle statistics.
type MetricsSink interface {
	Record(name string, value int64)
}

type nopStatusSink struct{}

func (nopStatusSink) Post(context.Context, string) (*MessageRef, error) { return nil, nil }

func (nopStatusSink) Reply(context.Context, string, MessageRef) (*MessageRef, error) {
	return nil, nil
}

func (nopStatusSink) Delete(context.Context, MessageRef) (Outcome, error) { return OutcomeOK, nil }

type nopMetricsSink struct{}

func (nopMetricsSink) Record(string, int64) {}
