package lifecycle

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
)

var (
	// ErrNotReady is reported before the startup flow has finished.
	ErrNotReady = errors.New("startup has not completed")
	// ErrDraining is reported once shutdown has begun.
	ErrDraining = errors.New("shutdown in progress")
)

// HealthChecker exposes liveness and readiness probes.
type HealthChecker interface {
	Liveness(ctx context.Context) error
	Readiness(ctx context.Context) error
}

// Probes tracks whether the process is serving: ready between MarkReady and
// MarkDraining, live until it exits.
type Probes struct {
	ready    atomic.Bool
	draining atomic.Bool
	log      *slog.Logger
}

var _ HealthChecker = (*Probes)(nil)

// NewProbes creates a new Probes instance.
func NewProbes(log *slog.Logger) *Probes {
	if log == nil {
		log = slog.Default()
	}
	return &Probes{log: log}
}

// MarkReady records that startup has completed.
func (p *Probes) MarkReady() {
	if !p.ready.Swap(true) {
		p.log.Info("process ready")
	}
}

// MarkDraining records that shutdown has begun. It also fits the
// func(context.Context) error shape of a shutdown hook.
func (p *Probes) MarkDraining(context.Context) error {
	if !p.draining.Swap(true) {
		p.log.Info("process draining")
	}
	return nil
}

// Liveness always reports success while the process runs.
func (p *Probes) Liveness(ctx context.Context) error {
	p.log.Debug("liveness probe called")
	return ctx.Err()
}

// Readiness fails before MarkReady and after MarkDraining.
func (p *Probes) Readiness(ctx context.Context) error {
	p.log.Debug("readiness probe called")

	switch {
	case p.draining.Load():
		return ErrDraining
	case !p.ready.Load():
		return ErrNotReady
	default:
		return ctx.Err()
	}
}
