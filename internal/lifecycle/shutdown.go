// Package lifecycle sequences process shutdown and tracks probe state.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Shutdown runs shutdown hooks one after another in registration order.
type Shutdown struct {
	mu    sync.Mutex
	hooks []Hook
	done  bool
	log   *slog.Logger
}

// NewShutdown constructs a new Shutdown coordinator.
func NewShutdown(log *slog.Logger) *Shutdown {
	if log == nil {
		log = slog.Default()
	}

	return &Shutdown{log: log}
}

// Register adds a named shutdown hook.
func (s *Shutdown) Register(name string, fn func(context.Context) error) {
	s.RegisterHook(Hook{Name: name, Fn: fn})
}

// RegisterHook adds a hook with its own timeout.
func (s *Shutdown) RegisterHook(h Hook) {
	if h.Fn == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.hooks = append(s.hooks, h)
}

// Execute runs every registered hook in order. A failing hook does not stop
// the ones after it; all failures are joined into the returned error.
// Only the first call runs the hooks.
func (s *Shutdown) Execute(ctx context.Context) error {
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return nil
	}
	s.done = true
	hooks := append([]Hook(nil), s.hooks...)
	s.mu.Unlock()

	start := time.Now()
	s.log.Info("shutdown sequence started", slog.Int("hook_count", len(hooks)))

	var errs []error
	for _, h := range hooks {
		if err := s.run(ctx, h); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", h.Name, err))
		}
	}

	s.log.Info("shutdown sequence finished", slog.Duration("elapsed", time.Since(start)), slog.Int("failed", len(errs)))

	return errors.Join(errs...)
}

func (s *Shutdown) run(ctx context.Context, h Hook) (err error) {
	var (
		hookCtx context.Context
		cancel  context.CancelFunc
	)
	if h.Timeout > 0 {
		hookCtx, cancel = context.WithTimeout(ctx, h.Timeout)
	} else {
		hookCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		if err != nil {
			s.log.Error("shutdown hook failed", slog.String("hook", h.Name), slog.Any("error", err))
		}
	}()

	s.log.Info("running shutdown hook", slog.String("hook", h.Name))
	started := time.Now()

	if err := h.Fn(hookCtx); err != nil {
		return err
	}

	s.log.Info("shutdown hook completed", slog.String("hook", h.Name), slog.Duration("elapsed", time.Since(started)))
	return nil
}
