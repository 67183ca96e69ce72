package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Proton-105/himera-continuity/internal/bot"
	"github.com/Proton-105/himera-continuity/internal/continuity"
	apperrors "github.com/Proton-105/himera-continuity/internal/errors"
	"github.com/Proton-105/himera-continuity/internal/health"
	"github.com/Proton-105/himera-continuity/internal/i18n"
	"github.com/Proton-105/himera-continuity/internal/lifecycle"
	"github.com/Proton-105/himera-continuity/internal/middleware"
	"github.com/Proton-105/himera-continuity/internal/session"
	"github.com/Proton-105/himera-continuity/internal/storage"
	"github.com/Proton-105/himera-continuity/pkg/config"
	"github.com/Proton-105/himera-continuity/pkg/graceful"
	"github.com/Proton-105/himera-continuity/pkg/logger"
	"github.com/Proton-105/himera-continuity/pkg/metrics"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, v, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(*cfg)
	slog.SetDefault(log)

	config.Watch(v, func(next *config.Config) {
		logger.SetLevel(next.Logger.Level)
		log.Info("configuration reloaded", slog.String("log_level", next.Logger.Level))
	}, func(err error) {
		log.Warn("configuration reload rejected", slog.Any("error", err))
	})

	if cfg.Sentry.Enabled {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: valueOr(cfg.Sentry.Environment, cfg.AppEnv),
			SampleRate:  cfg.Sentry.SampleRate,
		}); err != nil {
			log.Error("failed to initialize sentry", slog.Any("error", err))
		}
		defer sentry.Flush(2 * time.Second)
	}

	log.Info("starting himera continuity bot",
		slog.String("mode", cfg.Bot.Mode),
		slog.String("store", cfg.Store.Driver),
		slog.Bool("log_channel", cfg.LogChannelEnabled()),
	)

	errHandler := apperrors.NewHandler(log, cfg.Sentry.Enabled)
	probes := lifecycle.NewProbes(log)
	checker := health.NewChecker(log)
	checker.SetTimeout(cfg.Server.HealthTimeout)
	shutdown := lifecycle.NewShutdown(log)

	backend, err := storage.Open(ctx, *cfg, log)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	if backend.Check != nil {
		checker.AddCheck("store", backend.Check)
	}

	locales, err := i18n.LoadFromDir(cfg.Help.LocalesDir, cfg.Help.DefaultLanguage)
	if err != nil {
		_ = backend.Close(ctx)
		return fmt.Errorf("load locales: %w", err)
	}

	tracker := bot.NewUpdateTracker()
	b, err := bot.New(*cfg, log, bot.Deps{Locales: locales, ErrHandler: errHandler, Tracker: tracker})
	if err != nil {
		_ = backend.Close(ctx)
		return err
	}
	checker.AddCheck("telegram", health.NewTelegramChecker(b.Telebot()))
	checker.AddLivenessCheck("process", health.CheckFunc(probes.Liveness))
	checker.AddCheck("lifecycle", health.CheckFunc(probes.Readiness))
	log.Info("readiness checks registered", slog.Any("checks", checker.Names()))

	sessionFile := session.NewFileSource(cfg.Session.FilePath, log)
	snapshots := continuity.NewSnapshotRepository(backend.Store, cfg.Bot.Token)
	if _, err := bot.RestoreSession(ctx, snapshots, sessionFile, b.LongPoller(), tracker, log); err != nil {
		errHandler.Handle(ctx, apperrors.NewStoreError("restore snapshot", err))
	}
	if _, err := bot.EnsureSession(ctx, sessionFile, b.Telebot().Me, time.Now().Unix()); err != nil {
		errHandler.Handle(ctx, apperrors.NewSessionError("write", err))
	}

	manager := continuity.NewManager(continuity.Deps{
		Store:    backend.Store,
		Secret:   cfg.Bot.Token,
		Session:  sessionFile,
		Position: tracker,
		Sink:     b.LogChannel(),
		Metrics:  metrics.NewLifecycleSink(),
		Errors:   errHandler,
		Log:      log,
	})

	if err := manager.Startup(ctx); err != nil {
		log.Warn("startup reconciliation incomplete", slog.Any("error", err))
	}

	if !cfg.Bot.Offline {
		if err := b.PublishCommands(); err != nil {
			errHandler.Handle(ctx, err)
		}
	}

	ops := graceful.NewServer(log, graceful.NewOpsServer(
		cfg.Server.Port,
		logger.Middleware(middleware.New(log)(graceful.OpsMux(prometheus.DefaultGatherer, checker.Handler(prometheus.DefaultRegisterer)))),
	), cfg.Server.ShutdownTimeout)

	opsCtx, stopOps := context.WithCancel(context.Background())
	opsDone := make(chan error, 1)
	go func() { opsDone <- ops.ListenAndServe(opsCtx) }()

	go b.Start()
	probes.MarkReady()

	shutdown.Register("probes", probes.MarkDraining)
	shutdown.RegisterHook(lifecycle.Hook{Name: "continuity", Fn: manager.Shutdown, Timeout: cfg.Server.ShutdownTimeout})
	shutdown.Register("bot", func(context.Context) error {
		b.Stop()
		return nil
	})
	shutdown.Register("ops-server", func(ctx context.Context) error {
		stopOps()
		select {
		case err := <-opsDone:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	shutdown.Register("store", backend.Close)

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-opsDone:
		// ops server failed to bind; nothing can probe the process
		log.Error("ops server stopped", slog.Any("error", err))
		opsDone <- err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := shutdown.Execute(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("shutdown: %w", err)
	}

	log.Info("himera continuity bot stopped")
	return nil
}

func valueOr(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
