package errors

import (
	"context"
	"errors"
	"log/slog"

	"github.com/getsentry/sentry-go"

	"github.com/Proton-105/himera-continuity/pkg/logger"
)

const genericUserMessage = "Something went wrong. Please try again later."

// Handler logs application errors and forwards severe ones to Sentry.
type Handler struct {
	log           *slog.Logger
	sentryEnabled bool
}

// NewHandler builds a Handler; sentryEnabled gates error reporting.
func NewHandler(log *slog.Logger, sentryEnabled bool) *Handler {
	if log == nil {
		log = slog.Default()
	}

	return &Handler{log: log, sentryEnabled: sentryEnabled}
}

// Handle records err and returns the message to show the user and whether the
// operation may be retried. Errors that are not an *AppError are treated as
// high severity.
func (h *Handler) Handle(ctx context.Context, err error) (string, bool) {
	if err == nil {
		return "", false
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var appErr *AppError
	if !errors.As(err, &appErr) || appErr == nil {
		h.log.LogAttrs(ctx, slog.LevelError, "unknown error", h.attrs(ctx, err.Error(), SeverityHigh)...)
		h.report(err, "", SeverityHigh)
		return genericUserMessage, false
	}

	attrs := h.attrs(ctx, appErr.Message, appErr.Severity,
		slog.String("code", appErr.Code),
		slog.Bool("retryable", appErr.Retryable),
	)
	h.log.LogAttrs(ctx, levelFor(appErr.Severity), "application error", attrs...)

	if appErr.Severity == SeverityHigh || appErr.Severity == SeverityCritical {
		h.report(err, appErr.Code, appErr.Severity)
	}

	if appErr.UserMessage == "" {
		return genericUserMessage, appErr.Retryable
	}
	return appErr.UserMessage, appErr.Retryable
}

func (h *Handler) attrs(ctx context.Context, message string, severity Severity, extra ...slog.Attr) []slog.Attr {
	attrs := append([]slog.Attr{
		slog.String("message", message),
		slog.String("severity", string(severity)),
	}, extra...)

	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		attrs = append(attrs, slog.String("correlation_id", id))
	}
	return attrs
}

func (h *Handler) report(err error, code string, severity Severity) {
	if !h.sentryEnabled {
		return
	}

	sentry.WithScope(func(scope *sentry.Scope) {
		if code != "" {
			scope.SetTag("code", code)
		}
		scope.SetTag("severity", string(severity))
		scope.SetLevel(sentryLevel(severity))
		sentry.CaptureException(err)
	})
}

func levelFor(s Severity) slog.Level {
	switch s {
	case SeverityLow:
		return slog.LevelInfo
	case SeverityMedium:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

func sentryLevel(s Severity) sentry.Level {
	if s == SeverityCritical {
		return sentry.LevelFatal
	}
	return sentry.LevelError
}
