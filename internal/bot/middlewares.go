package bot

import (
	"context"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strconv"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/himera-continuity/internal/bot/handlers"
	errors "github.com/Proton-105/himera-continuity/internal/errors"
	"github.com/Proton-105/himera-continuity/pkg/logger"
	"github.com/Proton-105/himera-continuity/pkg/metrics"
)

const fallbackUserMessage = "Something went wrong. Please try again later."

// CorrelationMiddleware stores a request context whose correlation id is
// "upd-<update id>", or a random one for synthetic updates.
func CorrelationMiddleware() handlers.Middleware {
	return func(next handlers.Handler) handlers.Handler {
		return func(c telebot.Context) error {
			if c == nil {
				return next(c)
			}

			id := ""
			if updateID := c.Update().ID; updateID != 0 {
				id = "upd-" + strconv.Itoa(updateID)
			}
			c.Set(handlers.ContextKey, logger.WithCorrelationID(context.Background(), id))

			return next(c)
		}
	}
}

// RecoveryMiddleware turns a handler panic into an internal error reported
// like any other failure.
func RecoveryMiddleware(log *slog.Logger, errHandler *errors.Handler) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		return func(c telebot.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}

				logger.FromContext(handlers.RequestContext(c), log).Error("panic recovered in handler",
					slog.Any("panic", r),
					slog.String("stack", string(debug.Stack())),
				)
				reportFailure(c, log, errHandler, errors.NewInternalError(fmt.Errorf("panic recovered: %v", r)))
				err = nil
			}()

			return next(c)
		}
	}
}

// ErrorHandlingMiddleware reports handler errors and tells the user something
// went wrong. The error does not propagate further.
func ErrorHandlingMiddleware(errHandler *errors.Handler) handlers.Middleware {
	return func(next handlers.Handler) handlers.Handler {
		return func(c telebot.Context) error {
			if err := next(c); err != nil {
				reportFailure(c, nil, errHandler, err)
			}
			return nil
		}
	}
}

func reportFailure(c telebot.Context, log *slog.Logger, errHandler *errors.Handler, err error) {
	code, severity := "unknown", errors.SeverityHigh
	var appErr *errors.AppError
	if stdErrors.As(err, &appErr) && appErr != nil {
		code, severity = appErr.Code, appErr.Severity
	}
	metrics.RecordError(code, string(severity))

	text := fallbackUserMessage
	if errHandler != nil {
		if msg, _ := errHandler.Handle(handlers.RequestContext(c), err); msg != "" {
			text = msg
		}
	}

	if c == nil {
		return
	}
	if notifyErr := notify(c, text); notifyErr != nil && log != nil {
		log.Warn("failed to notify user", slog.Any("error", notifyErr))
	}
}

// LoggingMiddleware logs every update with its sender, action and duration.
func LoggingMiddleware(log *slog.Logger) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		return func(c telebot.Context) error {
			start := time.Now()
			l := logger.FromContext(handlers.RequestContext(c), log).With(describe(c)...)

			l.Debug("handling update")
			err := next(c)
			l.Info("handled update", slog.Duration("duration", time.Since(start)), slog.Any("error", err))

			return err
		}
	}
}

func describe(c telebot.Context) []any {
	var (
		userID int64
		action string
	)
	if c != nil {
		if s := c.Sender(); s != nil {
			userID = s.ID
		}
		if cb := c.Callback(); cb != nil {
			action = cb.Data
		} else {
			action = c.Text()
		}
	}

	return []any{slog.Int64("user_id", userID), slog.String("action", action)}
}

// notify answers a callback with an alert, or sends a message otherwise.
func notify(c telebot.Context, text string) error {
	if c.Callback() != nil {
		return c.Respond(&telebot.CallbackResponse{Text: text, ShowAlert: true})
	}
	return c.Send(text)
}
