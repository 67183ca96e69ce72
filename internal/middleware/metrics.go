package middleware

import (
	"strings"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/himera-continuity/internal/bot/handlers"
	"github.com/Proton-105/himera-continuity/pkg/metrics"
)

// Metrics measures execution time and status for bot handlers, reporting them to Prometheus.
func Metrics(next handlers.Handler) handlers.Handler {
	if next == nil {
		return nil
	}

	return func(c telebot.Context) error {
		start := time.Now()
		err := next(c)

		status := "ok"
		if err != nil {
			status = "error"
		}

		metrics.RecordCommand(CommandLabel(c), status, time.Since(start))

		return err
	}
}

// CommandLabel reduces an update to a bounded metric label: the command name
// without arguments or bot mention, or the callback route without its argument.
func CommandLabel(c telebot.Context) string {
	if c == nil {
		return "unknown"
	}

	if cb := c.Callback(); cb != nil && cb.Data != "" {
		route := strings.TrimSpace(cb.Data)
		if idx := strings.IndexByte(route, '('); idx > 0 {
			route = route[:idx]
		}
		return route
	}

	text := strings.TrimSpace(c.Text())
	if !strings.HasPrefix(text, "/") {
		return "text"
	}

	command := strings.Fields(text)[0]
	if idx := strings.IndexByte(command, '@'); idx > 0 {
		command = command[:idx]
	}
	return command
}
