package logger

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
)

const masked = "***"

// sensitiveSuffixes match keys such as "token", "bot_token" or "redis_password".
var sensitiveSuffixes = []string{"password", "token", "secret", "api_key", "authorization", "session", "dsn"}

// botTokenPattern finds Telegram bot tokens embedded in free text, for example
// in API URLs carried by transport errors.
var botTokenPattern = regexp.MustCompile(`\d{5,}:[A-Za-z0-9_-]{30,}\b`)

// MaskingHandler hides secrets before records reach the wrapped handler.
type MaskingHandler struct {
	next slog.Handler
}

// NewMaskingHandler wraps next.
func NewMaskingHandler(next slog.Handler) *MaskingHandler {
	return &MaskingHandler{next: next}
}

func (h *MaskingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *MaskingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make([]slog.Attr, len(attrs))
	for i, attr := range attrs {
		out[i] = maskAttr(attr)
	}
	return &MaskingHandler{next: h.next.WithAttrs(out)}
}

func (h *MaskingHandler) WithGroup(name string) slog.Handler {
	return &MaskingHandler{next: h.next.WithGroup(name)}
}

func (h *MaskingHandler) Handle(ctx context.Context, record slog.Record) error {
	clean := slog.NewRecord(record.Time, record.Level, scrub(record.Message), record.PC)
	record.Attrs(func(attr slog.Attr) bool {
		clean.AddAttrs(maskAttr(attr))
		return true
	})

	return h.next.Handle(ctx, clean)
}

func maskAttr(attr slog.Attr) slog.Attr {
	if isSensitiveKey(attr.Key) {
		return slog.String(attr.Key, masked)
	}

	v := attr.Value.Resolve()
	switch v.Kind() {
	case slog.KindGroup:
		children := v.Group()
		out := make([]any, len(children))
		for i, child := range children {
			out[i] = maskAttr(child)
		}
		return slog.Group(attr.Key, out...)
	case slog.KindString:
		return slog.String(attr.Key, scrub(v.String()))
	case slog.KindAny:
		if err, ok := v.Any().(error); ok && err != nil {
			return slog.String(attr.Key, scrub(err.Error()))
		}
	}
	return attr
}

func scrub(s string) string {
	return botTokenPattern.ReplaceAllString(s, masked)
}

func isSensitiveKey(key string) bool {
	key = strings.ToLower(key)
	for _, suffix := range sensitiveSuffixes {
		if strings.HasSuffix(key, suffix) {
			return true
		}
	}
	return false
}
