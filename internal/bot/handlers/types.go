package handlers

import (
	"context"

	telebot "gopkg.in/telebot.v3"
)

// ContextKey is the telebot context key holding the request context.
const ContextKey = "request_ctx"

// Handler processes bot commands.
type Handler func(c telebot.Context) error

// CallbackHandler processes inline callback events.
type CallbackHandler func(c telebot.Context) error

// Middleware wraps handlers with additional behavior.
type Middleware func(Handler) Handler

// RequestContext returns the context stored by the correlation middleware,
// or context.Background when the update did not pass through it.
func RequestContext(c telebot.Context) context.Context {
	if c == nil {
		return context.Background()
	}
	if ctx, ok := c.Get(ContextKey).(context.Context); ok && ctx != nil {
		return ctx
	}
	return context.Background()
}
