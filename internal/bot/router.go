package bot

import (
	"log/slog"
	"sort"
	"strings"
	"sync"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/himera-continuity/internal/bot/handlers"
)

type callbackRoute struct {
	prefix  string
	handler handlers.CallbackHandler
}

// Router picks the handler for an update and runs it through the middleware chain.
// Commands match on their first word, callbacks on the longest registered prefix,
// and any other text goes to the default handler.
type Router struct {
	mu          sync.RWMutex
	commands    map[string]handlers.Handler
	callbacks   []callbackRoute
	fallback    handlers.Handler
	chain       []handlers.Middleware
	botUsername string
	log         *slog.Logger
}

// NewRouter builds an empty Router.
func NewRouter(log *slog.Logger) *Router {
	if log == nil {
		log = slog.Default()
	}

	return &Router{commands: make(map[string]handlers.Handler), log: log}
}

// RegisterCommand binds cmd, matched case-insensitively.
func (r *Router) RegisterCommand(cmd string, h handlers.Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands[strings.ToLower(cmd)] = h
}

// RegisterCallback binds every callback whose data starts with prefix.
func (r *Router) RegisterCallback(prefix string, h handlers.CallbackHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.callbacks = append(r.callbacks, callbackRoute{prefix: prefix, handler: h})
	sort.SliceStable(r.callbacks, func(i, j int) bool {
		return len(r.callbacks[i].prefix) > len(r.callbacks[j].prefix)
	})
}

// Use appends mw; the first registered middleware runs outermost.
func (r *Router) Use(mw handlers.Middleware) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chain = append(r.chain, mw)
}

// SetDefault sets the handler for text that is not a command.
func (r *Router) SetDefault(h handlers.Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = h
}

// SetBotUsername makes commands addressed to other bots ("/help@other_bot") unmatched.
func (r *Router) SetBotUsername(username string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.botUsername = strings.ToLower(username)
}

// Route handles one update. Updates nothing is registered for are dropped.
func (r *Router) Route(c telebot.Context) error {
	if c == nil {
		return nil
	}

	r.mu.RLock()
	h := r.resolve(c)
	chain := r.chain
	r.mu.RUnlock()

	if h == nil {
		return nil
	}

	for i := len(chain) - 1; i >= 0; i-- {
		h = chain[i](h)
	}
	return h(c)
}

func (r *Router) resolve(c telebot.Context) handlers.Handler {
	if cb := c.Callback(); cb != nil {
		data := strings.TrimSpace(cb.Data)
		for _, route := range r.callbacks {
			if strings.HasPrefix(data, route.prefix) {
				return handlers.Handler(route.handler)
			}
		}
		r.log.Debug("unrouted callback", slog.String("data", data))
		return nil
	}

	text := strings.TrimSpace(c.Text())
	if !strings.HasPrefix(text, "/") {
		return r.fallback
	}

	cmd := strings.ToLower(strings.Fields(text)[0])
	if name, mention, ok := strings.Cut(cmd, "@"); ok {
		if r.botUsername != "" && mention != r.botUsername {
			return nil
		}
		cmd = name
	}

	return r.commands[cmd]
}
