// Package health aggregates component checks and serves them as /live and
// /ready probes.
package health

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/heptiolabs/healthcheck"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"gopkg.in/telebot.v3"
)

const (
	metricsNamespace    = "himera"
	defaultTimeout      = 2 * time.Second
	maxGoroutines       = 10_000
	statusOK            = "OK"
	statusNotConfigured = "no check configured"
)

// Checkable represents a component that can report its health status.
type Checkable interface {
	HealthCheck(ctx context.Context) error
}

// CheckFunc adapts a function to Checkable.
type CheckFunc func(ctx context.Context) error

// HealthCheck calls f.
func (f CheckFunc) HealthCheck(ctx context.Context) error {
	return f(ctx)
}

// Checker aggregates health checks for multiple components.
type Checker struct {
	mu       sync.RWMutex
	log      *slog.Logger
	checks   map[string]Checkable
	liveness map[string]Checkable
	timeout  time.Duration
}

// NewChecker instantiates a Checker with the provided logger.
func NewChecker(log *slog.Logger) *Checker {
	if log == nil {
		log = slog.Default()
	}

	return &Checker{
		log:      log,
		checks:   make(map[string]Checkable),
		liveness: make(map[string]Checkable),
		timeout:  defaultTimeout,
	}
}

// SetTimeout bounds every individual check.
func (c *Checker) SetTimeout(d time.Duration) {
	if d > 0 {
		c.timeout = d
	}
}

// AddCheck registers a readiness check by name.
func (c *Checker) AddCheck(name string, check Checkable) {
	if name == "" || check == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// AddLivenessCheck registers a check whose failure means the process should be restarted.
func (c *Checker) AddLivenessCheck(name string, check Checkable) {
	if name == "" || check == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.liveness[name] = check
}

// Names lists the registered readiness checks in sorted order.
func (c *Checker) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.checks))
	for name := range c.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Check runs all registered readiness checks and returns their statuses.
func (c *Checker) Check(ctx context.Context) map[string]string {
	c.mu.RLock()
	checks := make(map[string]Checkable, len(c.checks))
	for name, check := range c.checks {
		checks[name] = check
	}
	c.mu.RUnlock()

	results := make(map[string]string, len(checks))
	for name, check := range checks {
		if check == nil {
			results[name] = statusNotConfigured
			continue
		}

		if err := c.run(ctx, name, check); err != nil {
			results[name] = err.Error()
			continue
		}

		results[name] = statusOK
	}

	return results
}

// Handler builds the /live and /ready HTTP handler. When registry is not nil
// every check also exports a himera_healthcheck_status gauge.
func (c *Checker) Handler(registry prometheus.Registerer) healthcheck.Handler {
	var h healthcheck.Handler
	if registry != nil {
		h = healthcheck.NewMetricsHandler(registry, metricsNamespace)
	} else {
		h = healthcheck.NewHandler()
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	h.AddLivenessCheck("goroutines", healthcheck.GoroutineCountCheck(maxGoroutines))
	for name, check := range c.liveness {
		h.AddLivenessCheck(name, c.probe(name, check))
	}
	for name, check := range c.checks {
		h.AddReadinessCheck(name, c.probe(name, check))
	}

	return h
}

func (c *Checker) probe(name string, check Checkable) healthcheck.Check {
	return healthcheck.Timeout(func() error {
		return c.run(context.Background(), name, check)
	}, c.timeout)
}

func (c *Checker) run(ctx context.Context, name string, check Checkable) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := check.HealthCheck(ctx); err != nil {
		c.log.Error("health check failed", slog.String("component", name), slog.Any("error", err))
		return err
	}
	return nil
}

// DBChecker verifies connectivity to the SQL database behind the document store.
type DBChecker struct {
	db *sql.DB
}

// NewDBChecker constructs a DBChecker.
func NewDBChecker(db *sql.DB) *DBChecker {
	return &DBChecker{db: db}
}

// HealthCheck pings the database to ensure it is reachable.
func (c *DBChecker) HealthCheck(ctx context.Context) error {
	if c == nil || c.db == nil {
		return sql.ErrConnDone
	}
	return c.db.PingContext(ctx)
}

// Pinger abstracts the subset of redis.Client used for health checks.
type Pinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

// RedisChecker verifies connectivity to a Redis instance.
type RedisChecker struct {
	pinger Pinger
}

// NewRedisChecker constructs a RedisChecker.
func NewRedisChecker(pinger Pinger) *RedisChecker {
	return &RedisChecker{pinger: pinger}
}

// HealthCheck issues a PING command against Redis.
func (c *RedisChecker) HealthCheck(ctx context.Context) error {
	if c == nil || c.pinger == nil {
		return redis.ErrClosed
	}
	return c.pinger.Ping(ctx).Err()
}

// TelegramChecker verifies that the bot identity was resolved.
type TelegramChecker struct {
	bot *telebot.Bot
}

// NewTelegramChecker constructs a TelegramChecker.
func NewTelegramChecker(bot *telebot.Bot) *TelegramChecker {
	return &TelegramChecker{bot: bot}
}

// HealthCheck ensures the underlying bot is initialized.
func (c *TelegramChecker) HealthCheck(ctx context.Context) error {
	if c == nil || c.bot == nil || c.bot.Me == nil {
		return errors.New("telegram bot is not initialized or disconnected")
	}
	return ctx.Err()
}
