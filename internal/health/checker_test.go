package health

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sqlmock "gopkg.in/DATA-DOG/go-sqlmock.v1"
	"gopkg.in/telebot.v3"

	"github.com/Proton-105/himera-continuity/internal/lifecycle"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCheckerCheck(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	c := NewChecker(testLogger())
	c.AddCheck("redis", NewRedisChecker(client))
	c.AddCheck("database", NewDBChecker(db))
	c.AddCheck("telegram", NewTelegramChecker(nil))
	c.AddCheck("", NewRedisChecker(client))
	c.AddCheck("skipped", nil)

	results := c.Check(context.Background())

	assert.Equal(t, []string{"database", "redis", "telegram"}, c.Names())
	assert.Equal(t, "OK", results["redis"])
	assert.Equal(t, "OK", results["database"])
	assert.Equal(t, "telegram bot is not initialized or disconnected", results["telegram"])
}

func TestRedisCheckerDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	mr.Close()

	assert.Error(t, NewRedisChecker(client).HealthCheck(context.Background()))
	assert.ErrorIs(t, NewRedisChecker(nil).HealthCheck(context.Background()), redis.ErrClosed)
}

func TestTelegramChecker(t *testing.T) {
	bot, err := telebot.NewBot(telebot.Settings{Token: "1:offline", Offline: true})
	require.NoError(t, err)

	assert.NoError(t, NewTelegramChecker(bot).HealthCheck(context.Background()))
}

func TestHandlerFollowsProbes(t *testing.T) {
	probes := lifecycle.NewProbes(testLogger())

	c := NewChecker(testLogger())
	c.AddLivenessCheck("process", CheckFunc(probes.Liveness))
	c.AddCheck("lifecycle", CheckFunc(probes.Readiness))

	h := c.Handler(prometheus.NewRegistry())

	status := func(path string) int {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, status("/live"))
	assert.Equal(t, http.StatusServiceUnavailable, status("/ready"))

	probes.MarkReady()
	assert.Equal(t, http.StatusOK, status("/ready"))

	require.NoError(t, probes.MarkDraining(context.Background()))
	assert.Equal(t, http.StatusServiceUnavailable, status("/ready"))
	assert.Equal(t, http.StatusOK, status("/live"))
}

func TestHandlerExportsGauges(t *testing.T) {
	registry := prometheus.NewRegistry()

	c := NewChecker(testLogger())
	c.AddCheck("broken", CheckFunc(func(context.Context) error { return errors.New("down") }))
	c.Handler(registry)

	families, err := registry.Gather()
	require.NoError(t, err)

	var found bool
	for _, family := range families {
		if family.GetName() == "himera_healthcheck_status" {
			found = true
			for _, metric := range family.GetMetric() {
				if metric.GetLabel()[0].GetValue() == "broken" {
					assert.Equal(t, float64(1), metric.GetGauge().GetValue())
				}
			}
		}
	}
	assert.True(t, found)
}

func TestCheckerTimeoutBoundsSlowChecks(t *testing.T) {
	c := NewChecker(testLogger())
	c.SetTimeout(20 * time.Millisecond)
	c.SetTimeout(0)
	c.AddCheck("slow", CheckFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}))

	start := time.Now()
	results := c.Check(context.Background())

	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, context.DeadlineExceeded.Error(), results["slow"])
}
