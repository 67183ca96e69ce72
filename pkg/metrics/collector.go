package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	botCommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_commands_total",
			Help: "Total number of bot commands received labeled by command and status",
		},
		[]string{"command", "status"},
	)
	commandDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "command_duration_seconds",
			Help:    "Duration of bot commands in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"command"},
	)
	errorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors split by type and severity",
		},
		[]string{"type", "severity"},
	)
	lifecycleStat = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bot_lifecycle_stat",
			Help: "Last value recorded for a lifecycle statistic such as downtime in microseconds",
		},
		[]string{"name"},
	)
	lifecycleEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_lifecycle_events_total",
			Help: "Number of times a lifecycle statistic was recorded",
		},
		[]string{"name"},
	)
	lastUpdateID = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bot_last_update_id",
			Help: "Identifier of the last Telegram update processed",
		},
	)
)

// RecordCommand increments command counters and records duration.
func RecordCommand(command, status string, duration time.Duration) {
	if command == "" {
		command = "unknown"
	}
	if status == "" {
		status = "unknown"
	}

	botCommandsTotal.WithLabelValues(command, status).Inc()
	commandDurationSeconds.WithLabelValues(command).Observe(duration.Seconds())
}

// RecordError increments error counters with metadata.
func RecordError(errType, severity string) {
	if errType == "" {
		errType = "unknown"
	}
	if severity == "" {
		severity = "unknown"
	}

	errorsTotal.WithLabelValues(errType, severity).Inc()
}

// SetLastUpdateID exposes the transport position.
func SetLastUpdateID(id int64) {
	lastUpdateID.Set(float64(id))
}

// LifecycleSink records lifecycle statistics as Prometheus series.
type LifecycleSink struct{}

// NewLifecycleSink returns a sink backed by the package collectors.
func NewLifecycleSink() *LifecycleSink {
	return &LifecycleSink{}
}

// Record stores value as the latest reading of the named statistic.
func (LifecycleSink) Record(name string, value int64) {
	if name == "" {
		name = "unknown"
	}

	lifecycleStat.WithLabelValues(name).Set(float64(value))
	lifecycleEventsTotal.WithLabelValues(name).Inc()
}
