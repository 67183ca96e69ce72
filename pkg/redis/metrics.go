package redis

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	redisRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "docstore_redis_requests_total",
		Help: "Redis commands issued by the document store, by operation.",
	}, []string{"op"})
	redisErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "docstore_redis_errors_total",
		Help: "Redis commands of the document store that failed, by operation.",
	}, []string{"op"})
	redisRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "docstore_redis_request_duration_seconds",
		Help:    "Latency of document store Redis commands.",
		Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"op"})
)

// MetricsClient is a Client whose document operations are timed and counted.
type MetricsClient struct {
	*Client
}

// NewMetricsClient instruments c.
func NewMetricsClient(c *Client) *MetricsClient {
	return &MetricsClient{Client: c}
}

func (m *MetricsClient) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	return timed("hgetall", func() (map[string]string, error) {
		return m.Client.HGetAll(ctx, key)
	})
}

func (m *MetricsClient) ReplaceHash(ctx context.Context, key string, fields map[string]any) error {
	_, err := timed("replace_hash", func() (struct{}, error) {
		return struct{}{}, m.Client.ReplaceHash(ctx, key, fields)
	})
	return err
}

func (m *MetricsClient) Delete(ctx context.Context, key string) error {
	_, err := timed("delete", func() (struct{}, error) {
		return struct{}{}, m.Client.Delete(ctx, key)
	})
	return err
}

func timed[T any](op string, fn func() (T, error)) (T, error) {
	timer := prometheus.NewTimer(redisRequestDuration.WithLabelValues(op))
	v, err := fn()
	timer.ObserveDuration()

	redisRequestsTotal.WithLabelValues(op).Inc()
	if err != nil {
		redisErrorsTotal.WithLabelValues(op).Inc()
	}
	return v, err
}
