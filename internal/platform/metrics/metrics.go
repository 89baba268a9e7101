package metrics

import (
	"context"
	"database/sql"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

// Metrics holds the process-wide HTTP and connection pool metrics.
type Metrics struct {
	EndpointLatency *prometheus.HistogramVec
	RedisPool       *prometheus.GaugeVec
	DBPool          *prometheus.GaugeVec
}

func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		EndpointLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "podium_endpoint_latency_seconds",
			Help:    "Latency of endpoints in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		RedisPool: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "podium_redis_pool_connections",
			Help: "Redis pool connections by state (total, idle, stale)",
		}, []string{"state"}),
		DBPool: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "podium_db_pool_connections",
			Help: "Database pool connections by state (open, in_use, idle)",
		}, []string{"state"}),
	}
}

// ObserveEndpointLatency records the latency for a given endpoint.
func (m *Metrics) ObserveEndpointLatency(endpoint string, durationSeconds float64) {
	m.EndpointLatency.WithLabelValues(endpoint).Observe(durationSeconds)
}

func (m *Metrics) RecordRedisPoolStats(stats *redis.PoolStats) {
	if stats == nil {
		return
	}
	m.RedisPool.WithLabelValues("total").Set(float64(stats.TotalConns))
	m.RedisPool.WithLabelValues("idle").Set(float64(stats.IdleConns))
	m.RedisPool.WithLabelValues("stale").Set(float64(stats.StaleConns))
}

func (m *Metrics) RecordDBStats(stats sql.DBStats) {
	m.DBPool.WithLabelValues("open").Set(float64(stats.OpenConnections))
	m.DBPool.WithLabelValues("in_use").Set(float64(stats.InUse))
	m.DBPool.WithLabelValues("idle").Set(float64(stats.Idle))
}

// CollectEvery calls collect on every tick until ctx is done.
func CollectEvery(ctx context.Context, interval time.Duration, collect func()) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			collect()
		}
	}
}
