package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the registry module.
// Tracks registrations, achievements, verifications, rejected operations and
// the notification relay.
type Metrics struct {
	AthletesRegistered prometheus.Counter
	AchievementsAdded  prometheus.Counter
	Verifications      *prometheus.CounterVec
	Rejections         *prometheus.CounterVec
	OperationDuration  *prometheus.HistogramVec
	EventsPublished    prometheus.Counter
	PublishFailures    prometheus.Counter
	OutboxPending      prometheus.Gauge
}

// New creates a new Metrics instance registered with the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers the registry metrics with reg. Tests pass a fresh
// prometheus.NewRegistry() to avoid duplicate registration panics.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		AthletesRegistered: factory.NewCounter(prometheus.CounterOpts{
			Name: "podium_athletes_registered_total",
			Help: "Total number of athletes registered",
		}),
		AchievementsAdded: factory.NewCounter(prometheus.CounterOpts{
			Name: "podium_achievements_added_total",
			Help: "Total number of achievements appended",
		}),
		Verifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "podium_verifications_total",
			Help: "Verification calls accepted, by target (athlete or achievement)",
		}, []string{"target"}),
		Rejections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "podium_rejections_total",
			Help: "Registry operations rejected, by operation and error kind",
		}, []string{"operation", "kind"}),
		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "podium_operation_duration_seconds",
			Help:    "Duration of registry operations",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
		EventsPublished: factory.NewCounter(prometheus.CounterOpts{
			Name: "podium_events_published_total",
			Help: "Registry notifications handed to the publisher",
		}),
		PublishFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "podium_event_publish_failures_total",
			Help: "Failed attempts to publish or fetch registry notifications",
		}),
		OutboxPending: factory.NewGauge(prometheus.GaugeOpts{
			Name: "podium_outbox_pending",
			Help: "Registry notifications committed but not yet published",
		}),
	}
}

func (m *Metrics) IncrementAthletesRegistered() {
	m.AthletesRegistered.Inc()
}

func (m *Metrics) IncrementAchievementsAdded() {
	m.AchievementsAdded.Inc()
}

// IncrementVerification records an accepted verification. target is
// "athlete" or "achievement".
func (m *Metrics) IncrementVerification(target string) {
	m.Verifications.WithLabelValues(target).Inc()
}

func (m *Metrics) IncrementRejection(operation, kind string) {
	if kind == "" {
		kind = "other"
	}
	m.Rejections.WithLabelValues(operation, kind).Inc()
}

// ObserveOperation records the duration of a registry operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveOperation(operation string, start time.Time) {
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncrementEventsPublished(n int) {
	m.EventsPublished.Add(float64(n))
}

func (m *Metrics) IncrementPublishFailures() {
	m.PublishFailures.Inc()
}

func (m *Metrics) SetOutboxPending(n int) {
	m.OutboxPending.Set(float64(n))
}
