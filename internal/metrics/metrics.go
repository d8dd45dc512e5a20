// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	evaluations      *prometheus.CounterVec
	notifications    *prometheus.CounterVec
	readingsIngested prometheus.Counter
	readingsRejected prometheus.Counter
	evalDuration     prometheus.Histogram
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "plantmood_evaluations_total",
			Help: "Plant evaluations by derived state.",
		}, []string{"state"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "plantmood_notifications_total",
			Help: "Notification policy outcomes.",
		}, []string{"outcome"}),
		readingsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "plantmood_readings_ingested_total",
			Help: "Sensor readings stored from MQTT.",
		}),
		readingsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "plantmood_readings_rejected_total",
			Help: "MQTT messages dropped as malformed or unstorable.",
		}),
		evalDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "plantmood_evaluation_duration_seconds",
			Help:    "Time spent evaluating one plant, including notification dispatch.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	m.registry.MustRegister(
		m.evaluations,
		m.notifications,
		m.readingsIngested,
		m.readingsRejected,
		m.evalDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Evaluated counts one evaluation in state and observes how long it took.
func (m *Metrics) Evaluated(state string, took time.Duration) {
	if m == nil {
		return
	}
	m.evaluations.WithLabelValues(state).Inc()
	m.evalDuration.Observe(took.Seconds())
}

// Notification counts one notification policy outcome.
func (m *Metrics) Notification(outcome string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(outcome).Inc()
}

// ReadingIngested counts one stored sensor reading.
func (m *Metrics) ReadingIngested() {
	if m == nil {
		return
	}
	m.readingsIngested.Inc()
}

// ReadingRejected counts one dropped sensor message.
func (m *Metrics) ReadingRejected() {
	if m == nil {
		return
	}
	m.readingsRejected.Inc()
}
