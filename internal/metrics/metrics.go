// Package metrics exposes check-in counters to Prometheus. A nil *Metrics is
// valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/soaringjerry/Mindful/internal/checkin"
)

const namespace = "mindful"

type Metrics struct {
	reg prometheus.Gatherer

	categorizations *prometheus.CounterVec
	skips           prometheus.Counter
	sessions        *prometheus.CounterVec
	activeSessions  prometheus.Gauge
	summaryTopics   *prometheus.HistogramVec
	records         *prometheus.CounterVec
}

// New registers the collectors on reg.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		reg: reg,
		categorizations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "answers_total",
			Help:      "Answers recorded, by resulting category and topic.",
		}, []string{"category", "topic"}),
		skips: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "skips_total",
			Help:      "Questions skipped.",
		}),
		sessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Check-in sessions by lifecycle event.",
		}, []string{"event"}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Sessions currently held in memory.",
		}),
		summaryTopics: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "summary_topics",
			Help:      "Topics per category in finalized summaries.",
			Buckets:   []float64{0, 1, 2, 4, 8, 16, 28},
		}, []string{"category"}),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "record_operations_total",
			Help:      "Record store operations by kind and outcome.",
		}, []string{"op", "status"}),
	}
	reg.MustRegister(m.categorizations, m.skips, m.sessions, m.activeSessions, m.summaryTopics, m.records)
	return m
}

func (m *Metrics) Answer(c checkin.Category, t checkin.Topic) {
	if m == nil {
		return
	}
	m.categorizations.WithLabelValues(string(c), string(t)).Inc()
}

func (m *Metrics) Skip() {
	if m == nil {
		return
	}
	m.skips.Inc()
}

func (m *Metrics) SessionStarted() {
	if m == nil {
		return
	}
	m.sessions.WithLabelValues("started").Inc()
	m.activeSessions.Inc()
}

func (m *Metrics) SessionFinalized(s checkin.Summary) {
	if m == nil {
		return
	}
	m.sessions.WithLabelValues("finalized").Inc()
	m.summaryTopics.WithLabelValues(string(checkin.CategoryPositive)).Observe(float64(s.Good))
	m.summaryTopics.WithLabelValues(string(checkin.CategoryNeutral)).Observe(float64(s.Neutral))
	m.summaryTopics.WithLabelValues(string(checkin.CategoryNegative)).Observe(float64(s.Bad))
}

// SessionsDropped records sessions leaving memory without a summary.
func (m *Metrics) SessionsDropped(n int) {
	if m == nil || n == 0 {
		return
	}
	m.sessions.WithLabelValues("dropped").Add(float64(n))
	m.activeSessions.Sub(float64(n))
}

// SessionsEvicted records finalized sessions leaving memory.
func (m *Metrics) SessionsEvicted(n int) {
	if m == nil || n == 0 {
		return
	}
	m.activeSessions.Sub(float64(n))
}

func (m *Metrics) RecordOp(op string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.records.WithLabelValues(op, status).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}
