package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/MuneebDevss/conflict-resolver-agent/pkg/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "conflict_agent"

// Metrics holds the Prometheus collectors of one server. It also counts meeting
// mutations reported by the meeting use case.
type Metrics struct {
	registry *prometheus.Registry

	requests  *prometheus.HistogramVec
	mutations *prometheus.CounterVec
	conflicts prometheus.Counter
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "meeting_mutations_total",
			Help:      "Committed meeting mutations",
		}, []string{"action", "conflicted"}),
		conflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "meeting_conflicts_detected_total",
			Help:      "Overlapping meetings found by conflict detection",
		}),
	}

	m.registry.MustRegister(
		m.requests,
		m.mutations,
		m.conflicts,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler exposes the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) MeetingMutated(action model.AuditAction, conflicted bool) {
	m.mutations.WithLabelValues(string(action), strconv.FormatBool(conflicted)).Inc()
}

func (m *Metrics) ConflictDetected(count int) {
	m.conflicts.Add(float64(count))
}

func (m *Metrics) observeRequest(method, route string, status int, elapsed time.Duration) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}
