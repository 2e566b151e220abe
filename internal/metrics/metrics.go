// Package metrics provides Prometheus collectors for the E-Day ledger.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "eday"

// Metrics holds every collector the ledger exports.
type Metrics struct {
	registry *prometheus.Registry

	// Ledger
	VotesCast      *prometheus.CounterVec
	VoteRejections *prometheus.CounterVec
	Registrations  prometheus.Counter
	Logins         *prometheus.CounterVec
	AdminActions   *prometheus.CounterVec
	StaleWrites    prometheus.Counter
	LockWait       prometheus.Histogram

	// Analysis
	AnalysisRequests *prometheus.CounterVec

	// HTTP
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// New creates the collectors on a private registry, together with the
// Go runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		VotesCast: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "votes_cast_total",
			Help:      "Votes recorded, by candidate language.",
		}, []string{"language"}),

		VoteRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "vote_rejections_total",
			Help:      "Votes rejected, by reason.",
		}, []string{"reason"}),

		Registrations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "registrations_total",
			Help:      "Voters registered.",
		}),

		Logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "logins_total",
			Help:      "Login attempts, by outcome (voter, admin, failed).",
		}, []string{"outcome"}),

		AdminActions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "admin_actions_total",
			Help:      "Administrative mutations, by action.",
		}, []string{"action"}),

		StaleWrites: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "stale_writes_total",
			Help:      "Commits rejected because another writer changed a bucket.",
		}),

		LockWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "lock_wait_seconds",
			Help:      "Time spent acquiring the ledger lock.",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		}),

		AnalysisRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "requests_total",
			Help:      "AI analysis requests, by outcome (ok, cached, fallback, disabled).",
		}, []string{"outcome"}),

		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests, by method, route and status.",
		}, []string{"method", "route", "status"}),

		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency, by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.VotesCast,
		m.VoteRejections,
		m.Registrations,
		m.Logins,
		m.AdminActions,
		m.StaleWrites,
		m.LockWait,
		m.AnalysisRequests,
		m.HTTPRequests,
		m.HTTPDuration,
	)

	return m
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest records one served request.
func (m *Metrics) RecordHTTPRequest(method, route string, status int, elapsed time.Duration) {
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
