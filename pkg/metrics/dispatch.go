package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeAssigned = "assigned"
	OutcomeNoDriver = "no_driver"
	OutcomeSkipped  = "skipped"
)

// DispatchMetrics tracks auto-assignment decisions.
type DispatchMetrics struct {
	decisions *prometheus.CounterVec
	pending   prometheus.Gauge
}

// NewDispatchMetrics registers the auto-assignment metrics.
func NewDispatchMetrics(reg prometheus.Registerer) *DispatchMetrics {
	if reg == nil {
		return &DispatchMetrics{}
	}
	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auto_assign_decisions_total",
		Help: "Auto-assignment outcomes per processed job.",
	}, []string{"outcome"})
	pending := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "auto_assign_pending_jobs",
		Help: "Unassigned pending jobs seen at the start of the last run.",
	})
	reg.MustRegister(decisions, pending)
	return &DispatchMetrics{decisions: decisions, pending: pending}
}

// IncDecision counts one job outcome.
func (d *DispatchMetrics) IncDecision(outcome string) {
	if d == nil || d.decisions == nil {
		return
	}
	d.decisions.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// SetPending records the backlog size.
func (d *DispatchMetrics) SetPending(n int) {
	if d == nil || d.pending == nil {
		return
	}
	d.pending.Set(float64(n))
}

// HTTPMetrics records request counts and latency per route pattern.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewHTTPMetrics registers the HTTP server metrics.
func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	if reg == nil {
		return &HTTPMetrics{}
	}
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency by method and route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
	reg.MustRegister(requests, duration)
	return &HTTPMetrics{requests: requests, duration: duration}
}

// Observe records one finished request.
func (h *HTTPMetrics) Observe(method, route string, status int, elapsed time.Duration) {
	if h == nil || h.requests == nil {
		return
	}
	route = normalizeLabel(route)
	h.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	h.duration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
