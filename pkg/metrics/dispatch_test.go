package metrics

import (
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestDispatchMetricsCountsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewDispatchMetrics(reg)
	m.IncDecision(OutcomeAssigned)
	m.IncDecision(OutcomeAssigned)
	m.IncDecision(OutcomeNoDriver)
	m.SetPending(7)

	if s := sample(t, reg, "auto_assign_decisions_total", map[string]string{"outcome": OutcomeAssigned}); s == nil || s.GetCounter().GetValue() != 2 {
		t.Fatalf("expected assigned=2, got %v", s)
	}
	if s := sample(t, reg, "auto_assign_decisions_total", map[string]string{"outcome": OutcomeNoDriver}); s == nil || s.GetCounter().GetValue() != 1 {
		t.Fatalf("expected no_driver=1, got %v", s)
	}
	if s := sample(t, reg, "auto_assign_pending_jobs", nil); s == nil || s.GetGauge().GetValue() != 7 {
		t.Fatalf("expected pending gauge 7, got %v", s)
	}
}

func TestHTTPMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewHTTPMetrics(reg).Observe(http.MethodPost, "/plan/{id}/publish", http.StatusOK, 40*time.Millisecond)

	requests := sample(t, reg, "http_requests_total", map[string]string{"route": "/plan/{id}/publish", "status": "200"})
	if requests == nil || requests.GetCounter().GetValue() != 1 {
		t.Fatalf("expected one request, got %v", requests)
	}
	latency := sample(t, reg, "http_request_duration_seconds", map[string]string{"method": http.MethodPost})
	if latency == nil || latency.GetHistogram().GetSampleSum() <= 0 {
		t.Fatalf("expected latency sample, got %v", latency)
	}
}

func TestNilRegistererIsNoop(t *testing.T) {
	NewDispatchMetrics(nil).IncDecision(OutcomeAssigned)
	NewHTTPMetrics(nil).Observe(http.MethodGet, "/job", http.StatusOK, time.Millisecond)
	NewCronMetrics(nil).IncSkipped()
	var d *DispatchMetrics
	d.SetPending(3)
	var o *OutboxMetrics
	o.IncResult("job_assigned", OutboxRetry)
}

func TestOutboxMetricsCountsResults(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOutboxMetrics(reg)
	m.IncResult("job_assigned", OutboxPublished)
	m.IncResult("job_assigned", OutboxRetry)
	m.IncResult("plan_published", OutboxDeadLettered)
	m.SetBatch(4)

	if s := sample(t, reg, "outbox_publish_total", map[string]string{"event_type": "plan_published", "result": OutboxDeadLettered}); s == nil || s.GetCounter().GetValue() != 1 {
		t.Fatalf("expected dead_lettered=1, got %v", s)
	}
	if s := sample(t, reg, "outbox_batch_size", nil); s == nil || s.GetGauge().GetValue() != 4 {
		t.Fatalf("expected batch gauge 4, got %v", s)
	}
}
