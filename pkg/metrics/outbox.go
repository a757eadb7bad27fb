package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	OutboxPublished    = "published"
	OutboxRetry        = "retry"
	OutboxDeadLettered = "dead_lettered"
)

// OutboxMetrics counts publish attempts by event type and result.
type OutboxMetrics struct {
	attempts *prometheus.CounterVec
	backlog  prometheus.Gauge
}

func NewOutboxMetrics(reg prometheus.Registerer) *OutboxMetrics {
	if reg == nil {
		return &OutboxMetrics{}
	}
	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_publish_total",
		Help: "Outbox publish attempts by event type and result.",
	}, []string{"event_type", "result"})
	backlog := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "outbox_batch_size",
		Help: "Rows fetched by the last publish batch.",
	})
	reg.MustRegister(attempts, backlog)
	return &OutboxMetrics{attempts: attempts, backlog: backlog}
}

func (o *OutboxMetrics) IncResult(eventType, result string) {
	if o == nil || o.attempts == nil {
		return
	}
	o.attempts.WithLabelValues(normalizeLabel(eventType), normalizeLabel(result)).Inc()
}

func (o *OutboxMetrics) SetBatch(n int) {
	if o == nil || o.backlog == nil {
		return
	}
	o.backlog.Set(float64(n))
}
