package telemetry

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusSink derives Prometheus metrics from the orchestrator event
// stream: an event counter, a per-status task latency histogram and a
// per-kind PII finding counter.
type PrometheusSink struct {
	registry *prometheus.Registry

	eventsTotal  *prometheus.CounterVec
	taskDuration *prometheus.HistogramVec
	piiFindings  *prometheus.CounterVec
	batchSize    prometheus.Histogram
}

// NewPrometheusSink builds a sink backed by its own registry so multiple
// orchestrator instances in one process never collide on registration.
func NewPrometheusSink() *PrometheusSink {
	registry := prometheus.NewRegistry()

	s := &PrometheusSink{
		registry: registry,
		eventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskmesh_events_total",
				Help: "Total number of orchestration events by name",
			},
			[]string{"event"},
		),
		taskDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "taskmesh_task_duration_seconds",
				Help:    "Task execution latency in seconds by final status",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"status"},
		),
		piiFindings: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskmesh_pii_findings_total",
				Help: "Total number of PII findings by kind",
			},
			[]string{"kind"},
		),
		batchSize: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "taskmesh_batch_size",
				Help:    "Number of requests per ProcessBatch call",
				Buckets: []float64{1, 2, 5, 10, 20, 50, 100},
			},
		),
	}

	registry.MustRegister(s.eventsTotal, s.taskDuration, s.piiFindings, s.batchSize)
	return s
}

// Registry exposes the underlying registry for custom collectors.
func (s *PrometheusSink) Registry() *prometheus.Registry {
	return s.registry
}

// Handler returns an HTTP handler serving the sink's metrics.
func (s *PrometheusSink) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}

// Emit implements Sink.
func (s *PrometheusSink) Emit(_ context.Context, ev Event) {
	s.eventsTotal.WithLabelValues(ev.Name).Inc()

	switch ev.Name {
	case EventTaskExecutionCompleted:
		s.observeDuration("success", ev)
	case EventTaskExecutionTimeout:
		s.observeDuration("timeout", ev)
	case EventTaskExecutionFailed:
		s.observeDuration("failed", ev)
	case EventPIIDetected, EventPIIMasked:
		if kinds, ok := ev.Fields["kinds"].([]string); ok {
			for _, kind := range kinds {
				s.piiFindings.WithLabelValues(kind).Inc()
			}
		}
	case EventBatchStarted:
		if n, ok := ev.Fields["batch_size"].(int); ok {
			s.batchSize.Observe(float64(n))
		}
	}
}

func (s *PrometheusSink) observeDuration(status string, ev Event) {
	if d, ok := ev.Fields["duration"].(time.Duration); ok {
		s.taskDuration.WithLabelValues(status).Observe(d.Seconds())
	}
}
