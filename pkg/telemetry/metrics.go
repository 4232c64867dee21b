package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/taskmesh/taskmesh/pkg/domain"
)

var (
	metricsOnce          sync.Once
	metricsInitErr       error
	taskExecutionCounter metric.Int64Counter
	taskRetryCounter     metric.Int64Counter
	taskTimeoutCounter   metric.Int64Counter
	taskLatencyHistogram metric.Float64Histogram
)

// TaskMetrics captures the fields needed to record per-task telemetry.
type TaskMetrics struct {
	AgentID   string
	AgentName string
	AgentType string
	Status    domain.TaskStatus
	Duration  time.Duration
	Attempts  int
}

// RecordTaskMetrics emits counters and a latency histogram describing one
// completed ProcessTask call. Uses the global meter provider; a missing
// provider makes this a no-op.
func RecordTaskMetrics(ctx context.Context, m TaskMetrics) {
	if err := ensureMetrics(); err != nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("agent.id", m.AgentID),
		attribute.String("agent.name", m.AgentName),
		attribute.String("agent.type", m.AgentType),
		attribute.String("task.status", string(m.Status)),
	}

	taskExecutionCounter.Add(ctx, 1, metric.WithAttributes(attrs...))

	if m.Duration > 0 {
		taskLatencyHistogram.Record(ctx, float64(m.Duration)/float64(time.Millisecond), metric.WithAttributes(attrs...))
	}

	if m.Attempts > 1 {
		taskRetryCounter.Add(ctx, int64(m.Attempts-1), metric.WithAttributes(attrs...))
	}

	if m.Status == domain.StatusTimeout {
		taskTimeoutCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

func ensureMetrics() error {
	metricsOnce.Do(func() {
		meter := otel.GetMeterProvider().Meter("taskmesh.orchestrator")

		if taskExecutionCounter, metricsInitErr = meter.Int64Counter(
			"task_executions_total",
			metric.WithDescription("Total number of task executions"),
			metric.WithUnit("{task}"),
		); metricsInitErr != nil {
			return
		}

		if taskRetryCounter, metricsInitErr = meter.Int64Counter(
			"task_retries_total",
			metric.WithDescription("Total number of retried task attempts"),
			metric.WithUnit("{attempt}"),
		); metricsInitErr != nil {
			return
		}

		if taskTimeoutCounter, metricsInitErr = meter.Int64Counter(
			"task_timeouts_total",
			metric.WithDescription("Total number of tasks aborted by timeout"),
			metric.WithUnit("{task}"),
		); metricsInitErr != nil {
			return
		}

		taskLatencyHistogram, metricsInitErr = meter.Float64Histogram(
			"task_duration_milliseconds",
			metric.WithDescription("Task execution latency"),
			metric.WithUnit("ms"),
		)
	})
	return metricsInitErr
}
