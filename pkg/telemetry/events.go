package telemetry

import (
	"context"
	"log/slog"
	"time"
)

// Event names emitted by the orchestration core.
const (
	EventOrchestratorInitialized = "orchestrator_initialized"
	EventAgentRegistered         = "agent_registered"
	EventAgentUnregistered       = "agent_unregistered"
	EventTaskExecutionStarted    = "task_execution_started"
	EventTaskExecutionCompleted  = "task_execution_completed"
	EventTaskExecutionTimeout    = "task_execution_timeout"
	EventTaskExecutionFailed     = "task_execution_failed"
	EventPIIDetected             = "pii_detected"
	EventPIIMasked               = "pii_masked"
	EventBatchStarted            = "batch_processing_started"
	EventBatchCompleted          = "batch_processing_completed"
	EventTaskCacheHit            = "task_cache_hit"
	EventRequestValidated        = "request_validated"
	EventResponseFiltered        = "response_filtered"
	EventAccessValidated         = "access_validated"
)

// Event is a single named observation with structured fields.
type Event struct {
	Name   string
	Level  slog.Level
	Time   time.Time
	Fields map[string]any
}

// Sink receives events from the core. Implementations must be safe for
// concurrent use and should never block the caller for long; emission is
// fire-and-forget and carries no error channel back into task processing.
type Sink interface {
	Emit(ctx context.Context, ev Event)
}

// Emit forwards an event to the sink, tolerating nil sinks and recovering
// panics so that observability failures cannot change task outcomes.
func Emit(ctx context.Context, s Sink, ev Event) {
	if s == nil {
		return
	}
	if ev.Time.IsZero() {
		ev.Time = time.Now().UTC()
	}
	defer func() {
		_ = recover()
	}()
	s.Emit(ctx, ev)
}

// Info builds an informational event.
func Info(name string, fields map[string]any) Event {
	return Event{Name: name, Level: slog.LevelInfo, Fields: fields}
}

// Warn builds a warning event.
func Warn(name string, fields map[string]any) Event {
	return Event{Name: name, Level: slog.LevelWarn, Fields: fields}
}

// Error builds an error event.
func Error(name string, fields map[string]any) Event {
	return Event{Name: name, Level: slog.LevelError, Fields: fields}
}

// NoopSink discards every event. It is the default sink for components
// constructed without explicit observability wiring, and for tests.
type NoopSink struct{}

// Emit implements Sink.
func (NoopSink) Emit(context.Context, Event) {}

// SlogSink forwards events to a structured logger.
type SlogSink struct {
	logger *slog.Logger
}

// NewSlogSink adapts a *slog.Logger into a Sink. A nil logger falls back to
// slog.Default().
func NewSlogSink(logger *slog.Logger) *SlogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogSink{logger: logger}
}

// Emit implements Sink.
func (s *SlogSink) Emit(ctx context.Context, ev Event) {
	attrs := make([]slog.Attr, 0, len(ev.Fields))
	for k, v := range ev.Fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	s.logger.LogAttrs(ctx, ev.Level, ev.Name, attrs...)
}

// MultiSink fans one event out to several sinks in order.
type MultiSink []Sink

// Emit implements Sink.
func (m MultiSink) Emit(ctx context.Context, ev Event) {
	for _, s := range m {
		Emit(ctx, s, ev)
	}
}
