// Package telemetry carries the orchestrator's observability surface.
//
// The core never logs directly: every component is handed a Sink at
// construction and emits named events (orchestrator_initialized,
// task_execution_started, pii_masked, ...) to it. Sinks are fire-and-forget;
// a failing or panicking sink never affects task outcome. NoopSink is the
// default for tests, NewSlogSink adapts a *slog.Logger for production, and
// PrometheusSink derives counters and latency histograms from the event
// stream. OpenTelemetry task metrics and the tracer-provider bootstrap live
// here as well.
package telemetry
