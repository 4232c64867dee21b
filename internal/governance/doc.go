// Package governance coordinates runtime safety controls for guarded agent
// execution: bounded exponential-backoff retries and an advisory admission
// limiter for batch fan-out. The orchestrator composes these primitives
// around the external agent invocation; they carry no domain knowledge of
// their own.
package governance
