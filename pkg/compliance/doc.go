// Package compliance enforces guardrails around task execution: PII
// detection and masking on inbound queries, detection-only filtering of
// outbound result payloads, audit event emission and a pluggable access
// check hook.
//
// Request-side masking rewrites the query in place; response-side scanning
// deliberately does not rewrite payload fields. That asymmetry is a known
// limitation carried forward intentionally, not an oversight.
package compliance
