package compliance

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/taskmesh/taskmesh/pkg/compliance/pii"
	"github.com/taskmesh/taskmesh/pkg/domain"
	"github.com/taskmesh/taskmesh/pkg/telemetry"
)

// Guard applies the configured guardrails to requests and responses.
type Guard struct {
	cfg     domain.GuardrailConfig
	scanner *pii.Scanner
	access  AccessPolicy
	sink    telemetry.Sink
}

// GuardOption customises Guard construction.
type GuardOption func(*Guard)

// WithSink routes guard events to the given sink.
func WithSink(s telemetry.Sink) GuardOption {
	return func(g *Guard) { g.sink = s }
}

// WithAccessPolicy installs an access-decision collaborator. Without one,
// ValidateAccess allows every authenticated caller.
func WithAccessPolicy(p AccessPolicy) GuardOption {
	return func(g *Guard) { g.access = p }
}

// NewGuard builds a guard for the given configuration.
func NewGuard(cfg domain.GuardrailConfig, opts ...GuardOption) *Guard {
	g := &Guard{
		cfg:     cfg,
		scanner: pii.NewScanner(),
		sink:    telemetry.NoopSink{},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// ValidateRequest applies inbound guardrails. When PII detection is enabled
// and the query contains PII, the query is masked in place; the mutation is
// visible through the caller's pointer. The request is returned for
// chaining. Disabled guardrails make this a pass-through.
func (g *Guard) ValidateRequest(ctx context.Context, req *domain.TaskRequest) *domain.TaskRequest {
	if !g.cfg.Enabled {
		return req
	}

	if g.cfg.AuditLogging {
		telemetry.Emit(ctx, g.sink, telemetry.Info(telemetry.EventRequestValidated, map[string]any{
			"task_id":      req.TaskID.String(),
			"user_id":      req.UserID,
			"query_length": len(req.Query),
		}))
	}

	if !g.cfg.PIIDetection {
		return req
	}

	found := g.scanner.Detect(req.Query)
	if len(found) == 0 {
		return req
	}

	kinds := pii.Kinds(found)
	telemetry.Emit(ctx, g.sink, telemetry.Warn(telemetry.EventPIIDetected, map[string]any{
		"task_id": req.TaskID.String(),
		"scope":   "request",
		"kinds":   kinds,
	}))

	req.Query = g.scanner.Mask(req.Query)
	telemetry.Emit(ctx, g.sink, telemetry.Info(telemetry.EventPIIMasked, map[string]any{
		"task_id": req.TaskID.String(),
		"kinds":   kinds,
	}))
	return req
}

// FilterResponse applies outbound guardrails to a result payload. PII in
// responses is detected and reported but NOT masked; the payload is always
// returned unchanged. Disabled guardrails make this a pass-through.
func (g *Guard) FilterResponse(ctx context.Context, payload map[string]any) map[string]any {
	if !g.cfg.Enabled {
		return payload
	}

	text := payloadText(payload)

	if g.cfg.PIIDetection {
		if found := g.scanner.Detect(text); len(found) > 0 {
			telemetry.Emit(ctx, g.sink, telemetry.Warn(telemetry.EventPIIDetected, map[string]any{
				"scope": "response",
				"kinds": pii.Kinds(found),
			}))
		}
	}

	if g.cfg.AuditLogging {
		telemetry.Emit(ctx, g.sink, telemetry.Info(telemetry.EventResponseFiltered, map[string]any{
			"response_size": len(text),
		}))
	}

	return payload
}

// ValidateAccess checks whether a user may touch a resource. With guardrails
// disabled or no access policy installed the answer is always yes. A policy
// evaluation error fails open and is reported through the sink; the access
// hook must never take a task down with it.
func (g *Guard) ValidateAccess(ctx context.Context, userID, resource string) bool {
	if !g.cfg.Enabled || g.access == nil {
		return true
	}

	allowed, err := g.access.Allow(ctx, userID, resource)
	if err != nil {
		telemetry.Emit(ctx, g.sink, telemetry.Warn(telemetry.EventAccessValidated, map[string]any{
			"user_id":  userID,
			"resource": resource,
			"error":    err.Error(),
		}))
		return true
	}

	telemetry.Emit(ctx, g.sink, telemetry.Info(telemetry.EventAccessValidated, map[string]any{
		"user_id":  userID,
		"resource": resource,
		"allowed":  allowed,
	}))
	return allowed
}

// payloadText flattens a payload for scanning. JSON keeps the rendering
// deterministic (sorted keys); non-serialisable payloads fall back to fmt.
func payloadText(payload map[string]any) string {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprint(payload)
	}
	return string(data)
}
