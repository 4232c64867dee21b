package compliance

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmesh/taskmesh/pkg/domain"
	"github.com/taskmesh/taskmesh/pkg/telemetry"
)

func newRequest(t *testing.T, query string) domain.TaskRequest {
	t.Helper()
	req, err := domain.NewTaskRequest("user-123", query)
	require.NoError(t, err)
	return req
}

func TestValidateRequestMasksPII(t *testing.T) {
	sink := telemetry.NewCaptureSink()
	guard := NewGuard(domain.DefaultGuardrailConfig(), WithSink(sink))

	req := newRequest(t, "Contact me at john.doe@example.com or call 555-123-4567")
	out := guard.ValidateRequest(context.Background(), &req)

	assert.Contains(t, req.Query, "[EMAIL_REDACTED]")
	assert.Contains(t, req.Query, "[PHONE_REDACTED]")
	assert.NotContains(t, req.Query, "john.doe@example.com")
	assert.NotContains(t, req.Query, "555-123-4567")

	// Mutation happens in place; the returned pointer is the same request.
	assert.Same(t, &req, out)

	masked := sink.ByName(telemetry.EventPIIMasked)
	require.Len(t, masked, 1)
	assert.Equal(t, []string{"email", "phone"}, masked[0].Fields["kinds"])
	assert.NotEmpty(t, sink.ByName(telemetry.EventRequestValidated))
}

func TestValidateRequestCleanQueryUntouched(t *testing.T) {
	sink := telemetry.NewCaptureSink()
	guard := NewGuard(domain.DefaultGuardrailConfig(), WithSink(sink))

	req := newRequest(t, "summarize quarterly revenue")
	guard.ValidateRequest(context.Background(), &req)

	assert.Equal(t, "summarize quarterly revenue", req.Query)
	assert.Empty(t, sink.ByName(telemetry.EventPIIMasked))
}

func TestValidateRequestDisabledGuardrails(t *testing.T) {
	sink := telemetry.NewCaptureSink()
	guard := NewGuard(domain.GuardrailConfig{Enabled: false}, WithSink(sink))

	req := newRequest(t, "email me at a@b.com")
	guard.ValidateRequest(context.Background(), &req)

	assert.Equal(t, "email me at a@b.com", req.Query)
	assert.Empty(t, sink.Events())
}

func TestValidateRequestDetectionDisabled(t *testing.T) {
	cfg := domain.DefaultGuardrailConfig()
	cfg.PIIDetection = false
	guard := NewGuard(cfg)

	req := newRequest(t, "email me at a@b.com")
	guard.ValidateRequest(context.Background(), &req)

	assert.Equal(t, "email me at a@b.com", req.Query)
}

func TestFilterResponseIsDetectionOnly(t *testing.T) {
	sink := telemetry.NewCaptureSink()
	guard := NewGuard(domain.DefaultGuardrailConfig(), WithSink(sink))

	payload := map[string]any{
		"data":  "reach the customer at jane@corp.io",
		"score": 0.95,
	}
	out := guard.FilterResponse(context.Background(), payload)

	// Response-side scanning never rewrites the payload: the PII stays,
	// only a warning event records the finding.
	assert.Equal(t, "reach the customer at jane@corp.io", out["data"])

	detected := sink.ByName(telemetry.EventPIIDetected)
	require.Len(t, detected, 1)
	assert.Equal(t, "response", detected[0].Fields["scope"])
	assert.Equal(t, []string{"email"}, detected[0].Fields["kinds"])
	assert.NotEmpty(t, sink.ByName(telemetry.EventResponseFiltered))
}

func TestFilterResponseDisabled(t *testing.T) {
	sink := telemetry.NewCaptureSink()
	guard := NewGuard(domain.GuardrailConfig{Enabled: false}, WithSink(sink))

	payload := map[string]any{"data": "jane@corp.io"}
	out := guard.FilterResponse(context.Background(), payload)

	assert.Equal(t, payload, out)
	assert.Empty(t, sink.Events())
}

func TestValidateAccess(t *testing.T) {
	t.Run("no policy allows everyone", func(t *testing.T) {
		guard := NewGuard(domain.DefaultGuardrailConfig())
		assert.True(t, guard.ValidateAccess(context.Background(), "user-1", "tasks"))
	})

	t.Run("disabled guardrails allow everyone", func(t *testing.T) {
		guard := NewGuard(domain.GuardrailConfig{Enabled: false},
			WithAccessPolicy(AccessPolicyFunc(func(context.Context, string, string) (bool, error) {
				return false, nil
			})))
		assert.True(t, guard.ValidateAccess(context.Background(), "user-1", "tasks"))
	})

	t.Run("policy decision is honored", func(t *testing.T) {
		guard := NewGuard(domain.DefaultGuardrailConfig(),
			WithAccessPolicy(AccessPolicyFunc(func(_ context.Context, userID, _ string) (bool, error) {
				return userID == "admin", nil
			})))
		assert.True(t, guard.ValidateAccess(context.Background(), "admin", "tasks"))
		assert.False(t, guard.ValidateAccess(context.Background(), "user-1", "tasks"))
	})

	t.Run("policy error fails open", func(t *testing.T) {
		guard := NewGuard(domain.DefaultGuardrailConfig(),
			WithAccessPolicy(AccessPolicyFunc(func(context.Context, string, string) (bool, error) {
				return false, assert.AnError
			})))
		assert.True(t, guard.ValidateAccess(context.Background(), "user-1", "tasks"))
	})
}
