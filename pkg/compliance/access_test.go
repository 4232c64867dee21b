package compliance

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmesh/taskmesh/pkg/domain"
)

const authzModule = `package taskmesh.authz

import rego.v1

default allow := false

allow if {
	input.user_id == "admin"
}

allow if {
	input.resource == "public"
}
`

func TestRegoAccessPolicy(t *testing.T) {
	ctx := context.Background()

	policy, err := NewRegoAccessPolicy(ctx, authzModule, "")
	require.NoError(t, err)

	tests := []struct {
		name     string
		userID   string
		resource string
		want     bool
	}{
		{"admin may touch anything", "admin", "tasks", true},
		{"anyone may touch public", "user-1", "public", true},
		{"others are denied", "user-1", "tasks", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			allowed, err := policy.Allow(ctx, tt.userID, tt.resource)
			require.NoError(t, err)
			assert.Equal(t, tt.want, allowed)
		})
	}
}

func TestRegoAccessPolicyRejectsBadModule(t *testing.T) {
	ctx := context.Background()

	_, err := NewRegoAccessPolicy(ctx, "package broken\n\nallow {", "")
	assert.Error(t, err)

	_, err = NewRegoAccessPolicy(ctx, "", "")
	assert.Error(t, err)
}

func TestRegoAccessPolicyWiredIntoGuard(t *testing.T) {
	ctx := context.Background()

	policy, err := NewRegoAccessPolicy(ctx, authzModule, "")
	require.NoError(t, err)

	guard := NewGuard(domain.DefaultGuardrailConfig(), WithAccessPolicy(policy))
	assert.True(t, guard.ValidateAccess(ctx, "admin", "tasks"))
	assert.False(t, guard.ValidateAccess(ctx, "user-1", "tasks"))
}
