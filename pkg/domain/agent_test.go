package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAgentDescriptorDefaults(t *testing.T) {
	desc, err := NewAgentDescriptor("worker", AgentTypeCustom, "https://agents.example.com/worker")
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, desc.ID)
	assert.Equal(t, 30*time.Second, desc.Timeout)
	assert.Equal(t, 3, desc.RetryAttempts)
	assert.True(t, desc.Enabled)
	assert.NotNil(t, desc.Metadata)
}

func TestNewAgentDescriptorOptions(t *testing.T) {
	id := uuid.New()
	desc, err := NewAgentDescriptor("worker", AgentTypeBedrock,
		"arn:aws:lambda:us-east-1:123456789:function:worker",
		WithAgentID(id),
		WithDescription("does work"),
		WithTimeout(2*time.Minute),
		WithRetryAttempts(5),
		WithEnabled(false),
		WithMetadata(map[string]string{"model_id": "anthropic.claude-v2"}))
	require.NoError(t, err)

	assert.Equal(t, id, desc.ID)
	assert.Equal(t, "does work", desc.Description)
	assert.Equal(t, 2*time.Minute, desc.Timeout)
	assert.Equal(t, 5, desc.RetryAttempts)
	assert.False(t, desc.Enabled)
	assert.Equal(t, "anthropic.claude-v2", desc.Metadata["model_id"])
}

func TestNewAgentDescriptorValidation(t *testing.T) {
	validEndpoint := "arn:aws:lambda:us-east-1:123456789:function:worker"
	tests := []struct {
		name     string
		agent    string
		agType   AgentType
		endpoint string
		opts     []AgentOption
		field    string
	}{
		{"empty name", "", AgentTypeCustom, validEndpoint, nil, "name"},
		{"blank name", "   ", AgentTypeCustom, validEndpoint, nil, "name"},
		{"name too long", strings.Repeat("x", 101), AgentTypeCustom, validEndpoint, nil, "name"},
		{"unknown type", "worker", AgentType("quantum"), validEndpoint, nil, "agent_type"},
		{"bad endpoint scheme", "worker", AgentTypeCustom, "ftp://example.com", nil, "endpoint"},
		{"empty endpoint", "worker", AgentTypeCustom, "", nil, "endpoint"},
		{"timeout too small", "worker", AgentTypeCustom, validEndpoint,
			[]AgentOption{WithTimeout(500 * time.Millisecond)}, "timeout"},
		{"timeout too large", "worker", AgentTypeCustom, validEndpoint,
			[]AgentOption{WithTimeout(901 * time.Second)}, "timeout"},
		{"negative retries", "worker", AgentTypeCustom, validEndpoint,
			[]AgentOption{WithRetryAttempts(-1)}, "retry_attempts"},
		{"too many retries", "worker", AgentTypeCustom, validEndpoint,
			[]AgentOption{WithRetryAttempts(11)}, "retry_attempts"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAgentDescriptor(tt.agent, tt.agType, tt.endpoint, tt.opts...)
			require.Error(t, err)
			require.True(t, IsValidation(err))

			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestNewAgentDescriptorAcceptsBoundaryValues(t *testing.T) {
	endpoint := "https://agents.example.com/worker"

	_, err := NewAgentDescriptor("worker", AgentTypeCustom, endpoint,
		WithTimeout(MinAgentTimeout), WithRetryAttempts(0))
	assert.NoError(t, err)

	_, err = NewAgentDescriptor("worker", AgentTypeCustom, endpoint,
		WithTimeout(MaxAgentTimeout), WithRetryAttempts(MaxRetryAttempts))
	assert.NoError(t, err)

	_, err = NewAgentDescriptor(strings.Repeat("x", 100), AgentTypeCustom, endpoint)
	assert.NoError(t, err)
}

func TestParseAgentType(t *testing.T) {
	for _, valid := range []string{"bedrock", "analytics", "notification", "custom"} {
		parsed, err := ParseAgentType(valid)
		require.NoError(t, err)
		assert.Equal(t, AgentType(valid), parsed)
	}

	_, err := ParseAgentType("quantum")
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}
