package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmesh/taskmesh/pkg/domain"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "taskmesh.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "default-orchestrator", cfg.Name)
	assert.Equal(t, "us-east-1", cfg.Region)
	assert.Equal(t, 10, cfg.MaxConcurrentTasks)
	assert.Equal(t, 30, cfg.DefaultTimeout)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.Agents)
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
name: prod-orchestrator
region: eu-west-1
max_concurrent_tasks: 25
default_timeout: 60
log_level: DEBUG
guardrails:
  enabled: true
  pii_detection: true
  audit_logging: false
  iam_policies:
    - arn:aws:iam::123456789:policy/task-processing
telemetry:
  otlp_endpoint: otel-collector:4317
  insecure: true
agents:
  - name: bedrock-agent
    type: bedrock
    description: Foundation model agent
    endpoint: arn:aws:lambda:eu-west-1:123456789:function:bedrock
    timeout: 120
    retry_attempts: 5
    metadata:
      model_id: anthropic.claude-v2
  - name: notifier
    type: notification
    endpoint: https://hooks.example.com/notify
    enabled: false
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "prod-orchestrator", cfg.Name)
	assert.Equal(t, "eu-west-1", cfg.Region)
	assert.Equal(t, 25, cfg.MaxConcurrentTasks)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "otel-collector:4317", cfg.Telemetry.OTLPEndpoint)

	descs, err := cfg.Descriptors()
	require.NoError(t, err)
	require.Len(t, descs, 2)

	assert.Equal(t, "bedrock-agent", descs[0].Name)
	assert.Equal(t, domain.AgentTypeBedrock, descs[0].Type)
	assert.Equal(t, 120*time.Second, descs[0].Timeout)
	assert.Equal(t, 5, descs[0].RetryAttempts)
	assert.True(t, descs[0].Enabled)
	assert.Equal(t, "anthropic.claude-v2", descs[0].Metadata["model_id"])

	assert.Equal(t, domain.AgentTypeNotification, descs[1].Type)
	assert.False(t, descs[1].Enabled)
	// Unset fields take the domain defaults.
	assert.Equal(t, 30*time.Second, descs[1].Timeout)
	assert.Equal(t, 3, descs[1].RetryAttempts)

	guards := cfg.GuardrailConfig()
	assert.True(t, guards.Enabled)
	assert.True(t, guards.PIIDetection)
	assert.False(t, guards.AuditLogging)
	assert.Equal(t, []string{"arn:aws:iam::123456789:policy/task-processing"}, guards.PolicyRefs)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown region", "region: mars-central-1"},
		{"concurrency too high", "max_concurrent_tasks: 500"},
		{"concurrency too low", "max_concurrent_tasks: 0"},
		{"timeout out of range", "default_timeout: 1000"},
		{"bad log level", "log_level: loud"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestDescriptorsRejectInvalidAgents(t *testing.T) {
	path := writeConfig(t, `
agents:
  - name: broken
    type: bedrock
    endpoint: ftp://not-allowed
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	_, err = cfg.Descriptors()
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}

func TestDescriptorsRejectUnknownType(t *testing.T) {
	path := writeConfig(t, `
agents:
  - name: mystery
    type: quantum
    endpoint: https://example.com
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	_, err = cfg.Descriptors()
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TASKMESH_NAME", "from-env")
	t.Setenv("TASKMESH_REGION", "us-west-2")
	t.Setenv("TASKMESH_MAX_CONCURRENT_TASKS", "42")
	t.Setenv("TASKMESH_OTLP_ENDPOINT", "collector:4317")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Name)
	assert.Equal(t, "us-west-2", cfg.Region)
	assert.Equal(t, 42, cfg.MaxConcurrentTasks)
	assert.Equal(t, "collector:4317", cfg.Telemetry.OTLPEndpoint)
}

func TestLoadParsesJSON(t *testing.T) {
	path := writeConfig(t, `{"name": "json-config", "region": "us-east-2"}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "json-config", cfg.Name)
	assert.Equal(t, "us-east-2", cfg.Region)
}

func TestFileProviderReload(t *testing.T) {
	path := writeConfig(t, "name: first\n")

	provider, err := NewFileProvider(path, nil)
	require.NoError(t, err)
	defer func() { _ = provider.Close() }()

	updates := provider.Subscribe()
	first := <-updates
	assert.Equal(t, "first", first.Name)

	require.NoError(t, os.WriteFile(path, []byte("name: second\n"), 0o600))

	select {
	case cfg := <-updates:
		assert.Equal(t, "second", cfg.Name)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for config reload")
	}
	assert.Equal(t, "second", provider.Current().Name)
}

func TestFileProviderKeepsLastGoodConfig(t *testing.T) {
	path := writeConfig(t, "name: good\n")

	provider, err := NewFileProvider(path, nil)
	require.NoError(t, err)
	defer func() { _ = provider.Close() }()

	require.NoError(t, os.WriteFile(path, []byte("region: nowhere-1\n"), 0o600))

	// The invalid write must never surface; poll briefly and confirm the
	// provider still serves the last good configuration.
	time.Sleep(500 * time.Millisecond)
	assert.Equal(t, "good", provider.Current().Name)
}
