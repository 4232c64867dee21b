package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// MinAgentTimeout is the smallest accepted per-agent execution budget.
	MinAgentTimeout = 1 * time.Second
	// MaxAgentTimeout is the largest accepted per-agent execution budget.
	MaxAgentTimeout = 900 * time.Second
	// MaxRetryAttempts bounds the per-agent retry configuration.
	MaxRetryAttempts = 10

	maxAgentNameLength = 100
	lambdaARNPrefix    = "arn:aws:lambda:"
)

// AgentDescriptor describes a registered backend handler. Descriptors are
// validated at construction and immutable afterwards except for the Enabled
// flag, which the registry owns.
type AgentDescriptor struct {
	ID            uuid.UUID
	Name          string
	Type          AgentType
	Description   string
	Endpoint      string
	Timeout       time.Duration
	RetryAttempts int
	Enabled       bool
	Metadata      map[string]string
}

// AgentOption customises an AgentDescriptor during construction.
type AgentOption func(*AgentDescriptor)

// WithAgentID pins the descriptor identity instead of generating one.
func WithAgentID(id uuid.UUID) AgentOption {
	return func(a *AgentDescriptor) { a.ID = id }
}

// WithDescription sets the free-form agent description.
func WithDescription(desc string) AgentOption {
	return func(a *AgentDescriptor) { a.Description = desc }
}

// WithTimeout overrides the default 30s execution budget.
func WithTimeout(d time.Duration) AgentOption {
	return func(a *AgentDescriptor) { a.Timeout = d }
}

// WithRetryAttempts overrides the default of 3 retry attempts.
func WithRetryAttempts(n int) AgentOption {
	return func(a *AgentDescriptor) { a.RetryAttempts = n }
}

// WithEnabled sets the initial enabled flag.
func WithEnabled(enabled bool) AgentOption {
	return func(a *AgentDescriptor) { a.Enabled = enabled }
}

// WithMetadata attaches free-form agent configuration.
func WithMetadata(md map[string]string) AgentOption {
	return func(a *AgentDescriptor) { a.Metadata = md }
}

// NewAgentDescriptor validates and builds an agent descriptor. The endpoint
// must be a Lambda-style ARN or an http(s) URL; timeout and retry bounds
// follow the platform limits (1–900s, 0–10 attempts).
func NewAgentDescriptor(name string, agentType AgentType, endpoint string, opts ...AgentOption) (AgentDescriptor, error) {
	desc := AgentDescriptor{
		ID:            uuid.New(),
		Name:          name,
		Type:          agentType,
		Endpoint:      endpoint,
		Timeout:       30 * time.Second,
		RetryAttempts: 3,
		Enabled:       true,
	}
	for _, opt := range opts {
		opt(&desc)
	}

	if strings.TrimSpace(desc.Name) == "" {
		return AgentDescriptor{}, &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if len(desc.Name) > maxAgentNameLength {
		return AgentDescriptor{}, &ValidationError{Field: "name", Reason: fmt.Sprintf("must be at most %d characters", maxAgentNameLength)}
	}
	if !desc.Type.Valid() {
		return AgentDescriptor{}, &ValidationError{Field: "agent_type", Reason: fmt.Sprintf("unknown agent type %q", desc.Type)}
	}
	if !validEndpoint(desc.Endpoint) {
		return AgentDescriptor{}, &ValidationError{Field: "endpoint", Reason: "must be a Lambda ARN or HTTP(S) URL"}
	}
	if desc.Timeout < MinAgentTimeout || desc.Timeout > MaxAgentTimeout {
		return AgentDescriptor{}, &ValidationError{
			Field:  "timeout",
			Reason: fmt.Sprintf("must be between %s and %s", MinAgentTimeout, MaxAgentTimeout),
		}
	}
	if desc.RetryAttempts < 0 || desc.RetryAttempts > MaxRetryAttempts {
		return AgentDescriptor{}, &ValidationError{
			Field:  "retry_attempts",
			Reason: fmt.Sprintf("must be between 0 and %d", MaxRetryAttempts),
		}
	}
	if desc.Metadata == nil {
		desc.Metadata = map[string]string{}
	}
	return desc, nil
}

func validEndpoint(endpoint string) bool {
	return strings.HasPrefix(endpoint, lambdaARNPrefix) ||
		strings.HasPrefix(endpoint, "http://") ||
		strings.HasPrefix(endpoint, "https://")
}
