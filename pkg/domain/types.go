package domain

import "fmt"

// AgentType classifies a registered backend handler.
type AgentType string

const (
	// AgentTypeBedrock identifies AI agents backed by a foundation model.
	AgentTypeBedrock AgentType = "bedrock"
	// AgentTypeAnalytics identifies data analytics agents.
	AgentTypeAnalytics AgentType = "analytics"
	// AgentTypeNotification identifies notification delivery agents.
	AgentTypeNotification AgentType = "notification"
	// AgentTypeCustom identifies user-provided agent implementations.
	AgentTypeCustom AgentType = "custom"
)

// Valid reports whether the agent type is part of the known catalog.
func (t AgentType) Valid() bool {
	switch t {
	case AgentTypeBedrock, AgentTypeAnalytics, AgentTypeNotification, AgentTypeCustom:
		return true
	default:
		return false
	}
}

// ParseAgentType converts a string into an AgentType, rejecting unknown values.
func ParseAgentType(s string) (AgentType, error) {
	t := AgentType(s)
	if !t.Valid() {
		return "", &ValidationError{Field: "agent_type", Reason: fmt.Sprintf("unknown agent type %q", s)}
	}
	return t, nil
}

// TaskStatus describes the outcome of a task execution.
type TaskStatus string

const (
	// StatusIdle indicates a task that has not started executing.
	StatusIdle TaskStatus = "idle"
	// StatusRunning indicates a task currently executing.
	StatusRunning TaskStatus = "running"
	// StatusSuccess indicates a task that completed and produced a result.
	StatusSuccess TaskStatus = "success"
	// StatusFailed indicates a task that exhausted its attempts or could not
	// be routed to any agent.
	StatusFailed TaskStatus = "failed"
	// StatusTimeout indicates a task aborted by its agent's timeout budget.
	StatusTimeout TaskStatus = "timeout"
)

// GuardrailKind names a compliance rule family enforced by the Guard.
type GuardrailKind string

const (
	// GuardrailDataValidation covers request shape and content checks.
	GuardrailDataValidation GuardrailKind = "data_validation"
	// GuardrailAccessControl covers the access check hook.
	GuardrailAccessControl GuardrailKind = "access_control"
	// GuardrailLoggingMonitoring covers audit event emission.
	GuardrailLoggingMonitoring GuardrailKind = "logging_monitoring"
	// GuardrailPrivacyCompliance covers PII detection and masking.
	GuardrailPrivacyCompliance GuardrailKind = "privacy_compliance"
)
