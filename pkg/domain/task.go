package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxQueryLength bounds the query text accepted on a task request.
const MaxQueryLength = 10000

// TaskRequest is an incoming unit of work for the orchestrator. The query
// text may be rewritten in place by the compliance guard (PII masking)
// before the request reaches an agent; no other field is mutated after
// construction.
type TaskRequest struct {
	TaskID         uuid.UUID
	UserID         string
	Query          string
	Context        map[string]any
	PreferredAgent AgentType // empty means no preference
	Timestamp      time.Time
}

// TaskOption customises a TaskRequest during construction.
type TaskOption func(*TaskRequest)

// WithTaskID pins the request identity instead of generating one.
func WithTaskID(id uuid.UUID) TaskOption {
	return func(r *TaskRequest) { r.TaskID = id }
}

// WithTaskContext attaches free-form request context.
func WithTaskContext(ctx map[string]any) TaskOption {
	return func(r *TaskRequest) { r.Context = ctx }
}

// WithPreferredAgent steers selection toward a specific agent type.
func WithPreferredAgent(t AgentType) TaskOption {
	return func(r *TaskRequest) { r.PreferredAgent = t }
}

// NewTaskRequest validates and builds a task request.
func NewTaskRequest(userID, query string, opts ...TaskOption) (TaskRequest, error) {
	req := TaskRequest{
		TaskID:    uuid.New(),
		UserID:    userID,
		Query:     query,
		Timestamp: time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(&req)
	}

	if strings.TrimSpace(req.UserID) == "" {
		return TaskRequest{}, &ValidationError{Field: "user_id", Reason: "must not be empty"}
	}
	if len(req.Query) == 0 {
		return TaskRequest{}, &ValidationError{Field: "query", Reason: "must not be empty"}
	}
	if len(req.Query) > MaxQueryLength {
		return TaskRequest{}, &ValidationError{Field: "query", Reason: fmt.Sprintf("must be at most %d characters", MaxQueryLength)}
	}
	if req.PreferredAgent != "" && !req.PreferredAgent.Valid() {
		return TaskRequest{}, &ValidationError{Field: "preferred_agent", Reason: fmt.Sprintf("unknown agent type %q", req.PreferredAgent)}
	}
	if req.Context == nil {
		req.Context = map[string]any{}
	}
	return req, nil
}

// TaskResponse records the outcome of one ProcessTask call. Responses are
// built once and never modified afterwards.
type TaskResponse struct {
	TaskID        uuid.UUID
	AgentID       uuid.UUID
	AgentName     string
	Status        TaskStatus
	Result        map[string]any
	Error         string
	ExecutionTime time.Duration
	Timestamp     time.Time
}

// HealthCheck is a derived point-in-time view of orchestrator health.
type HealthCheck struct {
	Status       string
	Timestamp    time.Time
	AgentsActive int
	AgentsTotal  int
	Uptime       time.Duration
}
