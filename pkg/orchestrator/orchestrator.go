package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/taskmesh/taskmesh/internal/governance"
	"github.com/taskmesh/taskmesh/pkg/agent"
	"github.com/taskmesh/taskmesh/pkg/compliance"
	"github.com/taskmesh/taskmesh/pkg/domain"
	"github.com/taskmesh/taskmesh/pkg/registry"
	"github.com/taskmesh/taskmesh/pkg/storage"
	"github.com/taskmesh/taskmesh/pkg/telemetry"
)

const tracerName = "taskmesh.orchestrator"

// Options configures a new Orchestrator. The zero value is usable: guardrails
// off, unbounded concurrency, default retry shape, preference-first selection
// and a silent sink.
type Options struct {
	// Name identifies this orchestrator instance in events and health output.
	Name string
	// Agents are registered during construction, in order.
	Agents []domain.AgentDescriptor
	// Guardrails configures the compliance guard.
	Guardrails domain.GuardrailConfig
	// MaxConcurrentTasks bounds batch fan-out; zero or negative means unbounded.
	MaxConcurrentTasks int
	// DefaultTimeout bounds execution for descriptors without a timeout of
	// their own. Zero falls back to 30s.
	DefaultTimeout time.Duration
	// Retry sets the backoff shape shared by all agents; the per-agent
	// attempt budget still comes from each descriptor.
	Retry governance.RetryConfig
	// Selection overrides the agent selection policy.
	Selection SelectionPolicy
	// Sink receives lifecycle and execution events.
	Sink telemetry.Sink
	// AccessPolicy is consulted by ValidateAccess when guardrails are enabled.
	AccessPolicy compliance.AccessPolicy
	// Cache, when set, answers repeated successful queries without invoking
	// an agent again.
	Cache storage.ResponseCache
}

// Orchestrator routes task requests to registered agents. All methods are
// safe for concurrent use.
type Orchestrator struct {
	name           string
	registry       *registry.Registry
	guard          *compliance.Guard
	executor       *Executor
	selection      SelectionPolicy
	limiter        *governance.Limiter
	cache          storage.ResponseCache
	sink           telemetry.Sink
	tracer         trace.Tracer
	defaultTimeout time.Duration
	startTime      time.Time
}

// New builds an orchestrator around the given invoker and registers the
// configured agents.
func New(invoker agent.Invoker, opts Options) (*Orchestrator, error) {
	if invoker == nil {
		return nil, errors.New("orchestrator: invoker must not be nil")
	}

	name := opts.Name
	if name == "" {
		name = "taskmesh"
	}
	sink := opts.Sink
	if sink == nil {
		sink = telemetry.NoopSink{}
	}
	selection := opts.Selection
	if selection == nil {
		selection = PreferenceFirst
	}
	defaultTimeout := opts.DefaultTimeout
	if defaultTimeout <= 0 {
		defaultTimeout = 30 * time.Second
	}

	guard := compliance.NewGuard(opts.Guardrails,
		compliance.WithSink(sink),
		compliance.WithAccessPolicy(opts.AccessPolicy))

	o := &Orchestrator{
		name:           name,
		registry:       registry.New(),
		guard:          guard,
		executor:       NewExecutor(invoker, guard, opts.Retry, sink),
		selection:      selection,
		limiter:        governance.NewLimiter(opts.MaxConcurrentTasks),
		cache:          opts.Cache,
		sink:           sink,
		tracer:         otel.Tracer(tracerName),
		defaultTimeout: defaultTimeout,
		startTime:      time.Now().UTC(),
	}

	for _, desc := range opts.Agents {
		o.RegisterAgent(desc)
	}

	telemetry.Emit(context.Background(), o.sink, telemetry.Info(telemetry.EventOrchestratorInitialized, map[string]any{
		"name":         o.name,
		"agents_count": o.registry.Len(),
	}))
	return o, nil
}

// RegisterAgent adds or replaces an agent. Registration takes effect for the
// next selection; in-flight tasks keep the descriptor they started with.
func (o *Orchestrator) RegisterAgent(desc domain.AgentDescriptor) {
	o.registry.Register(desc)
	telemetry.Emit(context.Background(), o.sink, telemetry.Info(telemetry.EventAgentRegistered, map[string]any{
		"agent_id":   desc.ID.String(),
		"agent_name": desc.Name,
		"agent_type": string(desc.Type),
	}))
}

// UnregisterAgent removes an agent by ID. Unknown IDs are a silent no-op.
// In-flight tasks on the removed agent run to completion.
func (o *Orchestrator) UnregisterAgent(id uuid.UUID) {
	desc, ok := o.registry.Unregister(id)
	if !ok {
		return
	}
	telemetry.Emit(context.Background(), o.sink, telemetry.Info(telemetry.EventAgentUnregistered, map[string]any{
		"agent_id":   desc.ID.String(),
		"agent_name": desc.Name,
	}))
}

// SetAgentEnabled flips the enabled flag of a registered agent.
func (o *Orchestrator) SetAgentEnabled(id uuid.UUID, enabled bool) bool {
	return o.registry.SetEnabled(id, enabled)
}

// Agents returns the registered descriptors in registration order.
func (o *Orchestrator) Agents() []domain.AgentDescriptor {
	return o.registry.Snapshot()
}

// SelectAgent applies the selection policy against the current registry
// snapshot.
func (o *Orchestrator) SelectAgent(req domain.TaskRequest) (domain.AgentDescriptor, bool) {
	return o.selection(req, o.registry.Snapshot())
}

// ProcessTask executes one task end to end and always returns a response;
// failures and timeouts are encoded in the response status, never as a
// panic or a missing result. ExecutionTime covers the whole call, selection
// included.
func (o *Orchestrator) ProcessTask(ctx context.Context, req domain.TaskRequest) domain.TaskResponse {
	start := time.Now()

	ctx, span := o.tracer.Start(ctx, "orchestrator.process_task",
		trace.WithAttributes(
			attribute.String("task.id", req.TaskID.String()),
			attribute.String("task.user_id", req.UserID),
		))
	defer span.End()

	var cacheKey string
	if o.cache != nil {
		cacheKey = storage.CacheKey(req)
		if cached, ok := o.cache.Get(ctx, cacheKey); ok {
			telemetry.Emit(ctx, o.sink, telemetry.Info(telemetry.EventTaskCacheHit, map[string]any{
				"task_id": req.TaskID.String(),
				"user_id": req.UserID,
			}))
			// The cached result is re-stamped for this request's identity.
			cached.TaskID = req.TaskID
			cached.ExecutionTime = time.Since(start)
			cached.Timestamp = time.Now().UTC()
			return cached
		}
	}

	desc, ok := o.SelectAgent(req)
	if !ok {
		telemetry.Emit(ctx, o.sink, telemetry.Warn(telemetry.EventTaskExecutionFailed, map[string]any{
			"task_id": req.TaskID.String(),
			"error":   domain.ErrNoAgentAvailable.Error(),
		}))
		return o.finish(ctx, req, domain.AgentDescriptor{Name: "none"}, domain.TaskResponse{
			Status: domain.StatusFailed,
			Error:  domain.ErrNoAgentAvailable.Error(),
		}, start, 0)
	}
	span.SetAttributes(
		attribute.String("agent.id", desc.ID.String()),
		attribute.String("agent.name", desc.Name),
	)

	timeout := desc.Timeout
	if timeout <= 0 {
		timeout = o.defaultTimeout
	}
	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// Masking mutates req.Query before it reaches the invoker.
	o.guard.ValidateRequest(execCtx, &req)

	payload, attempts, err := o.executor.Execute(execCtx, desc, req)

	switch {
	case err == nil:
		resp := o.finish(ctx, req, desc, domain.TaskResponse{
			Status: domain.StatusSuccess,
			Result: payload,
		}, start, attempts)
		if o.cache != nil {
			o.cache.Put(ctx, cacheKey, resp)
		}
		return resp

	case errors.Is(err, domain.ErrTaskTimeout):
		telemetry.Emit(ctx, o.sink, telemetry.Warn(telemetry.EventTaskExecutionTimeout, map[string]any{
			"task_id":    req.TaskID.String(),
			"agent_name": desc.Name,
			"timeout":    timeout.String(),
			"duration":   time.Since(start),
		}))
		return o.finish(ctx, req, desc, domain.TaskResponse{
			Status: domain.StatusTimeout,
			Error:  fmt.Sprintf("Task exceeded timeout of %s", timeout),
		}, start, attempts)

	default:
		return o.finish(ctx, req, desc, domain.TaskResponse{
			Status: domain.StatusFailed,
			Error:  err.Error(),
		}, start, attempts)
	}
}

// finish stamps the invariant response fields and records task metrics.
func (o *Orchestrator) finish(ctx context.Context, req domain.TaskRequest, desc domain.AgentDescriptor, resp domain.TaskResponse, start time.Time, attempts int) domain.TaskResponse {
	resp.TaskID = req.TaskID
	resp.AgentID = desc.ID
	resp.AgentName = desc.Name
	resp.ExecutionTime = time.Since(start)
	resp.Timestamp = time.Now().UTC()

	telemetry.RecordTaskMetrics(ctx, telemetry.TaskMetrics{
		AgentID:   desc.ID.String(),
		AgentName: desc.Name,
		AgentType: string(desc.Type),
		Status:    resp.Status,
		Duration:  resp.ExecutionTime,
		Attempts:  attempts,
	})
	return resp
}

// ProcessBatch runs the requests concurrently, bounded by the configured
// concurrency limit, and returns exactly one response per request in input
// order. A failing task never short-circuits its siblings; each failure is
// encoded in its own slot.
func (o *Orchestrator) ProcessBatch(ctx context.Context, reqs []domain.TaskRequest) []domain.TaskResponse {
	ctx, span := o.tracer.Start(ctx, "orchestrator.process_batch",
		trace.WithAttributes(attribute.Int("batch.size", len(reqs))))
	defer span.End()

	telemetry.Emit(ctx, o.sink, telemetry.Info(telemetry.EventBatchStarted, map[string]any{
		"batch_size": len(reqs),
	}))

	responses := make([]domain.TaskResponse, len(reqs))
	var wg sync.WaitGroup
	for i, req := range reqs {
		wg.Add(1)
		go func(i int, req domain.TaskRequest) {
			defer wg.Done()

			if err := o.limiter.Acquire(ctx); err != nil {
				responses[i] = domain.TaskResponse{
					TaskID:    req.TaskID,
					Status:    domain.StatusFailed,
					Error:     err.Error(),
					Timestamp: time.Now().UTC(),
				}
				return
			}
			defer o.limiter.Release()

			responses[i] = o.ProcessTask(ctx, req)
		}(i, req)
	}
	wg.Wait()

	completed := 0
	for _, resp := range responses {
		if resp.Status == domain.StatusSuccess {
			completed++
		}
	}
	telemetry.Emit(ctx, o.sink, telemetry.Info(telemetry.EventBatchCompleted, map[string]any{
		"batch_size": len(reqs),
		"succeeded":  completed,
	}))
	return responses
}

// ValidateAccess exposes the guard's access decision for callers embedding
// the orchestrator behind their own surfaces.
func (o *Orchestrator) ValidateAccess(ctx context.Context, userID, resource string) bool {
	return o.guard.ValidateAccess(ctx, userID, resource)
}

// HealthCheck reports a point-in-time view of the orchestrator. The
// orchestrator is healthy while at least one enabled agent is registered.
func (o *Orchestrator) HealthCheck() domain.HealthCheck {
	active := o.registry.ActiveCount()
	status := "healthy"
	if active == 0 {
		status = "degraded"
	}
	return domain.HealthCheck{
		Status:       status,
		Timestamp:    time.Now().UTC(),
		AgentsActive: active,
		AgentsTotal:  o.registry.Len(),
		Uptime:       time.Since(o.startTime),
	}
}
