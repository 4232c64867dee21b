package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/taskmesh/taskmesh/internal/governance"
	"github.com/taskmesh/taskmesh/pkg/agent"
	"github.com/taskmesh/taskmesh/pkg/compliance"
	"github.com/taskmesh/taskmesh/pkg/domain"
	"github.com/taskmesh/taskmesh/pkg/telemetry"
)

// Executor runs one task on one agent under the governance discipline:
// bounded retries with exponential backoff inside the caller's timeout.
// The caller owns the deadline; the executor never extends it, so backoff
// waits and slow attempts all burn the same budget.
type Executor struct {
	invoker   agent.Invoker
	guard     *compliance.Guard
	baseRetry governance.RetryConfig
	sink      telemetry.Sink
}

// NewExecutor builds a guarded executor. The retry configuration supplies
// backoff shape and the error classifier; the attempt budget comes from each
// agent descriptor at execution time.
func NewExecutor(invoker agent.Invoker, guard *compliance.Guard, retry governance.RetryConfig, sink telemetry.Sink) *Executor {
	if retry.Retryable == nil {
		retry.Retryable = agent.IsRetryable
	}
	if sink == nil {
		sink = telemetry.NoopSink{}
	}
	return &Executor{
		invoker:   invoker,
		guard:     guard,
		baseRetry: retry,
		sink:      sink,
	}
}

// Execute invokes the agent, retrying transient failures up to the
// descriptor's attempt budget, and filters the successful payload through
// the compliance guard. It reports how many attempts ran. A context deadline
// hit anywhere in the cycle, during an attempt or a backoff wait, surfaces
// as domain.ErrTaskTimeout.
func (e *Executor) Execute(ctx context.Context, desc domain.AgentDescriptor, req domain.TaskRequest) (map[string]any, int, error) {
	cfg := e.baseRetry
	cfg.MaxAttempts = desc.RetryAttempts
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	policy := governance.NewRetryPolicy(cfg)

	var payload map[string]any
	attempt := 0
	attempts, err := policy.Execute(ctx, func(ctx context.Context) error {
		attempt++
		telemetry.Emit(ctx, e.sink, telemetry.Info(telemetry.EventTaskExecutionStarted, map[string]any{
			"task_id":    req.TaskID.String(),
			"agent_name": desc.Name,
			"attempt":    attempt,
		}))

		attemptStart := time.Now()
		out, invErr := e.invoker.Invoke(ctx, desc, req)
		if invErr != nil {
			telemetry.Emit(ctx, e.sink, telemetry.Warn(telemetry.EventTaskExecutionFailed, map[string]any{
				"task_id":    req.TaskID.String(),
				"agent_name": desc.Name,
				"attempt":    attempt,
				"duration":   time.Since(attemptStart),
				"error":      invErr.Error(),
			}))
			return invErr
		}

		payload = out
		telemetry.Emit(ctx, e.sink, telemetry.Info(telemetry.EventTaskExecutionCompleted, map[string]any{
			"task_id":    req.TaskID.String(),
			"agent_name": desc.Name,
			"attempt":    attempt,
			"duration":   time.Since(attemptStart),
		}))
		return nil
	})

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, attempts, fmt.Errorf("%w: agent %s exhausted its %s budget", domain.ErrTaskTimeout, desc.Name, desc.Timeout)
		}
		return nil, attempts, err
	}

	return e.guard.FilterResponse(ctx, payload), attempts, nil
}
