package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/taskmesh/taskmesh/pkg/domain"
)

// LocalInvoker simulates agent execution in-process. It stands in for a
// real backend during development and in the CLI, producing the same
// result shape an AI agent would.
type LocalInvoker struct {
	// Delay is the simulated processing time per invocation.
	Delay time.Duration
}

// Invoke implements Invoker.
func (l *LocalInvoker) Invoke(ctx context.Context, desc domain.AgentDescriptor, req domain.TaskRequest) (map[string]any, error) {
	if l.Delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.Delay):
		}
	}

	result := map[string]any{
		"status":    "success",
		"data":      fmt.Sprintf("Processed by %s", desc.Name),
		"query":     req.Query,
		"response":  fmt.Sprintf("Response to: %s", req.Query),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if model, ok := desc.Metadata["model_id"]; ok {
		result["model"] = model
	}
	return result, nil
}
