package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/taskmesh/taskmesh/pkg/domain"
)

// Invoker executes one task on one agent backend. Implementations may block
// until ctx is done and must classify unrecoverable failures with Permanent
// so the guarded executor knows not to retry them.
type Invoker interface {
	Invoke(ctx context.Context, desc domain.AgentDescriptor, req domain.TaskRequest) (map[string]any, error)
}

// InvokerFunc adapts a function into an Invoker.
type InvokerFunc func(ctx context.Context, desc domain.AgentDescriptor, req domain.TaskRequest) (map[string]any, error)

// Invoke implements Invoker.
func (f InvokerFunc) Invoke(ctx context.Context, desc domain.AgentDescriptor, req domain.TaskRequest) (map[string]any, error) {
	return f(ctx, desc, req)
}

// PermanentError wraps a failure that retrying cannot fix, such as a
// malformed request rejected by the backend.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("permanent: %v", e.Err)
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// Permanent marks err as non-retryable.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// IsRetryable reports whether a failed invocation may be attempted again.
// Everything is retryable except permanent-classified failures and context
// cancellation.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var pe *PermanentError
	if errors.As(err, &pe) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return true
}
