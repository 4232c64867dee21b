package domain

import (
	"errors"
	"fmt"
)

// Common orchestration errors.
var (
	// ErrNoAgentAvailable is returned when selection finds no enabled agent.
	// The message is surfaced verbatim in failed task responses.
	ErrNoAgentAvailable = errors.New("No suitable agent available")
	// ErrTaskTimeout is returned when a guarded execution exceeds the
	// agent's configured timeout budget, retries included.
	ErrTaskTimeout = errors.New("task execution timed out")
)

// ValidationError reports a rejected field during construction of a domain
// value. Construction fails fast; invalid values never reach the orchestrator.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
