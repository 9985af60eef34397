package ai

import "fmt"

// GenerationError wraps provider failures so callers can distinguish
// "the model call failed" from their own storage errors and degrade
// gracefully (log, skip the auto-reply, keep the inbound message).
type GenerationError struct {
	Operation string
	Err       error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("ai %s failed: %v", e.Operation, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}
