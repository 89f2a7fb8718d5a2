package comfy

import (
	"errors"
	"fmt"
)

// Sentinel errors for the polling state machine.
var (
	// ErrCancelled is returned when the caller's stop flag ends a poll
	// loop. It represents a deliberate user action, not a failure.
	ErrCancelled = errors.New("cancelled")

	// ErrTimeout is returned when a job does not complete within the
	// configured maximum poll time.
	ErrTimeout = errors.New("timed out waiting for result")

	// ErrNoPromptID is returned when a submission succeeds at the HTTP
	// level but the response carries no prompt id. This is a fatal
	// configuration problem: without a handle nothing can be polled.
	ErrNoPromptID = errors.New("server did not return a prompt_id")
)

// ExecutionError reports that the server explicitly failed a job.
type ExecutionError struct {
	PromptID string
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("server reported an error for prompt %s", e.PromptID)
}
