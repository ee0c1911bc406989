package contract

import "errors"

var (
	ErrModelInvoke     = errors.New("model invoke failed")
	ErrSchemaViolation = errors.New("model response violates schema")
	ErrPromptMissing   = errors.New("required prompt is missing")
	ErrValidation      = errors.New("validation failed")

	ErrDomain           = errors.New("request cannot be fulfilled")
	ErrToolLoopExceeded = errors.New("tool loop exceeded round limit")
	ErrTurnTimeout      = errors.New("turn exceeded time budget")
	ErrSessionBusy      = errors.New("session is busy")
)

// IsOrchestrationError reports whether err aborted a turn, as opposed to a
// validation problem with the caller's input.
func IsOrchestrationError(err error) bool {
	return errors.Is(err, ErrModelInvoke) ||
		errors.Is(err, ErrSchemaViolation) ||
		errors.Is(err, ErrPromptMissing) ||
		errors.Is(err, ErrToolLoopExceeded) ||
		errors.Is(err, ErrTurnTimeout) ||
		errors.Is(err, ErrSessionBusy)
}
