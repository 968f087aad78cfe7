package checklist

import "fmt"

// ValidationError indicates the evaluation request was rejected before any
// external call was made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// EvaluationError indicates the external model call failed or returned an
// unusable response. The upstream cause is wrapped for logging; Message is
// safe to show to clients.
type EvaluationError struct {
	Message string
	Err     error
}

func (e *EvaluationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *EvaluationError) Unwrap() error {
	return e.Err
}
