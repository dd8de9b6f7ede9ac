package titling

import "fmt"

// GenerationError represents a failure to produce upload metadata
type GenerationError struct {
	Message string
	Cause   error
}

func (e *GenerationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("title generation error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("title generation error: %s", e.Message)
}

func (e *GenerationError) Unwrap() error {
	return e.Cause
}
