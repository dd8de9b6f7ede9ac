package transform

import "fmt"

// TransformError represents a failed transform stage
type TransformError struct {
	Stage   string
	Message string
	Cause   error
}

func (e *TransformError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("transform error: %s: %s: %v", e.Stage, e.Message, e.Cause)
	}
	return fmt.Sprintf("transform error: %s: %s", e.Stage, e.Message)
}

func (e *TransformError) Unwrap() error {
	return e.Cause
}
