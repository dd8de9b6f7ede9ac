package publish

import "fmt"

// PublishError represents a failed upload. QuotaExceeded distinguishes the
// daily upload/API quota running out from other rejections.
type PublishError struct {
	Path          string
	Message       string
	QuotaExceeded bool
	Cause         error
}

func (e *PublishError) Error() string {
	prefix := "publish error"
	if e.QuotaExceeded {
		prefix = "publish error (quota exceeded)"
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s: %v", prefix, e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s: %s", prefix, e.Path, e.Message)
}

func (e *PublishError) Unwrap() error {
	return e.Cause
}
