package download

import (
	"errors"
	"fmt"
)

// ErrNoArtifact means the downloader finished without leaving a file behind.
// Callers skip the candidate rather than treating it as a failure.
var ErrNoArtifact = errors.New("no downloaded file found")

// DownloadError represents a failed download
type DownloadError struct {
	URL     string
	Message string
	Cause   error
}

func (e *DownloadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("download error: %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("download error: %s: %s", e.URL, e.Message)
}

func (e *DownloadError) Unwrap() error {
	return e.Cause
}
