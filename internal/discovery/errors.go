package discovery

import "fmt"

// DiscoveryError represents a failed trending lookup
type DiscoveryError struct {
	Region  string
	Message string
	Cause   error
}

func (e *DiscoveryError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("discovery error (region %s): %s: %v", e.Region, e.Message, e.Cause)
	}
	return fmt.Sprintf("discovery error (region %s): %s", e.Region, e.Message)
}

func (e *DiscoveryError) Unwrap() error {
	return e.Cause
}
