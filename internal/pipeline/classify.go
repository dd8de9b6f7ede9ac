package pipeline

import (
	"errors"

	"github.com/jonathan/trend-relay/internal/auth"
	"github.com/jonathan/trend-relay/internal/download"
	"github.com/jonathan/trend-relay/internal/ledger"
	"github.com/jonathan/trend-relay/internal/publish"
	"github.com/jonathan/trend-relay/internal/transform"
	"github.com/jonathan/trend-relay/internal/types"
)

// Classify maps an error chain to the failure kind it represents, or
// FailureNone if no known error type is in the chain. Credential failures
// win over the step they surfaced in.
func Classify(err error) types.FailureKind {
	if err == nil {
		return types.FailureNone
	}

	var authErr *auth.AuthError
	var corruptErr *ledger.LedgerCorruptError
	var commitErr *ledger.CommitError
	var downloadErr *download.DownloadError
	var transformErr *transform.TransformError
	var publishErr *publish.PublishError

	switch {
	case errors.As(err, &authErr):
		return types.FailureAuth
	case errors.As(err, &corruptErr), errors.As(err, &commitErr):
		return types.FailureLedger
	case errors.As(err, &downloadErr):
		return types.FailureDownload
	case errors.As(err, &transformErr):
		return types.FailureTransform
	case errors.As(err, &publishErr):
		return types.FailurePublish
	default:
		return types.FailureNone
	}
}

// classifyStep is Classify with a fallback for errors of unknown type.
func classifyStep(err error, step types.FailureKind) types.FailureKind {
	if kind := Classify(err); kind != types.FailureNone {
		return kind
	}
	return step
}
