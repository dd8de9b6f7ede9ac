package pipeline

import (
	"github.com/jonathan/trend-relay/internal/types"
)

// Constraints are the per-run limits the resolver enforces.
type Constraints struct {
	// MaxDurationSeconds is the duration ceiling. Zero disables it.
	MaxDurationSeconds float64
}

// Membership is the read side of the ledger the resolver consults.
type Membership interface {
	Contains(id string) bool
}

// Partition splits candidates into those worth processing and skip results
// for the rest, preserving input order in both. It is the single place the
// duration ceiling is enforced. No I/O happens beyond processed.Contains.
func Partition(candidates []types.VideoCandidate, processed Membership, c Constraints) ([]types.VideoCandidate, []types.PipelineResult) {
	kept := make([]types.VideoCandidate, 0, len(candidates))
	var skipped []types.PipelineResult
	seen := make(map[string]bool, len(candidates))

	for _, cand := range candidates {
		switch {
		case cand.Validate() != nil:
			skipped = append(skipped, types.Skipped(cand, types.SkipInvalid))
		case processed.Contains(cand.ID):
			skipped = append(skipped, types.Skipped(cand, types.SkipAlreadyProcessed))
		case c.MaxDurationSeconds > 0 && cand.DurationSeconds > c.MaxDurationSeconds:
			skipped = append(skipped, types.Skipped(cand, types.SkipTooLong))
		case seen[cand.ID]:
			skipped = append(skipped, types.Skipped(cand, types.SkipDuplicateInBatch))
		default:
			seen[cand.ID] = true
			kept = append(kept, cand)
		}
	}
	return kept, skipped
}

// Resolve returns the candidates that should be processed, in input order.
func Resolve(candidates []types.VideoCandidate, processed Membership, c Constraints) []types.VideoCandidate {
	kept, _ := Partition(candidates, processed, c)
	return kept
}
