package archive

import (
	"fmt"
	"time"

	"epubshrink/internal/imagery"
)

// Outcome describes what happened to one entry during a rewrite.
type Outcome string

const (
	OutcomeCopied      Outcome = "copied"
	OutcomeReduced     Outcome = "reduced"
	OutcomeUnsupported Outcome = "unsupported"
	OutcomeMalformed   Outcome = "malformed"
	OutcomeFailed      Outcome = "failed"
)

// EntryResult records the handling of a single archive entry. Sizes are
// uncompressed byte counts.
type EntryResult struct {
	Name    string
	Outcome Outcome
	Before  int64
	After   int64
	Err     error
}

// Report summarizes a completed rewrite.
type Report struct {
	Source           string
	Destination      string
	Params           imagery.Params
	OriginalSize     int64
	FinalSize        int64
	ReductionPercent int
	Entries          []EntryResult
	StartedAt        time.Time
	FinishedAt       time.Time
}

// Count returns how many entries ended with the given outcome.
func (r *Report) Count(outcome Outcome) int {
	if r == nil {
		return 0
	}
	n := 0
	for _, entry := range r.Entries {
		if entry.Outcome == outcome {
			n++
		}
	}
	return n
}

// Duration returns the wall time of the rewrite.
func (r *Report) Duration() time.Duration {
	if r == nil || r.FinishedAt.Before(r.StartedAt) {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// ReductionPercent returns the integer percentage by which final is smaller
// than original, truncated toward zero. A growth yields a negative value.
func ReductionPercent(original, final int64) (int, error) {
	if original <= 0 {
		return 0, fmt.Errorf("reduction percent: %w", ErrZeroSizeInput)
	}
	return int(100 - float64(final)/float64(original)*100), nil
}
