package types

import (
	"errors"
	"fmt"
)

// remediationHint is attached to candidate and coverage failures so callers
// can tell the user what to change.
const remediationHint = "try loosening interests or exclusions, or shortening the date duration"

// ErrCatalogNotReady is returned when the pipeline is invoked before the
// one-time catalog load has completed.
var ErrCatalogNotReady = errors.New("poi catalog not initialized")

// ErrInternalInconsistency marks defects such as overlapping stops or
// negative durations. It must abort the request, never be swallowed.
var ErrInternalInconsistency = errors.New("itinerary consistency violation")

// ValidationError rejects a request before any ranking work happens.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid request: %s: %s", e.Field, e.Reason)
}

// InsufficientCandidatesError signals that a required category became empty
// after filtering.
type InsufficientCandidatesError struct {
	Category Category
}

func (e *InsufficientCandidatesError) Error() string {
	return fmt.Sprintf("no %s candidates remain after filtering; %s", e.Category, remediationHint)
}

// CoverageError signals that the scheduler could not fill at least 75% of
// the requested window, even after extending the final activity.
type CoverageError struct {
	Ratio float64
}

func (e *CoverageError) Error() string {
	return fmt.Sprintf("plan covers only %.0f%% of the requested duration; %s", e.Ratio*100, remediationHint)
}
