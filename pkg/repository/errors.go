package repository

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors shared by all repository backends
var (
	// ErrNotFound indicates an unknown pattern, match record or feedback id.
	// Always recoverable by the caller, no retry needed.
	ErrNotFound = goerr.New("not found")

	// ErrPatternInactive indicates feedback arriving after deactivation.
	// Callers log the outcome and drop it; it is never a hard failure.
	ErrPatternInactive = goerr.New("pattern is inactive")

	// ErrFeedbackExists indicates a second feedback event for the same match
	// record. Feedback is write-once.
	ErrFeedbackExists = goerr.New("feedback already recorded for match record")
)
