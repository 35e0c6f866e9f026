package usecase

import "errors"

// Sentinel errors for use case layer
var (
	// ErrNoPatternMatched indicates feedback against a match record whose
	// decision was NONE; there is no pattern to update.
	ErrNoPatternMatched = errors.New("match record has no associated pattern")
)

// Context keys for error values
const (
	PatternIDKey     = "pattern_id"
	MatchRecordIDKey = "match_record_id"
	MessageIDKey     = "message_id"
)
