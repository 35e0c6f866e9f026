package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/replykit/replykit/pkg/domain/types"
)

// MatchRecordID is a UUID-based identifier for MatchRecord
type MatchRecordID string

// NewMatchRecordID generates a new UUID v4 MatchRecordID
func NewMatchRecordID() MatchRecordID {
	return MatchRecordID(uuid.New().String())
}

// String returns the string representation of MatchRecordID
func (id MatchRecordID) String() string {
	return string(id)
}

// MatchCandidate is an ephemeral ranked match produced by the match engine.
// It is never persisted.
type MatchCandidate struct {
	PatternID       PatternID
	SimilarityScore float64 // cosine similarity in [0, 1] after floor filtering
	Pattern         *Pattern
}

// Verdict is the safety classification of a message/response pair,
// independent of any confidence arithmetic.
type Verdict struct {
	// Blocked forbids auto-execution for this message even when the pattern
	// is otherwise eligible.
	Blocked bool
	// Escalate forces the decision floor to QUEUE_FOR_REVIEW and raises a
	// notification obligation regardless of match quality.
	Escalate bool
	Reason   string
}

// Decision is the bounded result of evaluating one inbound message.
// decide always produces a Decision; "no match" is DecisionNone, not an error.
type Decision struct {
	Action             types.DecisionAction
	PatternID          PatternID // empty when no pattern matched
	SimilarityScore    float64
	CombinedConfidence float64 // in [0, 100]
	Verdict            Verdict
	MatchRecordID      MatchRecordID
}

// MatchRecord is the persisted audit trail of a decision. It is immutable
// once written and referenced by at most one later FeedbackEvent.
type MatchRecord struct {
	ID                 MatchRecordID
	MessageID          string
	PatternID          PatternID // empty when no pattern matched
	SimilarityScore    float64
	CombinedConfidence float64
	Decision           types.DecisionAction
	CreatedAt          time.Time
}

// Clone returns a copy of the match record
func (r *MatchRecord) Clone() *MatchRecord {
	copied := *r
	return &copied
}
