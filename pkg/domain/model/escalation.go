package model

import (
	"time"

	"github.com/replykit/replykit/pkg/domain/types"
)

// EscalationEvent is handed to the notification collaborator when the safety
// gate demands operator attention, regardless of match quality.
type EscalationEvent struct {
	MessageID   string
	MessageText string
	Category    types.Category
	Reason      string
	Decision    types.DecisionAction
	OccurredAt  time.Time
}

// DeactivationEvent is raised when a pattern collapses below the confidence
// floor and is flagged for operator review.
type DeactivationEvent struct {
	PatternID       PatternID
	Category        types.Category
	ConfidenceScore float64
	RejectCount     int
	OccurredAt      time.Time
}
