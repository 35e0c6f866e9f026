package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/replykit/replykit/pkg/domain/types"
)

// FeedbackEventID is a UUID-based identifier for FeedbackEvent
type FeedbackEventID string

// NewFeedbackEventID generates a new UUID v4 FeedbackEventID
func NewFeedbackEventID() FeedbackEventID {
	return FeedbackEventID(uuid.New().String())
}

// String returns the string representation of FeedbackEventID
func (id FeedbackEventID) String() string {
	return string(id)
}

// FeedbackEvent records an operator action against a previously produced
// match. Write-once: each MatchRecord accepts exactly one feedback event,
// which triggers exactly one pattern statistics update.
type FeedbackEvent struct {
	ID            FeedbackEventID
	MatchRecordID MatchRecordID
	Action        types.FeedbackAction
	CreatedAt     time.Time
}

// Clone returns a copy of the feedback event
func (e *FeedbackEvent) Clone() *FeedbackEvent {
	copied := *e
	return &copied
}
