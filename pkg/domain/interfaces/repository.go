package interfaces

import (
	"context"

	"github.com/replykit/replykit/pkg/domain/model"
	"github.com/replykit/replykit/pkg/domain/types"
)

// Repository defines the interface for data persistence
type Repository interface {
	Pattern() PatternRepository
	MatchRecord() MatchRecordRepository
	Feedback() FeedbackRepository

	Close() error
}

// PatternRepository defines the interface for Pattern persistence.
// ApplyOutcome, Deactivate, SetAutoExecute and Merge are the only mutation
// paths; each executes under per-pattern exclusive access so that concurrent
// feedback on different patterns never blocks, while concurrent feedback on
// the same pattern is serialized.
type PatternRepository interface {
	// Insert stores a new pattern, assigning ID and timestamps when absent
	Insert(ctx context.Context, pattern *model.Pattern) (*model.Pattern, error)

	// Get retrieves a pattern by ID
	Get(ctx context.Context, id model.PatternID) (*model.Pattern, error)

	// ListActive retrieves all active patterns, optionally filtered by
	// category (zero value matches all). The result is a consistent snapshot:
	// a pattern deactivated mid-scan does not invalidate an in-flight match.
	ListActive(ctx context.Context, category types.Category) ([]*model.Pattern, error)

	// List retrieves patterns for operator tooling
	List(ctx context.Context, filter model.PatternFilter) ([]*model.Pattern, error)

	// ApplyOutcome runs mutate against the current pattern state under the
	// per-pattern lock and persists the result. It fails with
	// ErrPatternInactive when the pattern is soft-deleted.
	ApplyOutcome(ctx context.Context, id model.PatternID, mutate func(p *model.Pattern) error) (*model.Pattern, error)

	// Deactivate soft-deletes a pattern; it is excluded from matching but
	// retained for audit
	Deactivate(ctx context.Context, id model.PatternID) (*model.Pattern, error)

	// SetAutoExecute flips the operator-controlled auto-execution override
	SetAutoExecute(ctx context.Context, id model.PatternID, enabled bool) (*model.Pattern, error)

	// Merge folds trigger examples and usage counters of source into target,
	// replaces the target embedding with mergedEmbedding, and deactivates the
	// source. finalize, when non-nil, runs against the merged target before
	// it is persisted, still under the lock, so derived fields such as
	// auto-execute eligibility are recomputed from the combined counters.
	// Locks are taken in a fixed id ordering to avoid deadlock when two
	// merges race.
	Merge(ctx context.Context, sourceID, targetID model.PatternID, mergedEmbedding []float32, finalize func(p *model.Pattern) error) (*model.Pattern, error)
}

// MatchRecordRepository is the append-only audit log of decisions
type MatchRecordRepository interface {
	// Create appends an immutable match record
	Create(ctx context.Context, record *model.MatchRecord) (*model.MatchRecord, error)

	// Get retrieves a match record by ID
	Get(ctx context.Context, id model.MatchRecordID) (*model.MatchRecord, error)
}

// FeedbackRepository is the write-once log of operator actions
type FeedbackRepository interface {
	// Create appends a feedback event. It fails with ErrFeedbackExists when
	// the match record already has one.
	Create(ctx context.Context, event *model.FeedbackEvent) (*model.FeedbackEvent, error)

	// GetByMatchRecord retrieves the feedback event for a match record
	GetByMatchRecord(ctx context.Context, matchRecordID model.MatchRecordID) (*model.FeedbackEvent, error)
}
