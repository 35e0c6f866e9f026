package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/replykit/replykit/pkg/domain/model"
	"github.com/replykit/replykit/pkg/domain/model/config"
	"github.com/replykit/replykit/pkg/domain/types"
	"github.com/replykit/replykit/pkg/repository"
	"github.com/replykit/replykit/pkg/utils/async"
	"github.com/replykit/replykit/pkg/utils/logging"
)

// RecordFeedback consumes an operator action against a previously produced
// match and updates the pattern's confidence and usage counters. Each match
// record accepts exactly one feedback event. Feedback arriving after the
// pattern was deactivated is logged and dropped, never surfaced as a hard
// failure.
func (uc *UseCases) RecordFeedback(ctx context.Context, matchRecordID model.MatchRecordID, action types.FeedbackAction) (*model.Pattern, error) {
	if !action.IsValid() {
		return nil, goerr.New("invalid feedback action", goerr.V("action", action))
	}

	record, err := uc.repo.MatchRecord().Get(ctx, matchRecordID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to resolve match record", goerr.V(MatchRecordIDKey, matchRecordID))
	}
	if record.PatternID == "" {
		return nil, goerr.Wrap(ErrNoPatternMatched, "feedback requires a matched pattern",
			goerr.V(MatchRecordIDKey, matchRecordID))
	}

	// Record the event first so the write-once rule guards against a second
	// statistics update for the same match.
	if _, err := uc.repo.Feedback().Create(ctx, &model.FeedbackEvent{
		MatchRecordID: matchRecordID,
		Action:        action,
	}); err != nil {
		return nil, goerr.Wrap(err, "failed to record feedback event", goerr.V(MatchRecordIDKey, matchRecordID))
	}

	now := time.Now().UTC()
	updated, err := uc.repo.Pattern().ApplyOutcome(ctx, record.PatternID, func(p *model.Pattern) error {
		applyOutcome(p, action, uc.tuning, now)
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrPatternInactive) {
			logging.From(ctx).Warn("feedback arrived after pattern deactivation, outcome dropped",
				"patternID", record.PatternID,
				"matchRecordID", matchRecordID,
				"action", action,
			)
			return uc.repo.Pattern().Get(ctx, record.PatternID)
		}
		return nil, goerr.Wrap(err, "failed to apply outcome", goerr.V(PatternIDKey, record.PatternID))
	}

	// A persistently wrong pattern must not keep consuming match slots
	if !updated.Active && uc.notifier != nil {
		event := &model.DeactivationEvent{
			PatternID:       updated.ID,
			Category:        updated.Category,
			ConfidenceScore: updated.ConfidenceScore,
			RejectCount:     updated.RejectCount,
			OccurredAt:      now,
		}
		async.Dispatch(ctx, func(ctx context.Context) error {
			return uc.notifier.NotifyDeactivation(ctx, event)
		})
	}

	return updated, nil
}

// applyOutcome is the single statistics-update rule. Edits are penalized
// harder than the accept gain because they indicate the template was almost
// right but systematically wrong in a way a human had to fix; an ignored
// item carries no confidence signal at all.
func applyOutcome(p *model.Pattern, action types.FeedbackAction, t *config.Tuning, now time.Time) {
	p.UsageCount++
	p.LastUsedAt = now

	switch action {
	case types.FeedbackAccepted:
		p.SuccessCount++
		p.ConfidenceScore += t.GainOnAccept
		p.LastConfidenceUpdateAt = now
	case types.FeedbackEdited:
		p.EditCount++
		p.ConfidenceScore -= t.PenaltyOnEdit
		p.LastConfidenceUpdateAt = now
	case types.FeedbackRejected:
		p.RejectCount++
		p.ConfidenceScore -= t.PenaltyOnReject
		p.LastConfidenceUpdateAt = now
	case types.FeedbackIgnored:
		// absence of signal is not negative signal
	}

	p.ClampConfidence()
	p.RecomputeEligibility(t.ApprovalThreshold, t.AutoExecuteFloor)

	if p.ConfidenceScore < t.DeactivationFloor && p.OutcomeCount() >= t.MinSampleSize {
		p.Active = false
	}
}
