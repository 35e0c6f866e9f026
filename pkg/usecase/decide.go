package usecase

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/replykit/replykit/pkg/domain/model"
	"github.com/replykit/replykit/pkg/domain/model/config"
	"github.com/replykit/replykit/pkg/domain/types"
	"github.com/replykit/replykit/pkg/utils/async"
)

// DecideInput is one inbound customer message with its precomputed embedding
type DecideInput struct {
	MessageID   string
	MessageText string
	Embedding   []float32
	Category    types.Category // zero value matches all categories
}

// Decide matches the message against the pattern library and produces a
// bounded, safety-checked decision. It always returns a Decision for
// well-formed input; "no match" is DecisionNone, not an error. The read path
// never mutates pattern state; all state changes flow through RecordFeedback
// once the real-world outcome is known.
func (uc *UseCases) Decide(ctx context.Context, input DecideInput) (*model.Decision, error) {
	if input.MessageID == "" {
		return nil, goerr.New("message ID is required")
	}
	if input.Category != "" && !input.Category.IsValid() {
		return nil, goerr.New("invalid category", goerr.V("category", input.Category))
	}

	candidates, err := uc.FindMatches(ctx, input.Embedding, input.Category)
	if err != nil {
		return nil, goerr.Wrap(err, "match scan failed", goerr.V(MessageIDKey, input.MessageID))
	}

	var best *model.MatchCandidate
	responseText := ""
	if len(candidates) > 0 {
		best = candidates[0]
		responseText = best.Pattern.ResponseTemplate
	}

	// Safety rules are checked unconditionally, regardless of confidence
	verdict := uc.gate.Evaluate(input.MessageText, responseText, input.Category)

	decision := &model.Decision{
		Action:  resolveAction(best, verdict, uc.tuning),
		Verdict: verdict,
	}
	if best != nil {
		decision.PatternID = best.PatternID
		decision.SimilarityScore = best.SimilarityScore
		decision.CombinedConfidence = combinedConfidence(best, uc.tuning)
	}

	record, err := uc.repo.MatchRecord().Create(ctx, &model.MatchRecord{
		MessageID:          input.MessageID,
		PatternID:          decision.PatternID,
		SimilarityScore:    decision.SimilarityScore,
		CombinedConfidence: decision.CombinedConfidence,
		Decision:           decision.Action,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to persist match record", goerr.V(MessageIDKey, input.MessageID))
	}
	decision.MatchRecordID = record.ID

	// The notification obligation holds regardless of match quality, even
	// when the decision itself is NONE.
	if verdict.Escalate && uc.notifier != nil {
		event := &model.EscalationEvent{
			MessageID:   input.MessageID,
			MessageText: input.MessageText,
			Category:    input.Category,
			Reason:      verdict.Reason,
			Decision:    decision.Action,
			OccurredAt:  time.Now().UTC(),
		}
		async.Dispatch(ctx, func(ctx context.Context) error {
			return uc.notifier.NotifyEscalation(ctx, event)
		})
	}

	return decision, nil
}

// combinedConfidence blends the query similarity with the pattern's
// historical reliability. History is weighted more heavily because
// similarity alone is noisy for short messages.
func combinedConfidence(c *model.MatchCandidate, t *config.Tuning) float64 {
	return c.SimilarityScore*100*t.WeightSimilarity + c.Pattern.ConfidenceScore*t.WeightConfidence
}

// resolveAction applies the decision table in order; safety overrides always
// win over confidence arithmetic.
func resolveAction(best *model.MatchCandidate, verdict model.Verdict, t *config.Tuning) types.DecisionAction {
	if best == nil {
		return types.DecisionNone
	}
	if verdict.Escalate {
		return types.DecisionQueueForReview
	}

	combined := combinedConfidence(best, t)
	p := best.Pattern

	// Auto-execution is categorically forbidden for blocked categories,
	// even at maximum confidence.
	if !verdict.Blocked &&
		combined >= t.AutoExecuteFloor &&
		p.AutoExecuteEligible &&
		p.AutoExecuteEnabled {
		return types.DecisionAutoExecute
	}

	if combined >= t.SuggestFloor {
		return types.DecisionSuggest
	}

	return types.DecisionQueueForReview
}

// RenderResponse resolves the response template of a pattern into final text
func (uc *UseCases) RenderResponse(ctx context.Context, patternID model.PatternID, vars map[string]string) (string, error) {
	pattern, err := uc.repo.Pattern().Get(ctx, patternID)
	if err != nil {
		return "", goerr.Wrap(err, "failed to get pattern for rendering", goerr.V(PatternIDKey, patternID))
	}

	rendered, err := uc.renderer.Render(pattern.ResponseTemplate, vars)
	if err != nil {
		return "", goerr.Wrap(err, "failed to render response", goerr.V(PatternIDKey, patternID))
	}

	return rendered, nil
}
