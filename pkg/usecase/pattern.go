package usecase

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/replykit/replykit/pkg/domain/model"
	"github.com/replykit/replykit/pkg/domain/types"
	"github.com/replykit/replykit/pkg/utils/logging"
	"github.com/replykit/replykit/pkg/utils/vector"
)

// CreatePatternInput is an operator-authored draft plus authoring options
type CreatePatternInput struct {
	Draft model.PatternDraft
	// ExpandTriggers asks the embedding service to propose additional trigger
	// phrasings before embedding. Requires an embedder.
	ExpandTriggers bool
}

// CreatePatternOutput is the stored pattern plus any duplicate advisories
type CreatePatternOutput struct {
	Pattern *model.Pattern
	// Warnings lists existing patterns the new one overlaps with. Advisory
	// only; creation already succeeded.
	Warnings []*model.DuplicateWarning
}

// CreatePattern validates a draft, computes its embedding from the trigger
// examples (unless one was supplied), checks it against the existing library
// for overlap, and stores it with the seed confidence. Overlap is reported as
// warnings, never as a rejection: the operator decides whether to merge.
func (uc *UseCases) CreatePattern(ctx context.Context, input CreatePatternInput) (*CreatePatternOutput, error) {
	draft := input.Draft

	if !draft.Category.IsValid() {
		return nil, goerr.New("invalid category", goerr.V("category", draft.Category))
	}
	if len(draft.TriggerExamples) == 0 {
		return nil, goerr.New("at least one trigger example is required")
	}
	if strings.TrimSpace(draft.ResponseTemplate) == "" {
		return nil, goerr.New("response template is required")
	}

	triggers := dedupeTriggers(draft.TriggerExamples)

	if input.ExpandTriggers {
		if uc.embedder == nil {
			return nil, goerr.New("trigger expansion requires an embedding service")
		}
		expanded, err := uc.embedder.ExpandTriggers(ctx, draft.Category, triggers)
		if err != nil {
			// Expansion is best-effort authoring assistance, the draft's own
			// examples are sufficient to proceed.
			logging.From(ctx).Warn("trigger expansion failed, using author examples only",
				"error", err, "category", draft.Category)
		} else {
			triggers = dedupeTriggers(append(triggers, expanded...))
		}
	}

	emb := draft.Embedding
	if len(emb) == 0 {
		if uc.embedder == nil {
			return nil, goerr.New("draft has no embedding and no embedding service is configured")
		}
		vectors, err := uc.embedder.EmbedAll(ctx, triggers)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to embed trigger examples")
		}
		emb, err = vector.Mean(vectors)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to aggregate trigger embeddings")
		}
	} else {
		normalized, err := vector.Normalize(emb)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid draft embedding")
		}
		emb = normalized
	}

	warnings, err := uc.CheckOverlap(ctx, emb, draft.Category)
	if err != nil {
		return nil, goerr.Wrap(err, "overlap check failed")
	}

	pattern, err := uc.repo.Pattern().Insert(ctx, &model.Pattern{
		Category:         draft.Category,
		TriggerExamples:  triggers,
		Embedding:        emb,
		ResponseTemplate: draft.ResponseTemplate,
		ConfidenceScore:  uc.tuning.SeedConfidence,
		Active:           true,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to insert pattern")
	}

	if len(warnings) > 0 {
		logging.From(ctx).Info("pattern created with duplicate warnings",
			"patternID", pattern.ID, "overlaps", len(warnings))
	}

	return &CreatePatternOutput{Pattern: pattern, Warnings: warnings}, nil
}

// CheckOverlap scans active patterns in the category for embeddings more
// similar than the duplicate floor, most similar first.
func (uc *UseCases) CheckOverlap(ctx context.Context, embedding []float32, category types.Category) ([]*model.DuplicateWarning, error) {
	patterns, err := uc.repo.Pattern().ListActive(ctx, category)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list active patterns")
	}

	warnings := make([]*model.DuplicateWarning, 0)
	for _, p := range patterns {
		if len(p.Embedding) == 0 {
			continue
		}
		score, err := vector.Similarity(embedding, p.Embedding)
		if err != nil {
			if errors.Is(err, vector.ErrZeroVector) {
				continue
			}
			return nil, goerr.Wrap(err, "similarity computation failed", goerr.V(PatternIDKey, p.ID))
		}
		if score >= uc.tuning.DuplicateFloor {
			warnings = append(warnings, &model.DuplicateWarning{
				PatternID:       p.ID,
				SimilarityScore: score,
			})
		}
	}

	sort.Slice(warnings, func(i, j int) bool {
		return warnings[i].SimilarityScore > warnings[j].SimilarityScore
	})

	return warnings, nil
}

// dedupeTriggers removes duplicate examples, case-insensitively, preserving
// first-seen order and original casing.
func dedupeTriggers(examples []string) []string {
	seen := make(map[string]struct{}, len(examples))
	out := make([]string, 0, len(examples))
	for _, e := range examples {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		key := strings.ToLower(e)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, e)
	}
	return out
}

// MergePatterns folds the source pattern into the target. The merged
// embedding is the mean of both, so the target keeps matching messages that
// only the source used to catch.
func (uc *UseCases) MergePatterns(ctx context.Context, sourceID, targetID model.PatternID) (*model.Pattern, error) {
	if sourceID == targetID {
		return nil, goerr.New("cannot merge a pattern into itself", goerr.V(PatternIDKey, sourceID))
	}

	source, err := uc.repo.Pattern().Get(ctx, sourceID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get merge source", goerr.V(PatternIDKey, sourceID))
	}
	target, err := uc.repo.Pattern().Get(ctx, targetID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get merge target", goerr.V(PatternIDKey, targetID))
	}
	if source.Category != target.Category {
		return nil, goerr.New("cannot merge patterns across categories",
			goerr.V("sourceCategory", source.Category),
			goerr.V("targetCategory", target.Category))
	}

	merged, err := vector.Mean([][]float32{source.Embedding, target.Embedding})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to compute merged embedding")
	}

	// Eligibility is derived from the combined counters, so it must be
	// recomputed before the merged target is persisted.
	finalize := func(p *model.Pattern) error {
		p.RecomputeEligibility(uc.tuning.ApprovalThreshold, uc.tuning.AutoExecuteFloor)
		return nil
	}

	result, err := uc.repo.Pattern().Merge(ctx, sourceID, targetID, merged, finalize)
	if err != nil {
		return nil, goerr.Wrap(err, "merge failed",
			goerr.V("sourceID", sourceID), goerr.V("targetID", targetID))
	}

	return result, nil
}

// DeactivatePattern soft-deletes a pattern. Its audit history survives.
func (uc *UseCases) DeactivatePattern(ctx context.Context, id model.PatternID) (*model.Pattern, error) {
	pattern, err := uc.repo.Pattern().Deactivate(ctx, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to deactivate pattern", goerr.V(PatternIDKey, id))
	}
	return pattern, nil
}

// SetAutoExecute flips the operator-controlled auto-execution switch. The
// switch only takes effect once the pattern also earns eligibility from its
// own track record.
func (uc *UseCases) SetAutoExecute(ctx context.Context, id model.PatternID, enabled bool) (*model.Pattern, error) {
	pattern, err := uc.repo.Pattern().SetAutoExecute(ctx, id, enabled)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update auto-execute switch", goerr.V(PatternIDKey, id))
	}
	return pattern, nil
}

// ListPatterns returns patterns for operator tooling
func (uc *UseCases) ListPatterns(ctx context.Context, filter model.PatternFilter) ([]*model.Pattern, error) {
	patterns, err := uc.repo.Pattern().List(ctx, filter)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list patterns")
	}
	return patterns, nil
}

// GetPattern retrieves a single pattern by ID
func (uc *UseCases) GetPattern(ctx context.Context, id model.PatternID) (*model.Pattern, error) {
	pattern, err := uc.repo.Pattern().Get(ctx, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get pattern", goerr.V(PatternIDKey, id))
	}
	return pattern, nil
}
