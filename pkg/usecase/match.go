package usecase

import (
	"context"
	"errors"
	"math"
	"sort"

	"github.com/m-mizutani/goerr/v2"
	"github.com/replykit/replykit/pkg/domain/model"
	"github.com/replykit/replykit/pkg/domain/types"
	"github.com/replykit/replykit/pkg/utils/logging"
	"github.com/replykit/replykit/pkg/utils/vector"
)

// tieEpsilon is the similarity difference below which two candidates are
// considered tied and broken by confidence, then recency.
const tieEpsilon = 1e-6

// FindMatches scans the active patterns against the message embedding and
// returns ranked candidates, best first. Candidates below the floor
// similarity are excluded entirely, not merely ranked low. An empty active
// pattern set yields an empty result, never an error.
func (uc *UseCases) FindMatches(ctx context.Context, messageEmbedding []float32, category types.Category) ([]*model.MatchCandidate, error) {
	// Reject a zero query vector up front; it would otherwise be reported as
	// a per-pattern failure inside the scan loop.
	if _, err := vector.Normalize(messageEmbedding); err != nil {
		return nil, goerr.Wrap(err, "invalid message embedding")
	}

	// Snapshot read: a pattern deactivated mid-scan does not invalidate an
	// in-flight match.
	patterns, err := uc.repo.Pattern().ListActive(ctx, category)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list active patterns")
	}

	candidates := make([]*model.MatchCandidate, 0, len(patterns))
	for _, p := range patterns {
		if len(p.Embedding) == 0 {
			logging.From(ctx).Warn("skipping pattern without embedding", "patternID", p.ID)
			continue
		}

		score, err := vector.Similarity(messageEmbedding, p.Embedding)
		if err != nil {
			if errors.Is(err, vector.ErrZeroVector) {
				// A corrupt stored embedding must not fail the whole scan
				logging.From(ctx).Warn("skipping pattern with zero embedding", "patternID", p.ID)
				continue
			}
			return nil, goerr.Wrap(err, "similarity computation failed", goerr.V(PatternIDKey, p.ID))
		}

		if score < uc.tuning.FloorSimilarity {
			continue
		}

		candidates = append(candidates, &model.MatchCandidate{
			PatternID:       p.ID,
			SimilarityScore: score,
			Pattern:         p,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if math.Abs(a.SimilarityScore-b.SimilarityScore) >= tieEpsilon {
			return a.SimilarityScore > b.SimilarityScore
		}
		if a.Pattern.ConfidenceScore != b.Pattern.ConfidenceScore {
			return a.Pattern.ConfidenceScore > b.Pattern.ConfidenceScore
		}
		// A pattern actively in use is assumed better maintained than a
		// stale one with a coincidentally equal score.
		return a.Pattern.LastUsedAt.After(b.Pattern.LastUsedAt)
	})

	if len(candidates) > uc.tuning.TopK {
		candidates = candidates[:uc.tuning.TopK]
	}

	return candidates, nil
}
