package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/replykit/replykit/pkg/domain/model"
	"github.com/replykit/replykit/pkg/domain/types"
	"github.com/replykit/replykit/pkg/repository"
	"github.com/replykit/replykit/pkg/utils/logging"
)

type patternRepository struct {
	// mu guards the patterns and locks maps. Individual pattern mutations are
	// serialized by the per-pattern mutex, not by mu, so feedback on
	// different patterns never blocks.
	mu       sync.RWMutex
	patterns map[model.PatternID]*model.Pattern
	locks    map[model.PatternID]*sync.Mutex
}

func newPatternRepository() *patternRepository {
	return &patternRepository{
		patterns: make(map[model.PatternID]*model.Pattern),
		locks:    make(map[model.PatternID]*sync.Mutex),
	}
}

// lockFor returns the per-pattern mutex, creating it on demand
func (r *patternRepository) lockFor(id model.PatternID) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()

	if l, ok := r.locks[id]; ok {
		return l
	}
	l := &sync.Mutex{}
	r.locks[id] = l
	return l
}

// sanitize clamps an out-of-bounds confidence score found on read and flags
// the pattern inactive pending manual audit. The engine never lets a corrupt
// value propagate into decision arithmetic.
func sanitize(ctx context.Context, p *model.Pattern) *model.Pattern {
	if p.ClampConfidence() {
		p.Active = false
		logging.From(ctx).Error("pattern confidence out of bounds, clamped and deactivated",
			"patternID", p.ID,
			"clampedConfidence", p.ConfidenceScore,
		)
	}
	return p
}

func (r *patternRepository) Insert(ctx context.Context, pattern *model.Pattern) (*model.Pattern, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	created := pattern.Clone()
	if created.ID == "" {
		created.ID = model.NewPatternID()
	}
	created.CreatedAt = now
	created.UpdatedAt = now

	if _, exists := r.patterns[created.ID]; exists {
		return nil, goerr.New("pattern already exists", goerr.V("id", created.ID))
	}

	r.patterns[created.ID] = created
	return created.Clone(), nil
}

func (r *patternRepository) Get(ctx context.Context, id model.PatternID) (*model.Pattern, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pattern, exists := r.patterns[id]
	if !exists {
		return nil, goerr.Wrap(repository.ErrNotFound, "pattern not found", goerr.V("id", id))
	}

	return sanitize(ctx, pattern.Clone()), nil
}

func (r *patternRepository) ListActive(ctx context.Context, category types.Category) ([]*model.Pattern, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*model.Pattern, 0, len(r.patterns))
	for _, p := range r.patterns {
		if !p.Active {
			continue
		}
		if category != "" && p.Category != category {
			continue
		}
		copied := sanitize(ctx, p.Clone())
		if !copied.Active {
			// clamped on read; exclude from matching
			continue
		}
		result = append(result, copied)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result, nil
}

func (r *patternRepository) List(ctx context.Context, filter model.PatternFilter) ([]*model.Pattern, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*model.Pattern, 0, len(r.patterns))
	for _, p := range r.patterns {
		if filter.ActiveOnly && !p.Active {
			continue
		}
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		result = append(result, sanitize(ctx, p.Clone()))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result, nil
}

func (r *patternRepository) ApplyOutcome(ctx context.Context, id model.PatternID, mutate func(p *model.Pattern) error) (*model.Pattern, error) {
	lock := r.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	r.mu.RLock()
	stored, exists := r.patterns[id]
	r.mu.RUnlock()
	if !exists {
		return nil, goerr.Wrap(repository.ErrNotFound, "pattern not found", goerr.V("id", id))
	}
	if !stored.Active {
		return nil, goerr.Wrap(repository.ErrPatternInactive, "cannot apply outcome to inactive pattern", goerr.V("id", id))
	}

	updated := sanitize(ctx, stored.Clone())
	if err := mutate(updated); err != nil {
		return nil, err
	}
	updated.ClampConfidence()
	updated.UpdatedAt = time.Now().UTC()

	r.mu.Lock()
	r.patterns[id] = updated
	r.mu.Unlock()

	return updated.Clone(), nil
}

func (r *patternRepository) Deactivate(ctx context.Context, id model.PatternID) (*model.Pattern, error) {
	lock := r.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	return r.deactivateLocked(ctx, id)
}

// deactivateLocked assumes the per-pattern lock is already held
func (r *patternRepository) deactivateLocked(ctx context.Context, id model.PatternID) (*model.Pattern, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, exists := r.patterns[id]
	if !exists {
		return nil, goerr.Wrap(repository.ErrNotFound, "pattern not found", goerr.V("id", id))
	}

	updated := stored.Clone()
	updated.Active = false
	updated.UpdatedAt = time.Now().UTC()
	r.patterns[id] = updated

	return updated.Clone(), nil
}

func (r *patternRepository) SetAutoExecute(ctx context.Context, id model.PatternID, enabled bool) (*model.Pattern, error) {
	lock := r.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, exists := r.patterns[id]
	if !exists {
		return nil, goerr.Wrap(repository.ErrNotFound, "pattern not found", goerr.V("id", id))
	}

	updated := stored.Clone()
	updated.AutoExecuteEnabled = enabled
	updated.UpdatedAt = time.Now().UTC()
	r.patterns[id] = updated

	return updated.Clone(), nil
}

func (r *patternRepository) Merge(ctx context.Context, sourceID, targetID model.PatternID, mergedEmbedding []float32, finalize func(p *model.Pattern) error) (*model.Pattern, error) {
	if sourceID == targetID {
		return nil, goerr.New("cannot merge a pattern into itself", goerr.V("id", sourceID))
	}

	// Lock both patterns in a fixed id ordering so two racing merges cannot
	// deadlock.
	first, second := sourceID, targetID
	if second < first {
		first, second = second, first
	}
	firstLock := r.lockFor(first)
	secondLock := r.lockFor(second)
	firstLock.Lock()
	defer firstLock.Unlock()
	secondLock.Lock()
	defer secondLock.Unlock()

	r.mu.Lock()
	source, sourceExists := r.patterns[sourceID]
	target, targetExists := r.patterns[targetID]
	if !sourceExists {
		r.mu.Unlock()
		return nil, goerr.Wrap(repository.ErrNotFound, "merge source not found", goerr.V("id", sourceID))
	}
	if !targetExists {
		r.mu.Unlock()
		return nil, goerr.Wrap(repository.ErrNotFound, "merge target not found", goerr.V("id", targetID))
	}

	now := time.Now().UTC()

	merged := target.Clone()
	merged.TriggerExamples = appendUniqueStrings(merged.TriggerExamples, source.TriggerExamples)
	merged.UsageCount += source.UsageCount
	merged.SuccessCount += source.SuccessCount
	merged.EditCount += source.EditCount
	merged.RejectCount += source.RejectCount
	if len(mergedEmbedding) > 0 {
		merged.Embedding = make([]float32, len(mergedEmbedding))
		copy(merged.Embedding, mergedEmbedding)
	}
	merged.UpdatedAt = now

	if finalize != nil {
		if err := finalize(merged); err != nil {
			r.mu.Unlock()
			return nil, goerr.Wrap(err, "merge finalize failed", goerr.V("targetID", targetID))
		}
	}

	retired := source.Clone()
	retired.Active = false
	retired.UpdatedAt = now

	r.patterns[targetID] = merged
	r.patterns[sourceID] = retired
	r.mu.Unlock()

	return merged.Clone(), nil
}

func appendUniqueStrings(dst []string, src []string) []string {
	seen := make(map[string]bool, len(dst))
	for _, s := range dst {
		seen[s] = true
	}
	for _, s := range src {
		if !seen[s] {
			dst = append(dst, s)
			seen[s] = true
		}
	}
	return dst
}
