package repository_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/replykit/replykit/pkg/domain/interfaces"
	"github.com/replykit/replykit/pkg/domain/model"
	"github.com/replykit/replykit/pkg/domain/types"
	"github.com/replykit/replykit/pkg/repository"
	"github.com/replykit/replykit/pkg/repository/firestore"
	"github.com/replykit/replykit/pkg/repository/memory"
)

func testPattern(category types.Category) *model.Pattern {
	return &model.Pattern{
		Category:         category,
		TriggerExamples:  []string{"how much does it cost", "what are your prices"},
		Embedding:        []float32{0.6, 0.8, 0},
		ResponseTemplate: "Our pricing starts at {price} per month.",
		ConfidenceScore:  50,
		Active:           true,
	}
}

func runPatternRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("Insert assigns ID and timestamps", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.Pattern().Insert(ctx, testPattern(types.CategoryPricing))
		gt.NoError(t, err).Required()

		gt.String(t, string(created.ID)).NotEqual("")
		gt.Value(t, created.Category).Equal(types.CategoryPricing)
		gt.Array(t, created.TriggerExamples).Length(2)
		gt.Value(t, created.ConfidenceScore).Equal(50.0)
		gt.Bool(t, created.Active).True()
		gt.Bool(t, created.CreatedAt.IsZero()).False()
		gt.Bool(t, created.UpdatedAt.IsZero()).False()
	})

	t.Run("Get returns ErrNotFound for unknown ID", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.Pattern().Get(ctx, model.NewPatternID())
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, repository.ErrNotFound)).True()
	})

	t.Run("Get returns a copy, not shared state", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.Pattern().Insert(ctx, testPattern(types.CategoryHours))
		gt.NoError(t, err).Required()

		got, err := repo.Pattern().Get(ctx, created.ID)
		gt.NoError(t, err).Required()
		got.ConfidenceScore = 99
		got.TriggerExamples[0] = "mutated"

		again, err := repo.Pattern().Get(ctx, created.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, again.ConfidenceScore).Equal(50.0)
		gt.Value(t, again.TriggerExamples[0]).Equal("how much does it cost")
	})

	t.Run("ListActive filters by category and active flag", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		pricing, err := repo.Pattern().Insert(ctx, testPattern(types.CategoryPricing))
		gt.NoError(t, err).Required()
		_, err = repo.Pattern().Insert(ctx, testPattern(types.CategoryHours))
		gt.NoError(t, err).Required()

		inactive := testPattern(types.CategoryPricing)
		inactive.Active = false
		_, err = repo.Pattern().Insert(ctx, inactive)
		gt.NoError(t, err).Required()

		active, err := repo.Pattern().ListActive(ctx, types.CategoryPricing)
		gt.NoError(t, err).Required()
		gt.Array(t, active).Length(1)
		gt.Value(t, active[0].ID).Equal(pricing.ID)

		all, err := repo.Pattern().ListActive(ctx, "")
		gt.NoError(t, err).Required()
		gt.Array(t, all).Length(2)
	})

	t.Run("ApplyOutcome persists the mutation", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.Pattern().Insert(ctx, testPattern(types.CategoryBooking))
		gt.NoError(t, err).Required()

		updated, err := repo.Pattern().ApplyOutcome(ctx, created.ID, func(p *model.Pattern) error {
			p.UsageCount++
			p.SuccessCount++
			p.ConfidenceScore += 2
			return nil
		})
		gt.NoError(t, err).Required()
		gt.Value(t, updated.UsageCount).Equal(1)
		gt.Value(t, updated.SuccessCount).Equal(1)
		gt.Value(t, updated.ConfidenceScore).Equal(52.0)

		got, err := repo.Pattern().Get(ctx, created.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.ConfidenceScore).Equal(52.0)
	})

	t.Run("ApplyOutcome clamps the resulting confidence", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.Pattern().Insert(ctx, testPattern(types.CategoryBooking))
		gt.NoError(t, err).Required()

		updated, err := repo.Pattern().ApplyOutcome(ctx, created.ID, func(p *model.Pattern) error {
			p.ConfidenceScore -= 1000
			return nil
		})
		gt.NoError(t, err).Required()
		gt.Value(t, updated.ConfidenceScore).Equal(0.0)
	})

	t.Run("ApplyOutcome on inactive pattern fails with ErrPatternInactive", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.Pattern().Insert(ctx, testPattern(types.CategoryAccess))
		gt.NoError(t, err).Required()
		_, err = repo.Pattern().Deactivate(ctx, created.ID)
		gt.NoError(t, err).Required()

		_, err = repo.Pattern().ApplyOutcome(ctx, created.ID, func(p *model.Pattern) error {
			p.UsageCount++
			return nil
		})
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, repository.ErrPatternInactive)).True()
	})

	t.Run("Deactivate soft-deletes but keeps the record", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.Pattern().Insert(ctx, testPattern(types.CategoryGeneral))
		gt.NoError(t, err).Required()

		deactivated, err := repo.Pattern().Deactivate(ctx, created.ID)
		gt.NoError(t, err).Required()
		gt.Bool(t, deactivated.Active).False()

		got, err := repo.Pattern().Get(ctx, created.ID)
		gt.NoError(t, err).Required()
		gt.Bool(t, got.Active).False()
	})

	t.Run("SetAutoExecute flips the operator switch", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.Pattern().Insert(ctx, testPattern(types.CategoryPricing))
		gt.NoError(t, err).Required()
		gt.Bool(t, created.AutoExecuteEnabled).False()

		enabled, err := repo.Pattern().SetAutoExecute(ctx, created.ID, true)
		gt.NoError(t, err).Required()
		gt.Bool(t, enabled.AutoExecuteEnabled).True()

		disabled, err := repo.Pattern().SetAutoExecute(ctx, created.ID, false)
		gt.NoError(t, err).Required()
		gt.Bool(t, disabled.AutoExecuteEnabled).False()
	})

	t.Run("corrupt confidence is clamped and deactivated on read", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		corrupt := testPattern(types.CategoryPricing)
		corrupt.ConfidenceScore = 150
		created, err := repo.Pattern().Insert(ctx, corrupt)
		gt.NoError(t, err).Required()

		got, err := repo.Pattern().Get(ctx, created.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.ConfidenceScore).Equal(100.0)
		gt.Bool(t, got.Active).False()

		// A clamped pattern never reaches the matcher
		active, err := repo.Pattern().ListActive(ctx, types.CategoryPricing)
		gt.NoError(t, err).Required()
		for _, p := range active {
			gt.Value(t, p.ID).NotEqual(created.ID)
		}
	})

	t.Run("Merge folds triggers and counters and retires the source", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		source := testPattern(types.CategoryPricing)
		source.TriggerExamples = []string{"pricing please", "what are your prices"}
		source.UsageCount = 4
		source.SuccessCount = 3
		source.EditCount = 1
		created, err := repo.Pattern().Insert(ctx, source)
		gt.NoError(t, err).Required()

		target := testPattern(types.CategoryPricing)
		target.UsageCount = 10
		target.SuccessCount = 8
		targetCreated, err := repo.Pattern().Insert(ctx, target)
		gt.NoError(t, err).Required()

		mergedEmbedding := []float32{0, 1, 0}
		merged, err := repo.Pattern().Merge(ctx, created.ID, targetCreated.ID, mergedEmbedding, nil)
		gt.NoError(t, err).Required()

		// union of triggers, duplicates removed
		gt.Array(t, merged.TriggerExamples).Length(3)
		gt.Value(t, merged.UsageCount).Equal(14)
		gt.Value(t, merged.SuccessCount).Equal(11)
		gt.Value(t, merged.EditCount).Equal(1)
		gt.Value(t, merged.Embedding[1]).Equal(float32(1))

		retired, err := repo.Pattern().Get(ctx, created.ID)
		gt.NoError(t, err).Required()
		gt.Bool(t, retired.Active).False()
	})

	t.Run("Merge into itself fails", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.Pattern().Insert(ctx, testPattern(types.CategoryPricing))
		gt.NoError(t, err).Required()

		_, err = repo.Pattern().Merge(ctx, created.ID, created.ID, nil, nil)
		gt.Error(t, err)
	})

	t.Run("Merge runs finalize against the combined counters", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		source := testPattern(types.CategoryPricing)
		source.SuccessCount = 6
		source.ConfidenceScore = 90
		created, err := repo.Pattern().Insert(ctx, source)
		gt.NoError(t, err).Required()

		target := testPattern(types.CategoryPricing)
		target.SuccessCount = 6
		target.ConfidenceScore = 90
		targetCreated, err := repo.Pattern().Insert(ctx, target)
		gt.NoError(t, err).Required()

		merged, err := repo.Pattern().Merge(ctx, created.ID, targetCreated.ID, nil, func(p *model.Pattern) error {
			p.RecomputeEligibility(10, 85)
			return nil
		})
		gt.NoError(t, err).Required()

		gt.Value(t, merged.SuccessCount).Equal(12)
		gt.Bool(t, merged.AutoExecuteEligible).True()

		stored, err := repo.Pattern().Get(ctx, targetCreated.ID)
		gt.NoError(t, err).Required()
		gt.Bool(t, stored.AutoExecuteEligible).True()
	})

	t.Run("concurrent outcomes on the same pattern are all applied", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.Pattern().Insert(ctx, testPattern(types.CategoryPricing))
		gt.NoError(t, err).Required()

		const workers = 32
		var wg sync.WaitGroup
		wg.Add(workers)
		for i := 0; i < workers; i++ {
			go func() {
				defer wg.Done()
				_, err := repo.Pattern().ApplyOutcome(ctx, created.ID, func(p *model.Pattern) error {
					p.UsageCount++
					return nil
				})
				if err != nil {
					t.Errorf("apply outcome failed: %v", err)
				}
			}()
		}
		wg.Wait()

		got, err := repo.Pattern().Get(ctx, created.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.UsageCount).Equal(workers)
	})
}

func newFirestoreRepository(t *testing.T) interfaces.Repository {
	t.Helper()

	projectID := os.Getenv("TEST_FIRESTORE_PROJECT_ID")
	if projectID == "" {
		t.Skip("TEST_FIRESTORE_PROJECT_ID not set")
	}
	databaseID := os.Getenv("TEST_FIRESTORE_DATABASE_ID")

	ctx := context.Background()
	repo, err := firestore.New(ctx, projectID, databaseID)
	if err != nil {
		t.Fatalf("failed to create firestore repository: %v", err)
	}
	t.Cleanup(func() {
		if err := repo.Close(); err != nil {
			t.Errorf("failed to close firestore repository: %v", err)
		}
	})
	return repo
}

func TestMemoryPatternRepository(t *testing.T) {
	runPatternRepositoryTest(t, func(t *testing.T) interfaces.Repository {
		return memory.New()
	})
}

func TestFirestorePatternRepository(t *testing.T) {
	runPatternRepositoryTest(t, newFirestoreRepository)
}
