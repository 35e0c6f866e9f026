package usecase_test

import (
	"context"
	"math"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/replykit/replykit/pkg/domain/model"
	"github.com/replykit/replykit/pkg/domain/types"
	"github.com/replykit/replykit/pkg/repository/memory"
	"github.com/replykit/replykit/pkg/usecase"
)

func TestCreatePattern(t *testing.T) {
	t.Run("stores the draft with seed confidence", func(t *testing.T) {
		repo := memory.New()
		uc := usecase.New(repo)
		ctx := context.Background()

		out, err := uc.CreatePattern(ctx, usecase.CreatePatternInput{
			Draft: model.PatternDraft{
				Category:         types.CategoryPricing,
				TriggerExamples:  []string{"how much does it cost", "what are your prices"},
				ResponseTemplate: "Plans start at {price}.",
				Embedding:        []float32{3, 4, 0},
			},
		})
		gt.NoError(t, err).Required()

		p := out.Pattern
		gt.String(t, string(p.ID)).NotEqual("")
		gt.Value(t, p.ConfidenceScore).Equal(uc.Tuning().SeedConfidence)
		gt.Bool(t, p.Active).True()
		gt.Bool(t, p.AutoExecuteEligible).False()
		gt.Bool(t, p.AutoExecuteEnabled).False()
		gt.Array(t, out.Warnings).Length(0)

		// embedding stored normalized
		gt.Bool(t, math.Abs(float64(p.Embedding[0])-0.6) < 1e-6).True()
		gt.Bool(t, math.Abs(float64(p.Embedding[1])-0.8) < 1e-6).True()
	})

	t.Run("duplicate trigger examples are deduped", func(t *testing.T) {
		repo := memory.New()
		uc := usecase.New(repo)

		out, err := uc.CreatePattern(context.Background(), usecase.CreatePatternInput{
			Draft: model.PatternDraft{
				Category:         types.CategoryHours,
				TriggerExamples:  []string{"when do you open", "When do you open", "  "},
				ResponseTemplate: "We open at 9am.",
				Embedding:        axis(0),
			},
		})
		gt.NoError(t, err).Required()
		gt.Array(t, out.Pattern.TriggerExamples).Length(1)
	})

	t.Run("overlapping pattern yields a warning but creation succeeds", func(t *testing.T) {
		repo := memory.New()
		uc := usecase.New(repo)
		ctx := context.Background()

		existing := seedPattern(t, repo, &model.Pattern{
			Category:         types.CategoryBooking,
			TriggerExamples:  []string{"change my booking"},
			Embedding:        axis(1),
			ResponseTemplate: "Use the account page.",
			ConfidenceScore:  70,
			Active:           true,
		})

		// ~0.85 similar to the existing embedding
		out, err := uc.CreatePattern(ctx, usecase.CreatePatternInput{
			Draft: model.PatternDraft{
				Category:         types.CategoryBooking,
				TriggerExamples:  []string{"modify a reservation"},
				ResponseTemplate: "You can modify it online.",
				Embedding:        []float32{0.527, 0.85, 0},
			},
		})
		gt.NoError(t, err).Required()

		gt.Array(t, out.Warnings).Length(1)
		gt.Value(t, out.Warnings[0].PatternID).Equal(existing.ID)
		gt.Bool(t, out.Warnings[0].SimilarityScore >= uc.Tuning().DuplicateFloor).True()

		// both patterns remain active
		active, err := repo.Pattern().ListActive(ctx, types.CategoryBooking)
		gt.NoError(t, err).Required()
		gt.Array(t, active).Length(2)
	})

	t.Run("dissimilar pattern yields no warning", func(t *testing.T) {
		repo := memory.New()
		uc := usecase.New(repo)

		seedPattern(t, repo, &model.Pattern{
			Category:         types.CategoryBooking,
			TriggerExamples:  []string{"change my booking"},
			Embedding:        axis(1),
			ResponseTemplate: "Use the account page.",
			ConfidenceScore:  70,
			Active:           true,
		})

		out, err := uc.CreatePattern(context.Background(), usecase.CreatePatternInput{
			Draft: model.PatternDraft{
				Category:         types.CategoryBooking,
				TriggerExamples:  []string{"completely different topic"},
				ResponseTemplate: "Different answer.",
				Embedding:        axis(2),
			},
		})
		gt.NoError(t, err).Required()
		gt.Array(t, out.Warnings).Length(0)
	})

	t.Run("invalid drafts are rejected", func(t *testing.T) {
		uc := usecase.New(memory.New())
		ctx := context.Background()

		_, err := uc.CreatePattern(ctx, usecase.CreatePatternInput{
			Draft: model.PatternDraft{
				Category:         types.Category("nonsense"),
				TriggerExamples:  []string{"x"},
				ResponseTemplate: "y",
				Embedding:        axis(0),
			},
		})
		gt.Error(t, err)

		_, err = uc.CreatePattern(ctx, usecase.CreatePatternInput{
			Draft: model.PatternDraft{
				Category:         types.CategoryGeneral,
				ResponseTemplate: "y",
				Embedding:        axis(0),
			},
		})
		gt.Error(t, err)

		_, err = uc.CreatePattern(ctx, usecase.CreatePatternInput{
			Draft: model.PatternDraft{
				Category:        types.CategoryGeneral,
				TriggerExamples: []string{"x"},
				Embedding:       axis(0),
			},
		})
		gt.Error(t, err)
	})

	t.Run("draft without embedding fails when no embedder is configured", func(t *testing.T) {
		uc := usecase.New(memory.New())

		_, err := uc.CreatePattern(context.Background(), usecase.CreatePatternInput{
			Draft: model.PatternDraft{
				Category:         types.CategoryGeneral,
				TriggerExamples:  []string{"x"},
				ResponseTemplate: "y",
			},
		})
		gt.Error(t, err)
	})
}

func TestMergePatterns(t *testing.T) {
	t.Run("target absorbs the source", func(t *testing.T) {
		repo := memory.New()
		uc := usecase.New(repo)
		ctx := context.Background()

		source := seedPattern(t, repo, &model.Pattern{
			Category:         types.CategoryPricing,
			TriggerExamples:  []string{"pricing please"},
			Embedding:        []float32{1, 0, 0},
			ResponseTemplate: "Plans start at $10.",
			ConfidenceScore:  60,
			UsageCount:       5,
			SuccessCount:     4,
			Active:           true,
		})
		target := seedPattern(t, repo, &model.Pattern{
			Category:         types.CategoryPricing,
			TriggerExamples:  []string{"how much does it cost"},
			Embedding:        []float32{0, 1, 0},
			ResponseTemplate: "Plans start at $10 per month.",
			ConfidenceScore:  75,
			UsageCount:       20,
			SuccessCount:     18,
			Active:           true,
		})

		merged, err := uc.MergePatterns(ctx, source.ID, target.ID)
		gt.NoError(t, err).Required()

		gt.Value(t, merged.ID).Equal(target.ID)
		gt.Array(t, merged.TriggerExamples).Length(2)
		gt.Value(t, merged.UsageCount).Equal(25)
		gt.Value(t, merged.SuccessCount).Equal(22)
		// confidence of the target is kept, not averaged
		gt.Value(t, merged.ConfidenceScore).Equal(75.0)

		// merged embedding points between the two originals
		gt.Bool(t, math.Abs(float64(merged.Embedding[0])-math.Sqrt2/2) < 1e-6).True()
		gt.Bool(t, math.Abs(float64(merged.Embedding[1])-math.Sqrt2/2) < 1e-6).True()

		retired, err := repo.Pattern().Get(ctx, source.ID)
		gt.NoError(t, err).Required()
		gt.Bool(t, retired.Active).False()
	})

	t.Run("eligibility is recomputed from the combined counters", func(t *testing.T) {
		repo := memory.New()
		uc := usecase.New(repo)
		ctx := context.Background()

		// Neither side clears the approval threshold alone; together they do.
		source := seedPattern(t, repo, &model.Pattern{
			Category:         types.CategoryPricing,
			TriggerExamples:  []string{"pricing please"},
			Embedding:        axis(0),
			ResponseTemplate: "Plans start at $10.",
			ConfidenceScore:  90,
			UsageCount:       6,
			SuccessCount:     6,
			Active:           true,
		})
		target := seedPattern(t, repo, &model.Pattern{
			Category:         types.CategoryPricing,
			TriggerExamples:  []string{"how much does it cost"},
			Embedding:        axis(1),
			ResponseTemplate: "Plans start at $10 per month.",
			ConfidenceScore:  90,
			UsageCount:       6,
			SuccessCount:     6,
			Active:           true,
		})
		gt.Bool(t, target.AutoExecuteEligible).False()

		merged, err := uc.MergePatterns(ctx, source.ID, target.ID)
		gt.NoError(t, err).Required()

		gt.Value(t, merged.SuccessCount).Equal(12)
		gt.Bool(t, merged.AutoExecuteEligible).True()

		stored, err := repo.Pattern().Get(ctx, target.ID)
		gt.NoError(t, err).Required()
		gt.Bool(t, stored.AutoExecuteEligible).True()
	})

	t.Run("cross-category merge fails", func(t *testing.T) {
		repo := memory.New()
		uc := usecase.New(repo)

		source := seedPattern(t, repo, &model.Pattern{
			Category:         types.CategoryPricing,
			TriggerExamples:  []string{"a"},
			Embedding:        axis(0),
			ResponseTemplate: "x",
			Active:           true,
		})
		target := seedPattern(t, repo, &model.Pattern{
			Category:         types.CategoryHours,
			TriggerExamples:  []string{"b"},
			Embedding:        axis(1),
			ResponseTemplate: "y",
			Active:           true,
		})

		_, err := uc.MergePatterns(context.Background(), source.ID, target.ID)
		gt.Error(t, err)
	})

	t.Run("self-merge fails", func(t *testing.T) {
		repo := memory.New()
		uc := usecase.New(repo)

		p := seedPattern(t, repo, &model.Pattern{
			Category:         types.CategoryPricing,
			TriggerExamples:  []string{"a"},
			Embedding:        axis(0),
			ResponseTemplate: "x",
			Active:           true,
		})

		_, err := uc.MergePatterns(context.Background(), p.ID, p.ID)
		gt.Error(t, err)
	})
}

func TestRenderResponse(t *testing.T) {
	repo := memory.New()
	uc := usecase.New(repo)
	ctx := context.Background()

	pattern := seedPattern(t, repo, &model.Pattern{
		Category:         types.CategoryPricing,
		TriggerExamples:  []string{"pricing"},
		Embedding:        axis(0),
		ResponseTemplate: "Plans start at {price} per month.",
		Active:           true,
	})

	t.Run("renders with variables", func(t *testing.T) {
		out, err := uc.RenderResponse(ctx, pattern.ID, map[string]string{"price": "$10"})
		gt.NoError(t, err).Required()
		gt.Value(t, out).Equal("Plans start at $10 per month.")
	})

	t.Run("unresolved placeholder fails", func(t *testing.T) {
		_, err := uc.RenderResponse(ctx, pattern.ID, nil)
		gt.Error(t, err)
	})
}

func TestListAndDeactivatePatterns(t *testing.T) {
	repo := memory.New()
	uc := usecase.New(repo)
	ctx := context.Background()

	p1 := seedPattern(t, repo, &model.Pattern{
		Category:         types.CategoryPricing,
		TriggerExamples:  []string{"a"},
		Embedding:        axis(0),
		ResponseTemplate: "x",
		Active:           true,
	})
	seedPattern(t, repo, &model.Pattern{
		Category:         types.CategoryHours,
		TriggerExamples:  []string{"b"},
		Embedding:        axis(1),
		ResponseTemplate: "y",
		Active:           true,
	})

	deactivated, err := uc.DeactivatePattern(ctx, p1.ID)
	gt.NoError(t, err).Required()
	gt.Bool(t, deactivated.Active).False()

	all, err := uc.ListPatterns(ctx, model.PatternFilter{})
	gt.NoError(t, err).Required()
	gt.Array(t, all).Length(2)

	activeOnly, err := uc.ListPatterns(ctx, model.PatternFilter{ActiveOnly: true})
	gt.NoError(t, err).Required()
	gt.Array(t, activeOnly).Length(1)
}
