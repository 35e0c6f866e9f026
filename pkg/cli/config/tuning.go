package config

import (
	"github.com/m-mizutani/goerr/v2"
	domainConfig "github.com/replykit/replykit/pkg/domain/model/config"
	"github.com/urfave/cli/v3"
)

// Tuning holds CLI flags for the decision engine knobs. Defaults mirror
// the domain defaults; every knob is overridable without a rebuild.
type Tuning struct {
	values domainConfig.Tuning
}

// Flags returns CLI flags for tuning configuration
func (t *Tuning) Flags() []cli.Flag {
	defaults := domainConfig.Default()
	t.values = *defaults

	return []cli.Flag{
		&cli.FloatFlag{
			Name:        "floor-similarity",
			Usage:       "Minimum cosine similarity for a pattern to be considered a match",
			Value:       defaults.FloorSimilarity,
			Sources:     cli.EnvVars("REPLYKIT_FLOOR_SIMILARITY"),
			Destination: &t.values.FloorSimilarity,
		},
		&cli.IntFlag{
			Name:        "top-k",
			Usage:       "Maximum number of match candidates returned per scan",
			Value:       defaults.TopK,
			Sources:     cli.EnvVars("REPLYKIT_TOP_K"),
			Destination: &t.values.TopK,
		},
		&cli.FloatFlag{
			Name:        "duplicate-floor",
			Usage:       "Similarity above which a new pattern is flagged as a duplicate",
			Value:       defaults.DuplicateFloor,
			Sources:     cli.EnvVars("REPLYKIT_DUPLICATE_FLOOR"),
			Destination: &t.values.DuplicateFloor,
		},
		&cli.FloatFlag{
			Name:        "weight-similarity",
			Usage:       "Weight of query similarity in combined confidence",
			Value:       defaults.WeightSimilarity,
			Sources:     cli.EnvVars("REPLYKIT_WEIGHT_SIMILARITY"),
			Destination: &t.values.WeightSimilarity,
		},
		&cli.FloatFlag{
			Name:        "weight-confidence",
			Usage:       "Weight of pattern confidence in combined confidence",
			Value:       defaults.WeightConfidence,
			Sources:     cli.EnvVars("REPLYKIT_WEIGHT_CONFIDENCE"),
			Destination: &t.values.WeightConfidence,
		},
		&cli.FloatFlag{
			Name:        "auto-execute-floor",
			Usage:       "Combined confidence required for auto-execution",
			Value:       defaults.AutoExecuteFloor,
			Sources:     cli.EnvVars("REPLYKIT_AUTO_EXECUTE_FLOOR"),
			Destination: &t.values.AutoExecuteFloor,
		},
		&cli.FloatFlag{
			Name:        "suggest-floor",
			Usage:       "Combined confidence required to suggest a response",
			Value:       defaults.SuggestFloor,
			Sources:     cli.EnvVars("REPLYKIT_SUGGEST_FLOOR"),
			Destination: &t.values.SuggestFloor,
		},
		&cli.IntFlag{
			Name:        "approval-threshold",
			Usage:       "Minimum success count before auto-execution eligibility",
			Value:       defaults.ApprovalThreshold,
			Sources:     cli.EnvVars("REPLYKIT_APPROVAL_THRESHOLD"),
			Destination: &t.values.ApprovalThreshold,
		},
		&cli.FloatFlag{
			Name:        "gain-on-accept",
			Usage:       "Confidence gain when a suggestion is accepted",
			Value:       defaults.GainOnAccept,
			Sources:     cli.EnvVars("REPLYKIT_GAIN_ON_ACCEPT"),
			Destination: &t.values.GainOnAccept,
		},
		&cli.FloatFlag{
			Name:        "penalty-on-edit",
			Usage:       "Confidence penalty when a suggestion required editing",
			Value:       defaults.PenaltyOnEdit,
			Sources:     cli.EnvVars("REPLYKIT_PENALTY_ON_EDIT"),
			Destination: &t.values.PenaltyOnEdit,
		},
		&cli.FloatFlag{
			Name:        "penalty-on-reject",
			Usage:       "Confidence penalty when a suggestion is rejected",
			Value:       defaults.PenaltyOnReject,
			Sources:     cli.EnvVars("REPLYKIT_PENALTY_ON_REJECT"),
			Destination: &t.values.PenaltyOnReject,
		},
		&cli.FloatFlag{
			Name:        "deactivation-floor",
			Usage:       "Confidence below which a pattern is auto-deactivated",
			Value:       defaults.DeactivationFloor,
			Sources:     cli.EnvVars("REPLYKIT_DEACTIVATION_FLOOR"),
			Destination: &t.values.DeactivationFloor,
		},
		&cli.IntFlag{
			Name:        "min-sample-size",
			Usage:       "Minimum outcomes before auto-deactivation can trigger",
			Value:       defaults.MinSampleSize,
			Sources:     cli.EnvVars("REPLYKIT_MIN_SAMPLE_SIZE"),
			Destination: &t.values.MinSampleSize,
		},
		&cli.FloatFlag{
			Name:        "seed-confidence",
			Usage:       "Initial confidence assigned to new patterns",
			Value:       defaults.SeedConfidence,
			Sources:     cli.EnvVars("REPLYKIT_SEED_CONFIDENCE"),
			Destination: &t.values.SeedConfidence,
		},
	}
}

// Configure validates the tuning values and returns them
func (t *Tuning) Configure() (*domainConfig.Tuning, error) {
	values := t.values
	if err := values.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid tuning configuration")
	}
	return &values, nil
}
