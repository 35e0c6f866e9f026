package config

import (
	"math"

	"github.com/m-mizutani/goerr/v2"
)

// Tuning holds the operational numeric knobs of the decision engine.
// The defaults are defensible starting points, not contractual constants;
// every value is overridable through CLI flags.
type Tuning struct {
	// FloorSimilarity is the minimum cosine similarity for a pattern to be
	// considered a match at all. Sub-floor candidates are excluded entirely.
	FloorSimilarity float64
	// TopK bounds the number of candidates returned by a match scan.
	TopK int
	// DuplicateFloor is the similarity above which a new draft is flagged as
	// overlapping an existing pattern.
	DuplicateFloor float64

	// WeightSimilarity and WeightConfidence blend a query's similarity with
	// the pattern's historical confidence. They must sum to 1.
	WeightSimilarity float64
	WeightConfidence float64

	// AutoExecuteFloor is the combined confidence required for auto-execution.
	AutoExecuteFloor float64
	// SuggestFloor is the combined confidence required to suggest a response.
	SuggestFloor float64
	// ApprovalThreshold is the minimum success count before a pattern becomes
	// eligible for auto-execution.
	ApprovalThreshold int

	GainOnAccept    float64
	PenaltyOnEdit   float64
	PenaltyOnReject float64

	// DeactivationFloor is the confidence below which a pattern is
	// automatically deactivated, once MinSampleSize outcomes are observed.
	DeactivationFloor float64
	MinSampleSize     int

	// SeedConfidence is the initial confidence assigned to new patterns.
	SeedConfidence float64
}

// Default returns the default tuning values
func Default() *Tuning {
	return &Tuning{
		FloorSimilarity:   0.55,
		TopK:              5,
		DuplicateFloor:    0.8,
		WeightSimilarity:  0.4,
		WeightConfidence:  0.6,
		AutoExecuteFloor:  85,
		SuggestFloor:      40,
		ApprovalThreshold: 10,
		GainOnAccept:      2,
		PenaltyOnEdit:     3,
		PenaltyOnReject:   5,
		DeactivationFloor: 10,
		MinSampleSize:     5,
		SeedConfidence:    50,
	}
}

// Validate checks that the tuning values are internally consistent
func (t *Tuning) Validate() error {
	if t.FloorSimilarity < 0 || t.FloorSimilarity > 1 {
		return goerr.New("floor similarity must be in [0, 1]", goerr.V("value", t.FloorSimilarity))
	}
	if t.DuplicateFloor < 0 || t.DuplicateFloor > 1 {
		return goerr.New("duplicate floor must be in [0, 1]", goerr.V("value", t.DuplicateFloor))
	}
	if t.TopK < 1 {
		return goerr.New("topK must be at least 1", goerr.V("value", t.TopK))
	}
	if math.Abs(t.WeightSimilarity+t.WeightConfidence-1) > 1e-9 {
		return goerr.New("similarity and confidence weights must sum to 1",
			goerr.V("weightSimilarity", t.WeightSimilarity),
			goerr.V("weightConfidence", t.WeightConfidence))
	}
	if t.AutoExecuteFloor < 0 || t.AutoExecuteFloor > 100 {
		return goerr.New("auto-execute floor must be in [0, 100]", goerr.V("value", t.AutoExecuteFloor))
	}
	if t.SuggestFloor < 0 || t.SuggestFloor > t.AutoExecuteFloor {
		return goerr.New("suggest floor must be in [0, autoExecuteFloor]",
			goerr.V("suggestFloor", t.SuggestFloor),
			goerr.V("autoExecuteFloor", t.AutoExecuteFloor))
	}
	if t.ApprovalThreshold < 0 {
		return goerr.New("approval threshold must be non-negative", goerr.V("value", t.ApprovalThreshold))
	}
	if t.GainOnAccept < 0 || t.PenaltyOnEdit < 0 || t.PenaltyOnReject < 0 {
		return goerr.New("gains and penalties must be non-negative")
	}
	if t.DeactivationFloor < 0 || t.DeactivationFloor > 100 {
		return goerr.New("deactivation floor must be in [0, 100]", goerr.V("value", t.DeactivationFloor))
	}
	if t.MinSampleSize < 1 {
		return goerr.New("minimum sample size must be at least 1", goerr.V("value", t.MinSampleSize))
	}
	if t.SeedConfidence < 0 || t.SeedConfidence > 100 {
		return goerr.New("seed confidence must be in [0, 100]", goerr.V("value", t.SeedConfidence))
	}
	return nil
}
