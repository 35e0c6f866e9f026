package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/replykit/replykit/pkg/domain/types"
)

// EmbeddingDimension is the dimension of the embedding vector.
// Gemini text-embedding-004 uses 768 dimensions.
const EmbeddingDimension = 768

// PatternID is a UUID-based identifier for Pattern
type PatternID string

// NewPatternID generates a new UUID v4 PatternID
func NewPatternID() PatternID {
	return PatternID(uuid.New().String())
}

// String returns the string representation of PatternID
func (id PatternID) String() string {
	return string(id)
}

// Pattern represents a learned stimulus-to-response rule with confidence and
// usage statistics adjusted from observed operator outcomes.
type Pattern struct {
	ID              PatternID
	Category        types.Category
	TriggerExamples []string
	Embedding       []float32
	// ResponseTemplate may contain named placeholders such as {location_name}
	// that are resolved by the rendering service at send time.
	ResponseTemplate string

	// ConfidenceScore is a reliability estimate in [0, 100]. It is mutated
	// only through the repository outcome path and explicit operator override.
	ConfidenceScore float64

	// AutoExecuteEligible is recomputed from the counters after every outcome,
	// never cached stale. Auto-execution requires both the eligibility and the
	// operator-controlled AutoExecuteEnabled switch.
	AutoExecuteEligible bool
	AutoExecuteEnabled  bool

	UsageCount   int
	SuccessCount int
	EditCount    int
	RejectCount  int

	Active bool

	CreatedAt              time.Time
	UpdatedAt              time.Time
	LastUsedAt             time.Time
	LastConfidenceUpdateAt time.Time
}

// ClampConfidence forces ConfidenceScore back into [0, 100].
// It reports whether the stored value was out of bounds.
func (p *Pattern) ClampConfidence() bool {
	switch {
	case p.ConfidenceScore < 0:
		p.ConfidenceScore = 0
		return true
	case p.ConfidenceScore > 100:
		p.ConfidenceScore = 100
		return true
	default:
		return false
	}
}

// RecomputeEligibility re-derives AutoExecuteEligible from the current
// counters and confidence score.
func (p *Pattern) RecomputeEligibility(approvalThreshold int, autoExecuteFloor float64) {
	p.AutoExecuteEligible = p.SuccessCount >= approvalThreshold && p.ConfidenceScore >= autoExecuteFloor
}

// OutcomeCount returns the number of resolved outcomes observed for the pattern.
func (p *Pattern) OutcomeCount() int {
	return p.UsageCount
}

// Clone returns a deep copy of the pattern
func (p *Pattern) Clone() *Pattern {
	copied := *p

	if p.TriggerExamples != nil {
		copied.TriggerExamples = make([]string, len(p.TriggerExamples))
		copy(copied.TriggerExamples, p.TriggerExamples)
	}
	if p.Embedding != nil {
		copied.Embedding = make([]float32, len(p.Embedding))
		copy(copied.Embedding, p.Embedding)
	}

	return &copied
}

// PatternDraft is an operator-authored pattern before insertion
type PatternDraft struct {
	Category         types.Category
	TriggerExamples  []string
	ResponseTemplate string
	// Embedding is optional; when absent the caller is expected to compute it
	// through the embedding service before insertion.
	Embedding []float32
}

// PatternFilter narrows List queries for operator tooling
type PatternFilter struct {
	Category types.Category // zero value matches all categories
	// ActiveOnly excludes soft-deleted patterns when true
	ActiveOnly bool
}

// DuplicateWarning is an advisory result of the deduplication check at
// pattern-creation time. It never blocks creation.
type DuplicateWarning struct {
	PatternID       PatternID
	SimilarityScore float64
}
