package vector

import (
	"math"

	"github.com/m-mizutani/goerr/v2"
)

// Sentinel errors for malformed embedding input. Both indicate a caller bug
// and are never retried.
var (
	ErrDimensionMismatch = goerr.New("embedding dimension mismatch")
	ErrZeroVector        = goerr.New("zero embedding vector")
)

// epsilon is the minimum magnitude below which a vector is treated as zero.
// A zero embedding must never silently match everything.
const epsilon = 1e-9

// Similarity computes the cosine similarity of two vectors, in [-1, 1].
func Similarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, goerr.Wrap(ErrDimensionMismatch, "vectors have different lengths",
			goerr.V("lenA", len(a)), goerr.V("lenB", len(b)))
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom < epsilon {
		return 0, goerr.Wrap(ErrZeroVector, "cosine similarity is undefined for zero vectors")
	}

	return dot / denom, nil
}

// Normalize returns a unit-length copy of v.
func Normalize(v []float32) ([]float32, error) {
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	norm = math.Sqrt(norm)
	if norm < epsilon {
		return nil, goerr.Wrap(ErrZeroVector, "cannot normalize zero vector")
	}

	unit := make([]float32, len(v))
	for i, x := range v {
		unit[i] = float32(float64(x) / norm)
	}
	return unit, nil
}

// Mean returns the arithmetic mean of the given vectors, normalized to unit
// length. It is used to aggregate per-trigger-example embeddings into one
// pattern embedding.
func Mean(vs [][]float32) ([]float32, error) {
	if len(vs) == 0 {
		return nil, goerr.Wrap(ErrZeroVector, "no vectors to aggregate")
	}

	dim := len(vs[0])
	sum := make([]float64, dim)
	for _, v := range vs {
		if len(v) != dim {
			return nil, goerr.Wrap(ErrDimensionMismatch, "inconsistent vector lengths",
				goerr.V("expected", dim), goerr.V("actual", len(v)))
		}
		for i, x := range v {
			sum[i] += float64(x)
		}
	}

	mean := make([]float32, dim)
	for i, x := range sum {
		mean[i] = float32(x / float64(len(vs)))
	}

	return Normalize(mean)
}
