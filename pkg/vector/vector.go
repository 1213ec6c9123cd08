package vector

import (
	"errors"
	"fmt"
	"math"
)

// ErrDimensionMismatch is returned when two vectors of unequal length are
// compared. This is an input error and is never retried.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// Cosine returns the cosine similarity of a and b, in [-1, 1]. A zero-norm
// operand yields 0, not NaN.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

// Euclidean returns the L2 distance between a and b
func Euclidean(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}

	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum), nil
}

// Mean returns the coordinate-wise mean of the vectors. All vectors must
// share one dimension; the slice must be non-empty.
func Mean(vectors [][]float32) ([]float32, error) {
	if len(vectors) == 0 {
		return nil, errors.New("mean of empty vector set")
	}

	dim := len(vectors[0])
	sums := make([]float64, dim)
	for _, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(v), dim)
		}
		for i := range v {
			sums[i] += float64(v[i])
		}
	}

	mean := make([]float32, dim)
	for i := range sums {
		mean[i] = float32(sums[i] / float64(len(vectors)))
	}
	return mean, nil
}
