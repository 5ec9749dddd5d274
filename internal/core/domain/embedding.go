package domain

import (
	"errors"
	"math"
)

var ErrEmptyEmbedding = errors.New("embedding is empty")
var ErrDimensionMismatch = errors.New("embedding dimensions do not match")
var ErrZeroVector = errors.New("embedding has zero magnitude")

// L2Normalize returns a unit-length copy of v.
func L2Normalize(v []float64) ([]float64, error) {
	if len(v) == 0 {
		return nil, ErrEmptyEmbedding
	}
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return nil, ErrZeroVector
	}
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = x / norm
	}
	return out, nil
}

// MeanEmbedding computes the voiceprint vector from a set of sample
// embeddings: each embedding is L2-normalized first (removing recording
// volume bias), the normalized vectors are averaged, and the mean is
// renormalized so cosine comparisons downstream see a unit vector.
// The result is independent of sample order.
func MeanEmbedding(embeddings [][]float64) ([]float64, error) {
	if len(embeddings) == 0 {
		return nil, ErrEmptyEmbedding
	}
	dim := len(embeddings[0])
	mean := make([]float64, dim)
	for _, e := range embeddings {
		if len(e) != dim {
			return nil, ErrDimensionMismatch
		}
		n, err := L2Normalize(e)
		if err != nil {
			return nil, err
		}
		for i, x := range n {
			mean[i] += x
		}
	}
	for i := range mean {
		mean[i] /= float64(len(embeddings))
	}
	return L2Normalize(mean)
}

// CosineSimilarity returns the cosine of the angle between a and b in
// [-1, 1].
func CosineSimilarity(a, b []float64) (float64, error) {
	if len(a) == 0 || len(b) == 0 {
		return 0, ErrEmptyEmbedding
	}
	if len(a) != len(b) {
		return 0, ErrDimensionMismatch
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0, ErrZeroVector
	}
	sim := dot / (math.Sqrt(na) * math.Sqrt(nb))
	// guard against float drift leaking outside the mathematical range
	return math.Max(-1, math.Min(1, sim)), nil
}

// ClampUnit maps a cosine similarity in [-1, 1] to [0, 1] for threshold
// comparison. Negative similarities carry no extra information for
// acceptance purposes and collapse to zero.
func ClampUnit(sim float64) float64 {
	if sim < 0 {
		return 0
	}
	if sim > 1 {
		return 1
	}
	return sim
}
