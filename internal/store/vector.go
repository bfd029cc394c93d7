package store

import "math"

// CosineSimilarity computes the cosine similarity between two vectors,
// clamped to [-1, 1] to absorb floating point errors. Mismatched or zero
// vectors yield -1 (maximum dissimilarity).
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return -1.0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return -1.0
	}

	similarity := dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
	if similarity > 1 {
		similarity = 1
	}
	if similarity < -1 {
		similarity = -1
	}

	return similarity
}

// EuclideanScore maps Euclidean distance into (0, 1] via 1/(1+d).
// Identical vectors score 1; the score decays with distance.
func EuclideanScore(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return 1 / (1 + math.Sqrt(sum))
}

// ManhattanScore maps Manhattan (cityblock) distance into (0, 1] via 1/(1+d).
func ManhattanScore(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var sum float64
	for i := range a {
		sum += math.Abs(float64(a[i]) - float64(b[i]))
	}
	return 1 / (1 + sum)
}

// NormalizeL2 returns a copy of v scaled to unit length. A zero vector is
// returned as an unscaled copy.
func NormalizeL2(v []float32) []float32 {
	out := make([]float32, len(v))
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		copy(out, v)
		return out
	}
	norm := math.Sqrt(sum)
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

// Centroid computes the component-wise mean of the given vectors.
// Returns nil for an empty input. Vectors shorter than the first one are
// not expected; all samples of a user share the model's dimensionality.
func Centroid(vectors [][]float32) []float32 {
	if len(vectors) == 0 {
		return nil
	}
	dim := len(vectors[0])
	sums := make([]float64, dim)
	for _, vec := range vectors {
		for i := 0; i < dim && i < len(vec); i++ {
			sums[i] += float64(vec[i])
		}
	}
	out := make([]float32, dim)
	n := float64(len(vectors))
	for i, s := range sums {
		out[i] = float32(s / n)
	}
	return out
}
