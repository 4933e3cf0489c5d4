// ABOUTME: Cosine similarity between embedding vectors
// ABOUTME: Accumulates in float64 so long vectors do not lose precision
package ranking

import "math"

// CosineSimilarity returns the normalized dot product of a and b. ok is false
// when the similarity is undefined: mismatched or empty input, or a zero norm.
func CosineSimilarity(a, b []float32) (similarity float32, ok bool) {
	if len(a) != len(b) || len(a) == 0 {
		return 0, false
	}

	var dot, normA, normB float64
	for i := range a {
		x := float64(a[i])
		y := float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0, false
	}

	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB))), true
}
