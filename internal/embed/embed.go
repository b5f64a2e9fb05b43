// Package embed turns text into vectors for keyphrase ranking.
package embed

import (
	"context"
	"fmt"
	"math"
)

// Embedder generates vector embeddings from text.
type Embedder interface {
	// Available reports whether the backend can serve requests.
	Available() bool
	Embed(ctx context.Context, text string) ([]float32, error)
}

// BatchEmbedder embeds several texts per call. On success result[i] belongs to texts[i].
type BatchEmbedder interface {
	Embedder
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// EmbedAll embeds texts in one call when e supports batching and one by one otherwise.
func EmbedAll(ctx context.Context, e Embedder, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if batch, ok := e.(BatchEmbedder); ok {
		vectors, err := batch.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, err
		}
		if len(vectors) != len(texts) {
			return nil, fmt.Errorf("embed: got %d vectors for %d texts", len(vectors), len(texts))
		}
		return vectors, nil
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

// CosineSimilarity returns 1 for identical directions and 0 for orthogonal,
// mismatched or zero-length vectors.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
