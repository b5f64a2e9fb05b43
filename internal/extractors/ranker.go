package extractors

import (
	"context"
	"fmt"
	"sort"

	"github.com/miradorstack/review-intel/internal/embed"
	"github.com/miradorstack/review-intel/internal/models"
)

// EmbeddingRanker scores each candidate n-gram by cosine similarity between
// its embedding and the embedding of the whole text.
type EmbeddingRanker struct {
	embedder embed.Embedder
}

// NewEmbeddingRanker wraps an embedder. The embedder is shared across calls
// and must not keep per-call state.
func NewEmbeddingRanker(e embed.Embedder) *EmbeddingRanker {
	return &EmbeddingRanker{embedder: e}
}

// Rank returns up to topN phrases, best first; topN <= 0 returns all.
// Equal scores keep candidate order.
func (r *EmbeddingRanker) Rank(ctx context.Context, text string, maxNgram, topN int) ([]models.Phrase, error) {
	candidates := Candidates(text, maxNgram)
	if len(candidates) == 0 {
		return nil, nil
	}

	inputs := make([]string, 0, len(candidates)+1)
	inputs = append(inputs, text)
	inputs = append(inputs, candidates...)
	vectors, err := embed.EmbedAll(ctx, r.embedder, inputs)
	if err != nil {
		return nil, fmt.Errorf("rank phrases: %w", err)
	}

	doc := vectors[0]
	phrases := make([]models.Phrase, len(candidates))
	for i, cand := range candidates {
		phrases[i] = models.Phrase{
			Text:      cand,
			Relevance: float64(embed.CosineSimilarity(doc, vectors[i+1])),
		}
	}
	sort.SliceStable(phrases, func(i, j int) bool { return phrases[i].Relevance > phrases[j].Relevance })
	if topN > 0 && len(phrases) > topN {
		phrases = phrases[:topN]
	}
	return phrases, nil
}
