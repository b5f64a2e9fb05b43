// Package extractors turns opinion fragments into aspects and polarity scores.
package extractors

import (
	"context"

	"github.com/miradorstack/review-intel/internal/classify"
	"github.com/miradorstack/review-intel/internal/models"
)

// Ranker ranks candidate key phrases of up to maxNgram tokens, best first.
type Ranker interface {
	Rank(ctx context.Context, text string, maxNgram, topN int) ([]models.Phrase, error)
}

// Aspect is the result of one extraction. Found is false when no candidate
// cleared the relevance threshold; that is a miss, not an error.
type Aspect struct {
	Keyword   string
	Relevance float64
	Found     bool
	// Topic is set when Keyword is already a topic id.
	Topic string
}

// Extractor returns the subject phrase of an opinion fragment. Errors are
// reserved for backend failures.
type Extractor interface {
	Name() string
	Extract(ctx context.Context, text string) (Aspect, error)
}

type rankExtractor struct {
	ranker       Ranker
	maxNgram     int
	minRelevance float64
}

// aspectPool is how many ranked phrases are inspected for one that names an
// aspect rather than judging it.
const aspectPool = 10

// extract returns the best-ranked phrase without opinion words; "food" wins
// over "food great" and "great".
func (e rankExtractor) extract(ctx context.Context, text string) (Aspect, error) {
	phrases, err := e.ranker.Rank(ctx, text, e.maxNgram, aspectPool)
	if err != nil {
		return Aspect{}, err
	}
	opinions := OpinionTokens(text)
	for _, p := range phrases {
		if p.Relevance <= e.minRelevance {
			break
		}
		if judges(p.Text, opinions) {
			continue
		}
		return Aspect{Keyword: p.Text, Relevance: p.Relevance, Found: true}, nil
	}
	return Aspect{}, nil
}

// EmbeddingRankExtractor picks the best one- or two-token phrase.
type EmbeddingRankExtractor struct {
	rankExtractor
}

// NewEmbeddingRankExtractor ranks phrases of up to maxNgram tokens (1 or 2, default 2).
func NewEmbeddingRankExtractor(ranker Ranker, maxNgram int, minRelevance float64) *EmbeddingRankExtractor {
	if maxNgram < 1 || maxNgram > 2 {
		maxNgram = 2
	}
	return &EmbeddingRankExtractor{rankExtractor{ranker: ranker, maxNgram: maxNgram, minRelevance: minRelevance}}
}

// Name identifies the strategy.
func (e *EmbeddingRankExtractor) Name() string { return "embedding" }

// Extract returns the top-ranked phrase of text.
func (e *EmbeddingRankExtractor) Extract(ctx context.Context, text string) (Aspect, error) {
	return e.extract(ctx, text)
}

// SingleTokenExtractor picks the best single word.
type SingleTokenExtractor struct {
	rankExtractor
}

// NewSingleTokenExtractor restricts candidates to single tokens.
func NewSingleTokenExtractor(ranker Ranker, minRelevance float64) *SingleTokenExtractor {
	return &SingleTokenExtractor{rankExtractor{ranker: ranker, maxNgram: 1, minRelevance: minRelevance}}
}

// Name identifies the strategy.
func (e *SingleTokenExtractor) Name() string { return "single-token" }

// Extract returns the top-ranked word of text.
func (e *SingleTokenExtractor) Extract(ctx context.Context, text string) (Aspect, error) {
	return e.extract(ctx, text)
}

// ZeroShotTopicClassifier labels a fragment directly with one of a fixed label
// set, normally the topic ids. The label is reported as the aspect's Topic.
type ZeroShotTopicClassifier struct {
	classifier classify.Classifier
	labels     []string
	minScore   float64
}

// NewZeroShotTopicClassifier classifies against labels; the best label must score above minScore.
func NewZeroShotTopicClassifier(c classify.Classifier, labels []string, minScore float64) *ZeroShotTopicClassifier {
	return &ZeroShotTopicClassifier{classifier: c, labels: append([]string(nil), labels...), minScore: minScore}
}

// Name identifies the strategy.
func (z *ZeroShotTopicClassifier) Name() string { return "zero-shot" }

// Extract returns the best label for text.
func (z *ZeroShotTopicClassifier) Extract(ctx context.Context, text string) (Aspect, error) {
	if len(z.labels) == 0 || len(Tokens(text)) == 0 {
		return Aspect{}, nil
	}
	ranked, err := z.classifier.Classify(ctx, text, z.labels)
	if err != nil {
		return Aspect{}, err
	}
	if len(ranked) == 0 || ranked[0].Score <= z.minScore {
		return Aspect{}, nil
	}
	return Aspect{Keyword: ranked[0].Label, Relevance: ranked[0].Score, Found: true, Topic: ranked[0].Label}, nil
}
