package extractors

import (
	"context"
	"time"

	"github.com/miradorstack/review-intel/internal/classify"
	"github.com/miradorstack/review-intel/internal/metrics"
	"github.com/miradorstack/review-intel/internal/models"
	"github.com/miradorstack/review-intel/internal/utils"
)

// guard runs model calls under the retry policy and records their metrics.
// Exhausted retries surface as utils.ErrServiceUnavailable.
type guard struct {
	service string
	policy  utils.RetryPolicy
	latency *utils.LatencyTracker
}

func newGuard(service string, policy utils.RetryPolicy, latency *utils.LatencyTracker) guard {
	return guard{service: service, policy: policy.Normalise(), latency: latency}
}

func call[T any](ctx context.Context, g guard, fn func(context.Context) (T, error)) (T, error) {
	start := time.Now()
	value, attempts, err := utils.Retry(ctx, g.service, g.policy, fn)
	elapsed := time.Since(start)
	metrics.ObserveModelCall(g.service, elapsed, attempts, err)
	g.latency.Observe(elapsed)
	return value, err
}

// ResilientScorer bounds a remote Scorer.
type ResilientScorer struct {
	inner Scorer
	guard guard
}

// NewResilientScorer wraps s. latency may be nil.
func NewResilientScorer(s Scorer, policy utils.RetryPolicy, latency *utils.LatencyTracker) *ResilientScorer {
	return &ResilientScorer{inner: s, guard: newGuard("score", policy, latency)}
}

// Score calls the wrapped scorer with timeout and retry.
func (r *ResilientScorer) Score(ctx context.Context, text string) (float64, error) {
	return call(ctx, r.guard, func(ctx context.Context) (float64, error) {
		return r.inner.Score(ctx, text)
	})
}

// ResilientRanker bounds a remote or embedding-backed Ranker.
type ResilientRanker struct {
	inner Ranker
	guard guard
}

// NewResilientRanker wraps r. latency may be nil.
func NewResilientRanker(r Ranker, policy utils.RetryPolicy, latency *utils.LatencyTracker) *ResilientRanker {
	return &ResilientRanker{inner: r, guard: newGuard("rank", policy, latency)}
}

// Rank calls the wrapped ranker with timeout and retry.
func (r *ResilientRanker) Rank(ctx context.Context, text string, maxNgram, topN int) ([]models.Phrase, error) {
	return call(ctx, r.guard, func(ctx context.Context) ([]models.Phrase, error) {
		return r.inner.Rank(ctx, text, maxNgram, topN)
	})
}

// ResilientClassifier bounds a zero-shot Classifier.
type ResilientClassifier struct {
	inner classify.Classifier
	guard guard
}

// NewResilientClassifier wraps c. latency may be nil.
func NewResilientClassifier(c classify.Classifier, policy utils.RetryPolicy, latency *utils.LatencyTracker) *ResilientClassifier {
	return &ResilientClassifier{inner: c, guard: newGuard("classify", policy, latency)}
}

// Classify calls the wrapped classifier with timeout and retry.
func (r *ResilientClassifier) Classify(ctx context.Context, text string, labels []string) ([]models.RankedLabel, error) {
	return call(ctx, r.guard, func(ctx context.Context) ([]models.RankedLabel, error) {
		return r.inner.Classify(ctx, text, labels)
	})
}
