// Package engine runs the review analysis: per-review topic summaries, the
// corpus keyphrase tallies and the trend reduction over a batch.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/miradorstack/review-intel/internal/classify"
	"github.com/miradorstack/review-intel/internal/extractors"
	"github.com/miradorstack/review-intel/internal/metrics"
	"github.com/miradorstack/review-intel/internal/models"
	"github.com/miradorstack/review-intel/internal/segment"
	"github.com/miradorstack/review-intel/internal/topics"
	"github.com/miradorstack/review-intel/internal/utils"
)

// ConflictPolicy decides the label of a topic that several fragments of one
// review voted on.
type ConflictPolicy string

const (
	// PolicyMajority takes the most voted label; ties fall back to the label
	// of the summed scores.
	PolicyMajority ConflictPolicy = "majority"
	// PolicyLast keeps the label of the last fragment.
	PolicyLast ConflictPolicy = "last"
)

// SummarizerConfig tunes the summarizer. TopK is the number of phrases each
// review contributes to the corpus tally, MaxNgram bounds corpus phrase length
// in tokens and Workers bounds concurrent model calls in SummarizeCorpus.
type SummarizerConfig struct {
	TopK           int
	MaxNgram       int
	ConflictPolicy ConflictPolicy
	Workers        int
}

// Summarizer fuses fragment aspects and sentiment into per-review topic maps
// and corpus keyphrase tallies.
type Summarizer struct {
	logger     *slog.Logger
	dict       *topics.Dictionary
	extractor  extractors.Extractor
	scorer     extractors.Scorer
	ranker     extractors.Ranker
	classifier classify.Classifier
	cfg        SummarizerConfig
}

// NewSummarizer constructs a Summarizer. ranker and classifier are optional:
// without a ranker the corpus has no keyphrases, without a classifier it has
// no zero-shot topic counts.
func NewSummarizer(
	logger *slog.Logger,
	dict *topics.Dictionary,
	extractor extractors.Extractor,
	scorer extractors.Scorer,
	ranker extractors.Ranker,
	classifier classify.Classifier,
	cfg SummarizerConfig,
) (*Summarizer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if dict == nil || extractor == nil || scorer == nil {
		return nil, utils.ConfigError("engine.NewSummarizer", "dictionary, extractor and scorer are required", nil)
	}
	if cfg.TopK <= 0 {
		cfg.TopK = 3
	}
	if cfg.MaxNgram <= 0 {
		cfg.MaxNgram = 2
	}
	switch cfg.ConflictPolicy {
	case "":
		cfg.ConflictPolicy = PolicyMajority
	case PolicyMajority, PolicyLast:
	default:
		return nil, utils.ConfigError("engine.NewSummarizer", fmt.Sprintf("unknown conflict policy %q", cfg.ConflictPolicy), nil)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &Summarizer{
		logger:     logger,
		dict:       dict,
		extractor:  extractor,
		scorer:     scorer,
		ranker:     ranker,
		classifier: classifier,
		cfg:        cfg,
	}, nil
}

// TopicOrder is the dictionary order used for every ordered topic output.
func (s *Summarizer) TopicOrder() []string {
	return s.dict.IDs()
}

// SummarizeReview segments one review and maps each fragment's aspect to a
// topic label. Misses, unmapped aspects and backend failures are counted in
// the returned diagnostics and never fail the review.
func (s *Summarizer) SummarizeReview(ctx context.Context, review models.ReviewRecord) (models.ReviewSummary, models.Diagnostics) {
	diag := models.Diagnostics{Reviews: 1}
	summary := models.ReviewSummary{
		ReviewID:   review.ID,
		Topics:     make(map[string]models.Label),
		Votes:      make(map[string]models.TopicVotes),
		AuthoredAt: review.AuthoredAt,
		Timestamp:  review.HasTimestamp(),
	}

	if score, label, err := extractors.Analyze(ctx, s.scorer, review.Text); err != nil {
		diag.ServiceUnavailable++
		s.logger.Debug("review scoring failed", slog.String("review_id", review.ID), slog.Any("error", err))
	} else {
		summary.Score, summary.Label = score, label
	}

	last := make(map[string]models.Label)
	for frag := range segment.Segment(review.ID, review.Text) {
		diag.Fragments++
		aspect, hint, ok := s.fragment(ctx, frag, &diag)
		if !ok {
			continue
		}
		summary.Aspects = append(summary.Aspects, aspect)
		if aspect.Aspect == nil {
			continue
		}

		topic, err := s.resolve(*aspect.Aspect, hint)
		if err != nil {
			diag.UnmappedTopics++
			metrics.ObserveFragment(metrics.FragmentUnmapped)
			continue
		}
		metrics.ObserveFragment(metrics.FragmentAssigned)
		votes := summary.Votes[topic]
		votes.Add(aspect.Label, aspect.Score)
		summary.Votes[topic] = votes
		last[topic] = aspect.Label
	}
	if diag.Fragments == 0 {
		diag.EmptyReviews++
	}

	for topic, votes := range summary.Votes {
		if votes.Conflicting() {
			diag.ConflictingTopics++
		}
		if s.cfg.ConflictPolicy == PolicyLast {
			summary.Topics[topic] = last[topic]
			continue
		}
		summary.Topics[topic] = majority(votes)
	}

	metrics.ObserveReview()
	return summary, diag
}

// fragment extracts and scores one fragment. ok is false when the fragment
// has to be dropped; a missing aspect alone still yields a scored result with
// a nil Aspect. hint is the topic id reported by label classifiers.
func (s *Summarizer) fragment(ctx context.Context, frag models.OpinionFragment, diag *models.Diagnostics) (result models.AspectSentiment, hint string, ok bool) {
	result = models.AspectSentiment{Fragment: frag}

	aspect, err := s.extractor.Extract(ctx, frag.Text)
	if err != nil {
		s.unavailable(frag, err, diag)
		return result, "", false
	}

	score, label, err := extractors.Analyze(ctx, s.scorer, frag.Text)
	if err != nil {
		s.unavailable(frag, err, diag)
		return result, "", false
	}
	result.Score, result.Label = score, label

	if !aspect.Found {
		diag.ExtractionMisses++
		metrics.ObserveFragment(metrics.FragmentMiss)
		return result, "", true
	}
	keyword := aspect.Keyword
	result.Aspect = &keyword
	return result, aspect.Topic, true
}

// resolve maps an extracted keyword onto a topic. A classifier hint naming a
// known topic wins; anything else goes through the synonym index.
func (s *Summarizer) resolve(keyword, hint string) (string, error) {
	if hint != "" && s.dict.Has(hint) {
		return hint, nil
	}
	return s.dict.Map(keyword)
}

// unavailable counts a fragment whose backend call failed as an extraction miss.
func (s *Summarizer) unavailable(frag models.OpinionFragment, err error, diag *models.Diagnostics) {
	diag.ExtractionMisses++
	if errors.Is(err, utils.ErrServiceUnavailable) {
		diag.ServiceUnavailable++
	}
	metrics.ObserveFragment(metrics.FragmentUnavailable)
	s.logger.Debug("fragment dropped",
		slog.String("review_id", frag.ReviewID),
		slog.Int("ordinal", frag.Ordinal),
		slog.String("strategy", s.extractor.Name()),
		slog.Any("error", err))
}

func majority(v models.TopicVotes) models.Label {
	best, label, tie := -1, models.LabelNeutral, false
	for _, candidate := range []struct {
		label models.Label
		n     int
	}{
		{models.LabelPositive, v.Positive},
		{models.LabelNegative, v.Negative},
		{models.LabelNeutral, v.Neutral},
	} {
		switch {
		case candidate.n > best:
			best, label, tie = candidate.n, candidate.label, false
		case candidate.n == best:
			tie = true
		}
	}
	if tie {
		return models.LabelFromScore(v.ScoreSum)
	}
	return label
}
