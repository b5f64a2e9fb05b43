package engine

import (
	"cmp"
	"context"
	"log/slog"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/miradorstack/review-intel/internal/classify"
	"github.com/miradorstack/review-intel/internal/extractors"
	"github.com/miradorstack/review-intel/internal/models"
	"github.com/miradorstack/review-intel/internal/tally"
)

// RankedPhrase is one corpus keyphrase with the review it came from.
type RankedPhrase struct {
	Phrase    string  `json:"phrase"`
	Relevance float64 `json:"relevance"`
	ReviewID  string  `json:"review_id"`
}

// CorpusSummary holds the corpus-wide keyphrase and sentiment tallies.
//
// Keyphrases are sorted by relevance descending, ties in first-seen order.
// Sentiment counts whole reviews by label. Topics counts reviews by best
// zero-shot topic and is nil without a classifier.
type CorpusSummary struct {
	Keyphrases []RankedPhrase `json:"keyphrases"`
	Complaints *tally.Counter `json:"complaints"`
	Praise     *tally.Counter `json:"praise"`
	Neutral    *tally.Counter `json:"neutral"`
	Sentiment  *tally.Counter `json:"sentiment_counts"`
	Topics     *tally.Counter `json:"topic_counts,omitempty"`
}

// corpusPart is what one review contributes to the corpus summary.
type corpusPart struct {
	reviewID string
	phrases  []models.Phrase
	label    models.Label
	topic    string
	diag     models.Diagnostics
}

// SummarizeCorpus ranks the top phrases of every review and tallies them by
// sentiment. Reviews without a usable timestamp are included.
func (s *Summarizer) SummarizeCorpus(ctx context.Context, reviews []models.ReviewRecord) (CorpusSummary, models.Diagnostics, error) {
	parts := make([]corpusPart, len(reviews))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for i, review := range reviews {
		if err := gctx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			var diag models.Diagnostics
			label := models.Label("")
			if _, l, err := extractors.Analyze(gctx, s.scorer, review.Text); err != nil {
				diag.ServiceUnavailable++
			} else {
				label = l
			}
			part := s.corpusPart(gctx, review, label)
			part.diag.Merge(diag)
			parts[i] = part
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return CorpusSummary{}, models.Diagnostics{}, err
	}
	if err := ctx.Err(); err != nil {
		return CorpusSummary{}, models.Diagnostics{}, err
	}
	return s.reduceCorpus(ctx, parts)
}

// corpusPart ranks the review's top-k phrases and, with a classifier, its
// best zero-shot topic. label is the whole-review sentiment, empty when it
// could not be scored.
func (s *Summarizer) corpusPart(ctx context.Context, review models.ReviewRecord, label models.Label) corpusPart {
	part := corpusPart{reviewID: review.ID, label: label}

	if s.ranker != nil {
		phrases, err := s.ranker.Rank(ctx, review.Text, s.cfg.MaxNgram, s.cfg.TopK)
		if err != nil {
			part.diag.ServiceUnavailable++
			s.logger.Debug("review ranking failed", slog.String("review_id", review.ID), slog.Any("error", err))
		} else {
			if len(phrases) > s.cfg.TopK {
				phrases = phrases[:s.cfg.TopK]
			}
			part.phrases = phrases
		}
	}

	if s.classifier != nil && len(extractors.Tokens(review.Text)) > 0 {
		ids := s.dict.IDs()
		ranked, err := s.classifier.Classify(ctx, review.Text, ids)
		if err != nil {
			part.diag.ServiceUnavailable++
			s.logger.Debug("review classification failed", slog.String("review_id", review.ID), slog.Any("error", err))
		} else if ranked = classify.Normalise(ranked, ids); len(ranked) > 0 && ranked[0].Score > 0 {
			part.topic = ranked[0].Label
		}
	}
	return part
}

// reduceCorpus folds the parts in review order, so the result does not depend
// on how the parts were computed.
func (s *Summarizer) reduceCorpus(ctx context.Context, parts []corpusPart) (CorpusSummary, models.Diagnostics, error) {
	var diag models.Diagnostics
	summary := CorpusSummary{
		Complaints: tally.New(),
		Praise:     tally.New(),
		Neutral:    tally.New(),
		Sentiment:  tally.New(),
	}
	for _, label := range models.Labels {
		summary.Sentiment.Add(string(label), 0)
	}
	if s.classifier != nil {
		summary.Topics = tally.New()
		for _, id := range s.dict.IDs() {
			summary.Topics.Add(id, 0)
		}
	}

	for _, part := range parts {
		diag.Merge(part.diag)
		if part.label != "" {
			summary.Sentiment.Inc(string(part.label))
		}
		if part.topic != "" && summary.Topics != nil {
			summary.Topics.Inc(part.topic)
		}
		for _, p := range part.phrases {
			summary.Keyphrases = append(summary.Keyphrases, RankedPhrase{Phrase: p.Text, Relevance: p.Relevance, ReviewID: part.reviewID})
		}
	}
	slices.SortStableFunc(summary.Keyphrases, func(a, b RankedPhrase) int {
		return cmp.Compare(b.Relevance, a.Relevance)
	})

	distinct := make([]string, 0, len(summary.Keyphrases))
	seen := make(map[string]struct{}, len(summary.Keyphrases))
	for _, kp := range summary.Keyphrases {
		if _, ok := seen[kp.Phrase]; ok {
			continue
		}
		seen[kp.Phrase] = struct{}{}
		distinct = append(distinct, kp.Phrase)
	}

	labels, err := s.scorePhrases(ctx, distinct)
	if err != nil {
		return CorpusSummary{}, models.Diagnostics{}, err
	}
	byPhrase := make(map[string]models.Label, len(distinct))
	for i, phrase := range distinct {
		if labels[i] == "" {
			diag.ServiceUnavailable++
			continue
		}
		byPhrase[phrase] = labels[i]
	}
	for _, kp := range summary.Keyphrases {
		switch byPhrase[kp.Phrase] {
		case models.LabelNegative:
			summary.Complaints.Inc(kp.Phrase)
		case models.LabelPositive:
			summary.Praise.Inc(kp.Phrase)
		case models.LabelNeutral:
			summary.Neutral.Inc(kp.Phrase)
		}
	}
	return summary, diag, nil
}

// scorePhrases labels each phrase; a phrase whose scoring failed gets an
// empty label. Only cancellation is returned as an error.
func (s *Summarizer) scorePhrases(ctx context.Context, phrases []string) ([]models.Label, error) {
	labels := make([]models.Label, len(phrases))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for i, phrase := range phrases {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			_, label, err := extractors.Analyze(gctx, s.scorer, phrase)
			if err != nil {
				s.logger.Debug("phrase scoring failed", slog.String("phrase", phrase), slog.Any("error", err))
				return nil
			}
			labels[i] = label
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return labels, nil
}
