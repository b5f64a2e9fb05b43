package engine

import (
	"context"
	"strings"
	"testing"

	"github.com/miradorstack/review-intel/internal/extractors"
	"github.com/miradorstack/review-intel/internal/models"
	"github.com/miradorstack/review-intel/internal/topics"
	"github.com/miradorstack/review-intel/internal/utils"
)

// keywordExtractor returns the first token of the fragment it knows as an aspect.
type keywordExtractor struct {
	aspects map[string]struct{}
}

func newKeywordExtractor(words ...string) keywordExtractor {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return keywordExtractor{aspects: set}
}

func (k keywordExtractor) Name() string { return "keyword" }

func (k keywordExtractor) Extract(_ context.Context, text string) (extractors.Aspect, error) {
	if strings.Contains(text, "boom") {
		return extractors.Aspect{}, utils.Unavailable("rank", context.DeadlineExceeded)
	}
	for _, tok := range extractors.Tokens(text) {
		if _, ok := k.aspects[tok]; ok {
			return extractors.Aspect{Keyword: tok, Relevance: 0.9, Found: true}, nil
		}
	}
	return extractors.Aspect{}, nil
}

// wordScorer sums +0.5 per praise word and -0.5 per complaint word.
type wordScorer struct{}

var (
	praiseWords    = []string{"great", "delicious", "friendly", "loved"}
	complaintWords = []string{"too high", "slow", "cold", "bad", "rude"}
)

func (wordScorer) Score(_ context.Context, text string) (float64, error) {
	text = strings.ToLower(text)
	score := 0.0
	for _, w := range praiseWords {
		if strings.Contains(text, w) {
			score += 0.5
		}
	}
	for _, w := range complaintWords {
		if strings.Contains(text, w) {
			score -= 0.5
		}
	}
	return score, nil
}

// tokenRanker ranks the non-stop-word tokens of text by position.
type tokenRanker struct{}

func (tokenRanker) Rank(_ context.Context, text string, _ int, topN int) ([]models.Phrase, error) {
	var out []models.Phrase
	seen := make(map[string]struct{})
	for _, tok := range extractors.Tokens(text) {
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, models.Phrase{Text: tok, Relevance: 1 / float64(len(out)+1)})
	}
	if topN > 0 && len(out) > topN {
		out = out[:topN]
	}
	return out, nil
}

// containsClassifier ranks the first label found in text highest.
type containsClassifier struct{}

func (containsClassifier) Classify(_ context.Context, text string, labels []string) ([]models.RankedLabel, error) {
	var out []models.RankedLabel
	for _, label := range labels {
		score := 0.0
		if strings.Contains(strings.ToLower(text), label) {
			score = 0.9
		}
		out = append(out, models.RankedLabel{Label: label, Score: score})
	}
	return out, nil
}

func testDictionary(t *testing.T) *topics.Dictionary {
	t.Helper()
	dict, err := topics.New([]topics.Topic{
		{ID: "food", Synonyms: []string{"food", "pasta", "meal"}},
		{ID: "pricing", Synonyms: []string{"prices", "price"}},
		{ID: "service", Synonyms: []string{"service", "waiter"}},
	})
	if err != nil {
		t.Fatalf("dictionary: %v", err)
	}
	return dict
}

func testSummarizer(t *testing.T, cfg SummarizerConfig) *Summarizer {
	t.Helper()
	s, err := NewSummarizer(nil, testDictionary(t),
		newKeywordExtractor("food", "pasta", "prices", "service", "waiter", "coffee"),
		wordScorer{}, tokenRanker{}, containsClassifier{}, cfg)
	if err != nil {
		t.Fatalf("summarizer: %v", err)
	}
	return s
}
