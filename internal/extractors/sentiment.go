package extractors

import (
	"context"

	"github.com/miradorstack/review-intel/internal/models"
)

// Scorer maps a span to a compound polarity in [-1, 1]. Implementations must
// return the same score for the same text.
type Scorer interface {
	Score(ctx context.Context, text string) (float64, error)
}

// Classify derives the label from a compound score.
func Classify(score float64) models.Label {
	return models.LabelFromScore(score)
}

// Analyze scores text, clamps the score into [-1, 1] and labels it.
func Analyze(ctx context.Context, s Scorer, text string) (float64, models.Label, error) {
	score, err := s.Score(ctx, text)
	if err != nil {
		return 0, "", err
	}
	score = max(-1, min(1, score))
	return score, Classify(score), nil
}
