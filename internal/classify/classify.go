// Package classify ranks a fixed label set against a text (zero-shot classification).
package classify

import (
	"context"
	"sort"

	"github.com/miradorstack/review-intel/internal/models"
)

// Classifier ranks labels by how well they describe text, best first.
type Classifier interface {
	Classify(ctx context.Context, text string, labels []string) ([]models.RankedLabel, error)
}

// Normalise keeps only known labels, fills in missing ones with a zero score
// and orders the result by score descending, ties in label-set order.
func Normalise(ranked []models.RankedLabel, labels []string) []models.RankedLabel {
	scores := make(map[string]float64, len(labels))
	for _, r := range ranked {
		if _, dup := scores[r.Label]; dup {
			continue
		}
		scores[r.Label] = r.Score
	}
	out := make([]models.RankedLabel, 0, len(labels))
	for _, label := range labels {
		out = append(out, models.RankedLabel{Label: label, Score: scores[label]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}
