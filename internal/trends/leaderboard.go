package trends

import (
	"slices"

	"github.com/miradorstack/review-intel/internal/models"
)

// Leaderboard ranks monthly topic buckets by how often they were praised or
// complained about.
type Leaderboard struct {
	Praise     []models.TrendBucket `json:"praise"`
	Complaints []models.TrendBucket `json:"complaints"`
}

// Leaderboards filters the monthly buckets by label and sorts each list by
// count descending; ties keep window then topic order.
func Leaderboards(monthly []models.TrendBucket) Leaderboard {
	var board Leaderboard
	for _, b := range monthly {
		if b.Granularity != models.GranularityMonth {
			continue
		}
		switch b.Label {
		case models.LabelPositive:
			board.Praise = append(board.Praise, b)
		case models.LabelNegative:
			board.Complaints = append(board.Complaints, b)
		}
	}
	rank := func(list []models.TrendBucket) {
		slices.SortFunc(list, compareBuckets)
		slices.SortStableFunc(list, func(a, b models.TrendBucket) int {
			return b.Count - a.Count
		})
	}
	rank(board.Praise)
	rank(board.Complaints)
	return board
}
