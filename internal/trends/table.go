// Package trends reduces timestamped topic assignments into weekly and monthly
// bucket tables, detects week-over-week complaint spikes and ranks leaderboards.
package trends

import (
	"cmp"
	"slices"
	"time"

	"github.com/miradorstack/review-intel/internal/models"
	"github.com/miradorstack/review-intel/internal/utils"
)

// Event is one topic assignment of a review with a known authored time.
type Event struct {
	ReviewID string
	At       time.Time
	TopicID  string
	Label    models.Label
	Score    float64
}

type scoreSum struct {
	sum float64
	n   int
}

// Table holds the weekly and monthly bucket counts of a set of reviews plus
// the number of reviews left out for lack of a usable timestamp. Tables are
// built once and combined with Merge; they are not mutated afterwards.
type Table struct {
	weekly      map[models.BucketKey]int
	monthly     map[models.BucketKey]int
	weekScores  map[string]scoreSum
	monthScores map[string]scoreSum
	skipped     int
}

func newTable() *Table {
	return &Table{
		weekly:      make(map[models.BucketKey]int),
		monthly:     make(map[models.BucketKey]int),
		weekScores:  make(map[string]scoreSum),
		monthScores: make(map[string]scoreSum),
	}
}

// Aggregate counts events per (window, topic, label) for both granularities.
// Window keys are taken from the UTC time. Events without a time are counted
// as skipped along with the skipped reviews reported by the caller.
func Aggregate(events []Event, skipped int) *Table {
	t := newTable()
	t.skipped = skipped
	for _, ev := range events {
		if ev.At.IsZero() {
			t.skipped++
			continue
		}
		at := ev.At.UTC()
		week, month := utils.WeekKey(at), utils.MonthKey(at)
		t.weekly[models.BucketKey{Window: week, TopicID: ev.TopicID, Label: ev.Label}]++
		t.monthly[models.BucketKey{Window: month, TopicID: ev.TopicID, Label: ev.Label}]++
		addScore(t.weekScores, week, scoreSum{sum: ev.Score, n: 1})
		addScore(t.monthScores, month, scoreSum{sum: ev.Score, n: 1})
	}
	return t
}

// Merge returns a new table with the counts of a and b summed. It is
// associative and commutative, and either side may be nil.
func Merge(a, b *Table) *Table {
	out := newTable()
	for _, src := range []*Table{a, b} {
		if src == nil {
			continue
		}
		for k, n := range src.weekly {
			out.weekly[k] += n
		}
		for k, n := range src.monthly {
			out.monthly[k] += n
		}
		for k, s := range src.weekScores {
			addScore(out.weekScores, k, s)
		}
		for k, s := range src.monthScores {
			addScore(out.monthScores, k, s)
		}
		out.skipped += src.skipped
	}
	return out
}

func addScore(m map[string]scoreSum, window string, s scoreSum) {
	cur := m[window]
	cur.sum += s.sum
	cur.n += s.n
	m[window] = cur
}

// Skipped is the number of reviews excluded from every window.
func (t *Table) Skipped() int {
	if t == nil {
		return 0
	}
	return t.skipped
}

// Buckets lists the buckets of one granularity ordered by window, topic and label.
func (t *Table) Buckets(g models.Granularity) []models.TrendBucket {
	if t == nil {
		return nil
	}
	src := t.weekly
	if g == models.GranularityMonth {
		src = t.monthly
	}
	out := make([]models.TrendBucket, 0, len(src))
	for k, n := range src {
		out = append(out, models.TrendBucket{
			Granularity: g,
			Window:      k.Window,
			TopicID:     k.TopicID,
			Label:       k.Label,
			Count:       n,
		})
	}
	slices.SortFunc(out, compareBuckets)
	return out
}

// Count returns the count of one bucket, zero when absent.
func (t *Table) Count(g models.Granularity, key models.BucketKey) int {
	if t == nil {
		return 0
	}
	if g == models.GranularityMonth {
		return t.monthly[key]
	}
	return t.weekly[key]
}

// MeanScores returns the mean raw polarity of each window, ordered by window.
func (t *Table) MeanScores(g models.Granularity) []models.WindowScore {
	if t == nil {
		return nil
	}
	src := t.weekScores
	if g == models.GranularityMonth {
		src = t.monthScores
	}
	out := make([]models.WindowScore, 0, len(src))
	for window, s := range src {
		if s.n == 0 {
			continue
		}
		out = append(out, models.WindowScore{
			Granularity: g,
			Window:      window,
			Mean:        s.sum / float64(s.n),
			Count:       s.n,
		})
	}
	slices.SortFunc(out, func(a, b models.WindowScore) int {
		return cmp.Compare(a.Window, b.Window)
	})
	return out
}

func compareBuckets(a, b models.TrendBucket) int {
	return cmp.Or(
		cmp.Compare(a.Window, b.Window),
		cmp.Compare(a.TopicID, b.TopicID),
		cmp.Compare(labelRank(a.Label), labelRank(b.Label)),
	)
}

func labelRank(l models.Label) int {
	if i := slices.Index(models.Labels, l); i >= 0 {
		return i
	}
	return len(models.Labels)
}
