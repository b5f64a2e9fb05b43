package trends

import (
	"cmp"
	"slices"

	"github.com/miradorstack/review-intel/internal/models"
	"github.com/miradorstack/review-intel/internal/utils"
)

// SpikeConfig tunes spike detection.
type SpikeConfig struct {
	// Threshold is the smallest week-over-week increase that is flagged.
	Threshold int
	// ContiguousWeeks compares against the calendar-previous week, counting a
	// week without negative mentions as zero. By default the previous observed
	// week of the topic is used.
	ContiguousWeeks bool
}

func (c SpikeConfig) threshold() int {
	return max(c.Threshold, 1)
}

// DetectSpikes evaluates the negative weekly buckets of each topic in window
// order. A topic's first observed week has no previous count and yields no
// event. Events are ordered by topic then window; non-weekly and non-negative
// buckets are ignored.
func DetectSpikes(weekly []models.TrendBucket, cfg SpikeConfig) []models.SpikeEvent {
	byTopic := make(map[string][]models.TrendBucket)
	for _, b := range weekly {
		if b.Granularity != models.GranularityWeek || b.Label != models.LabelNegative {
			continue
		}
		byTopic[b.TopicID] = append(byTopic[b.TopicID], b)
	}

	topics := make([]string, 0, len(byTopic))
	for topic := range byTopic {
		topics = append(topics, topic)
	}
	slices.Sort(topics)

	threshold := cfg.threshold()
	var events []models.SpikeEvent
	for _, topic := range topics {
		buckets := byTopic[topic]
		slices.SortFunc(buckets, func(a, b models.TrendBucket) int {
			return cmp.Compare(a.Window, b.Window)
		})
		counts := make(map[string]int, len(buckets))
		for _, b := range buckets {
			counts[b.Window] += b.Count
		}
		buckets = slices.CompactFunc(buckets, func(a, b models.TrendBucket) bool {
			return a.Window == b.Window
		})

		for i := 1; i < len(buckets); i++ {
			window := buckets[i].Window
			previous := counts[buckets[i-1].Window]
			if cfg.ContiguousWeeks {
				prevKey, err := utils.PreviousWeekKey(window)
				if err != nil {
					continue
				}
				previous = counts[prevKey]
			}
			current := counts[window]
			delta := current - previous
			events = append(events, models.SpikeEvent{
				TopicID:  topic,
				Window:   window,
				Previous: &previous,
				Current:  current,
				Delta:    delta,
				Flagged:  delta >= threshold,
			})
		}
	}
	return events
}

// Flagged filters events down to the flagged spikes.
func Flagged(events []models.SpikeEvent) []models.SpikeEvent {
	var out []models.SpikeEvent
	for _, ev := range events {
		if ev.Flagged {
			out = append(out, ev)
		}
	}
	return out
}
