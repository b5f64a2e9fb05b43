package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// ReviewRecord is a single customer review as supplied by the ingesting caller.
type ReviewRecord struct {
	ID         string    `json:"id"`
	BusinessID string    `json:"business_id,omitempty"`
	Text       string    `json:"text"`
	Rating     float64   `json:"rating,omitempty"`
	Platform   string    `json:"platform,omitempty"`
	RawDate    string    `json:"review_date,omitempty"`
	AuthoredAt time.Time `json:"-"`
}

// HasTimestamp reports whether the review carries a parsed authored time.
func (r ReviewRecord) HasTimestamp() bool {
	return !r.AuthoredAt.IsZero()
}

// OpinionFragment is one independently scored clause of a review.
type OpinionFragment struct {
	ReviewID string `json:"review_id"`
	Ordinal  int    `json:"ordinal"`
	Text     string `json:"text"`
	Start    int    `json:"start"`
	End      int    `json:"end"`
}

// Label is the categorical sentiment of a span.
type Label string

const (
	LabelPositive Label = "positive"
	LabelNegative Label = "negative"
	LabelNeutral  Label = "neutral"
)

// Labels lists every valid label in a stable order.
var Labels = []Label{LabelPositive, LabelNegative, LabelNeutral}

const (
	// PositiveThreshold is the exclusive lower bound of the positive band.
	PositiveThreshold = 0.05
	// NegativeThreshold is the exclusive upper bound of the negative band.
	NegativeThreshold = -0.05
)

// LabelFromScore derives the label from a compound polarity.
func LabelFromScore(score float64) Label {
	switch {
	case score > PositiveThreshold:
		return LabelPositive
	case score < NegativeThreshold:
		return LabelNegative
	default:
		return LabelNeutral
	}
}

// Valid reports whether l is one of the three known labels.
func (l Label) Valid() bool {
	switch l {
	case LabelPositive, LabelNegative, LabelNeutral:
		return true
	}
	return false
}

// UnmarshalJSON rejects unknown labels.
func (l *Label) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v := Label(s)
	if !v.Valid() {
		return fmt.Errorf("unknown sentiment label %q", s)
	}
	*l = v
	return nil
}

// AspectSentiment pairs a fragment's aspect with its sentiment.
// Aspect is nil when extraction found nothing.
type AspectSentiment struct {
	Fragment OpinionFragment `json:"fragment"`
	Aspect   *string         `json:"aspect"`
	Label    Label           `json:"label"`
	Score    float64         `json:"score"`
}

// TopicAssignment is a review-level topic/sentiment pair.
type TopicAssignment struct {
	ReviewID string  `json:"review_id"`
	TopicID  string  `json:"topic_id"`
	Label    Label   `json:"label"`
	Score    float64 `json:"score"`
}

// TopicVotes counts fragment labels observed for one topic within a review.
type TopicVotes struct {
	Positive int     `json:"positive"`
	Negative int     `json:"negative"`
	Neutral  int     `json:"neutral"`
	ScoreSum float64 `json:"score_sum"`
}

// Add records a single fragment vote.
func (v *TopicVotes) Add(label Label, score float64) {
	switch label {
	case LabelPositive:
		v.Positive++
	case LabelNegative:
		v.Negative++
	default:
		v.Neutral++
	}
	v.ScoreSum += score
}

// Total is the number of votes recorded.
func (v TopicVotes) Total() int {
	return v.Positive + v.Negative + v.Neutral
}

// Conflicting reports whether more than one label was voted.
func (v TopicVotes) Conflicting() bool {
	kinds := 0
	for _, n := range []int{v.Positive, v.Negative, v.Neutral} {
		if n > 0 {
			kinds++
		}
	}
	return kinds > 1
}

// ReviewSummary is the per-review topic to sentiment map.
type ReviewSummary struct {
	ReviewID   string                `json:"review_id"`
	Topics     map[string]Label      `json:"topics"`
	Votes      map[string]TopicVotes `json:"votes,omitempty"`
	Aspects    []AspectSentiment     `json:"aspects,omitempty"`
	Score      float64               `json:"score"`
	Label      Label                 `json:"label,omitempty"`
	AuthoredAt time.Time             `json:"authored_at,omitempty"`
	Timestamp  bool                  `json:"has_timestamp"`
}

// Assignments flattens the summary into topic assignments ordered by topic order.
func (s ReviewSummary) Assignments(order []string) []TopicAssignment {
	out := make([]TopicAssignment, 0, len(s.Topics))
	for _, topic := range order {
		label, ok := s.Topics[topic]
		if !ok {
			continue
		}
		var score float64
		if votes, ok := s.Votes[topic]; ok && votes.Total() > 0 {
			score = votes.ScoreSum / float64(votes.Total())
		}
		out = append(out, TopicAssignment{ReviewID: s.ReviewID, TopicID: topic, Label: label, Score: score})
	}
	return out
}
