package models

import (
	"encoding/json"
	"testing"
)

func TestLabelFromScoreBoundaries(t *testing.T) {
	tests := []struct {
		score float64
		want  Label
	}{
		{score: 0.05, want: LabelNeutral},
		{score: 0.0500001, want: LabelPositive},
		{score: -0.05, want: LabelNeutral},
		{score: -0.0500001, want: LabelNegative},
		{score: 0, want: LabelNeutral},
		{score: 1, want: LabelPositive},
		{score: -1, want: LabelNegative},
	}
	for _, tt := range tests {
		if got := LabelFromScore(tt.score); got != tt.want {
			t.Fatalf("score %v: got %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestLabelUnmarshalRejectsUnknown(t *testing.T) {
	var l Label
	if err := json.Unmarshal([]byte(`"mixed"`), &l); err == nil {
		t.Fatalf("expected error for unknown label")
	}
	if err := json.Unmarshal([]byte(`"negative"`), &l); err != nil || l != LabelNegative {
		t.Fatalf("unexpected result %q, %v", l, err)
	}
}

func TestTopicVotes(t *testing.T) {
	var v TopicVotes
	v.Add(LabelPositive, 0.6)
	if v.Conflicting() {
		t.Fatalf("single vote cannot conflict")
	}
	v.Add(LabelNegative, -0.4)
	if !v.Conflicting() || v.Total() != 2 {
		t.Fatalf("unexpected votes %+v", v)
	}

	summary := ReviewSummary{
		ReviewID: "r1",
		Topics:   map[string]Label{"food": LabelPositive, "service": LabelNegative},
		Votes:    map[string]TopicVotes{"food": v},
	}
	got := summary.Assignments([]string{"service", "food", "pricing"})
	if len(got) != 2 || got[0].TopicID != "service" || got[1].TopicID != "food" {
		t.Fatalf("unexpected assignment order %+v", got)
	}
	if got[1].Score < 0.099 || got[1].Score > 0.101 {
		t.Fatalf("expected mean vote score 0.1, got %v", got[1].Score)
	}
}
