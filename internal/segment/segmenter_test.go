package segment

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func texts(reviewID, text string) []string {
	var out []string
	for frag := range Segment(reviewID, text) {
		out = append(out, frag.Text)
	}
	return out
}

func TestSegmentExamples(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "conjunction inside one opinion",
			text: "The food was absolutely delicious and full of flavor.",
			want: []string{"the food was absolutely delicious and full of flavor"},
		},
		{
			name: "contrastive marker",
			text: "The food was great but the prices were too high.",
			want: []string{"the food was great", "the prices were too high"},
		},
		{
			name: "clause opening and",
			text: "Loved the pasta and the staff were friendly",
			want: []string{"loved the pasta", "the staff were friendly"},
		},
		{
			name: "punctuation and mixed case markers",
			text: "Great coffee, slow service. HOWEVER the cake was fine!",
			want: []string{"great coffee", "slow service", "the cake was fine"},
		},
		{
			name: "short fragments dropped",
			text: "ok, but the wait was long",
			want: []string{"the wait was long"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := texts("r1", tt.text)
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSegmentNoMarkersYieldsTrimmedText(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
		span string
	}{
		{name: "lowercase", text: "   friendly staff   ", want: "friendly staff", span: "friendly staff"},
		// Fragment text is lowercased; the offsets still cover the original casing.
		{name: "mixed case", text: "  Friendly Staff\t", want: "friendly staff", span: "Friendly Staff"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Fragments("r1", tt.text)
			if len(got) != 1 {
				t.Fatalf("expected one fragment, got %d", len(got))
			}
			if got[0].Text != tt.want || got[0].Ordinal != 0 {
				t.Fatalf("unexpected fragment %+v", got[0])
			}
			if span := tt.text[got[0].Start:got[0].End]; span != tt.span {
				t.Fatalf("offsets cover %q, want %q", span, tt.span)
			}
		})
	}
}

func TestSegmentInvariants(t *testing.T) {
	text := "Nice. But, the soup; and it was cold, yet cheap although a bit salty"
	frags := Fragments("r9", text)
	if len(frags) == 0 {
		t.Fatalf("expected fragments")
	}
	lastEnd := -1
	for i, frag := range frags {
		if frag.Ordinal != i {
			t.Fatalf("ordinal %d at position %d", frag.Ordinal, i)
		}
		if frag.ReviewID != "r9" {
			t.Fatalf("unexpected review id %q", frag.ReviewID)
		}
		if utf8.RuneCountInString(frag.Text) < MinFragmentLength {
			t.Fatalf("fragment %q too short", frag.Text)
		}
		if frag.Start < lastEnd || frag.End <= frag.Start {
			t.Fatalf("fragment %d overlaps or is out of order: %+v", i, frag)
		}
		if strings.ToLower(text[frag.Start:frag.End]) != frag.Text {
			t.Fatalf("offsets do not match text: %+v", frag)
		}
		lastEnd = frag.End
	}
}

func TestSegmentEmptyAndNoise(t *testing.T) {
	for _, text := range []string{"", "   ", "ok.", "a, b, c but yes"} {
		if got := Fragments("r1", text); len(got) != 0 {
			t.Fatalf("%q: expected no fragments, got %+v", text, got)
		}
	}
}

func TestSegmentStopsEarly(t *testing.T) {
	count := 0
	for range Segment("r1", "first part, second part, third part") {
		count++
		break
	}
	if count != 1 {
		t.Fatalf("expected iteration to stop after one fragment")
	}
}
