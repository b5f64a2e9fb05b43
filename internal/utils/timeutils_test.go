package utils

import (
	"errors"
	"testing"
	"time"
)

func TestParseReviewTime(t *testing.T) {
	ref := time.Date(2024, time.March, 20, 15, 30, 0, 0, time.UTC)
	day := time.Date(2024, time.March, 20, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{name: "rfc3339", input: "2024-02-01T10:00:00Z", want: time.Date(2024, time.February, 1, 10, 0, 0, 0, time.UTC)},
		{name: "date only", input: "2024-02-01", want: time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)},
		{name: "sql timestamp", input: "2024-02-01 08:15:00", want: time.Date(2024, time.February, 1, 8, 15, 0, 0, time.UTC)},
		{name: "weeks ago", input: "3 weeks ago", want: day.AddDate(0, 0, -21)},
		{name: "a month ago", input: "a month ago", want: day.AddDate(0, 0, -30)},
		{name: "days ago", input: "2 days ago", want: day.AddDate(0, 0, -2)},
		{name: "hours ago", input: "5 hours ago", want: day},
		{name: "year ago", input: "1 year ago", want: day.AddDate(0, 0, -365)},
		{name: "yesterday", input: "Yesterday", want: day.AddDate(0, 0, -1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseReviewTime(tt.input, ref)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseReviewTimeMalformed(t *testing.T) {
	for _, input := range []string{"", "not-a-date", "soon", "2024-13-45"} {
		_, err := ParseReviewTime(input, time.Now())
		if !errors.Is(err, ErrMalformedTimestamp) {
			t.Fatalf("%q: expected ErrMalformedTimestamp, got %v", input, err)
		}
	}
}

func TestWindowKeys(t *testing.T) {
	// 2021-01-03 is a Sunday that still belongs to ISO week 53 of 2020.
	ts := time.Date(2021, time.January, 3, 12, 0, 0, 0, time.UTC)
	if got := WeekKey(ts); got != "2020-W53" {
		t.Fatalf("week key: got %s", got)
	}
	if got := MonthKey(ts); got != "2021-01" {
		t.Fatalf("month key: got %s", got)
	}

	prev, err := PreviousWeekKey("2021-W01")
	if err != nil {
		t.Fatalf("previous week: %v", err)
	}
	if prev != "2020-W53" {
		t.Fatalf("expected 2020-W53, got %s", prev)
	}

	start, err := WeekStart("2024-W07")
	if err != nil {
		t.Fatalf("week start: %v", err)
	}
	if start.Weekday() != time.Monday || WeekKey(start) != "2024-W07" {
		t.Fatalf("unexpected week start %v", start)
	}
}
