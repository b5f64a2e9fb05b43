package utils

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006/01/02",
}

var relativePattern = regexp.MustCompile(`^(\d+|a|an|one)\s+(minute|hour|day|week|month|year)s?\s+ago$`)

// ParseReviewTime parses absolute dates in the common layouts and relative
// phrases ("3 weeks ago", "a month ago") against ref. Months count as 30 days
// and years as 365. Failures wrap ErrMalformedTimestamp.
func ParseReviewTime(value string, ref time.Time) (time.Time, error) {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", ErrMalformedTimestamp)
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}

	lower := strings.ToLower(raw)
	switch lower {
	case "today", "just now":
		return truncateDay(ref), nil
	case "yesterday":
		return truncateDay(ref).AddDate(0, 0, -1), nil
	}

	m := relativePattern.FindStringSubmatch(lower)
	if m == nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedTimestamp, value)
	}
	n := 1
	if v, err := strconv.Atoi(m[1]); err == nil {
		n = v
	}
	day := truncateDay(ref)
	switch m[2] {
	case "minute", "hour":
		return day, nil
	case "day":
		return day.AddDate(0, 0, -n), nil
	case "week":
		return day.AddDate(0, 0, -7*n), nil
	case "month":
		return day.AddDate(0, 0, -30*n), nil
	default:
		return day.AddDate(0, 0, -365*n), nil
	}
}

// WeekKey returns the ISO week window key, e.g. "2024-W07".
func WeekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

// MonthKey returns the calendar month window key, e.g. "2024-02".
func MonthKey(t time.Time) string {
	return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
}

// WeekStart returns the Monday 00:00 UTC of an ISO week key.
func WeekStart(key string) (time.Time, error) {
	var year, week int
	if _, err := fmt.Sscanf(key, "%d-W%d", &year, &week); err != nil {
		return time.Time{}, fmt.Errorf("parse week key %q: %w", key, err)
	}
	// January 4th is always in ISO week 1.
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	offset := (int(jan4.Weekday()) + 6) % 7
	monday := jan4.AddDate(0, 0, -offset)
	return monday.AddDate(0, 0, 7*(week-1)), nil
}

// PreviousWeekKey returns the key of the ISO week before key.
func PreviousWeekKey(key string) (string, error) {
	start, err := WeekStart(key)
	if err != nil {
		return "", err
	}
	return WeekKey(start.AddDate(0, 0, -7)), nil
}

func truncateDay(t time.Time) time.Time {
	if t.IsZero() {
		t = time.Now()
	}
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
