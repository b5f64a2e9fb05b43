package utils

import (
	"testing"
	"time"
)

func TestLatencyTrackerSnapshot(t *testing.T) {
	tracker := NewLatencyTracker(10)
	for i := 1; i <= 5; i++ {
		tracker.Observe(time.Duration(i*10) * time.Millisecond)
	}

	snap := tracker.Snapshot()
	if snap.Count != 5 {
		t.Fatalf("expected count 5, got %d", snap.Count)
	}
	if snap.P50 != 30*time.Millisecond {
		t.Fatalf("expected median 30ms, got %v", snap.P50)
	}
	if snap.P95 < 40*time.Millisecond || snap.Max != 50*time.Millisecond {
		t.Fatalf("unexpected tail %+v", snap)
	}
}

func TestLatencyTrackerRingKeepsNewest(t *testing.T) {
	tracker := NewLatencyTracker(3)
	for i := 0; i < 10; i++ {
		tracker.Observe(time.Duration(i) * time.Millisecond)
	}
	if tracker.Count() != 10 {
		t.Fatalf("expected 10 observations, got %d", tracker.Count())
	}
	if got := tracker.Percentile(0); got != 7*time.Millisecond {
		t.Fatalf("expected oldest retained sample 7ms, got %v", got)
	}
	if got := tracker.Percentile(100); got != 9*time.Millisecond {
		t.Fatalf("expected newest sample 9ms, got %v", got)
	}
}

func TestLatencyTrackerNilSafe(t *testing.T) {
	var tracker *LatencyTracker
	tracker.Observe(time.Second)
	if snap := tracker.Snapshot(); snap.Count != 0 || snap.Max != 0 {
		t.Fatalf("expected empty snapshot, got %+v", snap)
	}
}
