package utils

import (
	"slices"
	"sync"
	"time"
)

// LatencyTracker keeps the most recent call durations in a ring and reports
// percentiles over them.
type LatencyTracker struct {
	mu      sync.Mutex
	samples []time.Duration
	next    int
	full    bool
	total   int
}

// LatencySnapshot summarises the retained samples.
type LatencySnapshot struct {
	Count int           `json:"count"`
	P50   time.Duration `json:"p50"`
	P95   time.Duration `json:"p95"`
	Max   time.Duration `json:"max"`
}

// NewLatencyTracker creates a tracker retaining up to size samples.
func NewLatencyTracker(size int) *LatencyTracker {
	if size <= 0 {
		size = 512
	}
	return &LatencyTracker{samples: make([]time.Duration, size)}
}

// Observe records a duration, overwriting the oldest sample once full.
func (l *LatencyTracker) Observe(d time.Duration) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	l.samples[l.next] = d
	l.next = (l.next + 1) % len(l.samples)
	if l.next == 0 {
		l.full = true
	}
	l.total++
}

// Percentile returns the p-th percentile (0-100) of retained samples, zero when empty.
func (l *LatencyTracker) Percentile(p float64) time.Duration {
	sorted := l.sorted()
	return percentile(sorted, p)
}

// Count returns the number of samples ever observed.
func (l *LatencyTracker) Count() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.total
}

// Snapshot returns count, median, p95 and max in one pass.
func (l *LatencyTracker) Snapshot() LatencySnapshot {
	sorted := l.sorted()
	snap := LatencySnapshot{Count: l.Count()}
	if len(sorted) == 0 {
		return snap
	}
	snap.P50 = percentile(sorted, 50)
	snap.P95 = percentile(sorted, 95)
	snap.Max = sorted[len(sorted)-1]
	return snap
}

func (l *LatencyTracker) sorted() []time.Duration {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	n := l.next
	if l.full {
		n = len(l.samples)
	}
	out := append([]time.Duration(nil), l.samples[:n]...)
	l.mu.Unlock()

	slices.Sort(out)
	return out
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	switch {
	case p <= 0:
		return sorted[0]
	case p >= 100:
		return sorted[len(sorted)-1]
	}
	idx := int((p / 100.0) * float64(len(sorted)-1))
	return sorted[idx]
}
