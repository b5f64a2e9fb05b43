package models

// Diagnostics tallies per-item failures that were isolated instead of aborting a run.
type Diagnostics struct {
	Reviews            int `json:"reviews"`
	Fragments          int `json:"fragments"`
	EmptyReviews       int `json:"empty_reviews"`
	ExtractionMisses   int `json:"extraction_misses"`
	UnmappedTopics     int `json:"unmapped_topics"`
	MalformedTimestamp int `json:"malformed_timestamps"`
	ServiceUnavailable int `json:"service_unavailable"`
	ConflictingTopics  int `json:"conflicting_topics"`
}

// Merge adds the counters of other into d.
func (d *Diagnostics) Merge(other Diagnostics) {
	d.Reviews += other.Reviews
	d.Fragments += other.Fragments
	d.EmptyReviews += other.EmptyReviews
	d.ExtractionMisses += other.ExtractionMisses
	d.UnmappedTopics += other.UnmappedTopics
	d.MalformedTimestamp += other.MalformedTimestamp
	d.ServiceUnavailable += other.ServiceUnavailable
	d.ConflictingTopics += other.ConflictingTopics
}
