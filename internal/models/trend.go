package models

// Granularity is the calendar window size of a trend bucket.
type Granularity string

const (
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
)

// TrendBucket counts topic/sentiment events within one calendar window.
type TrendBucket struct {
	Granularity Granularity `json:"granularity"`
	Window      string      `json:"window"`
	TopicID     string      `json:"topic_id"`
	Label       Label       `json:"label"`
	Count       int         `json:"count"`
}

// BucketKey identifies a bucket independent of its count.
type BucketKey struct {
	Window  string
	TopicID string
	Label   Label
}

// Key returns the identity of the bucket.
func (b TrendBucket) Key() BucketKey {
	return BucketKey{Window: b.Window, TopicID: b.TopicID, Label: b.Label}
}

// SpikeEvent reports a week-over-week change in negative mentions of a topic.
// Previous is nil for the first observed week of a topic.
type SpikeEvent struct {
	TopicID  string `json:"topic_id"`
	Window   string `json:"window"`
	Previous *int   `json:"previous"`
	Current  int    `json:"current"`
	Delta    int    `json:"delta"`
	Flagged  bool   `json:"flagged"`
}

// WindowScore is the mean raw polarity of the assignments in one window.
type WindowScore struct {
	Granularity Granularity `json:"granularity"`
	Window      string      `json:"window"`
	Mean        float64     `json:"mean"`
	Count       int         `json:"count"`
}
