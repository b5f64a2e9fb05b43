package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeSuccess labels completed runs and model calls.
	OutcomeSuccess = "success"
	// OutcomeError labels runs aborted by configuration or cancellation.
	OutcomeError = "error"
	// OutcomeRetry labels a model call attempt that failed and was retried.
	OutcomeRetry = "retry"
	// OutcomeExhausted labels a model call that failed every attempt.
	OutcomeExhausted = "exhausted"
)

// Fragment outcomes.
const (
	FragmentAssigned    = "assigned"
	FragmentMiss        = "extraction_miss"
	FragmentUnmapped    = "unmapped"
	FragmentUnavailable = "service_unavailable"
)

var (
	reviewsProcessedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "review_intel",
			Name:      "reviews_processed_total",
			Help:      "Total number of reviews summarized.",
		},
	)

	fragmentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "review_intel",
			Name:      "fragments_total",
			Help:      "Opinion fragments processed, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	modelCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "review_intel",
			Name:      "model_calls_total",
			Help:      "Calls to model backends, partitioned by service and outcome.",
		},
		[]string{"service", "outcome"},
	)

	modelCallSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "review_intel",
			Name:      "model_call_seconds",
			Help:      "Model backend call latency in seconds, retries included.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"service"},
	)

	timestampSkipsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "review_intel",
			Name:      "timestamp_skips_total",
			Help:      "Reviews excluded from trend windows because of a missing or malformed timestamp.",
		},
	)

	spikesFlaggedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "review_intel",
			Name:      "spikes_flagged_total",
			Help:      "Weekly negative-sentiment spikes flagged.",
		},
	)

	analysisDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "review_intel",
			Name:      "analysis_seconds",
			Help:      "Batch analysis latency in seconds.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"outcome"},
	)
)

// Register attaches review-intel collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		reviewsProcessedTotal,
		fragmentsTotal,
		modelCallsTotal,
		modelCallSeconds,
		timestampSkipsTotal,
		spikesFlaggedTotal,
		analysisDurationSeconds,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveReview counts one summarized review.
func ObserveReview() {
	reviewsProcessedTotal.Inc()
}

// ObserveFragment counts one fragment by outcome.
func ObserveFragment(outcome string) {
	fragmentsTotal.WithLabelValues(outcome).Inc()
}

// ObserveModelCall records a finished model call. Failed attempts before the
// last are counted as retries.
func ObserveModelCall(service string, duration time.Duration, attempts int, err error) {
	if attempts > 1 {
		modelCallsTotal.WithLabelValues(service, OutcomeRetry).Add(float64(attempts - 1))
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeExhausted
	}
	modelCallsTotal.WithLabelValues(service, outcome).Inc()
	if duration < 0 {
		duration = 0
	}
	modelCallSeconds.WithLabelValues(service).Observe(duration.Seconds())
}

// ObserveTimestampSkips counts reviews left out of trend windows.
func ObserveTimestampSkips(n int) {
	if n > 0 {
		timestampSkipsTotal.Add(float64(n))
	}
}

// ObserveSpikes counts flagged spikes.
func ObserveSpikes(n int) {
	if n > 0 {
		spikesFlaggedTotal.Add(float64(n))
	}
}

// ObserveAnalysis records a batch duration and outcome label.
func ObserveAnalysis(duration time.Duration, outcome string) {
	label := outcome
	if label != OutcomeError {
		label = OutcomeSuccess
	}
	if duration < 0 {
		duration = 0
	}
	analysisDurationSeconds.WithLabelValues(label).Observe(duration.Seconds())
}
