package trends

import (
	"context"
	"log/slog"

	"github.com/miradorstack/review-intel/internal/metrics"
	"github.com/miradorstack/review-intel/internal/models"
)

// Sink receives the flagged spikes of a run.
type Sink interface {
	PublishSpikes(ctx context.Context, businessID string, spikes []models.SpikeEvent) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, businessID string, spikes []models.SpikeEvent) error

// PublishSpikes implements Sink.
func (f SinkFunc) PublishSpikes(ctx context.Context, businessID string, spikes []models.SpikeEvent) error {
	return f(ctx, businessID, spikes)
}

// Detector runs spike detection over a table and forwards flagged spikes.
type Detector struct {
	cfg    SpikeConfig
	sink   Sink
	logger *slog.Logger
}

// NewDetector constructs a Detector; sink may be nil when nothing consumes spikes.
func NewDetector(logger *slog.Logger, sink Sink, cfg SpikeConfig) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{cfg: cfg, sink: sink, logger: logger}
}

// Detect returns every evaluated spike event of the table's weekly buckets.
// A failing sink is logged and does not fail the run.
func (d *Detector) Detect(ctx context.Context, businessID string, table *Table) []models.SpikeEvent {
	events := DetectSpikes(table.Buckets(models.GranularityWeek), d.cfg)
	flagged := Flagged(events)
	metrics.ObserveSpikes(len(flagged))

	if d.sink != nil && len(flagged) > 0 {
		if err := d.sink.PublishSpikes(ctx, businessID, flagged); err != nil {
			d.logger.Warn("spike publish failed",
				slog.String("business_id", businessID),
				slog.Int("spikes", len(flagged)),
				slog.Any("error", err))
		}
	}
	return events
}
