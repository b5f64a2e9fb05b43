package engine

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/miradorstack/review-intel/internal/metrics"
	"github.com/miradorstack/review-intel/internal/models"
	"github.com/miradorstack/review-intel/internal/trends"
	"github.com/miradorstack/review-intel/internal/utils"
)

var runNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("review-intel/runs"))

// Report is the full output of one analysis run.
type Report struct {
	RunID         string                 `json:"run_id"`
	BusinessID    string                 `json:"business_id,omitempty"`
	GeneratedAt   time.Time              `json:"generated_at"`
	Summaries     []models.ReviewSummary `json:"summaries"`
	Corpus        CorpusSummary          `json:"corpus"`
	Weekly        []models.TrendBucket   `json:"weekly"`
	Monthly       []models.TrendBucket   `json:"monthly"`
	WeeklyScores  []models.WindowScore   `json:"weekly_scores"`
	MonthlyScores []models.WindowScore   `json:"monthly_scores"`
	Spikes        []models.SpikeEvent    `json:"spikes"`
	Leaderboard   trends.Leaderboard     `json:"leaderboard"`
	Diagnostics   models.Diagnostics     `json:"diagnostics"`
}

// Pipeline fans reviews out to the summarizer and reduces the results into
// corpus tallies, trend tables and spikes.
type Pipeline struct {
	logger     *slog.Logger
	summarizer *Summarizer
	detector   *trends.Detector
	workers    int
	now        func() time.Time
}

// NewPipeline constructs a pipeline running up to workers reviews at once.
func NewPipeline(logger *slog.Logger, summarizer *Summarizer, detector *trends.Detector, workers int) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if detector == nil {
		detector = trends.NewDetector(logger, nil, trends.SpikeConfig{})
	}
	if workers <= 0 {
		workers = 1
	}
	return &Pipeline{
		logger:     logger,
		summarizer: summarizer,
		detector:   detector,
		workers:    workers,
		now:        time.Now,
	}
}

type reviewOutcome struct {
	summary models.ReviewSummary
	part    corpusPart
	diag    models.Diagnostics
}

// Run analyses one batch. Only cancellation aborts a run; per-review failures
// end up in the report diagnostics. Output does not depend on worker count or
// scheduling.
func (p *Pipeline) Run(ctx context.Context, req models.AnalysisRequest) (Report, error) {
	start := time.Now()
	if p.summarizer == nil {
		return Report{}, utils.ConfigError("engine.Pipeline.Run", "summarizer not configured", nil)
	}

	ref := req.ReferenceTime
	if ref.IsZero() {
		ref = p.now()
	}
	reviews, diag := prepare(req.Reviews, ref)

	outcomes := make([]reviewOutcome, len(reviews))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, review := range reviews {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			summary, d := p.summarizer.SummarizeReview(gctx, review)
			part := p.summarizer.corpusPart(gctx, review, summary.Label)
			outcomes[i] = reviewOutcome{summary: summary, part: part, diag: d}
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		metrics.ObserveAnalysis(time.Since(start), metrics.OutcomeError)
		return Report{}, p.abandoned(err)
	}

	order := p.summarizer.TopicOrder()
	summaries := make([]models.ReviewSummary, len(outcomes))
	parts := make([]corpusPart, len(outcomes))
	var events []trends.Event
	skipped := 0
	for i, out := range outcomes {
		summaries[i] = out.summary
		parts[i] = out.part
		diag.Merge(out.diag)
		if !out.summary.Timestamp {
			skipped++
			continue
		}
		for _, a := range out.summary.Assignments(order) {
			events = append(events, trends.Event{
				ReviewID: a.ReviewID,
				At:       out.summary.AuthoredAt,
				TopicID:  a.TopicID,
				Label:    a.Label,
				Score:    a.Score,
			})
		}
	}

	corpus, corpusDiag, err := p.summarizer.reduceCorpus(ctx, parts)
	if err != nil {
		metrics.ObserveAnalysis(time.Since(start), metrics.OutcomeError)
		return Report{}, p.abandoned(err)
	}
	diag.Merge(corpusDiag)

	table := trends.Aggregate(events, skipped)
	monthly := table.Buckets(models.GranularityMonth)
	report := Report{
		RunID:         runID(req.BusinessID, reviews),
		BusinessID:    req.BusinessID,
		GeneratedAt:   p.now().UTC(),
		Summaries:     summaries,
		Corpus:        corpus,
		Weekly:        table.Buckets(models.GranularityWeek),
		Monthly:       monthly,
		WeeklyScores:  table.MeanScores(models.GranularityWeek),
		MonthlyScores: table.MeanScores(models.GranularityMonth),
		Spikes:        p.detector.Detect(ctx, req.BusinessID, table),
		Leaderboard:   trends.Leaderboards(monthly),
		Diagnostics:   diag,
	}

	metrics.ObserveTimestampSkips(table.Skipped())
	metrics.ObserveAnalysis(time.Since(start), metrics.OutcomeSuccess)
	p.logger.Info("analysis complete",
		slog.String("run_id", report.RunID),
		slog.String("business_id", req.BusinessID),
		slog.Int("reviews", diag.Reviews),
		slog.Int("fragments", diag.Fragments),
		slog.Int("extraction_misses", diag.ExtractionMisses),
		slog.Int("unmapped_topics", diag.UnmappedTopics),
		slog.Int("timestamp_skips", table.Skipped()),
		slog.Int("spikes", len(trends.Flagged(report.Spikes))),
		slog.Duration("elapsed", time.Since(start)))
	return report, nil
}

func (p *Pipeline) abandoned(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		p.logger.Warn("analysis abandoned", slog.Any("error", err))
	}
	return err
}

// prepare fills missing ids and parses timestamps against ref. Reviews whose
// date cannot be parsed keep a zero AuthoredAt and are counted.
func prepare(in []models.ReviewRecord, ref time.Time) ([]models.ReviewRecord, models.Diagnostics) {
	var diag models.Diagnostics
	out := make([]models.ReviewRecord, len(in))
	for i, r := range in {
		if strings.TrimSpace(r.ID) == "" {
			r.ID = models.StableReviewID(r)
		}
		if r.AuthoredAt.IsZero() {
			if at, err := utils.ParseReviewTime(r.RawDate, ref); err != nil {
				diag.MalformedTimestamp++
			} else {
				r.AuthoredAt = at
			}
		}
		out[i] = r
	}
	return out, diag
}

func runID(businessID string, reviews []models.ReviewRecord) string {
	ids := make([]string, 0, len(reviews)+1)
	ids = append(ids, businessID)
	for _, r := range reviews {
		ids = append(ids, r.ID)
	}
	return uuid.NewSHA1(runNamespace, []byte(strings.Join(ids, "\x1f"))).String()
}
