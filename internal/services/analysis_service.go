// Package services implements the gRPC facade over the analysis pipeline.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/miradorstack/review-intel/internal/api"
	"github.com/miradorstack/review-intel/internal/engine"
	"github.com/miradorstack/review-intel/internal/models"
	"github.com/miradorstack/review-intel/internal/repo"
	"github.com/miradorstack/review-intel/internal/utils"
)

// Analyzer runs one analysis batch.
type Analyzer interface {
	Run(ctx context.Context, req models.AnalysisRequest) (engine.Report, error)
}

// AnalysisService implements api.ReviewIntelligenceServer and the batch mode
// of the command line.
type AnalysisService struct {
	logger    *slog.Logger
	pipeline  Analyzer
	latencies *utils.LatencyTracker
}

var _ api.ReviewIntelligenceServer = (*AnalysisService)(nil)

// NewAnalysisService constructs the service facade.
func NewAnalysisService(logger *slog.Logger, pipeline Analyzer) *AnalysisService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalysisService{
		logger:    logger,
		pipeline:  pipeline,
		latencies: utils.NewLatencyTracker(1024),
	}
}

// Analyze runs the pipeline over the reviews carried in the request.
func (s *AnalysisService) Analyze(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request cannot be nil")
	}
	if s.pipeline == nil {
		return nil, status.Error(codes.FailedPrecondition, "pipeline not configured")
	}

	domainReq, err := api.FromProtoAnalysisRequest(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	s.logger.Debug("Analyze called", slog.String("business_id", domainReq.BusinessID), slog.Int("reviews", len(domainReq.Reviews)))

	report, err := s.run(ctx, domainReq)
	if err != nil {
		return nil, toStatus(err)
	}
	out, err := api.ToProtoReport(report)
	if err != nil {
		s.logger.Error("report conversion failed", slog.Any("error", err))
		return nil, status.Error(codes.Internal, "failed to encode report")
	}
	return out, nil
}

// AnalyzeSource loads every review of src and analyses them as one batch.
func (s *AnalysisService) AnalyzeSource(ctx context.Context, src repo.ReviewSource, businessID string, reference time.Time) (engine.Report, error) {
	if s.pipeline == nil {
		return engine.Report{}, utils.ConfigError("services.AnalyzeSource", "pipeline not configured", nil)
	}
	reviews, err := src.Reviews(ctx)
	if err != nil {
		return engine.Report{}, fmt.Errorf("load reviews: %w", err)
	}
	s.logger.Info("reviews loaded", slog.Int("reviews", len(reviews)), slog.String("business_id", businessID))
	return s.run(ctx, models.AnalysisRequest{BusinessID: businessID, Reviews: reviews, ReferenceTime: reference})
}

func (s *AnalysisService) run(ctx context.Context, req models.AnalysisRequest) (engine.Report, error) {
	start := time.Now()
	report, err := s.pipeline.Run(ctx, req)
	if err != nil {
		s.logger.Error("analysis failed", slog.String("business_id", req.BusinessID), slog.Any("error", err))
		return engine.Report{}, err
	}
	s.latencies.Observe(time.Since(start))
	if count := s.latencies.Count(); count >= 20 && count%20 == 0 {
		snap := s.latencies.Snapshot()
		s.logger.Info("analysis latency",
			slog.Duration("p50", snap.P50),
			slog.Duration("p95", snap.P95),
			slog.Duration("max", snap.Max),
			slog.Int("samples", snap.Count))
	}
	return report, nil
}

// Latency returns the latency summary of completed analyses.
func (s *AnalysisService) Latency() utils.LatencySnapshot {
	return s.latencies.Snapshot()
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, utils.ErrConfiguration):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "analysis cancelled")
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "analysis deadline exceeded")
	default:
		return status.Error(codes.Internal, fmt.Sprintf("analysis failed: %v", err))
	}
}
