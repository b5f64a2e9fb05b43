package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/miradorstack/review-intel/internal/engine"
	"github.com/miradorstack/review-intel/internal/models"
	"github.com/miradorstack/review-intel/internal/utils"
)

type stubAnalyzer struct {
	err  error
	last models.AnalysisRequest
}

func (s *stubAnalyzer) Run(_ context.Context, req models.AnalysisRequest) (engine.Report, error) {
	s.last = req
	if s.err != nil {
		return engine.Report{}, s.err
	}
	return engine.Report{RunID: "run-1", BusinessID: req.BusinessID, Diagnostics: models.Diagnostics{Reviews: len(req.Reviews)}}, nil
}

type staticSource []models.ReviewRecord

func (s staticSource) Reviews(context.Context) ([]models.ReviewRecord, error) {
	return s, nil
}

func analyzeRequest(t *testing.T) *structpb.Struct {
	t.Helper()
	req, err := structpb.NewStruct(map[string]any{
		"business_id": "b1",
		"reviews":     []any{map[string]any{"text": "Great food", "review_date": "2024-02-01"}},
	})
	if err != nil {
		t.Fatalf("struct: %v", err)
	}
	return req
}

func TestAnalyze(t *testing.T) {
	stub := &stubAnalyzer{}
	svc := NewAnalysisService(nil, stub)

	resp, err := svc.Analyze(context.Background(), analyzeRequest(t))
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if resp.GetFields()["run_id"].GetStringValue() != "run-1" {
		t.Fatalf("unexpected response %v", resp)
	}
	if stub.last.BusinessID != "b1" || stub.last.Reviews[0].Text != "Great food" {
		t.Fatalf("unexpected request %+v", stub.last)
	}
	if svc.Latency().Count != 1 {
		t.Fatalf("expected one latency sample")
	}
}

func TestAnalyzeStatusCodes(t *testing.T) {
	if _, err := NewAnalysisService(nil, nil).Analyze(context.Background(), analyzeRequest(t)); status.Code(err) != codes.FailedPrecondition {
		t.Fatalf("expected FailedPrecondition without pipeline, got %v", err)
	}
	svc := NewAnalysisService(nil, &stubAnalyzer{})
	if _, err := svc.Analyze(context.Background(), nil); status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument for nil request, got %v", err)
	}
	if _, err := svc.Analyze(context.Background(), &structpb.Struct{}); status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument without reviews, got %v", err)
	}

	tests := []struct {
		err  error
		want codes.Code
	}{
		{utils.ConfigError("engine", "bad", nil), codes.FailedPrecondition},
		{context.Canceled, codes.Canceled},
		{context.DeadlineExceeded, codes.DeadlineExceeded},
		{errors.New("boom"), codes.Internal},
	}
	for _, tt := range tests {
		svc := NewAnalysisService(nil, &stubAnalyzer{err: tt.err})
		if _, err := svc.Analyze(context.Background(), analyzeRequest(t)); status.Code(err) != tt.want {
			t.Fatalf("%v: expected %s, got %v", tt.err, tt.want, err)
		}
	}
}

func TestAnalyzeSource(t *testing.T) {
	stub := &stubAnalyzer{}
	svc := NewAnalysisService(nil, stub)
	ref := time.Date(2024, 2, 18, 0, 0, 0, 0, time.UTC)

	report, err := svc.AnalyzeSource(context.Background(), staticSource{{Text: "a"}, {Text: "b"}}, "b1", ref)
	if err != nil {
		t.Fatalf("analyze source: %v", err)
	}
	if report.Diagnostics.Reviews != 2 || !stub.last.ReferenceTime.Equal(ref) {
		t.Fatalf("unexpected report %+v / request %+v", report, stub.last)
	}
}
