package main

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/miradorstack/review-intel/internal/cache"
	"github.com/miradorstack/review-intel/internal/config"
	"github.com/miradorstack/review-intel/internal/models"
	"github.com/miradorstack/review-intel/internal/utils"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("REVIEW_INTEL_CONFIG", "")
	t.Setenv("REVIEW_INTEL_TOPICS_PATH", "../../configs/topics/default.yaml")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("NATS_URL", "")
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	return cfg
}

func TestBuildComponentsOffline(t *testing.T) {
	cfg := testConfig(t)
	logger := utils.NewLoggerTo(io.Discard, "error", false)

	comps, err := buildComponents(context.Background(), cfg, logger)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer comps.close()

	report, err := comps.pipeline.Run(context.Background(), models.AnalysisRequest{
		BusinessID:    "biz-1",
		ReferenceTime: time.Date(2024, 2, 18, 0, 0, 0, 0, time.UTC),
		Reviews: []models.ReviewRecord{
			{ID: "r1", Text: "The food was great but the prices were too high.", RawDate: "2024-02-13"},
			{ID: "r2", Text: "Terrible service, the waiter was rude.", RawDate: "2 weeks ago"},
		},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(report.Summaries) != 2 {
		t.Fatalf("expected two summaries, got %d", len(report.Summaries))
	}
	if report.Corpus.Topics != nil {
		t.Fatalf("no classifier is configured, expected no topic counts")
	}
}

func TestDefaultStackSummarizesReviewExamples(t *testing.T) {
	reviews := []models.ReviewRecord{
		{ID: "single", Text: "The food was absolutely delicious and full of flavor.", RawDate: "2024-02-13"},
		{ID: "contrast", Text: "The food was great but the prices were too high.", RawDate: "2024-02-13"},
		{ID: "undated", Text: "The waiter was rude."},
	}
	want := map[string]map[string]models.Label{
		"single":   {"food": models.LabelPositive},
		"contrast": {"food": models.LabelPositive, "pricing": models.LabelNegative},
		"undated":  {"staff": models.LabelNegative},
	}

	for _, strategy := range []string{"embedding", "single-token"} {
		t.Run(strategy, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.Extractor.Strategy = strategy
			comps, err := buildComponents(context.Background(), cfg, utils.NewLoggerTo(io.Discard, "error", false))
			if err != nil {
				t.Fatalf("build: %v", err)
			}
			defer comps.close()

			report, err := comps.pipeline.Run(context.Background(), models.AnalysisRequest{
				BusinessID:    "biz-1",
				ReferenceTime: time.Date(2024, 2, 18, 0, 0, 0, 0, time.UTC),
				Reviews:       reviews,
			})
			if err != nil {
				t.Fatalf("run: %v", err)
			}
			for _, summary := range report.Summaries {
				expected := want[summary.ReviewID]
				if len(summary.Topics) != len(expected) {
					t.Fatalf("%s: got topics %v, want %v (aspects %+v)", summary.ReviewID, summary.Topics, expected, summary.Aspects)
				}
				for topic, label := range expected {
					if summary.Topics[topic] != label {
						t.Fatalf("%s: topic %s is %q, want %q", summary.ReviewID, topic, summary.Topics[topic], label)
					}
				}
			}
			if report.Diagnostics.UnmappedTopics != 0 || report.Diagnostics.ExtractionMisses != 0 {
				t.Fatalf("unexpected diagnostics %+v", report.Diagnostics)
			}
			if report.Diagnostics.MalformedTimestamp != 1 {
				t.Fatalf("expected the undated review to be counted, got %+v", report.Diagnostics)
			}
			for _, bucket := range report.Weekly {
				if bucket.TopicID == "staff" {
					t.Fatalf("undated review leaked into weekly trends: %+v", bucket)
				}
			}
			if len(report.Weekly) != 2 {
				t.Fatalf("expected food/positive and pricing/negative in one week, got %+v", report.Weekly)
			}
		})
	}
}

func TestBuildComponentsMissingDictionary(t *testing.T) {
	cfg := testConfig(t)
	cfg.Topics.Path = "does-not-exist.yaml"
	if _, err := buildComponents(context.Background(), cfg, utils.NewLoggerTo(io.Discard, "error", false)); err == nil {
		t.Fatalf("expected error for missing dictionary")
	}
}

func TestBuildCacheFallsBackToMemory(t *testing.T) {
	logger := utils.NewLoggerTo(io.Discard, "error", false)
	if _, ok := buildCache(context.Background(), config.CacheConfig{}, logger).(*cache.MemoryProvider); !ok {
		t.Fatalf("expected memory provider without an address")
	}
	// Nothing listens on port 1.
	if _, ok := buildCache(context.Background(), config.CacheConfig{Addr: "127.0.0.1:1"}, logger).(*cache.MemoryProvider); !ok {
		t.Fatalf("expected memory fallback for unreachable valkey")
	}
}

func TestBuildEmbedderHashDefault(t *testing.T) {
	cfg := testConfig(t)
	e := buildEmbedder(context.Background(), cfg.Embedding, utils.NewLoggerTo(io.Discard, "error", false))
	if !e.Available() {
		t.Fatalf("hash embedder should always be available")
	}
}
