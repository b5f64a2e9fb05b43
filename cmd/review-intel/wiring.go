package main

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"

	"github.com/miradorstack/review-intel/internal/cache"
	"github.com/miradorstack/review-intel/internal/classify"
	"github.com/miradorstack/review-intel/internal/config"
	"github.com/miradorstack/review-intel/internal/embed"
	"github.com/miradorstack/review-intel/internal/engine"
	"github.com/miradorstack/review-intel/internal/events"
	"github.com/miradorstack/review-intel/internal/extractors"
	"github.com/miradorstack/review-intel/internal/repo"
	"github.com/miradorstack/review-intel/internal/topics"
	"github.com/miradorstack/review-intel/internal/trends"
	"github.com/miradorstack/review-intel/internal/utils"
)

const defaultOllamaEndpoint = "http://localhost:11434"

// components holds everything main wires together. close releases any
// connection opened while building.
type components struct {
	pipeline *engine.Pipeline
	latency  *utils.LatencyTracker
	closers  []func()
}

func (c *components) close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

func buildComponents(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*components, error) {
	dict, err := topics.Load(cfg.Topics.Path, logger)
	if err != nil {
		return nil, err
	}

	c := &components{latency: utils.NewLatencyTracker(2048)}
	policy := cfg.Resilience.Policy()

	var models *repo.ModelClient
	if cfg.Models.BaseURL != "" {
		models = repo.NewModelClient(repo.ModelClientConfig{
			BaseURL:      cfg.Models.BaseURL,
			ScorePath:    cfg.Models.ScorePath,
			RankPath:     cfg.Models.RankPath,
			ClassifyPath: cfg.Models.ClassifyPath,
			Timeout:      cfg.Models.Timeout,
			RatePerSec:   cfg.Models.RatePerSec,
			Burst:        cfg.Models.Burst,
		})
	}

	var scorer extractors.Scorer = extractors.NewLexiconScorer()
	if cfg.Sentiment.Backend == "remote" {
		scorer = extractors.NewResilientScorer(models, policy, c.latency)
		if cfg.Cache.Enabled {
			provider := buildCache(ctx, cfg.Cache, logger)
			c.closers = append(c.closers, func() { _ = provider.Close() })
			scorer = extractors.NewCachedScorer(scorer, provider, cfg.Cache.TTL, logger)
		}
	}

	var ranker extractors.Ranker
	if cfg.Extractor.Strategy == "remote" {
		ranker = extractors.NewResilientRanker(models, policy, c.latency)
	} else {
		ranker = extractors.NewResilientRanker(extractors.NewEmbeddingRanker(buildEmbedder(ctx, cfg.Embedding, logger)), policy, c.latency)
	}

	classifier, err := buildClassifier(cfg, models)
	if err != nil {
		return nil, err
	}
	if classifier != nil {
		classifier = extractors.NewResilientClassifier(classifier, policy, c.latency)
	}

	var extractor extractors.Extractor
	switch cfg.Extractor.Strategy {
	case "single-token":
		extractor = extractors.NewSingleTokenExtractor(ranker, cfg.Extractor.MinRelevance)
	case "zero-shot":
		if classifier == nil {
			return nil, utils.ConfigError("main.buildComponents", "zero-shot extraction needs a classifier", nil)
		}
		extractor = extractors.NewZeroShotTopicClassifier(classifier, dict.IDs(), cfg.Extractor.MinRelevance)
	default:
		extractor = extractors.NewEmbeddingRankExtractor(ranker, cfg.Extractor.MaxNgram, cfg.Extractor.MinRelevance)
	}

	summarizer, err := engine.NewSummarizer(logger, dict, extractor, scorer, ranker, classifier, engine.SummarizerConfig{
		TopK:           cfg.Summary.TopK,
		MaxNgram:       cfg.Extractor.MaxNgram,
		ConflictPolicy: engine.ConflictPolicy(cfg.Summary.ConflictPolicy),
		Workers:        cfg.Pipeline.Workers,
	})
	if err != nil {
		return nil, err
	}

	var sink trends.Sink
	if cfg.Events.NATSURL != "" {
		nc, err := events.Connect(cfg.Events.NATSURL, logger)
		if err != nil {
			logger.Warn("spike events disabled", slog.Any("error", err))
		} else {
			sink = events.NewNATSPublisher(nc, cfg.Events.Subject)
			c.closers = append(c.closers, func() { _ = nc.Drain() })
		}
	}
	detector := trends.NewDetector(logger, sink, trends.SpikeConfig{
		Threshold:       cfg.Trends.SpikeThreshold,
		ContiguousWeeks: cfg.Trends.ContiguousWeeks,
	})

	c.pipeline = engine.NewPipeline(logger, summarizer, detector, cfg.Pipeline.Workers)
	logger.Info("analysis pipeline ready",
		slog.String("strategy", extractor.Name()),
		slog.String("sentiment", cfg.Sentiment.Backend),
		slog.Int("topics", len(dict.IDs())),
		slog.Bool("classifier", classifier != nil),
		slog.Bool("spike_events", sink != nil))
	return c, nil
}

// buildEmbedder returns the configured embedder, falling back to the offline
// hashing embedder when the remote one cannot be reached.
func buildEmbedder(ctx context.Context, cfg config.EmbeddingConfig, logger *slog.Logger) embed.Embedder {
	fallback := embed.NewHashEmbedder(cfg.Dimensions)

	var e embed.Embedder
	switch cfg.Provider {
	case "ollama":
		e = embed.NewOllamaEmbedder(cmp.Or(cfg.Endpoint, defaultOllamaEndpoint), cfg.Model, nil)
	case "jina":
		opts := []embed.JinaOption{embed.WithJinaRate(cfg.RatePerSec)}
		if cfg.Endpoint != "" {
			opts = append(opts, embed.WithJinaEndpoint(cfg.Endpoint))
		}
		if cfg.Dimensions > 0 {
			opts = append(opts, embed.WithJinaDimensions(cfg.Dimensions))
		}
		e = embed.NewJinaEmbedder(cfg.APIKey, cfg.Model, opts...)
	default:
		return fallback
	}
	if ctx.Err() == nil && e.Available() {
		return e
	}
	logger.Warn("embedding provider unavailable, using hash embedder", slog.String("provider", cfg.Provider))
	return fallback
}

// buildCache prefers Valkey and falls back to process memory when it is not
// configured or does not answer.
func buildCache(ctx context.Context, cfg config.CacheConfig, logger *slog.Logger) cache.Provider {
	if cfg.Addr == "" {
		return cache.NewMemoryProvider()
	}
	provider, err := cache.NewValkeyProvider(ctx, cache.ValkeyConfig{
		Addr:     cfg.Addr,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
		TLS:      cfg.TLS,
	})
	if err != nil {
		logger.Warn("valkey unavailable, caching scores in memory", slog.String("addr", cfg.Addr), slog.Any("error", err))
		return cache.NewMemoryProvider()
	}
	return provider
}

func buildClassifier(cfg *config.Config, models *repo.ModelClient) (classify.Classifier, error) {
	switch {
	case cfg.OpenAI.APIKey != "":
		c, err := classify.NewOpenAIClassifier(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Model)
		if err != nil {
			return nil, utils.ConfigError("main.buildClassifier", fmt.Sprintf("openai classifier: %v", err), err)
		}
		return c, nil
	case models != nil:
		return models, nil
	default:
		return nil, nil
	}
}
