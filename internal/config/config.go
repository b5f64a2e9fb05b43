package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/miradorstack/review-intel/internal/utils"
)

// Config captures every setting the review intelligence service reads at startup.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Logging    LoggingConfig    `yaml:"logging"`
	Topics     TopicsConfig     `yaml:"topics"`
	Extractor  ExtractorConfig  `yaml:"extractor"`
	Sentiment  SentimentConfig  `yaml:"sentiment"`
	Models     ModelsConfig     `yaml:"models"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	OpenAI     OpenAIConfig     `yaml:"openai"`
	Resilience ResilienceConfig `yaml:"resilience"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	Summary    SummaryConfig    `yaml:"summary"`
	Trends     TrendsConfig     `yaml:"trends"`
	Source     SourceConfig     `yaml:"source"`
	Events     EventsConfig     `yaml:"events"`
	Cache      CacheConfig      `yaml:"cache"`
}

// ServerConfig controls gRPC listener behaviour.
type ServerConfig struct {
	Address         string        `yaml:"address"`
	MetricsAddress  string        `yaml:"metricsAddress"`
	GracefulTimeout time.Duration `yaml:"gracefulTimeout"`
	MaxMessageBytes int           `yaml:"maxMessageBytes"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// TopicsConfig points at the aspect-to-topic dictionary.
type TopicsConfig struct {
	Path string `yaml:"path"`
}

// ExtractorConfig selects the aspect extraction strategy.
//
// Strategy is one of "embedding", "single-token", "zero-shot" or "remote".
// MinRelevance is the score the best phrase or label must exceed to count as
// an aspect.
type ExtractorConfig struct {
	Strategy     string  `yaml:"strategy"`
	MaxNgram     int     `yaml:"maxNgram"`
	MinRelevance float64 `yaml:"minRelevance"`
}

// SentimentConfig selects the polarity scorer: "lexicon" or "remote".
type SentimentConfig struct {
	Backend string `yaml:"backend"`
}

// ModelsConfig configures the remote model service used for scoring, ranking
// and classification.
type ModelsConfig struct {
	BaseURL      string        `yaml:"baseURL"`
	ScorePath    string        `yaml:"scorePath"`
	RankPath     string        `yaml:"rankPath"`
	ClassifyPath string        `yaml:"classifyPath"`
	Timeout      time.Duration `yaml:"timeout"`
	RatePerSec   float64       `yaml:"ratePerSec"`
	Burst        int           `yaml:"burst"`
}

// EmbeddingConfig selects the embedding backend: "ollama", "jina" or "hash".
// An empty Endpoint uses the provider's default.
type EmbeddingConfig struct {
	Provider   string  `yaml:"provider"`
	Endpoint   string  `yaml:"endpoint"`
	Model      string  `yaml:"model"`
	APIKey     string  `yaml:"apiKey"`
	Dimensions int     `yaml:"dimensions"`
	RatePerSec float64 `yaml:"ratePerSec"`
}

// OpenAIConfig configures the zero-shot topic classifier.
type OpenAIConfig struct {
	APIKey  string `yaml:"apiKey"`
	BaseURL string `yaml:"baseURL"`
	Model   string `yaml:"model"`
}

// ResilienceConfig bounds every model call.
type ResilienceConfig struct {
	CallTimeout time.Duration `yaml:"callTimeout"`
	MaxAttempts int           `yaml:"maxAttempts"`
	BaseBackoff time.Duration `yaml:"baseBackoff"`
}

// Policy converts the section into a retry policy.
func (r ResilienceConfig) Policy() utils.RetryPolicy {
	return utils.RetryPolicy{
		CallTimeout: r.CallTimeout,
		MaxAttempts: r.MaxAttempts,
		BaseBackoff: r.BaseBackoff,
	}.Normalise()
}

// PipelineConfig controls per-review fan-out.
type PipelineConfig struct {
	Workers int `yaml:"workers"`
}

// SummaryConfig controls the review and corpus summarizer.
type SummaryConfig struct {
	TopK           int    `yaml:"topK"`
	ConflictPolicy string `yaml:"conflictPolicy"`
}

// TrendsConfig controls spike detection.
type TrendsConfig struct {
	SpikeThreshold  int  `yaml:"spikeThreshold"`
	ContiguousWeeks bool `yaml:"contiguousWeeks"`
}

// SourceConfig selects where batch runs read reviews from.
//
// Kind is one of "file", "sqlite" or "postgres".
type SourceConfig struct {
	Kind       string `yaml:"kind"`
	Path       string `yaml:"path"`
	DSN        string `yaml:"dsn"`
	BusinessID string `yaml:"businessID"`
}

// EventsConfig configures where flagged spikes are published.
type EventsConfig struct {
	NATSURL string `yaml:"natsURL"`
	Subject string `yaml:"subject"`
}

// CacheConfig configures the score cache in front of the remote sentiment
// backend. Without an address scores are cached in process memory.
type CacheConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Username string        `yaml:"username"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TLS      bool          `yaml:"tls"`
	TTL      time.Duration `yaml:"ttl"`
}

// Load initialises Config from a YAML file and optional environment overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("REVIEW_INTEL_CONFIG")
	}

	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, utils.ConfigError("config.Load", fmt.Sprintf("config file %s not found", path), err)
			}
			return nil, utils.ConfigError("config.Load", "read config", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, utils.ConfigError("config.Load", "parse config", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	switch c.Extractor.Strategy {
	case "embedding", "single-token", "zero-shot", "remote":
	default:
		return utils.ConfigError("config.Validate", fmt.Sprintf("unknown extractor strategy %q", c.Extractor.Strategy), nil)
	}
	switch c.Sentiment.Backend {
	case "lexicon", "remote":
	default:
		return utils.ConfigError("config.Validate", fmt.Sprintf("unknown sentiment backend %q", c.Sentiment.Backend), nil)
	}
	switch c.Summary.ConflictPolicy {
	case "majority", "last":
	default:
		return utils.ConfigError("config.Validate", fmt.Sprintf("unknown conflict policy %q", c.Summary.ConflictPolicy), nil)
	}
	if c.Extractor.MaxNgram < 1 {
		return utils.ConfigError("config.Validate", "extractor.maxNgram must be at least 1", nil)
	}
	if c.Summary.TopK < 1 {
		return utils.ConfigError("config.Validate", "summary.topK must be at least 1", nil)
	}
	if c.Trends.SpikeThreshold < 1 {
		return utils.ConfigError("config.Validate", "trends.spikeThreshold must be at least 1", nil)
	}
	if c.Topics.Path == "" {
		return utils.ConfigError("config.Validate", "topics.path is required", nil)
	}
	usesModels := c.Extractor.Strategy == "remote" || c.Sentiment.Backend == "remote"
	if usesModels && c.Models.BaseURL == "" {
		return utils.ConfigError("config.Validate", "models.baseURL is required by the remote backends", nil)
	}
	if c.Extractor.Strategy == "zero-shot" && c.OpenAI.APIKey == "" && c.Models.BaseURL == "" {
		return utils.ConfigError("config.Validate", "zero-shot extraction needs openai.apiKey or models.baseURL", nil)
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Address:         ":50051",
			MetricsAddress:  ":2112",
			GracefulTimeout: 10 * time.Second,
			MaxMessageBytes: 16 << 20,
		},
		Logging:   LoggingConfig{Level: "info", JSON: false},
		Topics:    TopicsConfig{Path: "configs/topics/default.yaml"},
		Extractor: ExtractorConfig{Strategy: "embedding", MaxNgram: 2},
		Sentiment: SentimentConfig{Backend: "lexicon"},
		Models: ModelsConfig{
			ScorePath:    "/v1/score",
			RankPath:     "/v1/rank",
			ClassifyPath: "/v1/classify",
			Timeout:      10 * time.Second,
			RatePerSec:   20,
			Burst:        5,
		},
		Embedding: EmbeddingConfig{
			Provider:   "hash",
			Model:      "nomic-embed-text",
			Dimensions: 256,
			RatePerSec: 5,
		},
		OpenAI: OpenAIConfig{Model: "gpt-4o-mini"},
		Resilience: ResilienceConfig{
			CallTimeout: 10 * time.Second,
			MaxAttempts: 3,
			BaseBackoff: 100 * time.Millisecond,
		},
		Pipeline: PipelineConfig{Workers: 4},
		Summary:  SummaryConfig{TopK: 3, ConflictPolicy: "majority"},
		Trends:   TrendsConfig{SpikeThreshold: 1},
		Source:   SourceConfig{Kind: "file"},
		Events:   EventsConfig{Subject: "review-intel.spikes"},
		Cache:    CacheConfig{Enabled: true, TTL: 24 * time.Hour},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("REVIEW_INTEL_SERVER_ADDRESS"); v != "" {
		cfg.Server.Address = v
	}
	if v := os.Getenv("REVIEW_INTEL_METRICS_ADDRESS"); v != "" {
		cfg.Server.MetricsAddress = v
	}
	if v := os.Getenv("REVIEW_INTEL_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("REVIEW_INTEL_LOG_FORMAT"); v == "json" {
		cfg.Logging.JSON = true
	}
	if v := os.Getenv("REVIEW_INTEL_TOPICS_PATH"); v != "" {
		cfg.Topics.Path = v
	}
	if v := os.Getenv("REVIEW_INTEL_EXTRACTOR_STRATEGY"); v != "" {
		cfg.Extractor.Strategy = v
	}
	if v := os.Getenv("REVIEW_INTEL_SENTIMENT_BACKEND"); v != "" {
		cfg.Sentiment.Backend = v
	}
	if v := os.Getenv("REVIEW_INTEL_MODELS_BASE_URL"); v != "" {
		cfg.Models.BaseURL = v
	}
	if v := os.Getenv("REVIEW_INTEL_EMBEDDING_PROVIDER"); v != "" {
		cfg.Embedding.Provider = v
	}
	if v := os.Getenv("REVIEW_INTEL_EMBEDDING_ENDPOINT"); v != "" {
		cfg.Embedding.Endpoint = v
	}
	if v := os.Getenv("REVIEW_INTEL_EMBEDDING_MODEL"); v != "" {
		cfg.Embedding.Model = v
	}
	if v := os.Getenv("JINA_API_KEY"); v != "" && cfg.Embedding.APIKey == "" {
		cfg.Embedding.APIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" && cfg.OpenAI.APIKey == "" {
		cfg.OpenAI.APIKey = v
	}
	if v := os.Getenv("REVIEW_INTEL_OPENAI_MODEL"); v != "" {
		cfg.OpenAI.Model = v
	}
	if v := os.Getenv("REVIEW_INTEL_CALL_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Resilience.CallTimeout = d
		}
	}
	if v := os.Getenv("REVIEW_INTEL_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Resilience.MaxAttempts = n
		}
	}
	if v := os.Getenv("REVIEW_INTEL_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Pipeline.Workers = n
		}
	}
	if v := os.Getenv("REVIEW_INTEL_TOP_K"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Summary.TopK = n
		}
	}
	if v := os.Getenv("REVIEW_INTEL_CONFLICT_POLICY"); v != "" {
		cfg.Summary.ConflictPolicy = v
	}
	if v := os.Getenv("REVIEW_INTEL_SPIKE_THRESHOLD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Trends.SpikeThreshold = n
		}
	}
	if v := os.Getenv("REVIEW_INTEL_CONTIGUOUS_WEEKS"); v != "" {
		cfg.Trends.ContiguousWeeks = strings.EqualFold(v, "true") || v == "1"
	}
	if v := os.Getenv("REVIEW_INTEL_SOURCE_KIND"); v != "" {
		cfg.Source.Kind = v
	}
	if v := os.Getenv("REVIEW_INTEL_SOURCE_PATH"); v != "" {
		cfg.Source.Path = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" && cfg.Source.DSN == "" {
		cfg.Source.DSN = v
	}
	if v := os.Getenv("REVIEW_INTEL_BUSINESS_ID"); v != "" {
		cfg.Source.BusinessID = v
	}
	if v := os.Getenv("REVIEW_INTEL_VALKEY_ADDR"); v != "" {
		cfg.Cache.Addr = v
	}
	if v := os.Getenv("REVIEW_INTEL_VALKEY_PASSWORD"); v != "" {
		cfg.Cache.Password = v
	}
	if v := os.Getenv("NATS_URL"); v != "" && cfg.Events.NATSURL == "" {
		cfg.Events.NATSURL = v
	}
	if v := os.Getenv("REVIEW_INTEL_EVENTS_SUBJECT"); v != "" {
		cfg.Events.Subject = v
	}
}
