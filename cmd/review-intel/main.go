package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/miradorstack/review-intel/internal/api"
	"github.com/miradorstack/review-intel/internal/config"
	"github.com/miradorstack/review-intel/internal/metrics"
	"github.com/miradorstack/review-intel/internal/repo"
	"github.com/miradorstack/review-intel/internal/services"
	"github.com/miradorstack/review-intel/internal/utils"
)

func main() {
	var (
		configPath string
		envPath    string
		batch      bool
		input      string
		businessID string
		reference  string
	)
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.StringVar(&envPath, "env", ".env", "Optional dotenv file loaded before the configuration")
	flag.BoolVar(&batch, "batch", false, "Analyse the configured review source once and print the report")
	flag.StringVar(&input, "input", "", "JSON or CSV review file to analyse (implies -batch)")
	flag.StringVar(&businessID, "business", "", "Only analyse reviews of this business")
	flag.StringVar(&reference, "reference", "", "RFC3339 time relative review dates are resolved against (default now)")
	flag.Parse()

	if err := godotenv.Load(envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to load env file", slog.String("path", envPath), slog.Any("error", err))
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("path", configPath), slog.Any("error", err))
		os.Exit(1)
	}
	if input != "" {
		batch = true
		cfg.Source = config.SourceConfig{Kind: "file", Path: input, BusinessID: cfg.Source.BusinessID}
	}
	if businessID != "" {
		cfg.Source.BusinessID = businessID
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if batch {
		os.Exit(runBatch(ctx, cfg, reference))
	}
	os.Exit(serve(ctx, stop, cfg))
}

// runBatch writes the report to stdout; logs go to stderr.
func runBatch(ctx context.Context, cfg *config.Config, reference string) int {
	logger := utils.NewLoggerTo(os.Stderr, cfg.Logging.Level, cfg.Logging.JSON)

	var ref time.Time
	if reference != "" {
		parsed, err := time.Parse(time.RFC3339, reference)
		if err != nil {
			logger.Error("invalid -reference", slog.String("value", reference), slog.Any("error", err))
			return 2
		}
		ref = parsed
	}

	comps, err := buildComponents(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build pipeline", slog.Any("error", err))
		return 1
	}
	defer comps.close()

	src, closeSource, err := repo.OpenSource(ctx, repo.SourceConfig{
		Kind:       cfg.Source.Kind,
		Path:       cfg.Source.Path,
		DSN:        cfg.Source.DSN,
		BusinessID: cfg.Source.BusinessID,
	})
	if err != nil {
		logger.Error("failed to open review source", slog.String("kind", cfg.Source.Kind), slog.Any("error", err))
		return 1
	}
	defer closeSource()

	svc := services.NewAnalysisService(logger, comps.pipeline)
	report, err := svc.AnalyzeSource(ctx, src, cfg.Source.BusinessID, ref)
	if err != nil {
		logger.Error("analysis failed", slog.Any("error", err))
		return 1
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		logger.Error("failed to write report", slog.Any("error", err))
		return 1
	}
	return 0
}

func serve(ctx context.Context, stop context.CancelFunc, cfg *config.Config) int {
	logger := utils.NewLogger(cfg.Logging.Level, cfg.Logging.JSON)
	logger.Info("starting review-intel", slog.String("address", cfg.Server.Address))

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Error("failed to register metrics", slog.Any("error", err))
		return 1
	}

	comps, err := buildComponents(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build pipeline", slog.Any("error", err))
		return 1
	}
	defer comps.close()

	svc := services.NewAnalysisService(logger, comps.pipeline)
	server, err := api.NewServer(logger, cfg.Server, svc)
	if err != nil {
		logger.Error("failed to create gRPC server", slog.Any("error", err))
		return 1
	}

	var metricsServer *http.Server
	if cfg.Server.MetricsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{
			Addr:         cfg.Server.MetricsAddress,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 15 * time.Second,
		}
		go func() {
			logger.Info("metrics server listening", slog.String("address", cfg.Server.MetricsAddress))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server exited", slog.Any("error", err))
				stop()
			}
		}()
	}

	go func() {
		if serveErr := server.Start(); serveErr != nil {
			logger.Error("gRPC server exited", slog.Any("error", serveErr))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()
	server.Shutdown(shutdownCtx)

	if metricsServer != nil {
		metricsCtx, cancelMetrics := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(metricsCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server shutdown", slog.Any("error", err))
		}
		cancelMetrics()
	}

	snap := svc.Latency()
	logger.Info("review-intel stopped", slog.Int("analyses", snap.Count), slog.Duration("p95", snap.P95))
	return 0
}
