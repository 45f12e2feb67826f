package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/airsight/airsight-engine/internal/analytics"
	"github.com/airsight/airsight-engine/internal/api"
	"github.com/airsight/airsight-engine/internal/cache"
	"github.com/airsight/airsight-engine/internal/config"
	"github.com/airsight/airsight-engine/internal/dataset"
	"github.com/airsight/airsight-engine/internal/forecast"
	"github.com/airsight/airsight-engine/internal/health"
	"github.com/airsight/airsight-engine/internal/metrics"
	"github.com/airsight/airsight-engine/internal/parser"
	"github.com/airsight/airsight-engine/internal/rewrite"
	"github.com/airsight/airsight-engine/internal/service"
	"github.com/airsight/airsight-engine/internal/uncertainty"
	"github.com/airsight/airsight-engine/internal/utils"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("path", configPath), slog.Any("error", err))
		os.Exit(1)
	}

	logger := utils.NewLogger(cfg.Logging.Level, cfg.Logging.JSON)
	logger.Info("starting airsight-engine", slog.String("address", cfg.Server.Address))

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Error("failed to register metrics", slog.Any("error", err))
		os.Exit(1)
	}

	store, err := dataset.LoadStore(cfg.Data.HistoryPath, cfg.Data.BaselinesPath, cfg.Data.RawHealthPath)
	if err != nil {
		logger.Error("failed to load datasets", slog.Any("error", err))
		os.Exit(1)
	}
	model, err := forecast.LoadModel(cfg.Data.ModelPath)
	if err != nil {
		logger.Error("failed to load forecast model", slog.String("path", cfg.Data.ModelPath), slog.Any("error", err))
		os.Exit(1)
	}

	forecaster := forecast.NewEngine(model, store)
	healthEngine := health.NewEngine(store)
	intervals := uncertainty.NewEngine(forecaster)
	analyzer := analytics.NewAnalyzer(forecaster, healthEngine, intervals, logger)

	var cacheProvider cache.Provider = cache.NoopProvider{}
	if cfg.Cache.Enabled && cfg.Cache.Addr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Cache.DialTimeout)
		provider, err := cache.NewRedisProvider(ctx, cfg.Cache)
		cancel()
		if err != nil {
			logger.Warn("redis cache unavailable", slog.Any("error", err))
		} else {
			cacheProvider = provider
			defer provider.Close()
		}
	}

	countrySet := map[string]bool{}
	for _, info := range forecaster.Countries() {
		countrySet[info.Name] = true
	}
	for _, name := range healthEngine.Countries() {
		countrySet[name] = true
	}
	countries := make([]string, 0, len(countrySet))
	for name := range countrySet {
		countries = append(countries, name)
	}

	parserOpts := []parser.Option{parser.WithDefaultYear(cfg.Parser.DefaultYear)}
	if cfg.Embedding.Enabled {
		embedder := parser.NewHTTPEmbedder(cfg.Embedding.BaseURL, cfg.Embedding.Model, cfg.Embedding.Timeout)
		parserOpts = append(parserOpts, parser.WithEmbedder(embedder))
	}
	queryParser := parser.NewParser(countries, logger, parserOpts...)

	var rewriter rewrite.Rewriter = rewrite.NoopRewriter{}
	if cfg.Rewrite.Enabled {
		rewriter = rewrite.NewClient(
			cfg.Rewrite.BaseURL,
			cfg.Rewrite.PreferredModels,
			cfg.Rewrite.Temperature,
			cfg.Rewrite.Timeout,
			cacheProvider,
			cfg.Cache.RewriteTTL,
			logger,
		)
	}

	dispatcher := service.NewDispatcher(queryParser, forecaster, healthEngine, analyzer, rewriter, cfg.Parser.DefaultCountry, logger)
	server := api.NewServer(cfg.Server, dispatcher, forecaster, healthEngine, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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
		if serveErr := server.Start(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			logger.Error("http server exited", slog.Any("error", serveErr))
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

	// Give remaining goroutines time to finish logging
	time.Sleep(100 * time.Millisecond)
	logger.Info("airsight-engine stopped")
}
