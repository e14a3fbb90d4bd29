// Package main is the entry point for the feed API server.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/spilleu/feedengine/internal/api"
	"github.com/spilleu/feedengine/internal/config"
	"github.com/spilleu/feedengine/internal/feed"
	"github.com/spilleu/feedengine/internal/health"
	"github.com/spilleu/feedengine/internal/middleware"
	"github.com/spilleu/feedengine/internal/post"
	"github.com/spilleu/feedengine/internal/ranking"
	"github.com/spilleu/feedengine/internal/seen"
	"github.com/spilleu/feedengine/internal/tracing"
	"github.com/spilleu/feedengine/internal/viewer"
)

const serviceName = "feedengine"

func main() {
	help := flag.Bool("help", false, "display help message")
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	if *help {
		fmt.Println("Feed Engine API Server")
		fmt.Println()
		fmt.Println("Usage: api [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	cfg, errs := config.Load(*configPath)
	if len(errs) > 0 {
		for _, err := range errs {
			fmt.Fprintln(os.Stderr, "config error:", err)
		}
		os.Exit(1)
	}

	logger := middleware.NewLogger(cfg.Env)
	slog.SetDefault(logger)
	logger.Info("configuration loaded", "config", cfg.LogSummary())

	// Tracing: a no-op provider unless enabled in config.
	tracerProvider, err := tracing.NewProvider(tracing.Config{
		ServiceName:  serviceName,
		Enabled:      cfg.TracingEnabled,
		Environment:  cfg.Env,
		ExporterType: cfg.TraceExporter,
		OTLPEndpoint: cfg.OTLPEndpoint,
		SamplingRate: cfg.TraceSamplingRate,
		InsecureMode: cfg.TraceInsecure,
	})
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(ctx); err != nil {
			logger.Error("failed to shutdown tracer provider", "error", err)
		}
	}()

	// Scoring calibration. Errors degrade to defaults.
	tunables, err := ranking.LoadCalibration(cfg.RankCalibrationPath)
	if err != nil {
		logger.Warn("using default ranking tunables", "error", err)
	}

	checkers := make(map[string]health.Checker)

	// Candidate store: Postgres when configured, in-memory otherwise.
	var posts post.CandidateStore
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		posts = post.NewPostgresStore(db)
		checkers["postgres"] = health.NewPostgresChecker(db)
		logger.Info("using postgres candidate store")
	} else {
		posts = post.NewInMemoryStore()
		logger.Info("using in-memory candidate store")
	}

	// View log: Redis when configured, in-memory otherwise.
	var seenStore seen.Store
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Error("invalid redis url", "error", err)
			os.Exit(1)
		}
		client := redis.NewClient(opts)
		defer client.Close()
		seenStore = seen.NewRedisStore(client)
		checkers["redis"] = health.NewRedisChecker(client)
		logger.Info("using redis view log")
	} else {
		seenStore = seen.NewInMemoryStore()
		logger.Info("using in-memory view log")
	}

	viewers := viewer.NewInMemoryLookup()

	// Metrics registry shared by middleware and feed assembly.
	registry := prometheus.NewRegistry()
	httpMetrics := middleware.NewMetrics()
	if err := httpMetrics.Register(registry); err != nil {
		logger.Error("failed to register http metrics", "error", err)
		os.Exit(1)
	}
	feedMetrics := feed.NewMetrics()
	if err := feedMetrics.Register(registry); err != nil {
		logger.Error("failed to register feed metrics", "error", err)
		os.Exit(1)
	}

	svc := feed.NewService(posts, seenStore, tunables, feedMetrics)
	feedHandlers := api.NewFeedHandlers(svc, viewers, seenStore)
	healthHandlers := api.NewHealthHandlers(checkers)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /feed", feedHandlers.GetFeed)
	mux.HandleFunc("GET /recent", feedHandlers.GetRecent)
	mux.HandleFunc("GET /trending", feedHandlers.GetTrending)
	mux.HandleFunc("POST /posts/{id}/seen", feedHandlers.MarkSeen)
	mux.HandleFunc("GET /health", healthHandlers.GetHealth)
	mux.HandleFunc("GET /ready", healthHandlers.GetReady)
	mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	// Apply middleware: Tracing -> RequestID -> ViewerID -> Logging -> Metrics
	handler := middleware.Tracing(serviceName)(
		middleware.RequestID(
			middleware.ViewerID(
				middleware.Logging(logger)(
					middleware.HTTPMetrics(httpMetrics)(mux)))))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
