package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	database "github.com/ljunwei/go-date-planner/app/db"
	appLogger "github.com/ljunwei/go-date-planner/app/logger"
	"github.com/ljunwei/go-date-planner/app/observability/metrics"
	"github.com/ljunwei/go-date-planner/app/tracer"
	"github.com/ljunwei/go-date-planner/internal/api/catalog"
	"github.com/ljunwei/go-date-planner/internal/api/planner"
	"github.com/ljunwei/go-date-planner/internal/api/retrieval"
	"github.com/ljunwei/go-date-planner/internal/router"

	"github.com/ljunwei/go-date-planner/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

func main() {
	// Use standard log until slog is configured, in case godotenv fails
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: .env file not found or error loading:", err)
	}

	cfg, err := config.InitConfig()
	if err != nil {
		log.Fatalf("FATAL: Error initializing config: %v", err)
	}

	logger := setupLogger()
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	tracer.InitTracingAndMetrics(cfg.Metrics.Port)
	metrics.InitAppMetrics()
	appMetrics := metrics.Get()

	// --- Database Setup ---
	dbConfig, err := database.NewDatabaseConfig(&cfg, logger)
	if err != nil {
		logger.Error("Failed to generate database config", slog.Any("error", err))
		os.Exit(1)
	}

	// Run migrations *before* initializing the main pool
	err = database.RunMigrations(dbConfig.ConnectionURL, logger)
	if err != nil {
		logger.Error("Failed to run database migrations", slog.Any("error", err))
		os.Exit(1)
	}

	pool, err := database.Init(dbConfig.ConnectionURL, logger)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	if !database.WaitForDB(ctx, pool, logger) {
		logger.Error("Database not ready after waiting, exiting.")
		os.Exit(1)
	}

	// --- Catalog ---
	// The whole POI catalog is loaded into memory once at startup; planning
	// requests never touch Postgres for candidate data afterwards.
	catalogRepo := catalog.NewRepository(pool, logger)
	poiCatalog := catalog.NewCatalog(catalogRepo, logger)

	loadStart := time.Now()
	if err := poiCatalog.Load(ctx); err != nil {
		logger.Error("Failed to load POI catalog", slog.Any("error", err))
		os.Exit(1)
	}
	appMetrics.CatalogLoadDurationSecs.Record(ctx, time.Since(loadStart).Seconds(),
		metric.WithAttributes(attribute.Int("catalog.size", poiCatalog.Size())))
	logger.Info("POI catalog loaded",
		slog.Int("pois", poiCatalog.Size()),
		slog.Duration("took", time.Since(loadStart)))

	// --- Retrieval stack ---
	geminiEmbedder, err := retrieval.NewGeminiEmbedder(ctx, os.Getenv("GEMINI_API_KEY"), cfg.Retrieval.EmbeddingModel, cfg.Retrieval.EmbeddingDim, logger)
	if err != nil {
		logger.Error("Failed to initialize embedding client", slog.Any("error", err))
		os.Exit(1)
	}
	embedder := retrieval.NewCachingEmbedder(geminiEmbedder, cfg.Retrieval.QueryCacheTTL)
	vectorIndex := retrieval.NewPGVectorIndex(pool, logger)

	// --- Planning pipeline ---
	tables := planner.DefaultRuleTables()
	ruleFilter := planner.NewRuleFilter(tables, logger)
	ranker := planner.NewRanker(embedder, vectorIndex, appMetrics, cfg.Retrieval.PoolSize, cfg.Retrieval.SampleSize, logger)
	reranker := planner.NewVibeReranker(embedder, logger)
	scheduler := planner.NewScheduler(planner.NewClassifier(tables), logger)
	assembler := planner.NewAssembler()

	plannerService := planner.NewService(poiCatalog, ruleFilter, ranker, reranker, scheduler, assembler, appMetrics, logger)
	plannerHandler := planner.NewHandler(plannerService, logger)

	// --- Router Setup ---
	routerConfig := &router.Config{
		PlannerHandler: plannerHandler,
	}
	mainRouter := router.SetupRouter(routerConfig)

	mux := chi.NewMux()
	mux.Use(middleware.RequestID)
	mux.Use(middleware.RealIP)
	mux.Use(appLogger.StructuredLogger(logger))
	mux.Use(middleware.Recoverer)
	mux.Use(middleware.StripSlashes)
	mux.Use(middleware.Timeout(60 * time.Second))
	mux.Use(middleware.Compress(5, "application/json"))
	mux.Mount("/", mainRouter)

	// --- HTTP Server Setup ---
	serverAddress := fmt.Sprintf(":%s", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         serverAddress,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	go func() {
		logger.Info("Starting HTTP server", slog.String("address", serverAddress))
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server ListenAndServe error", slog.Any("error", err))
			cancel()
		}
	}()

	<-ctx.Done()

	// --- Graceful Shutdown ---
	logger.Info("Shutdown signal received, starting graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server graceful shutdown failed", slog.Any("error", err))
	} else {
		logger.Info("HTTP server gracefully stopped")
	}

	logger.Info("Application shut down complete.")
}

// setupLogger configures and returns the application logger.
func setupLogger() *slog.Logger {
	var logger *slog.Logger
	env := os.Getenv("APP_ENV")

	if env == "development" || env == "" { // Default to development if not set
		// Colored logs for development
		tintOpts := &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.Kitchen,
			AddSource:  true,
		}
		logger = slog.New(tint.NewHandler(os.Stdout, tintOpts))
		log.Println("Initialized development logger (tint)")
	} else {
		// JSON logs for production or other environments
		jsonOpts := &slog.HandlerOptions{
			Level:     slog.LevelInfo,
			AddSource: false,
		}
		logger = slog.New(slog.NewJSONHandler(os.Stdout, jsonOpts))
		log.Println("Initialized production logger (JSON)")
	}
	return logger
}
