package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"sync/atomic"

	database "github.com/ljunwei/go-date-planner/app/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/joho/godotenv"
	"github.com/pgvector/pgvector-go"
	"golang.org/x/sync/errgroup"

	"github.com/ljunwei/go-date-planner/config"
	"github.com/ljunwei/go-date-planner/internal/api/retrieval"
	"github.com/ljunwei/go-date-planner/internal/types"
)

const (
	batchSize      = 20
	embedWorkers   = 4
	embeddingModel = "text-embedding-004"

	// Failed rows keep their NULL embedding and are re-selected on the next
	// pass; passes that write nothing are capped so a persistent upstream
	// failure aborts the run instead of looping forever.
	maxStalledPasses = 3
)

// dbConn is the slice of pgxpool.Pool this script uses; pgxmock satisfies it
// in tests.
type dbConn interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg, err := config.InitConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	dbConfig, err := database.NewDatabaseConfig(&cfg, logger)
	if err != nil {
		logger.Error("Failed to generate database config", slog.Any("error", err))
		os.Exit(1)
	}

	dbpool, err := database.Init(dbConfig.ConnectionURL, logger)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer dbpool.Close()

	if err := dbpool.Ping(ctx); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Connected to database successfully")

	model := cfg.Retrieval.EmbeddingModel
	if model == "" {
		model = embeddingModel
	}
	embedder, err := retrieval.NewGeminiEmbedder(ctx, os.Getenv("GEMINI_API_KEY"), model, cfg.Retrieval.EmbeddingDim, logger)
	if err != nil {
		log.Fatalf("Failed to create embedding client: %v", err)
	}

	logger.Info("Starting embedding generation for points of interest...")

	if err := generatePOIEmbeddings(ctx, dbpool, embedder, logger); err != nil {
		logger.Error("Embedding generation finished with errors", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("Embedding generation completed!")
}

func generatePOIEmbeddings(ctx context.Context, dbpool dbConn, embedder retrieval.Embedder, logger *slog.Logger) error {
	var totalProcessed, totalErrors atomic.Int64

	stalled := 0
	for {
		pois, err := listPOIsWithoutEmbeddings(ctx, dbpool, batchSize)
		if err != nil {
			return fmt.Errorf("failed to list POIs without embeddings: %w", err)
		}

		if len(pois) == 0 {
			break
		}

		logger.Info("Processing batch of POIs", slog.Int("batch_size", len(pois)))

		processedBefore := totalProcessed.Load()
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(embedWorkers)

		for _, poi := range pois {
			g.Go(func() error {
				embedding, err := embedder.EmbedQuery(gctx, poi.SearchText())
				if err != nil {
					logger.Error("Failed to generate embedding for POI",
						slog.Any("error", err),
						slog.String("poi_id", poi.ID.String()),
						slog.String("poi_name", poi.Name))
					totalErrors.Add(1)
					return nil
				}

				if err := updatePOIEmbedding(gctx, dbpool, poi.ID, embedding); err != nil {
					logger.Error("Failed to update POI embedding",
						slog.Any("error", err),
						slog.String("poi_id", poi.ID.String()),
						slog.String("poi_name", poi.Name))
					totalErrors.Add(1)
					return nil
				}

				totalProcessed.Add(1)
				logger.Debug("POI embedding generated successfully",
					slog.String("poi_id", poi.ID.String()),
					slog.String("poi_name", poi.Name))
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return err
		}

		if totalProcessed.Load() == processedBefore {
			stalled++
			if stalled >= maxStalledPasses {
				return fmt.Errorf("no embeddings written in %d consecutive passes (%d errors), giving up",
					stalled, totalErrors.Load())
			}
		} else {
			stalled = 0
		}

		if len(pois) < batchSize {
			break
		}
	}

	logger.Info("Batch POI embedding generation completed",
		slog.Int64("total_processed", totalProcessed.Load()),
		slog.Int64("total_errors", totalErrors.Load()))

	if totalErrors.Load() > 0 {
		return fmt.Errorf("embedding generation completed with %d errors out of %d total POIs",
			totalErrors.Load(), totalProcessed.Load()+totalErrors.Load())
	}

	return nil
}

func listPOIsWithoutEmbeddings(ctx context.Context, dbpool dbConn, limit int) ([]types.PointOfInterest, error) {
	rows, err := dbpool.Query(ctx, `
        SELECT id, name, category, COALESCE(description, ''), COALESCE(address, ''), COALESCE(tags, '{}')
        FROM points_of_interest
        WHERE embedding IS NULL
        ORDER BY id
        LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("database query failed: %w", err)
	}
	defer rows.Close()

	var pois []types.PointOfInterest
	for rows.Next() {
		var poi types.PointOfInterest
		var category string
		if err := rows.Scan(&poi.ID, &poi.Name, &category, &poi.Description, &poi.Address, &poi.Tags); err != nil {
			return nil, fmt.Errorf("error scanning POI row: %w", err)
		}
		poi.Category = types.Category(category)
		pois = append(pois, poi)
	}
	return pois, rows.Err()
}

func updatePOIEmbedding(ctx context.Context, dbpool dbConn, id uuid.UUID, embedding []float32) error {
	_, err := dbpool.Exec(ctx, `
        UPDATE points_of_interest
        SET embedding = $1, updated_at = NOW()
        WHERE id = $2`, pgvector.NewVector(embedding), id)
	return err
}
