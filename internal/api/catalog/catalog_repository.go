package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/ljunwei/go-date-planner/internal/types"
)

var _ Repository = (*RepositoryImpl)(nil)

// Repository loads the point-of-interest catalog from storage.
type Repository interface {
	ListPOIs(ctx context.Context) ([]types.PointOfInterest, error)
	CountPOIs(ctx context.Context) (int, error)
}

// PGXPool is the slice of pgxpool.Pool the repository needs. pgxmock's pool
// satisfies it too, which keeps repository tests off a live database.
type PGXPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type RepositoryImpl struct {
	logger *slog.Logger
	pgpool PGXPool
}

func NewRepository(pgxpool PGXPool, logger *slog.Logger) *RepositoryImpl {
	return &RepositoryImpl{
		logger: logger,
		pgpool: pgxpool,
	}
}

// ListPOIs returns every catalog row, embeddings included. Rows without an
// embedding come back with a nil Embedding slice and still participate in
// rule filtering and proximity scoring.
func (r *RepositoryImpl) ListPOIs(ctx context.Context) ([]types.PointOfInterest, error) {
	ctx, span := otel.Tracer("CatalogRepository").Start(ctx, "ListPOIs")
	defer span.End()

	l := r.logger.With(slog.String("method", "ListPOIs"))

	query := `
        SELECT
            id,
            name,
            category,
            COALESCE(description, ''),
            latitude,
            longitude,
            COALESCE(address, ''),
            COALESCE(tags, '{}'),
            embedding
        FROM points_of_interest
        ORDER BY id
    `

	rows, err := r.pgpool.Query(ctx, query)
	if err != nil {
		l.ErrorContext(ctx, "Failed to query catalog", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Database query failed")
		return nil, fmt.Errorf("failed to list POIs: %w", err)
	}
	defer rows.Close()

	var pois []types.PointOfInterest
	for rows.Next() {
		var poi types.PointOfInterest
		var embedding *pgvector.Vector
		if err := rows.Scan(
			&poi.ID,
			&poi.Name,
			&poi.Category,
			&poi.Description,
			&poi.Latitude,
			&poi.Longitude,
			&poi.Address,
			&poi.Tags,
			&embedding,
		); err != nil {
			l.ErrorContext(ctx, "Failed to scan catalog row", slog.Any("error", err))
			span.RecordError(err)
			span.SetStatus(codes.Error, "Row scan failed")
			return nil, fmt.Errorf("failed to scan POI row: %w", err)
		}
		if embedding != nil {
			poi.Embedding = embedding.Slice()
		}
		pois = append(pois, poi)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Row iteration failed")
		return nil, fmt.Errorf("error iterating POI rows: %w", err)
	}

	span.SetAttributes(attribute.Int("catalog.size", len(pois)))
	l.DebugContext(ctx, "Catalog loaded", slog.Int("count", len(pois)))
	return pois, nil
}

func (r *RepositoryImpl) CountPOIs(ctx context.Context) (int, error) {
	ctx, span := otel.Tracer("CatalogRepository").Start(ctx, "CountPOIs")
	defer span.End()

	var count int
	err := r.pgpool.QueryRow(ctx, "SELECT COUNT(*) FROM points_of_interest").Scan(&count)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Count query failed")
		return 0, fmt.Errorf("failed to count POIs: %w", err)
	}
	return count, nil
}
