package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// VectorIndex answers nearest-neighbour queries over the catalog embeddings.
type VectorIndex interface {
	TopN(ctx context.Context, embedding []float32, n int) (map[uuid.UUID]float64, error)
}

// PGXQuerier is the query surface PGVectorIndex needs from a pgx pool.
type PGXQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

var _ VectorIndex = (*PGVectorIndex)(nil)

// PGVectorIndex runs cosine nearest-neighbour queries against the pgvector
// column on points_of_interest.
type PGVectorIndex struct {
	logger *slog.Logger
	pgpool PGXQuerier
}

func NewPGVectorIndex(pgpool PGXQuerier, logger *slog.Logger) *PGVectorIndex {
	return &PGVectorIndex{
		logger: logger,
		pgpool: pgpool,
	}
}

// TopN returns the n catalog ids closest to the query embedding, keyed by id
// with their cosine similarity in [0, 1]. Rows without embeddings never
// appear in the result.
func (idx *PGVectorIndex) TopN(ctx context.Context, embedding []float32, n int) (map[uuid.UUID]float64, error) {
	ctx, span := otel.Tracer("VectorIndex").Start(ctx, "TopN", trace.WithAttributes(
		attribute.Int("embedding.dimension", len(embedding)),
		attribute.Int("limit", n),
	))
	defer span.End()

	query := `
        SELECT
            id,
            1 - (embedding <=> $1::vector) AS similarity_score
        FROM points_of_interest
        WHERE embedding IS NOT NULL
        ORDER BY embedding <=> $1::vector
        LIMIT $2
    `

	rows, err := idx.pgpool.Query(ctx, query, pgvector.NewVector(embedding), n)
	if err != nil {
		idx.logger.ErrorContext(ctx, "Similarity query failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Database query failed")
		return nil, fmt.Errorf("failed to query similar POIs: %w", err)
	}
	defer rows.Close()

	scores := make(map[uuid.UUID]float64, n)
	for rows.Next() {
		var id uuid.UUID
		var score float64
		if err := rows.Scan(&id, &score); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Row scan failed")
			return nil, fmt.Errorf("failed to scan similarity row: %w", err)
		}
		scores[id] = score
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Row iteration failed")
		return nil, fmt.Errorf("error iterating similarity rows: %w", err)
	}

	span.SetAttributes(attribute.Int("results", len(scores)))
	return scores, nil
}

// CosineSimilarity computes the cosine similarity of two vectors. It is the
// in-process fallback when the index is unavailable, and returns 0 for
// mismatched or zero-magnitude inputs.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
