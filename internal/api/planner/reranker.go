package planner

import (
	"context"
	"log/slog"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ljunwei/go-date-planner/internal/api/retrieval"
	"github.com/ljunwei/go-date-planner/internal/types"
)

// VibeReranker re-orders food candidates by similarity to the date type's
// vibe profile. This catches thematic fit that keyword matching misses: a
// venue describing "sunset views over the marina" ranks high for romantic
// without containing the word.
type VibeReranker struct {
	logger   *slog.Logger
	embedder retrieval.Embedder
}

func NewVibeReranker(embedder retrieval.Embedder, logger *slog.Logger) *VibeReranker {
	return &VibeReranker{
		logger:   logger,
		embedder: embedder,
	}
}

// RerankFood returns the food candidates sorted by vibe similarity
// descending, id tie-break. Non-food candidates are not touched by this
// stage. If the vibe embedding cannot be produced the hybrid-ranked order is
// kept as-is.
func (v *VibeReranker) RerankFood(ctx context.Context, food []ScoredCandidate, dateType types.DateType) []ScoredCandidate {
	ctx, span := otel.Tracer("VibeReranker").Start(ctx, "RerankFood", trace.WithAttributes(
		attribute.String("date_type", string(dateType)),
		attribute.Int("candidates", len(food)),
	))
	defer span.End()

	if len(food) < 2 {
		return food
	}

	profile := ProfileFor(dateType)
	vibeEmbedding, err := v.embedder.EmbedQuery(ctx, profile.VibeQuery)
	if err != nil {
		v.logger.WarnContext(ctx, "Vibe embedding failed, keeping hybrid order",
			slog.String("date_type", string(dateType)),
			slog.Any("error", err))
		return food
	}

	type vibeScored struct {
		candidate ScoredCandidate
		score     float64
	}
	scored := make([]vibeScored, 0, len(food))
	for _, c := range food {
		scored = append(scored, vibeScored{
			candidate: c,
			score:     retrieval.CosineSimilarity(vibeEmbedding, c.POI.Embedding),
		})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].candidate.POI.ID.String() < scored[j].candidate.POI.ID.String()
	})

	reranked := make([]ScoredCandidate, 0, len(food))
	for _, s := range scored {
		reranked = append(reranked, s.candidate)
	}
	return reranked
}
