package planner

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ljunwei/go-date-planner/app/observability/metrics"
	"github.com/ljunwei/go-date-planner/internal/api/retrieval"
	"github.com/ljunwei/go-date-planner/internal/types"
)

// ScoredCandidate is a POI with its per-request ranking scores attached.
type ScoredCandidate struct {
	POI            types.PointOfInterest
	SemanticScore  float64
	ProximityScore float64
	CombinedScore  float64
}

const (
	semanticWeight  = 0.7
	proximityWeight = 0.3
)

// Diversity quotas for the sampled set. Food dominates because every meal
// slot draws from it; the non-food sub-quotas stop one category from
// crowding out the rest.
const (
	quotaFood       = 70
	quotaAttraction = 10
	quotaActivity   = 10
	quotaHeritage   = 10
)

// Ranker combines semantic relevance against a query built from the user's
// interests and date type with geographic proximity to the start point, then
// applies category-quota diversity sampling.
type Ranker struct {
	logger     *slog.Logger
	embedder   retrieval.Embedder
	index      retrieval.VectorIndex
	metrics    *metrics.AppMetrics
	poolSize   int
	sampleSize int
}

func NewRanker(embedder retrieval.Embedder, index retrieval.VectorIndex, appMetrics *metrics.AppMetrics, poolSize, sampleSize int, logger *slog.Logger) *Ranker {
	return &Ranker{
		logger:     logger,
		embedder:   embedder,
		index:      index,
		metrics:    appMetrics,
		poolSize:   poolSize,
		sampleSize: sampleSize,
	}
}

// Rank scores the filtered candidates and returns the diversity-sampled set,
// sorted by combined score descending with POI id as the tie-break. The
// returned flag reports whether retrieval ran degraded (vector index
// unavailable, brute-force similarity used instead).
func (r *Ranker) Rank(ctx context.Context, candidates []types.PointOfInterest, prefs types.UserPreferences) ([]ScoredCandidate, bool, error) {
	ctx, span := otel.Tracer("Ranker").Start(ctx, "Rank", trace.WithAttributes(
		attribute.Int("candidates", len(candidates)),
	))
	defer span.End()

	if r.metrics != nil {
		r.metrics.CandidatesRanked.Record(ctx, int64(len(candidates)))
	}

	query := BuildQueryText(prefs)
	semantic, degraded := r.semanticScores(ctx, query, candidates)
	proximity := proximityScores(candidates, prefs.StartLatitude, prefs.StartLongitude)

	scored := make([]ScoredCandidate, 0, len(candidates))
	for _, poi := range candidates {
		sem := semantic[poi.ID]
		prox := proximity[poi.ID]
		scored = append(scored, ScoredCandidate{
			POI:            poi,
			SemanticScore:  sem,
			ProximityScore: prox,
			CombinedScore:  semanticWeight*sem + proximityWeight*prox,
		})
	}
	sortByScore(scored)

	sampled := diversitySample(scored, r.sampleSize)
	span.SetAttributes(
		attribute.Int("sampled", len(sampled)),
		attribute.Bool("degraded", degraded),
	)
	return sampled, degraded, nil
}

// semanticScores resolves cosine similarity per candidate. The vector index
// is the fast path; when it errors the ranker falls back to brute-force
// cosine similarity over the candidate embeddings, which is slower but
// produces the same ordering. An embedding failure for the query itself
// zeroes the semantic signal and leaves proximity to carry the ranking.
func (r *Ranker) semanticScores(ctx context.Context, query string, candidates []types.PointOfInterest) (map[uuid.UUID]float64, bool) {
	queryEmbedding, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		r.logger.WarnContext(ctx, "Query embedding failed, ranking by proximity only",
			slog.Any("error", err))
		return map[uuid.UUID]float64{}, true
	}

	scores, err := r.index.TopN(ctx, queryEmbedding, r.poolSize)
	if err != nil {
		r.logger.WarnContext(ctx, "Vector index unavailable, using brute-force similarity",
			slog.Any("error", err))
		if r.metrics != nil {
			r.metrics.DegradedRetrievalTotal.Add(ctx, 1)
		}
		return bruteForceScores(queryEmbedding, candidates), true
	}

	// The index scores the whole catalog; keep only our candidates.
	filtered := make(map[uuid.UUID]float64, len(candidates))
	for _, poi := range candidates {
		if s, ok := scores[poi.ID]; ok {
			filtered[poi.ID] = clip01(s)
		}
	}
	return filtered, false
}

func bruteForceScores(queryEmbedding []float32, candidates []types.PointOfInterest) map[uuid.UUID]float64 {
	scores := make(map[uuid.UUID]float64, len(candidates))
	for _, poi := range candidates {
		if len(poi.Embedding) == 0 {
			continue
		}
		scores[poi.ID] = clip01(retrieval.CosineSimilarity(queryEmbedding, poi.Embedding))
	}
	return scores
}

// proximityScores normalizes Haversine distance from the start coordinates
// into [0, 1], closest scoring highest. POIs without coordinates score zero.
func proximityScores(candidates []types.PointOfInterest, startLat, startLon float64) map[uuid.UUID]float64 {
	distances := make(map[uuid.UUID]float64, len(candidates))
	maxDistance := 0.0
	for _, poi := range candidates {
		if !poi.HasCoordinates() {
			continue
		}
		d := haversineKm(startLat, startLon, poi.Latitude, poi.Longitude)
		distances[poi.ID] = d
		if d > maxDistance {
			maxDistance = d
		}
	}

	scores := make(map[uuid.UUID]float64, len(candidates))
	for id, d := range distances {
		if maxDistance > 0 {
			scores[id] = clip01(1.0 - d/maxDistance)
		} else {
			scores[id] = 1.0
		}
	}
	return scores
}

// BuildQueryText renders the preferences into the semantic query string.
// Deterministic for identical inputs so the embedding cache can key on it.
func BuildQueryText(prefs types.UserPreferences) string {
	var parts []string

	if len(prefs.Interests) > 0 {
		descriptions := make([]string, 0, len(prefs.Interests))
		for _, interest := range prefs.Interests {
			if desc, ok := interestDescriptions[interest]; ok {
				descriptions = append(descriptions, desc)
			} else {
				descriptions = append(descriptions, interest)
			}
		}
		parts = append(parts, "interested in "+strings.Join(descriptions, ", "))
	}

	parts = append(parts, ProfileFor(prefs.DateType).VibeQuery)

	if desc, ok := budgetDescriptions[prefs.BudgetTier]; ok {
		parts = append(parts, desc)
	}

	return strings.Join(parts, " ")
}

var interestDescriptions = map[string]string{
	"food":     "restaurants, cafes, food markets, local cuisine",
	"culture":  "museums, galleries, cultural sites, heritage locations",
	"nature":   "parks, gardens, outdoor spaces, scenic views",
	"sports":   "sports facilities, fitness centers, active activities",
	"art":      "art galleries, exhibitions, creative spaces, artistic venues",
	"shopping": "shopping malls, markets, boutiques, retail areas",
}

var budgetDescriptions = map[types.BudgetTier]string{
	types.BudgetLow:    "budget-friendly, affordable, cheap options",
	types.BudgetMedium: "moderate pricing, mid-range, casual dining",
	types.BudgetHigh:   "upscale, fine dining, premium experiences",
}

// diversitySample selects up to limit candidates under per-category minimum
// quotas: first each category takes its quota in ranked order, then any
// remaining slots backfill from the next-best remainder regardless of
// category. Input must already be sorted by sortByScore; the output keeps
// that order.
func diversitySample(scored []ScoredCandidate, limit int) []ScoredCandidate {
	if len(scored) <= limit {
		return scored
	}

	quotas := map[types.Category]int{
		types.CategoryFood:       quotaFood,
		types.CategoryAttraction: quotaAttraction,
		types.CategoryActivity:   quotaActivity,
		types.CategoryHeritage:   quotaHeritage,
	}

	selected := make([]ScoredCandidate, 0, limit)
	taken := make(map[uuid.UUID]bool, limit)

	for _, c := range scored {
		if len(selected) == limit {
			break
		}
		if quotas[c.POI.Category] > 0 {
			quotas[c.POI.Category]--
			selected = append(selected, c)
			taken[c.POI.ID] = true
		}
	}

	// Backfill shortfalls from the best remaining candidates.
	for _, c := range scored {
		if len(selected) == limit {
			break
		}
		if !taken[c.POI.ID] {
			selected = append(selected, c)
			taken[c.POI.ID] = true
		}
	}

	sortByScore(selected)
	return selected
}

// sortByScore orders by combined score descending, breaking ties by POI id
// so identical inputs always produce identical output.
func sortByScore(scored []ScoredCandidate) {
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].CombinedScore != scored[j].CombinedScore {
			return scored[i].CombinedScore > scored[j].CombinedScore
		}
		return scored[i].POI.ID.String() < scored[j].POI.ID.String()
	})
}

func clip01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// SplitByCategory partitions scored candidates preserving order.
func SplitByCategory(scored []ScoredCandidate) map[types.Category][]ScoredCandidate {
	groups := make(map[types.Category][]ScoredCandidate, 4)
	for _, c := range scored {
		groups[c.POI.Category] = append(groups[c.POI.Category], c)
	}
	return groups
}
