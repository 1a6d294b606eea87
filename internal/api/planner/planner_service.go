package planner

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ljunwei/go-date-planner/app/observability/metrics"
	"github.com/ljunwei/go-date-planner/internal/api/catalog"
	"github.com/ljunwei/go-date-planner/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

// Service runs the full planning pipeline for one request.
type Service interface {
	PlanDate(ctx context.Context, req types.PlanRequest) (*types.PlanResponse, error)
}

// ServiceImpl wires the pipeline stages together. Every stage is pure with
// respect to shared state: the catalog snapshot is immutable, so concurrent
// requests need no locking.
type ServiceImpl struct {
	logger    *slog.Logger
	catalog   *catalog.Catalog
	filter    *RuleFilter
	ranker    *Ranker
	reranker  *VibeReranker
	scheduler *Scheduler
	assembler *Assembler
	metrics   *metrics.AppMetrics
}

func NewService(cat *catalog.Catalog, filter *RuleFilter, ranker *Ranker, reranker *VibeReranker, scheduler *Scheduler, assembler *Assembler, appMetrics *metrics.AppMetrics, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:    logger,
		catalog:   cat,
		filter:    filter,
		ranker:    ranker,
		reranker:  reranker,
		scheduler: scheduler,
		assembler: assembler,
		metrics:   appMetrics,
	}
}

// PlanDate validates the request and runs filter, rank, vibe re-rank,
// schedule and assemble in order.
func (s *ServiceImpl) PlanDate(ctx context.Context, req types.PlanRequest) (*types.PlanResponse, error) {
	ctx, span := otel.Tracer("PlannerService").Start(ctx, "PlanDate", trace.WithAttributes(
		attribute.String("date_type", req.DateType),
		attribute.String("budget_tier", req.BudgetTier),
	))
	defer span.End()

	started := time.Now()
	resp, err := s.plan(ctx, req)
	if s.metrics != nil {
		s.metrics.PlanDurationSeconds.Record(ctx, time.Since(started).Seconds())
		if err != nil {
			s.metrics.PlanFailuresTotal.Add(ctx, 1)
		} else {
			s.metrics.PlansGeneratedTotal.Add(ctx, 1)
		}
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Planning failed")
		return nil, err
	}
	span.SetAttributes(attribute.Int("stops", len(resp.Itinerary)))
	return resp, nil
}

func (s *ServiceImpl) plan(ctx context.Context, req types.PlanRequest) (*types.PlanResponse, error) {
	prefs, err := PreferencesFromRequest(req)
	if err != nil {
		return nil, err
	}

	pois, err := s.catalog.Snapshot()
	if err != nil {
		return nil, err
	}

	candidates, filterStats, err := s.filter.Filter(ctx, pois, prefs)
	if err != nil {
		return nil, err
	}

	ranked, degraded, err := s.ranker.Rank(ctx, candidates, prefs)
	if err != nil {
		return nil, err
	}

	groups := SplitByCategory(ranked)
	food := s.reranker.RerankFood(ctx, groups[types.CategoryFood], prefs.DateType)

	var nonFood []ScoredCandidate
	for _, c := range ranked {
		if c.POI.Category != types.CategoryFood {
			nonFood = append(nonFood, c)
		}
	}

	itinerary, err := s.scheduler.Schedule(ctx, food, nonFood, prefs)
	if err != nil {
		return nil, err
	}

	used := make(map[string]bool, len(itinerary.Stops))
	for _, stop := range itinerary.Stops {
		used[stop.POI.ID.String()] = true
	}
	groups[types.CategoryFood] = food
	alternatives := s.assembler.BuildAlternatives(groups, used)

	stats := types.ProcessingStats{
		TotalPOIs:         len(pois),
		FilteredPOIs:      filterStats.Remaining,
		RankedPOIs:        len(ranked),
		DegradedRetrieval: degraded,
	}
	resp := s.assembler.Assemble(itinerary, prefs, alternatives, stats)

	s.logger.InfoContext(ctx, "Plan generated",
		slog.Int("stops", len(resp.Itinerary)),
		slog.Float64("coverage", resp.CoverageRatio),
		slog.String("date_type", string(prefs.DateType)))
	return &resp, nil
}
