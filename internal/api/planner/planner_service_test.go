package planner

import (
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ljunwei/go-date-planner/internal/api/catalog"
	"github.com/ljunwei/go-date-planner/internal/types"
)

type fixedCatalogRepo struct {
	pois []types.PointOfInterest
}

func (f *fixedCatalogRepo) ListPOIs(_ context.Context) ([]types.PointOfInterest, error) {
	return f.pois, nil
}

func (f *fixedCatalogRepo) CountPOIs(_ context.Context) (int, error) {
	return len(f.pois), nil
}

func newTestService(t *testing.T, pois []types.PointOfInterest, loaded bool) *ServiceImpl {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)

	cat := catalog.NewCatalog(&fixedCatalogRepo{pois: pois}, logger)
	if loaded {
		require.NoError(t, cat.Load(context.Background()))
	}

	scores := map[uuid.UUID]float64{}
	for i, poi := range pois {
		scores[poi.ID] = 0.9 - float64(i)*0.1
	}

	embedder := &stubEmbedder{vector: []float32{1, 0}}
	index := &stubIndex{scores: scores}
	tables := DefaultRuleTables()

	return NewService(
		cat,
		NewRuleFilter(tables, logger),
		NewRanker(embedder, index, nil, 200, 100, logger),
		NewVibeReranker(embedder, logger),
		NewScheduler(NewClassifier(tables), logger),
		NewAssembler(),
		nil,
		logger,
	)
}

func servicePOI(name string, category types.Category, description string, lat, lon float64) types.PointOfInterest {
	return types.PointOfInterest{
		ID:          uuid.New(),
		Name:        name,
		Category:    category,
		Description: description,
		Address:     "some street",
		Latitude:    lat,
		Longitude:   lon,
		Embedding:   []float32{1, 0},
	}
}

func TestService_PlanDateEndToEnd(t *testing.T) {
	pois := []types.PointOfInterest{
		servicePOI("Ya Kun", types.CategoryFood, "kopi cafe with kaya toast", 1.28, 103.85),
		servicePOI("Fort Canning", types.CategoryAttraction, "hilltop park with walking trail", 1.29, 103.846),
		servicePOI("Maxwell Food Centre", types.CategoryFood, "hawker food centre", 1.280, 103.844),
		servicePOI("National Museum", types.CategoryHeritage, "heritage museum", 1.296, 103.848),
	}
	svc := newTestService(t, pois, true)

	resp, err := svc.PlanDate(context.Background(), types.PlanRequest{
		StartTime:      "09:00",
		EndTime:        "12:00",
		StartLatitude:  floatPtr(1.28),
		StartLongitude: floatPtr(103.85),
		BudgetTier:     "$$",
		DateType:       "casual",
	})
	require.NoError(t, err)
	require.NotNil(t, resp)

	require.NotEmpty(t, resp.Itinerary)
	assert.Equal(t, "09:00", resp.Itinerary[0].StartTime)
	assert.Equal(t, LabelBreakfast, resp.Itinerary[0].Activity)
	assert.GreaterOrEqual(t, resp.CoverageRatio, minCoverage)
	assert.Contains(t, resp.Summary, "casual date")

	assert.Equal(t, 4, resp.Stats.TotalPOIs)
	assert.Equal(t, 4, resp.Stats.FilteredPOIs)
	assert.Equal(t, len(resp.Itinerary), resp.Stats.FinalStops)
	assert.False(t, resp.Stats.DegradedRetrieval)

	// Unscheduled venues surface as alternatives, never scheduled ones.
	for _, alt := range resp.Alternatives {
		for _, stop := range resp.Itinerary {
			assert.NotContains(t, alt, ": "+stop.Location+" -")
		}
	}
}

func TestService_ExclusionsFilterEndToEnd(t *testing.T) {
	pois := []types.PointOfInterest{
		servicePOI("Ya Kun", types.CategoryFood, "kopi cafe with kaya toast", 1.28, 103.85),
		servicePOI("Botanic Gardens", types.CategoryAttraction, "lush garden with nature trail", 1.313, 103.815),
		servicePOI("ActiveSG Gym", types.CategoryActivity, "gym and fitness centre", 1.282, 103.852),
		servicePOI("National Museum", types.CategoryHeritage, "heritage museum", 1.296, 103.848),
	}
	svc := newTestService(t, pois, true)

	resp, err := svc.PlanDate(context.Background(), types.PlanRequest{
		StartTime:      "09:00",
		EndTime:        "12:00",
		StartLatitude:  floatPtr(1.28),
		StartLongitude: floatPtr(103.85),
		BudgetTier:     "$$",
		DateType:       "casual",
		Exclusions:     []string{"sports", "nature"},
	})
	require.NoError(t, err)

	var locations []string
	for _, stop := range resp.Itinerary {
		locations = append(locations, stop.Location)
	}
	assert.Contains(t, locations, "National Museum")
	for _, loc := range locations {
		assert.NotEqual(t, "ActiveSG Gym", loc)
		assert.NotEqual(t, "Botanic Gardens", loc)
	}
	for _, alt := range resp.Alternatives {
		assert.NotContains(t, alt, "ActiveSG Gym")
		assert.NotContains(t, alt, "Botanic Gardens")
	}
}

func TestService_CatalogNotReady(t *testing.T) {
	svc := newTestService(t, nil, false)

	_, err := svc.PlanDate(context.Background(), types.PlanRequest{
		StartTime:      "09:00",
		StartLatitude:  floatPtr(1.28),
		StartLongitude: floatPtr(103.85),
	})
	assert.ErrorIs(t, err, types.ErrCatalogNotReady)
}

func TestService_ValidationErrorShortCircuits(t *testing.T) {
	svc := newTestService(t, nil, true)

	_, err := svc.PlanDate(context.Background(), types.PlanRequest{})
	var validationErr *types.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestService_NoFoodIsUnsatisfiable(t *testing.T) {
	pois := []types.PointOfInterest{
		servicePOI("Fort Canning", types.CategoryAttraction, "hilltop park with walking trail", 1.29, 103.846),
	}
	svc := newTestService(t, pois, true)

	_, err := svc.PlanDate(context.Background(), types.PlanRequest{
		StartTime:      "09:00",
		EndTime:        "12:00",
		StartLatitude:  floatPtr(1.28),
		StartLongitude: floatPtr(103.85),
	})
	var insufficientErr *types.InsufficientCandidatesError
	assert.ErrorAs(t, err, &insufficientErr)
}
