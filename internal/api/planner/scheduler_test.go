package planner

import (
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ljunwei/go-date-planner/internal/types"
)

func venue(name string, category types.Category, description string, lat, lon float64) ScoredCandidate {
	return ScoredCandidate{
		POI: types.PointOfInterest{
			ID:          uuid.New(),
			Name:        name,
			Category:    category,
			Description: description,
			Latitude:    lat,
			Longitude:   lon,
		},
	}
}

func newTestScheduler() *Scheduler {
	return NewScheduler(NewClassifier(DefaultRuleTables()), slog.New(slog.DiscardHandler))
}

func prefsFor(t *testing.T, start, end string, tier types.BudgetTier, dateType types.DateType) types.UserPreferences {
	t.Helper()
	s, err := types.ParseClock(start)
	require.NoError(t, err)
	e, err := types.ParseClock(end)
	require.NoError(t, err)
	return types.UserPreferences{
		Start:          s,
		End:            e,
		StartLatitude:  1.28,
		StartLongitude: 103.85,
		BudgetTier:     tier,
		DateType:       dateType,
	}
}

func TestScheduler_MorningDate(t *testing.T) {
	s := newTestScheduler()
	food := []ScoredCandidate{venue("Ya Kun", types.CategoryFood, "kopi cafe with kaya toast", 1.28, 103.85)}
	nonFood := []ScoredCandidate{venue("Marina Promenade", types.CategoryAttraction, "waterfront park with scenic walk", 1.29, 103.86)}
	prefs := prefsFor(t, "09:00", "12:00", types.BudgetMedium, types.DateCasual)

	itinerary, err := s.Schedule(context.Background(), food, nonFood, prefs)
	require.NoError(t, err)
	require.Len(t, itinerary.Stops, 2)

	breakfast := itinerary.Stops[0]
	assert.Equal(t, LabelBreakfast, breakfast.Label)
	assert.Equal(t, "09:00", breakfast.Start.String())
	assert.Equal(t, "10:00", breakfast.End.String())
	assert.Equal(t, flatCoffeeCost, breakfast.CostEstimate)
	assert.Zero(t, breakfast.TravelHours, "first stop has no travel")

	walk := itinerary.Stops[1]
	assert.Equal(t, LabelWalk, walk.Label)
	assert.Equal(t, "10:06", walk.Start.String(), "6 minutes of travel from the cafe")
	assert.Equal(t, "12:00", walk.End.String())
	assert.InDelta(t, 0.1, walk.TravelHours, 1e-9)

	assert.InDelta(t, 1.0+1.9, itinerary.TotalHours*itinerary.CoverageRatio, 1e-9)
	assert.InDelta(t, 10, itinerary.CostMin, 1e-9)
	assert.InDelta(t, 30, itinerary.CostMax, 1e-9)
}

func TestScheduler_EveningDateNoLateDinner(t *testing.T) {
	s := newTestScheduler()
	food := []ScoredCandidate{venue("Odette", types.CategoryFood, "upscale fine dining", 1.29, 103.85)}
	nonFood := []ScoredCandidate{venue("Singapore Flyer", types.CategoryAttraction, "giant observation wheel", 1.289, 103.863)}
	prefs := prefsFor(t, "18:00", "22:00", types.BudgetHigh, types.DateRomantic)

	itinerary, err := s.Schedule(context.Background(), food, nonFood, prefs)
	require.NoError(t, err)
	require.Len(t, itinerary.Stops, 2)

	dinner := itinerary.Stops[0]
	assert.Equal(t, LabelDinner, dinner.Label)
	assert.Equal(t, "18:00", dinner.Start.String())
	assert.Equal(t, "20:00", dinner.End.String())
	assert.InDelta(t, 60, dinner.CostEstimate, 1e-9)

	assert.Equal(t, LabelAttractionVisit, itinerary.Stops[1].Label)

	for _, stop := range itinerary.Stops {
		assert.NotEqual(t, LabelLateDinner, stop.Label,
			"Late Dinner only applies to dates that start late")
	}
	assert.InDelta(t, 60, itinerary.CostMin, 1e-9)
	assert.InDelta(t, 80, itinerary.CostMax, 1e-9)
}

func TestScheduler_ShortLunchDate(t *testing.T) {
	s := newTestScheduler()
	food := []ScoredCandidate{venue("Curry House", types.CategoryFood, "casual family restaurant", 1.28, 103.85)}
	prefs := prefsFor(t, "12:00", "14:00", types.BudgetMedium, types.DateCasual)

	itinerary, err := s.Schedule(context.Background(), food, nil, prefs)
	require.NoError(t, err)
	require.Len(t, itinerary.Stops, 1)

	lunch := itinerary.Stops[0]
	assert.Equal(t, LabelLunch, lunch.Label)
	assert.Equal(t, "12:00", lunch.Start.String())
	assert.Equal(t, "13:30", lunch.End.String())
	assert.InDelta(t, 35*0.8, lunch.CostEstimate, 1e-9)

	// Two hours or less is exempt from the coverage floor.
	assert.InDelta(t, 0.75, itinerary.CoverageRatio, 1e-9)
}

func TestScheduler_LateNightDateCrossesMidnight(t *testing.T) {
	s := newTestScheduler()
	food := []ScoredCandidate{venue("Supper Club", types.CategoryFood, "casual late night eatery", 1.28, 103.85)}
	nonFood := []ScoredCandidate{venue("Clarke Quay", types.CategoryAttraction, "riverside waterfront walk", 1.289, 103.846)}
	prefs := prefsFor(t, "21:30", "01:30", types.BudgetMedium, types.DateCasual)

	require.InDelta(t, 4.0, prefs.DurationHours(), 1e-9, "end before start means next day")

	itinerary, err := s.Schedule(context.Background(), food, nonFood, prefs)
	require.NoError(t, err)
	require.Len(t, itinerary.Stops, 2)

	lateDinner := itinerary.Stops[0]
	assert.Equal(t, LabelLateDinner, lateDinner.Label)
	assert.Equal(t, "21:30", lateDinner.Start.String())
	assert.Equal(t, "23:30", lateDinner.End.String())

	walk := itinerary.Stops[1]
	assert.Equal(t, "01:30", walk.End.String(), "final stop runs up to the end past midnight")
}

func TestScheduler_SingleSportsStop(t *testing.T) {
	s := newTestScheduler()
	food := []ScoredCandidate{
		venue("Ya Kun", types.CategoryFood, "kopi cafe with kaya toast", 1.28, 103.85),
		venue("Curry House", types.CategoryFood, "casual family restaurant", 1.281, 103.851),
	}
	nonFood := []ScoredCandidate{
		venue("ActiveSG Gym", types.CategoryActivity, "gym and fitness centre", 1.282, 103.852),
		venue("Kallang Tennis Hub", types.CategoryActivity, "indoor tennis courts", 1.283, 103.853),
	}
	prefs := prefsFor(t, "09:00", "14:00", types.BudgetMedium, types.DateAdventurous)

	itinerary, err := s.Schedule(context.Background(), food, nonFood, prefs)
	require.NoError(t, err)

	sports := 0
	for _, stop := range itinerary.Stops {
		if stop.POI.Category == types.CategoryActivity {
			sports++
		}
	}
	assert.Equal(t, 1, sports, "at most one sports stop per plan")
}

func TestScheduler_UnfillableMealSlotLeftEmpty(t *testing.T) {
	s := newTestScheduler()
	// The only food venue fails the strict breakfast qualification and there
	// is no hawker fallback: the breakfast slot stays empty rather than
	// seating the date at a bar.
	food := []ScoredCandidate{venue("Atlas", types.CategoryFood, "gin bar with late night supper", 1.28, 103.85)}
	nonFood := []ScoredCandidate{venue("Fort Canning", types.CategoryAttraction, "hilltop park with walking trail", 1.29, 103.846)}
	prefs := prefsFor(t, "09:00", "12:00", types.BudgetMedium, types.DateCasual)

	itinerary, err := s.Schedule(context.Background(), food, nonFood, prefs)
	require.NoError(t, err)
	require.Len(t, itinerary.Stops, 1)
	assert.Equal(t, LabelWalk, itinerary.Stops[0].Label)
	assert.Equal(t, 0, itinerary.MealCount(LabelBreakfast))
	assert.Zero(t, itinerary.CostMin)
}

func TestScheduler_ExtendsFinalActivityForCoverage(t *testing.T) {
	s := newTestScheduler()
	// No food at all: the single walk covers two of four hours and must be
	// stretched to reach the coverage floor.
	nonFood := []ScoredCandidate{venue("Fort Canning", types.CategoryAttraction, "hilltop park with walking trail", 1.29, 103.846)}
	prefs := prefsFor(t, "09:00", "13:00", types.BudgetMedium, types.DateCasual)

	itinerary, err := s.Schedule(context.Background(), nil, nonFood, prefs)
	require.NoError(t, err)
	require.Len(t, itinerary.Stops, 1)

	walk := itinerary.Stops[0]
	assert.Equal(t, LabelWalk, walk.Label)
	assert.InDelta(t, 3.0, walk.DurationHours, 1e-9, "final activity stretched to close the shortfall")
	assert.Equal(t, "12:00", walk.End.String())
	assert.InDelta(t, minCoverage, itinerary.CoverageRatio, 1e-9)
}

func TestScheduler_CoverageErrorWhenMealsCannotFillDay(t *testing.T) {
	s := newTestScheduler()
	// A ten-hour day with food only: all four meals get placed (reusing the
	// one venue) but meals alone cannot reach the coverage floor.
	food := []ScoredCandidate{venue("Ya Kun", types.CategoryFood, "kopi cafe with kaya toast", 1.28, 103.85)}
	prefs := prefsFor(t, "09:00", "19:00", types.BudgetMedium, types.DateCasual)

	_, err := s.Schedule(context.Background(), food, nil, prefs)
	var coverageErr *types.CoverageError
	require.ErrorAs(t, err, &coverageErr)
	assert.Less(t, coverageErr.Ratio, minCoverage)
	assert.InDelta(t, 0.54, coverageErr.Ratio, 1e-6,
		"breakfast, lunch, coffee and dinner sum to 5.4 of 10 hours")
}

func TestScheduler_ReusesFoodVenueWhenPoolExhausted(t *testing.T) {
	s := newTestScheduler()
	yaKun := venue("Ya Kun", types.CategoryFood, "kopi cafe with kaya toast", 1.28, 103.85)
	food := []ScoredCandidate{yaKun}
	nonFood := []ScoredCandidate{
		venue("Fort Canning", types.CategoryAttraction, "hilltop park with walking trail", 1.29, 103.846),
		venue("National Museum", types.CategoryHeritage, "heritage museum", 1.296, 103.848),
	}
	prefs := prefsFor(t, "09:00", "19:00", types.BudgetMedium, types.DateCasual)

	itinerary, err := s.Schedule(context.Background(), food, nonFood, prefs)
	require.NoError(t, err)
	require.Len(t, itinerary.Stops, 6)

	assert.Equal(t, 1, itinerary.MealCount(LabelBreakfast))
	assert.Equal(t, 1, itinerary.MealCount(LabelLunch))
	assert.Equal(t, 1, itinerary.MealCount(LabelCoffeeBreak))
	assert.Equal(t, 1, itinerary.MealCount(LabelDinner))
	for _, stop := range itinerary.Stops {
		if stop.IsMeal {
			assert.Equal(t, yaKun.POI.ID, stop.POI.ID, "every meal reuses the only food venue")
		}
	}
	assert.GreaterOrEqual(t, itinerary.CoverageRatio, minCoverage)
}

func TestScheduler_CostBandScalesWithMealCount(t *testing.T) {
	s := newTestScheduler()
	food := []ScoredCandidate{
		venue("Ya Kun", types.CategoryFood, "kopi cafe with kaya toast", 1.28, 103.85),
		venue("Curry House", types.CategoryFood, "casual family restaurant", 1.281, 103.851),
	}
	nonFood := []ScoredCandidate{venue("Fort Canning", types.CategoryAttraction, "hilltop park with walking trail", 1.29, 103.846)}
	prefs := prefsFor(t, "09:00", "14:00", types.BudgetMedium, types.DateCasual)

	itinerary, err := s.Schedule(context.Background(), food, nonFood, prefs)
	require.NoError(t, err)

	// Breakfast at $10 plus lunch at $28, each widening the range by $20.
	assert.Equal(t, 2, itinerary.MealCount(LabelBreakfast)+itinerary.MealCount(LabelLunch))
	assert.InDelta(t, 38, itinerary.CostMin, 1e-9)
	assert.InDelta(t, 78, itinerary.CostMax, 1e-9)
}

func TestScheduler_FullDaySequencing(t *testing.T) {
	s := newTestScheduler()
	food := []ScoredCandidate{
		venue("Ya Kun", types.CategoryFood, "kopi cafe with kaya toast", 1.28, 103.85),
		venue("Curry House", types.CategoryFood, "casual family restaurant", 1.281, 103.851),
		venue("Tiong Bahru Bakery", types.CategoryFood, "bakery cafe with pastry", 1.282, 103.852),
		venue("Odette", types.CategoryFood, "upscale fine dining", 1.283, 103.853),
	}
	nonFood := []ScoredCandidate{
		venue("Fort Canning", types.CategoryAttraction, "hilltop park with walking trail", 1.284, 103.854),
		venue("National Museum", types.CategoryHeritage, "heritage museum", 1.285, 103.855),
		venue("ActiveSG Gym", types.CategoryActivity, "gym and fitness centre", 1.286, 103.856),
	}
	prefs := prefsFor(t, "10:00", "18:00", types.BudgetMedium, types.DateCasual)
	prefs.Exclusions = []types.ExclusionCategory{types.ExcludeSports}

	itinerary, err := s.Schedule(context.Background(), food, nonFood, prefs)
	require.NoError(t, err)

	var labels []string
	for _, stop := range itinerary.Stops {
		labels = append(labels, stop.Label)
		assert.NotEqual(t, types.CategoryActivity, stop.POI.Category, "sports excluded")
	}
	assert.Equal(t, []string{LabelBreakfast, LabelWalk, LabelLunch, LabelCoffeeBreak, LabelCulturalVisit, LabelDinner}, labels)
	assert.Equal(t, 1, itinerary.MealCount(LabelCoffeeBreak))
	assert.GreaterOrEqual(t, itinerary.CoverageRatio, minCoverage)
}

func TestScheduler_Deterministic(t *testing.T) {
	s := newTestScheduler()
	food := []ScoredCandidate{
		venue("Ya Kun", types.CategoryFood, "kopi cafe with kaya toast", 1.28, 103.85),
		venue("Curry House", types.CategoryFood, "casual family restaurant", 1.281, 103.851),
	}
	nonFood := []ScoredCandidate{
		venue("Fort Canning", types.CategoryAttraction, "hilltop park with walking trail", 1.29, 103.846),
		venue("National Museum", types.CategoryHeritage, "heritage museum", 1.296, 103.848),
	}
	prefs := prefsFor(t, "09:00", "15:00", types.BudgetMedium, types.DateCasual)

	first, err := s.Schedule(context.Background(), food, nonFood, prefs)
	require.NoError(t, err)
	second, err := s.Schedule(context.Background(), food, nonFood, prefs)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestScheduler_StopsNeverOverlap(t *testing.T) {
	s := newTestScheduler()
	food := []ScoredCandidate{
		venue("Ya Kun", types.CategoryFood, "kopi cafe with kaya toast", 1.28, 103.85),
		venue("Curry House", types.CategoryFood, "casual family restaurant", 1.30, 103.87),
		venue("Tiong Bahru Bakery", types.CategoryFood, "bakery cafe with pastry", 1.285, 103.83),
	}
	nonFood := []ScoredCandidate{
		venue("Fort Canning", types.CategoryAttraction, "hilltop park with walking trail", 1.29, 103.846),
		venue("National Museum", types.CategoryHeritage, "heritage museum", 1.296, 103.848),
		venue("Mustafa Centre", types.CategoryAttraction, "24-hour shopping mall", 1.31, 103.855),
	}
	prefs := prefsFor(t, "09:00", "18:00", types.BudgetMedium, types.DateCasual)

	itinerary, err := s.Schedule(context.Background(), food, nonFood, prefs)
	require.NoError(t, err)
	require.NotEmpty(t, itinerary.Stops)

	// Displayed times are rounded to whole minutes, so allow a minute of
	// drift when reconstructing elapsed positions from them.
	const minuteTolerance = 1.0 / 60
	elapsed := 0.0
	for i, stop := range itinerary.Stops {
		start := prefs.Start.HoursUntil(stop.Start)
		end := start + stop.DurationHours
		assert.GreaterOrEqual(t, start+minuteTolerance, elapsed, "stop %d overlaps its predecessor", i)
		assert.Greater(t, stop.DurationHours, 0.0)
		elapsed = end
	}
}

func TestTravelHoursBetween(t *testing.T) {
	withCoords := types.PointOfInterest{Latitude: 1.28, Longitude: 103.85}
	nearby := types.PointOfInterest{Latitude: 1.281, Longitude: 103.851}
	distant := types.PointOfInterest{Latitude: 1.90, Longitude: 104.50}
	noCoords := types.PointOfInterest{}

	assert.InDelta(t, travelFallback, TravelHoursBetween(withCoords, noCoords), 1e-9)
	assert.InDelta(t, travelFallback, TravelHoursBetween(noCoords, withCoords), 1e-9)
	assert.InDelta(t, minTravelHours, TravelHoursBetween(withCoords, nearby), 1e-9,
		"very close pairs clamp to the 6-minute floor")
	assert.InDelta(t, maxTravelHours, TravelHoursBetween(withCoords, distant), 1e-9,
		"distant pairs clamp to the 60-minute ceiling")
	assert.InDelta(t, minTravelHours, TravelHoursBetween(withCoords, withCoords), 1e-9)
}

func TestMealWindows_LunchWinsSharedBoundary(t *testing.T) {
	s := newTestScheduler()
	two, err := types.ParseClock("14:00")
	require.NoError(t, err)

	w := s.openWindow(mealWindows(), two, map[string]bool{}, false)
	require.NotNil(t, w)
	assert.Equal(t, LabelLunch, w.Label, "14:00 belongs to Lunch, not Coffee Break")

	w = s.openWindow(mealWindows(), two, map[string]bool{LabelLunch: true}, false)
	require.NotNil(t, w)
	assert.Equal(t, LabelCoffeeBreak, w.Label)
}
