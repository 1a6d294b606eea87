package planner

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ljunwei/go-date-planner/internal/types"
)

// Scheduling constants. Travel is estimated over the straight-line distance
// at an assumed 30 km/h average, clamped to keep estimates sane for very
// close or very far pairs.
const (
	averageSpeedKmh   = 30.0
	minTravelHours    = 0.1  // 6 minutes
	maxTravelHours    = 1.0  // 60 minutes
	travelFallback    = 0.25 // 15 minutes when coordinates are missing
	minSlotHours      = 0.5  // nothing shorter than 30 minutes gets scheduled
	activityNominal   = 2.0
	minCoverage       = 0.75
	coverageExemptDur = 2.0 // dates this short skip the coverage check
)

// Flat cost for breakfast and coffee stops; meal costs otherwise derive from
// the budget tier base.
const flatCoffeeCost = 10.0

// Each costed stop widens the itinerary's cost range by this much.
const costBandPerMeal = 20.0

var budgetMealBase = map[types.BudgetTier]float64{
	types.BudgetLow:    15,
	types.BudgetMedium: 35,
	types.BudgetHigh:   60,
}

// mealWindow is one row of the canonical meal-time table. Windows are
// matched in order against the running clock; Lunch wins the 14:00 boundary
// over Coffee Break because it appears first.
type mealWindow struct {
	Label          string
	Start, End     types.Clock
	DurationHours  float64
	CostMultiplier float64 // of the budget base; 0 means the flat coffee cost
	LateNightOnly  bool    // only applies when the date itself starts late
	Strict         bool    // venue must pass the breakfast/cafe qualification
}

func mealWindows() []mealWindow {
	return []mealWindow{
		{Label: LabelBreakfast, Start: mustClock("06:00"), End: mustClock("11:00"), DurationHours: 1.0, Strict: true},
		{Label: LabelLunch, Start: mustClock("12:00"), End: mustClock("14:00"), DurationHours: 1.5, CostMultiplier: 0.8},
		{Label: LabelCoffeeBreak, Start: mustClock("14:00"), End: mustClock("16:00"), DurationHours: 1.0, Strict: true},
		{Label: LabelDinner, Start: mustClock("17:00"), End: mustClock("20:00"), DurationHours: 2.0, CostMultiplier: 1.0},
		{Label: LabelLateDinner, Start: mustClock("21:00"), End: mustClock("02:00"), DurationHours: 2.0, CostMultiplier: 1.0, LateNightOnly: true},
	}
}

func mustClock(s string) types.Clock {
	c, err := types.ParseClock(s)
	if err != nil {
		panic(fmt.Sprintf("bad clock literal %q: %v", s, err))
	}
	return c
}

// Scheduler walks the requested time window chronologically, placing meal
// stops as their windows open and best-ranked activities in between, then
// enforces the global coverage invariant.
type Scheduler struct {
	logger     *slog.Logger
	classifier *Classifier
}

func NewScheduler(classifier *Classifier, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		logger:     logger,
		classifier: classifier,
	}
}

// stopDraft carries a stop plus its position as hours elapsed since the date
// start, so ordering checks never have to reason about midnight wraps.
type stopDraft struct {
	stop         types.ItineraryStop
	startElapsed float64
	endElapsed   float64
}

// Schedule builds the itinerary. food must already be vibe-reranked; nonFood
// keeps the hybrid ranking order.
func (s *Scheduler) Schedule(ctx context.Context, food, nonFood []ScoredCandidate, prefs types.UserPreferences) (types.Itinerary, error) {
	ctx, span := otel.Tracer("Scheduler").Start(ctx, "Schedule", trace.WithAttributes(
		attribute.Float64("duration_hours", prefs.DurationHours()),
	))
	defer span.End()

	duration := prefs.DurationHours()
	stopCap := int(math.Max(5, math.Floor(duration)+2))
	windows := mealWindows()
	lateStart := prefs.Start.Hour() >= 21 || prefs.Start.Hour() < 2

	var (
		drafts      []stopDraft
		elapsed     float64
		mealPlaced  = map[string]bool{}
		used        = map[string]bool{}
		sportsTaken bool
	)

	for duration-elapsed > minSlotHours && len(drafts) < stopCap {
		now := prefs.Start.AddHours(elapsed)

		if w := s.openWindow(windows, now, mealPlaced, lateStart); w != nil {
			mealPlaced[w.Label] = true
			venue := s.pickMealVenue(*w, food, used)
			if venue == nil {
				// No appropriate venue for this slot; better to leave the
				// slot unfilled than to seat the date somewhere wrong.
				s.logger.DebugContext(ctx, "No qualifying venue for meal slot",
					slog.String("meal", w.Label))
				continue
			}
			draft, advanced := s.placeStop(prefs, elapsed, duration, *w, venue, drafts)
			if draft == nil {
				continue
			}
			drafts = append(drafts, *draft)
			used[venue.POI.ID.String()] = true
			elapsed = advanced
			continue
		}

		venue, label := s.nextActivity(nonFood, used, prefs, sportsTaken)
		if venue == nil {
			// Out of schedulable activities; idle forward to the next meal
			// window if one remains rather than abandon the rest of the day.
			next, ok := s.nextWindowStart(windows, prefs, elapsed, duration, mealPlaced, lateStart)
			if !ok {
				break
			}
			elapsed = next
			continue
		}
		draft, advanced := s.placeActivity(prefs, elapsed, duration, label, venue, drafts, windows, mealPlaced, lateStart)
		if draft == nil {
			// Too little room before the next meal window; idle until it opens.
			next, ok := s.nextWindowStart(windows, prefs, elapsed, duration, mealPlaced, lateStart)
			if !ok {
				break
			}
			elapsed = next
			continue
		}
		drafts = append(drafts, *draft)
		used[venue.POI.ID.String()] = true
		if venue.POI.Category == types.CategoryActivity {
			sportsTaken = true
		}
		elapsed = advanced
	}

	drafts, coverage, err := s.enforceCoverage(ctx, drafts, prefs, duration)
	if err != nil {
		return types.Itinerary{}, err
	}

	if err := validateDrafts(drafts); err != nil {
		return types.Itinerary{}, err
	}

	itinerary := types.Itinerary{
		TotalHours:    duration,
		CoverageRatio: coverage,
	}
	meals := 0
	for _, d := range drafts {
		itinerary.Stops = append(itinerary.Stops, d.stop)
		if d.stop.IsMeal {
			itinerary.CostMin += d.stop.CostEstimate
			meals++
		}
	}
	itinerary.CostMax = itinerary.CostMin + costBandPerMeal*float64(meals)

	span.SetAttributes(
		attribute.Int("stops", len(itinerary.Stops)),
		attribute.Float64("coverage", coverage),
	)
	return itinerary, nil
}

// openWindow returns the first unplaced meal window containing the current
// clock, honoring the late-night gate on the Late Dinner window.
func (s *Scheduler) openWindow(windows []mealWindow, now types.Clock, placed map[string]bool, lateStart bool) *mealWindow {
	for i := range windows {
		w := windows[i]
		if placed[w.Label] {
			continue
		}
		if w.LateNightOnly && !lateStart {
			continue
		}
		if clockWithin(now, w.Start, w.End) {
			return &w
		}
	}
	return nil
}

// clockWithin handles windows that wrap midnight (Late Dinner 21:00-02:00).
// Both bounds are inclusive, matching how the windows are written.
func clockWithin(now, start, end types.Clock) bool {
	if start <= end {
		return now >= start && now <= end
	}
	return now >= start || now <= end
}

// pickMealVenue chooses the venue for a meal slot. Strict slots (breakfast,
// coffee break) go through the breakfast qualification with its hawker
// fallback; the rest take the next unused food venue in vibe order. Once the
// food pool is exhausted a venue gets reused rather than the meal skipped; a
// strict slot still only ever reuses a venue that qualifies for it.
func (s *Scheduler) pickMealVenue(w mealWindow, food []ScoredCandidate, used map[string]bool) *ScoredCandidate {
	if w.Strict {
		if c := s.classifier.PickBreakfastVenue(food, used); c != nil {
			return c
		}
		return s.classifier.PickBreakfastVenue(food, map[string]bool{})
	}
	for i := range food {
		if !used[food[i].POI.ID.String()] {
			return &food[i]
		}
	}
	if len(food) > 0 {
		return &food[0]
	}
	return nil
}

// placeStop materializes a meal stop, flexing its duration down to the slot
// floor when the window is tight against the end of the date.
func (s *Scheduler) placeStop(prefs types.UserPreferences, elapsed, duration float64, w mealWindow, venue *ScoredCandidate, drafts []stopDraft) (*stopDraft, float64) {
	travel := s.travelHours(drafts, venue)
	remaining := duration - elapsed - travel
	if remaining < minSlotHours {
		return nil, elapsed
	}

	d := w.DurationHours
	if d > remaining {
		d = math.Max(minSlotHours, remaining)
	}

	cost := flatCoffeeCost
	if w.CostMultiplier > 0 {
		cost = budgetMealBase[prefs.BudgetTier] * w.CostMultiplier
	}

	startElapsed := elapsed + travel
	endElapsed := startElapsed + d
	draft := stopDraft{
		stop: types.ItineraryStop{
			Label:         w.Label,
			POI:           venue.POI,
			Start:         prefs.Start.AddHours(startElapsed),
			End:           prefs.Start.AddHours(endElapsed),
			DurationHours: d,
			TravelHours:   travel,
			CostEstimate:  cost,
			IsMeal:        true,
		},
		startElapsed: startElapsed,
		endElapsed:   endElapsed,
	}
	return &draft, endElapsed
}

// placeActivity materializes a non-meal stop. The activity is trimmed so it
// ends when the next reachable unplaced meal window opens; if the trim would
// leave less than the slot floor, nothing is placed and the caller idles to
// the window instead.
func (s *Scheduler) placeActivity(prefs types.UserPreferences, elapsed, duration float64, label string, venue *ScoredCandidate, drafts []stopDraft, windows []mealWindow, placed map[string]bool, lateStart bool) (*stopDraft, float64) {
	travel := s.travelHours(drafts, venue)
	startElapsed := elapsed + travel
	remaining := duration - startElapsed
	if remaining < minSlotHours {
		return nil, elapsed
	}

	d := math.Min(activityNominal, remaining)
	if next, ok := s.nextWindowStart(windows, prefs, startElapsed, duration, placed, lateStart); ok {
		if gap := next - startElapsed; gap < d {
			if gap < minSlotHours {
				return nil, elapsed
			}
			d = gap
		}
	}

	endElapsed := startElapsed + d
	draft := stopDraft{
		stop: types.ItineraryStop{
			Label:         label,
			POI:           venue.POI,
			Start:         prefs.Start.AddHours(startElapsed),
			End:           prefs.Start.AddHours(endElapsed),
			DurationHours: d,
			TravelHours:   travel,
			IsMeal:        false,
		},
		startElapsed: startElapsed,
		endElapsed:   endElapsed,
	}
	return &draft, endElapsed
}

// nextWindowStart finds the elapsed offset of the next unplaced meal window
// that opens strictly after the given offset and before the date ends.
func (s *Scheduler) nextWindowStart(windows []mealWindow, prefs types.UserPreferences, afterElapsed, duration float64, placed map[string]bool, lateStart bool) (float64, bool) {
	best := math.Inf(1)
	for _, w := range windows {
		if placed[w.Label] {
			continue
		}
		if w.LateNightOnly && !lateStart {
			continue
		}
		offset := prefs.Start.HoursUntil(w.Start)
		if offset <= afterElapsed || offset >= duration {
			continue
		}
		if offset < best {
			best = offset
		}
	}
	if math.IsInf(best, 1) {
		return 0, false
	}
	return best, true
}

// nextActivity yields the best remaining non-food candidate, trying the date
// type's priority categories first and falling back to plain ranked order.
// The single-sports-stop cap and active exclusions are enforced here.
func (s *Scheduler) nextActivity(nonFood []ScoredCandidate, used map[string]bool, prefs types.UserPreferences, sportsTaken bool) (*ScoredCandidate, string) {
	profile := ProfileFor(prefs.DateType)
	for _, cat := range profile.ActivityPriority {
		if c, label := s.firstEligible(nonFood, used, prefs, sportsTaken, &cat); c != nil {
			return c, label
		}
	}
	return s.firstEligible(nonFood, used, prefs, sportsTaken, nil)
}

func (s *Scheduler) firstEligible(nonFood []ScoredCandidate, used map[string]bool, prefs types.UserPreferences, sportsTaken bool, category *types.Category) (*ScoredCandidate, string) {
	for i := range nonFood {
		c := &nonFood[i]
		if used[c.POI.ID.String()] {
			continue
		}
		if category != nil && c.POI.Category != *category {
			continue
		}
		if c.POI.Category == types.CategoryActivity && sportsTaken {
			continue
		}
		label, ok := s.classifier.Classify(c.POI, prefs)
		if !ok {
			continue
		}
		return c, label
	}
	return nil, ""
}

// travelHours estimates travel from the previous stop. The first stop has no
// travel; missing coordinates on either side fall back to a flat 15 minutes.
func (s *Scheduler) travelHours(drafts []stopDraft, next *ScoredCandidate) float64 {
	if len(drafts) == 0 {
		return 0
	}
	prev := drafts[len(drafts)-1].stop.POI
	return TravelHoursBetween(prev, next.POI)
}

// TravelHoursBetween estimates inter-stop travel time in hours, clamped to
// [6 minutes, 60 minutes], with the fixed fallback when coordinates are
// missing on either end.
func TravelHoursBetween(from, to types.PointOfInterest) float64 {
	if !from.HasCoordinates() || !to.HasCoordinates() {
		return travelFallback
	}
	distanceKm := haversineKm(from.Latitude, from.Longitude, to.Latitude, to.Longitude)
	hours := distanceKm / averageSpeedKmh
	hours = math.Max(minTravelHours, math.Min(hours, maxTravelHours))
	return math.Round(hours*100) / 100
}

// enforceCoverage checks the global time-coverage invariant for dates longer
// than two hours and tries to close a shortfall by extending the final stop,
// provided it is a non-meal stop (meals never get stretched past their
// window). A shortfall that cannot be closed is a CoverageError.
func (s *Scheduler) enforceCoverage(ctx context.Context, drafts []stopDraft, prefs types.UserPreferences, duration float64) ([]stopDraft, float64, error) {
	total := 0.0
	for _, d := range drafts {
		total += d.stop.DurationHours
	}
	coverage := 0.0
	if duration > 0 {
		coverage = total / duration
	}
	if duration <= coverageExemptDur || coverage >= minCoverage {
		return drafts, coverage, nil
	}

	if len(drafts) > 0 {
		last := &drafts[len(drafts)-1]
		if !last.stop.IsMeal {
			headroom := duration - last.endElapsed
			needed := minCoverage*duration - total
			extension := math.Min(headroom, needed)
			if extension > 0 {
				last.endElapsed += extension
				last.stop.End = prefs.Start.AddHours(last.endElapsed)
				last.stop.DurationHours += extension
				total += extension
				coverage = total / duration
				s.logger.DebugContext(ctx, "Extended final activity to meet coverage",
					slog.String("label", last.stop.Label),
					slog.Float64("extension_hours", extension),
					slog.Float64("coverage", coverage))
			}
		}
	}

	if coverage < minCoverage {
		return nil, coverage, &types.CoverageError{Ratio: coverage}
	}
	return drafts, coverage, nil
}

// validateDrafts guards against scheduler defects: stops must be strictly
// positive in length and must not overlap. A violation here is a bug, not a
// user error.
func validateDrafts(drafts []stopDraft) error {
	const epsilon = 1e-9
	prevEnd := 0.0
	for i, d := range drafts {
		if d.endElapsed-d.startElapsed <= epsilon {
			return fmt.Errorf("%w: stop %d has non-positive duration", types.ErrInternalInconsistency, i)
		}
		if d.startElapsed+epsilon < prevEnd {
			return fmt.Errorf("%w: stop %d overlaps previous stop", types.ErrInternalInconsistency, i)
		}
		prevEnd = d.endElapsed
	}
	return nil
}
