package planner

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/ljunwei/go-date-planner/internal/types"
)

// FilterStats records how many POIs each pass removed, mostly for logging
// and the processing stats block of the response.
type FilterStats struct {
	Input     int `json:"input"`
	Exclusion int `json:"excluded_by_exclusions"`
	Interest  int `json:"excluded_by_interests"`
	Budget    int `json:"excluded_by_budget"`
	DateType  int `json:"excluded_by_date_type"`
	Remaining int `json:"remaining"`
}

// RuleFilter applies the deterministic keyword passes before any ranking
// work happens.
type RuleFilter struct {
	logger *slog.Logger
	tables *RuleTables
}

func NewRuleFilter(tables *RuleTables, logger *slog.Logger) *RuleFilter {
	return &RuleFilter{
		logger: logger,
		tables: tables,
	}
}

// Filter runs the exclusion, interest, budget and date-type passes in that
// order. Food POIs survive the exclusion pass unconditionally since every
// plan needs meal slots; if no food remains at the end the request cannot be
// satisfied and an InsufficientCandidatesError is returned.
func (f *RuleFilter) Filter(ctx context.Context, pois []types.PointOfInterest, prefs types.UserPreferences) ([]types.PointOfInterest, FilterStats, error) {
	ctx, span := otel.Tracer("RuleFilter").Start(ctx, "Filter")
	defer span.End()

	stats := FilterStats{Input: len(pois)}

	kept := make([]types.PointOfInterest, 0, len(pois))
	for _, poi := range pois {
		if f.passesExclusions(poi, prefs) {
			kept = append(kept, poi)
		}
	}
	stats.Exclusion = stats.Input - len(kept)

	afterExclusion := kept
	kept = kept[:0]
	for _, poi := range afterExclusion {
		if f.passesInterests(poi, prefs) {
			kept = append(kept, poi)
		}
	}
	stats.Interest = len(afterExclusion) - len(kept)

	afterInterest := kept
	kept = kept[:0]
	for _, poi := range afterInterest {
		if f.passesBudget(poi, prefs.BudgetTier) {
			kept = append(kept, poi)
		}
	}
	stats.Budget = len(afterInterest) - len(kept)

	afterBudget := kept
	kept = kept[:0]
	for _, poi := range afterBudget {
		if !f.conflictsWithDateType(poi, prefs.DateType) {
			kept = append(kept, poi)
		}
	}
	stats.DateType = len(afterBudget) - len(kept)
	stats.Remaining = len(kept)

	span.SetAttributes(
		attribute.Int("filter.input", stats.Input),
		attribute.Int("filter.remaining", stats.Remaining),
	)
	f.logger.DebugContext(ctx, "Rule filtering complete",
		slog.Int("input", stats.Input),
		slog.Int("remaining", stats.Remaining),
		slog.Int("excluded_by_exclusions", stats.Exclusion),
		slog.Int("excluded_by_interests", stats.Interest),
		slog.Int("excluded_by_budget", stats.Budget),
		slog.Int("excluded_by_date_type", stats.DateType))

	if !hasCategory(kept, types.CategoryFood) {
		return nil, stats, &types.InsufficientCandidatesError{Category: types.CategoryFood}
	}
	return kept, stats, nil
}

// passesExclusions drops POIs matching an excluded category's keyword set.
// Food is never excluded: meal slots must always be fillable.
func (f *RuleFilter) passesExclusions(poi types.PointOfInterest, prefs types.UserPreferences) bool {
	if poi.Category == types.CategoryFood {
		return true
	}
	text := poi.SearchText()
	for _, excl := range prefs.Exclusions {
		if matchesAny(text, f.tables.Exclusion[excl]) {
			return false
		}
	}
	return true
}

// passesInterests keeps POIs matching at least one interest. Food always
// passes, and attractions that match no exclusion pass too: general venues
// like shopping streets should survive even when no interest names them.
func (f *RuleFilter) passesInterests(poi types.PointOfInterest, prefs types.UserPreferences) bool {
	if len(prefs.Interests) == 0 {
		return true
	}
	if poi.Category == types.CategoryFood {
		return true
	}

	text := poi.SearchText()
	for _, interest := range prefs.Interests {
		if matchesAny(text, f.tables.Interest[interest]) {
			return true
		}
	}

	if poi.Category == types.CategoryAttraction {
		for _, excl := range prefs.Exclusions {
			if matchesAny(text, f.tables.Exclusion[excl]) {
				return false
			}
		}
		return true
	}
	return false
}

// passesBudget applies tier keywords to food venues only. Cafes are always
// retained so breakfast and coffee-break slots stay fillable regardless of
// the requested tier.
func (f *RuleFilter) passesBudget(poi types.PointOfInterest, tier types.BudgetTier) bool {
	if poi.Category != types.CategoryFood {
		return true
	}
	text := poi.SearchText()
	if matchesAny(text, f.tables.Cafe) {
		return true
	}
	keywords, ok := f.tables.Budget[tier]
	if !ok {
		return true
	}
	return matchesAny(text, keywords)
}

// conflictsWithDateType is deliberately lenient: a POI is dropped only on an
// explicit, unambiguous conflict with the date type.
func (f *RuleFilter) conflictsWithDateType(poi types.PointOfInterest, dateType types.DateType) bool {
	return matchesAny(poi.SearchText(), f.tables.DateTypeConflicts[dateType])
}

func hasCategory(pois []types.PointOfInterest, c types.Category) bool {
	for _, poi := range pois {
		if poi.Category == c {
			return true
		}
	}
	return false
}
