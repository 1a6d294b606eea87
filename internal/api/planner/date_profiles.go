package planner

import "github.com/ljunwei/go-date-planner/internal/types"

// DateTypeProfile captures everything that varies with the date type: the
// vibe query the food re-ranker embeds, and the category order the scheduler
// uses when picking non-food stops. Both the re-ranker and the scheduler
// read from this one table so the behaviour cannot drift apart.
type DateTypeProfile struct {
	// VibeQuery is a short natural-language profile embedded and compared
	// against food venue embeddings.
	VibeQuery string

	// ActivityPriority orders non-food categories for scheduling. Categories
	// absent from the list are considered after the listed ones, in ranked
	// order.
	ActivityPriority []types.Category
}

var dateTypeProfiles = map[types.DateType]DateTypeProfile{
	types.DateCasual: {
		VibeQuery:        "casual and relaxed atmosphere, comfortable friendly settings, easygoing dining",
		ActivityPriority: nil,
	},
	types.DateRomantic: {
		VibeQuery:        "romantic and intimate atmosphere, candlelit dinner, cozy private spaces, waterfront sunset views",
		ActivityPriority: nil,
	},
	types.DateAdventurous: {
		VibeQuery:        "adventure and outdoor activities, active exciting experiences, thrilling things to do",
		ActivityPriority: []types.Category{types.CategoryActivity, types.CategoryAttraction},
	},
	types.DateCultural: {
		VibeQuery:        "cultural and educational experiences, museums and galleries, historical significance, traditional heritage",
		ActivityPriority: []types.Category{types.CategoryHeritage, types.CategoryAttraction},
	},
}

// ProfileFor returns the profile for a date type, falling back to casual for
// anything unknown. Validation upstream keeps unknown values out of the
// pipeline; the fallback is for safety, not a feature.
func ProfileFor(dateType types.DateType) DateTypeProfile {
	if p, ok := dateTypeProfiles[dateType]; ok {
		return p
	}
	return dateTypeProfiles[types.DateCasual]
}
