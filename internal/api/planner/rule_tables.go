package planner

import (
	"strings"

	"github.com/ljunwei/go-date-planner/internal/types"
)

// RuleTables is the versioned keyword configuration consumed by the rule
// filter and the activity classifier. Keeping the lists here instead of
// scattered literals lets classification be tested in isolation and the rule
// set swapped per locale.
type RuleTables struct {
	Version string

	// Budget maps a tier to the price-signal keywords that qualify a food
	// venue for it.
	Budget map[types.BudgetTier][]string

	// Interest maps a free-form interest tag to venue keywords.
	Interest map[string][]string

	// Exclusion maps an excludable category to the keywords that mark a POI
	// as belonging to it.
	Exclusion map[types.ExclusionCategory][]string

	// DateTypeConflicts lists keywords that explicitly disqualify a venue
	// for a date type. Anything not listed here is kept.
	DateTypeConflicts map[types.DateType][]string

	// Cafe venues are always retained by the budget pass and preferred for
	// coffee-break slots.
	Cafe []string

	// BreakfastPositive marks venues that serve breakfast; Hawker venues are
	// acceptable for any meal slot; NonBreakfastCuisine marks cuisines that
	// disqualify a venue from breakfast unless a positive signal is present.
	BreakfastPositive   []string
	Hawker              []string
	NonBreakfastCuisine []string

	// Activity classification keyword sets.
	Nature   []string
	Cultural []string
	Shopping []string

	// SportsLabels maps facility keywords to the sports sub-label, checked
	// in order. Unmatched sports venues fall back to "Sports Activity".
	SportsLabels []SportsLabelRule
}

type SportsLabelRule struct {
	Keywords []string
	Label    string
}

// DefaultRuleTables returns the built-in rule set.
func DefaultRuleTables() *RuleTables {
	return &RuleTables{
		Version: "2026-08",

		Budget: map[types.BudgetTier][]string{
			types.BudgetLow:    {"cheap", "budget", "affordable", "hawker", "food court"},
			types.BudgetMedium: {"moderate", "mid-range", "casual", "family"},
			types.BudgetHigh:   {"upscale", "fine dining", "premium", "luxury"},
		},

		Interest: map[string][]string{
			"food":     {"restaurant", "cafe", "dining", "cuisine", "food", "eat", "drink"},
			"culture":  {"museum", "gallery", "art", "cultural", "heritage", "historical", "traditional"},
			"nature":   {"park", "garden", "nature", "outdoor", "scenic", "botanical", "zoo"},
			"sports":   {"sports", "gym", "fitness", "swimming", "tennis", "football", "basketball"},
			"art":      {"art", "gallery", "museum", "creative", "exhibition", "sculpture", "painting"},
			"shopping": {"shopping", "mall", "market", "retail", "boutique", "store"},
		},

		Exclusion: map[types.ExclusionCategory][]string{
			types.ExcludeSports:   {"sports", "gym", "fitness", "swimming", "tennis", "football", "basketball"},
			types.ExcludeCultural: {"museum", "gallery", "art", "cultural", "heritage", "historical", "traditional"},
			types.ExcludeNature:   {"park", "garden", "nature", "outdoor", "scenic", "botanical", "zoo"},
		},

		DateTypeConflicts: map[types.DateType][]string{
			types.DateCasual:      {"formal", "dress code", "black tie"},
			types.DateRomantic:    {"kids only", "children only", "playground"},
			types.DateAdventurous: {},
			types.DateCultural:    {"nightclub"},
		},

		Cafe: []string{"cafe", "coffee", "kopi", "kopitiam", "bistro", "brunch", "breakfast"},

		BreakfastPositive: []string{
			"breakfast", "brunch", "coffee", "cafe", "kopi", "toast", "bakery", "pastry", "dim sum",
		},
		Hawker: []string{"hawker", "food court", "kopitiam", "food centre"},
		NonBreakfastCuisine: []string{
			"steakhouse", "fine dining", "omakase", "izakaya", "bar", "pub", "hotpot",
			"steamboat", "bbq", "grill", "supper", "late night",
		},

		Nature:   []string{"park", "garden", "nature", "reserve", "walk", "trail", "scenic", "botanical", "waterfront"},
		Cultural: []string{"museum", "gallery", "temple", "mosque", "church", "heritage", "historical", "memorial", "monument"},
		Shopping: []string{"shopping", "mall", "market", "bazaar", "boutique", "orchard"},

		SportsLabels: []SportsLabelRule{
			{Keywords: []string{"swim", "pool", "aquatic"}, Label: "Swimming"},
			{Keywords: []string{"tennis"}, Label: "Tennis"},
			{Keywords: []string{"gym", "fitness"}, Label: "Fitness"},
		},
	}
}

// matchesAny reports whether the lowercased search text contains any of the
// (lowercase) keywords.
func matchesAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
