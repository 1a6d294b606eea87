package planner

import (
	"github.com/ljunwei/go-date-planner/internal/types"
)

// Activity labels produced by the classifier and the scheduler.
const (
	LabelWalk            = "Walk"
	LabelCulturalVisit   = "Cultural Visit"
	LabelShopping        = "Shopping"
	LabelAttractionVisit = "Attraction Visit"
	LabelSportsActivity  = "Sports Activity"

	LabelBreakfast   = "Coffee/Breakfast"
	LabelLunch       = "Lunch"
	LabelCoffeeBreak = "Coffee Break"
	LabelDinner      = "Dinner"
	LabelLateDinner  = "Late Dinner"
)

// Classifier maps POIs to activity labels using the keyword rule tables.
type Classifier struct {
	tables *RuleTables
}

func NewClassifier(tables *RuleTables) *Classifier {
	return &Classifier{tables: tables}
}

// Classify returns the activity label for a non-food POI, or ok=false when
// the POI's classification conflicts with an active exclusion and it must
// not be scheduled. Decision order: nature, cultural, shopping, default.
func (c *Classifier) Classify(poi types.PointOfInterest, prefs types.UserPreferences) (string, bool) {
	if poi.Category == types.CategoryActivity {
		if prefs.Excluded(types.ExcludeSports) {
			return "", false
		}
		return c.SportsLabel(poi), true
	}

	text := poi.SearchText()
	switch {
	case matchesAny(text, c.tables.Nature):
		if prefs.Excluded(types.ExcludeNature) {
			return "", false
		}
		return LabelWalk, true
	case matchesAny(text, c.tables.Cultural):
		if prefs.Excluded(types.ExcludeCultural) {
			return "", false
		}
		return LabelCulturalVisit, true
	case matchesAny(text, c.tables.Shopping):
		// Shopping is never excludable.
		return LabelShopping, true
	default:
		return LabelAttractionVisit, true
	}
}

// SportsLabel picks the facility-specific sub-label for a sports venue,
// falling back to the generic label when no facility keyword matches.
func (c *Classifier) SportsLabel(poi types.PointOfInterest) string {
	text := poi.SearchText()
	for _, rule := range c.tables.SportsLabels {
		if matchesAny(text, rule.Keywords) {
			return rule.Label
		}
	}
	return LabelSportsActivity
}

// QualifiesForBreakfast applies the strict breakfast/cafe rules: a venue
// qualifies on a positive breakfast signal, or by being a hawker-type venue
// (always acceptable), or by carrying no non-breakfast cuisine terms at all.
// A venue with strong non-breakfast cuisine terms and no breakfast signal is
// rejected even if it matched elsewhere.
func (c *Classifier) QualifiesForBreakfast(poi types.PointOfInterest) bool {
	text := poi.SearchText()
	if matchesAny(text, c.tables.BreakfastPositive) {
		return true
	}
	if matchesAny(text, c.tables.Hawker) {
		return true
	}
	return !matchesAny(text, c.tables.NonBreakfastCuisine)
}

// IsHawker reports whether the venue is a hawker/food-court type.
func (c *Classifier) IsHawker(poi types.PointOfInterest) bool {
	return matchesAny(poi.SearchText(), c.tables.Hawker)
}

// IsCafe reports whether the venue reads as a cafe or coffee place.
func (c *Classifier) IsCafe(poi types.PointOfInterest) bool {
	return matchesAny(poi.SearchText(), c.tables.Cafe)
}

// PickBreakfastVenue returns the best-ranked unused venue that qualifies for
// a breakfast or coffee slot. When nothing qualifies it falls back to
// hawker/food-court venues; when those are also absent it returns nil rather
// than substitute an inappropriate venue for the slot.
func (c *Classifier) PickBreakfastVenue(food []ScoredCandidate, used map[string]bool) *ScoredCandidate {
	for i := range food {
		if used[food[i].POI.ID.String()] {
			continue
		}
		if c.QualifiesForBreakfast(food[i].POI) {
			return &food[i]
		}
	}
	for i := range food {
		if used[food[i].POI.ID.String()] {
			continue
		}
		if c.IsHawker(food[i].POI) {
			return &food[i]
		}
	}
	return nil
}
