package types

// BudgetTier is the price band requested for meals.
type BudgetTier string

const (
	BudgetLow    BudgetTier = "$"
	BudgetMedium BudgetTier = "$$"
	BudgetHigh   BudgetTier = "$$$"
)

// DateType selects the thematic profile used for vibe re-ranking and
// activity prioritisation.
type DateType string

const (
	DateCasual      DateType = "casual"
	DateRomantic    DateType = "romantic"
	DateAdventurous DateType = "adventurous"
	DateCultural    DateType = "cultural"
)

// ExclusionCategory is a category a user may opt out of. Food can never
// be excluded; meal slots depend on it.
type ExclusionCategory string

const (
	ExcludeSports   ExclusionCategory = "sports"
	ExcludeCultural ExclusionCategory = "cultural"
	ExcludeNature   ExclusionCategory = "nature"
)

// MaxExclusions is the hard cap on exclusions per request.
const MaxExclusions = 2

// UserPreferences is the validated request-scoped input to the pipeline.
type UserPreferences struct {
	Start          Clock
	End            Clock
	StartLatitude  float64
	StartLongitude float64
	BudgetTier     BudgetTier
	DateType       DateType
	Interests      []string
	Exclusions     []ExclusionCategory
}

// DurationHours is the requested window length. End times at or before
// Start are treated as next-day (overnight dates).
func (p UserPreferences) DurationHours() float64 {
	return p.Start.HoursUntil(p.End)
}

// Excluded reports whether the given category was opted out of.
func (p UserPreferences) Excluded(c ExclusionCategory) bool {
	for _, e := range p.Exclusions {
		if e == c {
			return true
		}
	}
	return false
}

// HasInterest reports whether the given free-form interest tag was requested.
func (p UserPreferences) HasInterest(tag string) bool {
	for _, i := range p.Interests {
		if i == tag {
			return true
		}
	}
	return false
}
