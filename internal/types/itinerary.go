package types

// ItineraryStop is one scheduled entry of a plan. Stops are immutable once
// appended; the scheduler builds them in chronological order.
type ItineraryStop struct {
	Label         string
	POI           PointOfInterest
	Start         Clock
	End           Clock
	DurationHours float64
	// TravelHours is the travel time from the previous stop, 0 for the
	// first stop.
	TravelHours  float64
	CostEstimate float64
	IsMeal       bool
}

// Itinerary is the ordered result of scheduling, before assembly into the
// external response shape. Built once per request and discarded.
type Itinerary struct {
	Stops []ItineraryStop
	// TotalHours is the requested window length in hours.
	TotalHours float64
	// CoverageRatio is the summed stop time over TotalHours.
	CoverageRatio float64
	CostMin       float64
	CostMax       float64
}

// MealCount returns the number of meal stops carrying the given label.
func (it *Itinerary) MealCount(label string) int {
	n := 0
	for _, s := range it.Stops {
		if s.IsMeal && s.Label == label {
			n++
		}
	}
	return n
}
