package types

// PlanRequest is the wire shape of a planning request. Coordinates are
// pointers so that absent and zero values can be told apart during
// validation.
type PlanRequest struct {
	StartTime      string   `json:"start_time"`
	EndTime        string   `json:"end_time,omitempty"`
	StartLatitude  *float64 `json:"start_latitude"`
	StartLongitude *float64 `json:"start_longitude"`
	BudgetTier     string   `json:"budget_tier,omitempty"`
	DateType       string   `json:"date_type,omitempty"`
	Interests      []string `json:"interests,omitempty"`
	Exclusions     []string `json:"exclusions,omitempty"`
}

// PlanStopResponse is one scheduled stop as returned to the caller.
type PlanStopResponse struct {
	StartTime     string  `json:"start_time"`
	EndTime       string  `json:"end_time"`
	Activity      string  `json:"activity"`
	Location      string  `json:"location"`
	Address       string  `json:"address"`
	Type          string  `json:"type"`
	DurationHours float64 `json:"duration"`
	Description   string  `json:"description"`
}

// ProcessingStats summarizes what the pipeline did, mostly for debugging
// and operational visibility.
type ProcessingStats struct {
	TotalPOIs         int  `json:"total_pois"`
	FilteredPOIs      int  `json:"filtered_pois"`
	RankedPOIs        int  `json:"ranked_pois"`
	FinalStops        int  `json:"final_stops"`
	DegradedRetrieval bool `json:"degraded_retrieval,omitempty"`
}

// PlanResponse is the externally visible date plan.
type PlanResponse struct {
	Itinerary     []PlanStopResponse `json:"itinerary"`
	EstimatedCost string             `json:"estimated_cost"`
	DurationHours float64            `json:"duration"`
	CoverageRatio float64            `json:"coverage_ratio"`
	Summary       string             `json:"summary"`
	Alternatives  []string           `json:"alternative_suggestions,omitempty"`
	Stats         ProcessingStats    `json:"processing_stats"`
}
