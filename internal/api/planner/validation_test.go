package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ljunwei/go-date-planner/internal/types"
)

func floatPtr(v float64) *float64 { return &v }

func validRequest() types.PlanRequest {
	return types.PlanRequest{
		StartTime:      "18:00",
		EndTime:        "22:00",
		StartLatitude:  floatPtr(1.28),
		StartLongitude: floatPtr(103.85),
	}
}

func TestPreferencesFromRequest_Defaults(t *testing.T) {
	req := validRequest()
	req.EndTime = ""
	req.BudgetTier = ""
	req.DateType = ""

	prefs, err := PreferencesFromRequest(req)
	require.NoError(t, err)

	assert.Equal(t, "18:00", prefs.Start.String())
	assert.Equal(t, "02:00", prefs.End.String(), "end defaults to start plus eight hours")
	assert.Equal(t, types.BudgetMedium, prefs.BudgetTier)
	assert.Equal(t, types.DateCasual, prefs.DateType)
}

func TestPreferencesFromRequest_OvernightWindow(t *testing.T) {
	req := validRequest()
	req.StartTime = "21:30"
	req.EndTime = "01:30"

	prefs, err := PreferencesFromRequest(req)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, prefs.DurationHours(), 1e-9)
}

func TestPreferencesFromRequest_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*types.PlanRequest)
		field  string
	}{
		{"missing start", func(r *types.PlanRequest) { r.StartTime = "" }, "start_time"},
		{"malformed start", func(r *types.PlanRequest) { r.StartTime = "9am" }, "start_time"},
		{"out of range start", func(r *types.PlanRequest) { r.StartTime = "25:00" }, "start_time"},
		{"malformed end", func(r *types.PlanRequest) { r.EndTime = "later" }, "end_time"},
		{"zero-length window", func(r *types.PlanRequest) { r.EndTime = "18:00" }, "end_time"},
		{"missing coordinates", func(r *types.PlanRequest) { r.StartLatitude = nil }, "start_latitude/start_longitude"},
		{"latitude out of range", func(r *types.PlanRequest) { r.StartLatitude = floatPtr(91) }, "start_latitude"},
		{"longitude out of range", func(r *types.PlanRequest) { r.StartLongitude = floatPtr(-181) }, "start_longitude"},
		{"bad budget tier", func(r *types.PlanRequest) { r.BudgetTier = "$$$$" }, "budget_tier"},
		{"bad date type", func(r *types.PlanRequest) { r.DateType = "sporty" }, "date_type"},
		{"too many exclusions", func(r *types.PlanRequest) { r.Exclusions = []string{"sports", "cultural", "nature"} }, "exclusions"},
		{"unknown exclusion", func(r *types.PlanRequest) { r.Exclusions = []string{"crowds"} }, "exclusions"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)

			_, err := PreferencesFromRequest(req)
			var validationErr *types.ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tt.field, validationErr.Field)
		})
	}
}

func TestPreferencesFromRequest_ValidEnums(t *testing.T) {
	req := validRequest()
	req.BudgetTier = "$$$"
	req.DateType = "adventurous"
	req.Interests = []string{"food", "nature"}
	req.Exclusions = []string{"sports", "cultural"}

	prefs, err := PreferencesFromRequest(req)
	require.NoError(t, err)
	assert.Equal(t, types.BudgetHigh, prefs.BudgetTier)
	assert.Equal(t, types.DateAdventurous, prefs.DateType)
	assert.Equal(t, []string{"food", "nature"}, prefs.Interests)
	assert.Equal(t, []types.ExclusionCategory{types.ExcludeSports, types.ExcludeCultural}, prefs.Exclusions)
}
