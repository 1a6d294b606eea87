package planner

import (
	"github.com/ljunwei/go-date-planner/internal/types"
)

const defaultDurationHours = 8.0

// PreferencesFromRequest validates the wire request and produces the
// normalized preferences the pipeline runs on. Every rejection is a
// ValidationError naming the offending field; nothing downstream runs on an
// invalid request.
func PreferencesFromRequest(req types.PlanRequest) (types.UserPreferences, error) {
	var prefs types.UserPreferences

	if req.StartTime == "" {
		return prefs, &types.ValidationError{Field: "start_time", Reason: "required"}
	}
	start, err := types.ParseClock(req.StartTime)
	if err != nil {
		return prefs, &types.ValidationError{Field: "start_time", Reason: err.Error()}
	}
	prefs.Start = start

	if req.EndTime == "" {
		prefs.End = start.AddHours(defaultDurationHours)
	} else {
		end, err := types.ParseClock(req.EndTime)
		if err != nil {
			return prefs, &types.ValidationError{Field: "end_time", Reason: err.Error()}
		}
		// An end before the start is read as next-day (late dates cross
		// midnight); only a zero-length window is rejected.
		if end == start {
			return prefs, &types.ValidationError{Field: "end_time", Reason: "must differ from start_time"}
		}
		prefs.End = end
	}

	if req.StartLatitude == nil || req.StartLongitude == nil {
		return prefs, &types.ValidationError{Field: "start_latitude/start_longitude", Reason: "required"}
	}
	if *req.StartLatitude < -90 || *req.StartLatitude > 90 {
		return prefs, &types.ValidationError{Field: "start_latitude", Reason: "out of range"}
	}
	if *req.StartLongitude < -180 || *req.StartLongitude > 180 {
		return prefs, &types.ValidationError{Field: "start_longitude", Reason: "out of range"}
	}
	prefs.StartLatitude = *req.StartLatitude
	prefs.StartLongitude = *req.StartLongitude

	switch tier := types.BudgetTier(req.BudgetTier); tier {
	case "":
		prefs.BudgetTier = types.BudgetMedium
	case types.BudgetLow, types.BudgetMedium, types.BudgetHigh:
		prefs.BudgetTier = tier
	default:
		return prefs, &types.ValidationError{Field: "budget_tier", Reason: "must be one of $, $$, $$$"}
	}

	switch dt := types.DateType(req.DateType); dt {
	case "":
		prefs.DateType = types.DateCasual
	case types.DateCasual, types.DateRomantic, types.DateAdventurous, types.DateCultural:
		prefs.DateType = dt
	default:
		return prefs, &types.ValidationError{Field: "date_type", Reason: "must be one of casual, romantic, adventurous, cultural"}
	}

	prefs.Interests = req.Interests

	if len(req.Exclusions) > types.MaxExclusions {
		return prefs, &types.ValidationError{Field: "exclusions", Reason: "at most 2 exclusions allowed"}
	}
	for _, e := range req.Exclusions {
		switch excl := types.ExclusionCategory(e); excl {
		case types.ExcludeSports, types.ExcludeCultural, types.ExcludeNature:
			prefs.Exclusions = append(prefs.Exclusions, excl)
		default:
			return prefs, &types.ValidationError{Field: "exclusions", Reason: "must be one of sports, cultural, nature"}
		}
	}

	return prefs, nil
}
