package planner

import (
	"fmt"
	"strings"

	"github.com/ljunwei/go-date-planner/internal/types"
)

const (
	addressFallback  = "Address not available"
	descriptionRunes = 100
	maxAlternatives  = 3
)

// Assembler converts the scheduler's itinerary into the external response:
// formatted times, address fallbacks, a cost range covering meals only, a
// one-line summary and up to three alternative venues.
type Assembler struct{}

func NewAssembler() *Assembler {
	return &Assembler{}
}

func (a *Assembler) Assemble(itinerary types.Itinerary, prefs types.UserPreferences, alternatives []string, stats types.ProcessingStats) types.PlanResponse {
	stops := make([]types.PlanStopResponse, 0, len(itinerary.Stops))
	for _, s := range itinerary.Stops {
		stops = append(stops, types.PlanStopResponse{
			StartTime:     s.Start.String(),
			EndTime:       s.End.String(),
			Activity:      s.Label,
			Location:      s.POI.Name,
			Address:       addressOrFallback(s.POI.Address),
			Type:          string(s.POI.Category),
			DurationHours: s.DurationHours,
			Description:   truncateDescription(s.POI.Description),
		})
	}
	stats.FinalStops = len(stops)

	return types.PlanResponse{
		Itinerary:     stops,
		EstimatedCost: fmt.Sprintf("$%.0f-$%.0f per person", itinerary.CostMin, itinerary.CostMax),
		DurationHours: itinerary.TotalHours,
		CoverageRatio: itinerary.CoverageRatio,
		Summary:       a.summary(itinerary, prefs),
		Alternatives:  alternatives,
		Stats:         stats,
	}
}

// summary renders the single-line plan description.
func (a *Assembler) summary(itinerary types.Itinerary, prefs types.UserPreferences) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Your %.1f-hour %s date: ", itinerary.TotalHours, prefs.DateType)
	if len(itinerary.Stops) == 0 {
		b.WriteString("no stops scheduled")
		return b.String()
	}
	parts := make([]string, 0, len(itinerary.Stops))
	for _, s := range itinerary.Stops {
		parts = append(parts, fmt.Sprintf("%s %s at %s", s.Start.String(), s.Label, s.POI.Name))
	}
	b.WriteString(strings.Join(parts, ", "))
	return b.String()
}

// BuildAlternatives suggests up to three unused venues, one per category, so
// the caller has substitutes that do not repeat the itinerary.
func (a *Assembler) BuildAlternatives(groups map[types.Category][]ScoredCandidate, used map[string]bool) []string {
	var alternatives []string
	for _, cat := range types.Categories() {
		if len(alternatives) == maxAlternatives {
			break
		}
		for _, c := range groups[cat] {
			if used[c.POI.ID.String()] {
				continue
			}
			alternatives = append(alternatives,
				fmt.Sprintf("Alternative %s: %s - %s", cat, c.POI.Name, addressOrFallback(c.POI.Address)))
			break
		}
	}
	return alternatives
}

func addressOrFallback(address string) string {
	if strings.TrimSpace(address) == "" {
		return addressFallback
	}
	return address
}

// truncateDescription keeps the first 100 runes with an ellipsis, mirroring
// how descriptions are shortened in the response.
func truncateDescription(description string) string {
	runes := []rune(description)
	if len(runes) <= descriptionRunes {
		return description
	}
	return string(runes[:descriptionRunes]) + "..."
}
