package types

import (
	"strings"

	"github.com/google/uuid"
)

// Category is the coarse POI classification used throughout the pipeline.
type Category string

const (
	CategoryFood       Category = "food"
	CategoryAttraction Category = "attraction"
	CategoryActivity   Category = "activity"
	CategoryHeritage   Category = "heritage"
)

// Categories lists every catalog category in a fixed order.
func Categories() []Category {
	return []Category{CategoryFood, CategoryAttraction, CategoryActivity, CategoryHeritage}
}

// PointOfInterest is a single catalog entry. Instances are owned by the
// catalog, loaded once at startup and never mutated afterwards.
type PointOfInterest struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Category    Category  `json:"category"`
	Description string    `json:"description"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	Address     string    `json:"address"`
	Tags        []string  `json:"tags,omitempty"`
	Embedding   []float32 `json:"-"`
}

// HasCoordinates reports whether the POI carries a usable position.
// Source data uses (0, 0) for venues without geocoding.
func (p *PointOfInterest) HasCoordinates() bool {
	return p.Latitude != 0 || p.Longitude != 0
}

// SearchText returns the lowercased text used for keyword rule matching.
func (p *PointOfInterest) SearchText() string {
	parts := []string{p.Name, p.Description, p.Address}
	if len(p.Tags) > 0 {
		parts = append(parts, strings.Join(p.Tags, " "))
	}
	return strings.ToLower(strings.Join(parts, " "))
}
