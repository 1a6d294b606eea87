package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
// Make fields public so they can be accessed from other packages.
type AppMetrics struct {
	PlansGeneratedTotal     metric.Int64Counter
	PlanFailuresTotal       metric.Int64Counter
	PlanDurationSeconds     metric.Float64Histogram
	DegradedRetrievalTotal  metric.Int64Counter
	CandidatesRanked        metric.Int64Histogram
	CatalogLoadDurationSecs metric.Float64Histogram
}

var (
	// Global instance of AppMetrics (initialized once)
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the global metrics instruments ONLY ONCE.
// It gets the Meter from the globally configured MeterProvider.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("DatePlanner")
		var err error
		m := &AppMetrics{}

		m.PlansGeneratedTotal, err = meter.Int64Counter(
			"plans_generated_total",
			metric.WithDescription("Total number of itineraries generated successfully"),
			metric.WithUnit("{plan}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create plans_generated_total: %v", err)
		}

		m.PlanFailuresTotal, err = meter.Int64Counter(
			"plan_failures_total",
			metric.WithDescription("Total number of planning requests that failed"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create plan_failures_total: %v", err)
		}

		m.PlanDurationSeconds, err = meter.Float64Histogram(
			"plan_duration_seconds",
			metric.WithDescription("Duration of the whole planning pipeline in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create plan_duration_seconds: %v", err)
		}

		m.DegradedRetrievalTotal, err = meter.Int64Counter(
			"degraded_retrieval_total",
			metric.WithDescription("Times the vector index was unavailable and brute-force similarity was used"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create degraded_retrieval_total: %v", err)
		}

		m.CandidatesRanked, err = meter.Int64Histogram(
			"candidates_ranked",
			metric.WithDescription("Number of candidates entering the ranking stage per request"),
			metric.WithUnit("{poi}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create candidates_ranked: %v", err)
		}

		m.CatalogLoadDurationSecs, err = meter.Float64Histogram(
			"catalog_load_duration_seconds",
			metric.WithDescription("Duration of the startup catalog load in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create catalog_load_duration_seconds: %v", err)
		}

		log.Println("Application metrics instruments initialized.")
		appMetrics = m
	})
}

// Get returns the globally initialized AppMetrics instance.
// Panics if InitAppMetrics was not called first.
func Get() *AppMetrics {
	if appMetrics == nil {
		// This indicates a programming error - InitAppMetrics must be called at startup.
		panic("metrics instruments not initialized. Call metrics.InitAppMetrics() first.")
	}
	return appMetrics
}
