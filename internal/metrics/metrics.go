// Package metrics holds the Prometheus collectors for the wardrobe engine.
// Collectors are registered on the default registry at init.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Recommendations counts successful recommendations by weather label and
	// the bottom fallback tier that produced the bottom garment.
	Recommendations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "closet_recommendations_total",
			Help: "Outfit recommendations produced",
		},
		[]string{"weather", "bottom_tier"},
	)

	NoSuitableClothes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "closet_no_suitable_clothes_total",
			Help: "Recommendations rejected because no garment fits the weather",
		},
		[]string{"weather"},
	)

	// WeatherFallbacks counts lookups that resolved to the default label.
	WeatherFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "closet_weather_fallbacks_total",
			Help: "Weather lookups that fell back to the default label",
		},
		[]string{"reason"},
	)

	CatalogItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "closet_catalog_items",
			Help: "Garments currently in the catalog",
		},
	)

	StateFlushDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "closet_state_flush_seconds",
			Help:    "Time spent persisting a catalog snapshot",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		},
	)

	// CircuitBreakerState is 0=closed, 1=half-open, 2=open.
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "closet_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)
)
