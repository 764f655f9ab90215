// Package metrics provides Prometheus metrics for the Clover service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RecommendationCacheTotal tracks cache lookups by result (hit or miss)
	RecommendationCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "recommendation",
			Name:      "cache_total",
			Help:      "Total number of recommendation cache lookups by result",
		},
		[]string{"result"},
	)

	// RecommendationComputeDuration tracks how long a cold recommendation takes
	RecommendationComputeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "clover",
			Subsystem: "recommendation",
			Name:      "compute_duration_seconds",
			Help:      "Duration of recommendation computation on a cache miss",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)

	// PurchasesTotal tracks purchase attempts by outcome
	PurchasesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "ledger",
			Name:      "purchases_total",
			Help:      "Total number of purchase attempts by outcome",
		},
		[]string{"outcome"},
	)

	// WritesTotal tracks coordinated writes by entity and outcome
	WritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "coordinator",
			Name:      "writes_total",
			Help:      "Total number of coordinated writes by entity and outcome",
		},
		[]string{"entity", "outcome"},
	)

	// EventsPublishedTotal tracks store events handed to the producer
	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Total number of store events published by type",
		},
		[]string{"event_type"},
	)
)

// Purchase outcomes
const (
	OutcomeSuccess           = "success"
	OutcomeInsufficientStock = "insufficient_stock"
	OutcomeNotFound          = "not_found"
	OutcomeError             = "error"
)

// Cache results
const (
	ResultHit  = "hit"
	ResultMiss = "miss"
)
