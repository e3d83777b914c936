// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SelectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "option_selections_total",
			Help: "Total number of finalized option selections",
		},
		[]string{"round", "mode", "auto"},
	)

	AllocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "option_allocations_total",
			Help: "Total number of option-set allocations written",
		},
		[]string{"round", "mode"},
	)

	PairingsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pairings_active",
			Help: "Currently active pairings per round",
		},
		[]string{"round"},
	)

	SweepResolutionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sweep_resolutions_total",
			Help: "Pairings resolved by the timeout sweep",
		},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method", "status"},
	)
)
