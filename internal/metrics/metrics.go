// Package metrics provides Prometheus instrumentation for search runs:
// trial throughput, search and refit durations, and the best score reached
// per model family.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors for the tuner.
type Metrics struct {
	TrialsTotal     *prometheus.CounterVec   // trials evaluated, by family and strategy
	SearchDuration  *prometheus.HistogramVec // wall time of one family's search
	BestScore       *prometheus.GaugeVec     // best (least) loss observed per family
	FamiliesTotal   prometheus.Counter       // families completed
	ScoringFailures prometheus.Counter       // aborted searches
}

// New registers all collectors on the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers on a custom registry, keeping tests isolated
// from the global state.
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		TrialsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hypertune_trials_total",
			Help: "Number of hyperparameter trials evaluated",
		}, []string{"family", "strategy"}),
		SearchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hypertune_search_duration_seconds",
			Help:    "Duration of one family's hyperparameter search",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
		}, []string{"family"}),
		BestScore: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "hypertune_best_loss",
			Help: "Best (minimum) loss observed for a family",
		}, []string{"family"}),
		FamiliesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "hypertune_families_completed_total",
			Help: "Number of model families whose search completed",
		}),
		ScoringFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "hypertune_scoring_failures_total",
			Help: "Number of searches aborted by a scoring failure",
		}),
	}
}
