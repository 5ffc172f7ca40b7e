package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithRegistry(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewWithRegistry(registry)

	m.TrialsTotal.WithLabelValues("kernel", "random").Add(81)
	m.BestScore.WithLabelValues("kernel").Set(-0.93)
	m.FamiliesTotal.Inc()
	m.SearchDuration.WithLabelValues("kernel").Observe(1.5)

	assert.Equal(t, 81.0, testutil.ToFloat64(m.TrialsTotal.WithLabelValues("kernel", "random")))
	assert.Equal(t, -0.93, testutil.ToFloat64(m.BestScore.WithLabelValues("kernel")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FamiliesTotal))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ScoringFailures))

	families, err := testutil.GatherAndCount(registry,
		"hypertune_trials_total",
		"hypertune_search_duration_seconds",
		"hypertune_best_loss",
		"hypertune_families_completed_total",
		"hypertune_scoring_failures_total",
	)
	require.NoError(t, err)
	assert.Equal(t, 5, families)
}

func TestSeparateRegistriesDoNotCollide(t *testing.T) {
	a := NewWithRegistry(prometheus.NewRegistry())
	b := NewWithRegistry(prometheus.NewRegistry())

	a.FamiliesTotal.Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(a.FamiliesTotal))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.FamiliesTotal))
}
