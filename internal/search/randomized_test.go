package search

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hypertune/internal/cv"
)

func TestRandomizedSearchFindsLowestLoss(t *testing.T) {
	dists := Distributions{"level": Uniform{Low: 0, High: 10}}
	cfg := RandomizedConfig{
		Trials:   30,
		Splitter: cv.ShuffleSplit{NSplits: 2, TestSize: 0.2, Seed: 1},
		Metric:   levelMetric,
		Seed:     11,
		Workers:  4,
	}
	r, err := NewRandomized(&constModel{}, dists, cfg)
	require.NoError(t, err)

	res, err := r.Search(context.Background(), searchDataset(t, 20))
	require.NoError(t, err)
	require.Len(t, res.Trials, 30)
	assert.Equal(t, "random", res.Strategy)

	// Replay the sampling stream: the winner must be the draw nearest 3.
	rng := rand.New(rand.NewSource(11))
	wantLoss := math.Inf(1)
	var wantLevel float64
	for i := 0; i < 30; i++ {
		level := dists.Sample(rng)["level"].(float64)
		if loss := math.Abs(level - 3); loss < wantLoss {
			wantLoss = loss
			wantLevel = level
		}
	}
	assert.Equal(t, wantLevel, res.BestParams["level"])
	assert.InDelta(t, wantLoss, res.BestLoss, 1e-12)
}

func TestRandomizedSearchDeterministic(t *testing.T) {
	dists := Distributions{"level": Uniform{Low: 0, High: 10}}
	cfg := RandomizedConfig{
		Trials:   15,
		Splitter: cv.ShuffleSplit{NSplits: 2, TestSize: 0.2, Seed: 1},
		Metric:   levelMetric,
		Seed:     5,
	}
	run := func() *Result {
		r, err := NewRandomized(&constModel{}, dists, cfg)
		require.NoError(t, err)
		res, err := r.Search(context.Background(), searchDataset(t, 20))
		require.NoError(t, err)
		return res
	}
	a, b := run(), run()
	assert.Equal(t, a.BestParams, b.BestParams)
	assert.Equal(t, a.BestLoss, b.BestLoss)
	for i := range a.Trials {
		assert.Equal(t, a.Trials[i].Params, b.Trials[i].Params)
		assert.Equal(t, a.Trials[i].Loss, b.Trials[i].Loss)
	}
}

func TestRandomizedSearchTieBreaksToEarliestTrial(t *testing.T) {
	// A single-point space makes every trial identical; the earliest wins.
	dists := Distributions{"level": Values{4.0}}
	cfg := RandomizedConfig{
		Trials:   5,
		Splitter: cv.ShuffleSplit{NSplits: 2, TestSize: 0.2, Seed: 1},
		Metric:   levelMetric,
		Seed:     1,
	}
	r, err := NewRandomized(&constModel{}, dists, cfg)
	require.NoError(t, err)
	res, err := r.Search(context.Background(), searchDataset(t, 20))
	require.NoError(t, err)

	assert.Equal(t, res.Trials[0].Params, res.BestParams)
	assert.Equal(t, res.Trials[0].Loss, res.BestLoss)
}

func TestNewRandomizedValidation(t *testing.T) {
	dists := Distributions{"level": Uniform{Low: 0, High: 1}}
	splitter := cv.ShuffleSplit{NSplits: 2, TestSize: 0.2, Seed: 1}

	_, err := NewRandomized(&constModel{}, dists, RandomizedConfig{Trials: 0, Splitter: splitter})
	assert.Error(t, err)

	_, err = NewRandomized(&constModel{}, Distributions{}, RandomizedConfig{Trials: 1, Splitter: splitter})
	assert.Error(t, err)

	// A zero-split splitter would average an empty score slice into NaN.
	_, err = NewRandomized(&constModel{}, dists, RandomizedConfig{Trials: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "split count")
}
