package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForestFitsAndRanksDominantFeature(t *testing.T) {
	x, y := linearData(t, 200, 5, 0.01)

	f := NewForest(1)
	require.NoError(t, f.Configure(Configuration{
		"n_estimators": 30,
		"max_depth":    6,
	}))
	require.NoError(t, f.Fit(x, y))

	pred, err := f.Predict(x)
	require.NoError(t, err)
	assert.Greater(t, r2(y, pred), 0.8)

	imp := f.FeatureImportances()
	require.Len(t, imp, 5)
	sum := 0.0
	for j, v := range imp {
		assert.GreaterOrEqual(t, v, 0.0, "importance %d", j)
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	for j := 1; j < 5; j++ {
		assert.Greater(t, imp[0], imp[j], "x0 drives the target, must dominate feature %d", j)
	}
}

func TestForestDeterministicUnderSeed(t *testing.T) {
	x, y := linearData(t, 100, 4, 0.05)

	pred := func() []float64 {
		f := NewForest(7)
		require.NoError(t, f.Configure(Configuration{"n_estimators": 10, "max_depth": 4}))
		require.NoError(t, f.Fit(x, y))
		out, err := f.Predict(x)
		require.NoError(t, err)
		return out
	}

	assert.Equal(t, pred(), pred())
}

func TestForestConfigureRejectsBadParams(t *testing.T) {
	err := NewForest(1).Configure(Configuration{"n_estimators": 0})
	var invalid *InvalidParameterError
	require.ErrorAs(t, err, &invalid)

	err = NewForest(1).Configure(Configuration{"criterion": "mse"})
	require.ErrorAs(t, err, &invalid)
}

func TestForestPredictBeforeFit(t *testing.T) {
	x, _ := linearData(t, 10, 3, 0)
	_, err := NewForest(1).Predict(x)

	var notFitted *NotFittedError
	require.ErrorAs(t, err, &notFitted)
}

func TestBoostingFitsLinearTarget(t *testing.T) {
	x, y := linearData(t, 200, 5, 0.01)

	b := NewBoosting(1)
	require.NoError(t, b.Configure(Configuration{
		"n_estimators":  100,
		"learning_rate": 0.2,
		"max_depth":     3,
	}))
	require.NoError(t, b.Fit(x, y))

	pred, err := b.Predict(x)
	require.NoError(t, err)
	assert.Greater(t, r2(y, pred), 0.9)

	imp := b.FeatureImportances()
	require.Len(t, imp, 5)
	sum := 0.0
	for _, v := range imp {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestBoostingDeterministicUnderSeed(t *testing.T) {
	x, y := linearData(t, 100, 4, 0.05)

	pred := func() []float64 {
		b := NewBoosting(3)
		require.NoError(t, b.Configure(Configuration{"n_estimators": 20, "max_depth": 3, "subsample": 0.8}))
		require.NoError(t, b.Fit(x, y))
		out, err := b.Predict(x)
		require.NoError(t, err)
		return out
	}

	assert.Equal(t, pred(), pred())
}

func TestBoostingConfigureRejectsBadParams(t *testing.T) {
	var invalid *InvalidParameterError

	err := NewBoosting(1).Configure(Configuration{"learning_rate": 0.0})
	require.ErrorAs(t, err, &invalid)

	err = NewBoosting(1).Configure(Configuration{"subsample": 1.5})
	require.ErrorAs(t, err, &invalid)

	err = NewBoosting(1).Configure(Configuration{"booster": "dart"})
	require.ErrorAs(t, err, &invalid)
}

func TestBoostingPredictBeforeFit(t *testing.T) {
	x, _ := linearData(t, 10, 3, 0)
	_, err := NewBoosting(1).Predict(x)

	var notFitted *NotFittedError
	require.ErrorAs(t, err, &notFitted)
}
