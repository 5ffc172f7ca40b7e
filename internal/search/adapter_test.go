package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"hypertune/internal/cv"
	"hypertune/internal/model"
)

func kernelDomains() Domains {
	return Domains{
		"C":     LogFloat(1, 1e4),
		"gamma": LogFloat(1e-2, 1e2),
	}
}

func adapterConfig(trials int) AdapterConfig {
	return AdapterConfig{
		Trials:   trials,
		Splitter: cv.ShuffleSplit{NSplits: 3, TestSize: 0.2, Seed: 1},
		Metric:   cv.R2,
		Workers:  2,
		Seed:     1,
	}
}

func TestAdapterPredictBeforeFit(t *testing.T) {
	a, err := NewAdapter(model.NewKernelRidge(), kernelDomains(), adapterConfig(5))
	require.NoError(t, err)

	_, err = a.Predict(mat.NewDense(2, 5, nil))
	require.Error(t, err)

	var notFitted *model.NotFittedError
	assert.ErrorAs(t, err, &notFitted)
	assert.Nil(t, a.BestParams())
	assert.Nil(t, a.BestModel())
}

func TestAdapterFitRejectsRowMismatchBeforeSearching(t *testing.T) {
	a, err := NewAdapter(model.NewKernelRidge(), kernelDomains(), adapterConfig(5))
	require.NoError(t, err)

	x := mat.NewDense(10, 2, nil)
	_, err = a.Fit(context.Background(), x, make([]float64, 9))
	require.Error(t, err)

	var shape *model.ShapeMismatchError
	require.ErrorAs(t, err, &shape)
	assert.Equal(t, 10, shape.Want)
	assert.Equal(t, 9, shape.Got)
	assert.Empty(t, a.Result().Trials) // the backend never ran
}

func TestAdapterSearchRefitPredict(t *testing.T) {
	x, y := linearDataset(t, 100, 5)

	a, err := NewAdapter(model.NewKernelRidge(), kernelDomains(), adapterConfig(20))
	require.NoError(t, err)

	fitted, err := a.Fit(context.Background(), x, y)
	require.NoError(t, err)
	assert.Same(t, a, fitted)

	res := a.Result()
	require.Len(t, res.Trials, 20)
	assert.Equal(t, "bayes", res.Strategy)
	assert.Equal(t, "kernel", res.Family)

	// Best loss is the minimum over all recorded trials.
	minLoss := res.Trials[0].Loss
	for _, tr := range res.Trials {
		if tr.Loss < minLoss {
			minLoss = tr.Loss
		}
	}
	assert.InDelta(t, minLoss, a.BestLoss(), 1e-12)

	pred, err := a.Predict(x)
	require.NoError(t, err)
	require.Len(t, pred, 100)
	assert.Greater(t, cv.R2(y, pred), 0.8)

	// Prediction is repeatable.
	again, err := a.Predict(x)
	require.NoError(t, err)
	assert.Equal(t, pred, again)
}

func TestAdapterPredictColumnMismatch(t *testing.T) {
	x, y := linearDataset(t, 60, 4)
	a, err := NewAdapter(model.NewKernelRidge(), kernelDomains(), adapterConfig(5))
	require.NoError(t, err)
	_, err = a.Fit(context.Background(), x, y)
	require.NoError(t, err)

	_, err = a.Predict(mat.NewDense(3, 6, nil))
	require.Error(t, err)

	var shape *model.ShapeMismatchError
	require.ErrorAs(t, err, &shape)
	assert.Equal(t, 4, shape.Want)
	assert.Equal(t, 6, shape.Got)
}

func TestAdapterDeterministicAcrossRuns(t *testing.T) {
	x, y := linearDataset(t, 80, 3)

	run := func() *Result {
		a, err := NewAdapter(model.NewKernelRidge(), kernelDomains(), adapterConfig(12))
		require.NoError(t, err)
		_, err = a.Fit(context.Background(), x, y)
		require.NoError(t, err)
		return a.Result()
	}
	a, b := run(), run()
	assert.Equal(t, a.BestParams, b.BestParams)
	assert.Equal(t, a.BestLoss, b.BestLoss)
}

func TestNewAdapterValidation(t *testing.T) {
	splitter := cv.ShuffleSplit{NSplits: 3, TestSize: 0.2, Seed: 1}

	_, err := NewAdapter(model.NewKernelRidge(), kernelDomains(), AdapterConfig{Trials: 0, Splitter: splitter})
	assert.Error(t, err)

	_, err = NewAdapter(model.NewKernelRidge(), Domains{}, AdapterConfig{Trials: 1, Splitter: splitter})
	assert.Error(t, err)

	// A zero-split splitter would average an empty score slice into NaN.
	_, err = NewAdapter(model.NewKernelRidge(), kernelDomains(), AdapterConfig{Trials: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "split count")
}
