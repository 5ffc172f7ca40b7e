// Package cv provides cross-validation splitting and scoring. Splits are
// derived deterministically from a seed so a fixed seed reproduces the same
// folds, and therefore the same search trajectory, across runs.
package cv

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"runtime"

	"golang.org/x/sync/errgroup"

	"hypertune/internal/dataset"
	"hypertune/internal/model"
)

// Metric scores predictions against ground truth; higher is better.
type Metric func(yTrue, yPred []float64) float64

// R2 is the coefficient of determination.
func R2(yTrue, yPred []float64) float64 {
	m := 0.0
	for _, v := range yTrue {
		m += v
	}
	m /= float64(len(yTrue))
	ssTot, ssRes := 0.0, 0.0
	for i := range yTrue {
		d := yTrue[i] - m
		ssTot += d * d
		r := yTrue[i] - yPred[i]
		ssRes += r * r
	}
	if ssTot == 0 {
		return 0
	}
	return 1 - ssRes/ssTot
}

// Fold is one train/validation partition.
type Fold struct {
	Train []int
	Test  []int
}

// ShuffleSplit draws NSplits independent random permutations and holds out
// TestSize of the rows each time. Each fold's permutation is seeded from
// Seed and the fold index, so folds are reproducible independent of
// evaluation order.
type ShuffleSplit struct {
	NSplits  int
	TestSize float64
	Seed     int64
}

// Split produces the folds for n rows.
func (s ShuffleSplit) Split(n int) []Fold {
	nTest := int(math.Ceil(s.TestSize * float64(n)))
	if nTest < 1 {
		nTest = 1
	}
	if nTest >= n {
		nTest = n - 1
	}
	folds := make([]Fold, s.NSplits)
	for i := range folds {
		rng := rand.New(rand.NewSource(s.Seed + int64(i)))
		perm := rng.Perm(n)
		folds[i] = Fold{
			Test:  append([]int(nil), perm[:nTest]...),
			Train: append([]int(nil), perm[nTest:]...),
		}
	}
	return folds
}

// ScoringError wraps a failure inside one fold's train/score cycle. It is
// not retried; the enclosing search aborts with it.
type ScoringError struct {
	Fold int
	Err  error
}

func (e *ScoringError) Error() string {
	return fmt.Sprintf("cross-validation scoring failed on fold %d: %v", e.Fold, e.Err)
}

func (e *ScoringError) Unwrap() error { return e.Err }

// Score trains a clone of template on each fold's training rows and scores
// its predictions on the held-out rows, returning one score per fold. Folds
// run on a bounded pool; workers <= 0 uses all processors. The dataset is
// shared read-only across the pool.
func Score(ctx context.Context, template model.Regressor, ds *dataset.Dataset, splitter ShuffleSplit, metric Metric, workers int) ([]float64, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	folds := splitter.Split(ds.Rows())
	scores := make([]float64, len(folds))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, fold := range folds {
		i, fold := i, fold
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			m := template.Clone()
			xTrain, yTrain := ds.Subset(fold.Train)
			if err := m.Fit(xTrain, yTrain); err != nil {
				return &ScoringError{Fold: i, Err: err}
			}
			xTest, yTest := ds.Subset(fold.Test)
			pred, err := m.Predict(xTest)
			if err != nil {
				return &ScoringError{Fold: i, Err: err}
			}
			scores[i] = metric(yTest, pred)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return scores, nil
}

// Mean averages fold scores.
func Mean(scores []float64) float64 {
	s := 0.0
	for _, v := range scores {
		s += v
	}
	return s / float64(len(scores))
}
