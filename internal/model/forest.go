package model

import (
	"fmt"
	"math/rand"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

// Forest is the tree-ensemble family: a random forest of regression trees
// with bootstrap sampling and per-split feature subsampling. Trees are grown
// in parallel; the seed plus the tree index gives each tree its own
// deterministic source, so a fixed seed yields a fixed forest.
type Forest struct {
	NEstimators    int
	MaxDepth       int // 0 means unlimited
	MaxFeatures    int // 0 means all features
	MinSamplesLeaf int
	Seed           int64

	Trees       []*regressionTree
	Importances []float64
	NFeatures   int
}

// NewForest returns a forest with the defaults used when no search is run.
func NewForest(seed int64) *Forest {
	return &Forest{
		NEstimators:    100,
		MaxDepth:       0,
		MaxFeatures:    0,
		MinSamplesLeaf: 1,
		Seed:           seed,
	}
}

func (f *Forest) Name() string { return "forest" }

func (f *Forest) Configure(params Configuration) error {
	for name := range params {
		switch name {
		case "n_estimators", "max_depth", "max_features", "min_samples_leaf":
		default:
			return &InvalidParameterError{Name: name, Value: params[name], Reason: "unknown parameter for random forest"}
		}
	}
	if v, ok, err := params.Int("n_estimators"); err != nil {
		return err
	} else if ok {
		if v < 1 {
			return &InvalidParameterError{Name: "n_estimators", Value: v, Reason: "must be at least 1"}
		}
		f.NEstimators = v
	}
	if v, ok, err := params.Int("max_depth"); err != nil {
		return err
	} else if ok {
		if v < 0 {
			return &InvalidParameterError{Name: "max_depth", Value: v, Reason: "must be non-negative"}
		}
		f.MaxDepth = v
	}
	if v, ok, err := params.Int("max_features"); err != nil {
		return err
	} else if ok {
		if v < 0 {
			return &InvalidParameterError{Name: "max_features", Value: v, Reason: "must be non-negative"}
		}
		f.MaxFeatures = v
	}
	if v, ok, err := params.Int("min_samples_leaf"); err != nil {
		return err
	} else if ok {
		if v < 1 {
			return &InvalidParameterError{Name: "min_samples_leaf", Value: v, Reason: "must be at least 1"}
		}
		f.MinSamplesLeaf = v
	}
	return nil
}

func (f *Forest) Clone() Regressor {
	return &Forest{
		NEstimators:    f.NEstimators,
		MaxDepth:       f.MaxDepth,
		MaxFeatures:    f.MaxFeatures,
		MinSamplesLeaf: f.MinSamplesLeaf,
		Seed:           f.Seed,
	}
}

func (f *Forest) Fit(x *mat.Dense, y []float64) error {
	if err := checkFit(x, y); err != nil {
		return err
	}
	rows, cols := x.Dims()

	xr := make([][]float64, rows)
	for i := range xr {
		xr[i] = rowTo(nil, x, i)
	}

	maxFeatures := f.MaxFeatures
	if maxFeatures > cols {
		maxFeatures = cols
	}

	trees := make([]*regressionTree, f.NEstimators)
	perTree := make([][]float64, f.NEstimators)

	g := new(errgroup.Group)
	g.SetLimit(runtime.NumCPU())
	for i := 0; i < f.NEstimators; i++ {
		i := i
		g.Go(func() error {
			rng := rand.New(rand.NewSource(f.Seed + int64(i)))
			sample := make([]int, rows)
			for j := range sample {
				sample[j] = rng.Intn(rows)
			}
			tree := &regressionTree{
				MaxDepth:       f.MaxDepth,
				MinSamplesLeaf: f.MinSamplesLeaf,
				MaxFeatures:    maxFeatures,
			}
			imp := make([]float64, cols)
			tree.fit(xr, y, sample, rng, imp)
			trees[i] = tree
			perTree[i] = imp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("random forest fit: %w", err)
	}

	total := make([]float64, cols)
	sum := 0.0
	for _, imp := range perTree {
		for j, v := range imp {
			total[j] += v
			sum += v
		}
	}
	if sum > 0 {
		for j := range total {
			total[j] /= sum
		}
	}

	f.Trees = trees
	f.Importances = total
	f.NFeatures = cols
	return nil
}

func (f *Forest) Predict(x *mat.Dense) ([]float64, error) {
	if f.Trees == nil {
		return nil, &NotFittedError{Op: "Forest.Predict"}
	}
	rows, cols := x.Dims()
	if cols != f.NFeatures {
		return nil, &ShapeMismatchError{What: "feature columns", Want: f.NFeatures, Got: cols}
	}
	out := make([]float64, rows)
	row := make([]float64, cols)
	for i := 0; i < rows; i++ {
		row = rowTo(row, x, i)
		s := 0.0
		for _, tree := range f.Trees {
			s += tree.predict(row)
		}
		out[i] = s / float64(len(f.Trees))
	}
	return out, nil
}

// FeatureImportances returns the normalized split-gain importances
// accumulated while growing the forest.
func (f *Forest) FeatureImportances() []float64 {
	return append([]float64(nil), f.Importances...)
}
