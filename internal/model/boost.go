package model

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Boosting is the gradient-boosted-tree family: shallow regression trees fit
// sequentially to the residuals of the running prediction, each scaled by
// the learning rate. Row subsampling and per-tree column subsampling follow
// the usual gradient-boosting parameterization.
type Boosting struct {
	NEstimators     int
	LearningRate    float64
	MaxDepth        int
	MinChildWeight  int     // minimum rows per leaf
	Subsample       float64 // row fraction per boosting round
	ColsampleBytree float64 // feature fraction per tree
	Gamma           float64 // minimal loss reduction to split
	Seed            int64

	Base        float64 // initial prediction (target mean)
	Trees       []*regressionTree
	Importances []float64
	NFeatures   int
}

// NewBoosting returns a booster with conventional defaults.
func NewBoosting(seed int64) *Boosting {
	return &Boosting{
		NEstimators:     100,
		LearningRate:    0.3,
		MaxDepth:        6,
		MinChildWeight:  1,
		Subsample:       1.0,
		ColsampleBytree: 1.0,
		Gamma:           0.0,
		Seed:            seed,
	}
}

func (b *Boosting) Name() string { return "boost" }

func (b *Boosting) Configure(params Configuration) error {
	for name := range params {
		switch name {
		case "n_estimators", "learning_rate", "max_depth", "min_child_weight",
			"subsample", "colsample_bytree", "gamma":
		default:
			return &InvalidParameterError{Name: name, Value: params[name], Reason: "unknown parameter for gradient boosting"}
		}
	}
	if v, ok, err := params.Int("n_estimators"); err != nil {
		return err
	} else if ok {
		if v < 1 {
			return &InvalidParameterError{Name: "n_estimators", Value: v, Reason: "must be at least 1"}
		}
		b.NEstimators = v
	}
	if v, ok, err := params.Float("learning_rate"); err != nil {
		return err
	} else if ok {
		if v <= 0 || v > 1 {
			return &InvalidParameterError{Name: "learning_rate", Value: v, Reason: "must be in (0, 1]"}
		}
		b.LearningRate = v
	}
	if v, ok, err := params.Int("max_depth"); err != nil {
		return err
	} else if ok {
		if v < 1 {
			return &InvalidParameterError{Name: "max_depth", Value: v, Reason: "must be at least 1"}
		}
		b.MaxDepth = v
	}
	if v, ok, err := params.Int("min_child_weight"); err != nil {
		return err
	} else if ok {
		if v < 1 {
			return &InvalidParameterError{Name: "min_child_weight", Value: v, Reason: "must be at least 1"}
		}
		b.MinChildWeight = v
	}
	if v, ok, err := params.Float("subsample"); err != nil {
		return err
	} else if ok {
		if v <= 0 || v > 1 {
			return &InvalidParameterError{Name: "subsample", Value: v, Reason: "must be in (0, 1]"}
		}
		b.Subsample = v
	}
	if v, ok, err := params.Float("colsample_bytree"); err != nil {
		return err
	} else if ok {
		if v <= 0 || v > 1 {
			return &InvalidParameterError{Name: "colsample_bytree", Value: v, Reason: "must be in (0, 1]"}
		}
		b.ColsampleBytree = v
	}
	if v, ok, err := params.Float("gamma"); err != nil {
		return err
	} else if ok {
		if v < 0 {
			return &InvalidParameterError{Name: "gamma", Value: v, Reason: "must be non-negative"}
		}
		b.Gamma = v
	}
	return nil
}

func (b *Boosting) Clone() Regressor {
	return &Boosting{
		NEstimators:     b.NEstimators,
		LearningRate:    b.LearningRate,
		MaxDepth:        b.MaxDepth,
		MinChildWeight:  b.MinChildWeight,
		Subsample:       b.Subsample,
		ColsampleBytree: b.ColsampleBytree,
		Gamma:           b.Gamma,
		Seed:            b.Seed,
	}
}

func (b *Boosting) Fit(x *mat.Dense, y []float64) error {
	if err := checkFit(x, y); err != nil {
		return err
	}
	rows, cols := x.Dims()

	xr := make([][]float64, rows)
	for i := range xr {
		xr[i] = rowTo(nil, x, i)
	}

	rng := rand.New(rand.NewSource(b.Seed))
	base := mean(y)
	pred := make([]float64, rows)
	for i := range pred {
		pred[i] = base
	}
	residual := make([]float64, rows)

	maxFeatures := int(math.Ceil(b.ColsampleBytree * float64(cols)))
	if maxFeatures >= cols {
		maxFeatures = 0 // all features, skip subsampling
	}
	sampleSize := int(math.Ceil(b.Subsample * float64(rows)))

	trees := make([]*regressionTree, 0, b.NEstimators)
	importances := make([]float64, cols)

	for round := 0; round < b.NEstimators; round++ {
		for i := range residual {
			residual[i] = y[i] - pred[i]
		}
		sample := rng.Perm(rows)[:sampleSize]

		tree := &regressionTree{
			MaxDepth:       b.MaxDepth,
			MinSamplesLeaf: b.MinChildWeight,
			MinGain:        b.Gamma,
			MaxFeatures:    maxFeatures,
		}
		tree.fit(xr, residual, sample, rng, importances)
		trees = append(trees, tree)

		for i := range pred {
			pred[i] += b.LearningRate * tree.predict(xr[i])
		}
	}

	sum := 0.0
	for _, v := range importances {
		sum += v
	}
	if sum > 0 {
		for j := range importances {
			importances[j] /= sum
		}
	}

	b.Base = base
	b.Trees = trees
	b.Importances = importances
	b.NFeatures = cols
	return nil
}

func (b *Boosting) Predict(x *mat.Dense) ([]float64, error) {
	if b.Trees == nil {
		return nil, &NotFittedError{Op: "Boosting.Predict"}
	}
	rows, cols := x.Dims()
	if cols != b.NFeatures {
		return nil, &ShapeMismatchError{What: "feature columns", Want: b.NFeatures, Got: cols}
	}
	out := make([]float64, rows)
	row := make([]float64, cols)
	for i := 0; i < rows; i++ {
		row = rowTo(row, x, i)
		s := b.Base
		for _, tree := range b.Trees {
			s += b.LearningRate * tree.predict(row)
		}
		out[i] = s
	}
	return out, nil
}

// FeatureImportances returns the normalized split-gain importances
// accumulated across all boosting rounds.
func (b *Boosting) FeatureImportances() []float64 {
	return append([]float64(nil), b.Importances...)
}
