// Package model defines the trainable-model contract shared by all candidate
// regressor families, and the three built-in families: an RBF kernel ridge
// machine, a random-forest ensemble, and gradient-boosted trees.
//
// Models are plain structs with exported hyperparameter fields so fitted
// instances can be gob-serialized for persistence. A model moves through a
// simple lifecycle: constructed with defaults, optionally reconfigured via
// Configure, trained once via Fit, then queried via Predict.
package model

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Configuration maps hyperparameter names to sampled values. Values are
// produced by a search strategy and may arrive as float64, int, or string
// depending on the sampling domain; Configure implementations coerce and
// validate them.
type Configuration map[string]any

// Regressor is the uniform contract every candidate model family presents to
// the search machinery.
type Regressor interface {
	// Name identifies the model family, e.g. "forest".
	Name() string

	// Configure applies a hyperparameter configuration. Unknown names,
	// wrongly-typed values, and out-of-domain values are rejected with an
	// InvalidParameterError. Parameters absent from the configuration keep
	// their current values.
	Configure(params Configuration) error

	// Clone returns a fresh, unfitted copy carrying the same
	// hyperparameters. Search trials clone the template so no trained
	// state leaks between evaluations.
	Clone() Regressor

	// Fit trains the model on a feature matrix and a row-aligned target
	// vector.
	Fit(x *mat.Dense, y []float64) error

	// Predict returns one prediction per input row. It fails with a
	// NotFittedError before Fit and with a ShapeMismatchError when the
	// column count differs from the training matrix.
	Predict(x *mat.Dense) ([]float64, error)
}

// FeatureImporter is implemented by the tree-ensemble families only. The
// returned vector has one non-negative entry per feature and sums to one.
type FeatureImporter interface {
	FeatureImportances() []float64
}

// Float extracts a float64 parameter, accepting ints as well since discrete
// sampling domains produce them.
func (c Configuration) Float(name string) (float64, bool, error) {
	v, ok := c[name]
	if !ok {
		return 0, false, nil
	}
	switch t := v.(type) {
	case float64:
		return t, true, nil
	case float32:
		return float64(t), true, nil
	case int:
		return float64(t), true, nil
	case int64:
		return float64(t), true, nil
	default:
		return 0, false, &InvalidParameterError{Name: name, Value: v, Reason: "expected a numeric value"}
	}
}

// Int extracts an integer parameter, accepting integral floats since
// optimization backends report parameters in a float representation.
func (c Configuration) Int(name string) (int, bool, error) {
	v, ok := c[name]
	if !ok {
		return 0, false, nil
	}
	switch t := v.(type) {
	case int:
		return t, true, nil
	case int64:
		return int(t), true, nil
	case float64:
		if t != math.Trunc(t) {
			return 0, false, &InvalidParameterError{Name: name, Value: v, Reason: "expected an integer value"}
		}
		return int(t), true, nil
	default:
		return 0, false, &InvalidParameterError{Name: name, Value: v, Reason: "expected an integer value"}
	}
}

// rowTo copies row i of x into dst, allocating when dst is nil.
func rowTo(dst []float64, x *mat.Dense, i int) []float64 {
	_, cols := x.Dims()
	if dst == nil {
		dst = make([]float64, cols)
	}
	for j := 0; j < cols; j++ {
		dst[j] = x.At(i, j)
	}
	return dst
}

// checkFit validates fit-time shapes shared by all families.
func checkFit(x *mat.Dense, y []float64) error {
	rows, cols := x.Dims()
	if rows == 0 || cols == 0 {
		return &ShapeMismatchError{What: "feature matrix rows", Want: 1, Got: rows}
	}
	if len(y) != rows {
		return &ShapeMismatchError{What: "target rows", Want: rows, Got: len(y)}
	}
	return nil
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	s := 0.0
	for _, v := range xs {
		s += v
	}
	return s / float64(len(xs))
}
