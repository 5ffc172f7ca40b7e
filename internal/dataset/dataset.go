// Package dataset holds the row-aligned feature matrix / target vector pair
// every search runs against, and the loader that reads both halves from
// gob-serialized blobs (local files or HTTP sources).
package dataset

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"hypertune/internal/model"
)

// Dataset is an immutable pair of a feature matrix and a target vector.
// It is loaded once per run and shared read-only across parallel workers.
type Dataset struct {
	x *mat.Dense
	y []float64
}

// New validates row alignment and a constant feature count and wraps the
// pair. The inputs are referenced, not copied; callers must not mutate them
// afterwards.
func New(features [][]float64, target []float64) (*Dataset, error) {
	if len(features) == 0 {
		return nil, &model.ShapeMismatchError{What: "feature matrix rows", Want: 1, Got: 0}
	}
	cols := len(features[0])
	if cols == 0 {
		return nil, &model.ShapeMismatchError{What: "feature columns", Want: 1, Got: 0}
	}
	for _, row := range features {
		if len(row) != cols {
			return nil, &model.ShapeMismatchError{What: "feature columns", Want: cols, Got: len(row)}
		}
	}
	if len(target) != len(features) {
		return nil, &model.ShapeMismatchError{What: "target rows", Want: len(features), Got: len(target)}
	}

	flat := make([]float64, 0, len(features)*cols)
	for _, row := range features {
		flat = append(flat, row...)
	}
	return &Dataset{x: mat.NewDense(len(features), cols, flat), y: target}, nil
}

// FromMatrix wraps an existing matrix/target pair after validating row
// alignment. The inputs are referenced, not copied.
func FromMatrix(x *mat.Dense, y []float64) (*Dataset, error) {
	rows, cols := x.Dims()
	if rows == 0 || cols == 0 {
		return nil, &model.ShapeMismatchError{What: "feature matrix rows", Want: 1, Got: rows}
	}
	if len(y) != rows {
		return nil, &model.ShapeMismatchError{What: "target rows", Want: rows, Got: len(y)}
	}
	return &Dataset{x: x, y: y}, nil
}

// Features returns the feature matrix. Treat it as read-only.
func (d *Dataset) Features() *mat.Dense { return d.x }

// Target returns the target vector. Treat it as read-only.
func (d *Dataset) Target() []float64 { return d.y }

// Rows returns the sample count.
func (d *Dataset) Rows() int {
	r, _ := d.x.Dims()
	return r
}

// Cols returns the feature count.
func (d *Dataset) Cols() int {
	_, c := d.x.Dims()
	return c
}

// Variances returns the unbiased per-feature variance, used by the variance
// diagnostic.
func (d *Dataset) Variances() []float64 {
	rows, cols := d.x.Dims()
	out := make([]float64, cols)
	col := make([]float64, rows)
	for j := 0; j < cols; j++ {
		mat.Col(col, j, d.x)
		out[j] = stat.Variance(col, nil)
	}
	return out
}

// Subset returns a new Dataset containing the given rows, in order. Used for
// cross-validation folds; the underlying rows are copied so folds never
// alias each other.
func (d *Dataset) Subset(idx []int) (*mat.Dense, []float64) {
	_, cols := d.x.Dims()
	x := mat.NewDense(len(idx), cols, nil)
	y := make([]float64, len(idx))
	for i, src := range idx {
		for j := 0; j < cols; j++ {
			x.Set(i, j, d.x.At(src, j))
		}
		y[i] = d.y[src]
	}
	return x, y
}
