package search

import (
	"context"
	"fmt"

	"hypertune/internal/cv"
	"hypertune/internal/dataset"
	"hypertune/internal/model"
)

// Objective maps one hyperparameter configuration to a scalar loss. It binds
// a model template, the dataset, a scoring metric, and a validation split
// strategy. Each evaluation clones the template so no trained state leaks
// between trials.
//
// The metric is higher-is-better while optimization backends minimize, so
// Evaluate returns the NEGATED mean cross-validation score. This sign
// convention is part of the contract, not an implementation detail.
type Objective struct {
	Template model.Regressor
	Dataset  *dataset.Dataset
	Splitter cv.ShuffleSplit
	Metric   cv.Metric
	Workers  int // bounded fold pool; <= 0 uses all processors
}

// Evaluate scores a configuration. Configuration errors and scoring failures
// propagate unretried; a failed trial aborts the enclosing search.
func (o *Objective) Evaluate(ctx context.Context, params model.Configuration) (float64, error) {
	m := o.Template.Clone()
	if err := m.Configure(params); err != nil {
		return 0, fmt.Errorf("configure %s: %w", o.Template.Name(), err)
	}
	scores, err := cv.Score(ctx, m, o.Dataset, o.Splitter, o.Metric, o.Workers)
	if err != nil {
		return 0, err
	}
	return -cv.Mean(scores), nil
}
