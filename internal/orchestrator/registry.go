package orchestrator

import (
	"hypertune/internal/model"
	"hypertune/internal/search"
)

// Family bundles a model template with its two search-space encodings. The
// encodings are independent: randomized search consumes the distribution
// form, the Bayesian adapter consumes the domain-expression form.
type Family struct {
	Name          string
	Template      model.Regressor
	Distributions search.Distributions
	Domains       search.Domains
}

// powersOfTen is the classic coarse grid for kernel-machine C and gamma.
var powersOfTen = search.Values{1e-4, 1e-3, 1e-2, 1e-1, 1e0, 1e1, 1e2, 1e3, 1e4}

// BuiltinFamilies returns the three candidate families. Tree learners are
// seeded so a fixed seed reproduces the whole search.
func BuiltinFamilies(seed int64) map[string]Family {
	fractions := search.Values{0.6, 0.7, 0.8, 0.9, 1.0}

	return map[string]Family{
		"kernel": {
			Name:     "kernel",
			Template: model.NewKernelRidge(),
			Distributions: search.Distributions{
				"C":     powersOfTen,
				"gamma": powersOfTen,
			},
			Domains: search.Domains{
				"C":     search.LogFloat(1e-4, 1e4),
				"gamma": search.LogFloat(1e-4, 1e4),
			},
		},
		"forest": {
			Name:     "forest",
			Template: model.NewForest(seed),
			Distributions: search.Distributions{
				"max_depth":    search.RandInt{Low: 1, High: 10},
				"max_features": search.RandInt{Low: 5, High: 33},
				"n_estimators": search.RandInt{Low: 10, High: 100},
			},
			Domains: search.Domains{
				"max_depth":    search.Int(1, 9),
				"max_features": search.Int(5, 32),
				"n_estimators": search.Int(10, 99),
			},
		},
		"boost": {
			Name:     "boost",
			Template: model.NewBoosting(seed),
			Distributions: search.Distributions{
				"colsample_bytree": fractions,
				"gamma":            search.Uniform{Low: 0.0, High: 1.0},
				"learning_rate":    search.Uniform{Low: 0.01, High: 1.0},
				"max_depth":        search.RandInt{Low: 1, High: 10},
				"min_child_weight": search.RandInt{Low: 1, High: 10},
				"n_estimators":     search.RandInt{Low: 100, High: 500},
				"subsample":        fractions,
			},
			Domains: search.Domains{
				"colsample_bytree": search.Choice(0.6, 0.7, 0.8, 0.9, 1.0),
				"gamma":            search.Float(0.0, 1.0),
				"learning_rate":    search.Float(0.01, 1.0),
				"max_depth":        search.Int(1, 9),
				"min_child_weight": search.Int(1, 9),
				"n_estimators":     search.Int(100, 499),
				"subsample":        search.Choice(0.6, 0.7, 0.8, 0.9, 1.0),
			},
		},
	}
}
