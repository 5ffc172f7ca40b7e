package search

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/c-bata/goptuna"
	"github.com/c-bata/goptuna/tpe"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"

	"hypertune/internal/cv"
	"hypertune/internal/dataset"
	"hypertune/internal/model"
)

// adapterState tracks the adapter's lifecycle. Predict is only legal once
// the adapter reaches stateFitted.
type adapterState int

const (
	stateUnfit adapterState = iota
	stateSearching
	stateRefit
	stateFitted
)

func (s adapterState) String() string {
	switch s {
	case stateUnfit:
		return "unfit"
	case stateSearching:
		return "searching"
	case stateRefit:
		return "refit"
	case stateFitted:
		return "fitted"
	default:
		return "unknown"
	}
}

// AdapterConfig controls one Bayesian search run.
type AdapterConfig struct {
	Trials   int // evaluation budget, counted in trials
	Splitter cv.ShuffleSplit
	Metric   cv.Metric
	Workers  int   // bounded fold pool inside each trial
	Seed     int64 // sampler seed
}

// Adapter wraps the Bayesian-optimization backend behind the same
// configure/fit/predict contract the underlying models present, so callers
// drive a hyperparameter search exactly like a single model. It owns the
// dataset only for the duration of Fit and releases it after the final
// refit.
type Adapter struct {
	base    model.Regressor
	domains Domains
	cfg     AdapterConfig

	state      adapterState
	best       model.Regressor
	bestParams model.Configuration
	bestLoss   float64
	trials     []Trial
	nFeatures  int
}

// NewAdapter validates the domain encoding and binds it to a base model
// template.
func NewAdapter(base model.Regressor, domains Domains, cfg AdapterConfig) (*Adapter, error) {
	if cfg.Trials < 1 {
		return nil, fmt.Errorf("adapter: trial budget must be at least 1")
	}
	if cfg.Splitter.NSplits < 1 {
		return nil, fmt.Errorf("adapter: split count must be at least 1")
	}
	if err := domains.Validate(); err != nil {
		return nil, fmt.Errorf("adapter: %w", err)
	}
	if cfg.Metric == nil {
		cfg.Metric = cv.R2
	}
	return &Adapter{base: base, domains: domains, cfg: cfg}, nil
}

// Fit searches the domain space with the backend, then refits a fresh copy
// of the base model with the winning configuration on the ENTIRE dataset.
// Cross-validation folds only ever see partial data, so the deployed model
// is retrained on everything. Returns the adapter for fluent chaining.
//
// Shape validation happens before the backend is invoked; a row-count
// mismatch never starts a search.
func (a *Adapter) Fit(ctx context.Context, x *mat.Dense, y []float64) (*Adapter, error) {
	rows, cols := x.Dims()
	if len(y) != rows {
		return nil, &model.ShapeMismatchError{What: "target rows", Want: rows, Got: len(y)}
	}
	ds, err := dataset.FromMatrix(x, y)
	if err != nil {
		return nil, err
	}

	a.state = stateSearching
	a.trials = a.trials[:0]
	objective := &Objective{
		Template: a.base,
		Dataset:  ds,
		Splitter: a.cfg.Splitter,
		Metric:   a.cfg.Metric,
		Workers:  a.cfg.Workers,
	}

	study, err := goptuna.CreateStudy(
		a.base.Name(),
		goptuna.StudyOptionSampler(tpe.NewSampler(tpe.SamplerOptionSeed(a.cfg.Seed))),
		goptuna.StudyOptionDirection(goptuna.StudyDirectionMinimize),
		goptuna.StudyOptionLogger(nil),
	)
	if err != nil {
		a.state = stateUnfit
		return nil, fmt.Errorf("create study: %w", err)
	}

	run := func(trial goptuna.Trial) (float64, error) {
		params, err := a.domains.suggestAll(trial)
		if err != nil {
			return 0, err
		}
		start := time.Now()
		loss, err := objective.Evaluate(ctx, params)
		if err != nil {
			return 0, err
		}
		a.trials = append(a.trials, Trial{
			Number:  len(a.trials),
			Params:  params,
			Loss:    loss,
			Elapsed: time.Since(start),
		})
		log.Debug().Str("family", a.base.Name()).Int("trial", len(a.trials)-1).
			Float64("loss", loss).Msg("bayes trial evaluated")
		return loss, nil
	}
	if err := study.Optimize(run, a.cfg.Trials); err != nil {
		a.state = stateUnfit
		return nil, fmt.Errorf("bayesian search for %s: %w", a.base.Name(), err)
	}

	rawBest, err := study.GetBestParams()
	if err != nil {
		a.state = stateUnfit
		return nil, fmt.Errorf("best parameters for %s: %w", a.base.Name(), err)
	}
	bestParams, err := a.domains.decodeAll(rawBest)
	if err != nil {
		a.state = stateUnfit
		return nil, err
	}
	bestLoss, err := study.GetBestValue()
	if err != nil {
		a.state = stateUnfit
		return nil, fmt.Errorf("best value for %s: %w", a.base.Name(), err)
	}

	a.state = stateRefit
	refit := a.base.Clone()
	if err := refit.Configure(bestParams); err != nil {
		a.state = stateUnfit
		return nil, fmt.Errorf("configure refit %s: %w", a.base.Name(), err)
	}
	if err := refit.Fit(x, y); err != nil {
		a.state = stateUnfit
		return nil, fmt.Errorf("refit %s on full dataset: %w", a.base.Name(), err)
	}

	a.best = refit
	a.bestParams = bestParams
	a.bestLoss = bestLoss
	a.nFeatures = cols
	a.state = stateFitted

	// Drop the dataset references held during the search and nudge the
	// runtime to reclaim them. Best effort, not a correctness requirement.
	objective.Dataset = nil
	runtime.GC()

	return a, nil
}

// Predict delegates to the refit model. Calling it in any state other than
// fitted fails with a NotFittedError; predictions are repeatable and
// row-aligned with the input.
func (a *Adapter) Predict(x *mat.Dense) ([]float64, error) {
	if a.state != stateFitted {
		return nil, &model.NotFittedError{Op: "Adapter.Predict"}
	}
	_, cols := x.Dims()
	if cols != a.nFeatures {
		return nil, &model.ShapeMismatchError{What: "feature columns", Want: a.nFeatures, Got: cols}
	}
	return a.best.Predict(x)
}

// BestParams returns the winning configuration. Nil before a successful Fit.
func (a *Adapter) BestParams() model.Configuration { return a.bestParams }

// BestModel returns the model refit on the full dataset.
func (a *Adapter) BestModel() model.Regressor { return a.best }

// BestLoss returns the minimum observed loss across all trials.
func (a *Adapter) BestLoss() float64 { return a.bestLoss }

// Result assembles the immutable search outcome.
func (a *Adapter) Result() *Result {
	return &Result{
		Family:     a.base.Name(),
		Strategy:   "bayes",
		BestParams: a.bestParams,
		BestLoss:   a.bestLoss,
		Model:      a.best,
		Trials:     append([]Trial(nil), a.trials...),
	}
}
