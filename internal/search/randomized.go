package search

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"hypertune/internal/cv"
	"hypertune/internal/dataset"
	"hypertune/internal/model"
)

// RandomizedConfig controls one randomized search run.
type RandomizedConfig struct {
	Trials   int
	Splitter cv.ShuffleSplit
	Metric   cv.Metric
	Workers  int   // bounded trial pool; <= 0 uses all processors
	Seed     int64 // sampling seed
}

// Randomized draws a fixed number of configurations from the distribution
// encoding and evaluates them on a bounded parallel pool. All configurations
// are sampled up front from a single seeded source, so a fixed seed yields a
// fixed trial sequence regardless of evaluation order.
type Randomized struct {
	base  model.Regressor
	dists Distributions
	cfg   RandomizedConfig
}

// NewRandomized validates the distribution encoding and binds it to a base
// model template.
func NewRandomized(base model.Regressor, dists Distributions, cfg RandomizedConfig) (*Randomized, error) {
	if cfg.Trials < 1 {
		return nil, fmt.Errorf("randomized search: trial budget must be at least 1")
	}
	if cfg.Splitter.NSplits < 1 {
		return nil, fmt.Errorf("randomized search: split count must be at least 1")
	}
	if err := dists.Validate(); err != nil {
		return nil, fmt.Errorf("randomized search: %w", err)
	}
	if cfg.Metric == nil {
		cfg.Metric = cv.R2
	}
	return &Randomized{base: base, dists: dists, cfg: cfg}, nil
}

// Search evaluates the trial budget against the dataset, picks the
// configuration with the minimum loss (ties resolve to the earliest trial),
// and refits a fresh copy of the base model on the entire dataset.
func (r *Randomized) Search(ctx context.Context, ds *dataset.Dataset) (*Result, error) {
	workers := r.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	rng := rand.New(rand.NewSource(r.cfg.Seed))
	configs := make([]model.Configuration, r.cfg.Trials)
	for i := range configs {
		configs[i] = r.dists.Sample(rng)
	}

	objective := &Objective{
		Template: r.base,
		Dataset:  ds,
		Splitter: r.cfg.Splitter,
		Metric:   r.cfg.Metric,
		Workers:  1, // trials are the parallel unit here, folds stay serial
	}

	trials := make([]Trial, r.cfg.Trials)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, params := range configs {
		i, params := i, params
		g.Go(func() error {
			start := time.Now()
			loss, err := objective.Evaluate(gctx, params)
			if err != nil {
				return fmt.Errorf("trial %d: %w", i, err)
			}
			trials[i] = Trial{Number: i, Params: params, Loss: loss, Elapsed: time.Since(start)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("randomized search for %s: %w", r.base.Name(), err)
	}

	best := 0
	for i := 1; i < len(trials); i++ {
		if trials[i].Loss < trials[best].Loss {
			best = i
		}
	}
	log.Debug().Str("family", r.base.Name()).Int("best_trial", best).
		Float64("best_loss", trials[best].Loss).Msg("randomized search scanned trials")

	refit := r.base.Clone()
	if err := refit.Configure(trials[best].Params); err != nil {
		return nil, fmt.Errorf("configure refit %s: %w", r.base.Name(), err)
	}
	if err := refit.Fit(ds.Features(), ds.Target()); err != nil {
		return nil, fmt.Errorf("refit %s on full dataset: %w", r.base.Name(), err)
	}

	return &Result{
		Family:     r.base.Name(),
		Strategy:   "random",
		BestParams: trials[best].Params,
		BestLoss:   trials[best].Loss,
		Model:      refit,
		Trials:     trials,
	}, nil
}
