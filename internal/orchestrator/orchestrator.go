// Package orchestrator runs the full experiment: load the dataset once,
// search each configured model family in order, persist every winning model,
// and render diagnostics for the families that support them.
//
// Families run strictly sequentially. A failure in any family aborts the
// whole run; there is no partial-result recovery.
package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/maps"

	"hypertune/internal/cfg"
	"hypertune/internal/cv"
	"hypertune/internal/dataset"
	"hypertune/internal/metrics"
	"hypertune/internal/plot"
	"hypertune/internal/search"
	"hypertune/internal/storage"
)

// Orchestrator owns the experiment's collaborators for one run.
type Orchestrator struct {
	settings cfg.Settings
	loader   *dataset.Loader
	families map[string]Family
	models   *storage.ModelStore
	trials   *storage.TrialStore // nil when history is disabled
	metrics  *metrics.Metrics    // nil when instrumentation is disabled
}

// New wires storage and the built-in family registry from the settings.
func New(settings cfg.Settings, m *metrics.Metrics) (*Orchestrator, error) {
	models, err := storage.NewModelStore(settings.ModelDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(settings.PicturesDir, 0o755); err != nil {
		return nil, fmt.Errorf("create pictures directory %s: %w", settings.PicturesDir, err)
	}

	var trials *storage.TrialStore
	if settings.TrialDBPath != "" {
		trials, err = storage.NewTrialStore(settings.TrialDBPath)
		if err != nil {
			return nil, err
		}
	}

	return &Orchestrator{
		settings: settings,
		loader:   dataset.NewLoader(),
		families: BuiltinFamilies(settings.Seed),
		models:   models,
		trials:   trials,
		metrics:  m,
	}, nil
}

// Close releases the trial history store.
func (o *Orchestrator) Close() error {
	if o.trials != nil {
		return o.trials.Close()
	}
	return nil
}

// Run executes the experiment. The dataset is loaded once and shared
// read-only by every family's search window.
func (o *Orchestrator) Run(ctx context.Context) error {
	ds, err := o.loader.Load(ctx, o.settings.FeaturesPath, o.settings.TargetPath)
	if err != nil {
		return err
	}
	log.Info().Int("rows", ds.Rows()).Int("cols", ds.Cols()).
		Str("strategy", o.settings.Strategy).Msg("dataset loaded")

	if o.settings.RenderVariance {
		path := filepath.Join(o.settings.PicturesDir, "variances.png")
		if err := plot.Variance(ds, path, plot.DefaultStyle()); err != nil {
			return err
		}
		log.Info().Str("path", path).Msg("variance diagnostic rendered")
	}

	for _, name := range o.settings.Families {
		family, ok := o.families[name]
		if !ok {
			known := maps.Keys(o.families)
			sort.Strings(known)
			return fmt.Errorf("unknown model family %q (known families: %v)", name, known)
		}

		start := time.Now()
		result, err := o.searchFamily(ctx, family, ds)
		if err != nil {
			if o.metrics != nil {
				o.metrics.ScoringFailures.Inc()
			}
			return fmt.Errorf("search family %s: %w", name, err)
		}
		elapsed := time.Since(start)

		log.Info().Str("family", name).Str("strategy", result.Strategy).
			Float64("best_loss", result.BestLoss).
			Interface("best_params", result.BestParams).
			Dur("elapsed", elapsed).Msg("family search completed")

		if o.metrics != nil {
			o.metrics.TrialsTotal.WithLabelValues(name, result.Strategy).Add(float64(len(result.Trials)))
			o.metrics.SearchDuration.WithLabelValues(name).Observe(elapsed.Seconds())
			o.metrics.BestScore.WithLabelValues(name).Set(result.BestLoss)
			o.metrics.FamiliesTotal.Inc()
		}

		if o.trials != nil {
			if err := o.trials.Record(name, result.Trials); err != nil {
				return fmt.Errorf("record trials for %s: %w", name, err)
			}
		}

		if name == "forest" {
			path := filepath.Join(o.settings.PicturesDir, "feature_importances.png")
			if err := plot.Importance(result.Model, path, plot.DefaultStyle()); err != nil {
				return err
			}
			log.Info().Str("path", path).Msg("importance diagnostic rendered")
		}

		if err := o.models.Save(name, result.Model, result.BestParams, result.BestLoss); err != nil {
			return err
		}
		log.Info().Str("family", name).Str("path", o.models.Path(name)).Msg("model persisted")
	}
	return nil
}

func (o *Orchestrator) searchFamily(ctx context.Context, family Family, ds *dataset.Dataset) (*search.Result, error) {
	splitter := cv.ShuffleSplit{
		NSplits:  o.settings.Splits,
		TestSize: o.settings.TestSize,
		Seed:     o.settings.Seed,
	}

	switch o.settings.Strategy {
	case "bayes":
		adapter, err := search.NewAdapter(family.Template, family.Domains, search.AdapterConfig{
			Trials:   o.settings.Trials,
			Splitter: splitter,
			Metric:   cv.R2,
			Workers:  o.settings.Workers,
			Seed:     o.settings.Seed,
		})
		if err != nil {
			return nil, err
		}
		if _, err := adapter.Fit(ctx, ds.Features(), ds.Target()); err != nil {
			return nil, err
		}
		return adapter.Result(), nil
	default:
		randomized, err := search.NewRandomized(family.Template, family.Distributions, search.RandomizedConfig{
			Trials:   o.settings.Trials,
			Splitter: splitter,
			Metric:   cv.R2,
			Workers:  o.settings.Workers,
			Seed:     o.settings.Seed,
		})
		if err != nil {
			return nil, err
		}
		return randomized.Search(ctx, ds)
	}
}
