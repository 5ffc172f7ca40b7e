// Package plot renders the two diagnostic bar charts: per-feature unbiased
// variance (log scale) and per-feature importance (linear scale). Styling is
// passed explicitly per call; there is no process-wide plotting state.
package plot

import (
	"fmt"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"hypertune/internal/dataset"
	"hypertune/internal/model"
)

// Style carries the figure configuration for one render call.
type Style struct {
	Width    vg.Length
	Height   vg.Length
	BarWidth vg.Length

	// ImportanceYMax fixes the importance chart's y-axis upper bound. The
	// default of 0.02 is calibrated to the importance magnitudes expected
	// at this feature count; callers with differently-scaled importances
	// must override it.
	ImportanceYMax float64
}

// DefaultStyle returns the calibration used by the orchestrator.
func DefaultStyle() Style {
	return Style{
		Width:          6 * vg.Inch,
		Height:         4 * vg.Inch,
		BarWidth:       vg.Points(4),
		ImportanceYMax: 0.02,
	}
}

// Variance writes a log-scale bar chart of each feature's unbiased variance.
// The input dataset is not mutated.
func Variance(ds *dataset.Dataset, path string, style Style) error {
	variances := ds.Variances()

	// Log scale cannot represent non-positive values; constant features
	// are clamped to a floor instead of breaking the chart.
	clamped := make([]float64, len(variances))
	lo, hi := math.Inf(1), math.Inf(-1)
	for i, v := range variances {
		if v <= 0 {
			v = 1e-12
		}
		clamped[i] = v
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	// The log scale cannot transform zero either, and plain bars are drawn
	// from zero. Stacking the visible bars on an invisible positive floor
	// keeps every transformed value strictly positive; the floor chart is
	// never added to the plot.
	floor := lo / 10
	baseVals := make(plotter.Values, len(clamped))
	heights := make(plotter.Values, len(clamped))
	for i, v := range clamped {
		baseVals[i] = floor
		heights[i] = v - floor
	}

	p := plot.New()
	p.X.Label.Text = "Features"
	p.Y.Label.Text = "Unbiased variance"
	p.Y.Scale = plot.LogScale{}
	p.Y.Tick.Marker = plot.LogTicks{Prec: -1}

	base, err := plotter.NewBarChart(baseVals, style.BarWidth)
	if err != nil {
		return fmt.Errorf("variance chart: %w", err)
	}
	bars, err := plotter.NewBarChart(heights, style.BarWidth)
	if err != nil {
		return fmt.Errorf("variance chart: %w", err)
	}
	bars.StackOn(base)
	p.Add(bars)

	// Fixed after Add so the autoscaled range keeps a positive minimum.
	p.Y.Min = floor
	p.Y.Max = hi

	if err := p.Save(style.Width, style.Height, path); err != nil {
		return fmt.Errorf("save variance chart to %s: %w", path, err)
	}
	return nil
}

// Importance writes a linear bar chart of the model's per-feature
// importances. Models without an importance vector fail fast with an
// UnsupportedOperationError.
func Importance(m model.Regressor, path string, style Style) error {
	importer, ok := m.(model.FeatureImporter)
	if !ok {
		return &model.UnsupportedOperationError{Op: "feature importances", Model: m.Name()}
	}
	importances := importer.FeatureImportances()

	vals := make(plotter.Values, len(importances))
	copy(vals, importances)

	p := plot.New()
	p.X.Label.Text = "Features"
	p.Y.Label.Text = "Feature importance"

	bars, err := plotter.NewBarChart(vals, style.BarWidth)
	if err != nil {
		return fmt.Errorf("importance chart: %w", err)
	}
	p.Add(bars)

	// Fixed after Add so the data range does not widen the axis.
	p.Y.Min = 0
	p.Y.Max = style.ImportanceYMax

	if err := p.Save(style.Width, style.Height, path); err != nil {
		return fmt.Errorf("save importance chart to %s: %w", path, err)
	}
	return nil
}
