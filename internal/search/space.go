// Package search contains the model-selection core: the scoring objective,
// the Bayesian search adapter, and randomized search. A model family carries
// two independent search-space encodings: a sampling-distribution form
// consumed by randomized search and a domain-expression form consumed by the
// Bayesian backend. The encodings are deliberately not interchangeable; each
// is validated on its own.
package search

import (
	"fmt"
	"math/rand"
	"sort"
	"strconv"

	"github.com/c-bata/goptuna"

	"hypertune/internal/model"
)

//
// Distribution encoding (randomized search).
//

// Distribution produces one parameter value per draw.
type Distribution interface {
	Sample(rng *rand.Rand) any
}

// Values is a discrete distribution over an explicit list.
type Values []float64

func (v Values) Sample(rng *rand.Rand) any { return v[rng.Intn(len(v))] }

// RandInt draws integers uniformly from [Low, High).
type RandInt struct {
	Low, High int
}

func (r RandInt) Sample(rng *rand.Rand) any { return r.Low + rng.Intn(r.High-r.Low) }

// Uniform draws floats uniformly from [Low, High).
type Uniform struct {
	Low, High float64
}

func (u Uniform) Sample(rng *rand.Rand) any { return u.Low + rng.Float64()*(u.High-u.Low) }

// Distributions is the randomized-search encoding of a family's space.
type Distributions map[string]Distribution

// Validate rejects empty or degenerate distributions.
func (d Distributions) Validate() error {
	if len(d) == 0 {
		return fmt.Errorf("empty distribution space")
	}
	for name, dist := range d {
		switch t := dist.(type) {
		case Values:
			if len(t) == 0 {
				return fmt.Errorf("distribution %q: empty value list", name)
			}
		case RandInt:
			if t.High <= t.Low {
				return fmt.Errorf("distribution %q: high must exceed low", name)
			}
		case Uniform:
			if t.High <= t.Low {
				return fmt.Errorf("distribution %q: high must exceed low", name)
			}
		}
	}
	return nil
}

// Sample draws a full configuration. Parameter names are visited in sorted
// order so a seeded generator yields the same configuration sequence on
// every run.
func (d Distributions) Sample(rng *rand.Rand) model.Configuration {
	names := make([]string, 0, len(d))
	for name := range d {
		names = append(names, name)
	}
	sort.Strings(names)

	cfg := make(model.Configuration, len(names))
	for _, name := range names {
		cfg[name] = d[name].Sample(rng)
	}
	return cfg
}

//
// Domain encoding (Bayesian search).
//

// DomainKind selects how the Bayesian backend samples a parameter.
type DomainKind int

const (
	FloatDomain DomainKind = iota
	LogFloatDomain
	IntDomain
	ChoiceDomain
)

// Domain is one parameter's domain expression for the Bayesian backend.
type Domain struct {
	Kind    DomainKind
	Low     float64
	High    float64
	Choices []float64
}

// Float is a continuous uniform domain.
func Float(low, high float64) Domain { return Domain{Kind: FloatDomain, Low: low, High: high} }

// LogFloat is a continuous domain sampled uniformly in log space.
func LogFloat(low, high float64) Domain { return Domain{Kind: LogFloatDomain, Low: low, High: high} }

// Int is an inclusive integer domain.
func Int(low, high int) Domain {
	return Domain{Kind: IntDomain, Low: float64(low), High: float64(high)}
}

// Choice is a discrete domain over explicit values.
func Choice(values ...float64) Domain { return Domain{Kind: ChoiceDomain, Choices: values} }

// Domains is the Bayesian-search encoding of a family's space.
type Domains map[string]Domain

// Validate rejects empty or degenerate domains.
func (d Domains) Validate() error {
	if len(d) == 0 {
		return fmt.Errorf("empty domain space")
	}
	for name, dom := range d {
		switch dom.Kind {
		case ChoiceDomain:
			if len(dom.Choices) == 0 {
				return fmt.Errorf("domain %q: empty choice list", name)
			}
		case LogFloatDomain:
			if dom.Low <= 0 {
				return fmt.Errorf("domain %q: log domain requires a positive lower bound", name)
			}
			fallthrough
		default:
			if dom.High <= dom.Low {
				return fmt.Errorf("domain %q: high must exceed low", name)
			}
		}
	}
	return nil
}

// suggest asks the backend trial for a value inside the domain.
func (dom Domain) suggest(trial goptuna.Trial, name string) (any, error) {
	switch dom.Kind {
	case FloatDomain:
		return trial.SuggestFloat(name, dom.Low, dom.High)
	case LogFloatDomain:
		return trial.SuggestLogFloat(name, dom.Low, dom.High)
	case IntDomain:
		return trial.SuggestInt(name, int(dom.Low), int(dom.High))
	case ChoiceDomain:
		choices := make([]string, len(dom.Choices))
		for i, v := range dom.Choices {
			choices[i] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		s, err := trial.SuggestCategorical(name, choices)
		if err != nil {
			return nil, err
		}
		return strconv.ParseFloat(s, 64)
	default:
		return nil, fmt.Errorf("domain %q: unknown kind %d", name, dom.Kind)
	}
}

// decode normalizes a backend-reported best value into the configuration
// representation suggest produced.
func (dom Domain) decode(name string, raw any) (any, error) {
	switch dom.Kind {
	case FloatDomain, LogFloatDomain:
		switch t := raw.(type) {
		case float64:
			return t, nil
		case int:
			return float64(t), nil
		}
	case IntDomain:
		switch t := raw.(type) {
		case int:
			return t, nil
		case float64:
			return int(t), nil
		}
	case ChoiceDomain:
		switch t := raw.(type) {
		case string:
			return strconv.ParseFloat(t, 64)
		case float64:
			return t, nil
		}
	}
	return nil, fmt.Errorf("domain %q: unexpected best value %v (%T)", name, raw, raw)
}

// suggestAll builds a full configuration from one backend trial, visiting
// names in sorted order.
func (d Domains) suggestAll(trial goptuna.Trial) (model.Configuration, error) {
	names := make([]string, 0, len(d))
	for name := range d {
		names = append(names, name)
	}
	sort.Strings(names)

	cfg := make(model.Configuration, len(names))
	for _, name := range names {
		v, err := d[name].suggest(trial, name)
		if err != nil {
			return nil, fmt.Errorf("suggest %q: %w", name, err)
		}
		cfg[name] = v
	}
	return cfg, nil
}

// decodeAll normalizes the backend's best-parameter map.
func (d Domains) decodeAll(raw map[string]any) (model.Configuration, error) {
	cfg := make(model.Configuration, len(d))
	for name, dom := range d {
		v, ok := raw[name]
		if !ok {
			return nil, fmt.Errorf("backend result is missing parameter %q", name)
		}
		decoded, err := dom.decode(name, v)
		if err != nil {
			return nil, err
		}
		cfg[name] = decoded
	}
	return cfg, nil
}
