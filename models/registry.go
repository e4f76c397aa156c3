package models

import (
	"fmt"
	"slices"
)

// BackendName and BackendVersion identify the built-in backend. The version
// follows the statsforecast release whose model set it mirrors.
const (
	BackendName    = "statsforecast"
	BackendVersion = "1.4.0"
)

// Capabilities describes what a backend can build.
type Capabilities struct {
	Name    string              `json:"name"`
	Version string              `json:"version"`
	Models  []string            `json:"models"`
	Params  map[string][]string `json:"params"`
}

// Supports reports whether the backend can build every named model.
func (c Capabilities) Supports(names ...string) bool {
	for _, name := range names {
		if !slices.Contains(c.Models, name) {
			return false
		}
	}
	return true
}

// Backend builds candidate models by name.
type Backend interface {
	Capabilities() (Capabilities, error)
	Build(name string, params Params) (Candidate, error)
}

// Factory validates params and returns a constructor for fresh instances.
type Factory func(params Params) (func() Forecaster, error)

type entry struct {
	params  []string
	factory Factory
}

// Registry is a Backend backed by registered factories.
type Registry struct {
	name    string
	version string
	entries map[string]entry
	order   []string
}

// NewRegistry creates an empty registry reporting the given identity.
func NewRegistry(name, version string) *Registry {
	return &Registry{name: name, version: version, entries: map[string]entry{}}
}

// Register adds a model accepting the listed parameter names.
// Registering an existing name replaces it.
func (r *Registry) Register(name string, params []string, factory Factory) {
	if _, ok := r.entries[name]; !ok {
		r.order = append(r.order, name)
	}
	r.entries[name] = entry{params: params, factory: factory}
}

// Capabilities lists registered models in registration order.
func (r *Registry) Capabilities() (Capabilities, error) {
	caps := Capabilities{
		Name:    r.name,
		Version: r.version,
		Models:  slices.Clone(r.order),
		Params:  make(map[string][]string, len(r.entries)),
	}
	for name, e := range r.entries {
		caps.Params[name] = slices.Clone(e.params)
	}
	return caps, nil
}

// Build returns a candidate for name. Unknown parameter names produce an
// *UnexpectedParamError.
func (r *Registry) Build(name string, params Params) (Candidate, error) {
	e, ok := r.entries[name]
	if !ok {
		return Candidate{}, fmt.Errorf("%w: %s", ErrUnknownModel, name)
	}
	for key := range params {
		if !slices.Contains(e.params, key) {
			return Candidate{}, &UnexpectedParamError{Model: name, Param: key}
		}
	}
	newFn, err := e.factory(params)
	if err != nil {
		return Candidate{}, fmt.Errorf("build %s: %w", name, err)
	}
	return Candidate{Name: name, New: newFn}, nil
}

func seasonLength(params Params) (int, error) {
	m, err := params.Int(ParamSeasonLength, 1)
	if err != nil {
		return 0, err
	}
	if m < 1 {
		return 0, fmt.Errorf("%w: %s must be >= 1, got %d", ErrInvalidParam, ParamSeasonLength, m)
	}
	return m, nil
}

func seasonal(build func(m int) Forecaster) Factory {
	return func(params Params) (func() Forecaster, error) {
		m, err := seasonLength(params)
		if err != nil {
			return nil, err
		}
		return func() Forecaster { return build(m) }, nil
	}
}

// Default returns the built-in backend with every candidate model registered.
func Default() *Registry {
	r := NewRegistry(BackendName, BackendVersion)
	seasonOnly := []string{ParamSeasonLength}

	r.Register("AutoARIMA", seasonOnly, seasonal(func(m int) Forecaster { return NewAutoARIMA(m) }))
	r.Register("ETS", seasonOnly, seasonal(func(m int) Forecaster { return NewAutoETS(m) }))
	r.Register("CES", seasonOnly, seasonal(func(m int) Forecaster { return NewAutoCES(m) }))
	r.Register("MSTL", seasonOnly, seasonal(func(m int) Forecaster { return NewMSTL(m) }))
	r.Register("SeasonalNaive", seasonOnly, seasonal(func(m int) Forecaster { return NewSeasonalNaive(m) }))
	r.Register("SeasonalWindowAverage", []string{ParamSeasonLength, ParamWindowSize},
		func(params Params) (func() Forecaster, error) {
			m, err := seasonLength(params)
			if err != nil {
				return nil, err
			}
			window, err := params.Int(ParamWindowSize, 1)
			if err != nil {
				return nil, err
			}
			if window < 1 {
				return nil, fmt.Errorf("%w: %s must be >= 1, got %d", ErrInvalidParam, ParamWindowSize, window)
			}
			return func() Forecaster { return NewSeasonalWindowAverage(m, window) }, nil
		})
	r.Register("RWD", seasonOnly, seasonal(func(int) Forecaster { return NewRandomWalkWithDrift() }))
	r.Register("Naive", nil, func(Params) (func() Forecaster, error) {
		return func() Forecaster { return NewNaive() }, nil
	})
	return r
}
