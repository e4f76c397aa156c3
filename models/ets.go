package models

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/sartorproj/autoforecast/stats"
	"github.com/sartorproj/autoforecast/timeseries"
)

// etsForm is an additive-error exponential smoothing form.
type etsForm struct {
	trend    bool
	damped   bool
	seasonal bool
}

func (f etsForm) String() string {
	trend, season := "N", "N"
	if f.trend {
		trend = "A"
		if f.damped {
			trend = "Ad"
		}
	}
	if f.seasonal {
		season = "A"
	}
	return fmt.Sprintf("ETS(A,%s,%s)", trend, season)
}

// etsForms lists the forms AutoETS chooses from: ANN, AAN, AAdN, ANA, AAA.
var etsForms = []etsForm{
	{},
	{trend: true},
	{trend: true, damped: true},
	{seasonal: true},
	{trend: true, seasonal: true},
}

type etsParams struct {
	alpha, beta, gamma, phi float64
}

// params maps unconstrained optimizer coordinates to admissible smoothing
// parameters: 0 < alpha < 1, 0 < beta < alpha, 0 < gamma < 1-alpha and
// 0.8 <= phi <= 0.98.
func (f etsForm) params(x []float64) etsParams {
	p := etsParams{phi: 1}
	i := 0
	p.alpha = 1e-4 + (1-2e-4)*sigmoid(x[i])
	i++
	if f.trend {
		p.beta = p.alpha * sigmoid(x[i])
		i++
	}
	if f.seasonal {
		p.gamma = (1 - p.alpha) * sigmoid(x[i])
		i++
	}
	if f.damped {
		p.phi = 0.8 + 0.18*sigmoid(x[i])
	}
	return p
}

func (f etsForm) start() []float64 {
	x := []float64{logit(0.3)}
	if f.trend {
		x = append(x, logit(0.1))
	}
	if f.seasonal {
		x = append(x, logit(0.1))
	}
	if f.damped {
		x = append(x, 0)
	}
	return x
}

type etsState struct {
	level, slope float64
	season       []float64
}

func (f etsForm) initial(y []float64, m int) etsState {
	// States are anchored one step before the first observation.
	var st etsState
	if f.seasonal {
		first := stat.Mean(y[:m], nil)
		if f.trend {
			st.slope = (stat.Mean(y[m:2*m], nil) - first) / float64(m)
		}
		st.level = first - st.slope*float64(m+1)/2
		st.season = make([]float64, m)
		for j := range st.season {
			st.season[j] = y[j] - (st.level + st.slope*float64(j+1))
		}
		return st
	}
	if f.trend && len(y) > 1 {
		st.slope = y[1] - y[0]
	}
	st.level = y[0] - st.slope
	return st
}

// run filters y through the state space recursion and returns the sum of
// squared one-step errors and the final state.
func (f etsForm) run(y []float64, m int, p etsParams, st etsState) (float64, etsState) {
	var sse float64
	for t, v := range y {
		var s float64
		if f.seasonal {
			s = st.season[t%m]
		}
		e := v - (st.level + p.phi*st.slope + s)
		if !finite(e) {
			return math.Inf(1), st
		}
		st.level += p.phi*st.slope + p.alpha*e
		if f.trend {
			st.slope = p.phi*st.slope + p.beta*e
		}
		if f.seasonal {
			st.season[t%m] = s + p.gamma*e
		}
		sse += e * e
	}
	return sse, st
}

// nParams counts smoothing parameters and initial states.
func (f etsForm) nParams(m int) int {
	k := 2
	if f.trend {
		k += 2
	}
	if f.seasonal {
		k += 1 + m
	}
	if f.damped {
		k++
	}
	return k
}

type etsFit struct {
	form   etsForm
	m, n   int
	params etsParams
	state  etsState
	sse    float64
	ic     *stats.InformationCriteria
}

func fitETSForm(y []float64, m int, form etsForm) *etsFit {
	init := form.initial(y, m)
	clone := func() etsState {
		st := init
		st.season = append([]float64(nil), init.season...)
		return st
	}

	x := minimize(func(x []float64) float64 {
		sse, _ := form.run(y, m, form.params(x), clone())
		return sse
	}, form.start())

	p := form.params(x)
	sse, st := form.run(y, m, p, clone())
	if !finite(sse) {
		return nil
	}
	logLik := stats.GaussianLogLik(sse, len(y))
	return &etsFit{
		form:   form,
		m:      m,
		n:      len(y),
		params: p,
		state:  st,
		sse:    sse,
		ic:     stats.CalculateIC(logLik, len(y), form.nParams(m)),
	}
}

func (f *etsFit) forecast(h int) []float64 {
	out := make([]float64, h)
	phiSum, phiPow := 0.0, 1.0
	for i := range out {
		phiPow *= f.params.phi
		phiSum += phiPow
		v := f.state.level + phiSum*f.state.slope
		if f.form.seasonal {
			v += f.state.season[(f.n+i)%f.m]
		}
		out[i] = v
	}
	return out
}

// AutoETS fits each admissible additive-error exponential smoothing form and
// keeps the one with the lowest AICc.
type AutoETS struct {
	SeasonLength int

	best *etsFit
}

// NewAutoETS creates an automatic exponential smoothing forecaster.
func NewAutoETS(seasonLength int) *AutoETS {
	return &AutoETS{SeasonLength: max(seasonLength, 1)}
}

func (m *AutoETS) Name() string { return "ETS" }

// Describe returns the selected form, e.g. "ETS(A,Ad,N)".
func (m *AutoETS) Describe() string {
	if m.best == nil {
		return m.Name()
	}
	return m.best.form.String()
}

func (m *AutoETS) Fit(series *timeseries.Series) error {
	if err := requireLen(m.Name(), series, 1); err != nil {
		return err
	}
	y := series.Values
	if !allFinite(y) {
		return fmt.Errorf("%w: %s needs finite observations", ErrInsufficientData, m.Name())
	}

	m.best = nil
	var bestScore float64
	for _, form := range etsForms {
		if !m.admissible(form, len(y)) {
			continue
		}
		fit := fitETSForm(y, m.SeasonLength, form)
		if fit == nil || math.IsNaN(fit.ic.AICc) {
			continue
		}
		if m.best == nil || fit.ic.AICc < bestScore {
			m.best, bestScore = fit, fit.ic.AICc
		}
	}
	if m.best == nil {
		return fmt.Errorf("%w: no admissible ETS form for %d observations", ErrInsufficientData, len(y))
	}
	return nil
}

func (m *AutoETS) admissible(form etsForm, n int) bool {
	if form.seasonal && (m.SeasonLength < 2 || n < 2*m.SeasonLength) {
		return false
	}
	if form.trend && n < 3 {
		return false
	}
	return true
}

func (m *AutoETS) Predict(h int) ([]float64, error) {
	if err := checkHorizon(m.best != nil, h); err != nil {
		return nil, err
	}
	return m.best.forecast(h), nil
}
