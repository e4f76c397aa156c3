package models

import (
	"fmt"
	"math"

	"github.com/sartorproj/autoforecast/stats"
	"github.com/sartorproj/autoforecast/timeseries"
)

// cesFit is a complex exponential smoothing fit. The seasonal variant runs
// the same recursion on lag-m states.
//
//	y_t = l_{t-lag} + e_t
//	l_t = l_{t-lag} - (1 - a1) c_{t-lag} + (a0 - a1) e_t
//	c_t = l_{t-lag} + (1 - a0) c_{t-lag} + (a0 + a1) e_t
type cesFit struct {
	seasonal bool
	lag, n   int
	a0, a1   float64
	level    []float64
	imag     []float64
	sse      float64
	ic       *stats.InformationCriteria
}

func (f *cesFit) Describe() string {
	if f.seasonal {
		return fmt.Sprintf("CES(S)[%d]", f.lag)
	}
	return "CES(N)"
}

// cesCoefficients maps optimizer coordinates into (0.01, 1.99) for both a0 and a1.
func cesCoefficients(x []float64) (a0, a1 float64) {
	return 1 + 0.99*math.Tanh(x[0]), 1 + 0.99*math.Tanh(x[1])
}

// cesStable applies the Jury conditions to the discount matrix
// D = [[1-(a0-a1), -(1-a1)], [1-(a0+a1), 1-a0]].
func cesStable(a0, a1 float64) bool {
	d11, d12 := 1-(a0-a1), -(1 - a1)
	d21, d22 := 1-(a0+a1), 1-a0
	tr := d11 + d22
	det := d11*d22 - d12*d21
	return math.Abs(det) < 1 && math.Abs(tr) < 1+det
}

func cesRun(y []float64, lag int, a0, a1 float64) (sse float64, level, imag []float64) {
	level = make([]float64, lag)
	imag = make([]float64, lag)
	for j := range level {
		level[j] = y[j]
		imag[j] = y[j] / 1.1
	}
	for t, v := range y {
		j := t % lag
		l, c := level[j], imag[j]
		e := v - l
		if !finite(e) {
			return math.Inf(1), level, imag
		}
		level[j] = l - (1-a1)*c + (a0-a1)*e
		imag[j] = l + (1-a0)*c + (a0+a1)*e
		sse += e * e
	}
	return sse, level, imag
}

func fitCES(y []float64, lag int) *cesFit {
	x := minimize(func(x []float64) float64 {
		a0, a1 := cesCoefficients(x)
		if !cesStable(a0, a1) {
			return penalty
		}
		sse, _, _ := cesRun(y, lag, a0, a1)
		return sse
	}, []float64{math.Atanh(0.3 / 0.99), 0})

	a0, a1 := cesCoefficients(x)
	if !cesStable(a0, a1) {
		return nil
	}
	sse, level, imag := cesRun(y, lag, a0, a1)
	if !finite(sse) {
		return nil
	}
	return &cesFit{
		seasonal: lag > 1,
		lag:      lag,
		n:        len(y),
		a0:       a0,
		a1:       a1,
		level:    level,
		imag:     imag,
		sse:      sse,
		ic:       stats.CalculateIC(stats.GaussianLogLik(sse, len(y)), len(y), 2+2*lag),
	}
}

func (f *cesFit) forecast(h int) []float64 {
	level := append([]float64(nil), f.level...)
	imag := append([]float64(nil), f.imag...)
	out := make([]float64, h)
	for i := range out {
		j := (f.n + i) % f.lag
		l, c := level[j], imag[j]
		out[i] = l
		level[j] = l - (1-f.a1)*c
		imag[j] = l + (1-f.a0)*c
	}
	return out
}

// AutoCES fits the non-seasonal and simple seasonal complex exponential
// smoothing models and keeps the one with the lower AIC.
type AutoCES struct {
	SeasonLength int

	best *cesFit
}

// NewAutoCES creates an automatic complex exponential smoothing forecaster.
func NewAutoCES(seasonLength int) *AutoCES {
	return &AutoCES{SeasonLength: max(seasonLength, 1)}
}

func (m *AutoCES) Name() string { return "CES" }

// Describe returns the selected variant.
func (m *AutoCES) Describe() string {
	if m.best == nil {
		return m.Name()
	}
	return m.best.Describe()
}

func (m *AutoCES) Fit(series *timeseries.Series) error {
	if err := requireLen(m.Name(), series, 2); err != nil {
		return err
	}
	y := series.Values
	if !allFinite(y) {
		return fmt.Errorf("%w: %s needs finite observations", ErrInsufficientData, m.Name())
	}

	lags := []int{1}
	if m.SeasonLength > 1 && len(y) >= 2*m.SeasonLength {
		lags = append(lags, m.SeasonLength)
	}

	m.best = nil
	for _, lag := range lags {
		fit := fitCES(y, lag)
		if fit == nil || math.IsNaN(fit.ic.AIC) {
			continue
		}
		if m.best == nil || fit.ic.AIC < m.best.ic.AIC {
			m.best = fit
		}
	}
	if m.best == nil {
		return fmt.Errorf("%w: no stable CES fit for %d observations", ErrInsufficientData, len(y))
	}
	return nil
}

func (m *AutoCES) Predict(h int) ([]float64, error) {
	if err := checkHorizon(m.best != nil, h); err != nil {
		return nil, err
	}
	return m.best.forecast(h), nil
}
