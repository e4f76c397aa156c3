package arima

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/sartorproj/autoforecast/stats"
	"github.com/sartorproj/autoforecast/timeseries"
)

// cssPenalty is the objective value outside the admissible region.
const cssPenalty = 1e100

var (
	// ErrInsufficientData is returned when the series is too short for the order.
	ErrInsufficientData = errors.New("arima: insufficient data points for the specified order")
	// ErrNotFitted is returned when predicting from an unfitted model.
	ErrNotFitted = errors.New("arima: model must be fitted before prediction")
	// ErrInvalidOrder is returned for negative orders or seasonal terms without a period.
	ErrInvalidOrder = errors.New("arima: invalid order")
	// ErrInvalidSteps is returned when the forecast horizon is not positive.
	ErrInvalidSteps = errors.New("arima: steps must be at least 1")
)

// Order represents the model order (p, d, q) x (P, D, Q, m).
type Order struct {
	P  int // Non-seasonal AR order
	D  int // Non-seasonal differencing order
	Q  int // Non-seasonal MA order
	SP int // Seasonal AR order
	SD int // Seasonal differencing order
	SQ int // Seasonal MA order
	M  int // Seasonal period
}

// Seasonal reports whether the order has any seasonal component.
func (o Order) Seasonal() bool {
	return o.SP+o.SD+o.SQ > 0
}

func (o Order) String() string {
	if !o.Seasonal() {
		return fmt.Sprintf("ARIMA(%d,%d,%d)", o.P, o.D, o.Q)
	}
	return fmt.Sprintf("ARIMA(%d,%d,%d)(%d,%d,%d)[%d]", o.P, o.D, o.Q, o.SP, o.SD, o.SQ, o.M)
}

// Validate checks that orders are non-negative and seasonal terms have a period.
func (o Order) Validate() error {
	if o.P < 0 || o.D < 0 || o.Q < 0 || o.SP < 0 || o.SD < 0 || o.SQ < 0 {
		return fmt.Errorf("%w: negative order in %s", ErrInvalidOrder, o)
	}
	if o.Seasonal() && o.M < 2 {
		return fmt.Errorf("%w: seasonal terms need a period >= 2, got %d", ErrInvalidOrder, o.M)
	}
	return nil
}

// minLength is the shortest series the order can be fitted on.
func (o Order) minLength() int {
	return o.P + o.Q + o.D + (o.SP+o.SD+o.SQ)*o.M + 20
}

type termKind int

const (
	autoregressive termKind = iota
	movingAverage
)

// term is one lagged regressor: y[t-lag] for AR terms, e[t-lag] for MA terms.
type term struct {
	kind termKind
	lag  int
}

// terms lists coefficients in the order AR, MA, seasonal AR, seasonal MA.
func (o Order) terms() []term {
	var ts []term
	for i := 1; i <= o.P; i++ {
		ts = append(ts, term{autoregressive, i})
	}
	for i := 1; i <= o.Q; i++ {
		ts = append(ts, term{movingAverage, i})
	}
	for i := 1; i <= o.SP; i++ {
		ts = append(ts, term{autoregressive, i * o.M})
	}
	for i := 1; i <= o.SQ; i++ {
		ts = append(ts, term{movingAverage, i * o.M})
	}
	return ts
}

// Model is a (seasonal) ARIMA model fitted by conditional sum of squares.
type Model struct {
	Order     Order
	Coeffs    []float64 // AR, MA, seasonal AR, seasonal MA, in that order
	Intercept float64
	Variance  float64
	AIC       float64
	AICc      float64
	BIC       float64
	LogLik    float64

	terms      []term
	start      int
	fitted     bool
	data       *timeseries.Series
	levels     [][]float64 // levels[0] is the data, each next level one more difference
	residuals  []float64
	fittedVals []float64
}

// New creates an unfitted model with the given order.
func New(order Order) *Model {
	return &Model{
		Order: order,
		terms: order.terms(),
	}
}

// ARCoeffs returns the non-seasonal AR coefficients.
func (m *Model) ARCoeffs() []float64 { return m.block(0, m.Order.P) }

// MACoeffs returns the non-seasonal MA coefficients.
func (m *Model) MACoeffs() []float64 { return m.block(m.Order.P, m.Order.Q) }

// SARCoeffs returns the seasonal AR coefficients.
func (m *Model) SARCoeffs() []float64 { return m.block(m.Order.P+m.Order.Q, m.Order.SP) }

// SMACoeffs returns the seasonal MA coefficients.
func (m *Model) SMACoeffs() []float64 {
	return m.block(m.Order.P+m.Order.Q+m.Order.SP, m.Order.SQ)
}

func (m *Model) block(from, n int) []float64 {
	if len(m.Coeffs) < from+n {
		return nil
	}
	return append([]float64(nil), m.Coeffs[from:from+n]...)
}

// Fit fits the model to the series.
func (m *Model) Fit(series *timeseries.Series) error {
	if err := m.Order.Validate(); err != nil {
		return err
	}
	if series.Len() < m.Order.minLength() {
		return fmt.Errorf("%w: %s needs %d points, got %d", ErrInsufficientData, m.Order, m.Order.minLength(), series.Len())
	}

	m.data = series
	m.levels = [][]float64{series.Values}
	current := series
	for i := 0; i < m.Order.D; i++ {
		current = current.Diff()
		m.levels = append(m.levels, current.Values)
	}
	for i := 0; i < m.Order.SD; i++ {
		current = current.SeasonalDiff(m.Order.M)
		m.levels = append(m.levels, current.Values)
	}
	if current.Len() == 0 {
		return fmt.Errorf("%w: differencing left no observations", ErrInsufficientData)
	}

	y := current.Values
	m.Intercept = stat.Mean(y, nil)
	m.initCoeffs(current)

	m.start = 0
	for _, tm := range m.terms {
		m.start = max(m.start, tm.lag)
	}
	if m.start >= len(y)-10 {
		m.start = 0
	}

	m.fitCSS(y)

	n := len(y)
	m.residuals = make([]float64, n)
	m.fittedVals = make([]float64, n)
	sse := m.filter(y, m.Coeffs, m.residuals, m.fittedVals)
	count := n - m.start

	k := len(m.terms) + 1
	if count > k {
		m.Variance = sse / float64(count-k)
	} else {
		m.Variance = sse / float64(count)
	}

	ic := stats.CalculateIC(stats.GaussianLogLik(sse, count), count, k)
	m.AIC, m.AICc, m.BIC, m.LogLik = ic.AIC, ic.AICc, ic.BIC, ic.LogLik

	m.fitted = true
	return nil
}

// initCoeffs starts AR terms at half the autocorrelation of their lag and MA terms at 0.1.
func (m *Model) initCoeffs(diffed *timeseries.Series) {
	m.Coeffs = make([]float64, len(m.terms))
	maxLag := 0
	for _, tm := range m.terms {
		maxLag = max(maxLag, tm.lag)
	}
	acf := stats.ACF(diffed, maxLag)
	for k, tm := range m.terms {
		switch {
		case tm.kind == movingAverage:
			m.Coeffs[k] = 0.1
		case tm.lag < len(acf):
			m.Coeffs[k] = clamp(acf[tm.lag]*0.5, -0.9, 0.9)
		}
	}
}

// filter computes one-step residuals for coeffs and returns their sum of
// squares. Residuals before the conditioning start are zero.
func (m *Model) filter(y, coeffs, res, fitted []float64) float64 {
	sse := 0.0
	for t := range y {
		if t < m.start {
			res[t] = 0
			if fitted != nil {
				fitted[t] = y[t]
			}
			continue
		}

		pred := m.Intercept
		for k, tm := range m.terms {
			j := t - tm.lag
			if j < 0 {
				continue
			}
			if tm.kind == autoregressive {
				pred += coeffs[k] * (y[j] - m.Intercept)
			} else {
				pred += coeffs[k] * res[j]
			}
		}
		res[t] = y[t] - pred
		if fitted != nil {
			fitted[t] = pred
		}
		sse += res[t] * res[t]
	}
	return sse
}

// fitCSS minimizes the conditional sum of squares with Nelder-Mead.
// Coefficients are kept inside (-0.99, 0.99); the starting point is kept
// when the search does not improve on it.
func (m *Model) fitCSS(y []float64) {
	if len(m.terms) == 0 {
		return
	}

	res := make([]float64, len(y))
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			for _, c := range x {
				if math.Abs(c) >= 0.99 {
					return cssPenalty
				}
			}
			sse := m.filter(y, x, res, nil)
			if math.IsNaN(sse) || math.IsInf(sse, 0) {
				return cssPenalty
			}
			return sse
		},
	}
	settings := &optimize.Settings{
		MajorIterations: 300,
		FuncEvaluations: 2000,
	}

	initial := problem.Func(m.Coeffs)
	result, err := optimize.Minimize(problem, append([]float64(nil), m.Coeffs...), settings, &optimize.NelderMead{})
	// An iteration limit error still carries the best point found.
	if err != nil && result == nil {
		return
	}
	if result.F < initial {
		copy(m.Coeffs, result.X)
	}
}

// Predict generates point forecasts for the given number of steps ahead.
func (m *Model) Predict(steps int) ([]float64, error) {
	forecasts, _, _, err := m.PredictWithInterval(steps, 0.95)
	return forecasts, err
}

// PredictWithInterval returns point forecasts with lower and upper bounds at
// the given confidence level (0.95 when outside (0, 1)).
func (m *Model) PredictWithInterval(steps int, confidence float64) (forecasts, lower, upper []float64, err error) {
	if !m.fitted {
		return nil, nil, nil, ErrNotFitted
	}
	if steps < 1 {
		return nil, nil, nil, fmt.Errorf("%w: got %d", ErrInvalidSteps, steps)
	}
	if confidence <= 0 || confidence >= 1 {
		confidence = 0.95
	}

	y := m.levels[len(m.levels)-1]
	n := len(y)
	extY := make([]float64, n+steps)
	copy(extY, y)
	extRes := make([]float64, n+steps)
	copy(extRes, m.residuals)

	// Future shocks are zero, so MA terms only see observed residuals.
	for t := n; t < n+steps; t++ {
		pred := m.Intercept
		for k, tm := range m.terms {
			j := t - tm.lag
			if j < 0 {
				continue
			}
			if tm.kind == autoregressive {
				pred += m.Coeffs[k] * (extY[j] - m.Intercept)
			} else {
				pred += m.Coeffs[k] * extRes[j]
			}
		}
		extY[t] = pred
	}

	forecasts = m.integrate(extY[n:])

	z := distuv.UnitNormal.Quantile((1 + confidence) / 2)
	lower = make([]float64, steps)
	upper = make([]float64, steps)
	for h := 0; h < steps; h++ {
		growth := 1.0
		if m.Order.D > 0 {
			growth *= math.Sqrt(float64(h + 1))
		}
		if m.Order.SD > 0 {
			growth *= math.Sqrt(float64(h/m.Order.M + 1))
		}
		se := math.Sqrt(m.Variance) * growth
		lower[h] = forecasts[h] - z*se
		upper[h] = forecasts[h] + z*se
	}
	return forecasts, lower, upper, nil
}

// integrate undoes differencing level by level, seasonal levels first.
func (m *Model) integrate(diffed []float64) []float64 {
	result := append([]float64(nil), diffed...)
	for level := len(m.levels) - 2; level >= 0; level-- {
		lag := 1
		if level >= m.Order.D {
			lag = m.Order.M
		}
		history := m.levels[level]
		ext := append(append([]float64(nil), history...), make([]float64, len(result))...)
		h := len(history)
		for j := range result {
			ext[h+j] = result[j] + ext[h+j-lag]
		}
		result = ext[h:]
	}
	return result
}

// Residuals returns a copy of the one-step residuals on the differenced scale.
func (m *Model) Residuals() []float64 {
	if !m.fitted {
		return nil
	}
	return append([]float64(nil), m.residuals...)
}

// FittedValues returns a copy of the one-step fitted values on the differenced scale.
func (m *Model) FittedValues() []float64 {
	if !m.fitted {
		return nil
	}
	return append([]float64(nil), m.fittedVals...)
}

// Summary describes a fitted model.
type Summary struct {
	Order     Order
	ARCoeffs  []float64
	MACoeffs  []float64
	SARCoeffs []float64
	SMACoeffs []float64
	Intercept float64
	Variance  float64
	AIC       float64
	AICc      float64
	BIC       float64
	LogLik    float64
	NObs      int
	RMSE      float64
	LjungBox  *stats.LjungBoxResult

	// ResidualLags lists residual autocorrelation lags outside the 95% band.
	ResidualLags []int
}

// Summary returns a summary of the fitted model, or nil before Fit.
func (m *Model) Summary() *Summary {
	if !m.fitted {
		return nil
	}

	resid := m.residuals[m.start:]
	residSeries := timeseries.New(resid)
	lb := stats.LjungBox(residSeries, 10, len(m.terms))
	lags := stats.SignificantLags(stats.ACF(residSeries, 10), len(resid))
	rmse := 0.0
	if len(resid) > 0 {
		rmse = floats.Norm(resid, 2) / math.Sqrt(float64(len(resid)))
	}

	return &Summary{
		Order:     m.Order,
		ARCoeffs:  m.ARCoeffs(),
		MACoeffs:  m.MACoeffs(),
		SARCoeffs: m.SARCoeffs(),
		SMACoeffs: m.SMACoeffs(),
		Intercept: m.Intercept,
		Variance:  m.Variance,
		AIC:       m.AIC,
		AICc:      m.AICc,
		BIC:       m.BIC,
		LogLik:    m.LogLik,
		NObs:      m.data.Len(),
		RMSE:      rmse,
		LjungBox:  lb,

		ResidualLags: lags,
	}
}

func clamp(v, lower, upper float64) float64 {
	return math.Max(lower, math.Min(upper, v))
}
