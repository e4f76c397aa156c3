package autoarima

import (
	"errors"
	"fmt"
	"math"

	"github.com/sartorproj/autoforecast/arima"
	"github.com/sartorproj/autoforecast/stats"
	"github.com/sartorproj/autoforecast/timeseries"
)

// ErrNoModel is returned when no candidate order could be fitted.
var ErrNoModel = errors.New("autoarima: no candidate model could be fitted")

// Config holds configuration for the order search.
type Config struct {
	MaxP        int    // Maximum AR order (default: 5)
	MaxD        int    // Maximum differencing order (default: 2)
	MaxQ        int    // Maximum MA order (default: 5)
	MaxSP       int    // Maximum seasonal AR order (default: 2)
	MaxSD       int    // Maximum seasonal differencing order (default: 1)
	MaxSQ       int    // Maximum seasonal MA order (default: 2)
	Seasonal    bool   // Whether to consider seasonal models
	SeasonalM   int    // Seasonal period (required if Seasonal=true)
	Stepwise    bool   // Use stepwise search instead of exhaustive
	Criterion   string // "aic", "aicc" or "bic" (default: "aic")
	StationTest string // Stationarity test: "adf" or "kpss" (default: "kpss")
}

// DefaultConfig returns the default search configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxP:        5,
		MaxD:        2,
		MaxQ:        5,
		MaxSP:       2,
		MaxSD:       1,
		MaxSQ:       2,
		Stepwise:    true,
		Criterion:   "aic",
		StationTest: "kpss",
	}
}

// Result is the selected model together with search statistics.
type Result struct {
	Model *arima.Model
	Order arima.Order

	AIC       float64
	AICc      float64
	BIC       float64
	LogLik    float64
	Criterion float64

	ModelsEvaluated int
	IsSeasonal      bool
}

// AutoARIMA selects the order minimizing the configured information criterion.
// Seasonal search falls back to non-seasonal orders when the series is too
// short to estimate seasonal terms.
func AutoARIMA(series *timeseries.Series, config *Config) (*Result, error) {
	if config == nil {
		config = DefaultConfig()
	}

	d := stats.NDiffs(series, config.MaxD, config.StationTest)

	seasonal := config.Seasonal && config.SeasonalM > 1 && series.Len() >= 2*config.SeasonalM+20
	sd := 0
	if seasonal {
		sd = stats.NSDiffs(series, config.SeasonalM, config.MaxSD)
	}

	s := &search{series: series, config: config, d: d, sd: sd, seasonal: seasonal}
	s.run()
	if s.best == nil && seasonal {
		s.seasonal, s.sd = false, 0
		s.run()
	}
	if s.best == nil {
		return nil, fmt.Errorf("%w: %d orders tried on %d observations", ErrNoModel, s.evaluated, series.Len())
	}

	m := s.best
	return &Result{
		Model:           m,
		Order:           m.Order,
		AIC:             m.AIC,
		AICc:            m.AICc,
		BIC:             m.BIC,
		LogLik:          m.LogLik,
		Criterion:       s.bestCriterion,
		ModelsEvaluated: s.evaluated,
		IsSeasonal:      m.Order.Seasonal(),
	}, nil
}

type searchOrder struct {
	p, q, sp, sq int
}

type search struct {
	series   *timeseries.Series
	config   *Config
	d, sd    int
	seasonal bool

	best          *arima.Model
	bestOrder     searchOrder
	bestCriterion float64
	evaluated     int
}

func (s *search) run() {
	if s.config.Stepwise {
		s.stepwise()
		return
	}
	s.grid()
}

func (s *search) allowed(c searchOrder) bool {
	if c.p < 0 || c.q < 0 || c.sp < 0 || c.sq < 0 {
		return false
	}
	if c.p > s.config.MaxP || c.q > s.config.MaxQ {
		return false
	}
	if !s.seasonal {
		return c.sp == 0 && c.sq == 0
	}
	return c.sp <= s.config.MaxSP && c.sq <= s.config.MaxSQ
}

func (s *search) criterion(m *arima.Model) float64 {
	switch s.config.Criterion {
	case "bic":
		return m.BIC
	case "aicc":
		return m.AICc
	default:
		return m.AIC
	}
}

// try fits c and reports whether it improved on the best model so far.
func (s *search) try(c searchOrder) bool {
	if !s.allowed(c) {
		return false
	}
	order := arima.Order{P: c.p, D: s.d, Q: c.q}
	if s.seasonal {
		order.SP, order.SD, order.SQ, order.M = c.sp, s.sd, c.sq, s.config.SeasonalM
	}

	m := arima.New(order)
	if err := m.Fit(s.series); err != nil {
		return false
	}
	s.evaluated++

	crit := s.criterion(m)
	if math.IsNaN(crit) {
		return false
	}
	if s.best == nil || crit < s.bestCriterion {
		s.best, s.bestOrder, s.bestCriterion = m, c, crit
		return true
	}
	return false
}

// stepwise follows the Hyndman-Khandakar scheme: a few starting orders, then
// moves to neighbouring orders while the criterion improves.
func (s *search) stepwise() {
	starts := []searchOrder{{0, 0, 0, 0}, {1, 0, 0, 0}, {0, 1, 0, 0}, {1, 1, 0, 0}, {2, 2, 0, 0}}
	if s.seasonal {
		starts = []searchOrder{{0, 0, 0, 0}, {1, 0, 1, 0}, {0, 1, 0, 1}, {1, 1, 1, 1}, {2, 2, 1, 1}}
	}
	for _, c := range starts {
		s.try(c)
	}
	if s.best == nil {
		return
	}

	for improved := true; improved; {
		improved = false
		b := s.bestOrder
		neighbours := []searchOrder{
			{b.p + 1, b.q, b.sp, b.sq},
			{b.p - 1, b.q, b.sp, b.sq},
			{b.p, b.q + 1, b.sp, b.sq},
			{b.p, b.q - 1, b.sp, b.sq},
			{b.p + 1, b.q + 1, b.sp, b.sq},
			{b.p - 1, b.q - 1, b.sp, b.sq},
			{b.p, b.q, b.sp + 1, b.sq},
			{b.p, b.q, b.sp - 1, b.sq},
			{b.p, b.q, b.sp, b.sq + 1},
			{b.p, b.q, b.sp, b.sq - 1},
		}
		for _, c := range neighbours {
			if s.try(c) {
				improved = true
			}
		}
	}
}

// grid evaluates every allowed order.
func (s *search) grid() {
	maxSP, maxSQ := 0, 0
	if s.seasonal {
		maxSP, maxSQ = s.config.MaxSP, s.config.MaxSQ
	}
	for p := 0; p <= s.config.MaxP; p++ {
		for q := 0; q <= s.config.MaxQ; q++ {
			for sp := 0; sp <= maxSP; sp++ {
				for sq := 0; sq <= maxSQ; sq++ {
					s.try(searchOrder{p, q, sp, sq})
				}
			}
		}
	}
}

// Predict generates forecasts using the selected model.
func (r *Result) Predict(steps int) ([]float64, error) {
	return r.Model.Predict(steps)
}

// PredictWithInterval generates forecasts with prediction intervals.
func (r *Result) PredictWithInterval(steps int, confidence float64) (forecasts, lower, upper []float64, err error) {
	return r.Model.PredictWithInterval(steps, confidence)
}

// Residuals returns the residuals of the selected model.
func (r *Result) Residuals() []float64 {
	return r.Model.Residuals()
}
