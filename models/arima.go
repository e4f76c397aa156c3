package models

import (
	"fmt"

	"github.com/sartorproj/autoforecast/arima"
	"github.com/sartorproj/autoforecast/autoarima"
	"github.com/sartorproj/autoforecast/timeseries"
)

// Summarizer is implemented by forecasters backed by a single ARIMA fit.
type Summarizer interface {
	Summary() *arima.Summary
}

// AutoARIMA searches (S)ARIMA orders stepwise and forecasts with the best fit.
// Seasonal orders are considered when SeasonLength > 1.
type AutoARIMA struct {
	SeasonLength int
	Config       *autoarima.Config

	result *autoarima.Result
}

// NewAutoARIMA creates an automatic ARIMA forecaster.
func NewAutoARIMA(seasonLength int) *AutoARIMA {
	return &AutoARIMA{SeasonLength: max(seasonLength, 1)}
}

func (m *AutoARIMA) Name() string { return "AutoARIMA" }

// Describe returns the selected order and the Ljung-Box p-value of its
// residuals when the test could be run.
func (m *AutoARIMA) Describe() string {
	if m.result == nil {
		return m.Name()
	}
	desc := m.result.Order.String()
	if summary := m.Summary(); summary != nil && summary.LjungBox != nil {
		desc += fmt.Sprintf(" LB p=%.3f", summary.LjungBox.PValue)
	}
	return desc
}

// Summary returns the summary of the selected model, or nil before Fit.
func (m *AutoARIMA) Summary() *arima.Summary {
	if m.result == nil {
		return nil
	}
	return m.result.Model.Summary()
}

func (m *AutoARIMA) Fit(series *timeseries.Series) error {
	config := m.Config
	if config == nil {
		config = autoarima.DefaultConfig()
		config.MaxP, config.MaxQ = 3, 3
		config.MaxSP, config.MaxSQ = 1, 1
	}
	if m.SeasonLength > 1 {
		c := *config
		c.Seasonal, c.SeasonalM = true, m.SeasonLength
		config = &c
	}

	result, err := autoarima.AutoARIMA(series, config)
	if err != nil {
		m.result = nil
		return fmt.Errorf("%s: %w", m.Name(), err)
	}
	m.result = result
	return nil
}

func (m *AutoARIMA) Predict(h int) ([]float64, error) {
	if err := checkHorizon(m.result != nil, h); err != nil {
		return nil, err
	}
	return m.result.Predict(h)
}
