package models

import (
	"fmt"

	"github.com/sartorproj/autoforecast/stats"
	"github.com/sartorproj/autoforecast/timeseries"
)

// MSTL decomposes the series with STL, forecasts the seasonally adjusted
// part with a non-seasonal AutoETS and repeats the last seasonal cycle.
// Series shorter than two seasons are modelled without decomposition.
type MSTL struct {
	SeasonLength int
	RobustIters  int

	trend  *AutoETS
	season []float64
}

// NewMSTL creates an STL-based forecaster.
func NewMSTL(seasonLength int) *MSTL {
	return &MSTL{SeasonLength: max(seasonLength, 1), RobustIters: 2}
}

func (m *MSTL) Name() string { return "MSTL" }

// Describe returns the trend model and seasonal period.
func (m *MSTL) Describe() string {
	if m.trend == nil {
		return m.Name()
	}
	return fmt.Sprintf("MSTL[%d] + %s", len(m.season), m.trend.Describe())
}

func (m *MSTL) Fit(series *timeseries.Series) error {
	if err := requireLen(m.Name(), series, 1); err != nil {
		return err
	}

	adjusted := series
	m.season = nil
	if decomp := stats.STL(series, m.SeasonLength, m.RobustIters); decomp != nil {
		adjusted = decomp.SeasonallyAdjusted()
		n := series.Len()
		m.season = append([]float64(nil), decomp.Seasonal.Values[n-m.SeasonLength:]...)
	}

	m.trend = NewAutoETS(1)
	if err := m.trend.Fit(adjusted); err != nil {
		m.trend = nil
		return fmt.Errorf("mstl trend: %w", err)
	}
	return nil
}

func (m *MSTL) Predict(h int) ([]float64, error) {
	if err := checkHorizon(m.trend != nil, h); err != nil {
		return nil, err
	}
	out, err := m.trend.Predict(h)
	if err != nil {
		return nil, err
	}
	if len(m.season) > 0 {
		for i := range out {
			out[i] += m.season[i%len(m.season)]
		}
	}
	return out, nil
}
