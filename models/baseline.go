package models

import (
	"gonum.org/v1/gonum/stat"

	"github.com/sartorproj/autoforecast/timeseries"
)

// Naive repeats the last observation.
type Naive struct {
	last   float64
	fitted bool
}

// NewNaive creates a naive forecaster.
func NewNaive() *Naive { return &Naive{} }

func (m *Naive) Name() string { return "Naive" }

func (m *Naive) Fit(series *timeseries.Series) error {
	if err := requireLen(m.Name(), series, 1); err != nil {
		return err
	}
	m.last = series.Values[series.Len()-1]
	m.fitted = true
	return nil
}

func (m *Naive) Predict(h int) ([]float64, error) {
	if err := checkHorizon(m.fitted, h); err != nil {
		return nil, err
	}
	out := make([]float64, h)
	for i := range out {
		out[i] = m.last
	}
	return out, nil
}

// SeasonalNaive repeats the last observed season.
type SeasonalNaive struct {
	SeasonLength int

	season []float64
}

// NewSeasonalNaive creates a seasonal naive forecaster.
func NewSeasonalNaive(seasonLength int) *SeasonalNaive {
	return &SeasonalNaive{SeasonLength: max(seasonLength, 1)}
}

func (m *SeasonalNaive) Name() string { return "SeasonalNaive" }

func (m *SeasonalNaive) Fit(series *timeseries.Series) error {
	if err := requireLen(m.Name(), series, m.SeasonLength); err != nil {
		return err
	}
	n := series.Len()
	m.season = append([]float64(nil), series.Values[n-m.SeasonLength:]...)
	return nil
}

func (m *SeasonalNaive) Predict(h int) ([]float64, error) {
	if err := checkHorizon(m.season != nil, h); err != nil {
		return nil, err
	}
	out := make([]float64, h)
	for i := range out {
		out[i] = m.season[i%m.SeasonLength]
	}
	return out, nil
}

// SeasonalWindowAverage forecasts each seasonal position with the mean of
// that position over the last WindowSize seasons.
type SeasonalWindowAverage struct {
	SeasonLength int
	WindowSize   int

	means []float64
}

// NewSeasonalWindowAverage creates a seasonal window average forecaster.
func NewSeasonalWindowAverage(seasonLength, windowSize int) *SeasonalWindowAverage {
	return &SeasonalWindowAverage{
		SeasonLength: max(seasonLength, 1),
		WindowSize:   max(windowSize, 1),
	}
}

func (m *SeasonalWindowAverage) Name() string { return "SeasonalWindowAverage" }

func (m *SeasonalWindowAverage) Fit(series *timeseries.Series) error {
	span := m.SeasonLength * m.WindowSize
	if err := requireLen(m.Name(), series, span); err != nil {
		return err
	}

	tail := series.Values[series.Len()-span:]
	m.means = make([]float64, m.SeasonLength)
	position := make([]float64, m.WindowSize)
	for j := range m.means {
		for k := range position {
			position[k] = tail[k*m.SeasonLength+j]
		}
		m.means[j] = stat.Mean(position, nil)
	}
	return nil
}

func (m *SeasonalWindowAverage) Predict(h int) ([]float64, error) {
	if err := checkHorizon(m.means != nil, h); err != nil {
		return nil, err
	}
	out := make([]float64, h)
	for i := range out {
		out[i] = m.means[i%m.SeasonLength]
	}
	return out, nil
}

// RandomWalkWithDrift extends the last observation by the average historical change.
type RandomWalkWithDrift struct {
	last, drift float64
	fitted      bool
}

// NewRandomWalkWithDrift creates a random walk with drift forecaster.
func NewRandomWalkWithDrift() *RandomWalkWithDrift { return &RandomWalkWithDrift{} }

func (m *RandomWalkWithDrift) Name() string { return "RWD" }

func (m *RandomWalkWithDrift) Fit(series *timeseries.Series) error {
	if err := requireLen(m.Name(), series, 2); err != nil {
		return err
	}
	n := series.Len()
	m.last = series.Values[n-1]
	m.drift = (m.last - series.Values[0]) / float64(n-1)
	m.fitted = true
	return nil
}

func (m *RandomWalkWithDrift) Predict(h int) ([]float64, error) {
	if err := checkHorizon(m.fitted, h); err != nil {
		return nil, err
	}
	out := make([]float64, h)
	for i := range out {
		out[i] = m.last + float64(i+1)*m.drift
	}
	return out, nil
}
