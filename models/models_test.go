package models

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sartorproj/autoforecast/timeseries"
)

func seasonalValues(n int) []float64 {
	pattern := []float64{5, -5, 3, -3}
	values := make([]float64, n)
	for i := range values {
		values[i] = 50 + pattern[i%len(pattern)]
	}
	return values
}

func noisyValues(n int) []float64 {
	values := make([]float64, n)
	for i := range values {
		values[i] = 100 + float64(i)/4 + 3*math.Sin(2*math.Pi*float64(i)/7) + float64(i%5-2)/2
	}
	return values
}

func TestNaive(t *testing.T) {
	m := NewNaive()
	require.NoError(t, m.Fit(timeseries.New([]float64{1, 2, 3})))

	got, err := m.Predict(2)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 3}, got)
}

func TestSeasonalNaive(t *testing.T) {
	m := NewSeasonalNaive(3)
	require.NoError(t, m.Fit(timeseries.New([]float64{1, 2, 3, 4, 5, 6})))

	got, err := m.Predict(4)
	require.NoError(t, err)
	assert.Equal(t, []float64{4, 5, 6, 4}, got)
}

func TestSeasonalWindowAverage(t *testing.T) {
	m := NewSeasonalWindowAverage(2, 2)
	require.NoError(t, m.Fit(timeseries.New([]float64{1, 2, 3, 4, 5, 6})))

	got, err := m.Predict(3)
	require.NoError(t, err)
	assert.Equal(t, []float64{4, 5, 4}, got)

	short := NewSeasonalWindowAverage(7, 7)
	assert.ErrorIs(t, short.Fit(timeseries.New(noisyValues(20))), ErrInsufficientData)
}

func TestRandomWalkWithDrift(t *testing.T) {
	m := NewRandomWalkWithDrift()
	require.NoError(t, m.Fit(timeseries.New([]float64{1, 3, 5})))

	got, err := m.Predict(2)
	require.NoError(t, err)
	assert.Equal(t, []float64{7, 9}, got)

	assert.ErrorIs(t, NewRandomWalkWithDrift().Fit(timeseries.New([]float64{1})), ErrInsufficientData)
}

func TestPredictErrors(t *testing.T) {
	for _, m := range []Forecaster{
		NewNaive(), NewSeasonalNaive(2), NewSeasonalWindowAverage(2, 2), NewRandomWalkWithDrift(),
		NewAutoETS(4), NewAutoCES(4), NewMSTL(4), NewAutoARIMA(4),
	} {
		t.Run(m.Name(), func(t *testing.T) {
			_, err := m.Predict(3)
			assert.ErrorIs(t, err, ErrNotFitted)

			require.NoError(t, m.Fit(timeseries.New(noisyValues(60))))
			_, err = m.Predict(0)
			assert.ErrorIs(t, err, ErrInvalidHorizon)
		})
	}
}

func TestAutoETSLinearTrend(t *testing.T) {
	values := make([]float64, 30)
	for i := range values {
		values[i] = 10 + 2*float64(i)
	}

	m := NewAutoETS(1)
	require.NoError(t, m.Fit(timeseries.New(values)))
	assert.Equal(t, "ETS(A,A,N)", m.Describe())

	got, err := m.Predict(3)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{70, 72, 74}, got, 1e-6)
}

func TestAutoETSSeasonal(t *testing.T) {
	m := NewAutoETS(4)
	require.NoError(t, m.Fit(timeseries.New(seasonalValues(40))))
	assert.Equal(t, "ETS(A,N,A)", m.Describe())

	got, err := m.Predict(4)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{55, 45, 53, 47}, got, 1e-6)
}

func TestAutoETSSkipsSeasonalFormsOnShortSeries(t *testing.T) {
	m := NewAutoETS(12)
	require.NoError(t, m.Fit(timeseries.New(noisyValues(20))))
	assert.NotContains(t, m.Describe(), ",A)")
}

func TestCESStability(t *testing.T) {
	assert.True(t, cesStable(1.3, 1))
	assert.False(t, cesStable(1, 1), "a0 == a1 never corrects the level")
}

func TestAutoCES(t *testing.T) {
	m := NewAutoCES(7)
	require.NoError(t, m.Fit(timeseries.New(noisyValues(80))))
	assert.Contains(t, m.Describe(), "CES(")

	got, err := m.Predict(7)
	require.NoError(t, err)
	require.Len(t, got, 7)
	for _, v := range got {
		assert.True(t, finite(v))
	}
}

func TestMSTL(t *testing.T) {
	m := NewMSTL(4)
	require.NoError(t, m.Fit(timeseries.New(seasonalValues(40))))

	got, err := m.Predict(4)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{55, 45, 53, 47}, got, 1e-6)
	assert.Contains(t, m.Describe(), "MSTL[4]")
}

func TestMSTLWithoutFullSeasons(t *testing.T) {
	m := NewMSTL(12)
	require.NoError(t, m.Fit(timeseries.New(noisyValues(15))))

	got, err := m.Predict(2)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestAutoARIMAUnfitted(t *testing.T) {
	m := NewAutoARIMA(7)
	assert.Equal(t, "AutoARIMA", m.Describe())
	assert.Nil(t, m.Summary())
}

func TestAutoARIMAForecaster(t *testing.T) {
	m := NewAutoARIMA(7)
	require.NoError(t, m.Fit(timeseries.New(noisyValues(80))))
	assert.Contains(t, m.Describe(), "ARIMA(")
	assert.Contains(t, m.Describe(), "LB p=")

	var forecaster Forecaster = m
	summarizer, ok := forecaster.(Summarizer)
	require.True(t, ok)
	summary := summarizer.Summary()
	require.NotNil(t, summary)
	require.NotNil(t, summary.LjungBox)
	assert.Equal(t, m.result.Order, summary.Order)

	got, err := m.Predict(5)
	require.NoError(t, err)
	require.Len(t, got, 5)
	for _, v := range got {
		assert.True(t, finite(v))
	}
}

func TestParamsInt(t *testing.T) {
	p := Params{"a": 3, "b": 4.0, "c": 2.5, "d": "x"}

	v, err := p.Int("a", 1)
	require.NoError(t, err)
	assert.Equal(t, 3, v)

	v, err = p.Int("b", 1)
	require.NoError(t, err)
	assert.Equal(t, 4, v)

	v, err = p.Int("missing", 9)
	require.NoError(t, err)
	assert.Equal(t, 9, v)

	_, err = p.Int("c", 1)
	assert.ErrorIs(t, err, ErrInvalidParam)
	_, err = p.Int("d", 1)
	assert.ErrorIs(t, err, ErrInvalidParam)
}

func TestDefaultCapabilities(t *testing.T) {
	caps, err := Default().Capabilities()
	require.NoError(t, err)

	assert.Equal(t, BackendName, caps.Name)
	assert.Equal(t, BackendVersion, caps.Version)
	assert.Equal(t, []string{
		"AutoARIMA", "ETS", "CES", "MSTL", "SeasonalNaive", "SeasonalWindowAverage", "RWD", "Naive",
	}, caps.Models)
	assert.Equal(t, []string{ParamSeasonLength, ParamWindowSize}, caps.Params["SeasonalWindowAverage"])
	assert.True(t, caps.Supports("ETS", "Naive"))
	assert.False(t, caps.Supports("ETS", "Prophet"))
}

func TestBuild(t *testing.T) {
	backend := Default()

	candidate, err := backend.Build("SeasonalWindowAverage", Params{ParamSeasonLength: 7, ParamWindowSize: 7.0})
	require.NoError(t, err)
	assert.Equal(t, "SeasonalWindowAverage", candidate.Name)

	a, b := candidate.New(), candidate.New()
	assert.NotSame(t, a, b)
	assert.Equal(t, 7, a.(*SeasonalWindowAverage).WindowSize)

	_, err = backend.Build("Prophet", nil)
	assert.ErrorIs(t, err, ErrUnknownModel)

	_, err = backend.Build("Naive", Params{ParamSeasonLength: 7})
	var unexpected *UnexpectedParamError
	require.True(t, errors.As(err, &unexpected))
	assert.Equal(t, "Naive", unexpected.Model)
	assert.Equal(t, ParamSeasonLength, unexpected.Param)

	_, err = backend.Build("ETS", Params{ParamSeasonLength: 0})
	assert.ErrorIs(t, err, ErrInvalidParam)
}

func TestRegistryReplace(t *testing.T) {
	r := NewRegistry("test", "0.1.0")
	naive := func(Params) (func() Forecaster, error) {
		return func() Forecaster { return NewNaive() }, nil
	}
	r.Register("Naive", nil, naive)
	r.Register("Naive", []string{ParamSeasonLength}, naive)

	caps, err := r.Capabilities()
	require.NoError(t, err)
	assert.Equal(t, []string{"Naive"}, caps.Models)

	_, err = r.Build("Naive", Params{ParamSeasonLength: 1})
	assert.NoError(t, err)
}
