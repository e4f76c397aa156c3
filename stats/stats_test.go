package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sartorproj/autoforecast/timeseries"
)

func seasonalTrend(n, period int) []float64 {
	values := make([]float64, n)
	for i := 0; i < n; i++ {
		trend := float64(i) * 0.5
		seasonal := 10 * math.Sin(2*math.Pi*float64(i%period)/float64(period))
		values[i] = trend + seasonal + float64(i%5-2)/5
	}
	return values
}

func TestACF(t *testing.T) {
	n := 100
	values := make([]float64, n)
	for i := 1; i < n; i++ {
		values[i] = 0.8*values[i-1] + (float64(i%10)-5)/10
	}

	acf := ACF(timeseries.New(values), 10)
	require.Len(t, acf, 11)
	assert.InDelta(t, 1.0, acf[0], 1e-10)
	assert.Greater(t, acf[1], 0.3, "AR(1) with phi=0.8 should have strong lag-1 correlation")

	assert.Nil(t, ACF(timeseries.New([]float64{3, 3, 3}), 2), "constant series has no ACF")
	assert.Len(t, ACF(timeseries.New([]float64{1, 2, 3}), 10), 3)
}

func TestSignificantLags(t *testing.T) {
	acf := []float64{1, 0.5, 0.05, -0.4}
	assert.Equal(t, []int{1, 3}, SignificantLags(acf, 100))
	assert.Nil(t, SignificantLags(acf, 0))
}

func TestADF(t *testing.T) {
	n := 200
	stationary := make([]float64, n)
	for i := range stationary {
		stationary[i] = 100 + math.Sin(float64(i)/10)*5 + float64(i%5-2)
	}

	result := ADF(timeseries.New(stationary), 0)
	require.NotNil(t, result)
	assert.Positive(t, result.NObs)
	assert.Contains(t, result.CriticalVals, "5%")
	t.Logf("ADF Statistic: %f, P-Value: %f, IsStationary: %v",
		result.Statistic, result.PValue, result.IsStationary)

	assert.Nil(t, ADF(timeseries.New([]float64{1, 2, 3}), 0), "too short")
}

func TestKPSS(t *testing.T) {
	n := 200
	stationary := make([]float64, n)
	for i := range stationary {
		stationary[i] = math.Sin(float64(i)/10) + float64(i%5-2)/5
	}

	result := KPSS(timeseries.New(stationary), "c", 0)
	require.NotNil(t, result)
	t.Logf("KPSS Stationary - Statistic: %f, P-Value: %f, IsStationary: %v",
		result.Statistic, result.PValue, result.IsStationary)

	trend := make([]float64, n)
	for i := range trend {
		trend[i] = float64(i) * 0.5
	}
	result = KPSS(timeseries.New(trend), "c", 0)
	require.NotNil(t, result)
	assert.False(t, result.IsStationary, "linear trend is not level stationary")

	ct := KPSS(timeseries.New(seasonalTrend(120, 12)), "ct", 0)
	require.NotNil(t, ct)
	assert.Equal(t, 0.146, ct.CriticalVals["5%"])
}

func TestLjungBox(t *testing.T) {
	n := 100
	autocorrelated := make([]float64, n)
	for i := 1; i < n; i++ {
		autocorrelated[i] = 0.9*autocorrelated[i-1] + float64(i%7-3)/10
	}

	result := LjungBox(timeseries.New(autocorrelated), 10, 0)
	require.NotNil(t, result)
	assert.Equal(t, 10, result.DOF)
	assert.Less(t, result.PValue, 0.05, "strongly autocorrelated series should reject H0")

	fitted := LjungBox(timeseries.New(autocorrelated), 10, 12)
	require.NotNil(t, fitted)
	assert.Equal(t, 1, fitted.DOF)

	assert.Nil(t, LjungBox(timeseries.New(autocorrelated[:5]), 10, 0))
}

func TestDecompose(t *testing.T) {
	n, period := 120, 12
	series := timeseries.New(seasonalTrend(n, period))

	result := Decompose(series, period)
	require.NotNil(t, result)
	assert.Equal(t, n, result.Trend.Len())
	assert.Equal(t, n, result.Seasonal.Len())
	assert.Equal(t, n, result.Residual.Len())
	assert.True(t, math.IsNaN(result.Trend.Values[0]))

	for i := period; i < n-period; i++ {
		reconstructed := result.Trend.Values[i] + result.Seasonal.Values[i] + result.Residual.Values[i]
		assert.InDelta(t, series.Values[i], reconstructed, 1e-9)
	}

	sa := result.SeasonallyAdjusted()
	assert.InDelta(t, series.Values[5]-result.Seasonal.Values[5], sa.Values[5], 1e-12)

	assert.Nil(t, Decompose(series.Slice(0, 20), period))
}

func TestSTL(t *testing.T) {
	n, period := 120, 12
	series := timeseries.New(seasonalTrend(n, period))

	result := STL(series, period, 2)
	require.NotNil(t, result)
	assert.Equal(t, n, result.Trend.Len())

	for i := period; i < n; i++ {
		assert.InDelta(t, result.Seasonal.Values[i-period], result.Seasonal.Values[i], 1e-9, "seasonal component is periodic")
		assert.InDelta(t, series.Values[i], result.Trend.Values[i]+result.Seasonal.Values[i]+result.Residual.Values[i], 1e-9)
	}

	assert.Nil(t, STL(series.Slice(0, 10), period, 2))
}

func TestMedian(t *testing.T) {
	assert.Equal(t, 2.0, median([]float64{3, 1, 2}))
	assert.Equal(t, 2.5, median([]float64{4, 1, 3, 2}))
	assert.Zero(t, median(nil))
}
