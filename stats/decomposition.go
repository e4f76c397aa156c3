package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/sartorproj/autoforecast/timeseries"
)

// DecompositionResult holds the additive components of a series:
// Original = Trend + Seasonal + Residual.
type DecompositionResult struct {
	Original *timeseries.Series
	Trend    *timeseries.Series
	Seasonal *timeseries.Series
	Residual *timeseries.Series
	Period   int
}

func (d *DecompositionResult) component(name string, values []float64) *timeseries.Series {
	return &timeseries.Series{
		Values:     values,
		Timestamps: d.Original.Timestamps,
		Name:       name,
		Freq:       d.Original.Freq,
	}
}

// SeasonallyAdjusted returns Original - Seasonal.
func (d *DecompositionResult) SeasonallyAdjusted() *timeseries.Series {
	adjusted := make([]float64, d.Original.Len())
	floats.SubTo(adjusted, d.Original.Values, d.Seasonal.Values)
	return d.component(d.Original.Name+"_sa", adjusted)
}

// Decompose performs classical additive decomposition with a centered moving
// average trend. Trend and residual are NaN where the window does not fit.
func Decompose(series *timeseries.Series, period int) *DecompositionResult {
	n := series.Len()
	if period < 2 || n < 2*period {
		return nil
	}

	trend := movingAverageTrend(series.Values, period)

	pattern := make([]float64, period)
	counts := make([]float64, period)
	for i := 0; i < n; i++ {
		if !math.IsNaN(trend[i]) {
			pattern[i%period] += series.Values[i] - trend[i]
			counts[i%period]++
		}
	}
	for i := range pattern {
		if counts[i] > 0 {
			pattern[i] /= counts[i]
		}
	}
	floats.AddConst(-stat.Mean(pattern, nil), pattern)

	seasonal := make([]float64, n)
	residual := make([]float64, n)
	for i := 0; i < n; i++ {
		seasonal[i] = pattern[i%period]
		residual[i] = series.Values[i] - trend[i] - seasonal[i]
	}

	d := &DecompositionResult{Original: series, Period: period}
	d.Trend = d.component("trend", trend)
	d.Seasonal = d.component("seasonal", seasonal)
	d.Residual = d.component("residual", residual)
	return d
}

// movingAverageTrend uses a 2xm MA for even periods and an m MA for odd ones.
func movingAverageTrend(values []float64, period int) []float64 {
	n := len(values)
	trend := make([]float64, n)
	for i := range trend {
		trend[i] = math.NaN()
	}

	half := period / 2
	for i := half; i < n-half; i++ {
		var sum float64
		if period%2 == 0 {
			sum = 0.5*values[i-half] + 0.5*values[i+half] + floats.Sum(values[i-half+1:i+half])
		} else {
			sum = floats.Sum(values[i-half : i+half+1])
		}
		trend[i] = sum / float64(period)
	}
	return trend
}

// STL performs a simplified Seasonal-Trend decomposition using Loess:
// seasonal averaging and a triangular-kernel trend smoother, refined with
// bisquare robustness weights for robustIters passes.
func STL(series *timeseries.Series, period int, robustIters int) *DecompositionResult {
	n := series.Len()
	if period < 2 || n < 2*period {
		return nil
	}
	if robustIters < 1 {
		robustIters = 2
	}

	trend := make([]float64, n)
	seasonal := make([]float64, n)
	residual := make([]float64, n)
	weights := make([]float64, n)
	for i := range weights {
		weights[i] = 1
	}

	window := period
	if window%2 == 0 {
		window++
	}
	half := window / 2

	for iter := 0; iter < robustIters; iter++ {
		pattern := make([]float64, period)
		counts := make([]float64, period)
		for i := 0; i < n; i++ {
			pattern[i%period] += (series.Values[i] - trend[i]) * weights[i]
			counts[i%period] += weights[i]
		}
		for i := range pattern {
			if counts[i] > 0 {
				pattern[i] /= counts[i]
			}
		}
		floats.AddConst(-stat.Mean(pattern, nil), pattern)
		for i := 0; i < n; i++ {
			seasonal[i] = pattern[i%period]
		}

		for i := 0; i < n; i++ {
			sum, weightSum := 0.0, 0.0
			for j := -half; j <= half; j++ {
				idx := i + j
				if idx < 0 || idx >= n {
					continue
				}
				w := weights[idx] * (1 - math.Abs(float64(j))/float64(half+1))
				sum += (series.Values[idx] - seasonal[idx]) * w
				weightSum += w
			}
			if weightSum > 0 {
				trend[i] = sum / weightSum
			}
		}

		for i := 0; i < n; i++ {
			residual[i] = series.Values[i] - trend[i] - seasonal[i]
		}

		if iter < robustIters-1 {
			abs := make([]float64, n)
			for i, r := range residual {
				abs[i] = math.Abs(r)
			}
			h := 6 * median(abs)
			if h > 0 {
				for i := range weights {
					u := abs[i] / h
					if u < 1 {
						weights[i] = (1 - u*u) * (1 - u*u)
					} else {
						weights[i] = 0
					}
				}
			}
		}
	}

	d := &DecompositionResult{Original: series, Period: period}
	d.Trend = d.component("trend", trend)
	d.Seasonal = d.component("seasonal", seasonal)
	d.Residual = d.component("residual", residual)
	return d
}

func median(data []float64) float64 {
	n := len(data)
	if n == 0 {
		return 0
	}
	sorted := append([]float64(nil), data...)
	sort.Float64s(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}
