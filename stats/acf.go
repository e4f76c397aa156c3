package stats

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/sartorproj/autoforecast/timeseries"
)

// ACF calculates the Autocorrelation Function for the given series.
// Returns ACF values for lags 0 to maxLag, or nil for a constant series.
func ACF(series *timeseries.Series, maxLag int) []float64 {
	n := series.Len()
	if maxLag >= n {
		maxLag = n - 1
	}
	if maxLag < 0 {
		return nil
	}

	mean := stat.Mean(series.Values, nil)
	centered := make([]float64, n)
	variance := 0.0
	for i, v := range series.Values {
		centered[i] = v - mean
		variance += centered[i] * centered[i]
	}
	if variance == 0 {
		return nil
	}

	acf := make([]float64, maxLag+1)
	for k := 0; k <= maxLag; k++ {
		sum := 0.0
		for i := k; i < n; i++ {
			sum += centered[i] * centered[i-k]
		}
		acf[k] = sum / variance
	}
	return acf
}

// SignificantLags returns the lags whose autocorrelation exceeds the 95%
// white-noise bound 1.96/sqrt(n).
func SignificantLags(acf []float64, n int) []int {
	if n <= 0 {
		return nil
	}
	bound := 1.96 / math.Sqrt(float64(n))
	var significant []int
	for i := 1; i < len(acf); i++ {
		if math.Abs(acf[i]) > bound {
			significant = append(significant, i)
		}
	}
	return significant
}
