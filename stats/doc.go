// Package stats provides statistical tests, decompositions and accuracy
// metrics for time series.
//
// # Stationarity Tests
//
//	// Augmented Dickey-Fuller, H0: unit root
//	adf := stats.ADF(series, 0)
//
//	// KPSS, H0: level stationary
//	kpss := stats.KPSS(series, "c", 0)
//
// # Differencing Analysis
//
//	d := stats.NDiffs(series, 2, "kpss")
//	sd := stats.NSDiffs(series, 12, 1)
//
// # Residual Diagnostics
//
//	lb := stats.LjungBox(residuals, 10, p+q)
//	if lb.PValue > 0.05 {
//	    // residuals are white noise
//	}
//
// # Decomposition
//
//	decomp := stats.Decompose(series, 12)
//	stl := stats.STL(series, 12, 2)
//	adjusted := stl.SeasonallyAdjusted()
//
// # Accuracy
//
//	mape, err := stats.MAPE(actual, predicted)
package stats
