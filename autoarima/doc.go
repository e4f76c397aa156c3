// Package autoarima picks the (S)ARIMA order for a series by information
// criterion and backs the AutoARIMA candidate in package models.
//
// The differencing order d comes from stats.NDiffs (KPSS, optionally
// confirmed by ADF) and the seasonal order D from stats.NSDiffs. The AR and
// MA orders are then searched either stepwise from a small set of starting
// models, moving one order at a time while the criterion improves, or over
// the full grid when Config.Stepwise is false:
//
//	config := autoarima.DefaultConfig()
//	config.Seasonal, config.SeasonalM = true, 7
//	result, err := autoarima.AutoARIMA(series, config)
//	if err != nil {
//		return err
//	}
//	forecasts, _ := result.Predict(5)
//
// A seasonal search that cannot fit (fewer than two seasons plus twenty
// observations, or no seasonal order converges) is retried without seasonal
// terms using the same search method. ErrNoModel means no order fitted.
package autoarima
