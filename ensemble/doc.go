// Package ensemble fits a fixed set of candidate models on one series,
// backtests them with rolling-origin cross-validation and produces
// per-model forecasts.
//
// A candidate that fails to fit, fails to predict or returns non-finite
// values is replaced by the fallback model for that fold only. Without a
// fallback the failure is returned.
//
// # Basic Usage
//
//	e, err := ensemble.New(timeseries.ToFrame(series, "close"), candidates,
//	    ensemble.WithFallback(naive),
//	    ensemble.WithWorkers(4),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	cv, err := e.CrossValidation(ctx, 5, 16, 50)
//	fc, err := e.Forecast(ctx, 5)
//
// Output does not depend on the worker count: every fold writes to its own slot.
package ensemble
