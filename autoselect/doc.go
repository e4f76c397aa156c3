// Package autoselect picks the best forecasting model for a single target
// column by backtesting an ensemble of candidates and ranking them by MAPE.
//
// The ensemble is AutoARIMA, AutoETS, AutoCES, MSTL, SeasonalNaive,
// SeasonalWindowAverage and RWD. Naive replaces any candidate that fails
// on a fold. The cross-validation window starts at
// int((n-1)*StartWindow) and each fold trains on at most
// 10*ForecastHorizon points.
//
// # Basic Usage
//
//	selector := autoselect.New(autoselect.WithLogger(logger))
//	result, err := selector.Select(ctx, table, autoselect.Options{
//	    TargetColumn:    "close",
//	    SeasonalPeriods: 7,
//	    NPredict:        5,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if result.SetupErr != nil {
//	    return // diagnostic already printed
//	}
//	fmt.Println(result.BestModel, result.BestPrecision)
//
// A backend that is missing, too old or rejects a parameter is not an
// error: Select prints a diagnostic and returns a Result whose SetupErr is
// set and whose other fields are empty.
package autoselect
