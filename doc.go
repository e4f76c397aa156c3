// Package autoforecast selects and runs the most accurate statistical
// forecasting model for a price series.
//
// An ensemble of candidates (AutoARIMA, AutoETS, AutoCES, MSTL,
// SeasonalNaive, SeasonalWindowAverage and RWD) is backtested with
// rolling-origin cross-validation. The model with the lowest MAPE on the
// backtest window is refit on the full series and used for the forecast.
// The methodology follows "Forecasting: Principles and Practice".
//
// # Quick Start
//
// Select a model for the close column of a CSV file:
//
//	table, _ := timeseries.LoadCSV("prices.csv", nil)
//	result, err := autoselect.New().Select(ctx, table, autoselect.Options{
//	    TargetColumn:    "close",
//	    SeasonalPeriods: 7,
//	    NPredict:        5,
//	})
//	fmt.Println(result.BestModel, result.Forecast.Values)
//
// Fit a single model directly:
//
//	config := autoarima.DefaultConfig()
//	fit, _ := autoarima.AutoARIMA(series, config)
//	forecasts, _ := fit.Predict(10)
//
// # Packages
//
//   - timeseries: series, frequency inference, tables and CSV I/O
//   - stats: stationarity tests, ACF, STL decomposition and accuracy metrics
//   - arima: (S)ARIMA models
//   - autoarima: automatic (S)ARIMA order selection
//   - models: candidate forecasters and the backend registry
//   - ensemble: cross-validation and forecasting over a candidate set
//   - autoselect: model selection by backtest MAPE
//   - console, logging, config, metrics, api: terminal output, zerolog,
//     YAML configuration, Prometheus and the HTTP API
//
// The autoselect command in cmd/autoselect wraps the selector as a CLI and
// an HTTP server.
//
// # References
//
//   - Hyndman, R.J., & Athanasopoulos, G. (2021). Forecasting: Principles and Practice
//   - Svetunkov, I., Kourentzes, N., & Ord, J.K. (2022). Complex exponential smoothing
package autoforecast
