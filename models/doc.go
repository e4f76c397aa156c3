// Package models provides the candidate forecasters scored by the selector
// and the backend registry that builds them by name.
//
// Every candidate implements Forecaster:
//   - AutoARIMA: stepwise (S)ARIMA order search
//   - ETS: additive-error exponential smoothing chosen by AICc
//   - CES: complex exponential smoothing, plain or seasonal, chosen by AIC
//   - MSTL: STL decomposition with an ETS trend and a repeated seasonal cycle
//   - SeasonalNaive, SeasonalWindowAverage, RWD and Naive baselines
//
// # Basic Usage
//
//	backend := models.Default()
//	candidate, err := backend.Build("ETS", models.Params{"season_length": 7})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	model := candidate.New()
//	if err := model.Fit(series); err != nil {
//	    log.Fatal(err)
//	}
//	forecasts, _ := model.Predict(5)
//
// Build rejects parameters a model does not accept with an
// *UnexpectedParamError and unknown names with ErrUnknownModel.
package models
