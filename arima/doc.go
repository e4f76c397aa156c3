// Package arima implements seasonal AutoRegressive Integrated Moving Average
// models, ARIMA(p,d,q)(P,D,Q)[m].
//
// A model combines:
//   - AR(p): AutoRegressive component with p lags
//   - I(d): Integration (differencing) of order d
//   - MA(q): Moving Average component with q lags
//   - the same three components at multiples of the seasonal period m
//
// Coefficients are estimated by conditional sum of squares.
//
// # Basic Usage
//
//	model := arima.New(arima.Order{P: 1, D: 1, Q: 1, SP: 1, SD: 1, M: 12})
//	if err := model.Fit(series); err != nil {
//	    log.Fatal(err)
//	}
//	forecasts, lower, upper, _ := model.PredictWithInterval(12, 0.95)
//
// # Model Selection
//
// Lower AICc is better when comparing fits of the same differencing order:
//
//	if m1.AICc < m2.AICc {
//	    // use m1
//	}
//
// For automatic order selection, use the autoarima package.
package arima
