package models

import (
	"errors"
	"fmt"
	"math"

	"github.com/sartorproj/autoforecast/timeseries"
)

var (
	// ErrUnknownModel is returned when the backend has no model with the requested name.
	ErrUnknownModel = errors.New("models: unknown model")
	// ErrInsufficientData is returned when a series is too short for a model.
	ErrInsufficientData = errors.New("models: insufficient data")
	// ErrNotFitted is returned when predicting from an unfitted model.
	ErrNotFitted = errors.New("models: model must be fitted before prediction")
	// ErrInvalidHorizon is returned when the horizon is not positive.
	ErrInvalidHorizon = errors.New("models: horizon must be at least 1")
	// ErrInvalidParam is returned when a parameter has the wrong type or range.
	ErrInvalidParam = errors.New("models: invalid parameter")
)

// Parameter names accepted by the candidates.
const (
	ParamSeasonLength = "season_length"
	ParamWindowSize   = "window_size"
)

// UnexpectedParamError reports a parameter the model does not accept.
// Older backends reject parameters newer callers pass.
type UnexpectedParamError struct {
	Model string
	Param string
}

func (e *UnexpectedParamError) Error() string {
	return fmt.Sprintf("models: %s got an unexpected parameter %q", e.Model, e.Param)
}

// Forecaster is a statistical model that can be fitted on a series and
// produce point forecasts. A Forecaster is used by one goroutine at a time.
type Forecaster interface {
	Name() string
	Fit(series *timeseries.Series) error
	Predict(h int) ([]float64, error)
}

// Describer is implemented by forecasters that select a specification
// during Fit, such as an ARIMA order or an ETS form.
type Describer interface {
	Describe() string
}

// Params holds model parameters by name.
type Params map[string]any

// Int returns the integer parameter key, or def when it is absent.
func (p Params) Int(key string, def int) (int, error) {
	v, ok := p[key]
	if !ok {
		return def, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n == math.Trunc(n) {
			return int(n), nil
		}
	}
	return 0, fmt.Errorf("%w: %s must be an integer, got %v", ErrInvalidParam, key, v)
}

// Candidate is a named model constructor. New returns a fresh, unfitted
// instance each time so folds never share state.
type Candidate struct {
	Name string
	New  func() Forecaster
}

func checkHorizon(fitted bool, h int) error {
	if !fitted {
		return ErrNotFitted
	}
	if h < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidHorizon, h)
	}
	return nil
}

func requireLen(model string, series *timeseries.Series, n int) error {
	if series.Len() < n {
		return fmt.Errorf("%w: %s needs %d observations, got %d", ErrInsufficientData, model, n, series.Len())
	}
	return nil
}
