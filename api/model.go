package api

import (
	"math"
	"time"

	"github.com/sartorproj/autoforecast/autoselect"
	"github.com/sartorproj/autoforecast/timeseries"
)

// APIResponse represents standard API response.
type APIResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// ValidationError represents validation error detail.
type ValidationError struct {
	Code    string         `json:"code,omitempty"`
	Field   string         `json:"field,omitempty"`
	Message string         `json:"message,omitempty"`
	Params  map[string]any `json:"params,omitempty"`
}

// Point is one observation of the request series.
type Point struct {
	DS time.Time `json:"ds" validate:"required"`
	Y  *float64  `json:"y" validate:"required"`
}

// ForecastRequest is the body of POST /v1/forecast/autoselect.
type ForecastRequest struct {
	autoselect.Options
	Points []Point `json:"points" validate:"required,min=2,dive"`
}

func (r *ForecastRequest) table() (*timeseries.Table, error) {
	ts := make([]time.Time, len(r.Points))
	values := make([]float64, len(r.Points))
	for i, p := range r.Points {
		ts[i] = p.DS
		values[i] = *p.Y
	}
	table := timeseries.NewTable(ts)
	if err := table.Set(r.TargetColumn, values); err != nil {
		return nil, err
	}
	return table, nil
}

// ScoreView is a model's backtest MAPE, null when undefined or infinite.
type ScoreView struct {
	Model string   `json:"model"`
	MAPE  *float64 `json:"mape"`
}

// ValuePoint is one forecast or backtest value.
type ValuePoint struct {
	DS    time.Time `json:"ds"`
	Value float64   `json:"value"`
}

// ForecastResponse is the successful selection result.
type ForecastResponse struct {
	BestModel     string       `json:"best_model"`
	BestPrecision *float64     `json:"best_precision"`
	Freq          string       `json:"freq"`
	Precision     []ScoreView  `json:"precision"`
	Forecast      []ValuePoint `json:"forecast"`
	Historical    []ValuePoint `json:"historical"`
}

func newForecastResponse(r *autoselect.Result) ForecastResponse {
	precision := make([]ScoreView, len(r.Precision))
	for i, s := range r.Precision {
		precision[i] = ScoreView{Model: s.Model, MAPE: finitePtr(s.MAPE)}
	}
	return ForecastResponse{
		BestModel:     r.BestModel,
		BestPrecision: finitePtr(r.BestPrecision),
		Freq:          r.Series.Freq.String(),
		Precision:     precision,
		Forecast:      valuePoints(r.Forecast),
		Historical:    valuePoints(r.Historical),
	}
}

func valuePoints(s *timeseries.Series) []ValuePoint {
	out := make([]ValuePoint, s.Len())
	for i := range out {
		out[i] = ValuePoint{DS: s.Timestamps[i], Value: s.Values[i]}
	}
	return out
}

// finitePtr returns nil for values JSON cannot encode.
func finitePtr(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
