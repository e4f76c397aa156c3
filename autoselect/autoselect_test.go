package autoselect

import (
	"bytes"
	"context"
	"errors"
	"math"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sartorproj/autoforecast/console"
	"github.com/sartorproj/autoforecast/ensemble"
	"github.com/sartorproj/autoforecast/metrics"
	"github.com/sartorproj/autoforecast/models"
	"github.com/sartorproj/autoforecast/stats"
	"github.com/sartorproj/autoforecast/timeseries"
)

type fakeBackend struct {
	caps     models.Capabilities
	capsErr  error
	buildErr map[string]error
	inner    *models.Registry
}

func newFakeBackend() *fakeBackend {
	inner := models.Default()
	caps, _ := inner.Capabilities()
	return &fakeBackend{caps: caps, inner: inner, buildErr: map[string]error{}}
}

func (f *fakeBackend) Capabilities() (models.Capabilities, error) {
	return f.caps, f.capsErr
}

func (f *fakeBackend) Build(name string, params models.Params) (models.Candidate, error) {
	if err := f.buildErr[name]; err != nil {
		return models.Candidate{}, err
	}
	return f.inner.Build(name, params)
}

type fakeRecorder struct {
	mu        sync.Mutex
	runs      map[string]int
	precision map[string]float64
	selected  []string
	fits      int
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{runs: map[string]int{}, precision: map[string]float64{}}
}

func (r *fakeRecorder) ObserveFit(string, string, time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fits++
}

func (r *fakeRecorder) IncFallback(string) {}

func (r *fakeRecorder) RecordRun(status string) { r.runs[status]++ }

func (r *fakeRecorder) RecordPrecision(model string, mape float64) { r.precision[model] = mape }

func (r *fakeRecorder) RecordSelected(model string) { r.selected = append(r.selected, model) }

func priceTable(n int) *timeseries.Table {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ts := make([]time.Time, n)
	values := make([]float64, n)
	for i := range values {
		ts[i] = start.AddDate(0, 0, i)
		values[i] = 100 + 0.2*float64(i) + 3*math.Sin(2*math.Pi*float64(i)/7) + float64((i*37)%11-5)/10
	}
	table := timeseries.NewTable(ts)
	_ = table.Set("close", values)
	return table
}

func newTestSelector(buf *bytes.Buffer, opts ...Option) *Selector {
	return New(append([]Option{WithConsole(console.New(buf, false))}, opts...)...)
}

func TestSplitPoints(t *testing.T) {
	cutoff, testSize := SplitPoints(100, 0.85)
	assert.Equal(t, 84, cutoff)
	assert.Equal(t, 16, testSize)

	cutoff, testSize = SplitPoints(80, 0.85)
	assert.Equal(t, 67, cutoff)
	assert.Equal(t, 13, testSize)
}

func TestPrecisionFormat(t *testing.T) {
	assert.Equal(t, "[#00AAFF]1.23% [/#00AAFF]", PrecisionFormat("AutoETS", "AutoETS", 1.234, true))
	assert.Equal(t, "1.23%", PrecisionFormat("AutoETS", "AutoETS", 1.234, false))
	assert.Equal(t, "4.57%", PrecisionFormat("AutoETS", "RWD", 4.567, true))
}

func TestScoreModels(t *testing.T) {
	table := timeseries.NewTable(make([]time.Time, 3))
	require.NoError(t, table.Set(ensemble.ColumnY, []float64{100, 200, 400}))
	require.NoError(t, table.Set("A", []float64{110, 190, 400}))
	require.NoError(t, table.Set("B", []float64{100, 200, 400}))
	require.NoError(t, table.Set("C", []float64{110, 190, 400}))

	precision, err := ScoreModels(table, []string{"A", "B", "C"})
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "A", "C"}, precision.Models(), "ties keep input order")
	assert.InDelta(t, 5.0, precision[1].MAPE, 1e-9)

	best, err := precision.Best()
	require.NoError(t, err)
	assert.Equal(t, Score{Model: "B", MAPE: 0}, best)

	_, err = ScoreModels(table, []string{"missing"})
	assert.ErrorIs(t, err, timeseries.ErrColumnNotFound)
}

func TestScoreModelsNaNLast(t *testing.T) {
	table := timeseries.NewTable(make([]time.Time, 2))
	require.NoError(t, table.Set(ensemble.ColumnY, []float64{0, 10}))
	require.NoError(t, table.Set("Exact", []float64{0, 10}))
	require.NoError(t, table.Set("Off", []float64{1, 10}))

	precision, err := ScoreModels(table, []string{"Exact", "Off"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Off", "Exact"}, precision.Models())
	assert.True(t, math.IsInf(precision[0].MAPE, 1))
	assert.True(t, math.IsNaN(precision[1].MAPE))

	_, err = PrecisionTable{{Model: "X", MAPE: math.NaN()}}.Best()
	assert.ErrorIs(t, err, ErrNoScore)
}

func TestOptionsValidate(t *testing.T) {
	opts := Options{}
	require.NoError(t, opts.Validate())
	assert.Equal(t, DefaultOptions(), opts)
	assert.Equal(t, Options{
		TargetColumn: "close", SeasonalPeriods: 7, NPredict: 5, StartWindow: 0.85, ForecastHorizon: 5,
	}, opts)

	bad := Options{StartWindow: 1.5}
	assert.ErrorIs(t, bad.Validate(), ErrInvalidOptions)

	negative := Options{NPredict: -1}
	assert.ErrorIs(t, negative.Validate(), ErrInvalidOptions)
}

func TestSelect(t *testing.T) {
	var buf bytes.Buffer
	recorder := newFakeRecorder()
	s := newTestSelector(&buf, WithRecorder(recorder))

	result, err := s.Select(context.Background(), priceTable(80), Options{})
	require.NoError(t, err)
	require.True(t, result.OK())
	assert.Nil(t, result.SetupErr)

	displayNames := []string{"AutoARIMA", "AutoETS", "AutoCES", "MSTL", "SeasonalNaive", "SeasonalWindowAverage", "RWD"}
	assert.Contains(t, displayNames, result.BestModel)
	assert.GreaterOrEqual(t, result.BestPrecision, 0.0)
	assert.ElementsMatch(t, displayNames, result.Precision.Models())
	assert.True(t, slices.IsSortedFunc(result.Precision, compareScores))

	best, err := result.Precision.Best()
	require.NoError(t, err)
	assert.Equal(t, best.Model, result.BestModel)
	assert.Equal(t, best.MAPE, result.BestPrecision)

	y, _ := result.Backtest.Column(ensemble.ColumnY)
	for _, score := range result.Precision {
		preds, ok := result.Backtest.Column(score.Model)
		require.True(t, ok, score.Model)
		want, err := stats.MAPE(y, preds)
		require.NoError(t, err)
		assert.Equal(t, want, score.MAPE, score.Model)
	}

	assert.Equal(t, "close", result.Series.Name)
	assert.Equal(t, 80, result.Series.Len())
	assert.Equal(t, "close", result.Historical.Name)
	assert.Equal(t, 13, result.Historical.Len())
	assert.Equal(t, result.Series.Timestamps[67], result.Historical.Timestamps[0])
	assert.Equal(t, "close", result.Forecast.Name)
	assert.Equal(t, 5, result.Forecast.Len())
	assert.Equal(t, result.Series.Timestamps[79].AddDate(0, 0, 1), result.Forecast.Timestamps[0])

	bestForecast, _ := result.Forecasts.Column(result.BestModel)
	assert.Equal(t, bestForecast, result.Forecast.Values)

	_, ok := result.Ensemble.Fitted("ETS")
	assert.True(t, ok)

	fitted, ok := result.BestFitted()
	require.True(t, ok)
	wantName := result.BestModel
	for name, alias := range DefaultAliases {
		if alias == result.BestModel {
			wantName = name
		}
	}
	assert.Contains(t, []string{wantName, FallbackModel}, fitted.Name())

	out := buf.String()
	assert.Contains(t, out, "Performance per model.\nBest model: "+result.BestModel+"\n")
	assert.Contains(t, out, "MAPE")
	assert.NotContains(t, out, "[#00AAFF]")

	assert.Equal(t, 1, recorder.runs[metrics.StatusOK])
	assert.Equal(t, []string{result.BestModel}, recorder.selected)
	assert.Len(t, recorder.precision, 7)
	assert.Positive(t, recorder.fits)
}

func TestSelectIsIdempotent(t *testing.T) {
	var buf bytes.Buffer
	s := newTestSelector(&buf, WithWorkers(4))
	table := priceTable(80)

	first, err := s.Select(context.Background(), table, Options{})
	require.NoError(t, err)
	second, err := s.Select(context.Background(), table, Options{})
	require.NoError(t, err)

	assert.Equal(t, first.BestModel, second.BestModel)
	assert.Equal(t, first.BestPrecision, second.BestPrecision)
	assert.Equal(t, first.Precision, second.Precision)
	assert.Equal(t, first.Forecast.Values, second.Forecast.Values)
}

func TestSelectSeries(t *testing.T) {
	var buf bytes.Buffer
	table := priceTable(60)
	values, _ := table.Column("close")
	series, err := timeseries.NewWithTimestamps("prices", table.Time, values)
	require.NoError(t, err)

	result, err := newTestSelector(&buf).SelectSeries(context.Background(), series, Options{TargetColumn: "adj_close"})
	require.NoError(t, err)
	assert.True(t, result.OK())
	assert.Equal(t, "adj_close", result.Forecast.Name)
}

func TestSelectSeriesInvalidOptions(t *testing.T) {
	var buf bytes.Buffer
	recorder := newFakeRecorder()
	s := newTestSelector(&buf, WithRecorder(recorder))
	series := timeseries.New([]float64{1, 2, 3})

	_, err := s.SelectSeries(context.Background(), series, Options{NPredict: -1})
	assert.ErrorIs(t, err, ErrInvalidOptions)
	assert.Equal(t, map[string]int{metrics.StatusError: 1}, recorder.runs)
	assert.Empty(t, buf.String())
}

func TestSelectTargetNamedAfterModel(t *testing.T) {
	var buf bytes.Buffer
	table := priceTable(100)
	values, _ := table.Column("close")
	series, err := timeseries.NewWithTimestamps("RWD", table.Time, values)
	require.NoError(t, err)

	result, err := newTestSelector(&buf).SelectSeries(context.Background(), series, Options{TargetColumn: "RWD"})
	require.NoError(t, err)
	require.True(t, result.OK())
	assert.Equal(t, "RWD", result.Forecast.Name)

	bestForecast, ok := result.Forecasts.Column(result.BestModel)
	require.True(t, ok)
	assert.Equal(t, bestForecast, result.Forecast.Values)

	bestBacktest, ok := result.Backtest.DedupeFirst().Column(result.BestModel)
	require.True(t, ok)
	assert.Equal(t, bestBacktest, result.Historical.Values)
}

func TestSelectAliasCollision(t *testing.T) {
	var buf bytes.Buffer
	s := newTestSelector(&buf, WithAliases(map[string]string{"ETS": "RWD"}))

	_, err := s.Select(context.Background(), priceTable(60), Options{})
	assert.ErrorIs(t, err, timeseries.ErrDuplicateColumn)
}

func TestSelectCustomAliases(t *testing.T) {
	var buf bytes.Buffer
	s := newTestSelector(&buf, WithAliases(map[string]string{"RWD": "RandomWalkWithDrift"}))

	result, err := s.Select(context.Background(), priceTable(60), Options{})
	require.NoError(t, err)
	assert.Contains(t, result.Precision.Models(), "RandomWalkWithDrift")
	assert.Contains(t, result.Precision.Models(), "ETS")
	assert.NotContains(t, result.Precision.Models(), "AutoETS")
}

func TestSelectSetupFailures(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*fakeBackend)
		kind    SetupKind
		sentry  error
		message string
	}{
		{
			name:    "backend unavailable",
			mutate:  func(f *fakeBackend) { f.capsErr = errors.New("no module named statsforecast") },
			kind:    SetupUnavailable,
			sentry:  ErrBackendUnavailable,
			message: "Please update statsforecast to version 1.2.0 or higher.\n",
		},
		{
			name:    "missing model",
			mutate:  func(f *fakeBackend) { f.caps.Models = slices.DeleteFunc(f.caps.Models, func(m string) bool { return m == "MSTL" }) },
			kind:    SetupUnavailable,
			sentry:  models.ErrUnknownModel,
			message: "Please update statsforecast to version 1.2.0 or higher.\n",
		},
		{
			name:    "old version",
			mutate:  func(f *fakeBackend) { f.caps.Version = "1.1.0" },
			kind:    SetupVersion,
			sentry:  ErrBackendVersion,
			message: "Please update statsforecast to version 1.1.3 or higher.\n",
		},
		{
			name: "unexpected parameter",
			mutate: func(f *fakeBackend) {
				f.buildErr["SeasonalWindowAverage"] = &models.UnexpectedParamError{Model: "SeasonalWindowAverage", Param: "window_size"}
			},
			kind:    SetupVersion,
			sentry:  ErrBackendVersion,
			message: "Please update statsforecast to version 1.1.3 or higher.\n",
		},
		{
			name:    "unclassified",
			mutate:  func(f *fakeBackend) { f.buildErr["ETS"] = errors.New("out of memory") },
			kind:    SetupUnclassified,
			sentry:  ErrSetup,
			message: "out of memory\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := newFakeBackend()
			tt.mutate(backend)
			recorder := newFakeRecorder()

			var buf bytes.Buffer
			s := newTestSelector(&buf, WithBackend(backend), WithRecorder(recorder))

			result, err := s.Select(context.Background(), priceTable(60), Options{})
			require.NoError(t, err)
			require.NotNil(t, result)
			assert.True(t, result.Empty())
			_, fitted := result.BestFitted()
			assert.False(t, fitted)
			assert.False(t, result.OK())

			require.NotNil(t, result.SetupErr)
			assert.Equal(t, tt.kind, result.SetupErr.Kind)
			assert.ErrorIs(t, result.SetupErr, tt.sentry)
			assert.Equal(t, tt.message, buf.String())
			assert.Equal(t, 1, recorder.runs[metrics.StatusSetupError])
		})
	}
}

func TestSelectUnexpectedParamIsInspectable(t *testing.T) {
	backend := newFakeBackend()
	backend.buildErr["AutoARIMA"] = &models.UnexpectedParamError{Model: "AutoARIMA", Param: "season_length"}

	var buf bytes.Buffer
	result, err := newTestSelector(&buf, WithBackend(backend)).Select(context.Background(), priceTable(60), Options{})
	require.NoError(t, err)

	var unexpected *models.UnexpectedParamError
	require.ErrorAs(t, result.SetupErr, &unexpected)
	assert.Equal(t, "season_length", unexpected.Param)
}

func TestSelectErrors(t *testing.T) {
	var buf bytes.Buffer
	recorder := newFakeRecorder()
	s := newTestSelector(&buf, WithRecorder(recorder))
	ctx := context.Background()

	_, err := s.Select(ctx, priceTable(60), Options{TargetColumn: "volume"})
	assert.ErrorIs(t, err, timeseries.ErrColumnNotFound)

	_, err = s.Select(ctx, priceTable(20), Options{})
	assert.ErrorIs(t, err, ensemble.ErrTestSize)

	_, err = s.Select(ctx, priceTable(60), Options{StartWindow: 2})
	assert.ErrorIs(t, err, ErrInvalidOptions)

	irregular := priceTable(10)
	irregular.Time[5] = irregular.Time[5].Add(time.Hour)
	_, err = s.Select(ctx, irregular, Options{})
	assert.ErrorIs(t, err, timeseries.ErrNoFrequency)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = s.Select(cancelled, priceTable(60), Options{})
	assert.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, 5, recorder.runs[metrics.StatusError])
	assert.Empty(t, buf.String())
}
