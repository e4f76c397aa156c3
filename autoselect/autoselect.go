package autoselect

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/mod/semver"

	"github.com/sartorproj/autoforecast/console"
	"github.com/sartorproj/autoforecast/ensemble"
	"github.com/sartorproj/autoforecast/logging"
	"github.com/sartorproj/autoforecast/metrics"
	"github.com/sartorproj/autoforecast/models"
	"github.com/sartorproj/autoforecast/timeseries"
)

// FallbackModel replaces a candidate that fails on a fold.
const FallbackModel = "Naive"

// CandidateModels lists the ensemble in scoring order. Ties in MAPE resolve
// to the earlier entry.
var CandidateModels = []string{
	"AutoARIMA", "ETS", "CES", "MSTL", "SeasonalNaive", "SeasonalWindowAverage", "RWD",
}

// DefaultAliases renames backend model names for display and scoring.
var DefaultAliases = map[string]string{
	"ETS": "AutoETS",
	"CES": "AutoCES",
}

var validate = validator.New()

// Options are the per-call selection parameters.
type Options struct {
	TargetColumn    string  `yaml:"target_column" json:"target_column" default:"close" validate:"required"`
	SeasonalPeriods int     `yaml:"seasonal_periods" json:"seasonal_periods" default:"7" validate:"min=1"`
	NPredict        int     `yaml:"n_predict" json:"n_predict" default:"5" validate:"min=1"`
	StartWindow     float64 `yaml:"start_window" json:"start_window" default:"0.85" validate:"gt=0,lt=1"`
	ForecastHorizon int     `yaml:"forecast_horizon" json:"forecast_horizon" default:"5" validate:"min=1"`
}

// DefaultOptions returns Options with every default applied.
func DefaultOptions() Options {
	var o Options
	defaults.MustSet(&o)
	return o
}

// Validate fills zero fields with defaults and checks ranges.
func (o *Options) Validate() error {
	if err := defaults.Set(o); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	if err := validate.Struct(o); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	return nil
}

// Recorder receives run outcomes, scores and per-fit timings.
type Recorder interface {
	ensemble.Observer
	RecordRun(status string)
	RecordPrecision(model string, mape float64)
	RecordSelected(model string)
}

// Result is the outcome of Select. On setup failure every field except
// SetupErr is zero.
type Result struct {
	// Series is the input target series.
	Series *timeseries.Series
	// Historical is the best model's backtest, one value per timestamp.
	Historical *timeseries.Series
	// Forecast is the best model's forecast.
	Forecast      *timeseries.Series
	BestPrecision float64
	Ensemble      *ensemble.Ensemble
	BestModel     string

	Precision PrecisionTable
	// Backtest and Forecasts hold every model's predictions under display names.
	Backtest  *timeseries.Table
	Forecasts *timeseries.Table

	SetupErr *SetupError

	bestName string
}

// OK reports whether a model was selected.
func (r *Result) OK() bool {
	return r != nil && r.SetupErr == nil && r.BestModel != ""
}

// BestFitted returns the winning model as refitted on the full series.
func (r *Result) BestFitted() (models.Forecaster, bool) {
	if !r.OK() || r.Ensemble == nil {
		return nil, false
	}
	return r.Ensemble.Fitted(r.bestName)
}

// Empty reports whether the result carries no series, ensemble or model.
func (r *Result) Empty() bool {
	return r.Series == nil && r.Historical == nil && r.Forecast == nil &&
		r.BestPrecision == 0 && r.Ensemble == nil && r.BestModel == ""
}

// Selector runs automatic model selection.
type Selector struct {
	backend  models.Backend
	console  *console.Console
	logger   zerolog.Logger
	recorder Recorder
	aliases  map[string]string
	workers  int
	verbose  bool
}

// Option configures a Selector.
type Option func(*Selector)

// WithBackend sets the model backend.
func WithBackend(b models.Backend) Option {
	return func(s *Selector) {
		s.backend = b
	}
}

// WithConsole sets where the ranking table and diagnostics are printed.
func WithConsole(c *console.Console) Option {
	return func(s *Selector) {
		s.console = c
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Selector) {
		s.logger = l
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Selector) {
		s.recorder = r
	}
}

// WithAliases replaces the display aliases.
func WithAliases(aliases map[string]string) Option {
	return func(s *Selector) {
		s.aliases = maps.Clone(aliases)
	}
}

// WithWorkers bounds concurrent model fits.
func WithWorkers(n int) Option {
	return func(s *Selector) {
		s.workers = n
	}
}

// WithVerbose logs every fold at info level.
func WithVerbose(v bool) Option {
	return func(s *Selector) {
		s.verbose = v
	}
}

// New creates a Selector using the built-in backend, an auto-detected
// console and no logging unless configured otherwise.
func New(opts ...Option) *Selector {
	s := &Selector{
		backend: models.Default(),
		logger:  zerolog.Nop(),
		aliases: maps.Clone(DefaultAliases),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.console == nil {
		s.console = console.Auto()
	}
	return s
}

// SelectSeries runs Select on a single series stored under opts.TargetColumn.
func (s *Selector) SelectSeries(ctx context.Context, series *timeseries.Series, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		s.recordRun(metrics.StatusError)
		return nil, err
	}
	table := timeseries.NewTable(series.Timestamps)
	if err := table.Set(opts.TargetColumn, series.Values); err != nil {
		s.recordRun(metrics.StatusError)
		return nil, err
	}
	return s.run(ctx, table, opts)
}

// Select backtests every candidate on the target column of data, forecasts
// opts.NPredict steps and returns the model with the lowest MAPE.
//
// Failures while probing the backend or building the ensemble are printed,
// logged and reported through Result.SetupErr with a nil error. Invalid input
// and failures during backtesting or forecasting are returned.
func (s *Selector) Select(ctx context.Context, data *timeseries.Table, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		s.recordRun(metrics.StatusError)
		return nil, err
	}
	return s.run(ctx, data, opts)
}

// run selects on validated options.
func (s *Selector) run(ctx context.Context, data *timeseries.Table, opts Options) (*Result, error) {
	logger := s.logger.With().
		Str("run_id", uuid.NewString()).
		Str("target", opts.TargetColumn).
		Logger()

	var result *Result
	err := logging.StartEnd(logger, "Select", func() error {
		var err error
		result, err = s.selectForecast(ctx, logger, data, opts)
		return err
	})

	switch {
	case err != nil:
		s.recordRun(metrics.StatusError)
	case result.SetupErr != nil:
		s.recordRun(metrics.StatusSetupError)
	default:
		s.recordRun(metrics.StatusOK)
	}
	return result, err
}

func (s *Selector) recordRun(status string) {
	if s.recorder != nil {
		s.recorder.RecordRun(status)
	}
}

func (s *Selector) selectForecast(ctx context.Context, logger zerolog.Logger, data *timeseries.Table, opts Options) (*Result, error) {
	if data == nil {
		return nil, timeseries.ErrEmptySeries
	}

	_, series, err := timeseries.GetSeries(data, opts.TargetColumn, false)
	if err != nil {
		return nil, fmt.Errorf("autoselect: %w", err)
	}
	frame := timeseries.ToFrame(series, opts.TargetColumn)

	candidates, fallback, setupErr := s.buildCandidates(opts.SeasonalPeriods)
	if setupErr != nil {
		return s.setupFailed(logger, setupErr), nil
	}

	ensembleOpts := []ensemble.Option{
		ensemble.WithFreq(series.Freq),
		ensemble.WithFallback(fallback),
		ensemble.WithLogger(logger),
		ensemble.WithVerbose(s.verbose),
		ensemble.WithWorkers(s.workers),
	}
	if s.recorder != nil {
		ensembleOpts = append(ensembleOpts, ensemble.WithObserver(s.recorder))
	}
	fcst, err := ensemble.New(frame, candidates, ensembleOpts...)
	if err != nil {
		return s.setupFailed(logger, &SetupError{Kind: SetupUnclassified, Backend: s.backendName(), Err: err}), nil
	}

	n := series.Len()
	_, testSize := SplitPoints(n, opts.StartWindow)
	inputSize := min(10*opts.ForecastHorizon, n)
	logger.Debug().
		Str("freq", series.Freq.String()).
		Int("observations", n).
		Int("test_size", testSize).
		Int("input_size", inputSize).
		Msg("backtesting")

	cv, err := fcst.CrossValidation(ctx, opts.ForecastHorizon, testSize, inputSize)
	if err != nil {
		return nil, fmt.Errorf("autoselect: cross validation: %w", err)
	}
	backtest, err := cv.Table.Rename(s.aliases)
	if err != nil {
		return nil, fmt.Errorf("autoselect: backtest aliases: %w", err)
	}

	fc, err := fcst.Forecast(ctx, opts.NPredict)
	if err != nil {
		return nil, fmt.Errorf("autoselect: forecast: %w", err)
	}
	forecasts, err := fc.Table.Rename(s.aliases)
	if err != nil {
		return nil, fmt.Errorf("autoselect: forecast aliases: %w", err)
	}

	names := make([]string, 0, len(candidates))
	for _, c := range candidates {
		names = append(names, s.alias(c.Name))
	}
	precision, err := ScoreModels(backtest, names)
	if err != nil {
		return nil, fmt.Errorf("autoselect: %w", err)
	}
	best, err := precision.Best()
	if err != nil {
		return nil, err
	}

	if err := s.printPrecision(precision, best.Model); err != nil {
		logger.Warn().Err(err).Msg("could not print precision table")
	}
	if s.recorder != nil {
		for _, score := range precision {
			s.recorder.RecordPrecision(score.Model, score.MAPE)
		}
		s.recorder.RecordSelected(best.Model)
	}
	logger.Info().
		Str("best_model", best.Model).
		Float64("mape", best.MAPE).
		Msg("model selected")

	forecast, err := bestSeries(forecasts, best.Model, opts.TargetColumn, series.Freq)
	if err != nil {
		return nil, fmt.Errorf("autoselect: forecast series: %w", err)
	}
	historical, err := bestSeries(backtest.DedupeFirst(), best.Model, opts.TargetColumn, series.Freq)
	if err != nil {
		return nil, fmt.Errorf("autoselect: historical series: %w", err)
	}

	return &Result{
		Series:        series,
		Historical:    historical,
		Forecast:      forecast,
		BestPrecision: best.MAPE,
		Ensemble:      fcst,
		BestModel:     best.Model,
		Precision:     precision,
		Backtest:      backtest,
		Forecasts:     forecasts,
		bestName:      s.modelName(candidates, best.Model),
	}, nil
}

func (s *Selector) alias(name string) string {
	if a, ok := s.aliases[name]; ok {
		return a
	}
	return name
}

// modelName maps a display name back to the candidate it aliases.
func (s *Selector) modelName(candidates []models.Candidate, display string) string {
	for _, c := range candidates {
		if s.alias(c.Name) == display {
			return c.Name
		}
	}
	return display
}

func (s *Selector) backendName() string {
	caps, err := s.backend.Capabilities()
	if err != nil {
		return ""
	}
	return caps.Name
}

// buildCandidates probes the backend and constructs the ensemble models.
func (s *Selector) buildCandidates(seasonLength int) ([]models.Candidate, models.Candidate, *SetupError) {
	var none models.Candidate
	if s.backend == nil {
		return nil, none, &SetupError{Kind: SetupUnavailable, Err: errors.New("no forecasting backend configured")}
	}

	caps, err := s.backend.Capabilities()
	if err != nil {
		return nil, none, &SetupError{Kind: SetupUnavailable, Err: err}
	}
	setupErr := func(kind SetupKind, err error) *SetupError {
		return &SetupError{Kind: kind, Backend: caps.Name, Err: err}
	}

	var missing []string
	for _, name := range append(slices.Clone(CandidateModels), FallbackModel) {
		if !caps.Supports(name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, none, setupErr(SetupUnavailable,
			fmt.Errorf("%w: %s %s lacks %s", models.ErrUnknownModel, caps.Name, caps.Version, strings.Join(missing, ", ")))
	}

	version := "v" + strings.TrimPrefix(caps.Version, "v")
	if !semver.IsValid(version) || semver.Compare(version, MinParamsVersion) < 0 {
		return nil, none, setupErr(SetupVersion,
			fmt.Errorf("%s version %q is older than %s", caps.Name, caps.Version, MinParamsVersion))
	}

	params := models.Params{models.ParamSeasonLength: seasonLength}
	specs := map[string]models.Params{
		"SeasonalWindowAverage": {models.ParamSeasonLength: seasonLength, models.ParamWindowSize: seasonLength},
		"RWD":                   nil,
	}

	candidates := make([]models.Candidate, 0, len(CandidateModels))
	for _, name := range CandidateModels {
		p, ok := specs[name]
		if !ok {
			p = params
		}
		c, err := s.backend.Build(name, p)
		if err != nil {
			return nil, none, setupErr(classifyBuildError(err), err)
		}
		candidates = append(candidates, c)
	}

	fallback, err := s.backend.Build(FallbackModel, nil)
	if err != nil {
		return nil, none, setupErr(classifyBuildError(err), err)
	}
	return candidates, fallback, nil
}

func classifyBuildError(err error) SetupKind {
	var unexpected *models.UnexpectedParamError
	switch {
	case errors.As(err, &unexpected):
		return SetupVersion
	case errors.Is(err, models.ErrUnknownModel):
		return SetupUnavailable
	default:
		return SetupUnclassified
	}
}

func (s *Selector) setupFailed(logger zerolog.Logger, err *SetupError) *Result {
	s.console.Print(err.Message())
	logger.Error().Err(err).Str("kind", err.Kind.String()).Msg("forecast setup failed")
	return &Result{SetupErr: err}
}

func (s *Selector) printPrecision(precision PrecisionTable, best string) error {
	rows := make([][]string, len(precision))
	for i, score := range precision {
		rows[i] = []string{PrecisionFormat(best, score.Model, score.MAPE, s.console.UseColor())}
	}
	s.console.Print("")
	return s.console.PrintTable(console.Table{
		Title:     fmt.Sprintf("Performance per model.\nBest model: [#00AAFF]%s[/#00AAFF]", best),
		IndexName: "Model",
		Headers:   []string{"MAPE"},
		Index:     precision.Models(),
		Rows:      rows,
		ShowIndex: true,
	})
}

// bestSeries projects the winning model's column out of table and stores it
// under target. Other models' columns are dropped first, so a target named
// after another model cannot shadow the winner.
func bestSeries(table *timeseries.Table, best, target string, freq timeseries.Frequency) (*timeseries.Series, error) {
	winner, err := table.Select(best)
	if err != nil {
		return nil, err
	}
	winner, err = winner.Rename(map[string]string{best: target})
	if err != nil {
		return nil, err
	}
	return seriesFrom(winner, target, freq)
}

// seriesFrom rebuilds a typed series from a table column. Tables with a
// single row keep the frequency of the input series.
func seriesFrom(table *timeseries.Table, column string, freq timeseries.Frequency) (*timeseries.Series, error) {
	if table.Len() >= 2 {
		_, s, err := timeseries.GetSeries(table, column, false)
		return s, err
	}
	values, ok := table.Column(column)
	if !ok {
		return nil, fmt.Errorf("%w: %q", timeseries.ErrColumnNotFound, column)
	}
	s, err := timeseries.NewWithTimestamps(column, slices.Clone(table.Time), slices.Clone(values))
	if err != nil {
		return nil, err
	}
	s.Freq = freq
	return s, nil
}
