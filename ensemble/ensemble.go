package ensemble

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/sartorproj/autoforecast/models"
	"github.com/sartorproj/autoforecast/timeseries"
)

// ColumnY names the observed values column of a cross-validation table.
const ColumnY = "y"

var (
	// ErrNoCandidates is returned when an ensemble is built without models.
	ErrNoCandidates = errors.New("ensemble: no candidate models")
	// ErrDuplicateModel is returned when two candidates share a name.
	ErrDuplicateModel = errors.New("ensemble: duplicate model name")
	// ErrHorizon is returned when the horizon is not positive.
	ErrHorizon = errors.New("ensemble: horizon must be at least 1")
	// ErrTestSize is returned when the test window cannot hold one horizon
	// or leaves no training data.
	ErrTestSize = errors.New("ensemble: invalid test size")
	// ErrBadForecast is returned when a model returns the wrong number of
	// values or non-finite values.
	ErrBadForecast = errors.New("ensemble: model returned an invalid forecast")
	// ErrModelPanic wraps a panic raised inside a model.
	ErrModelPanic = errors.New("ensemble: model panicked")
)

// Stages reported to the Observer.
const (
	StageCrossValidation = "cross_validation"
	StageForecast        = "forecast"
)

// Observer receives per-model timings and fallback events.
type Observer interface {
	ObserveFit(model, stage string, d time.Duration)
	IncFallback(model string)
}

type nopObserver struct{}

func (nopObserver) ObserveFit(string, string, time.Duration) {}
func (nopObserver) IncFallback(string)                       {}

// Ensemble fits a fixed set of candidates on one series.
type Ensemble struct {
	series     *timeseries.Series
	candidates []models.Candidate
	fallback   *models.Candidate
	freq       timeseries.Frequency
	workers    int
	step       int
	verbose    bool
	logger     zerolog.Logger
	observer   Observer

	mu     sync.RWMutex
	fitted map[string]models.Forecaster
}

// Option configures an Ensemble.
type Option func(*Ensemble)

// WithFreq sets the sampling frequency instead of inferring it from the frame.
func WithFreq(freq timeseries.Frequency) Option {
	return func(e *Ensemble) {
		e.freq = freq
	}
}

// WithFallback sets the model substituted when a candidate fails.
func WithFallback(c models.Candidate) Option {
	return func(e *Ensemble) {
		e.fallback = &c
	}
}

// WithWorkers bounds the number of models fitted concurrently.
func WithWorkers(n int) Option {
	return func(e *Ensemble) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithStepSize sets the distance between consecutive cross-validation cutoffs.
func WithStepSize(n int) Option {
	return func(e *Ensemble) {
		if n > 0 {
			e.step = n
		}
	}
}

// WithVerbose logs every fold at info level instead of debug.
func WithVerbose(v bool) Option {
	return func(e *Ensemble) {
		e.verbose = v
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Ensemble) {
		e.logger = logger
	}
}

// WithObserver sets the receiver of fit timings and fallback events.
func WithObserver(o Observer) Option {
	return func(e *Ensemble) {
		if o != nil {
			e.observer = o
		}
	}
}

// New creates an ensemble over the single series held by frame.
func New(frame *timeseries.Frame, candidates []models.Candidate, opts ...Option) (*Ensemble, error) {
	if frame == nil || frame.Len() == 0 {
		return nil, timeseries.ErrEmptySeries
	}
	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}
	seen := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		if c.New == nil {
			return nil, fmt.Errorf("ensemble: candidate %q has no constructor", c.Name)
		}
		if seen[c.Name] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateModel, c.Name)
		}
		seen[c.Name] = true
	}

	series, err := frame.Series()
	if err != nil {
		return nil, fmt.Errorf("ensemble: %w", err)
	}

	e := &Ensemble{
		series:     series,
		candidates: slices.Clone(candidates),
		workers:    runtime.GOMAXPROCS(0),
		step:       1,
		logger:     zerolog.Nop(),
		observer:   nopObserver{},
		fitted:     make(map[string]models.Forecaster),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.freq.IsZero() {
		if series.Len() < 2 {
			return nil, fmt.Errorf("ensemble: %w", timeseries.ErrNoFrequency)
		}
		freq, err := timeseries.InferFrequency(series.Timestamps)
		if err != nil {
			return nil, fmt.Errorf("ensemble: %w", err)
		}
		e.freq = freq
	}
	series.Freq = e.freq
	return e, nil
}

// Models returns the candidate names in ensemble order.
func (e *Ensemble) Models() []string {
	names := make([]string, len(e.candidates))
	for i, c := range e.candidates {
		names[i] = c.Name
	}
	return names
}

// Freq returns the sampling frequency.
func (e *Ensemble) Freq() timeseries.Frequency {
	return e.freq
}

// Series returns the series the ensemble was built on.
func (e *Ensemble) Series() *timeseries.Series {
	return e.series
}

// Fitted returns the model fitted for name by the last Forecast call. When a
// candidate failed, the fallback model is returned in its place.
func (e *Ensemble) Fitted(name string) (models.Forecaster, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	m, ok := e.fitted[name]
	return m, ok
}

// fitPredict fits model on train and predicts h values.
func fitPredict(model models.Forecaster, train *timeseries.Series, h int) (preds []float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			preds, err = nil, fmt.Errorf("%w: %v", ErrModelPanic, r)
		}
	}()

	if err := model.Fit(train); err != nil {
		return nil, err
	}
	preds, err = model.Predict(h)
	if err != nil {
		return nil, err
	}
	if len(preds) != h {
		return nil, fmt.Errorf("%w: %d values for horizon %d", ErrBadForecast, len(preds), h)
	}
	for _, v := range preds {
		if !finiteValue(v) {
			return nil, fmt.Errorf("%w: %v", ErrBadForecast, v)
		}
	}
	return preds, nil
}

// run fits one candidate, substituting the fallback on failure.
func (e *Ensemble) run(c models.Candidate, train *timeseries.Series, h int, stage string) ([]float64, models.Forecaster, error) {
	start := time.Now()
	model := c.New()
	preds, err := fitPredict(model, train, h)
	e.observer.ObserveFit(c.Name, stage, time.Since(start))
	if err == nil {
		return preds, model, nil
	}
	if e.fallback == nil {
		return nil, nil, fmt.Errorf("%s: %w", c.Name, err)
	}

	e.logger.Debug().
		Err(err).
		Str("model", c.Name).
		Str("fallback", e.fallback.Name).
		Str("stage", stage).
		Msg("model failed, using fallback")
	e.observer.IncFallback(c.Name)

	fb := e.fallback.New()
	preds, fbErr := fitPredict(fb, train, h)
	if fbErr != nil {
		return nil, nil, fmt.Errorf("%s: %w (fallback %s: %v)", c.Name, err, e.fallback.Name, fbErr)
	}
	return preds, fb, nil
}

func (e *Ensemble) group(ctx context.Context) (*errgroup.Group, context.Context) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	return g, ctx
}

func (e *Ensemble) logEvent() *zerolog.Event {
	if e.verbose {
		return e.logger.Info()
	}
	return e.logger.Debug()
}

func finiteValue(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
