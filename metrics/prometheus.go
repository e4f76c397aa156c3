// Package metrics records selector activity with Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Run statuses.
const (
	StatusOK         = "ok"
	StatusSetupError = "setup_error"
	StatusError      = "error"
)

// Recorder implements ensemble.Observer and the selector's run accounting.
type Recorder struct {
	runs      *prometheus.CounterVec
	fitTime   *prometheus.HistogramVec
	fallbacks *prometheus.CounterVec
	precision *prometheus.GaugeVec
	selected  *prometheus.CounterVec
}

// New creates a recorder registered on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer, namespace string) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Recorder{
		runs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "selections_total",
				Help:      "Total number of model selection runs by outcome",
			},
			[]string{"status"},
		),
		fitTime: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "model_fit_duration_seconds",
				Help:      "Duration of a single model fit and predict",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 9),
			},
			[]string{"model", "stage"},
		),
		fallbacks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "model_fallbacks_total",
				Help:      "Total number of folds where the fallback model replaced a candidate",
			},
			[]string{"model"},
		),
		precision: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "model_mape_percent",
				Help:      "Backtest MAPE of each model in the last selection run",
			},
			[]string{"model"},
		),
		selected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "best_model_total",
				Help:      "Number of times each model was selected",
			},
			[]string{"model"},
		),
	}
}

// RecordRun counts a selection run with the given status.
func (r *Recorder) RecordRun(status string) {
	r.runs.WithLabelValues(status).Inc()
}

// ObserveFit records the duration of one fit and predict.
func (r *Recorder) ObserveFit(model, stage string, d time.Duration) {
	r.fitTime.WithLabelValues(model, stage).Observe(d.Seconds())
}

// IncFallback counts a fallback substitution for model.
func (r *Recorder) IncFallback(model string) {
	r.fallbacks.WithLabelValues(model).Inc()
}

// RecordPrecision stores the MAPE of model in the last run.
func (r *Recorder) RecordPrecision(model string, mape float64) {
	r.precision.WithLabelValues(model).Set(mape)
}

// RecordSelected counts model as the winner of a run.
func (r *Recorder) RecordSelected(model string) {
	r.selected.WithLabelValues(model).Inc()
}
