package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg, "autoselect")

	r.RecordRun(StatusOK)
	r.RecordRun(StatusOK)
	r.RecordRun(StatusSetupError)
	r.IncFallback("ETS")
	r.RecordPrecision("AutoETS", 1.5)
	r.RecordSelected("AutoETS")
	r.ObserveFit("ETS", "forecast", 20*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.runs.WithLabelValues(StatusOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.runs.WithLabelValues(StatusSetupError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.fallbacks.WithLabelValues("ETS")))
	assert.Equal(t, 1.5, testutil.ToFloat64(r.precision.WithLabelValues("AutoETS")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.selected.WithLabelValues("AutoETS")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.fitTime))

	expected := `
# HELP autoselect_model_fallbacks_total Total number of folds where the fallback model replaced a candidate
# TYPE autoselect_model_fallbacks_total counter
autoselect_model_fallbacks_total{model="ETS"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "autoselect_model_fallbacks_total"))
}

func TestPrecisionLabels(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg, "autoselect")

	// Two runs on different targets share one series per model.
	r.RecordPrecision("AutoETS", 2)
	r.RecordPrecision("AutoETS", 1.25)

	expected := `
# HELP autoselect_model_mape_percent Backtest MAPE of each model in the last selection run
# TYPE autoselect_model_mape_percent gauge
autoselect_model_mape_percent{model="AutoETS"} 1.25
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "autoselect_model_mape_percent"))
}

func TestSeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry(), "a")
		New(prometheus.NewRegistry(), "a")
	})
}
