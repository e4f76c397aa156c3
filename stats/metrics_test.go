package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMAPE(t *testing.T) {
	got, err := MAPE([]float64{100, 200, 400}, []float64{110, 190, 400})
	require.NoError(t, err)
	assert.InDelta(t, 5.0, got, 1e-12)

	got, err = MAPE([]float64{-50}, []float64{-40})
	require.NoError(t, err)
	assert.InDelta(t, 20.0, got, 1e-12)

	got, err = MAPE([]float64{0, 10}, []float64{1, 10})
	require.NoError(t, err)
	assert.True(t, math.IsInf(got, 1))

	_, err = MAPE([]float64{1, 2}, []float64{1})
	assert.ErrorIs(t, err, ErrLengthMismatch)

	_, err = MAPE(nil, nil)
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestMAEAndRMSE(t *testing.T) {
	yTrue := []float64{1, 2, 3}
	yPred := []float64{2, 2, 5}

	mae, err := MAE(yTrue, yPred)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, mae, 1e-12)

	rmse, err := RMSE(yTrue, yPred)
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt(5.0/3.0), rmse, 1e-12)

	_, err = RMSE(yTrue, yPred[:1])
	assert.ErrorIs(t, err, ErrLengthMismatch)
}
