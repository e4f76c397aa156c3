package stats

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ErrLengthMismatch is returned when actual and predicted values differ in length.
var ErrLengthMismatch = errors.New("stats: actual and predicted lengths differ")

func checkLengths(yTrue, yPred []float64) error {
	if len(yTrue) != len(yPred) {
		return fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(yTrue), len(yPred))
	}
	if len(yTrue) == 0 {
		return fmt.Errorf("%w: no observations", ErrLengthMismatch)
	}
	return nil
}

// MAPE returns the mean absolute percentage error, mean(|y - ŷ| / |y|) * 100.
// A zero actual yields +Inf (or NaN when the prediction is also exact).
func MAPE(yTrue, yPred []float64) (float64, error) {
	if err := checkLengths(yTrue, yPred); err != nil {
		return 0, err
	}
	ratios := make([]float64, len(yTrue))
	for i := range yTrue {
		ratios[i] = math.Abs(yTrue[i]-yPred[i]) / math.Abs(yTrue[i])
	}
	return stat.Mean(ratios, nil) * 100, nil
}

// MAE returns the mean absolute error.
func MAE(yTrue, yPred []float64) (float64, error) {
	if err := checkLengths(yTrue, yPred); err != nil {
		return 0, err
	}
	return floats.Distance(yTrue, yPred, 1) / float64(len(yTrue)), nil
}

// RMSE returns the root mean squared error.
func RMSE(yTrue, yPred []float64) (float64, error) {
	if err := checkLengths(yTrue, yPred); err != nil {
		return 0, err
	}
	d := floats.Distance(yTrue, yPred, 2)
	return d / math.Sqrt(float64(len(yTrue))), nil
}
