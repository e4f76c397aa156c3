package autoselect

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/sartorproj/autoforecast/ensemble"
	"github.com/sartorproj/autoforecast/stats"
	"github.com/sartorproj/autoforecast/timeseries"
)

// Score is the backtest MAPE of one model, in percent.
type Score struct {
	Model string  `json:"model"`
	MAPE  float64 `json:"mape"`
}

// PrecisionTable holds model scores sorted ascending. NaN scores sort last.
type PrecisionTable []Score

// Best returns the lowest score.
func (p PrecisionTable) Best() (Score, error) {
	if len(p) == 0 || math.IsNaN(p[0].MAPE) {
		return Score{}, ErrNoScore
	}
	return p[0], nil
}

// Models returns model names in table order.
func (p PrecisionTable) Models() []string {
	names := make([]string, len(p))
	for i, s := range p {
		names[i] = s.Model
	}
	return names
}

func compareScores(a, b Score) int {
	aNaN, bNaN := math.IsNaN(a.MAPE), math.IsNaN(b.MAPE)
	switch {
	case aNaN && bNaN:
		return 0
	case aNaN:
		return 1
	case bNaN:
		return -1
	}
	return cmp.Compare(a.MAPE, b.MAPE)
}

// ScoreModels computes the MAPE of each named column of a cross-validation
// table against its observed values and sorts the result. Ties keep the
// order of names.
func ScoreModels(backtest *timeseries.Table, names []string) (PrecisionTable, error) {
	actual, ok := backtest.Column(ensemble.ColumnY)
	if !ok {
		return nil, fmt.Errorf("%w: %q", timeseries.ErrColumnNotFound, ensemble.ColumnY)
	}

	table := make(PrecisionTable, 0, len(names))
	for _, name := range names {
		preds, ok := backtest.Column(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", timeseries.ErrColumnNotFound, name)
		}
		mape, err := stats.MAPE(actual, preds)
		if err != nil {
			return nil, fmt.Errorf("score %s: %w", name, err)
		}
		table = append(table, Score{Model: name, MAPE: mape})
	}
	slices.SortStableFunc(table, compareScores)
	return table, nil
}

// PrecisionFormat renders a MAPE cell. The best model is highlighted when
// color output is enabled.
func PrecisionFormat(bestModel, index string, val float64, useColor bool) string {
	if index == bestModel && useColor {
		return fmt.Sprintf("[#00AAFF]%.2f%% [/#00AAFF]", val)
	}
	return fmt.Sprintf("%.2f%%", val)
}

// SplitPoints returns the last training index and the size of the
// evaluation window for a series of n points.
func SplitPoints(n int, startWindow float64) (cutoff, testSize int) {
	cutoff = int(float64(n-1) * startWindow)
	return cutoff, n - cutoff
}
