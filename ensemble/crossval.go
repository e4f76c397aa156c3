package ensemble

import (
	"context"
	"fmt"
	"time"

	"github.com/sartorproj/autoforecast/timeseries"
)

// CVResult holds rolling-origin cross-validation output. Table rows are
// ordered by window, then by step; Cutoffs[i] is the last training
// timestamp of row i.
type CVResult struct {
	Table   *timeseries.Table
	Cutoffs []time.Time
	Windows int
}

// Windows returns the number of cross-validation windows for a test window
// of testSize points, horizon h and the given step.
func Windows(testSize, h, step int) int {
	if h < 1 || step < 1 || testSize < h {
		return 0
	}
	return (testSize-h)/step + 1
}

// CrossValidation backtests every candidate over the last testSize points.
// Window w trains on at most inputSize points ending at index
// n-testSize+w*step-1 and predicts the following h points. inputSize <= 0
// uses every point before the cutoff.
func (e *Ensemble) CrossValidation(ctx context.Context, h, testSize, inputSize int) (*CVResult, error) {
	n := e.series.Len()
	if h < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrHorizon, h)
	}
	if testSize < h || testSize >= n {
		return nil, fmt.Errorf("%w: test size %d with horizon %d on %d observations", ErrTestSize, testSize, h, n)
	}
	if inputSize <= 0 || inputSize > n {
		inputSize = n
	}

	windows := Windows(testSize, h, e.step)
	ends := make([]int, windows)
	for w := range ends {
		ends[w] = n - testSize + w*e.step
	}

	preds := make([][][]float64, len(e.candidates))
	for i := range preds {
		preds[i] = make([][]float64, windows)
	}

	g, gctx := e.group(ctx)
	for i, c := range e.candidates {
		i, c := i, c
		for w, end := range ends {
			w, end := w, end
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				train := e.series.Slice(max(0, end-inputSize), end)
				p, _, err := e.run(c, train, h, StageCrossValidation)
				if err != nil {
					return fmt.Errorf("cross validation window %d: %w", w, err)
				}
				preds[i][w] = p
				e.logEvent().
					Str("model", c.Name).
					Int("window", w).
					Time("cutoff", e.series.Timestamps[end-1]).
					Msg("fold done")
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rows := windows * h
	index := make([]time.Time, 0, rows)
	cutoffs := make([]time.Time, 0, rows)
	actual := make([]float64, 0, rows)
	for _, end := range ends {
		for k := 0; k < h; k++ {
			index = append(index, e.series.Timestamps[end+k])
			cutoffs = append(cutoffs, e.series.Timestamps[end-1])
			actual = append(actual, e.series.Values[end+k])
		}
	}

	table := timeseries.NewTable(index)
	if err := table.Set(ColumnY, actual); err != nil {
		return nil, err
	}
	for i, c := range e.candidates {
		column := make([]float64, 0, rows)
		for w := range ends {
			column = append(column, preds[i][w]...)
		}
		if err := table.Set(c.Name, column); err != nil {
			return nil, err
		}
	}

	return &CVResult{Table: table, Cutoffs: cutoffs, Windows: windows}, nil
}
