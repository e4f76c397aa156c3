package ensemble

import (
	"context"
	"fmt"

	"github.com/sartorproj/autoforecast/models"
	"github.com/sartorproj/autoforecast/timeseries"
)

// ForecastResult holds one column per candidate over the h future timestamps.
type ForecastResult struct {
	Table *timeseries.Table
}

// Forecast refits every candidate on the full series and predicts h steps.
// Fitted models are kept for Fitted.
func (e *Ensemble) Forecast(ctx context.Context, h int) (*ForecastResult, error) {
	if h < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrHorizon, h)
	}

	preds := make([][]float64, len(e.candidates))
	fitted := make([]models.Forecaster, len(e.candidates))

	g, gctx := e.group(ctx)
	for i, c := range e.candidates {
		i, c := i, c
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p, model, err := e.run(c, e.series, h, StageForecast)
			if err != nil {
				return fmt.Errorf("forecast: %w", err)
			}
			preds[i], fitted[i] = p, model

			event := e.logEvent().Str("model", c.Name)
			if d, ok := model.(models.Describer); ok {
				event = event.Str("fit", d.Describe())
			}
			event.Msg("refit done")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	last := e.series.Timestamps[e.series.Len()-1]
	table := timeseries.NewTable(e.freq.Range(last, h))
	for i, c := range e.candidates {
		if err := table.Set(c.Name, preds[i]); err != nil {
			return nil, err
		}
	}

	e.mu.Lock()
	for i, c := range e.candidates {
		e.fitted[c.Name] = fitted[i]
	}
	e.mu.Unlock()

	return &ForecastResult{Table: table}, nil
}
