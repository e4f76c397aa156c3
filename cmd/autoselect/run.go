package main

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sartorproj/autoforecast/arima"
	"github.com/sartorproj/autoforecast/autoselect"
	"github.com/sartorproj/autoforecast/console"
	"github.com/sartorproj/autoforecast/models"
	"github.com/sartorproj/autoforecast/timeseries"
)

// Report is the JSON export of a selection run. Non-finite scores are
// omitted.
type Report struct {
	File          string               `json:"file"`
	Target        string               `json:"target"`
	Freq          string               `json:"freq"`
	NObs          int                  `json:"n_obs"`
	BestModel     string               `json:"best_model"`
	BestFit       string               `json:"best_fit,omitempty"`
	BestPrecision *float64             `json:"best_precision"`
	Precision     map[string]float64   `json:"precision"`
	Diagnostics   *Diagnostics         `json:"diagnostics,omitempty"`
	ForecastDates []string             `json:"forecast_dates"`
	Forecasts     map[string][]float64 `json:"forecasts"`
}

// Diagnostics summarizes the residuals of an ARIMA winner.
type Diagnostics struct {
	Order        string   `json:"order"`
	AIC          *float64 `json:"aic"`
	Variance     *float64 `json:"sigma2"`
	RMSE         *float64 `json:"rmse"`
	LjungBoxQ    *float64 `json:"ljung_box_q,omitempty"`
	LjungBoxP    *float64 `json:"ljung_box_p,omitempty"`
	ResidualLags []int    `json:"residual_lags"`
}

var runFlags struct {
	file            string
	dateColumn      string
	target          string
	seasonalPeriods int
	nPredict        int
	startWindow     float64
	horizon         int
	jsonOut         string
	csvOut          string
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Select the best model for a CSV price series and forecast",
	Long: `Loads a CSV with a date column and a target column, backtests every
candidate model, prints the MAPE ranking and the best model's forecast.`,
	Example: "  autoselect run --file prices.csv --target close --n-predict 10",
	RunE:    runSelect,
}

func init() {
	f := runCmd.Flags()
	f.StringVarP(&runFlags.file, "file", "f", "", "CSV file with a header row")
	f.StringVar(&runFlags.dateColumn, "date-column", "", "date column (default: ds, date, Date or timestamp)")
	f.StringVarP(&runFlags.target, "target", "t", "", "target column (overrides config)")
	f.IntVar(&runFlags.seasonalPeriods, "seasonal-periods", 0, "season length (overrides config)")
	f.IntVarP(&runFlags.nPredict, "n-predict", "n", 0, "forecast steps (overrides config)")
	f.Float64Var(&runFlags.startWindow, "start-window", 0, "share of the series before the first backtest cutoff (overrides config)")
	f.IntVar(&runFlags.horizon, "horizon", 0, "backtest horizon (overrides config)")
	f.StringVar(&runFlags.jsonOut, "json", "", "write a JSON report to this path")
	f.StringVar(&runFlags.csvOut, "csv", "", "write every model's forecast to this CSV path")
	_ = runCmd.MarkFlagRequired("file")
}

func runSelect(cmd *cobra.Command, args []string) error {
	opts := cfg.Forecast
	if runFlags.target != "" {
		opts.TargetColumn = runFlags.target
	}
	if runFlags.seasonalPeriods > 0 {
		opts.SeasonalPeriods = runFlags.seasonalPeriods
	}
	if runFlags.nPredict > 0 {
		opts.NPredict = runFlags.nPredict
	}
	if runFlags.startWindow > 0 {
		opts.StartWindow = runFlags.startWindow
	}
	if runFlags.horizon > 0 {
		opts.ForecastHorizon = runFlags.horizon
	}

	csvOpts := timeseries.DefaultCSVOptions()
	csvOpts.DateColumn = runFlags.dateColumn
	table, err := timeseries.LoadCSV(runFlags.file, csvOpts)
	if err != nil {
		return fmt.Errorf("load %s: %w", runFlags.file, err)
	}

	out := cmd.OutOrStdout()
	result, err := newSelector(out, nil).Select(cmd.Context(), table, opts)
	if err != nil {
		return err
	}
	if result.SetupErr != nil {
		return result.SetupErr
	}

	con := cfg.NewConsole(out)
	if err := printForecast(con, result); err != nil {
		return err
	}

	if runFlags.jsonOut != "" {
		if err := writeReport(runFlags.jsonOut, newReport(runFlags.file, result)); err != nil {
			return err
		}
		logger.Info().Str("path", runFlags.jsonOut).Msg("report written")
	}
	if runFlags.csvOut != "" {
		f, err := os.Create(runFlags.csvOut)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := timeseries.WriteCSV(f, result.Forecasts); err != nil {
			return fmt.Errorf("write %s: %w", runFlags.csvOut, err)
		}
	}
	return nil
}

func printForecast(con *console.Console, result *autoselect.Result) error {
	index := make([]string, result.Forecast.Len())
	rows := make([][]string, result.Forecast.Len())
	for i, ts := range result.Forecast.Timestamps {
		index[i] = formatDate(ts)
		rows[i] = []string{fmt.Sprintf("%.2f", result.Forecast.Values[i])}
	}
	con.Print("")
	return con.PrintTable(console.Table{
		Title:     fmt.Sprintf("[bold]%s forecast[/bold] (%s)", result.Forecast.Name, result.BestModel),
		IndexName: "Date",
		Headers:   []string{result.Forecast.Name},
		Index:     index,
		Rows:      rows,
		ShowIndex: true,
	})
}

func newReport(file string, result *autoselect.Result) Report {
	r := Report{
		File:          file,
		Target:        result.Series.Name,
		Freq:          result.Series.Freq.String(),
		NObs:          result.Series.Len(),
		BestModel:     result.BestModel,
		BestPrecision: finite(result.BestPrecision),
		Precision:     make(map[string]float64, len(result.Precision)),
		Forecasts:     make(map[string][]float64),
	}
	for _, s := range result.Precision {
		if v := finite(s.MAPE); v != nil {
			r.Precision[s.Model] = *v
		}
	}
	if fitted, ok := result.BestFitted(); ok {
		if d, ok := fitted.(models.Describer); ok {
			r.BestFit = d.Describe()
		}
		if s, ok := fitted.(models.Summarizer); ok {
			r.Diagnostics = newDiagnostics(s.Summary())
		}
	}
	for _, ts := range result.Forecasts.Time {
		r.ForecastDates = append(r.ForecastDates, formatDate(ts))
	}
	for _, col := range result.Forecasts.Columns {
		values, _ := result.Forecasts.Column(col)
		r.Forecasts[col] = values
	}
	return r
}

func newDiagnostics(summary *arima.Summary) *Diagnostics {
	if summary == nil {
		return nil
	}
	d := &Diagnostics{
		Order:        summary.Order.String(),
		AIC:          finite(summary.AIC),
		Variance:     finite(summary.Variance),
		RMSE:         finite(summary.RMSE),
		ResidualLags: summary.ResidualLags,
	}
	if lb := summary.LjungBox; lb != nil {
		d.LjungBoxQ = finite(lb.Statistic)
		d.LjungBoxP = finite(lb.PValue)
	}
	return d
}

// finite returns nil for NaN and Inf, which encoding/json rejects.
func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func writeReport(path string, r Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func formatDate(ts time.Time) string {
	if ts.Hour() == 0 && ts.Minute() == 0 && ts.Second() == 0 {
		return ts.Format("2006-01-02")
	}
	return ts.Format(time.RFC3339)
}
