// Command autoselect backtests an ensemble of statistical models on a price
// series and forecasts with the most accurate one.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/sartorproj/autoforecast/autoselect"
	"github.com/sartorproj/autoforecast/config"
	"github.com/sartorproj/autoforecast/logging"
	"github.com/sartorproj/autoforecast/metrics"
)

var (
	configFile string
	envFiles   []string

	cfg       *config.Config
	logger    zerolog.Logger
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:           "autoselect",
	Short:         "Automatic statistical model selection and forecasting",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadWithEnv(configFile, envFiles...)
		if err != nil {
			return err
		}
		logger, logCloser, err = logging.New(cfg.Logging)
		return err
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if logCloser != nil {
			return logCloser.Close()
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "YAML configuration file")
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", []string{".env"}, "dotenv files loaded before AUTOSELECT_* overrides")

	rootCmd.AddCommand(runCmd, serveCmd, modelsCmd)
}

// newSelector builds a selector from the loaded configuration.
func newSelector(out io.Writer, reg prometheus.Registerer) *autoselect.Selector {
	opts := []autoselect.Option{
		autoselect.WithConsole(cfg.NewConsole(out)),
		autoselect.WithLogger(logger),
		autoselect.WithAliases(cfg.ModelAliases()),
		autoselect.WithWorkers(cfg.Ensemble.Workers),
		autoselect.WithVerbose(cfg.Ensemble.Verbose),
	}
	if reg != nil && cfg.Metrics.Enabled {
		opts = append(opts, autoselect.WithRecorder(metrics.New(reg, cfg.Metrics.Namespace)))
	}
	return autoselect.New(opts...)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
