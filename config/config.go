// Package config loads the YAML configuration shared by the CLI and the
// HTTP server.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"maps"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/sartorproj/autoforecast/autoselect"
	"github.com/sartorproj/autoforecast/console"
	"github.com/sartorproj/autoforecast/logging"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "AUTOSELECT_"

// Console color modes.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

var validate = validator.New()

type Config struct {
	Logging logging.Config `yaml:"logging"`
	Console struct {
		Color string `yaml:"color" default:"auto" validate:"oneof=auto always never"`
	} `yaml:"console"`
	Forecast autoselect.Options `yaml:"forecast"`
	Ensemble struct {
		Workers int  `yaml:"workers" validate:"min=0"`
		Verbose bool `yaml:"verbose"`
	} `yaml:"ensemble"`
	Metrics struct {
		Enabled   bool   `yaml:"enabled" default:"true"`
		Path      string `yaml:"path" default:"/metrics" validate:"startswith=/"`
		Namespace string `yaml:"namespace" default:"autoforecast" validate:"required"`
	} `yaml:"metrics"`
	Server struct {
		Host            string        `yaml:"host" default:"0.0.0.0"`
		Port            int           `yaml:"port" default:"8080" validate:"min=1,max=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"60s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	} `yaml:"server"`
	// Aliases renames backend model names for display. Nil keeps
	// autoselect.DefaultAliases.
	Aliases map[string]string `yaml:"aliases"`
}

// Default returns a Config with every default applied.
func Default() *Config {
	var c Config
	_ = defaults.Set(&c)
	return &c
}

// Load reads and parses a YAML configuration file over the defaults. An
// empty path yields the defaults.
func Load(path string) (*Config, error) {
	c := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads .env files into the process environment, reads the
// config from YAML and overrides it with AUTOSELECT_* variables. Missing
// .env files are ignored.
func LoadWithEnv(path string, envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env file %s: %w", f, err)
		}
	}

	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"LOG_LEVEL":     &c.Logging.Level,
		"LOG_FORMAT":    &c.Logging.Format,
		"LOG_OUTPUT":    &c.Logging.Output,
		"COLOR":         &c.Console.Color,
		"TARGET_COLUMN": &c.Forecast.TargetColumn,
		"SERVER_HOST":   &c.Server.Host,
	}
	for key, dst := range strs {
		if v := os.Getenv(EnvPrefix + key); v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"SEASONAL_PERIODS": &c.Forecast.SeasonalPeriods,
		"N_PREDICT":        &c.Forecast.NPredict,
		"FORECAST_HORIZON": &c.Forecast.ForecastHorizon,
		"WORKERS":          &c.Ensemble.Workers,
		"SERVER_PORT":      &c.Server.Port,
	}
	for key, dst := range ints {
		v := os.Getenv(EnvPrefix + key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
		}
		*dst = n
	}

	if v := os.Getenv(EnvPrefix + "START_WINDOW"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%sSTART_WINDOW: %w", EnvPrefix, err)
		}
		c.Forecast.StartWindow = f
	}
	if v := os.Getenv(EnvPrefix + "METRICS_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sMETRICS_ENABLED: %w", EnvPrefix, err)
		}
		c.Metrics.Enabled = b
	}
	if v := os.Getenv(EnvPrefix + "ALIASES"); v != "" {
		aliases, err := parseAliases(v)
		if err != nil {
			return err
		}
		c.Aliases = aliases
	}
	return nil
}

// parseAliases reads "ETS=AutoETS,CES=AutoCES".
func parseAliases(v string) (map[string]string, error) {
	out := make(map[string]string)
	for _, pair := range strings.Split(v, ",") {
		from, to, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || from == "" || to == "" {
			return nil, fmt.Errorf("%sALIASES: malformed pair %q", EnvPrefix, pair)
		}
		out[from] = to
	}
	return out, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := c.Forecast.Validate(); err != nil {
		return err
	}
	if err := validate.Struct(c); err != nil {
		return err
	}
	seen := make(map[string]string, len(c.Aliases))
	for from, to := range c.Aliases {
		if prev, ok := seen[to]; ok {
			return fmt.Errorf("aliases: %s and %s both map to %s", prev, from, to)
		}
		seen[to] = from
	}
	return nil
}

// ModelAliases returns the configured aliases or the selector defaults.
func (c *Config) ModelAliases() map[string]string {
	if c.Aliases == nil {
		return maps.Clone(autoselect.DefaultAliases)
	}
	return maps.Clone(c.Aliases)
}

// NewConsole creates a console on w honoring the color mode.
func (c *Config) NewConsole(w io.Writer) *console.Console {
	switch c.Console.Color {
	case ColorAlways:
		return console.New(w, true)
	case ColorNever:
		return console.New(w, false)
	default:
		return console.New(w, console.ColorSupported(w))
	}
}
