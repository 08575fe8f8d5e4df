// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: Sparse VAR Estimation with Missing Data via Kalman Smoothing and ECM
// Class: 02-613 at Caregie Mellon University

// Package config resolves the command line configuration.
// Precedence: flags > env (ENETVAR_*) > YAML file (--config) > defaults.
package config

import (
	"errors"
	"fmt"
	"strings"

	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"

	"enetvar/pkg/ecm"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid configuration")

const (
	ModeEstimate = "estimate"
	ModeSimulate = "simulate"

	SourceCSV    = "csv"
	SourceDuckDB = "duckdb"
)

// Config is the resolved configuration of one run.
type Config struct {
	Mode string

	// Input series
	Input      string
	Source     string
	Table      string
	TimeColumn string

	// Model
	Lags        int
	Lambda      float64
	Alpha       float64
	Beta        float64
	Tol         float64
	MaxIter     int
	Prerun      int
	Standardize bool

	// Outputs
	OutputDir      string
	ForecastSteps  int
	IRFHorizon     int
	BootstrapReps  int
	BootstrapAlpha float64

	// Simulation
	FitPath    string
	SimN       int
	SimT       int
	SimMissing float64
	Seed       uint64

	// Logging
	LogLevel string
	Dev      bool
	Progress bool
}

// flagBindings maps viper keys (= YAML keys, = env suffixes) to flag names.
var flagBindings = map[string]string{
	"mode":            "mode",
	"input":           "input",
	"source":          "source",
	"table":           "table",
	"time_column":     "time-column",
	"lags":            "lags",
	"lambda":          "lambda",
	"alpha":           "alpha",
	"beta":            "beta",
	"tol":             "tol",
	"max_iter":        "max-iter",
	"prerun":          "prerun",
	"standardize":     "standardize",
	"output_dir":      "output-dir",
	"forecast_steps":  "forecast-steps",
	"irf_horizon":     "irf-horizon",
	"bootstrap_reps":  "bootstrap-reps",
	"bootstrap_alpha": "bootstrap-alpha",
	"fit":             "fit",
	"sim_n":           "sim-n",
	"sim_t":           "sim-t",
	"sim_missing":     "sim-missing",
	"seed":            "seed",
	"log_level":       "log-level",
	"dev":             "dev",
	"progress":        "progress",
}

// NewFlagSet declares every command line flag. Flag defaults are not
// used; unset flags fall through to env, file and viper defaults.
func NewFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.String("config", "", "YAML configuration file")

	fs.String("mode", ModeEstimate, "estimate | simulate")
	fs.String("input", "", "input CSV file or DuckDB database")
	fs.String("source", SourceCSV, "csv | duckdb")
	fs.String("table", "", "DuckDB table holding one column per series")
	fs.String("time-column", "", "DuckDB column to order rows by and exclude from the series")

	fs.Int("lags", 1, "VAR lag order p")
	fs.Float64("lambda", 0.1, "penalty strength")
	fs.Float64("alpha", 0.5, "elastic-net mix, 0 = ridge, 1 = adaptive lasso")
	fs.Float64("beta", 1, "per-lag penalty growth (>= 1)")
	fs.Float64("tol", 1e-5, "relative penalized log-likelihood tolerance")
	fs.Int("max-iter", 1000, "ECM iteration budget")
	fs.Int("prerun", 2, "iterations before convergence is judged")
	fs.Bool("standardize", false, "standardize each series ignoring missing values")

	fs.String("output-dir", "out", "directory for CSV, YAML and fit outputs")
	fs.Int("forecast-steps", 10, "forecast horizon")
	fs.Int("irf-horizon", 12, "impulse response horizon")
	fs.Int("bootstrap-reps", 0, "bootstrap replications for IRF bands, 0 disables")
	fs.Float64("bootstrap-alpha", 0.05, "significance level of the IRF bands")

	fs.String("fit", "", "saved fit to simulate from")
	fs.Int("sim-n", 3, "number of simulated series without --fit")
	fs.Int("sim-t", 200, "simulated sample length")
	fs.Float64("sim-missing", 0, "probability of masking a simulated value")
	fs.Uint64("seed", 1, "random seed")

	fs.String("log-level", "info", "debug | info | warn | error")
	fs.Bool("dev", false, "human-readable console logs")
	fs.Bool("progress", true, "show a progress bar")
	return fs
}

// Load resolves the configuration from a parsed flag set and validates it.
func Load(fs *flag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// YAML file
	if fs != nil {
		if path, _ := fs.GetString("config"); path != "" {
			v.SetConfigFile(path)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	// Env
	v.SetEnvPrefix("ENETVAR")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	// Flags, only those set explicitly override lower layers
	if fs != nil {
		for key, name := range flagBindings {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	cfg := &Config{
		Mode:           strings.ToLower(v.GetString("mode")),
		Input:          v.GetString("input"),
		Source:         strings.ToLower(v.GetString("source")),
		Table:          v.GetString("table"),
		TimeColumn:     v.GetString("time_column"),
		Lags:           v.GetInt("lags"),
		Lambda:         v.GetFloat64("lambda"),
		Alpha:          v.GetFloat64("alpha"),
		Beta:           v.GetFloat64("beta"),
		Tol:            v.GetFloat64("tol"),
		MaxIter:        v.GetInt("max_iter"),
		Prerun:         v.GetInt("prerun"),
		Standardize:    v.GetBool("standardize"),
		OutputDir:      v.GetString("output_dir"),
		ForecastSteps:  v.GetInt("forecast_steps"),
		IRFHorizon:     v.GetInt("irf_horizon"),
		BootstrapReps:  v.GetInt("bootstrap_reps"),
		BootstrapAlpha: v.GetFloat64("bootstrap_alpha"),
		FitPath:        v.GetString("fit"),
		SimN:           v.GetInt("sim_n"),
		SimT:           v.GetInt("sim_t"),
		SimMissing:     v.GetFloat64("sim_missing"),
		Seed:           v.GetUint64("seed"),
		LogLevel:       v.GetString("log_level"),
		Dev:            v.GetBool("dev"),
		Progress:       v.GetBool("progress"),
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	spec := ecm.DefaultSpec()
	v.SetDefault("mode", ModeEstimate)
	v.SetDefault("source", SourceCSV)
	v.SetDefault("lags", spec.Lags)
	v.SetDefault("lambda", spec.Lambda)
	v.SetDefault("alpha", spec.Alpha)
	v.SetDefault("beta", spec.Beta)
	v.SetDefault("tol", spec.Tol)
	v.SetDefault("max_iter", spec.MaxIter)
	v.SetDefault("prerun", spec.Prerun)
	v.SetDefault("standardize", false)
	v.SetDefault("output_dir", "out")
	v.SetDefault("forecast_steps", 10)
	v.SetDefault("irf_horizon", 12)
	v.SetDefault("bootstrap_reps", 0)
	v.SetDefault("bootstrap_alpha", 0.05)
	v.SetDefault("sim_n", 3)
	v.SetDefault("sim_t", 200)
	v.SetDefault("sim_missing", 0.0)
	v.SetDefault("seed", 1)
	v.SetDefault("log_level", "info")
	v.SetDefault("dev", false)
	v.SetDefault("progress", true)
}

// Spec returns the estimator specification.
func (c *Config) Spec() ecm.Spec {
	return ecm.Spec{
		Lags:    c.Lags,
		Lambda:  c.Lambda,
		Alpha:   c.Alpha,
		Beta:    c.Beta,
		Tol:     c.Tol,
		MaxIter: c.MaxIter,
		Prerun:  c.Prerun,
	}
}

// Validate fails fast on a configuration that cannot run.
func Validate(cfg *Config) error {
	switch cfg.Mode {
	case ModeEstimate, ModeSimulate:
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidConfig, cfg.Mode)
	}

	if err := cfg.Spec().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if cfg.OutputDir == "" {
		return fmt.Errorf("%w: output directory is required", ErrInvalidConfig)
	}

	if cfg.Mode == ModeEstimate {
		if cfg.Input == "" {
			return fmt.Errorf("%w: input is required in estimate mode", ErrInvalidConfig)
		}
		switch cfg.Source {
		case SourceCSV:
		case SourceDuckDB:
			if cfg.Table == "" {
				return fmt.Errorf("%w: table is required for the duckdb source", ErrInvalidConfig)
			}
		default:
			return fmt.Errorf("%w: unknown source %q", ErrInvalidConfig, cfg.Source)
		}
		if cfg.ForecastSteps < 0 || cfg.IRFHorizon < 0 || cfg.BootstrapReps < 0 {
			return fmt.Errorf("%w: forecast steps, IRF horizon and bootstrap replications must be >= 0", ErrInvalidConfig)
		}
		if cfg.BootstrapReps > 0 && (cfg.BootstrapAlpha <= 0 || cfg.BootstrapAlpha >= 1) {
			return fmt.Errorf("%w: bootstrap alpha must be in (0, 1), got %g", ErrInvalidConfig, cfg.BootstrapAlpha)
		}
	}

	if cfg.Mode == ModeSimulate {
		if cfg.FitPath == "" && cfg.SimN < 2 {
			return fmt.Errorf("%w: sim-n must be >= 2, got %d", ErrInvalidConfig, cfg.SimN)
		}
		if cfg.SimT <= cfg.Lags {
			return fmt.Errorf("%w: sim-t must exceed the lag order, got %d", ErrInvalidConfig, cfg.SimT)
		}
		if cfg.SimMissing < 0 || cfg.SimMissing >= 1 {
			return fmt.Errorf("%w: sim-missing must be in [0, 1), got %g", ErrInvalidConfig, cfg.SimMissing)
		}
	}
	return nil
}
