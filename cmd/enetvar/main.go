// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: Sparse VAR Estimation with Missing Data via Kalman Smoothing and ECM
// Class: 02-613 at Caregie Mellon University

// Command enetvar fits sparse elastic-net VAR models to multivariate series
// with missing values, or simulates series from a fitted or default model.
//
//	enetvar --input flu.csv --lags 2 --lambda 0.2 --output-dir out
//	enetvar --source duckdb --input flu.duckdb --table weekly --time-column week
//	enetvar --mode simulate --fit out/fit.gob.gz --sim-t 300 --sim-missing 0.1
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"enetvar/internal/config"
	"enetvar/internal/logging"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "enetvar:", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	// 1. Configuration
	fs := config.NewFlagSet("enetvar")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	cfg, err := config.Load(fs)
	if err != nil {
		return err
	}

	// 2. Logger tagged with the run id
	logger, err := logging.New(cfg.LogLevel, cfg.Dev)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	runID := uuid.NewString()
	logger = logger.With(zap.String("run_id", runID))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	switch cfg.Mode {
	case config.ModeSimulate:
		return runSimulate(cfg, logger)
	default:
		return runEstimate(ctx, cfg, runID, logger, out)
	}
}
