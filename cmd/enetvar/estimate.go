// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: Sparse VAR Estimation with Missing Data via Kalman Smoothing and ECM
// Class: 02-613 at Caregie Mellon University

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"enetvar/internal/config"
	"enetvar/internal/seriesio"
	"enetvar/pkg/ecm"
	"enetvar/pkg/varutil"
)

// grangerAlpha is the significance level reported for Granger tests.
const grangerAlpha = 0.05

func loadSeries(ctx context.Context, cfg *config.Config) (*seriesio.TimeSeries, error) {
	if cfg.Source == config.SourceDuckDB {
		reader := seriesio.NewDuckDBReader(cfg.Input)
		if err := reader.Connect(); err != nil {
			return nil, err
		}
		defer reader.Close()
		return reader.LoadSeries(ctx, cfg.Table, cfg.TimeColumn)
	}
	return seriesio.LoadCSVToTimeSeries(cfg.Input, cfg.TimeColumn)
}

func runEstimate(ctx context.Context, cfg *config.Config, runID string, logger *zap.Logger, out io.Writer) error {
	outPath := func(name string) string { return filepath.Join(cfg.OutputDir, name) }

	// 1. Load series
	ts, err := loadSeries(ctx, cfg)
	if err != nil {
		return fmt.Errorf("load series: %w", err)
	}
	T, n := ts.Dims()
	logger.Info("loaded series",
		zap.String("input", cfg.Input),
		zap.Int("T", T),
		zap.Int("n", n),
		zap.Strings("series", ts.VarNames),
		zap.Int("missing", ts.Missing()),
	)

	// 2. Estimator input is n x T
	Y := ts.Series()
	if cfg.Standardize {
		if Y, err = varutil.Standardize(Y); err != nil {
			return fmt.Errorf("standardize: %w", err)
		}
	}

	// 3. Estimate
	opts := []ecm.Option{ecm.WithLogger(logger)}
	var bar *progressbar.ProgressBar
	if cfg.Progress {
		bar = progressbar.NewOptions(cfg.MaxIter,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("ECM"),
			progressbar.OptionShowCount(),
		)
		opts = append(opts, ecm.WithProgress(func(rep ecm.StepReport) {
			_ = bar.Add(1)
			bar.Describe(fmt.Sprintf("ECM %.4f", rep.PenalizedLogLik))
		}))
	}
	res, err := ecm.Estimate(Y, cfg.Spec(), opts...)
	if bar != nil {
		_ = bar.Finish()
		fmt.Fprintln(os.Stderr)
	}
	if err != nil {
		return fmt.Errorf("estimate: %w", err)
	}

	// 4. Summary
	seriesio.Summary(out, res, ts)
	network := res.Network()
	seriesio.PrintNetwork(out, network, ts.VarNames)

	if err := seriesio.WriteCoefficientsCSV(outPath("coefficients.csv"), res.Coefficients(), ts.VarNames); err != nil {
		return err
	}
	if err := seriesio.WriteMatrixCSV(outPath("sigma.csv"), res.Sigma, ts.VarNames); err != nil {
		return err
	}
	if err := seriesio.WriteNetworkCSV(outPath("network.csv"), network, ts.VarNames); err != nil {
		return err
	}

	// 5. Unpenalized Granger tests on the mean-filled series
	filled, err := varutil.Interpolate(Y)
	if err != nil {
		return fmt.Errorf("interpolate: %w", err)
	}
	if gc, err := varutil.GrangerMatrix(filled, cfg.Lags); err != nil {
		logger.Warn("skipping granger tests", zap.Error(err))
	} else {
		seriesio.PrintGrangerCausality(out, gc, ts.VarNames, grangerAlpha)
		if err := seriesio.WriteGrangerCSV(outPath("granger.csv"), gc, ts.VarNames, grangerAlpha); err != nil {
			return err
		}
	}

	// 6. Forecast
	if cfg.ForecastSteps > 0 {
		mean, se, err := res.Forecast(Y, cfg.ForecastSteps)
		if err != nil {
			return fmt.Errorf("forecast: %w", err)
		}
		seriesio.PrintForecast(out, mean, se, ts.VarNames)
		if err := seriesio.WriteForecastCSV(outPath("forecast.csv"), mean, se, ts.VarNames); err != nil {
			return err
		}
	}

	// 7. Impulse responses of the first series to every shock
	if cfg.IRFHorizon > 0 {
		irf, err := res.IRF(cfg.IRFHorizon, 0)
		if err != nil {
			return fmt.Errorf("irf: %w", err)
		}
		seriesio.PrintIRF(out, irf, ts.VarNames, 0)

		analysis, err := res.RunIRFAnalysis(0, cfg.IRFHorizon)
		if err != nil {
			return fmt.Errorf("irf analysis: %w", err)
		}
		if err := seriesio.WriteIRFAnalysisCSV(outPath("irf.csv"), analysis, ts.VarNames); err != nil {
			return err
		}

		// 8. Bootstrap bands
		if cfg.BootstrapReps > 0 {
			logger.Info("running bootstrap", zap.Int("replications", cfg.BootstrapReps))
			bands, err := res.BootstrapIRF(ecm.BootstrapOptions{
				NReplications: cfg.BootstrapReps,
				Horizon:       cfg.IRFHorizon,
				Alpha:         cfg.BootstrapAlpha,
				Seed:          cfg.Seed,
			})
			if err != nil {
				return fmt.Errorf("bootstrap irf: %w", err)
			}
			if err := seriesio.WriteBootstrapIRFCSV(outPath("bootstrap_irf.csv"), bands, ts.VarNames); err != nil {
				return err
			}
		}
	}

	// 9. Report and fit
	rep := seriesio.NewReport(runID, ts, res)
	rep.Input = cfg.Input
	if err := seriesio.WriteReport(outPath("report.yaml"), rep); err != nil {
		return err
	}
	fit := &seriesio.Fit{RunID: runID, VarNames: ts.VarNames, Result: res}
	if err := seriesio.SaveFit(outPath("fit.gob.gz"), fit); err != nil {
		return err
	}

	logger.Info("outputs written", zap.String("dir", cfg.OutputDir))
	return nil
}
