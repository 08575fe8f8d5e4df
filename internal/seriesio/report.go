// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: Sparse VAR Estimation with Missing Data via Kalman Smoothing and ECM
// Class: 02-613 at Caregie Mellon University

package seriesio

import (
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"enetvar/pkg/ecm"
)

// Report summarizes a run in YAML.
type Report struct {
	RunID     string    `yaml:"run_id"`
	CreatedAt time.Time `yaml:"created_at"`
	Input     string    `yaml:"input,omitempty"`

	Series  []string `yaml:"series"`
	T       int      `yaml:"T"`
	Missing int      `yaml:"missing"`

	Model ReportModel `yaml:"model"`
	Fit   ReportFit   `yaml:"fit"`

	Network []ReportEdge `yaml:"network"`
}

// ReportModel is the model specification part of a Report.
type ReportModel struct {
	Lags    int     `yaml:"lags"`
	Lambda  float64 `yaml:"lambda"`
	Alpha   float64 `yaml:"alpha"`
	Beta    float64 `yaml:"beta"`
	Tol     float64 `yaml:"tol"`
	MaxIter int     `yaml:"max_iter"`
	Prerun  int     `yaml:"prerun"`
}

// ReportFit is the estimation outcome part of a Report.
type ReportFit struct {
	Converged       bool      `yaml:"converged"`
	Iterations      int       `yaml:"iterations"`
	RelativeChange  *float64  `yaml:"relative_change"`
	PenalizedLogLik *float64  `yaml:"penalized_loglik"`
	Nonzero         int       `yaml:"nonzero_coefficients"`
	Coefficients    int       `yaml:"coefficients"`
	SigmaDiag       []float64 `yaml:"sigma_diag"`
}

// ReportEdge is one link of the sparsity network.
type ReportEdge struct {
	Cause  string  `yaml:"cause"`
	Effect string  `yaml:"effect"`
	Lags   []int   `yaml:"lags,flow"`
	Weight float64 `yaml:"weight"`
}

// finite returns nil for NaN so the field is written as null.
func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// NewReport builds the report of a fitted result.
func NewReport(runID string, ts *TimeSeries, res *ecm.Result) *Report {
	n, _ := res.Dims()
	rep := &Report{
		RunID:     runID,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
		Series:    ts.VarNames,
		T:         res.T,
		Missing:   ts.Missing(),
		Model: ReportModel{
			Lags:    res.Spec.Lags,
			Lambda:  res.Spec.Lambda,
			Alpha:   res.Spec.Alpha,
			Beta:    res.Spec.Beta,
			Tol:     res.Spec.Tol,
			MaxIter: res.Spec.MaxIter,
			Prerun:  res.Spec.Prerun,
		},
		Fit: ReportFit{
			Converged:      res.Converged,
			Iterations:     res.Iterations,
			RelativeChange: finite(res.RelativeChange),
		},
	}
	if k := len(res.PenalizedLogLik); k > 0 {
		rep.Fit.PenalizedLogLik = finite(res.PenalizedLogLik[k-1])
	}

	r, c := res.Psi.Dims()
	rep.Fit.Coefficients = r * c
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if res.Psi.At(i, j) != 0 {
				rep.Fit.Nonzero++
			}
		}
	}
	for i := 0; i < n; i++ {
		rep.Fit.SigmaDiag = append(rep.Fit.SigmaDiag, res.Sigma.At(i, i))
	}

	for _, e := range res.Network() {
		rep.Network = append(rep.Network, ReportEdge{
			Cause:  nameOf(ts.VarNames, e.Cause),
			Effect: nameOf(ts.VarNames, e.Effect),
			Lags:   e.Lags,
			Weight: e.Weight,
		})
	}
	return rep
}

// WriteReport writes rep to path as YAML.
func WriteReport(path string, rep *Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	if err := enc.Encode(rep); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return f.Close()
}

// ReadReport reads a report written by WriteReport.
func ReadReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rep Report
	if err := yaml.Unmarshal(data, &rep); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &rep, nil
}
