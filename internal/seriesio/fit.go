// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: Sparse VAR Estimation with Missing Data via Kalman Smoothing and ECM
// Class: 02-613 at Caregie Mellon University

package seriesio

import (
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"os"

	"gonum.org/v1/gonum/mat"

	"enetvar/pkg/ecm"
	"enetvar/pkg/varutil"
)

// Fit is a fitted model together with the names of its series.
type Fit struct {
	RunID    string
	VarNames []string
	Result   *ecm.Result
}

// fitRecord is the on-disk form of a Fit. gob cannot encode the gonum
// matrix types directly, so matrices are stored as row-major slices.
type fitRecord struct {
	RunID    string
	VarNames []string
	Spec     ecm.Spec
	N, P, T  int

	Psi, Sigma         []float64
	PsiInit, SigmaInit []float64
	R, X0, P0          []float64

	Converged       bool
	Iterations      int
	RelativeChange  float64
	PenalizedLogLik []float64
}

func flatten(m mat.Matrix) []float64 {
	r, c := m.Dims()
	out := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out = append(out, m.At(i, j))
		}
	}
	return out
}

func symFrom(k int, data []float64) (*mat.SymDense, error) {
	if len(data) != k*k {
		return nil, fmt.Errorf("symmetric matrix: want %d entries, got %d", k*k, len(data))
	}
	return mat.NewSymDense(k, append([]float64(nil), data...)), nil
}

func denseFrom(r, c int, data []float64) (*mat.Dense, error) {
	if len(data) != r*c {
		return nil, fmt.Errorf("matrix: want %d entries, got %d", r*c, len(data))
	}
	return mat.NewDense(r, c, append([]float64(nil), data...)), nil
}

// SaveFit writes a gzip-compressed gob encoding of fit to path.
func SaveFit(path string, fit *Fit) error {
	res := fit.Result
	if res == nil || res.Psi == nil {
		return ecm.ErrNotEstimated
	}
	n, p := res.Dims()
	rec := fitRecord{
		RunID:           fit.RunID,
		VarNames:        fit.VarNames,
		Spec:            res.Spec,
		N:               n,
		P:               p,
		T:               res.T,
		Psi:             flatten(res.Psi),
		Sigma:           flatten(res.Sigma),
		R:               flatten(res.R),
		X0:              flatten(res.X0),
		P0:              flatten(res.P0),
		Converged:       res.Converged,
		Iterations:      res.Iterations,
		RelativeChange:  res.RelativeChange,
		PenalizedLogLik: res.PenalizedLogLik,
	}
	if res.PsiInit != nil && res.SigmaInit != nil {
		rec.PsiInit = flatten(res.PsiInit)
		rec.SigmaInit = flatten(res.SigmaInit)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	zw := gzip.NewWriter(f)
	if err := gob.NewEncoder(zw).Encode(&rec); err != nil {
		return fmt.Errorf("encode fit: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("compress fit: %w", err)
	}
	return f.Close()
}

// LoadFit reads a fit written by SaveFit and rebuilds its state-space model.
func LoadFit(path string) (*Fit, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("decompress %s: %w", path, err)
	}
	defer zr.Close()

	var rec fitRecord
	if err := gob.NewDecoder(zr).Decode(&rec); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	if rec.N < 1 || rec.P < 1 {
		return nil, fmt.Errorf("decode %s: invalid dimensions n=%d p=%d", path, rec.N, rec.P)
	}
	n, np := rec.N, rec.N*rec.P
	m := np + n
	res := &ecm.Result{
		Spec:            rec.Spec,
		Converged:       rec.Converged,
		Iterations:      rec.Iterations,
		RelativeChange:  rec.RelativeChange,
		PenalizedLogLik: rec.PenalizedLogLik,
		T:               rec.T,
	}
	if res.Psi, err = denseFrom(n, np, rec.Psi); err != nil {
		return nil, fmt.Errorf("Psi: %w", err)
	}
	if res.Sigma, err = symFrom(n, rec.Sigma); err != nil {
		return nil, fmt.Errorf("Sigma: %w", err)
	}
	if res.R, err = symFrom(n, rec.R); err != nil {
		return nil, fmt.Errorf("R: %w", err)
	}
	if res.P0, err = symFrom(m, rec.P0); err != nil {
		return nil, fmt.Errorf("P0: %w", err)
	}
	if len(rec.X0) != m {
		return nil, fmt.Errorf("X0: want %d entries, got %d", m, len(rec.X0))
	}
	res.X0 = mat.NewVecDense(m, rec.X0)
	if rec.PsiInit != nil {
		if res.PsiInit, err = denseFrom(n, np, rec.PsiInit); err != nil {
			return nil, fmt.Errorf("PsiInit: %w", err)
		}
		if res.SigmaInit, err = symFrom(n, rec.SigmaInit); err != nil {
			return nil, fmt.Errorf("SigmaInit: %w", err)
		}
	}

	res.C, res.V, err = varutil.ExtendedCompanion(res.Psi, res.Sigma)
	if err != nil {
		return nil, err
	}
	res.B = varutil.SelectionMatrix(n, m)

	return &Fit{RunID: rec.RunID, VarNames: rec.VarNames, Result: res}, nil
}
