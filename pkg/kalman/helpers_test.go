// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: Sparse VAR Estimation with Missing Data via Kalman Smoothing and ECM
// Class: 02-613 at Caregie Mellon University

package kalman_test

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"enetvar/pkg/kalman"
)

// almostEqual compares floats with tolerance
func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

// requireMatClose fails the test if any entry of a and b differ by more than tol.
func requireMatClose(t *testing.T, want, got mat.Matrix, tol float64, msgAndArgs ...any) {
	t.Helper()
	wr, wc := want.Dims()
	gr, gc := got.Dims()
	require.Equal(t, wr, gr, msgAndArgs...)
	require.Equal(t, wc, gc, msgAndArgs...)
	for i := 0; i < wr; i++ {
		for j := 0; j < wc; j++ {
			if !almostEqual(want.At(i, j), got.At(i, j), tol) {
				require.Failf(t, "matrices differ", "entry (%d,%d): want %v, got %v. %v", i, j, want.At(i, j), got.At(i, j), msgAndArgs)
			}
		}
	}
}

// randomSPD returns A A' + shift*I for a random A.
func randomSPD(rng *rand.Rand, k int, shift float64) *mat.SymDense {
	a := mat.NewDense(k, k, nil)
	for i := 0; i < k; i++ {
		for j := 0; j < k; j++ {
			a.Set(i, j, rng.NormFloat64())
		}
	}
	s := mat.NewSymDense(k, nil)
	s.SymOuterK(1, a)
	for i := 0; i < k; i++ {
		s.SetSym(i, i, s.At(i, i)+shift)
	}
	return s
}

// randomModel returns a state-space model with full-rank noise everywhere.
func randomModel(rng *rand.Rand, n, m int) *kalman.Model {
	B := mat.NewDense(n, m, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < m; j++ {
			B.Set(i, j, rng.NormFloat64())
		}
	}
	C := mat.NewDense(m, m, nil)
	for i := 0; i < m; i++ {
		for j := 0; j < m; j++ {
			C.Set(i, j, 0.4*rng.NormFloat64()/math.Sqrt(float64(m)))
		}
	}
	x0 := mat.NewVecDense(m, nil)
	for i := 0; i < m; i++ {
		x0.SetVec(i, rng.NormFloat64())
	}
	return &kalman.Model{
		B:  B,
		R:  randomSPD(rng, n, 0.5),
		C:  C,
		V:  randomSPD(rng, m, 0.5),
		X0: x0,
		P0: randomSPD(rng, m, 1),
	}
}

func randomObs(rng *rand.Rand, n, T int) *mat.Dense {
	Y := mat.NewDense(n, T, nil)
	for i := 0; i < n; i++ {
		for t := 0; t < T; t++ {
			Y.Set(i, t, rng.NormFloat64())
		}
	}
	return Y
}

// requirePSD checks exact symmetry and non-negative eigenvalues.
func requirePSD(t *testing.T, s mat.Symmetric, tol float64, what string) {
	t.Helper()
	require.Zero(t, kalman.MaxAsymmetry(s), "%s not symmetric", what)
	var es mat.EigenSym
	require.True(t, es.Factorize(s, false), "%s eigen failed", what)
	for _, v := range es.Values(nil) {
		require.GreaterOrEqual(t, v, -tol, "%s has negative eigenvalue", what)
	}
}
