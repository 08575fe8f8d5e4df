// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: Sparse VAR Estimation with Missing Data via Kalman Smoothing and ECM
// Class: 02-613 at Caregie Mellon University

package varutil

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Companion returns the VAR(1) form (C, V) of a VAR(p) with coefficients
// Psi (n x np) and residual covariance Sigma (n x n). C and V are np x np.
func Companion(Psi mat.Matrix, Sigma mat.Symmetric) (*mat.Dense, *mat.SymDense, error) {
	return companion(Psi, Sigma, 0)
}

// ExtendedCompanion is Companion with n extra tracking states appended, so
// that the state at time t is [y_t; y_{t-1}; ...; y_{t-p}]. C and V are
// (np+n) x (np+n).
func ExtendedCompanion(Psi mat.Matrix, Sigma mat.Symmetric) (*mat.Dense, *mat.SymDense, error) {
	n, _ := Psi.Dims()
	return companion(Psi, Sigma, n)
}

func companion(Psi mat.Matrix, Sigma mat.Symmetric, extra int) (*mat.Dense, *mat.SymDense, error) {
	n, np := Psi.Dims()
	if n == 0 || np%n != 0 {
		return nil, nil, fmt.Errorf("%w: Psi is %dx%d", ErrDimensionMismatch, n, np)
	}
	if Sigma.SymmetricDim() != n {
		return nil, nil, fmt.Errorf("%w: Sigma is %dx%d, want %dx%d", ErrDimensionMismatch, Sigma.SymmetricDim(), Sigma.SymmetricDim(), n, n)
	}

	m := np + extra
	C := mat.NewDense(m, m, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < np; j++ {
			C.Set(i, j, Psi.At(i, j))
		}
	}
	// Shift: block k+1 of the new state is block k of the old one
	for i := n; i < m; i++ {
		C.Set(i, i-n, 1)
	}

	V := mat.NewSymDense(m, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			V.SetSym(i, j, Sigma.At(i, j))
		}
	}

	return C, V, nil
}

// SelectionMatrix returns the n x m loading [I_n 0] that observes the
// first n states.
func SelectionMatrix(n, m int) *mat.Dense {
	B := mat.NewDense(n, m, nil)
	for i := 0; i < n; i++ {
		B.Set(i, i, 1)
	}
	return B
}
