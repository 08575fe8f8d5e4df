// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: Sparse VAR Estimation with Missing Data via Kalman Smoothing and ECM
// Class: 02-613 at Caregie Mellon University

package varutil

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Lag builds the VAR(p) regression design from Y (n x T).
// Returns:
//
//	Yt: n x (T-p), the series from time p+1 onward
//	X:  np x (T-p), block j (rows j*n .. (j+1)*n-1) is the series shifted by lag j+1
//
// so that Yt ≈ Psi X for an n x np coefficient matrix Psi.
func Lag(Y mat.Matrix, p int) (*mat.Dense, *mat.Dense, error) {
	n, T := Y.Dims()
	if p <= 0 || T <= p {
		return nil, nil, fmt.Errorf("%w: p = %d, T = %d", ErrInvalidLag, p, T)
	}

	Treg := T - p
	Yt := mat.NewDense(n, Treg, nil)
	X := mat.NewDense(n*p, Treg, nil)

	for t := 0; t < Treg; t++ {
		for i := 0; i < n; i++ {
			Yt.Set(i, t, Y.At(i, t+p))
		}
		// Lagged Y's: [ y_{t+p-1}; y_{t+p-2}; ...; y_{t} ]
		for j := 1; j <= p; j++ {
			src := t + p - j
			for i := 0; i < n; i++ {
				X.Set((j-1)*n+i, t, Y.At(i, src))
			}
		}
	}

	return Yt, X, nil
}

// LagPenalty returns the diagonal of the np x np lag-decaying penalty
// matrix: block i (lag i+1) equals (lambda/np) * beta^i * I_n.
func LagPenalty(n, p int, lambda, beta float64) *mat.DiagDense {
	np := n * p
	diag := make([]float64, np)
	w := lambda / float64(np)
	for i := 0; i < p; i++ {
		for k := 0; k < n; k++ {
			diag[i*n+k] = w
		}
		w *= beta
	}
	return mat.NewDiagDense(np, diag)
}
