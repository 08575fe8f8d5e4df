// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: Sparse VAR Estimation with Missing Data via Kalman Smoothing and ECM
// Class: 02-613 at Caregie Mellon University

// Package coorddescent fits an elastic-net penalized VAR by cyclic
// coordinate descent, one equation at a time. It supplies the starting
// point of the ECM estimator.
package coorddescent

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"enetvar/pkg/kalman"
	"enetvar/pkg/varutil"
)

// ErrInvalidInput is returned for mismatched designs or out-of-range
// hyperparameters.
var ErrInvalidInput = errors.New("coorddescent: invalid input")

// Estimate minimizes, for every row psi_i of Psi,
//
//	0.5 * sum_t (Yt_it - psi_i x_t)^2 + sum_j g_j (alpha |psi_ij| + (1-alpha)/2 psi_ij^2)
//
// where g is the lag-decaying penalty of varutil.LagPenalty. Yt is n x T'
// and X is np x T' as returned by varutil.Lag. Sigma is the residual
// covariance divided by T'.
func Estimate(Yt, X mat.Matrix, lambda, alpha, beta, tol float64, maxIter int) (*mat.Dense, *mat.SymDense, error) {
	n, Treg := Yt.Dims()
	np, Tx := X.Dims()
	switch {
	case n == 0 || Treg == 0:
		return nil, nil, fmt.Errorf("%w: empty response", ErrInvalidInput)
	case Tx != Treg:
		return nil, nil, fmt.Errorf("%w: Yt has %d columns, X has %d", ErrInvalidInput, Treg, Tx)
	case np%n != 0:
		return nil, nil, fmt.Errorf("%w: X has %d rows, not a multiple of %d", ErrInvalidInput, np, n)
	case lambda < 0 || alpha < 0 || alpha > 1 || beta < 1:
		return nil, nil, fmt.Errorf("%w: lambda=%g alpha=%g beta=%g", ErrInvalidInput, lambda, alpha, beta)
	case tol < 0 || maxIter < 1:
		return nil, nil, fmt.Errorf("%w: tol=%g maxIter=%d", ErrInvalidInput, tol, maxIter)
	}
	p := np / n
	gamma := varutil.LagPenalty(n, p, lambda, beta)

	// Gram matrices shared by every equation
	var xx, yx mat.Dense
	xx.Mul(X, X.T())  // np x np
	yx.Mul(Yt, X.T()) // n x np

	Psi := mat.NewDense(n, np, nil)
	for i := 0; i < n; i++ {
		fitEquation(Psi.RawRowView(i), yx.RawRowView(i), &xx, gamma, alpha, tol, maxIter)
	}

	// Residual covariance
	var U mat.Dense
	U.Mul(Psi, X)
	U.Sub(Yt, &U)
	var uut mat.Dense
	uut.Mul(&U, U.T())
	uut.Scale(1/float64(Treg), &uut)

	return Psi, kalman.Symmetrize(&uut), nil
}

// fitEquation runs coordinate descent on a single row of coefficients,
// in place. It stops when no coefficient moves by more than tol in a
// full sweep.
func fitEquation(psi, yx []float64, xx *mat.Dense, gamma *mat.DiagDense, alpha, tol float64, maxIter int) {
	np := len(psi)
	for iter := 0; iter < maxIter; iter++ {
		var moved float64
		for j := 0; j < np; j++ {
			// Partial residual correlation without coordinate j
			r := yx[j]
			for k := 0; k < np; k++ {
				if k != j {
					r -= psi[k] * xx.At(k, j)
				}
			}
			g := gamma.At(j, j)
			denom := xx.At(j, j) + g*(1-alpha)

			next := 0.0
			if denom > 0 {
				next = softThreshold(r, g*alpha) / denom
			}
			moved = math.Max(moved, math.Abs(next-psi[j]))
			psi[j] = next
		}
		if moved <= tol {
			return
		}
	}
}

// softThreshold returns sign(z) * max(|z| - t, 0).
func softThreshold(z, t float64) float64 {
	switch {
	case z > t:
		return z - t
	case z < -t:
		return z + t
	default:
		return 0
	}
}
