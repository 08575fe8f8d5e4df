// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: Sparse VAR Estimation with Missing Data via Kalman Smoothing and ECM
// Class: 02-613 at Caregie Mellon University

package varutil

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"enetvar/pkg/kalman"
)

// OLS fits Yt ≈ Psi X by least squares without a penalty.
// Yt: n x T' response, X: np x T' lagged predictors (see Lag).
// Returns Psi (n x np) and the ML residual covariance U U' / T'.
func OLS(Yt, X mat.Matrix) (*mat.Dense, *mat.SymDense, error) {
	n, Treg := Yt.Dims()
	np, Tx := X.Dims()
	if Tx != Treg {
		return nil, nil, fmt.Errorf("%w: Yt has %d columns, X has %d", ErrDimensionMismatch, Treg, Tx)
	}
	if Treg == 0 {
		return nil, nil, fmt.Errorf("%w: no observations", ErrDimensionMismatch)
	}

	// B' = (X X')^(-1) X Yt', B' is np x n
	var Bt mat.Dense

	// First try: normal equations
	var xxt mat.Dense
	xxt.Mul(X, X.T())

	var xxtInv mat.Dense
	xxtError := xxtInv.Inverse(&xxt)

	if xxtError == nil {
		var xy mat.Dense
		xy.Mul(X, Yt.T())
		Bt.Mul(&xxtInv, &xy)
	} else {
		// Fallback: X X' is singular or badly conditioned.
		// Minimum-norm least squares through the SVD of X'.
		var svd mat.SVD
		ok := svd.Factorize(X.T(), mat.SVDFullU|mat.SVDFullV)
		if !ok {
			return nil, nil, fmt.Errorf("OLS failed: X X' singular and SVD factorization failed: %v", xxtError)
		}

		rank := svd.Rank(1e-12)
		if rank == 0 {
			Bt = *mat.NewDense(np, n, nil)
		} else {
			svd.SolveTo(&Bt, Yt.T(), rank)
		}
	}

	Psi := mat.DenseCopyOf(Bt.T())

	// Residual covariance
	var U mat.Dense
	U.Mul(Psi, X)
	U.Sub(Yt, &U)

	var uut mat.Dense
	uut.Mul(&U, U.T())
	uut.Scale(1/float64(Treg), &uut)

	return Psi, kalman.Symmetrize(&uut), nil
}
