// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: Sparse VAR Estimation with Missing Data via Kalman Smoothing and ECM
// Class: 02-613 at Caregie Mellon University

package ecm

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"enetvar/pkg/varutil"
)

// eps is the float64 machine epsilon. It floors the adaptive weights and
// is the hard-threshold for coefficients.
const eps = 0x1p-52

// Gamma returns the penalty matrix blockdiag((lambda/np) beta^i I_n) for
// lags i = 0..p-1.
func Gamma(n, p int, lambda, beta float64) *mat.DiagDense {
	return varutil.LagPenalty(n, p, lambda, beta)
}

// AdaptiveWeights returns Phi = 1/(|Psi| + eps), elementwise.
func AdaptiveWeights(Psi mat.Matrix) *mat.Dense {
	var phi mat.Dense
	phi.Apply(func(_, _ int, v float64) float64 {
		return 1 / (math.Abs(v) + eps)
	}, Psi)
	return &phi
}

// blend returns (1-alpha) Psi + alpha Psi.*Phi.
func blend(Psi, Phi mat.Matrix, alpha float64) *mat.Dense {
	var w mat.Dense
	w.MulElem(Psi, Phi)
	w.Scale(alpha, &w)

	var l2 mat.Dense
	l2.Scale(1-alpha, Psi)
	w.Add(&w, &l2)
	return &w
}

// PenalizedLogLik returns
//
//	loglik - 0.5 tr(Sigma^-1 ((1-alpha) Psi + alpha Psi.*Phi) Gamma Psi')
//
// loglik is the filter's predictive log-likelihood. The result is the
// objective the loop monitors, not a bound on the complete-data likelihood.
func PenalizedLogLik(loglik float64, Psi mat.Matrix, Sigma mat.Symmetric, Phi mat.Matrix, gamma mat.Matrix, alpha float64) (float64, error) {
	var mg mat.Dense
	mg.Mul(blend(Psi, Phi, alpha), gamma)
	var mgp mat.Dense
	mgp.Mul(&mg, Psi.T())

	var chol mat.Cholesky
	if ok := chol.Factorize(Sigma); !ok {
		return math.NaN(), fmt.Errorf("%w: Sigma is not positive definite", ErrNumerical)
	}
	var s mat.Dense
	if err := chol.SolveTo(&s, &mgp); err != nil {
		return math.NaN(), fmt.Errorf("%w: penalty solve: %v", ErrNumerical, err)
	}
	return loglik - 0.5*mat.Trace(&s), nil
}
