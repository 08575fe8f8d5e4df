// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: Sparse VAR Estimation with Missing Data via Kalman Smoothing and ECM
// Class: 02-613 at Caregie Mellon University

package kalman

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Model holds the parameters of a linear Gaussian state-space model
//
//	y_t = B x_t + e_t,      e_t ~ N(0, R)
//	x_t = C x_{t-1} + u_t,  u_t ~ N(0, V)
//	x_0 ~ N(X0, P0)
//
// The filter and smoother only read a Model, they never modify it.
type Model struct {
	// Measurement loading (n x m)
	B *mat.Dense
	// Measurement noise covariance (n x n)
	R *mat.SymDense
	// State transition (m x m)
	C *mat.Dense
	// State innovation covariance (m x m), usually singular
	V *mat.SymDense
	// Prior mean of the initial state (m)
	X0 *mat.VecDense
	// Prior covariance of the initial state (m x m)
	P0 *mat.SymDense
}

// Options selects the optional outputs of a pass.
type Options struct {
	// Accumulate the innovation log-likelihood
	LogLik bool
	// Compute the lag-one smoothed cross-covariance
	LagOneCov bool
}

// Result holds the output of a filter pass and, once Smooth has run, of
// the smoother pass. Slice index k refers to time k+1; the t=0 boundary
// of the smoother lives in InitialMean and InitialCov.
type Result struct {
	// Distribution of state t given data through t-1
	Predicted    []*mat.VecDense
	PredictedCov []*mat.SymDense

	// Distribution of state t given data through t
	Filtered    []*mat.VecDense
	FilteredCov []*mat.SymDense

	// One-step-ahead innovations and their covariance, after masking
	Innovation    []*mat.VecDense
	InnovationCov []*mat.SymDense

	// Sum of the Gaussian log-densities of the innovations (no 2*pi constant).
	// Zero unless Options.LogLik was set.
	LogLik float64

	// Distribution of state t given all data
	Smoothed    []*mat.VecDense
	SmoothedCov []*mat.SymDense

	// Smoothed distribution of the initial state x_0
	InitialMean *mat.VecDense
	InitialCov  *mat.SymDense

	// LagOneCov[k] = Cov(x_{k+1}, x_k | all data), where x_0 is the initial
	// state. Nil unless Options.LagOneCov was set.
	LagOneCov []*mat.Dense

	model *Model
	opts  Options
	// (I - K_T B_T) C Pf_{T-1}, seeds the lag-one recursion
	lagOneSeed *mat.Dense
}

// Len returns the number of time steps covered by the result.
func (r *Result) Len() int { return len(r.Filtered) }

// Dims returns the number of observed series n and the state dimension m.
func (md *Model) Dims() (n, m int) {
	return md.B.Dims()
}

// Validate checks that all parameters are present and of matching size.
func (md *Model) Validate() error {
	if md == nil || md.B == nil || md.R == nil || md.C == nil || md.V == nil || md.X0 == nil || md.P0 == nil {
		return fmt.Errorf("%w: model parameters not provided", ErrDimensionMismatch)
	}

	n, m := md.B.Dims()
	if md.R.SymmetricDim() != n {
		return fmt.Errorf("%w: R is %dx%d, want %dx%d", ErrDimensionMismatch, md.R.SymmetricDim(), md.R.SymmetricDim(), n, n)
	}
	if r, c := md.C.Dims(); r != m || c != m {
		return fmt.Errorf("%w: C is %dx%d, want %dx%d", ErrDimensionMismatch, r, c, m, m)
	}
	if md.V.SymmetricDim() != m {
		return fmt.Errorf("%w: V is %dx%d, want %dx%d", ErrDimensionMismatch, md.V.SymmetricDim(), md.V.SymmetricDim(), m, m)
	}
	if md.X0.Len() != m {
		return fmt.Errorf("%w: X0 has length %d, want %d", ErrDimensionMismatch, md.X0.Len(), m)
	}
	if md.P0.SymmetricDim() != m {
		return fmt.Errorf("%w: P0 is %dx%d, want %dx%d", ErrDimensionMismatch, md.P0.SymmetricDim(), md.P0.SymmetricDim(), m, m)
	}
	return nil
}
