// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: Sparse VAR Estimation with Missing Data via Kalman Smoothing and ECM
// Class: 02-613 at Caregie Mellon University

package ecm

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"enetvar/pkg/kalman"
	"enetvar/pkg/varutil"
)

// measurementNoise is the diagonal of R. It keeps the innovation
// covariance positive definite without adding measurable noise.
const measurementNoise = eps

// Problem holds the data and the fixed pieces of the state-space model.
// It is not modified by Step.
type Problem struct {
	// Observations, n x T, NaN marks a missing entry
	Y *mat.Dense
	// Model specification
	Spec Spec
	// Penalty matrix, np x np diagonal
	Gamma *mat.DiagDense
	// Measurement loading selecting the current observation from the state
	B *mat.Dense
	// Measurement noise floor
	R *mat.SymDense
}

// NewProblem validates spec and the data shape.
func NewProblem(Y mat.Matrix, spec Spec) (*Problem, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	n, T := Y.Dims()
	if n < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrTooFewSeries, n)
	}
	if T <= spec.Lags {
		return nil, fmt.Errorf("%w: T = %d, p = %d", ErrTooShort, T, spec.Lags)
	}

	np := n * spec.Lags
	m := np + n
	R := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		R.SetSym(i, i, measurementNoise)
	}

	return &Problem{
		Y:     mat.DenseCopyOf(Y),
		Spec:  spec,
		Gamma: Gamma(n, spec.Lags, spec.Lambda, spec.Beta),
		B:     varutil.SelectionMatrix(n, m),
		R:     R,
	}, nil
}

// Dims returns the number of series, the lag order and the sample length.
func (pr *Problem) Dims() (n, p, T int) {
	n, T = pr.Y.Dims()
	return n, pr.Spec.Lags, T
}

// State is carried from one iteration to the next.
type State struct {
	// Iterations completed
	Iter int

	Psi   *mat.Dense
	Sigma *mat.SymDense
	// Adaptive weights computed from Psi
	Phi *mat.Dense

	// Prior of the initial state
	X0 *mat.VecDense
	P0 *mat.SymDense

	// Penalized log-likelihood of the previous iteration
	PrevPenLogLik float64
}

// StepReport summarizes one iteration.
type StepReport struct {
	Iter            int
	LogLik          float64
	PenalizedLogLik float64
	// NaN while convergence is not being judged
	RelativeChange float64
	Converged      bool
}

// NewState builds the starting state from an initial VAR estimate. The
// initial state has zero mean and the stationary covariance of the
// extended companion form.
func NewState(pr *Problem, Psi *mat.Dense, Sigma *mat.SymDense) (State, error) {
	C, V, err := varutil.ExtendedCompanion(Psi, Sigma)
	if err != nil {
		return State{}, err
	}
	P0, err := varutil.Lyapunov(C, V)
	if err != nil {
		return State{}, fmt.Errorf("%w: initial covariance: %w", ErrNumerical, err)
	}
	m, _ := C.Dims()

	return State{
		Psi:           mat.DenseCopyOf(Psi),
		Sigma:         kalman.Symmetrize(Sigma),
		Phi:           AdaptiveWeights(Psi),
		X0:            mat.NewVecDense(m, nil),
		P0:            P0,
		PrevPenLogLik: math.Inf(-1),
	}, nil
}

// Model returns the state-space model implied by s.
func (pr *Problem) Model(s State) (*kalman.Model, error) {
	C, V, err := varutil.ExtendedCompanion(s.Psi, s.Sigma)
	if err != nil {
		return nil, err
	}
	return &kalman.Model{B: pr.B, R: pr.R, C: C, V: V, X0: s.X0, P0: s.P0}, nil
}

// Step runs one ECM iteration on s and returns the next state. When the
// iteration converges the parameters of s are returned unchanged.
func Step(s State, pr *Problem) (State, StepReport, error) {
	iter := s.Iter + 1
	n, p, T := pr.Dims()
	alpha := pr.Spec.Alpha
	rep := StepReport{Iter: iter, RelativeChange: math.NaN()}

	// 1. E-step
	md, err := pr.Model(s)
	if err != nil {
		return State{}, rep, err
	}
	res, err := kalman.Infer(pr.Y, md, kalman.Options{LogLik: true, LagOneCov: true})
	if err != nil {
		return State{}, rep, fmt.Errorf("%w: iteration %d: %w", ErrNumerical, iter, err)
	}
	rep.LogLik = res.LogLik

	// 2. Penalized log-likelihood at the current parameters
	pen, err := PenalizedLogLik(res.LogLik, s.Psi, s.Sigma, s.Phi, pr.Gamma, alpha)
	if err != nil {
		return State{}, rep, fmt.Errorf("iteration %d: %w", iter, err)
	}
	rep.PenalizedLogLik = pen

	// 3. Convergence
	if iter > pr.Spec.Prerun && iter > 1 {
		rep.RelativeChange = (pen - s.PrevPenLogLik) / (math.Abs(s.PrevPenLogLik) + eps)
		if rep.RelativeChange <= pr.Spec.Tol {
			rep.Converged = true
			s.Iter = iter
			s.PrevPenLogLik = pen
			return s, rep, nil
		}
	}

	next := State{Iter: iter, PrevPenLogLik: pen}

	// 4. Re-seed the initial state from the smoothed boundary
	next.X0 = mat.VecDenseCopyOf(res.InitialMean)
	next.P0 = kalman.Symmetrize(res.InitialCov)

	// 5. Sufficient statistics
	st := sufficientStats(res, n, n*p)

	// 6. Coefficients
	next.Psi, err = mStep(st, pr.Gamma, s.Phi, alpha)
	if err != nil {
		return State{}, rep, fmt.Errorf("iteration %d: %w", iter, err)
	}

	// 7. Residual covariance
	next.Sigma = sigmaStep(st, next.Psi, s.Phi, pr.Gamma, alpha, T)

	// 8. Weights for the next iteration
	next.Phi = AdaptiveWeights(next.Psi)

	return next, rep, nil
}
