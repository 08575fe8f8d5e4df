// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: Sparse VAR Estimation with Missing Data via Kalman Smoothing and ECM
// Class: 02-613 at Caregie Mellon University

package ecm

import "fmt"

// Spec is the model specification and iteration budget of one run.
type Spec struct {
	// Lag order p
	Lags int
	// Overall penalty strength, >= 0
	Lambda float64
	// Mix between the L2 (0) and adaptive L1 (1) terms
	Alpha float64
	// Per-lag penalty growth, >= 1
	Beta float64

	// Relative change in penalized log-likelihood at which to stop
	Tol float64
	// Iteration budget, > 2
	MaxIter int
	// Iterations run before convergence is judged
	Prerun int
}

// DefaultSpec returns p=1, lambda=0.1, alpha=0.5, beta=1, tol=1e-5,
// max_iter=1000, prerun=2.
func DefaultSpec() Spec {
	return Spec{
		Lags:    1,
		Lambda:  0.1,
		Alpha:   0.5,
		Beta:    1,
		Tol:     1e-5,
		MaxIter: 1000,
		Prerun:  2,
	}
}

// Validate reports the first out-of-range field.
func (s Spec) Validate() error {
	switch {
	case s.Lags < 1:
		return fmt.Errorf("%w: lag order must be >= 1, got %d", ErrInvalidHyperparameter, s.Lags)
	case s.Beta < 1:
		return fmt.Errorf("%w: beta must be >= 1, got %g", ErrInvalidHyperparameter, s.Beta)
	case s.Alpha < 0 || s.Alpha > 1:
		return fmt.Errorf("%w: alpha must be in [0, 1], got %g", ErrInvalidHyperparameter, s.Alpha)
	case s.Lambda < 0:
		return fmt.Errorf("%w: lambda must be >= 0, got %g", ErrInvalidHyperparameter, s.Lambda)
	case s.Tol < 0:
		return fmt.Errorf("%w: tol must be >= 0, got %g", ErrInvalidHyperparameter, s.Tol)
	case s.MaxIter <= 2:
		return fmt.Errorf("%w: max_iter must be > 2, got %d", ErrInvalidHyperparameter, s.MaxIter)
	case s.Prerun < 0 || s.Prerun >= s.MaxIter:
		return fmt.Errorf("%w: prerun must be in [0, max_iter), got %d", ErrInvalidHyperparameter, s.Prerun)
	}
	return nil
}
