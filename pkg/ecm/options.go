// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: Sparse VAR Estimation with Missing Data via Kalman Smoothing and ECM
// Class: 02-613 at Caregie Mellon University

package ecm

import (
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"enetvar/pkg/coorddescent"
)

// Initializer produces the starting (Psi, Sigma) from the mean-filled
// lagged design: Yt is n x T', X is np x T'.
type Initializer func(Yt, X mat.Matrix, lambda, alpha, beta, tol float64, maxIter int) (*mat.Dense, *mat.SymDense, error)

type options struct {
	logger   *zap.Logger
	progress func(StepReport)
	init     Initializer
}

// Option configures Estimate.
type Option func(*options)

func defaultOptions() options {
	return options{
		logger: zap.NewNop(),
		init:   coorddescent.Estimate,
	}
}

// WithLogger sets the logger. Iterations are logged at Info.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithProgress registers a callback invoked after every iteration.
func WithProgress(fn func(StepReport)) Option {
	return func(o *options) { o.progress = fn }
}

// WithInitializer replaces the coordinate-descent initializer.
func WithInitializer(fn Initializer) Option {
	return func(o *options) {
		if fn != nil {
			o.init = fn
		}
	}
}
