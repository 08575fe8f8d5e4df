// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: Sparse VAR Estimation with Missing Data via Kalman Smoothing and ECM
// Class: 02-613 at Caregie Mellon University

package ecm

import (
	"fmt"
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"enetvar/pkg/kalman"
	"enetvar/pkg/varutil"
)

// Result is a fitted sparse VAR together with the state-space model it
// was estimated through.
type Result struct {
	Spec Spec

	// State-space model at the final iterate
	B  *mat.Dense
	R  *mat.SymDense
	C  *mat.Dense
	V  *mat.SymDense
	X0 *mat.VecDense
	P0 *mat.SymDense

	// VAR coefficients [A_1 ... A_p] (n x np) and residual covariance
	Psi   *mat.Dense
	Sigma *mat.SymDense

	// Initializer output
	PsiInit   *mat.Dense
	SigmaInit *mat.SymDense

	// Converged is false when the iteration budget ran out
	Converged      bool
	Iterations     int
	RelativeChange float64
	// Penalized log-likelihood at every iteration
	PenalizedLogLik []float64

	// Sample length the model was fitted on
	T int
}

// Estimate fits an elastic-net VAR(spec.Lags) to Y (n x T, NaN marks a
// missing entry). Non-convergence is not an error; check Result.Converged.
func Estimate(Y mat.Matrix, spec Spec, opts ...Option) (*Result, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	pr, err := NewProblem(Y, spec)
	if err != nil {
		return nil, err
	}
	n, p, T := pr.Dims()
	log := o.logger.With(zap.String("component", "ecm"))

	log.Info("starting estimation",
		zap.Int("n", n),
		zap.Int("T", T),
		zap.Int("p", p),
		zap.Float64("lambda", spec.Lambda),
		zap.Float64("alpha", spec.Alpha),
		zap.Float64("beta", spec.Beta),
		zap.Int("missing", varutil.CountMissing(pr.Y)),
	)

	// 1. Mean-fill and lag
	filled, err := varutil.Interpolate(pr.Y)
	if err != nil {
		return nil, fmt.Errorf("interpolate: %w", err)
	}
	Yt, X, err := varutil.Lag(filled, p)
	if err != nil {
		return nil, fmt.Errorf("lag: %w", err)
	}

	// 2. Initial estimate
	PsiInit, SigmaInit, err := o.init(Yt, X, spec.Lambda, spec.Alpha, spec.Beta, spec.Tol, spec.MaxIter)
	if err != nil {
		return nil, fmt.Errorf("initializer: %w", err)
	}
	log.Debug("initialized",
		zap.Float64("psi_norm", mat.Norm(PsiInit, 2)),
		zap.Float64("sigma_trace", mat.Trace(SigmaInit)),
	)

	// 3. Starting state
	state, err := NewState(pr, PsiInit, SigmaInit)
	if err != nil {
		return nil, err
	}

	// 4. Iterate
	out := &Result{
		Spec:           spec,
		PsiInit:        mat.DenseCopyOf(PsiInit),
		SigmaInit:      kalman.Symmetrize(SigmaInit),
		RelativeChange: math.NaN(),
		T:              T,
	}
	for state.Iter < spec.MaxIter {
		next, rep, err := Step(state, pr)
		if err != nil {
			log.Error("iteration failed", zap.Int("iter", state.Iter+1), zap.Error(err))
			return nil, err
		}
		state = next

		out.PenalizedLogLik = append(out.PenalizedLogLik, rep.PenalizedLogLik)
		out.RelativeChange = rep.RelativeChange
		log.Info("iteration",
			zap.Int("iter", rep.Iter),
			zap.Float64("penalized_loglik", rep.PenalizedLogLik),
			zap.Float64("rel_change", rep.RelativeChange),
		)
		if o.progress != nil {
			o.progress(rep)
		}
		if rep.Converged {
			out.Converged = true
			break
		}
	}
	out.Iterations = state.Iter

	if out.Converged {
		log.Info("converged", zap.Int("iterations", out.Iterations))
	} else {
		log.Warn("iteration budget exhausted",
			zap.Int("max_iter", spec.MaxIter),
			zap.Float64("rel_change", out.RelativeChange),
		)
	}

	// 5. Final cleanup
	state.Psi = thresholdDense(state.Psi)
	state.Sigma = thresholdSym(state.Sigma)

	md, err := pr.Model(state)
	if err != nil {
		return nil, err
	}
	out.B, out.R, out.C, out.V, out.X0, out.P0 = md.B, md.R, md.C, md.V, md.X0, md.P0
	out.Psi, out.Sigma = state.Psi, state.Sigma

	return out, nil
}

func thresholdDense(a *mat.Dense) *mat.Dense {
	var out mat.Dense
	out.Apply(func(_, _ int, v float64) float64 {
		if math.Abs(v) < eps {
			return 0
		}
		return v
	}, a)
	return &out
}

func thresholdSym(a *mat.SymDense) *mat.SymDense {
	k := a.SymmetricDim()
	out := mat.NewSymDense(k, nil)
	for i := 0; i < k; i++ {
		for j := i; j < k; j++ {
			if v := a.At(i, j); math.Abs(v) >= eps {
				out.SetSym(i, j, v)
			}
		}
	}
	return out
}
