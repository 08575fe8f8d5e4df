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

// Dims returns the number of series and the lag order.
func (r *Result) Dims() (n, p int) {
	if r == nil || r.Psi == nil {
		return 0, 0
	}
	n, np := r.Psi.Dims()
	return n, np / n
}

// Coefficients splits Psi into the per-lag matrices A_1 ... A_p (each n x n).
func (r *Result) Coefficients() []*mat.Dense {
	n, p := r.Dims()
	A := make([]*mat.Dense, p)
	for l := 0; l < p; l++ {
		A[l] = mat.DenseCopyOf(r.Psi.Slice(0, n, l*n, (l+1)*n))
	}
	return A
}

// Forecast filters the history Y (n x T, NaN allowed) under the fitted
// model, starting from its stationary distribution, and projects the last
// filtered state steps periods ahead.
// Returns the forecast means and standard errors, both n x steps.
func (r *Result) Forecast(Y mat.Matrix, steps int) (*mat.Dense, *mat.Dense, error) {
	if r == nil || r.Psi == nil {
		return nil, nil, ErrNotEstimated
	}
	if steps <= 0 {
		return nil, nil, fmt.Errorf("steps must be > 0, got %d", steps)
	}
	n, _ := r.Dims()
	if rows, _ := Y.Dims(); rows != n {
		return nil, nil, fmt.Errorf("history has %d series, model has %d", rows, n)
	}

	// 1. Stationary prior
	P0, err := varutil.Lyapunov(r.C, r.V)
	if err != nil {
		return nil, nil, fmt.Errorf("stationary covariance: %w", err)
	}
	m, _ := r.C.Dims()
	md := &kalman.Model{B: r.B, R: r.R, C: r.C, V: r.V, X0: mat.NewVecDense(m, nil), P0: P0}

	// 2. Filter the history
	res, err := kalman.Filter(Y, md, kalman.Options{})
	if err != nil {
		return nil, nil, fmt.Errorf("filter history: %w", err)
	}
	T := res.Len()
	x := mat.VecDenseCopyOf(res.Filtered[T-1])
	var P mat.Symmetric = res.FilteredCov[T-1]

	// 3. Project
	mean := mat.NewDense(n, steps, nil)
	se := mat.NewDense(n, steps, nil)
	for h := 0; h < steps; h++ {
		xp, pp := project(r.C, r.V, x, P)
		x, P = xp, pp
		for i := 0; i < n; i++ {
			mean.Set(i, h, x.AtVec(i))
			se.Set(i, h, math.Sqrt(math.Max(pp.At(i, i), 0)))
		}
	}
	return mean, se, nil
}

// project returns C x and sym(C P C' + V).
func project(C mat.Matrix, V mat.Symmetric, x mat.Vector, P mat.Symmetric) (*mat.VecDense, *mat.SymDense) {
	m, _ := C.Dims()
	xp := mat.NewVecDense(m, nil)
	xp.MulVec(C, x)

	var cp, cpc mat.Dense
	cp.Mul(C, P)
	cpc.Mul(&cp, C.T())
	cpc.Add(&cpc, V)
	return xp, kalman.Symmetrize(&cpc)
}

// IRF computes orthogonalized impulse responses to a one-standard-deviation
// shock in series shockIndex.
// horizon: number of periods (h = 0, ..., horizon-1)
// Returns: horizon x n matrix, row h is the response of all series at h
func (r *Result) IRF(horizon int, shockIndex int) (*mat.Dense, error) {
	if r == nil || r.Psi == nil {
		return nil, ErrNotEstimated
	}
	if horizon <= 0 {
		return nil, fmt.Errorf("horizon must be > 0")
	}
	K, p := r.Dims()
	if shockIndex < 0 || shockIndex >= K {
		return nil, fmt.Errorf("shockIndex must be between 0 and %d", K-1)
	}
	A := r.Coefficients()

	// Impact vector: column of the Cholesky factor of Sigma
	shock := make([]float64, K)
	var chol mat.Cholesky
	if r.Sigma != nil && chol.Factorize(r.Sigma) {
		var L mat.TriDense
		chol.LTo(&L)
		for i := 0; i < K; i++ {
			shock[i] = L.At(i, shockIndex)
		}
	} else {
		// Sigma not positive definite, unit shock
		shock[shockIndex] = 1.0
	}

	// Moving-average coefficients, Theta_0 = I
	Theta := make([]*mat.Dense, horizon)
	Idata := make([]float64, K*K)
	for i := 0; i < K; i++ {
		Idata[i*K+i] = 1.0
	}
	Theta[0] = mat.NewDense(K, K, Idata)

	for h := 1; h < horizon; h++ {
		M := mat.NewDense(K, K, nil)
		maxLag := p
		if h < p {
			maxLag = h
		}
		for j := 1; j <= maxLag; j++ {
			var tmp mat.Dense
			tmp.Mul(A[j-1], Theta[h-j]) // A_j * Theta_{h-j}
			M.Add(M, &tmp)
		}
		Theta[h] = M
	}

	irf := mat.NewDense(horizon, K, nil)
	shockVec := mat.NewVecDense(K, shock)
	for h := 0; h < horizon; h++ {
		var resp mat.VecDense
		resp.MulVec(Theta[h], shockVec)
		irf.SetRow(h, resp.RawVector().Data)
	}
	return irf, nil
}

// RunIRFAnalysis shocks every series in turn and collects the response of
// series varIndex.
// Returns: map[shockIndex] = response of varIndex over the horizon
func (r *Result) RunIRFAnalysis(varIndex int, horizon int) (map[int][]float64, error) {
	K, _ := r.Dims()
	if K == 0 {
		return nil, ErrNotEstimated
	}
	if varIndex < 0 || varIndex >= K {
		return nil, fmt.Errorf("varIndex must be between 0 and %d", K-1)
	}

	results := make(map[int][]float64, K)
	for shockIdx := 0; shockIdx < K; shockIdx++ {
		irfMat, err := r.IRF(horizon, shockIdx)
		if err != nil {
			return nil, fmt.Errorf("IRF failed for shockIdx %d: %w", shockIdx, err)
		}
		results[shockIdx] = mat.Col(nil, varIndex, irfMat)
	}
	return results, nil
}

// Edge is a directed link of the sparsity network: Cause enters the
// equation of Effect with a nonzero coefficient at each lag in Lags.
type Edge struct {
	Cause  int
	Effect int
	Lags   []int
	// Sum of absolute coefficients over Lags
	Weight float64
}

// Network lists the nonzero off-diagonal links of Psi, ordered by effect
// then cause.
func (r *Result) Network() []Edge {
	n, p := r.Dims()
	A := r.Coefficients()

	var edges []Edge
	for effect := 0; effect < n; effect++ {
		for cause := 0; cause < n; cause++ {
			if cause == effect {
				continue
			}
			e := Edge{Cause: cause, Effect: effect}
			for l := 0; l < p; l++ {
				if v := A[l].At(effect, cause); v != 0 {
					e.Lags = append(e.Lags, l+1)
					e.Weight += math.Abs(v)
				}
			}
			if len(e.Lags) > 0 {
				edges = append(edges, e)
			}
		}
	}
	return edges
}
