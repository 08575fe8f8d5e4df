// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: Sparse VAR Estimation with Missing Data via Kalman Smoothing and ECM
// Class: 02-613 at Caregie Mellon University

package kalman

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Infer runs the forward filter over Y (n x T, NaN marks a missing entry)
// followed by the backward smoother.
func Infer(Y mat.Matrix, md *Model, opts Options) (*Result, error) {
	res, err := Filter(Y, md, opts)
	if err != nil {
		return nil, err
	}
	if err := Smooth(res); err != nil {
		return nil, err
	}
	return res, nil
}

// Filter runs the forward pass. The returned Result carries predicted,
// filtered and innovation moments for every time step and, if requested,
// the innovation log-likelihood.
func Filter(Y mat.Matrix, md *Model, opts Options) (*Result, error) {
	if err := md.Validate(); err != nil {
		return nil, err
	}
	n, m := md.Dims()
	rows, T := Y.Dims()
	if rows != n {
		return nil, fmt.Errorf("%w: Y has %d series, B has %d rows", ErrDimensionMismatch, rows, n)
	}
	if T == 0 {
		return nil, ErrEmptySeries
	}

	res := &Result{
		Predicted:     make([]*mat.VecDense, T),
		PredictedCov:  make([]*mat.SymDense, T),
		Filtered:      make([]*mat.VecDense, T),
		FilteredCov:   make([]*mat.SymDense, T),
		Innovation:    make([]*mat.VecDense, T),
		InnovationCov: make([]*mat.SymDense, T),
		model:         md,
		opts:          opts,
	}

	var (
		xPrev mat.Vector    = md.X0
		pPrev mat.Symmetric = md.P0
	)
	yt := mat.NewVecDense(n, nil)

	for t := 0; t < T; t++ {
		// 1. Predict
		xp, pp := predict(md.C, md.V, xPrev, pPrev)

		// 2. Mask missing channels
		mat.Col(yt.RawVector().Data, t, Y)
		var (
			y  mat.Vector    = yt
			Bt mat.Matrix    = md.B
			Rt mat.Symmetric = md.R
		)
		if anyMissing(yt) {
			ym, bm, rm, _ := Mask(yt, md.B, md.R)
			y, Bt, Rt = ym, bm, rm
		}

		// 3. Innovation and its covariance
		eps := mat.NewVecDense(n, nil)
		eps.MulVec(Bt, xp)
		eps.SubVec(y, eps)

		var bp mat.Dense
		bp.Mul(Bt, pp) // n x m
		var bpb mat.Dense
		bpb.Mul(&bp, Bt.T())
		bpb.Add(&bpb, Rt)
		sigma := Symmetrize(&bpb)

		var chol mat.Cholesky
		if ok := chol.Factorize(sigma); !ok {
			return nil, fmt.Errorf("%w: innovation covariance at t=%d", ErrSingular, t+1)
		}

		// 4. Gain, stored transposed: K' = Sigma^-1 B P
		var kt mat.Dense
		if err := chol.SolveTo(&kt, &bp); err != nil {
			return nil, fmt.Errorf("%w: gain at t=%d: %v", ErrSingular, t+1, err)
		}

		// 5. Update
		xf := mat.NewVecDense(m, nil)
		xf.MulVec(kt.T(), eps)
		xf.AddVec(xp, xf)

		var kb mat.Dense
		kb.Mul(kt.T(), Bt) // m x m
		var kbp mat.Dense
		kbp.Mul(&kb, pp)
		kbp.Sub(pp, &kbp)
		pf := Symmetrize(&kbp)

		// 6. Seed the lag-one covariance at the last step
		if opts.LagOneCov && t == T-1 {
			var cpf mat.Dense
			cpf.Mul(md.C, pPrev)
			var seed mat.Dense
			seed.Mul(&kb, &cpf)
			seed.Sub(&cpf, &seed)
			res.lagOneSeed = &seed
		}

		// 7. Log-likelihood of the innovation
		if opts.LogLik {
			var w mat.VecDense
			if err := chol.SolveVecTo(&w, eps); err != nil {
				return nil, fmt.Errorf("%w: log-likelihood at t=%d: %v", ErrSingular, t+1, err)
			}
			res.LogLik -= 0.5 * (chol.LogDet() + mat.Dot(eps, &w))
		}

		res.Predicted[t] = xp
		res.PredictedCov[t] = pp
		res.Filtered[t] = xf
		res.FilteredCov[t] = pf
		res.Innovation[t] = eps
		res.InnovationCov[t] = sigma

		xPrev, pPrev = xf, pf
	}

	return res, nil
}

// predict returns C x and sym(C P C' + V).
func predict(C mat.Matrix, V mat.Symmetric, x mat.Vector, P mat.Symmetric) (*mat.VecDense, *mat.SymDense) {
	m, _ := C.Dims()

	xp := mat.NewVecDense(m, nil)
	xp.MulVec(C, x)

	var cp mat.Dense
	cp.Mul(C, P)
	var cpc mat.Dense
	cpc.Mul(&cp, C.T())
	cpc.Add(&cpc, V)

	return xp, Symmetrize(&cpc)
}
