// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: Sparse VAR Estimation with Missing Data via Kalman Smoothing and ECM
// Class: 02-613 at Caregie Mellon University

package kalman

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Smooth runs the backward pass over a completed filter Result and fills in
// the smoothed moments, the t=0 boundary and, if the filter was asked for
// it, the lag-one cross-covariance.
func Smooth(res *Result) error {
	if res == nil || res.model == nil || res.Len() == 0 {
		return ErrEmptySeries
	}
	md := res.model
	T := res.Len()

	// Index k of xs/ps is time k, with k=0 the initial state.
	xs := make([]*mat.VecDense, T+1)
	ps := make([]*mat.SymDense, T+1)

	xs[T] = mat.VecDenseCopyOf(res.Filtered[T-1])
	ps[T] = mat.NewSymDense(res.FilteredCov[T-1].SymmetricDim(), nil)
	ps[T].CopySym(res.FilteredCov[T-1])

	var pps []*mat.Dense
	if res.opts.LagOneCov {
		pps = make([]*mat.Dense, T+1)
		pps[T] = res.lagOneSeed
	}

	J, err := res.smootherGain(T)
	if err != nil {
		return err
	}

	for t := T; t >= 1; t-- {
		xf, pf := res.filteredAt(t - 1)
		xp, pp := res.Predicted[t-1], res.PredictedCov[t-1]

		// Mean
		var d mat.VecDense
		d.SubVec(xs[t], xp)
		x := mat.NewVecDense(xf.Len(), nil)
		x.MulVec(J, &d)
		x.AddVec(xf, x)

		// Covariance
		var dp mat.Dense
		dp.Sub(ps[t], pp)
		var jd mat.Dense
		jd.Mul(J, &dp)
		var jdj mat.Dense
		jdj.Mul(&jd, J.T())
		jdj.Add(pf, &jdj)

		xs[t-1], ps[t-1] = x, Symmetrize(&jdj)

		if t < 2 {
			break
		}

		Jprev, err := res.smootherGain(t - 1)
		if err != nil {
			return err
		}

		if pps != nil {
			var cpf mat.Dense
			cpf.Mul(md.C, pf)
			var diff mat.Dense
			diff.Sub(pps[t], &cpf)
			var a mat.Dense
			a.Mul(J, &diff)
			a.Add(pf, &a)
			out := &mat.Dense{}
			out.Mul(&a, Jprev.T())
			pps[t-1] = out
		}

		J = Jprev
	}

	res.Smoothed = xs[1:]
	res.SmoothedCov = ps[1:]
	res.InitialMean = xs[0]
	res.InitialCov = ps[0]
	if pps != nil {
		res.LagOneCov = pps[1:]
	}
	return nil
}

// filteredAt returns the filtered moments at time k, with k=0 the prior.
func (r *Result) filteredAt(k int) (*mat.VecDense, *mat.SymDense) {
	if k == 0 {
		return r.model.X0, r.model.P0
	}
	return r.Filtered[k-1], r.FilteredCov[k-1]
}

// smootherGain returns J_{t-1} = Pf_{t-1} C' Pp_t^+ for time t >= 1.
func (r *Result) smootherGain(t int) (*mat.Dense, error) {
	_, pf := r.filteredAt(t - 1)

	ppInv, err := pinvSym(r.PredictedCov[t-1])
	if err != nil {
		return nil, fmt.Errorf("%w: predicted covariance at t=%d", err, t)
	}

	var pc mat.Dense
	pc.Mul(pf, r.model.C.T())
	J := &mat.Dense{}
	J.Mul(&pc, ppInv)
	return J, nil
}
