// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: Sparse VAR Estimation with Missing Data via Kalman Smoothing and ECM
// Class: 02-613 at Caregie Mellon University

package ecm

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"enetvar/pkg/kalman"
)

// suffStats are the smoothed second moments summed over t = 1..T.
type suffStats struct {
	// E[y_t y_t'], n x n
	E *mat.Dense
	// E[y_t z_{t-1}'] with z the first np states, n x np
	F *mat.Dense
	// E[z_{t-1} z_{t-1}'], np x np
	G *mat.SymDense
}

func sufficientStats(res *kalman.Result, n, np int) *suffStats {
	T := res.Len()
	E := mat.NewDense(n, n, nil)
	F := mat.NewDense(n, np, nil)
	G := mat.NewDense(np, np, nil)

	for t := 1; t <= T; t++ {
		cur, curCov := res.Smoothed[t-1], res.SmoothedCov[t-1]
		prev, prevCov := res.InitialMean, res.InitialCov
		if t > 1 {
			prev, prevCov = res.Smoothed[t-2], res.SmoothedCov[t-2]
		}
		y := cur.SliceVec(0, n)
		z := prev.SliceVec(0, np)

		E.RankOne(E, 1, y, y)
		E.Add(E, curCov.SliceSym(0, n))

		F.RankOne(F, 1, y, z)
		F.Add(F, res.LagOneCov[t-1].Slice(0, n, 0, np))

		G.RankOne(G, 1, z, z)
		G.Add(G, prevCov.SliceSym(0, np))
	}

	return &suffStats{E: E, F: F, G: kalman.Symmetrize(G)}
}

// mStep solves, for every equation i,
//
//	(G + Gamma ((1-alpha) I + alpha diag(Phi_i))) psi_i' = F_i'
//
// and zeroes coefficients below eps in magnitude.
func mStep(st *suffStats, gamma mat.Diagonal, Phi mat.Matrix, alpha float64) (*mat.Dense, error) {
	n, np := st.F.Dims()
	Psi := mat.NewDense(n, np, nil)
	A := mat.NewSymDense(np, nil)

	for i := 0; i < n; i++ {
		A.CopySym(st.G)
		for j := 0; j < np; j++ {
			A.SetSym(j, j, A.At(j, j)+gamma.At(j, j)*((1-alpha)+alpha*Phi.At(i, j)))
		}
		rhs := mat.NewVecDense(np, mat.Row(nil, i, st.F))

		var psi mat.VecDense
		var chol mat.Cholesky
		if chol.Factorize(A) {
			if err := chol.SolveVecTo(&psi, rhs); err != nil {
				return nil, fmt.Errorf("%w: M-step equation %d: %v", ErrNumerical, i, err)
			}
		} else if err := psi.SolveVec(A, rhs); err != nil {
			var cond mat.Condition
			if !errors.As(err, &cond) || math.IsInf(float64(cond), 1) {
				return nil, fmt.Errorf("%w: M-step equation %d: %v", ErrNumerical, i, err)
			}
		}

		for j := 0; j < np; j++ {
			v := psi.AtVec(j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: M-step equation %d: non-finite coefficient", ErrNumerical, i)
			}
			if math.Abs(v) < eps {
				v = 0
			}
			Psi.Set(i, j, v)
		}
	}
	return Psi, nil
}

// sigmaStep returns
//
//	(E - F Psi' - Psi F' + Psi G Psi' + Psi Gamma M') / T
//
// with M = (1-alpha) Psi + alpha Psi.*Phi, symmetrized.
func sigmaStep(st *suffStats, Psi *mat.Dense, Phi mat.Matrix, gamma mat.Matrix, alpha float64, T int) *mat.SymDense {
	var s mat.Dense
	s.CloneFrom(st.E)

	var fp mat.Dense
	fp.Mul(st.F, Psi.T())
	s.Sub(&s, &fp)
	s.Sub(&s, fp.T())

	var pg, pgp mat.Dense
	pg.Mul(Psi, st.G)
	pgp.Mul(&pg, Psi.T())
	s.Add(&s, &pgp)

	var pgm, pgmt mat.Dense
	pgm.Mul(Psi, gamma)
	pgmt.Mul(&pgm, blend(Psi, Phi, alpha).T())
	s.Add(&s, &pgmt)

	s.Scale(1/float64(T), &s)
	return kalman.Symmetrize(&s)
}
