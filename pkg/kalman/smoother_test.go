// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: Sparse VAR Estimation with Missing Data via Kalman Smoothing and ECM
// Class: 02-613 at Caregie Mellon University

package kalman_test

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"enetvar/pkg/kalman"
)

// jointPosterior computes the exact posterior of (x_0, ..., x_T) given the
// observed entries of Y by writing every state and observation as a linear
// map of the independent Gaussian inputs (x_0, u_1..u_T, e_1..e_T).
type jointPosterior struct {
	mean   *mat.VecDense
	cov    *mat.Dense
	loglik float64
	m      int
}

func newJointPosterior(t *testing.T, md *kalman.Model, Y *mat.Dense) *jointPosterior {
	t.Helper()
	n, m := md.Dims()
	_, T := Y.Dims()

	dz := m + T*m + T*n
	mu := mat.NewVecDense(dz, nil)
	sz := mat.NewSymDense(dz, nil)
	for i := 0; i < m; i++ {
		mu.SetVec(i, md.X0.AtVec(i))
		for j := i; j < m; j++ {
			sz.SetSym(i, j, md.P0.At(i, j))
		}
	}
	for k := 0; k < T; k++ {
		off := m + k*m
		for i := 0; i < m; i++ {
			for j := i; j < m; j++ {
				sz.SetSym(off+i, off+j, md.V.At(i, j))
			}
		}
		off = m + T*m + k*n
		for i := 0; i < n; i++ {
			for j := i; j < n; j++ {
				sz.SetSym(off+i, off+j, md.R.At(i, j))
			}
		}
	}

	// States
	Lx := mat.NewDense((T+1)*m, dz, nil)
	for i := 0; i < m; i++ {
		Lx.Set(i, i, 1)
	}
	for k := 1; k <= T; k++ {
		var next mat.Dense
		next.Mul(md.C, Lx.Slice((k-1)*m, k*m, 0, dz))
		for i := 0; i < m; i++ {
			next.Set(i, m+(k-1)*m+i, next.At(i, m+(k-1)*m+i)+1)
		}
		Lx.Slice(k*m, (k+1)*m, 0, dz).(*mat.Dense).Copy(&next)
	}

	// Observed entries only
	var rows [][]float64
	var yobs []float64
	for k := 1; k <= T; k++ {
		var by mat.Dense
		by.Mul(md.B, Lx.Slice(k*m, (k+1)*m, 0, dz))
		for i := 0; i < n; i++ {
			if math.IsNaN(Y.At(i, k-1)) {
				continue
			}
			row := make([]float64, dz)
			mat.Row(row, i, &by)
			row[m+T*m+(k-1)*n+i] += 1
			rows = append(rows, row)
			yobs = append(yobs, Y.At(i, k-1))
		}
	}
	Ly := mat.NewDense(len(rows), dz, nil)
	for r, row := range rows {
		Ly.SetRow(r, row)
	}

	var muX, muY mat.VecDense
	muX.MulVec(Lx, mu)
	muY.MulVec(Ly, mu)

	var a mat.Dense
	a.Mul(Lx, sz)
	var sxx, sxy mat.Dense
	sxx.Mul(&a, Lx.T())
	sxy.Mul(&a, Ly.T())
	var b mat.Dense
	b.Mul(Ly, sz)
	var syy mat.Dense
	syy.Mul(&b, Ly.T())

	var chol mat.Cholesky
	require.True(t, chol.Factorize(kalman.Symmetrize(&syy)))

	resid := mat.NewVecDense(len(yobs), yobs)
	resid.SubVec(resid, &muY)
	var w mat.VecDense
	require.NoError(t, chol.SolveVecTo(&w, resid))

	post := mat.NewVecDense((T+1)*m, nil)
	post.MulVec(&sxy, &w)
	post.AddVec(post, &muX)

	var syx mat.Dense
	require.NoError(t, chol.SolveTo(&syx, sxy.T()))
	var red mat.Dense
	red.Mul(&sxy, &syx)
	var pc mat.Dense
	pc.Sub(&sxx, &red)

	return &jointPosterior{
		mean:   post,
		cov:    mat.DenseCopyOf(kalman.Symmetrize(&pc)),
		loglik: -0.5 * (chol.LogDet() + mat.Dot(resid, &w)),
		m:      m,
	}
}

func (jp *jointPosterior) meanAt(k int) mat.Vector {
	return jp.mean.SliceVec(k*jp.m, (k+1)*jp.m)
}

func (jp *jointPosterior) covAt(k, l int) mat.Matrix {
	return jp.cov.Slice(k*jp.m, (k+1)*jp.m, l*jp.m, (l+1)*jp.m)
}

func TestInferMatchesJointPosterior(t *testing.T) {
	cases := []struct {
		name    string
		n, m, T int
		missing [][2]int
	}{
		{name: "complete", n: 2, m: 3, T: 5},
		{name: "single step", n: 2, m: 2, T: 1},
		{name: "scattered missing", n: 3, m: 3, T: 6, missing: [][2]int{{0, 1}, {2, 1}, {1, 4}}},
		{name: "all missing at one step", n: 2, m: 3, T: 4, missing: [][2]int{{0, 2}, {1, 2}}},
	}

	for ci, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rng := rand.New(rand.NewPCG(uint64(ci+1), 7))
			md := randomModel(rng, tc.n, tc.m)
			Y := randomObs(rng, tc.n, tc.T)
			for _, e := range tc.missing {
				Y.Set(e[0], e[1], math.NaN())
			}

			res, err := kalman.Infer(Y, md, kalman.Options{LogLik: true, LagOneCov: true})
			require.NoError(t, err)
			jp := newJointPosterior(t, md, Y)

			const tol = 1e-8
			requireMatClose(t, jp.meanAt(0), res.InitialMean, tol, "initial mean")
			requireMatClose(t, jp.covAt(0, 0), res.InitialCov, tol, "initial cov")
			for k := 1; k <= tc.T; k++ {
				requireMatClose(t, jp.meanAt(k), res.Smoothed[k-1], tol, "smoothed mean t=%d", k)
				requireMatClose(t, jp.covAt(k, k), res.SmoothedCov[k-1], tol, "smoothed cov t=%d", k)
				requireMatClose(t, jp.covAt(k, k-1), res.LagOneCov[k-1], tol, "lag-one cov t=%d", k)
			}
			require.InDelta(t, jp.loglik, res.LogLik, 1e-8)
		})
	}
}

func TestSmootherBoundaryEqualsFiltered(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 3))
	md := randomModel(rng, 2, 4)
	Y := randomObs(rng, 2, 20)

	res, err := kalman.Infer(Y, md, kalman.Options{})
	require.NoError(t, err)

	last := res.Len() - 1
	require.True(t, mat.Equal(res.Filtered[last], res.Smoothed[last]))
	require.True(t, mat.Equal(res.FilteredCov[last], res.SmoothedCov[last]))
	require.Nil(t, res.LagOneCov)
	require.Zero(t, res.LogLik)
}

func TestCovariancesSymmetricPSD(t *testing.T) {
	rng := rand.New(rand.NewPCG(11, 5))
	md := randomModel(rng, 3, 4)
	Y := randomObs(rng, 3, 30)
	Y.Set(1, 4, math.NaN())
	Y.Set(0, 10, math.NaN())

	res, err := kalman.Infer(Y, md, kalman.Options{LagOneCov: true})
	require.NoError(t, err)

	const tol = 1e-10
	requirePSD(t, res.InitialCov, tol, "Ps_0")
	for k := 0; k < res.Len(); k++ {
		requirePSD(t, res.PredictedCov[k], tol, "Pp")
		requirePSD(t, res.FilteredCov[k], tol, "Pf")
		requirePSD(t, res.SmoothedCov[k], tol, "Ps")
		requirePSD(t, res.InnovationCov[k], tol, "Sigma_t")
	}
}

func TestSmoothSingularPredictedCovariance(t *testing.T) {
	// Companion-form VAR(1) with tracking states: V and Pp are singular.
	C := mat.NewDense(4, 4, []float64{
		0.5, 0, 0, 0,
		0, 0.5, 0, 0,
		1, 0, 0, 0,
		0, 1, 0, 0,
	})
	V := mat.NewSymDense(4, nil)
	V.SetSym(0, 0, 1)
	V.SetSym(1, 1, 1)
	P0 := mat.NewSymDense(4, []float64{
		4.0 / 3, 0, 2.0 / 3, 0,
		0, 4.0 / 3, 0, 2.0 / 3,
		2.0 / 3, 0, 4.0 / 3, 0,
		0, 2.0 / 3, 0, 4.0 / 3,
	})
	R := mat.NewSymDense(2, []float64{1e-10, 0, 0, 1e-10})
	B := mat.NewDense(2, 4, []float64{1, 0, 0, 0, 0, 1, 0, 0})
	md := &kalman.Model{B: B, R: R, C: C, V: V, X0: mat.NewVecDense(4, nil), P0: P0}

	rng := rand.New(rand.NewPCG(2, 2))
	Y := randomObs(rng, 2, 25)
	Y.Set(0, 12, math.NaN())

	res, err := kalman.Infer(Y, md, kalman.Options{LogLik: true, LagOneCov: true})
	require.NoError(t, err)
	require.False(t, math.IsNaN(res.LogLik))

	// Observed channels are reproduced; the tracking states hold the previous value.
	for k := 1; k < res.Len(); k++ {
		if k == 12 || k == 13 {
			continue
		}
		require.InDelta(t, Y.At(0, k), res.Smoothed[k].AtVec(0), 1e-4)
		require.InDelta(t, Y.At(1, k-1), res.Smoothed[k].AtVec(3), 1e-4)
	}
	// The gap is filled, and the tracking copy one step later agrees with it.
	require.False(t, math.IsNaN(res.Smoothed[12].AtVec(0)))
	require.InDelta(t, res.Smoothed[12].AtVec(0), res.Smoothed[13].AtVec(2), 1e-4)
}
