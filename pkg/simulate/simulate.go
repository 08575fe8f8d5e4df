// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: Sparse VAR Estimation with Missing Data via Kalman Smoothing and ECM
// Class: 02-613 at Caregie Mellon University

// Package simulate draws sample paths from Gaussian VAR(p) and linear
// state-space models.
package simulate

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"

	"enetvar/pkg/kalman"
)

// ErrInvalidInput is returned for inconsistent dimensions or lengths.
var ErrInvalidInput = errors.New("simulate: invalid input")

// gaussian draws from N(mean, cov). The covariance may be singular, in
// which case a symmetric square root is used instead of distmv.
type gaussian struct {
	mean   []float64
	normal *distmv.Normal
	root   *mat.Dense
	rng    *rand.Rand
	z      *mat.VecDense
}

func newGaussian(mean []float64, cov mat.Symmetric, rng *rand.Rand) (*gaussian, error) {
	k := cov.SymmetricDim()
	if len(mean) != k {
		return nil, fmt.Errorf("%w: mean has length %d, covariance is %dx%d", ErrInvalidInput, len(mean), k, k)
	}
	g := &gaussian{mean: mean, rng: rng, z: mat.NewVecDense(k, nil)}

	if normal, ok := distmv.NewNormal(mean, cov, rng); ok {
		g.normal = normal
		return g, nil
	}

	var es mat.EigenSym
	if ok := es.Factorize(cov, true); !ok {
		return nil, fmt.Errorf("%w: covariance eigendecomposition failed", ErrInvalidInput)
	}
	vals := es.Values(nil)
	var vecs mat.Dense
	es.VectorsTo(&vecs)
	for j, v := range vals {
		s := math.Sqrt(math.Max(v, 0))
		for i := 0; i < k; i++ {
			vecs.Set(i, j, vecs.At(i, j)*s)
		}
	}
	g.root = &vecs
	return g, nil
}

func (g *gaussian) draw(dst []float64) []float64 {
	if g.normal != nil {
		return g.normal.Rand(dst)
	}
	if dst == nil {
		dst = make([]float64, len(g.mean))
	}
	for i := range g.mean {
		g.z.SetVec(i, g.rng.NormFloat64())
	}
	out := mat.NewVecDense(len(dst), dst)
	out.MulVec(g.root, g.z)
	for i, mu := range g.mean {
		dst[i] += mu
	}
	return dst
}

// VAR simulates T observations (returned n x T) of
//
//	y_t = Psi [y_{t-1}; ...; y_{t-p}] + u_t,  u_t ~ N(0, Sigma)
//
// starting from zeros and discarding the first burnIn draws.
func VAR(Psi *mat.Dense, Sigma mat.Symmetric, T, burnIn int, seed uint64) (*mat.Dense, error) {
	n, np := Psi.Dims()
	if n == 0 || np%n != 0 {
		return nil, fmt.Errorf("%w: Psi is %dx%d", ErrInvalidInput, n, np)
	}
	if Sigma.SymmetricDim() != n {
		return nil, fmt.Errorf("%w: Sigma is %dx%d, want %dx%d", ErrInvalidInput, Sigma.SymmetricDim(), Sigma.SymmetricDim(), n, n)
	}
	if T <= 0 || burnIn < 0 {
		return nil, fmt.Errorf("%w: T=%d burnIn=%d", ErrInvalidInput, T, burnIn)
	}
	p := np / n

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	noise, err := newGaussian(make([]float64, n), Sigma, rng)
	if err != nil {
		return nil, err
	}

	total := p + burnIn + T
	full := mat.NewDense(n, total, nil)
	lagged := mat.NewVecDense(np, nil)
	u := make([]float64, n)
	y := mat.NewVecDense(n, nil)

	for t := p; t < total; t++ {
		for j := 0; j < p; j++ {
			for i := 0; i < n; i++ {
				lagged.SetVec(j*n+i, full.At(i, t-j-1))
			}
		}
		y.MulVec(Psi, lagged)
		noise.draw(u)
		for i := 0; i < n; i++ {
			full.Set(i, t, y.AtVec(i)+u[i])
		}
	}

	return mat.DenseCopyOf(full.Slice(0, n, p+burnIn, total)), nil
}

// StateSpace simulates T steps of a linear Gaussian state-space model and
// returns the latent states (m x T) and the observations (n x T).
func StateSpace(md *kalman.Model, T int, seed uint64) (*mat.Dense, *mat.Dense, error) {
	if err := md.Validate(); err != nil {
		return nil, nil, err
	}
	if T <= 0 {
		return nil, nil, fmt.Errorf("%w: T=%d", ErrInvalidInput, T)
	}
	n, m := md.Dims()

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	start, err := newGaussian(mat.Col(nil, 0, md.X0), md.P0, rng)
	if err != nil {
		return nil, nil, err
	}
	stateNoise, err := newGaussian(make([]float64, m), md.V, rng)
	if err != nil {
		return nil, nil, err
	}
	obsNoise, err := newGaussian(make([]float64, n), md.R, rng)
	if err != nil {
		return nil, nil, err
	}

	states := mat.NewDense(m, T, nil)
	obs := mat.NewDense(n, T, nil)

	x := mat.NewVecDense(m, start.draw(nil))
	next := mat.NewVecDense(m, nil)
	y := mat.NewVecDense(n, nil)
	u := make([]float64, m)
	e := make([]float64, n)

	for t := 0; t < T; t++ {
		next.MulVec(md.C, x)
		next.AddVec(next, mat.NewVecDense(m, stateNoise.draw(u)))
		x.CopyVec(next)
		states.SetCol(t, x.RawVector().Data)

		y.MulVec(md.B, x)
		y.AddVec(y, mat.NewVecDense(n, obsNoise.draw(e)))
		obs.SetCol(t, y.RawVector().Data)
	}

	return states, obs, nil
}

// MaskAtRandom returns a copy of Y with each entry replaced by NaN with
// probability rate.
func MaskAtRandom(Y mat.Matrix, rate float64, seed uint64) *mat.Dense {
	out := mat.DenseCopyOf(Y)
	rng := rand.New(rand.NewPCG(seed, ^seed))
	r, c := out.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if rng.Float64() < rate {
				out.Set(i, j, math.NaN())
			}
		}
	}
	return out
}
