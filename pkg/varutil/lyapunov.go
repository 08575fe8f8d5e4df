// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: Sparse VAR Estimation with Missing Data via Kalman Smoothing and ECM
// Class: 02-613 at Caregie Mellon University

package varutil

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"

	"enetvar/pkg/kalman"
)

const (
	// Upper bound on doubling steps; each one squares the transition.
	maxDoubling = 100
	// Stop doubling once the powered transition is this small.
	doublingTol = 1e-15
)

// SpectralRadius returns the largest eigenvalue modulus of the square
// matrix C.
func SpectralRadius(C mat.Matrix) (float64, error) {
	var eig mat.Eigen
	if ok := eig.Factorize(C, mat.EigenNone); !ok {
		return math.NaN(), fmt.Errorf("%w: eigendecomposition failed", ErrNotSolvable)
	}
	var rho float64
	for _, v := range eig.Values(nil) {
		rho = math.Max(rho, cmplx.Abs(v))
	}
	return rho, nil
}

// Lyapunov solves the discrete Lyapunov equation P = C P C' + V, the
// stationary covariance of x_t = C x_{t-1} + u_t with Cov(u_t) = V.
//
// When C is stable the doubling iteration
//
//	P_{k+1} = P_k + A_k P_k A_k',  A_{k+1} = A_k A_k,  P_0 = V, A_0 = C
//
// is used. Otherwise it falls back to solving vec(P) = (I - C⊗C)^-1 vec(V).
func Lyapunov(C mat.Matrix, V mat.Symmetric) (*mat.SymDense, error) {
	m, c := C.Dims()
	if m != c || V.SymmetricDim() != m {
		return nil, fmt.Errorf("%w: C is %dx%d, V is %dx%d", ErrDimensionMismatch, m, c, V.SymmetricDim(), V.SymmetricDim())
	}

	if rho, err := SpectralRadius(C); err == nil && rho < 1 {
		if P, ok := lyapunovDoubling(C, V); ok {
			return P, nil
		}
	}
	return lyapunovKronecker(C, V)
}

func lyapunovDoubling(C mat.Matrix, V mat.Symmetric) (*mat.SymDense, bool) {
	m := V.SymmetricDim()

	P := mat.NewDense(m, m, nil)
	P.Copy(V)
	A := mat.DenseCopyOf(C)

	var ap, apa, aa mat.Dense
	for k := 0; k < maxDoubling; k++ {
		ap.Mul(A, P)
		apa.Mul(&ap, A.T())
		P.Add(P, &apa)

		aa.Mul(A, A)
		A.Copy(&aa)

		if mat.Norm(A, math.Inf(1)) < doublingTol {
			return kalman.Symmetrize(P), true
		}
		if math.IsNaN(mat.Norm(P, 1)) {
			return nil, false
		}
	}
	return nil, false
}

func lyapunovKronecker(C mat.Matrix, V mat.Symmetric) (*mat.SymDense, error) {
	m := V.SymmetricDim()
	mm := m * m

	var k mat.Dense
	k.Kronecker(C, C)
	for i := 0; i < mm; i++ {
		k.Set(i, i, k.At(i, i)-1)
	}
	k.Scale(-1, &k)

	vecV := mat.NewVecDense(mm, nil)
	for i := 0; i < m; i++ {
		for j := 0; j < m; j++ {
			vecV.SetVec(i*m+j, V.At(i, j))
		}
	}

	var vecP mat.VecDense
	if err := vecP.SolveVec(&k, vecV); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotSolvable, err)
	}

	P := mat.NewDense(m, m, nil)
	for i := 0; i < m; i++ {
		for j := 0; j < m; j++ {
			P.Set(i, j, vecP.AtVec(i*m+j))
		}
	}
	return kalman.Symmetrize(P), nil
}
