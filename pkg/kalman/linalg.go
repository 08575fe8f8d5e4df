// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: Sparse VAR Estimation with Missing Data via Kalman Smoothing and ECM
// Class: 02-613 at Caregie Mellon University

package kalman

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Eigenvalues of a predicted covariance below pinvRelTol times the largest
// one are treated as zero when it is inverted.
const pinvRelTol = 1e-12

// Symmetrize returns (a + a')/2 as a new symmetric matrix. It panics if a
// is not square.
func Symmetrize(a mat.Matrix) *mat.SymDense {
	r, c := a.Dims()
	if r != c {
		panic(mat.ErrShape)
	}
	s := mat.NewSymDense(r, nil)
	for i := 0; i < r; i++ {
		for j := i; j < r; j++ {
			s.SetSym(i, j, 0.5*(a.At(i, j)+a.At(j, i)))
		}
	}
	return s
}

// MaxAsymmetry returns max |a_ij - a_ji|.
func MaxAsymmetry(a mat.Matrix) float64 {
	r, _ := a.Dims()
	var mx float64
	for i := 0; i < r; i++ {
		for j := i + 1; j < r; j++ {
			mx = math.Max(mx, math.Abs(a.At(i, j)-a.At(j, i)))
		}
	}
	return mx
}

// pinvSym returns the Moore-Penrose inverse of a symmetric PSD matrix,
// computed from its eigendecomposition.
func pinvSym(a mat.Symmetric) (*mat.SymDense, error) {
	n := a.SymmetricDim()

	var es mat.EigenSym
	if ok := es.Factorize(a, true); !ok {
		return nil, ErrSingular
	}
	vals := es.Values(nil)
	var vecs mat.Dense
	es.VectorsTo(&vecs)

	inv := mat.NewSymDense(n, nil)
	top := floats.Max(vals)
	if top <= 0 {
		return inv, nil
	}
	cut := top * pinvRelTol
	for k, v := range vals {
		if v <= cut {
			continue
		}
		inv.SymRankOne(inv, 1/v, vecs.ColView(k))
	}
	return inv, nil
}
