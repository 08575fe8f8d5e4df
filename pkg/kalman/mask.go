// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: Sparse VAR Estimation with Missing Data via Kalman Smoothing and ECM
// Class: 02-613 at Caregie Mellon University

package kalman

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Mask removes the influence of missing (NaN) entries of y from one
// measurement update while keeping all dimensions fixed. For every missing
// channel i the returned copies have y'_i = 0, row i of B' zeroed, and
// row/column i of R' replaced by the unit vector, so the channel adds zero
// information and zero residual energy. This is the same update as
// dropping the missing rows from y, B and R.
//
// The inputs are never modified. missing[i] reports whether channel i was
// masked.
func Mask(y mat.Vector, B mat.Matrix, R mat.Symmetric) (*mat.VecDense, *mat.Dense, *mat.SymDense, []bool) {
	n := y.Len()

	ym := mat.NewVecDense(n, nil)
	ym.CopyVec(y)
	bm := mat.DenseCopyOf(B)
	rm := mat.NewSymDense(n, nil)
	rm.CopySym(R)

	missing := make([]bool, n)
	_, m := bm.Dims()
	zeros := make([]float64, m)

	for i := 0; i < n; i++ {
		if !math.IsNaN(y.AtVec(i)) {
			continue
		}
		missing[i] = true
		ym.SetVec(i, 0)
		bm.SetRow(i, zeros)
		for j := 0; j < n; j++ {
			rm.SetSym(i, j, 0)
		}
		rm.SetSym(i, i, 1)
	}

	return ym, bm, rm, missing
}

// anyMissing reports whether y has at least one NaN entry.
func anyMissing(y mat.Vector) bool {
	for i := 0; i < y.Len(); i++ {
		if math.IsNaN(y.AtVec(i)) {
			return true
		}
	}
	return false
}
