// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: Sparse VAR Estimation with Missing Data via Kalman Smoothing and ECM
// Class: 02-613 at Caregie Mellon University

package varutil

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// present returns the non-NaN entries of x.
func present(x []float64) []float64 {
	out := make([]float64, 0, len(x))
	for _, v := range x {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// Mean returns the mean of the non-missing entries of x, or NaN if there
// are none.
func Mean(x []float64) float64 {
	obs := present(x)
	if len(obs) == 0 {
		return math.NaN()
	}
	return stat.Mean(obs, nil)
}

// Sum returns the sum of the non-missing entries of x.
func Sum(x []float64) float64 {
	return floats.Sum(present(x))
}

// StdDev returns the sample standard deviation of the non-missing entries
// of x, or NaN if fewer than two are present.
func StdDev(x []float64) float64 {
	obs := present(x)
	if len(obs) < 2 {
		return math.NaN()
	}
	return stat.StdDev(obs, nil)
}

// RowMeans returns the mean of every row of Y, skipping missing entries.
func RowMeans(Y mat.Matrix) []float64 {
	r, _ := Y.Dims()
	out := make([]float64, r)
	for i := range out {
		out[i] = Mean(mat.Row(nil, i, Y))
	}
	return out
}

// Standardize returns a copy of Y (n x T) in which every series (row) has
// zero mean and unit standard deviation over its present values. Missing
// entries stay NaN. A constant series is only demeaned.
func Standardize(Y mat.Matrix) (*mat.Dense, error) {
	out := mat.DenseCopyOf(Y)
	n, T := out.Dims()

	for i := 0; i < n; i++ {
		row := out.RawRowView(i)
		obs := present(row)
		if len(obs) == 0 {
			return nil, fmt.Errorf("%w: series %d", ErrAllMissing, i)
		}
		mu, sd := stat.MeanStdDev(obs, nil)
		if len(obs) < 2 || sd == 0 || math.IsNaN(sd) {
			sd = 1
		}
		for t := 0; t < T; t++ {
			if !math.IsNaN(row[t]) {
				row[t] = (row[t] - mu) / sd
			}
		}
	}
	return out, nil
}

// Interpolate returns a copy of Y (n x T) with each missing entry replaced
// by the mean of its series.
func Interpolate(Y mat.Matrix) (*mat.Dense, error) {
	out := mat.DenseCopyOf(Y)
	n, T := out.Dims()

	for i := 0; i < n; i++ {
		row := out.RawRowView(i)
		mu := Mean(row)
		if math.IsNaN(mu) {
			return nil, fmt.Errorf("%w: series %d", ErrAllMissing, i)
		}
		for t := 0; t < T; t++ {
			if math.IsNaN(row[t]) {
				row[t] = mu
			}
		}
	}
	return out, nil
}

// CountMissing returns the number of NaN entries in Y.
func CountMissing(Y mat.Matrix) int {
	r, c := Y.Dims()
	var k int
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if math.IsNaN(Y.At(i, j)) {
				k++
			}
		}
	}
	return k
}
