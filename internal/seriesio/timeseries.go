// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: Sparse VAR Estimation with Missing Data via Kalman Smoothing and ECM
// Class: 02-613 at Caregie Mellon University

// Package seriesio loads multivariate series from CSV files and DuckDB
// tables and writes fitted models, forecasts and reports.
package seriesio

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// TimeSeries is a table of observations, one row per time point and one
// column per series. Missing entries are NaN.
type TimeSeries struct {
	// T x n data
	Y *mat.Dense
	// Time index of each row
	Time []float64
	// Series names, one per column
	VarNames []string
}

// Dims returns the number of time points and series.
func (ts *TimeSeries) Dims() (T, n int) {
	return ts.Y.Dims()
}

// Series returns the data as an n x T matrix, rows are series.
func (ts *TimeSeries) Series() *mat.Dense {
	return mat.DenseCopyOf(ts.Y.T())
}

// Missing returns the number of NaN entries.
func (ts *TimeSeries) Missing() int {
	T, n := ts.Dims()
	var k int
	for i := 0; i < T; i++ {
		for j := 0; j < n; j++ {
			if math.IsNaN(ts.Y.At(i, j)) {
				k++
			}
		}
	}
	return k
}

// FromSeries builds a TimeSeries from an n x T matrix. Missing names are
// filled with Var1, Var2, ...
func FromSeries(Y mat.Matrix, names []string) *TimeSeries {
	n, T := Y.Dims()
	if len(names) != n {
		names = defaultNames(n)
	}
	times := make([]float64, T)
	for i := range times {
		times[i] = float64(i)
	}
	return &TimeSeries{Y: mat.DenseCopyOf(Y.T()), Time: times, VarNames: names}
}

func defaultNames(n int) []string {
	names := make([]string, n)
	for j := range names {
		names[j] = fmt.Sprintf("Var%d", j+1)
	}
	return names
}

// parseValue reads one cell; empty, NA, NaN and null mark a missing value.
func parseValue(s string) (float64, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "na", "nan", "null", "n/a":
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}
