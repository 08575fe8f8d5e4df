// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: Sparse VAR Estimation with Missing Data via Kalman Smoothing and ECM
// Class: 02-613 at Caregie Mellon University

// Package varutil holds the array helpers around VAR estimation: summary
// statistics that skip missing (NaN) entries, lag and companion-form
// construction, the discrete Lyapunov solver and an unpenalized OLS fit.
package varutil

import "errors"

var (
	// ErrDimensionMismatch is returned when inputs disagree in size.
	ErrDimensionMismatch = errors.New("varutil: dimension mismatch")

	// ErrAllMissing is returned when a series has no observed values.
	ErrAllMissing = errors.New("varutil: series has no observed values")

	// ErrNotSolvable is returned when the Lyapunov equation has no unique solution.
	ErrNotSolvable = errors.New("varutil: lyapunov equation not solvable")

	// ErrInvalidLag is returned when the lag order does not fit the data.
	ErrInvalidLag = errors.New("varutil: invalid lag order")
)
