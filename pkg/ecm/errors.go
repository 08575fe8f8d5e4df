// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: Sparse VAR Estimation with Missing Data via Kalman Smoothing and ECM
// Class: 02-613 at Caregie Mellon University

// Package ecm estimates a sparse VAR(p) from series with missing values by
// expectation-conditional maximization over an extended companion-form
// state-space model. The E-step is a Kalman smoother pass; the M-step is a
// closed-form adaptive elastic-net ridge solve per equation.
package ecm

import "errors"

var (
	// ErrInvalidHyperparameter is returned when a Spec field is out of range.
	ErrInvalidHyperparameter = errors.New("ecm: invalid hyperparameter")

	// ErrTooFewSeries is returned for univariate input.
	ErrTooFewSeries = errors.New("ecm: at least two series are required")

	// ErrTooShort is returned when the series is not longer than the lag order.
	ErrTooShort = errors.New("ecm: series not longer than lag order")

	// ErrNumerical wraps a failed factorization or solve. The run is aborted.
	ErrNumerical = errors.New("ecm: numerical failure")

	// ErrNotEstimated is returned by analysis methods on an empty Result.
	ErrNotEstimated = errors.New("ecm: model not estimated")
)
