// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: Sparse VAR Estimation with Missing Data via Kalman Smoothing and ECM
// Class: 02-613 at Caregie Mellon University

package kalman

import "errors"

var (
	// ErrDimensionMismatch is returned when data and parameters disagree in size.
	ErrDimensionMismatch = errors.New("kalman: dimension mismatch")

	// ErrSingular is returned when an innovation or predicted covariance
	// cannot be factorized. It is fatal for the pass that raised it.
	ErrSingular = errors.New("kalman: singular covariance")

	// ErrEmptySeries is returned when the observation matrix has no columns.
	ErrEmptySeries = errors.New("kalman: empty observation sequence")
)
