// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: Sparse VAR Estimation with Missing Data via Kalman Smoothing and ECM
// Class: 02-613 at Caregie Mellon University

package ecm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestMStepSolvesRidgeSystem(t *testing.T) {
	st := &suffStats{
		F: mat.NewDense(2, 2, []float64{1, 2, 3, 4}),
		G: mat.NewSymDense(2, []float64{2, 0, 0, 2}),
	}
	gamma := mat.NewDiagDense(2, []float64{2, 2})
	Phi := mat.NewDense(2, 2, nil)

	// alpha = 0: (G + Gamma) psi' = F', so psi = F / 4
	Psi, err := mStep(st, gamma, Phi, 0)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(Psi, mat.NewDense(2, 2, []float64{0.25, 0.5, 0.75, 1}), 1e-12))
}

func TestMStepSingularSystemIsNumericalError(t *testing.T) {
	st := &suffStats{
		F: mat.NewDense(2, 2, []float64{1, 2, 3, 4}),
		G: mat.NewSymDense(2, nil),
	}
	gamma := mat.NewDiagDense(2, []float64{0, 0})
	Phi := mat.NewDense(2, 2, nil)

	Psi, err := mStep(st, gamma, Phi, 0.5)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNumerical), "got %v", err)
	assert.Nil(t, Psi)
}
