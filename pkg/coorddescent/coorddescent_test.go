// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: Sparse VAR Estimation with Missing Data via Kalman Smoothing and ECM
// Class: 02-613 at Caregie Mellon University

package coorddescent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"enetvar/pkg/simulate"
	"enetvar/pkg/varutil"
)

func simulatedDesign(t *testing.T) (*mat.Dense, *mat.Dense) {
	t.Helper()
	Psi := mat.NewDense(3, 3, []float64{
		0.5, 0, 0.2,
		0, 0.4, 0,
		-0.3, 0, 0.3,
	})
	Sigma := mat.NewSymDense(3, []float64{1, 0.2, 0, 0.2, 1, 0, 0, 0, 1})
	Y, err := simulate.VAR(Psi, Sigma, 300, 50, 21)
	require.NoError(t, err)
	Yt, X, err := varutil.Lag(Y, 1)
	require.NoError(t, err)
	return Yt, X
}

func TestSoftThreshold(t *testing.T) {
	tests := []struct {
		z, t, want float64
	}{
		{3, 1, 2},
		{-3, 1, -2},
		{0.5, 1, 0},
		{-1, 1, 0},
		{2, 0, 2},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, softThreshold(tc.z, tc.t), "S(%g, %g)", tc.z, tc.t)
	}
}

func TestScalarClosedForm(t *testing.T) {
	// xx = 14, yx = 28, g = lambda/np = 2
	// psi = S(28, 2*0.5) / (14 + 2*0.5) = 27/15
	Yt := mat.NewDense(1, 3, []float64{2, 4, 6})
	X := mat.NewDense(1, 3, []float64{1, 2, 3})

	Psi, Sigma, err := Estimate(Yt, X, 2, 0.5, 1, 1e-12, 100)
	require.NoError(t, err)
	assert.InDelta(t, 1.8, Psi.At(0, 0), 1e-12)

	// Residuals are 0.2 x, so Sigma = 0.04 * 14 / 3
	assert.InDelta(t, 0.04*14/3, Sigma.At(0, 0), 1e-12)
}

func TestZeroPenaltyMatchesOLS(t *testing.T) {
	Yt, X := simulatedDesign(t)

	want, wantSigma, err := varutil.OLS(Yt, X)
	require.NoError(t, err)
	got, gotSigma, err := Estimate(Yt, X, 0, 0.5, 1, 1e-13, 10000)
	require.NoError(t, err)

	assert.True(t, mat.EqualApprox(want, got, 1e-8), "Psi:\n%v\n%v", mat.Formatted(want), mat.Formatted(got))
	assert.True(t, mat.EqualApprox(wantSigma, gotSigma, 1e-8))
}

func TestLargePenaltyZeroesEverything(t *testing.T) {
	Yt, X := simulatedDesign(t)

	Psi, Sigma, err := Estimate(Yt, X, 1e7, 1, 1, 1e-10, 1000)
	require.NoError(t, err)
	assert.Zero(t, mat.Norm(Psi, 1))

	// With Psi = 0 the residual covariance is the raw second moment
	var yy mat.Dense
	yy.Mul(Yt, Yt.T())
	_, Treg := Yt.Dims()
	yy.Scale(1/float64(Treg), &yy)
	assert.True(t, mat.EqualApprox(&yy, Sigma, 1e-10))
}

func TestPenaltyShrinks(t *testing.T) {
	Yt, X := simulatedDesign(t)

	small, _, err := Estimate(Yt, X, 1, 0.5, 1, 1e-10, 1000)
	require.NoError(t, err)
	big, _, err := Estimate(Yt, X, 200, 0.5, 1, 1e-10, 1000)
	require.NoError(t, err)

	assert.Less(t, mat.Norm(big, 1), mat.Norm(small, 1))
}

func TestSigmaSymmetricPSD(t *testing.T) {
	Yt, X := simulatedDesign(t)
	_, Sigma, err := Estimate(Yt, X, 5, 0.3, 2, 1e-8, 500)
	require.NoError(t, err)

	var es mat.EigenSym
	require.True(t, es.Factorize(Sigma, false))
	for _, v := range es.Values(nil) {
		assert.GreaterOrEqual(t, v, 0.0)
	}
}

func TestEstimateRejectsBadInput(t *testing.T) {
	Yt := mat.NewDense(2, 5, nil)
	X := mat.NewDense(2, 5, nil)

	cases := map[string]func() error{
		"column mismatch": func() error {
			_, _, err := Estimate(Yt, mat.NewDense(2, 4, nil), 1, 0.5, 1, 1e-6, 10)
			return err
		},
		"rows not multiple": func() error {
			_, _, err := Estimate(Yt, mat.NewDense(3, 5, nil), 1, 0.5, 1, 1e-6, 10)
			return err
		},
		"negative lambda": func() error {
			_, _, err := Estimate(Yt, X, -1, 0.5, 1, 1e-6, 10)
			return err
		},
		"alpha above one": func() error {
			_, _, err := Estimate(Yt, X, 1, 1.5, 1, 1e-6, 10)
			return err
		},
		"beta below one": func() error {
			_, _, err := Estimate(Yt, X, 1, 0.5, 0.5, 1e-6, 10)
			return err
		},
		"no iterations": func() error {
			_, _, err := Estimate(Yt, X, 1, 0.5, 1, 1e-6, 0)
			return err
		},
	}
	for name, fn := range cases {
		t.Run(name, func(t *testing.T) {
			require.ErrorIs(t, fn(), ErrInvalidInput)
		})
	}
}
