// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: Sparse VAR Estimation with Missing Data via Kalman Smoothing and ECM
// Class: 02-613 at Caregie Mellon University

package ecm_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"enetvar/pkg/ecm"
	"enetvar/pkg/simulate"
	"enetvar/pkg/varutil"
)

// fittedResult wraps known parameters in a Result the way Estimate does.
func fittedResult(t *testing.T, Psi *mat.Dense, Sigma *mat.SymDense) *ecm.Result {
	t.Helper()
	n, np := Psi.Dims()
	C, V, err := varutil.ExtendedCompanion(Psi, Sigma)
	require.NoError(t, err)
	P0, err := varutil.Lyapunov(C, V)
	require.NoError(t, err)

	R := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		R.SetSym(i, i, 1e-12)
	}
	spec := ecm.DefaultSpec()
	spec.Lags = np / n

	return &ecm.Result{
		Spec:  spec,
		B:     varutil.SelectionMatrix(n, np+n),
		R:     R,
		C:     C,
		V:     V,
		X0:    mat.NewVecDense(np+n, nil),
		P0:    P0,
		Psi:   Psi,
		Sigma: Sigma,
		T:     150,
	}
}

func identity(n int) *mat.SymDense {
	I := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		I.SetSym(i, i, 1)
	}
	return I
}

func TestCoefficientsSplitByLag(t *testing.T) {
	Psi := mat.NewDense(2, 4, []float64{
		1, 2, 3, 4,
		5, 6, 7, 8,
	})
	res := fittedResult(t, mat.NewDense(2, 4, []float64{0.1, 0, 0, 0, 0, 0.1, 0, 0}), identity(2))
	res.Psi = Psi

	A := res.Coefficients()
	require.Len(t, A, 2)
	assert.Equal(t, []float64{1, 2, 5, 6}, A[0].RawMatrix().Data)
	assert.Equal(t, []float64{3, 4, 7, 8}, A[1].RawMatrix().Data)
}

func TestIRFMatchesMatrixPowers(t *testing.T) {
	A := mat.NewDense(2, 2, []float64{0.5, 0.1, 0, 0.4})
	res := fittedResult(t, A, identity(2))

	irf, err := res.IRF(5, 1)
	require.NoError(t, err)

	for h := 0; h < 5; h++ {
		var Ah mat.Dense
		Ah.Pow(A, h)
		want := mat.Col(nil, 1, &Ah)
		for i := 0; i < 2; i++ {
			assert.InDelta(t, want[i], irf.At(h, i), 1e-12, "h=%d i=%d", h, i)
		}
	}

	_, err = res.IRF(0, 0)
	require.Error(t, err)
	_, err = res.IRF(3, 2)
	require.Error(t, err)
}

func TestIRFSecondOrder(t *testing.T) {
	// Theta_1 = A1, Theta_2 = A1^2 + A2
	Psi := mat.NewDense(2, 4, []float64{
		0.3, 0.1, 0.2, 0,
		0, 0.2, 0.1, 0.1,
	})
	Sigma := mat.NewSymDense(2, []float64{4, 0, 0, 1})
	res := fittedResult(t, Psi, Sigma)
	A := res.Coefficients()

	irf, err := res.IRF(3, 0)
	require.NoError(t, err)

	// Cholesky impact of shock 0 is (2, 0)
	assert.InDelta(t, 2, irf.At(0, 0), 1e-12)
	assert.InDelta(t, 0, irf.At(0, 1), 1e-12)
	assert.InDelta(t, 2*A[0].At(1, 0), irf.At(1, 1), 1e-12)

	var theta2 mat.Dense
	theta2.Mul(A[0], A[0])
	theta2.Add(&theta2, A[1])
	assert.InDelta(t, 2*theta2.At(0, 0), irf.At(2, 0), 1e-12)
	assert.InDelta(t, 2*theta2.At(1, 0), irf.At(2, 1), 1e-12)

	analysis, err := res.RunIRFAnalysis(1, 3)
	require.NoError(t, err)
	require.Len(t, analysis, 2)
	assert.InDelta(t, irf.At(2, 1), analysis[0][2], 1e-12)
}

func TestForecastVAR1(t *testing.T) {
	A := mat.NewDense(2, 2, []float64{0.6, 0.2, -0.1, 0.5})
	Sigma := mat.NewSymDense(2, []float64{1, 0.3, 0.3, 2})
	res := fittedResult(t, A, Sigma)

	Y, err := simulate.VAR(A, Sigma, 60, 20, 5)
	require.NoError(t, err)

	mean, se, err := res.Forecast(Y, 3)
	require.NoError(t, err)

	last := mat.NewVecDense(2, mat.Col(nil, 59, Y))
	var want mat.VecDense
	for h := 0; h < 3; h++ {
		want.MulVec(A, last)
		for i := 0; i < 2; i++ {
			assert.InDelta(t, want.AtVec(i), mean.At(i, h), 1e-6, "h=%d i=%d", h, i)
		}
		last = mat.VecDenseCopyOf(&want)
	}

	// One step ahead the only uncertainty is the innovation
	assert.InDelta(t, 1, se.At(0, 0), 1e-6)
	assert.InDelta(t, math.Sqrt(2), se.At(1, 0), 1e-6)
	for i := 0; i < 2; i++ {
		assert.Greater(t, se.At(i, 2), se.At(i, 0))
	}
}

func TestForecastVAR2WithMissingHistory(t *testing.T) {
	Psi := mat.NewDense(2, 4, []float64{
		0.4, 0, 0.2, 0,
		0, 0.3, 0, 0.2,
	})
	res := fittedResult(t, Psi, identity(2))

	Y, err := simulate.VAR(Psi, identity(2), 40, 20, 8)
	require.NoError(t, err)

	mean, _, err := res.Forecast(Y, 1)
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		want := 0.4*Y.At(i, 39) + 0.2*Y.At(i, 38)
		if i == 1 {
			want = 0.3*Y.At(i, 39) + 0.2*Y.At(i, 38)
		}
		assert.InDelta(t, want, mean.At(i, 0), 1e-6)
	}

	Y.Set(0, 39, math.NaN())
	mean, se, err := res.Forecast(Y, 2)
	require.NoError(t, err)
	requireFinite(t, mean)
	requireFinite(t, se)
	// The missing value widens the first-step band of series 0
	assert.Greater(t, se.At(0, 0), 1.0)

	_, _, err = res.Forecast(mat.NewDense(3, 10, nil), 1)
	require.Error(t, err)
	_, _, err = res.Forecast(Y, 0)
	require.Error(t, err)
}

func TestNetwork(t *testing.T) {
	Psi := mat.NewDense(3, 6, []float64{
		0.5, 0, 0.2, 0, 0, 0,
		0.1, 0.4, 0, -0.3, 0, 0,
		0, 0, 0.3, 0, 0, 0,
	})
	res := fittedResult(t, Psi, identity(3))

	edges := res.Network()
	require.Len(t, edges, 2)

	assert.Equal(t, ecm.Edge{Cause: 2, Effect: 0, Lags: []int{1}, Weight: 0.2}, edges[0])
	assert.Equal(t, 0, edges[1].Cause)
	assert.Equal(t, 1, edges[1].Effect)
	assert.Equal(t, []int{1, 2}, edges[1].Lags)
	assert.InDelta(t, 0.4, edges[1].Weight, 1e-12)
}

func TestAnalysisOnEmptyResult(t *testing.T) {
	var res ecm.Result
	_, err := res.IRF(3, 0)
	require.ErrorIs(t, err, ecm.ErrNotEstimated)
	_, _, err = res.Forecast(mat.NewDense(2, 3, nil), 1)
	require.ErrorIs(t, err, ecm.ErrNotEstimated)
	_, err = res.BootstrapIRF(ecm.BootstrapOptions{})
	require.ErrorIs(t, err, ecm.ErrNotEstimated)
}

func TestBootstrapIRF(t *testing.T) {
	A := mat.NewDense(2, 2, []float64{0.5, 0.1, 0, 0.4})
	res := fittedResult(t, A, identity(2))
	opts := ecm.BootstrapOptions{NReplications: 24, Horizon: 4, Alpha: 0.1, Seed: 3, Workers: 4}

	bands, err := res.BootstrapIRF(opts)
	require.NoError(t, err)
	require.Len(t, bands, 2)

	again, err := res.BootstrapIRF(opts)
	require.NoError(t, err)

	for s, band := range bands {
		assert.Equal(t, s, band.ShockIndex)
		r, c := band.Point.Dims()
		assert.Equal(t, 4, r)
		assert.Equal(t, 2, c)
		for h := 0; h < 4; h++ {
			for j := 0; j < 2; j++ {
				assert.LessOrEqual(t, band.Lower.At(h, j), band.Upper.At(h, j))
			}
		}
		assert.True(t, mat.Equal(band.Lower, again[s].Lower))
		assert.True(t, mat.Equal(band.Upper, again[s].Upper))
	}

	// The own response at h=1 should be bracketed by a 90% band
	own := bands[0]
	assert.LessOrEqual(t, own.Lower.At(1, 0), own.Point.At(1, 0))
	assert.GreaterOrEqual(t, own.Upper.At(1, 0), own.Point.At(1, 0))
}
