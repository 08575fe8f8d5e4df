// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: Sparse VAR Estimation with Missing Data via Kalman Smoothing and ECM
// Class: 02-613 at Caregie Mellon University

package varutil

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// GrangerResult is the outcome of an F test that the lags of Cause do not
// enter the unpenalized VAR equation of Effect.
type GrangerResult struct {
	Cause, Effect int
	FStatistic    float64
	PValue        float64
	// Restrictions tested, equal to the lag order
	Lags int
}

// Significant reports whether the null is rejected at level alpha.
func (g *GrangerResult) Significant(alpha float64) bool {
	return g.PValue < alpha
}

// rss returns the residual sum of squares of the OLS fit y ≈ b X.
func rss(y, X mat.Matrix) (float64, error) {
	_, Treg := y.Dims()
	_, sigma, err := OLS(y, X)
	if err != nil {
		return 0, err
	}
	return sigma.At(0, 0) * float64(Treg), nil
}

// dropRows returns X without the rows whose index is in drop.
func dropRows(X mat.Matrix, drop map[int]bool) *mat.Dense {
	r, c := X.Dims()
	out := mat.NewDense(r-len(drop), c, nil)
	k := 0
	for i := 0; i < r; i++ {
		if drop[i] {
			continue
		}
		for t := 0; t < c; t++ {
			out.Set(k, t, X.At(i, t))
		}
		k++
	}
	return out
}

// GrangerCausality tests whether series cause Granger-causes series effect
// in a VAR(p) fitted by OLS to Y (n x T, no missing values).
func GrangerCausality(Y mat.Matrix, p, cause, effect int) (*GrangerResult, error) {
	n, _ := Y.Dims()
	if cause < 0 || cause >= n || effect < 0 || effect >= n {
		return nil, fmt.Errorf("%w: series index out of range", ErrDimensionMismatch)
	}
	if cause == effect {
		return nil, fmt.Errorf("cause and effect cannot be the same series")
	}
	Yt, X, err := Lag(Y, p)
	if err != nil {
		return nil, err
	}
	return granger(Yt, X, n, p, cause, effect)
}

func granger(Yt, X *mat.Dense, n, p, cause, effect int) (*GrangerResult, error) {
	_, Treg := Yt.Dims()
	y := Yt.Slice(effect, effect+1, 0, Treg)

	// Unrestricted: every lag of every series
	rssU, err := rss(y, X)
	if err != nil {
		return nil, fmt.Errorf("unrestricted OLS: %w", err)
	}

	// Restricted: drop all lags of cause
	drop := make(map[int]bool, p)
	for j := 0; j < p; j++ {
		drop[j*n+cause] = true
	}
	rssR, err := rss(y, dropRows(X, drop))
	if err != nil {
		return nil, fmt.Errorf("restricted OLS: %w", err)
	}

	q := float64(p)
	dof := float64(Treg - n*p)
	if dof <= 0 {
		return nil, fmt.Errorf("%w: insufficient degrees of freedom %g", ErrInvalidLag, dof)
	}

	res := &GrangerResult{Cause: cause, Effect: effect, Lags: p, PValue: 1}

	// rssR >= rssU up to rounding
	num := math.Max(rssR-rssU, 0)
	den := rssU / dof
	if den <= 0 || num == 0 {
		return res, nil
	}
	f := (num / q) / den
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return res, nil
	}
	res.FStatistic = f
	res.PValue = math.Min(math.Max(distuv.F{D1: q, D2: dof}.Survival(f), 0), 1)
	return res, nil
}

// GrangerMatrix runs GrangerCausality for every ordered pair of distinct
// series. Entry [cause][effect] holds the result, the diagonal is nil.
func GrangerMatrix(Y mat.Matrix, p int) ([][]*GrangerResult, error) {
	n, _ := Y.Dims()
	Yt, X, err := Lag(Y, p)
	if err != nil {
		return nil, err
	}

	results := make([][]*GrangerResult, n)
	for i := range results {
		results[i] = make([]*GrangerResult, n)
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			if results[i][j], err = granger(Yt, X, n, p, i, j); err != nil {
				return nil, fmt.Errorf("granger %d -> %d: %w", i, j, err)
			}
		}
	}
	return results, nil
}
