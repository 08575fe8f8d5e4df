// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: Sparse VAR Estimation with Missing Data via Kalman Smoothing and ECM
// Class: 02-613 at Caregie Mellon University

package seriesio

import (
	"fmt"
	"io"
	"strings"

	"gonum.org/v1/gonum/mat"

	"enetvar/pkg/ecm"
	"enetvar/pkg/varutil"
)

// PrintCoefficients writes A_1 ... A_p and Sigma.
func PrintCoefficients(w io.Writer, res *ecm.Result) {
	for i, Ai := range res.Coefficients() {
		fmt.Fprintf(w, "\n=== A_%d ===\n", i+1)
		fmt.Fprintf(w, "%v\n", mat.Formatted(Ai, mat.Prefix(" ")))
	}

	fmt.Fprintln(w, "\n=== Covariance Matrix Σ ===")
	fmt.Fprintf(w, "%v\n", mat.Formatted(res.Sigma, mat.Prefix(" ")))
}

// PrintForecast writes forecast means with standard errors, one row per step.
func PrintForecast(w io.Writer, mean, se mat.Matrix, varNames []string) {
	n, steps := mean.Dims()

	fmt.Fprintln(w, "\n=== Forecast ===")
	fmt.Fprintf(w, "h\t")
	for i := 0; i < n; i++ {
		fmt.Fprintf(w, "%22s", nameOf(varNames, i))
	}
	fmt.Fprintln(w)

	for h := 0; h < steps; h++ {
		fmt.Fprintf(w, "%d\t", h+1)
		for i := 0; i < n; i++ {
			fmt.Fprintf(w, "%12.4f (%7.4f)", mean.At(i, h), se.At(i, h))
		}
		fmt.Fprintln(w)
	}
}

// PrintIRF writes the horizon x n response matrix to a shock in shockIndex.
func PrintIRF(w io.Writer, irf mat.Matrix, varNames []string, shockIndex int) {
	rows, cols := irf.Dims()

	fmt.Fprintf(w, "\n=== Impulse Response Function ===\n")
	fmt.Fprintf(w, "Shock to variable %d (%s)\n\n", shockIndex, nameOf(varNames, shockIndex))

	// Header
	fmt.Fprintf(w, "h\t")
	for j := 0; j < cols; j++ {
		fmt.Fprintf(w, "%12s", nameOf(varNames, j))
	}
	fmt.Fprintln(w)

	for h := 0; h < rows; h++ {
		fmt.Fprintf(w, "%d\t", h)
		for j := 0; j < cols; j++ {
			fmt.Fprintf(w, "%12.6f", irf.At(h, j))
		}
		fmt.Fprintln(w)
	}
}

// PrintNetwork writes the nonzero cross-series links.
func PrintNetwork(w io.Writer, edges []ecm.Edge, varNames []string) {
	fmt.Fprintln(w, "\n=== Sparsity Network ===")
	if len(edges) == 0 {
		fmt.Fprintln(w, "No cross-series links")
		return
	}
	fmt.Fprintf(w, "%-20s -> %-20s | %-10s | Weight\n", "Cause", "Effect", "Lags")
	fmt.Fprintln(w, strings.Repeat("-", 68))
	for _, e := range edges {
		lags := make([]string, len(e.Lags))
		for i, l := range e.Lags {
			lags[i] = fmt.Sprint(l)
		}
		fmt.Fprintf(w, "%-20s -> %-20s | %-10s | %.6f\n",
			nameOf(varNames, e.Cause),
			nameOf(varNames, e.Effect),
			strings.Join(lags, ","),
			e.Weight)
	}
}

// PrintGrangerCausality writes the pairwise Granger causality tests.
func PrintGrangerCausality(w io.Writer, results [][]*varutil.GrangerResult, varNames []string, alpha float64) {
	fmt.Fprintln(w, "\n=== Granger Causality Test Results ===")
	fmt.Fprintln(w, "Null Hypothesis: Variable X does NOT Granger-cause Variable Y")
	fmt.Fprintf(w, "Significance level: α = %g\n\n", alpha)

	fmt.Fprintf(w, "%-20s -> %-20s | F-Statistic | P-Value  | Conclusion\n", "Cause", "Effect")
	fmt.Fprintln(w, strings.Repeat("-", 84))
	for _, row := range results {
		for _, g := range row {
			if g == nil {
				continue
			}
			conclusion := "No causality"
			if g.Significant(alpha) {
				conclusion = "GRANGER-CAUSES"
			}
			fmt.Fprintf(w, "%-20s -> %-20s | %11.4f | %8.6f | %s\n",
				nameOf(varNames, g.Cause),
				nameOf(varNames, g.Effect),
				g.FStatistic,
				g.PValue,
				conclusion)
		}
	}
	fmt.Fprintln(w)
}

// Summary writes a table of the fitted model.
func Summary(w io.Writer, res *ecm.Result, ts *TimeSeries) {
	if res == nil || res.Psi == nil {
		fmt.Fprintln(w, "VAR model is nil")
		return
	}
	fmt.Fprintln(w, "       Elastic-net VAR Summary      ")

	n, p := res.Dims()
	fmt.Fprintf(w, "Number of variables (n): %d\n", n)
	fmt.Fprintf(w, "Lag order (p):           %d\n", p)
	fmt.Fprintf(w, "Sample size (T):         %d\n", res.T)
	if ts != nil {
		fmt.Fprintf(w, "Missing observations:    %d\n", ts.Missing())
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Penalty:")
	fmt.Fprintf(w, "  lambda: %g\n", res.Spec.Lambda)
	fmt.Fprintf(w, "  alpha:  %g\n", res.Spec.Alpha)
	fmt.Fprintf(w, "  beta:   %g\n", res.Spec.Beta)
	fmt.Fprintln(w)

	if ts != nil && len(ts.VarNames) > 0 {
		fmt.Fprintln(w, "Variables:")
		fmt.Fprintf(w, "  %s\n", strings.Join(ts.VarNames, ", "))
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "Estimation:")
	fmt.Fprintf(w, "  Converged:  %v\n", res.Converged)
	fmt.Fprintf(w, "  Iterations: %d\n", res.Iterations)
	if k := len(res.PenalizedLogLik); k > 0 {
		fmt.Fprintf(w, "  Penalized log-likelihood: %.6f\n", res.PenalizedLogLik[k-1])
	}
	fmt.Fprintln(w)

	r, c := res.Psi.Dims()
	nonzero := 0
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if res.Psi.At(i, j) != 0 {
				nonzero++
			}
		}
	}
	fmt.Fprintf(w, "Nonzero coefficients: %d of %d\n", nonzero, r*c)

	fmt.Fprintln(w, "\nCoefficient matrices A_1 ... A_p:")
	for i, Ai := range res.Coefficients() {
		fmt.Fprintf(w, "\nA_%d =\n", i+1)
		fmt.Fprintf(w, "%v\n", mat.Formatted(Ai, mat.Prefix("  ")))
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Innovation covariance matrix Σ:")
	fmt.Fprintf(w, "%v\n", mat.Formatted(res.Sigma, mat.Prefix("  ")))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=======================================")
}
