// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: Sparse VAR Estimation with Missing Data via Kalman Smoothing and ECM
// Class: 02-613 at Caregie Mellon University

package seriesio

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"enetvar/pkg/ecm"
	"enetvar/pkg/varutil"
)

// LoadCSVToTimeSeries loads a CSV file with a header row into a TimeSeries.
// If timeColumn names a header field, that column becomes the time index;
// every other column is a series.
func LoadCSVToTimeSeries(path, timeColumn string) (*TimeSeries, error) {
	// 1. Open file
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	ts, err := ReadCSV(f, timeColumn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ts, nil
}

// ReadCSV parses CSV data in the LoadCSVToTimeSeries format.
func ReadCSV(in io.Reader, timeColumn string) (*TimeSeries, error) {
	// 2. Make CSV reader
	r := csv.NewReader(in)
	r.TrimLeadingSpace = true

	// 3. Read header row
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	timeIdx := -1
	var names []string
	for j, h := range header {
		h = strings.TrimSpace(h)
		if timeColumn != "" && h == timeColumn {
			timeIdx = j
			continue
		}
		names = append(names, h)
	}
	if timeColumn != "" && timeIdx < 0 {
		return nil, fmt.Errorf("time column %q not in header", timeColumn)
	}
	K := len(names)
	if K == 0 {
		return nil, fmt.Errorf("no series columns in header")
	}

	var (
		data  []float64 // flat data for mat.Dense
		times []float64 // time index
		row   int       // row counter
	)

	// 4. Read each data row
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", row+2, err) // +2 for header + 1-based
		}
		if len(record) == 1 && record[0] == "" {
			continue
		}
		if len(record) != len(header) {
			return nil, fmt.Errorf("row %d: expected %d columns, got %d", row+2, len(header), len(record))
		}

		tval := float64(row)
		for j, s := range record {
			v, err := parseValue(s)
			if err != nil {
				return nil, fmt.Errorf("parse float at row %d col %d (%q): %w", row+2, j+1, s, err)
			}
			if j == timeIdx {
				tval = v
				continue
			}
			data = append(data, v)
		}
		times = append(times, tval)
		row++
	}

	if row == 0 {
		return nil, fmt.Errorf("no data rows")
	}

	// 5. Build TimeSeries
	return &TimeSeries{
		Y:        mat.NewDense(row, K, data),
		Time:     times,
		VarNames: names,
	}, nil
}

// writeCSV writes a header and records to path.
func writeCSV(path string, header []string, records [][]string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(header); err != nil {
		return err
	}
	if err := writer.WriteAll(records); err != nil {
		return err
	}
	return file.Close()
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return "NA"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func nameOf(names []string, j int) string {
	if j < len(names) {
		return names[j]
	}
	return fmt.Sprintf("Var%d", j+1)
}

// WriteTimeSeriesCSV writes ts in the format read by LoadCSVToTimeSeries,
// with a leading time column.
func WriteTimeSeriesCSV(path string, ts *TimeSeries) error {
	T, n := ts.Dims()
	header := append([]string{"time"}, ts.VarNames...)
	records := make([][]string, T)
	for i := 0; i < T; i++ {
		rec := make([]string, 0, n+1)
		tval := float64(i)
		if i < len(ts.Time) {
			tval = ts.Time[i]
		}
		rec = append(rec, formatFloat(tval))
		for j := 0; j < n; j++ {
			rec = append(rec, formatFloat(ts.Y.At(i, j)))
		}
		records[i] = rec
	}
	return writeCSV(path, header, records)
}

// WriteCoefficientsCSV writes A_1 ... A_p in long format.
// Columns: Lag, Effect, Cause, Coefficient
func WriteCoefficientsCSV(path string, A []*mat.Dense, varNames []string) error {
	var records [][]string
	for l, Al := range A {
		n, _ := Al.Dims()
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				records = append(records, []string{
					strconv.Itoa(l + 1),
					nameOf(varNames, i),
					nameOf(varNames, j),
					formatFloat(Al.At(i, j)),
				})
			}
		}
	}
	return writeCSV(path, []string{"Lag", "Effect", "Cause", "Coefficient"}, records)
}

// WriteMatrixCSV writes a square matrix indexed by series on both axes.
func WriteMatrixCSV(path string, m mat.Matrix, varNames []string) error {
	r, c := m.Dims()
	header := []string{""}
	for j := 0; j < c; j++ {
		header = append(header, nameOf(varNames, j))
	}
	records := make([][]string, r)
	for i := 0; i < r; i++ {
		rec := []string{nameOf(varNames, i)}
		for j := 0; j < c; j++ {
			rec = append(rec, formatFloat(m.At(i, j)))
		}
		records[i] = rec
	}
	return writeCSV(path, header, records)
}

// WriteForecastCSV writes forecasts (n x steps means and standard errors).
// Columns: Step, Series, Mean, StdErr
func WriteForecastCSV(path string, mean, se mat.Matrix, varNames []string) error {
	n, steps := mean.Dims()
	var records [][]string
	for h := 0; h < steps; h++ {
		for i := 0; i < n; i++ {
			records = append(records, []string{
				strconv.Itoa(h + 1),
				nameOf(varNames, i),
				formatFloat(mean.At(i, h)),
				formatFloat(se.At(i, h)),
			})
		}
	}
	return writeCSV(path, []string{"Step", "Series", "Mean", "StdErr"}, records)
}

// WriteIRFAnalysisCSV writes the response of one series to every shock.
// Columns: Horizon, Shock_<name>...
func WriteIRFAnalysisCSV(path string, analysis map[int][]float64, varNames []string) error {
	shocks := make([]int, 0, len(analysis))
	for s := range analysis {
		shocks = append(shocks, s)
	}
	sort.Ints(shocks)

	header := []string{"Horizon"}
	var horizon int
	for _, s := range shocks {
		header = append(header, "Shock_"+nameOf(varNames, s))
		horizon = len(analysis[s])
	}

	records := make([][]string, horizon)
	for h := 0; h < horizon; h++ {
		rec := []string{strconv.Itoa(h)}
		for _, s := range shocks {
			rec = append(rec, formatFloat(analysis[s][h]))
		}
		records[h] = rec
	}
	return writeCSV(path, header, records)
}

// WriteBootstrapIRFCSV writes bootstrap IRF bands in long format.
// Columns: ShockVar, ResponseVar, Horizon, Point, Lower, Upper
func WriteBootstrapIRFCSV(path string, bands map[int]*ecm.IRFBand, varNames []string) error {
	shocks := make([]int, 0, len(bands))
	for s := range bands {
		shocks = append(shocks, s)
	}
	sort.Ints(shocks)

	var records [][]string
	for _, s := range shocks {
		band := bands[s]
		H, K := band.Point.Dims()
		for j := 0; j < K; j++ {
			for h := 0; h < H; h++ {
				records = append(records, []string{
					nameOf(varNames, s),
					nameOf(varNames, j),
					strconv.Itoa(h),
					formatFloat(band.Point.At(h, j)),
					formatFloat(band.Lower.At(h, j)),
					formatFloat(band.Upper.At(h, j)),
				})
			}
		}
	}
	return writeCSV(path, []string{"ShockVar", "ResponseVar", "Horizon", "Point", "Lower", "Upper"}, records)
}

// WriteNetworkCSV writes the sparsity network.
// Columns: Cause, Effect, Lags, Weight
func WriteNetworkCSV(path string, edges []ecm.Edge, varNames []string) error {
	records := make([][]string, len(edges))
	for k, e := range edges {
		lags := make([]string, len(e.Lags))
		for i, l := range e.Lags {
			lags[i] = strconv.Itoa(l)
		}
		records[k] = []string{
			nameOf(varNames, e.Cause),
			nameOf(varNames, e.Effect),
			strings.Join(lags, ";"),
			formatFloat(e.Weight),
		}
	}
	return writeCSV(path, []string{"Cause", "Effect", "Lags", "Weight"}, records)
}

// WriteGrangerCSV writes the pairwise Granger causality tests.
// Columns: CauseVar, EffectVar, FStatistic, PValue, Lags, Significant
func WriteGrangerCSV(path string, results [][]*varutil.GrangerResult, varNames []string, alpha float64) error {
	var records [][]string
	for _, row := range results {
		for _, g := range row {
			if g == nil {
				continue
			}
			records = append(records, []string{
				nameOf(varNames, g.Cause),
				nameOf(varNames, g.Effect),
				formatFloat(g.FStatistic),
				formatFloat(g.PValue),
				strconv.Itoa(g.Lags),
				strconv.FormatBool(g.Significant(alpha)),
			})
		}
	}
	return writeCSV(path, []string{"CauseVar", "EffectVar", "FStatistic", "PValue", "Lags", "Significant"}, records)
}
