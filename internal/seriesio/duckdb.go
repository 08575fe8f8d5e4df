// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: Sparse VAR Estimation with Missing Data via Kalman Smoothing and ECM
// Class: 02-613 at Caregie Mellon University

package seriesio

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	_ "github.com/marcboeker/go-duckdb"
	"gonum.org/v1/gonum/mat"
)

// DuckDBReader loads a wide table (one row per time point, one numeric
// column per series) from a DuckDB database.
type DuckDBReader struct {
	dataSourceName string
	db             *sql.DB
}

func NewDuckDBReader(dataSourceName string) *DuckDBReader {
	return &DuckDBReader{
		dataSourceName: dataSourceName,
	}
}

func (r *DuckDBReader) Connect() error {
	db, err := sql.Open("duckdb", r.dataSourceName)
	if err != nil {
		return fmt.Errorf("sql.Open: %w", err)
	}
	r.db = db
	return nil
}

func (r *DuckDBReader) Close() {
	if r.db != nil {
		_ = r.db.Close()
	}
}

// quoteIdent quotes a SQL identifier.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// LoadSeries reads every column of table as a series, NULL becoming NaN.
// If timeColumn is not empty, rows are ordered by it and it becomes the
// time index instead of a series.
func (r *DuckDBReader) LoadSeries(ctx context.Context, table, timeColumn string) (*TimeSeries, error) {
	if r.db == nil {
		return nil, fmt.Errorf("duckdb reader not connected")
	}

	query := fmt.Sprintf(`SELECT * FROM %s`, quoteIdent(table))
	if timeColumn != "" {
		query += fmt.Sprintf(` ORDER BY %s`, quoteIdent(timeColumn))
	}

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error preparing query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("error reading columns: %w", err)
	}
	timeIdx := -1
	var names []string
	for j, c := range columns {
		if timeColumn != "" && c == timeColumn {
			timeIdx = j
			continue
		}
		names = append(names, c)
	}
	if timeColumn != "" && timeIdx < 0 {
		return nil, fmt.Errorf("time column %q not in table %s", timeColumn, table)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("table %s has no series columns", table)
	}

	var (
		data  []float64
		times []float64
	)
	values := make([]sql.NullFloat64, len(columns))
	var rawTime any
	dest := make([]any, len(columns))
	for j := range dest {
		if j == timeIdx {
			dest[j] = &rawTime
		} else {
			dest[j] = &values[j]
		}
	}

	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		for j, v := range values {
			if j == timeIdx {
				continue
			}
			if v.Valid {
				data = append(data, v.Float64)
			} else {
				data = append(data, math.NaN())
			}
		}
		if timeIdx >= 0 {
			tval, err := timeValue(rawTime)
			if err != nil {
				return nil, err
			}
			times = append(times, tval)
		} else {
			times = append(times, float64(len(times)))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error scanning rows: %w", err)
	}
	if len(times) == 0 {
		return nil, fmt.Errorf("table %s is empty", table)
	}

	return &TimeSeries{
		Y:        mat.NewDense(len(times), len(names), data),
		Time:     times,
		VarNames: names,
	}, nil
}

// timeValue converts a scanned time column to a float: Unix seconds for
// timestamps and dates, the value itself for numbers.
func timeValue(v any) (float64, error) {
	switch t := v.(type) {
	case nil:
		return math.NaN(), nil
	case time.Time:
		return float64(t.Unix()), nil
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case int32:
		return float64(t), nil
	case int16:
		return float64(t), nil
	case int8:
		return float64(t), nil
	case uint64:
		return float64(t), nil
	case uint32:
		return float64(t), nil
	case int:
		return float64(t), nil
	default:
		return math.NaN(), fmt.Errorf("unsupported time column type %T", v)
	}
}
