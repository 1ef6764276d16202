// --------------------------------------------------------------------------------
// Author: Thomas F McGeehan V
//
// This file is part of a software project developed by Thomas F McGeehan V.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.
//
// For more information about the MIT License, please visit:
// https://opensource.org/licenses/MIT
//
// Acknowledgment appreciated but not required.
// --------------------------------------------------------------------------------

package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"gonum.org/v1/gonum/mat"

	"github.com/TFMV/ComBat/pkg/combat"
)

// LoadFeatures runs the given query and returns the result as a
// sample-major matrix, one row per returned record. Every selected
// column must be numeric.
func LoadFeatures(ctx context.Context, pool *pgxpool.Pool, query string) (*mat.Dense, []string, error) {
	rows, err := pool.Query(ctx, query)
	if err != nil {
		return nil, nil, fmt.Errorf("feature query failed: %w", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	names := make([]string, len(fields))
	for i, fd := range fields {
		names[i] = string(fd.Name)
	}

	var data []float64
	nSamples := 0
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, nil, fmt.Errorf("reading feature row: %w", err)
		}
		for i, v := range values {
			f, err := toFloat(v)
			if err != nil {
				return nil, nil, fmt.Errorf("feature column %q: %w", names[i], err)
			}
			data = append(data, f)
		}
		nSamples++
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("feature query failed: %w", err)
	}
	if nSamples == 0 {
		return nil, nil, fmt.Errorf("feature query returned no rows")
	}
	return mat.NewDense(nSamples, len(names), data), names, nil
}

// LoadCovariates runs the given query and returns the result as a labeled
// covariate table; every value is kept in its string form.
func LoadCovariates(ctx context.Context, pool *pgxpool.Pool, query string) (*combat.Table, error) {
	rows, err := pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("covariate query failed: %w", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	names := make([]string, len(fields))
	for i, fd := range fields {
		names[i] = string(fd.Name)
	}

	var records [][]string
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("reading covariate row: %w", err)
		}
		record := make([]string, len(values))
		for i, v := range values {
			record[i] = fmt.Sprint(v)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("covariate query failed: %w", err)
	}
	return combat.NewTable(names, records)
}

// matrixSource streams the rows of a sample-major matrix, implementing
// the pgx.CopyFromSource interface.
type matrixSource struct {
	m   *mat.Dense
	row int
}

func (s *matrixSource) Next() bool {
	nSamples, _ := s.m.Dims()
	s.row++
	return s.row < nSamples
}

func (s *matrixSource) Values() ([]interface{}, error) {
	_, nFeatures := s.m.Dims()
	values := make([]interface{}, nFeatures)
	for f := 0; f < nFeatures; f++ {
		values[f] = s.m.At(s.row, f)
	}
	return values, nil
}

func (s *matrixSource) Err() error {
	return nil
}

// SaveCorrected bulk-copies a corrected sample-major matrix into the
// given table, one column per feature name.
func SaveCorrected(ctx context.Context, pool *pgxpool.Pool, table string, columns []string, m *mat.Dense) error {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("unable to acquire a connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.CopyFrom(ctx, pgx.Identifier{table}, columns, &matrixSource{m: m, row: -1})
	if err != nil {
		return fmt.Errorf("copy to %s failed: %w", table, err)
	}
	return nil
}

// toFloat coerces the numeric types pgx hands back into float64.
func toFloat(v interface{}) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case int16:
		return float64(x), nil
	default:
		return 0, fmt.Errorf("unsupported value type %T", v)
	}
}
