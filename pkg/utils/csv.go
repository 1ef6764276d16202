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

package utils

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/TFMV/ComBat/pkg/combat"
)

// ReadMatrixCSV loads a sample-major numeric matrix from a CSV file with
// a header row of feature names. Every data row must be fully numeric.
func ReadMatrixCSV(path string) (*mat.Dense, []string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("error opening file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("error reading CSV: %w", err)
	}
	if len(records) < 2 {
		return nil, nil, fmt.Errorf("%s: need a header row and at least one data row", path)
	}

	header := records[0]
	nFeatures := len(header)
	nSamples := len(records) - 1

	data := mat.NewDense(nSamples, nFeatures, nil)
	for r, record := range records[1:] {
		if len(record) != nFeatures {
			return nil, nil, fmt.Errorf("%s: row %d has %d values, expected %d", path, r+1, len(record), nFeatures)
		}
		for c, raw := range record {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, nil, fmt.Errorf("%s: row %d column %q: %w", path, r+1, header[c], err)
			}
			data.Set(r, c, v)
		}
	}
	return data, header, nil
}

// ReadTableCSV loads a labeled covariate table from a CSV file with a
// header row of column names.
func ReadTableCSV(path string) (*combat.Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("error reading CSV: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("%s: need a header row and at least one data row", path)
	}
	return combat.NewTable(records[0], records[1:])
}

// WriteMatrixCSV writes a sample-major matrix to a CSV file, preceded by
// the given header row.
func WriteMatrixCSV(path string, header []string, m *mat.Dense) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("error writing CSV header: %w", err)
	}

	nSamples, nFeatures := m.Dims()
	record := make([]string, nFeatures)
	for s := 0; s < nSamples; s++ {
		for f := 0; f < nFeatures; f++ {
			record[f] = strconv.FormatFloat(m.At(s, f), 'g', -1, 64)
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("error writing CSV row %d: %w", s, err)
		}
	}
	writer.Flush()
	return writer.Error()
}
