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

package combat

import (
	"fmt"
	"sort"
)

// Table is a labeled covariate table: one named column per covariate, all
// columns covering the same set of samples. Values are kept as strings;
// the caller declares which columns are discrete and which are continuous
// when running the correction. A Table is immutable once built.
type Table struct {
	names []string
	cols  [][]string
}

// NewTable builds a Table from a header and row-major records, one record
// per sample. Every record must have exactly one value per named column.
func NewTable(names []string, rows [][]string) (*Table, error) {
	if len(names) == 0 {
		return nil, &InputTypeError{Reason: "covariate table has no column names"}
	}
	cols := make([][]string, len(names))
	for i := range cols {
		cols[i] = make([]string, len(rows))
	}
	for r, row := range rows {
		if len(row) != len(names) {
			return nil, &InputTypeError{Reason: fmt.Sprintf("row %d has %d values, expected %d", r, len(row), len(names))}
		}
		for c, v := range row {
			cols[c][r] = v
		}
	}
	return &Table{names: names, cols: cols}, nil
}

// Names returns the column names in declaration order.
func (t *Table) Names() []string { return t.names }

// NumSamples returns the number of rows in the table.
func (t *Table) NumSamples() int {
	if len(t.cols) == 0 {
		return 0
	}
	return len(t.cols[0])
}

// Column returns the named column and whether it exists.
func (t *Table) Column(name string) ([]string, bool) {
	for i, n := range t.names {
		if n == name {
			return t.cols[i], true
		}
	}
	return nil, false
}

// BatchInfo summarizes the batch partition of the samples: the sorted
// original labels, the per-batch sample counts and the per-batch sample
// indices. The index lists partition 0..S-1, every sample in exactly one
// batch.
type BatchInfo struct {
	Levels  []string
	Counts  []int
	Batches [][]int

	nSamples int
}

// NumBatches returns the number of distinct batches.
func (b *BatchInfo) NumBatches() int { return len(b.Levels) }

// NumSamples returns the total number of samples across all batches.
func (b *BatchInfo) NumSamples() int { return b.nSamples }

// encodeLabels maps a label column to dense 0..L-1 integer codes. Codes
// follow the sorted order of the distinct labels, so the coding does not
// depend on first occurrence.
func encodeLabels(values []string) ([]int, []string) {
	seen := make(map[string]struct{}, len(values))
	var levels []string
	for _, v := range values {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			levels = append(levels, v)
		}
	}
	sort.Strings(levels)

	index := make(map[string]int, len(levels))
	for i, l := range levels {
		index[l] = i
	}
	codes := make([]int, len(values))
	for i, v := range values {
		codes[i] = index[v]
	}
	return codes, levels
}

// newBatchInfo builds the batch partition from encoded batch labels.
// Variance estimation needs at least two samples per batch, so a
// singleton batch is rejected.
func newBatchInfo(codes []int, levels []string) (*BatchInfo, error) {
	counts := make([]int, len(levels))
	batches := make([][]int, len(levels))
	for i, code := range codes {
		counts[code]++
		batches[code] = append(batches[code], i)
	}
	for b, count := range counts {
		if count < 2 {
			return nil, &SingletonBatchError{Level: levels[b], Count: count}
		}
	}
	return &BatchInfo{Levels: levels, Counts: counts, Batches: batches, nSamples: len(codes)}, nil
}

// normalizeInput validates the covariate table against the requested
// columns and builds the batch coding and partition.
func normalizeInput(covars *Table, p Params, nSamples int) ([]int, *BatchInfo, error) {
	if covars == nil {
		return nil, nil, &InputTypeError{Reason: "covariates must be a labeled *combat.Table, got nil"}
	}
	if covars.NumSamples() != nSamples {
		return nil, nil, &InputTypeError{Reason: fmt.Sprintf("covariate table has %d rows, data has %d samples", covars.NumSamples(), nSamples)}
	}
	batchCol, ok := covars.Column(p.BatchColumn)
	if !ok {
		return nil, nil, &InputTypeError{Reason: fmt.Sprintf("batch column %q not found", p.BatchColumn)}
	}
	for _, name := range p.DiscreteCols {
		if _, ok := covars.Column(name); !ok {
			return nil, nil, &InputTypeError{Reason: fmt.Sprintf("discrete covariate column %q not found", name)}
		}
	}
	for _, name := range p.ContinuousCols {
		if _, ok := covars.Column(name); !ok {
			return nil, nil, &InputTypeError{Reason: fmt.Sprintf("continuous covariate column %q not found", name)}
		}
	}

	codes, levels := encodeLabels(batchCol)
	info, err := newBatchInfo(codes, levels)
	if err != nil {
		return nil, nil, err
	}
	return codes, info, nil
}
