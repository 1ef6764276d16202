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
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// buildDesignMatrix assembles the regression design, one row per sample.
// Column layout is fixed: a full one-hot block for batch (no reference
// level dropped, so the block spans an implicit intercept), then a
// reference-coded one-hot block per discrete covariate (first level
// dropped to stay full rank against the batch block), then the raw
// continuous columns, in declaration order.
func buildDesignMatrix(covars *Table, batchCodes []int, nBatch int, discrete, continuous []string) (*mat.Dense, error) {
	nSamples := len(batchCodes)

	type coding struct {
		codes  []int
		levels int
	}
	discreteCodings := make([]coding, 0, len(discrete))
	width := nBatch
	for _, name := range discrete {
		col, _ := covars.Column(name)
		codes, levels := encodeLabels(col)
		discreteCodings = append(discreteCodings, coding{codes: codes, levels: len(levels)})
		width += len(levels) - 1
	}

	numeric := make([][]float64, 0, len(continuous))
	for _, name := range continuous {
		col, _ := covars.Column(name)
		vals := make([]float64, nSamples)
		for i, raw := range col {
			v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
			if err != nil {
				return nil, &InputTypeError{Reason: fmt.Sprintf("continuous covariate %q is not numeric at row %d: %q", name, i, raw)}
			}
			vals[i] = v
		}
		numeric = append(numeric, vals)
		width++
	}

	design := mat.NewDense(nSamples, width, nil)
	for i, code := range batchCodes {
		design.Set(i, code, 1)
	}
	col := nBatch
	for _, dc := range discreteCodings {
		for i, code := range dc.codes {
			if code > 0 {
				design.Set(i, col+code-1, 1)
			}
		}
		col += dc.levels - 1
	}
	for _, vals := range numeric {
		design.SetCol(col, vals)
		col++
	}
	return design, nil
}
