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
	"math"

	"gonum.org/v1/gonum/mat"
)

// adjustDataFinal removes the shrunk batch effects from the standardized
// data and undoes the global standardization. Results land in a freshly
// allocated buffer so the standardized data is never aliased.
func adjustDataFinal(sData, design, gammaStar, deltaStar, standMean *mat.Dense, varPooled []float64, info *BatchInfo) *mat.Dense {
	nFeatures, nSamples := sData.Dims()
	nBatch := info.NumBatches()
	out := mat.NewDense(nFeatures, nSamples, nil)

	for b, idx := range info.Batches {
		for _, s := range idx {
			for f := 0; f < nFeatures; f++ {
				// Fitted location effect for this sample: its batch-design
				// row times gamma_star.
				var fit float64
				for k := 0; k < nBatch; k++ {
					fit += design.At(s, k) * gammaStar.At(k, f)
				}
				out.Set(f, s, (sData.At(f, s)-fit)/math.Sqrt(deltaStar.At(b, f)))
			}
		}
	}

	for f := 0; f < nFeatures; f++ {
		sd := math.Sqrt(varPooled[f])
		for s := 0; s < nSamples; s++ {
			out.Set(f, s, out.At(f, s)*sd+standMean.At(f, s))
		}
	}
	return out
}
