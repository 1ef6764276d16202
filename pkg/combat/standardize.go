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

// pooledStats holds the outputs of the standardization stage.
type pooledStats struct {
	standardized *mat.Dense // features x samples, z-scored against the pooled fit
	standMean    *mat.Dense // features x samples centering target
	varPooled    []float64  // per-feature pooled variance
}

// solveLeastSquares returns the OLS coefficients (DtD)^-1 Dt Y, one column
// of coefficients per column of Y. A singular normal matrix surfaces as a
// SingularDesignError instead of silently propagating NaNs.
func solveLeastSquares(design, y mat.Matrix) (*mat.Dense, error) {
	var dtd mat.Dense
	dtd.Mul(design.T(), design)

	var inv mat.Dense
	if err := inv.Inverse(&dtd); err != nil {
		return nil, &SingularDesignError{Err: err}
	}

	var dty mat.Dense
	dty.Mul(design.T(), y)

	var beta mat.Dense
	beta.Mul(&inv, &dty)
	return &beta, nil
}

// standardizeAcrossFeatures fits the data against the full design, then
// centers every feature on its batch-averaged fit and scales it by the
// pooled variance. The grand mean weights each batch coefficient by that
// batch's sample share, so batch effects are averaged out rather than
// dropped. Pooled variance uses the population denominator S.
func standardizeAcrossFeatures(x *mat.Dense, design *mat.Dense, info *BatchInfo) (*pooledStats, error) {
	nFeatures, nSamples := x.Dims()
	nBatch := info.NumBatches()

	bHat, err := solveLeastSquares(design, x.T())
	if err != nil {
		return nil, err
	}

	grandMean := make([]float64, nFeatures)
	for b := 0; b < nBatch; b++ {
		w := float64(info.Counts[b]) / float64(nSamples)
		for f := 0; f < nFeatures; f++ {
			grandMean[f] += w * bHat.At(b, f)
		}
	}

	var fitted mat.Dense
	fitted.Mul(design, bHat)
	varPooled := make([]float64, nFeatures)
	for f := 0; f < nFeatures; f++ {
		var ss float64
		for s := 0; s < nSamples; s++ {
			r := x.At(f, s) - fitted.At(s, f)
			ss += r * r
		}
		varPooled[f] = ss / float64(nSamples)
	}

	// Covariate-only contribution: the fit with the batch block zeroed.
	covarDesign := mat.DenseCopyOf(design)
	for s := 0; s < nSamples; s++ {
		for b := 0; b < nBatch; b++ {
			covarDesign.Set(s, b, 0)
		}
	}
	var covarFit mat.Dense
	covarFit.Mul(covarDesign, bHat)

	standMean := mat.NewDense(nFeatures, nSamples, nil)
	standardized := mat.NewDense(nFeatures, nSamples, nil)
	for f := 0; f < nFeatures; f++ {
		sd := math.Sqrt(varPooled[f])
		for s := 0; s < nSamples; s++ {
			m := grandMean[f] + covarFit.At(s, f)
			standMean.Set(f, s, m)
			standardized.Set(f, s, (x.At(f, s)-m)/sd)
		}
	}

	return &pooledStats{standardized: standardized, standMean: standMean, varPooled: varPooled}, nil
}
