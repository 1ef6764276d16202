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
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// lsPriors holds the per-batch location/scale estimates on the
// standardized data and the empirical-Bayes hyperpriors pooled across
// features. Computed once, read-only afterwards.
type lsPriors struct {
	gammaHat *mat.Dense  // batches x features location estimates
	deltaHat [][]float64 // per batch, per feature scale estimates
	gammaBar []float64   // per batch location hyper-mean
	t2       []float64   // per batch location hyper-variance
	aPrior   []float64   // per batch inverse-gamma shape
	bPrior   []float64   // per batch inverse-gamma rate
}

// fitLSModelAndFindPriors estimates the per-batch location effects by an
// OLS fit against the batch-only design, the per-batch scale effects as
// within-batch sample variances, and the hyperpriors by method of
// moments. No iteration happens here.
func fitLSModelAndFindPriors(sData *mat.Dense, design *mat.Dense, info *BatchInfo) (*lsPriors, error) {
	nFeatures, nSamples := sData.Dims()
	nBatch := info.NumBatches()

	batchDesign := design.Slice(0, nSamples, 0, nBatch)
	gammaHat, err := solveLeastSquares(batchDesign, sData.T())
	if err != nil {
		return nil, err
	}

	deltaHat := make([][]float64, nBatch)
	for b, idx := range info.Batches {
		dh := make([]float64, nFeatures)
		vals := make([]float64, len(idx))
		for f := 0; f < nFeatures; f++ {
			for j, s := range idx {
				vals[j] = sData.At(f, s)
			}
			dh[f] = stat.Variance(vals, nil)
		}
		deltaHat[b] = dh
	}

	priors := &lsPriors{
		gammaHat: gammaHat,
		deltaHat: deltaHat,
		gammaBar: make([]float64, nBatch),
		t2:       make([]float64, nBatch),
		aPrior:   make([]float64, nBatch),
		bPrior:   make([]float64, nBatch),
	}
	row := make([]float64, nFeatures)
	for b := 0; b < nBatch; b++ {
		mat.Row(row, b, gammaHat)
		priors.gammaBar[b] = stat.Mean(row, nil)
		priors.t2[b] = stat.Variance(row, nil)
		priors.aPrior[b] = aprior(deltaHat[b])
		priors.bPrior[b] = bprior(deltaHat[b])
	}
	return priors, nil
}

// aprior is the method-of-moments shape of the inverse-gamma prior fitted
// to a batch's delta_hat values across features.
func aprior(deltaHat []float64) float64 {
	m := stat.Mean(deltaHat, nil)
	s2 := stat.Variance(deltaHat, nil)
	return (2*s2 + m*m) / s2
}

// bprior is the matching method-of-moments rate.
func bprior(deltaHat []float64) float64 {
	m := stat.Mean(deltaHat, nil)
	s2 := stat.Variance(deltaHat, nil)
	return (m*s2 + m*m*m) / s2
}
