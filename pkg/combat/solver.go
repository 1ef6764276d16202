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
	"errors"
	"math"
	"sync"

	"gonum.org/v1/gonum/mat"
)

// postMean is the posterior location update: the batch estimate shrunk
// toward the prior mean, weighted by effective sample size and the
// current scale estimate.
func postMean(gHat, gBar, n, dStar, t2 float64) float64 {
	return (t2*n*gHat + dStar*gBar) / (t2*n + dStar)
}

// postVar is the posterior scale update in inverse-gamma posterior mode
// form.
func postVar(sum2, n, a, b float64) float64 {
	return (0.5*sum2 + b) / (n/2.0 + a - 1.0)
}

// iterativeSolve alternates postMean and postVar for one batch until the
// largest relative change across features in either estimate drops to
// tol. sBatch is the batch's slice of the standardized data (features by
// batch samples); NaN entries are excluded from the per-feature sample
// count and residual sum. The inputs must be standardized and
// non-degenerate: an estimate reaching exactly zero makes the relative
// change undefined.
func iterativeSolve(sBatch *mat.Dense, gHat, dHat []float64, gBar, t2, a, b, tol float64, maxIter int) ([]float64, []float64, error) {
	nFeatures, nBatchSamples := sBatch.Dims()

	// Per-feature effective sample size.
	n := make([]float64, nFeatures)
	for f := 0; f < nFeatures; f++ {
		count := 0
		for j := 0; j < nBatchSamples; j++ {
			if !math.IsNaN(sBatch.At(f, j)) {
				count++
			}
		}
		n[f] = float64(count)
	}

	gOld := append([]float64(nil), gHat...)
	dOld := append([]float64(nil), dHat...)
	gNew := make([]float64, nFeatures)
	dNew := make([]float64, nFeatures)

	change := math.Inf(1)
	for iter := 0; iter < maxIter; iter++ {
		change = 0
		for f := 0; f < nFeatures; f++ {
			gNew[f] = postMean(gHat[f], gBar, n[f], dOld[f], t2)

			var sum2 float64
			for j := 0; j < nBatchSamples; j++ {
				v := sBatch.At(f, j)
				if math.IsNaN(v) {
					continue
				}
				r := v - gNew[f]
				sum2 += r * r
			}
			dNew[f] = postVar(sum2, n[f], a, b)

			if gc := math.Abs(gNew[f]-gOld[f]) / math.Abs(gOld[f]); gc > change {
				change = gc
			}
			if dc := math.Abs(dNew[f]-dOld[f]) / math.Abs(dOld[f]); dc > change {
				change = dc
			}
		}
		copy(gOld, gNew)
		copy(dOld, dNew)
		if change <= tol {
			return gNew, dNew, nil
		}
	}
	return nil, nil, &NonConvergenceError{Iterations: maxIter, Change: change}
}

// findParametricAdjustments runs the shrinkage for every batch. Batches
// share no state, so they run concurrently; the first batch error wins.
func findParametricAdjustments(sData *mat.Dense, priors *lsPriors, info *BatchInfo, tol float64, maxIter int) (*mat.Dense, *mat.Dense, error) {
	nFeatures, _ := sData.Dims()
	nBatch := info.NumBatches()

	gammaStar := mat.NewDense(nBatch, nFeatures, nil)
	deltaStar := mat.NewDense(nBatch, nFeatures, nil)
	errs := make([]error, nBatch)

	var wg sync.WaitGroup
	for b := 0; b < nBatch; b++ {
		wg.Add(1)
		go func(b int) {
			defer wg.Done()
			idx := info.Batches[b]
			sBatch := mat.NewDense(nFeatures, len(idx), nil)
			for j, s := range idx {
				for f := 0; f < nFeatures; f++ {
					sBatch.Set(f, j, sData.At(f, s))
				}
			}
			gHat := make([]float64, nFeatures)
			mat.Row(gHat, b, priors.gammaHat)

			g, d, err := iterativeSolve(sBatch, gHat, priors.deltaHat[b],
				priors.gammaBar[b], priors.t2[b], priors.aPrior[b], priors.bPrior[b],
				tol, maxIter)
			if err != nil {
				var nc *NonConvergenceError
				if errors.As(err, &nc) {
					nc.Batch = info.Levels[b]
				}
				errs[b] = err
				return
			}
			gammaStar.SetRow(b, g)
			deltaStar.SetRow(b, d)
		}(b)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, nil, err
		}
	}
	return gammaStar, deltaStar, nil
}
