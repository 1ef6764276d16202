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

// Package combat removes additive and multiplicative batch effects from
// multi-site feature matrices with the parametric empirical-Bayes ComBat
// model, preserving the effects of declared covariates. The pipeline is
// pure and in-memory: a labeled covariate table and a sample-major data
// matrix go in, a batch-corrected matrix of identical shape comes out.
package combat

import (
	"gonum.org/v1/gonum/mat"
)

// Defaults for the empirical-Bayes solver.
const (
	DefaultTolerance     = 1e-4
	DefaultMaxIterations = 5000
)

// ProgressFunc receives the name of each pipeline stage as it starts.
type ProgressFunc func(stage string)

// Params configures a correction run.
type Params struct {
	// BatchColumn names the covariate column holding the batch label.
	BatchColumn string

	// DiscreteCols and ContinuousCols name the covariate columns whose
	// effects are preserved through the correction.
	DiscreteCols   []string
	ContinuousCols []string

	// Tolerance is the solver's relative-change convergence threshold.
	// Zero means DefaultTolerance.
	Tolerance float64

	// MaxIterations caps the solver per batch. Zero means
	// DefaultMaxIterations.
	MaxIterations int

	// Progress, when set, is called with each stage name as it starts.
	Progress ProgressFunc
}

// Correct returns a batch-corrected copy of data. data is sample-major
// (one row per sample, one column per feature) and covars holds one row
// per sample. The output has exactly the shape of the input; the whole
// correction is all-or-nothing.
func Correct(data *mat.Dense, covars *Table, p Params) (*mat.Dense, error) {
	if data == nil {
		return nil, &InputTypeError{Reason: "data matrix is nil"}
	}
	nSamples, nFeatures := data.Dims()

	tol := p.Tolerance
	if tol <= 0 {
		tol = DefaultTolerance
	}
	maxIter := p.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}
	progress := p.Progress
	if progress == nil {
		progress = func(string) {}
	}

	progress("validating input")
	batchCodes, info, err := normalizeInput(covars, p, nSamples)
	if err != nil {
		return nil, err
	}

	// Work feature-major internally.
	x := mat.NewDense(nFeatures, nSamples, nil)
	for s := 0; s < nSamples; s++ {
		for f := 0; f < nFeatures; f++ {
			x.Set(f, s, data.At(s, f))
		}
	}

	progress("creating design matrix")
	design, err := buildDesignMatrix(covars, batchCodes, info.NumBatches(), p.DiscreteCols, p.ContinuousCols)
	if err != nil {
		return nil, err
	}

	progress("standardizing data across features")
	stats, err := standardizeAcrossFeatures(x, design, info)
	if err != nil {
		return nil, err
	}

	progress("fitting L/S model and finding priors")
	priors, err := fitLSModelAndFindPriors(stats.standardized, design, info)
	if err != nil {
		return nil, err
	}

	progress("finding parametric adjustments")
	gammaStar, deltaStar, err := findParametricAdjustments(stats.standardized, priors, info, tol, maxIter)
	if err != nil {
		return nil, err
	}

	progress("final adjustment of data")
	adjusted := adjustDataFinal(stats.standardized, design, gammaStar, deltaStar, stats.standMean, stats.varPooled, info)

	// Back to sample-major.
	out := mat.NewDense(nSamples, nFeatures, nil)
	for s := 0; s < nSamples; s++ {
		for f := 0; f < nFeatures; f++ {
			out.Set(s, f, adjusted.At(f, s))
		}
	}
	return out, nil
}
