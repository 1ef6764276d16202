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
// The above copyright notice shall be included in all
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

package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"gonum.org/v1/gonum/mat"

	"github.com/TFMV/ComBat/pkg/combat"
	"github.com/TFMV/ComBat/pkg/utils"
)

// CorrectionRequest is the JSON payload for the /correct endpoint. Data
// is sample-major; Covariates holds one record per sample under
// CovariateNames.
type CorrectionRequest struct {
	Data           [][]float64 `json:"data"`
	CovariateNames []string    `json:"covariate_names"`
	Covariates     [][]string  `json:"covariates"`
	BatchColumn    string      `json:"batch_column"`
	DiscreteCols   []string    `json:"discrete_covariates"`
	ContinuousCols []string    `json:"continuous_covariates"`
	Tolerance      float64     `json:"tolerance,omitempty"`
	MaxIterations  int         `json:"max_iterations,omitempty"`
}

// CorrectionResponse carries the corrected matrix back, sample-major.
type CorrectionResponse struct {
	Samples  int         `json:"samples"`
	Features int         `json:"features"`
	Data     [][]float64 `json:"data"`
}

// CorrectHandler handles batch-correction requests
func CorrectHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CorrectionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.SendError(w, http.StatusBadRequest, err)
			return
		}

		data, err := req.matrix()
		if err != nil {
			utils.SendError(w, http.StatusBadRequest, err)
			return
		}
		covars, err := combat.NewTable(req.CovariateNames, req.Covariates)
		if err != nil {
			utils.SendError(w, http.StatusBadRequest, err)
			return
		}

		corrected, err := combat.Correct(data, covars, combat.Params{
			BatchColumn:    req.BatchColumn,
			DiscreteCols:   req.DiscreteCols,
			ContinuousCols: req.ContinuousCols,
			Tolerance:      req.Tolerance,
			MaxIterations:  req.MaxIterations,
		})
		if err != nil {
			utils.SendError(w, statusFor(err), err)
			return
		}

		nSamples, nFeatures := corrected.Dims()
		rows := make([][]float64, nSamples)
		for s := 0; s < nSamples; s++ {
			rows[s] = append([]float64(nil), corrected.RawRowView(s)...)
		}
		utils.SendJSON(w, http.StatusOK, "batch correction complete", CorrectionResponse{
			Samples:  nSamples,
			Features: nFeatures,
			Data:     rows,
		})
	}
}

// matrix validates the request payload and builds the sample-major data
// matrix.
func (req *CorrectionRequest) matrix() (*mat.Dense, error) {
	if len(req.Data) == 0 || len(req.Data[0]) == 0 {
		return nil, fmt.Errorf("data must be a non-empty sample-by-feature matrix")
	}
	nSamples := len(req.Data)
	nFeatures := len(req.Data[0])
	data := mat.NewDense(nSamples, nFeatures, nil)
	for s, row := range req.Data {
		if len(row) != nFeatures {
			return nil, fmt.Errorf("data row %d has %d values, expected %d", s, len(row), nFeatures)
		}
		for f, v := range row {
			data.Set(s, f, v)
		}
	}
	return data, nil
}

// statusFor maps the correction error taxonomy onto HTTP statuses: bad
// input is the caller's fault, an ill-posed model is unprocessable.
func statusFor(err error) int {
	var (
		inputErr     *combat.InputTypeError
		singletonErr *combat.SingletonBatchError
		singularErr  *combat.SingularDesignError
		convErr      *combat.NonConvergenceError
	)
	switch {
	case errors.As(err, &inputErr), errors.As(err, &singletonErr):
		return http.StatusBadRequest
	case errors.As(err, &singularErr), errors.As(err, &convErr):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
