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

package main

import (
	"context"
	"flag"
	"os"
	"strings"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/TFMV/ComBat/pkg/combat"
	"github.com/TFMV/ComBat/pkg/config"
	"github.com/TFMV/ComBat/pkg/db"
	"github.com/TFMV/ComBat/pkg/diagnostics"
	"github.com/TFMV/ComBat/pkg/utils"
)

func main() {
	configPath := flag.String("config", "", "Path to the YAML config file")
	dataPath := flag.String("data", "", "Path to the sample-by-feature data CSV")
	covarsPath := flag.String("covars", "", "Path to the covariate CSV")
	outPath := flag.String("out", "corrected.csv", "Path for the corrected output CSV")
	fromDB := flag.Bool("from-db", false, "Load data and covariates from Postgres instead of CSV")
	featuresQuery := flag.String("features-query", "", "SQL query returning the sample-by-feature data")
	covariatesQuery := flag.String("covariates-query", "", "SQL query returning the covariate table")
	outTable := flag.String("out-table", "", "Postgres table to copy the corrected data into")
	batchCol := flag.String("batch", "", "Covariate column holding the batch label")
	discrete := flag.String("discrete", "", "Comma-separated discrete covariate columns")
	continuous := flag.String("continuous", "", "Comma-separated continuous covariate columns")
	tolerance := flag.Float64("tolerance", 0, "Solver convergence tolerance (0 = default)")
	maxIter := flag.Int("max-iter", 0, "Solver iteration cap per batch (0 = default)")
	qc := flag.Bool("qc", false, "Print a principal-component batch summary after correction")
	verbose := flag.Bool("verbose", false, "Log pipeline stages as they run")
	flag.Parse()

	logger := utils.NewLogger("combat ")
	start := time.Now()

	// Load the configuration
	path := *configPath
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	var cfg *config.Config
	if path != "" {
		var err error
		cfg, err = config.LoadConfig(path)
		if err != nil {
			logger.Fatal("Failed to load config: %v", err)
		}
	}

	params := combat.Params{
		BatchColumn:    *batchCol,
		DiscreteCols:   splitList(*discrete),
		ContinuousCols: splitList(*continuous),
		Tolerance:      *tolerance,
		MaxIterations:  *maxIter,
	}
	if cfg != nil {
		if params.BatchColumn == "" {
			params.BatchColumn = cfg.Combat.BatchColumn
		}
		if params.DiscreteCols == nil {
			params.DiscreteCols = cfg.Combat.DiscreteCovariates
		}
		if params.ContinuousCols == nil {
			params.ContinuousCols = cfg.Combat.ContinuousCovariates
		}
		if params.Tolerance == 0 {
			params.Tolerance = cfg.Combat.Tolerance
		}
		if params.MaxIterations == 0 {
			params.MaxIterations = cfg.Combat.MaxIterations
		}
	}
	if params.BatchColumn == "" {
		logger.Fatal("A batch column is required (-batch or config batch_column)")
	}
	if *verbose {
		params.Progress = logger.Stage()
	}

	ctx := context.Background()

	var (
		data    *mat.Dense
		header  []string
		covars  *combat.Table
		dataErr error
	)
	if *fromDB {
		if cfg == nil {
			logger.Fatal("Postgres mode needs a config file with db_creds")
		}
		if *featuresQuery == "" || *covariatesQuery == "" {
			logger.Fatal("Postgres mode needs -features-query and -covariates-query")
		}
		pool, err := db.NewConnection(ctx, cfg)
		if err != nil {
			logger.Fatal("Unable to connect: %v", err)
		}
		defer pool.Close()

		data, header, dataErr = db.LoadFeatures(ctx, pool, *featuresQuery)
		if dataErr != nil {
			logger.Fatal("Failed to load features: %v", dataErr)
		}
		covars, dataErr = db.LoadCovariates(ctx, pool, *covariatesQuery)
		if dataErr != nil {
			logger.Fatal("Failed to load covariates: %v", dataErr)
		}

		corrected := runCorrection(logger, data, covars, params, *qc)

		if *outTable != "" {
			if err := db.SaveCorrected(ctx, pool, *outTable, header, corrected); err != nil {
				logger.Fatal("Failed to save corrected data: %v", err)
			}
		} else if err := utils.WriteMatrixCSV(*outPath, header, corrected); err != nil {
			logger.Fatal("Failed to write output: %v", err)
		}
	} else {
		if *dataPath == "" || *covarsPath == "" {
			logger.Fatal("CSV mode needs -data and -covars")
		}
		data, header, dataErr = utils.ReadMatrixCSV(*dataPath)
		if dataErr != nil {
			logger.Fatal("Failed to read data: %v", dataErr)
		}
		covars, dataErr = utils.ReadTableCSV(*covarsPath)
		if dataErr != nil {
			logger.Fatal("Failed to read covariates: %v", dataErr)
		}

		corrected := runCorrection(logger, data, covars, params, *qc)

		if err := utils.WriteMatrixCSV(*outPath, header, corrected); err != nil {
			logger.Fatal("Failed to write output: %v", err)
		}
	}

	nSamples, nFeatures := data.Dims()
	logger.Info("Corrected %d samples x %d features in %v", nSamples, nFeatures, time.Since(start))
}

func runCorrection(logger *utils.Logger, data *mat.Dense, covars *combat.Table, params combat.Params, qc bool) *mat.Dense {
	corrected, err := combat.Correct(data, covars, params)
	if err != nil {
		logger.Fatal("Correction failed: %v", err)
	}

	if qc {
		labels, ok := covars.Column(params.BatchColumn)
		if ok {
			report, err := diagnostics.Summarize(corrected, labels, 2)
			if err != nil {
				logger.Error("QC summary failed: %v", err)
			} else {
				for _, level := range report.Levels() {
					logger.Info("QC batch %s: component means %v", level, report.BatchMeans[level])
				}
				logger.Info("QC variance explained: %v", report.VarianceExplained)
			}
		}
	}
	return corrected
}

// splitList parses a comma-separated flag value; empty means nil.
func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
