package diagnostics

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Report summarizes residual batch structure in a corrected matrix: the
// per-batch means of the leading principal component scores. Batch means
// that stay close together across batches indicate the correction left no
// gross site effect behind.
type Report struct {
	Components        int
	VarianceExplained []float64
	BatchMeans        map[string][]float64
}

// Summarize mean-centers the sample-major matrix, projects it onto its
// leading principal components via SVD and averages the component scores
// within each batch.
func Summarize(data *mat.Dense, batchLabels []string, components int) (*Report, error) {
	nSamples, nFeatures := data.Dims()
	if len(batchLabels) != nSamples {
		return nil, fmt.Errorf("diagnostics: %d batch labels for %d samples", len(batchLabels), nSamples)
	}
	if components <= 0 {
		components = 2
	}
	if limit := min(nSamples, nFeatures); components > limit {
		components = limit
	}

	// Mean center each feature column.
	centered := mat.NewDense(nSamples, nFeatures, nil)
	for f := 0; f < nFeatures; f++ {
		var sum float64
		for s := 0; s < nSamples; s++ {
			sum += data.At(s, f)
		}
		mean := sum / float64(nSamples)
		for s := 0; s < nSamples; s++ {
			centered.Set(s, f, data.At(s, f)-mean)
		}
	}

	var svd mat.SVD
	if ok := svd.Factorize(centered, mat.SVDThin); !ok {
		return nil, fmt.Errorf("diagnostics: SVD factorization failed")
	}
	values := svd.Values(nil)
	var u mat.Dense
	svd.UTo(&u)

	var total float64
	for _, v := range values {
		total += v * v
	}
	explained := make([]float64, components)
	for i := 0; i < components; i++ {
		explained[i] = values[i] * values[i] / total
	}

	// Component scores are the left singular vectors scaled by their
	// singular values.
	sums := make(map[string][]float64)
	counts := make(map[string]int)
	for s := 0; s < nSamples; s++ {
		label := batchLabels[s]
		if _, ok := sums[label]; !ok {
			sums[label] = make([]float64, components)
		}
		for c := 0; c < components; c++ {
			sums[label][c] += u.At(s, c) * values[c]
		}
		counts[label]++
	}
	means := make(map[string][]float64, len(sums))
	for label, sum := range sums {
		m := make([]float64, components)
		for c := range sum {
			m[c] = sum[c] / float64(counts[label])
		}
		means[label] = m
	}

	return &Report{Components: components, VarianceExplained: explained, BatchMeans: means}, nil
}

// Levels returns the batch labels in a report in sorted order.
func (r *Report) Levels() []string {
	levels := make([]string, 0, len(r.BatchMeans))
	for l := range r.BatchMeans {
		levels = append(levels, l)
	}
	sort.Strings(levels)
	return levels
}
