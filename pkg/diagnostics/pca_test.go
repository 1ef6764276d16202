package diagnostics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

func TestSummarizeSeparatedBatches(t *testing.T) {
	// Two batches offset along every feature; the leading component must
	// separate their mean scores.
	const perBatch, nFeatures = 20, 3
	noise := distuv.Normal{Mu: 0, Sigma: 0.1, Src: rand.NewSource(9)}

	data := mat.NewDense(2*perBatch, nFeatures, nil)
	labels := make([]string, 2*perBatch)
	for s := 0; s < 2*perBatch; s++ {
		offset := 0.0
		labels[s] = "a"
		if s >= perBatch {
			offset = 5.0
			labels[s] = "b"
		}
		for f := 0; f < nFeatures; f++ {
			data.Set(s, f, offset+noise.Rand())
		}
	}

	report, err := Summarize(data, labels, 2)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Components)
	assert.Equal(t, []string{"a", "b"}, report.Levels())
	require.Len(t, report.VarianceExplained, 2)
	assert.Greater(t, report.VarianceExplained[0], 0.9)

	gap := report.BatchMeans["a"][0] - report.BatchMeans["b"][0]
	if gap < 0 {
		gap = -gap
	}
	assert.Greater(t, gap, 4.0)
}

func TestSummarizeLabelMismatch(t *testing.T) {
	data := mat.NewDense(4, 2, []float64{1, 2, 3, 4, 5, 6, 7, 8})
	_, err := Summarize(data, []string{"a", "b"}, 2)
	assert.Error(t, err)
}

func TestSummarizeCapsComponents(t *testing.T) {
	data := mat.NewDense(3, 2, []float64{1, 2, 3, 5, 4, 4})
	report, err := Summarize(data, []string{"a", "a", "b"}, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Components)
}
