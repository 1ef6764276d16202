package combat

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func twoBatchFixture(t *testing.T) (*mat.Dense, *mat.Dense, *BatchInfo) {
	t.Helper()
	// Two features over six samples, three per batch.
	x := mat.NewDense(2, 6, []float64{
		1, 2, 3, 5, 6, 7,
		10, 10, 13, 1, 4, 4,
	})
	codes, levels := encodeLabels([]string{"a", "a", "a", "b", "b", "b"})
	info, err := newBatchInfo(codes, levels)
	require.NoError(t, err)

	covars, err := NewTable([]string{"site"}, [][]string{
		{"a"}, {"a"}, {"a"}, {"b"}, {"b"}, {"b"},
	})
	require.NoError(t, err)
	design, err := buildDesignMatrix(covars, codes, 2, nil, nil)
	require.NoError(t, err)
	return x, design, info
}

func TestStandardizeAcrossFeatures(t *testing.T) {
	x, design, info := twoBatchFixture(t)

	stats, err := standardizeAcrossFeatures(x, design, info)
	require.NoError(t, err)

	// Grand mean is the sample-share-weighted average of the batch means.
	// Feature 0: batch means 2 and 6 -> 4; feature 1: 11 and 3 -> 7.
	// Pooled variance is the population mean squared residual.
	wantGrand := []float64{4, 7}
	wantVar := []float64{4.0 / 6.0, 2}
	for f := 0; f < 2; f++ {
		assert.InDelta(t, wantVar[f], stats.varPooled[f], 1e-12)
		for s := 0; s < 6; s++ {
			assert.InDelta(t, wantGrand[f], stats.standMean.At(f, s), 1e-12)
		}
	}

	// Standardization must round-trip back to the input.
	for f := 0; f < 2; f++ {
		sd := math.Sqrt(stats.varPooled[f])
		for s := 0; s < 6; s++ {
			back := stats.standardized.At(f, s)*sd + stats.standMean.At(f, s)
			assert.InDelta(t, x.At(f, s), back, 1e-12)
		}
	}
}

func TestSolveLeastSquaresSingular(t *testing.T) {
	// Two identical columns make the normal matrix singular.
	design := mat.NewDense(4, 2, []float64{
		1, 1,
		1, 1,
		1, 1,
		1, 1,
	})
	y := mat.NewDense(4, 1, []float64{1, 2, 3, 4})

	_, err := solveLeastSquares(design, y)
	var singular *SingularDesignError
	require.ErrorAs(t, err, &singular)
}

func TestSolveLeastSquaresBatchMeans(t *testing.T) {
	x, design, _ := twoBatchFixture(t)

	bHat, err := solveLeastSquares(design, x.T())
	require.NoError(t, err)

	// With a batch-only one-hot design the coefficients are batch means.
	assert.InDelta(t, 2, bHat.At(0, 0), 1e-12)
	assert.InDelta(t, 6, bHat.At(1, 0), 1e-12)
	assert.InDelta(t, 11, bHat.At(0, 1), 1e-12)
	assert.InDelta(t, 3, bHat.At(1, 1), 1e-12)
}
