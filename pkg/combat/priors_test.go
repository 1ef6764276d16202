package combat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
)

func TestFitLSModelAndFindPriors(t *testing.T) {
	x, design, info := twoBatchFixture(t)
	stats, err := standardizeAcrossFeatures(x, design, info)
	require.NoError(t, err)

	priors, err := fitLSModelAndFindPriors(stats.standardized, design, info)
	require.NoError(t, err)

	// Against a batch-only one-hot design, gamma_hat is the within-batch
	// mean and delta_hat the within-batch sample variance.
	for b, idx := range info.Batches {
		for f := 0; f < 2; f++ {
			vals := make([]float64, len(idx))
			for j, s := range idx {
				vals[j] = stats.standardized.At(f, s)
			}
			assert.InDelta(t, stat.Mean(vals, nil), priors.gammaHat.At(b, f), 1e-12)
			assert.InDelta(t, stat.Variance(vals, nil), priors.deltaHat[b][f], 1e-12)
		}
	}

	// Hyperpriors pool gamma_hat across features, per batch.
	row := make([]float64, 2)
	for b := 0; b < info.NumBatches(); b++ {
		row[0] = priors.gammaHat.At(b, 0)
		row[1] = priors.gammaHat.At(b, 1)
		assert.InDelta(t, stat.Mean(row, nil), priors.gammaBar[b], 1e-12)
		assert.InDelta(t, stat.Variance(row, nil), priors.t2[b], 1e-12)
	}
}

func TestInverseGammaMoments(t *testing.T) {
	deltaHat := []float64{0.8, 1.1, 0.9, 1.3, 1.0}
	m := stat.Mean(deltaHat, nil)
	s2 := stat.Variance(deltaHat, nil)

	a := aprior(deltaHat)
	b := bprior(deltaHat)
	assert.InDelta(t, (2*s2+m*m)/s2, a, 1e-12)
	assert.InDelta(t, (m*s2+m*m*m)/s2, b, 1e-12)

	// Method of moments: the fitted inverse-gamma mean b/(a-1) recovers
	// the sample mean and its variance recovers the sample variance.
	assert.InDelta(t, m, b/(a-1), 1e-9)
	assert.InDelta(t, s2, b*b/((a-1)*(a-1)*(a-2)), 1e-9)
}
