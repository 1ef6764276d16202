package combat

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// batchColumnTable builds a covariate table holding only a batch column.
func batchColumnTable(t *testing.T, labels []string) *Table {
	t.Helper()
	rows := make([][]string, len(labels))
	for i, l := range labels {
		rows[i] = []string{l}
	}
	tbl, err := NewTable([]string{"site"}, rows)
	require.NoError(t, err)
	return tbl
}

func TestCorrectReferenceShape(t *testing.T) {
	// 100 samples, 5 features, 3 batches of sizes 40/30/30, one discrete
	// covariate with 2 levels and one continuous covariate.
	const nSamples, nFeatures = 100, 5
	sizes := []int{40, 30, 30}
	offsets := []float64{0.8, -0.5, 0.0}

	noise := distuv.Normal{Mu: 0, Sigma: 1, Src: rand.NewSource(3)}
	data := mat.NewDense(nSamples, nFeatures, nil)
	rows := make([][]string, 0, nSamples)
	s := 0
	for b, size := range sizes {
		for i := 0; i < size; i++ {
			sex := "m"
			if i%2 == 0 {
				sex = "f"
			}
			age := 20 + float64((s*7)%50)
			rows = append(rows, []string{fmt.Sprintf("site%d", b), sex, fmt.Sprintf("%g", age)})
			for f := 0; f < nFeatures; f++ {
				data.Set(s, f, float64(f)+offsets[b]+0.01*age+noise.Rand())
			}
			s++
		}
	}
	covars, err := NewTable([]string{"site", "sex", "age"}, rows)
	require.NoError(t, err)

	var stages []string
	corrected, err := Correct(data, covars, Params{
		BatchColumn:    "site",
		DiscreteCols:   []string{"sex"},
		ContinuousCols: []string{"age"},
		Progress:       func(stage string) { stages = append(stages, stage) },
	})
	require.NoError(t, err)

	gotSamples, gotFeatures := corrected.Dims()
	assert.Equal(t, nSamples, gotSamples)
	assert.Equal(t, nFeatures, gotFeatures)
	for i := 0; i < nSamples; i++ {
		for f := 0; f < nFeatures; f++ {
			v := corrected.At(i, f)
			require.Falsef(t, math.IsNaN(v) || math.IsInf(v, 0), "non-finite value at (%d,%d)", i, f)
		}
	}
	assert.Equal(t, []string{
		"validating input",
		"creating design matrix",
		"standardizing data across features",
		"fitting L/S model and finding priors",
		"finding parametric adjustments",
		"final adjustment of data",
	}, stages)
}

func TestCorrectSingleBatchNoOp(t *testing.T) {
	// With one batch there is no batch effect to remove; the output must
	// match the input up to the standardize/rescale round trip.
	const nSamples, nFeatures = 200, 3
	noise := distuv.Normal{Mu: 0, Sigma: 1, Src: rand.NewSource(5)}
	data := mat.NewDense(nSamples, nFeatures, nil)
	labels := make([]string, nSamples)
	for s := 0; s < nSamples; s++ {
		labels[s] = "only"
		for f := 0; f < nFeatures; f++ {
			data.Set(s, f, 2*float64(f)+noise.Rand())
		}
	}

	corrected, err := Correct(data, batchColumnTable(t, labels), Params{BatchColumn: "site"})
	require.NoError(t, err)

	for s := 0; s < nSamples; s++ {
		for f := 0; f < nFeatures; f++ {
			assert.InDelta(t, data.At(s, f), corrected.At(s, f), 0.05)
		}
	}
}

func TestCorrectRecoversKnownShifts(t *testing.T) {
	// baseline + per-batch additive offset + per-batch multiplicative
	// scale + noise; the correction must pull the per-batch means and
	// variances back together.
	const nFeatures, perBatch = 4, 50
	offsets := []float64{1.5, -1.0, 0}
	scales := []float64{2.0, 0.5, 1.0}
	baseMu := []float64{0, 1, -2, 3}
	nSamples := perBatch * len(offsets)

	noise := distuv.Normal{Mu: 0, Sigma: 1, Src: rand.NewSource(42)}
	data := mat.NewDense(nSamples, nFeatures, nil)
	labels := make([]string, nSamples)
	for b := range offsets {
		for i := 0; i < perBatch; i++ {
			s := b*perBatch + i
			labels[s] = fmt.Sprintf("site%d", b)
			for f := 0; f < nFeatures; f++ {
				data.Set(s, f, baseMu[f]+offsets[b]+scales[b]*noise.Rand())
			}
		}
	}

	corrected, err := Correct(data, batchColumnTable(t, labels), Params{BatchColumn: "site"})
	require.NoError(t, err)

	for f := 0; f < nFeatures; f++ {
		assert.Greaterf(t, batchMeanSpread(data, f, perBatch), 1.5, "feature %d: batch shift missing before correction", f)
		assert.Lessf(t, batchMeanSpread(corrected, f, perBatch), 0.4, "feature %d: batch means not aligned", f)

		assert.Greaterf(t, batchVarianceRatio(data, f, perBatch), 4.0, "feature %d: scale effect missing before correction", f)
		assert.Lessf(t, batchVarianceRatio(corrected, f, perBatch), 2.0, "feature %d: batch variances not aligned", f)
	}
}

func TestCorrectErrors(t *testing.T) {
	data := mat.NewDense(4, 2, []float64{1, 2, 3, 4, 5, 6, 7, 8})

	t.Run("nil covariates", func(t *testing.T) {
		_, err := Correct(data, nil, Params{BatchColumn: "site"})
		var inputErr *InputTypeError
		assert.ErrorAs(t, err, &inputErr)
	})

	t.Run("missing batch column", func(t *testing.T) {
		covars := batchColumnTable(t, []string{"a", "a", "b", "b"})
		_, err := Correct(data, covars, Params{BatchColumn: "scanner"})
		var inputErr *InputTypeError
		assert.ErrorAs(t, err, &inputErr)
	})

	t.Run("row count mismatch", func(t *testing.T) {
		covars := batchColumnTable(t, []string{"a", "a", "b"})
		_, err := Correct(data, covars, Params{BatchColumn: "site"})
		var inputErr *InputTypeError
		assert.ErrorAs(t, err, &inputErr)
	})

	t.Run("singleton batch", func(t *testing.T) {
		covars := batchColumnTable(t, []string{"a", "a", "a", "b"})
		_, err := Correct(data, covars, Params{BatchColumn: "site"})
		var singleton *SingletonBatchError
		require.ErrorAs(t, err, &singleton)
		assert.Equal(t, "b", singleton.Level)
	})

	t.Run("covariate collinear with batch", func(t *testing.T) {
		covars, err := NewTable([]string{"site", "group"}, [][]string{
			{"a", "x"}, {"a", "x"}, {"b", "y"}, {"b", "y"},
		})
		require.NoError(t, err)
		_, err = Correct(data, covars, Params{
			BatchColumn:  "site",
			DiscreteCols: []string{"group"},
		})
		var singular *SingularDesignError
		assert.ErrorAs(t, err, &singular)
	})
}

// batchMeanSpread is the range of per-batch means for one feature,
// assuming equal contiguous batches.
func batchMeanSpread(data *mat.Dense, feature, perBatch int) float64 {
	nSamples, _ := data.Dims()
	lo, hi := math.Inf(1), math.Inf(-1)
	for start := 0; start < nSamples; start += perBatch {
		vals := make([]float64, perBatch)
		for i := 0; i < perBatch; i++ {
			vals[i] = data.At(start+i, feature)
		}
		m := stat.Mean(vals, nil)
		lo = math.Min(lo, m)
		hi = math.Max(hi, m)
	}
	return hi - lo
}

// batchVarianceRatio is the largest-to-smallest ratio of per-batch
// variances for one feature, assuming equal contiguous batches.
func batchVarianceRatio(data *mat.Dense, feature, perBatch int) float64 {
	nSamples, _ := data.Dims()
	lo, hi := math.Inf(1), math.Inf(-1)
	for start := 0; start < nSamples; start += perBatch {
		vals := make([]float64, perBatch)
		for i := 0; i < perBatch; i++ {
			vals[i] = data.At(start+i, feature)
		}
		v := stat.Variance(vals, nil)
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return hi / lo
}
