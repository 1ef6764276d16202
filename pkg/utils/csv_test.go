package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestMatrixCSVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "features.csv")
	header := []string{"f1", "f2", "f3"}
	m := mat.NewDense(2, 3, []float64{1.5, -2, 0.25, 3, 4.125, -0.5})

	require.NoError(t, WriteMatrixCSV(path, header, m))

	got, gotHeader, err := ReadMatrixCSV(path)
	require.NoError(t, err)
	assert.Equal(t, header, gotHeader)
	assert.True(t, mat.Equal(m, got))
}

func TestReadMatrixCSVBadValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte("f1,f2\n1,two\n"), 0o644))

	_, _, err := ReadMatrixCSV(path)
	assert.Error(t, err)
}

func TestReadTableCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "covars.csv")
	require.NoError(t, os.WriteFile(path, []byte("site,age\na,30\nb,41\n"), 0o644))

	tbl, err := ReadTableCSV(path)
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.NumSamples())

	col, ok := tbl.Column("site")
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, col)
}
