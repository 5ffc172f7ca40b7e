package dataset

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"hypertune/internal/model"
)

func TestNewRejectsRowMismatch(t *testing.T) {
	features := [][]float64{{1, 2}, {3, 4}, {5, 6}}
	_, err := New(features, []float64{1, 2})

	var shape *model.ShapeMismatchError
	require.ErrorAs(t, err, &shape)
	assert.Equal(t, 3, shape.Want)
	assert.Equal(t, 2, shape.Got)
}

func TestNewRejectsRaggedRows(t *testing.T) {
	features := [][]float64{{1, 2}, {3}}
	_, err := New(features, []float64{1, 2})

	var shape *model.ShapeMismatchError
	require.ErrorAs(t, err, &shape)
}

func TestNewRejectsEmpty(t *testing.T) {
	_, err := New(nil, nil)
	require.Error(t, err)
}

func TestFromMatrixValidates(t *testing.T) {
	x := mat.NewDense(4, 2, nil)
	_, err := FromMatrix(x, []float64{1, 2, 3})
	var shape *model.ShapeMismatchError
	require.ErrorAs(t, err, &shape)

	ds, err := FromMatrix(x, []float64{1, 2, 3, 4})
	require.NoError(t, err)
	assert.Equal(t, 4, ds.Rows())
	assert.Equal(t, 2, ds.Cols())
}

func TestVariances(t *testing.T) {
	ds, err := New([][]float64{
		{1, 5},
		{2, 5},
		{3, 5},
	}, []float64{0, 0, 0})
	require.NoError(t, err)

	v := ds.Variances()
	require.Len(t, v, 2)
	assert.InDelta(t, 1.0, v[0], 1e-12) // unbiased: sum sq dev 2 over n-1 = 2
	assert.Zero(t, v[1])
}

func TestSubsetCopiesRows(t *testing.T) {
	ds, err := New([][]float64{
		{1, 10},
		{2, 20},
		{3, 30},
	}, []float64{1, 2, 3})
	require.NoError(t, err)

	x, y := ds.Subset([]int{2, 0})
	assert.Equal(t, []float64{3, 1}, y)
	assert.Equal(t, 3.0, x.At(0, 0))
	assert.Equal(t, 10.0, x.At(1, 1))

	// Mutating the subset must not touch the source.
	x.Set(0, 0, -1)
	assert.Equal(t, 3.0, ds.Features().At(2, 0))
}

func TestLoaderRoundTrip(t *testing.T) {
	dir := t.TempDir()
	featuresPath := filepath.Join(dir, "data.gob")
	targetPath := filepath.Join(dir, "target.gob")

	features := [][]float64{{1, 2}, {3, 4}}
	target := []float64{0.5, 1.5}
	require.NoError(t, SaveMatrix(featuresPath, features))
	require.NoError(t, SaveVector(targetPath, target))

	ds, err := NewLoader().Load(context.Background(), featuresPath, targetPath)
	require.NoError(t, err)
	assert.Equal(t, 2, ds.Rows())
	assert.Equal(t, 2, ds.Cols())
	assert.Equal(t, target, ds.Target())
	assert.Equal(t, 4.0, ds.Features().At(1, 1))
}

func TestLoaderRejectsMisalignedBlobs(t *testing.T) {
	dir := t.TempDir()
	featuresPath := filepath.Join(dir, "data.gob")
	targetPath := filepath.Join(dir, "target.gob")

	require.NoError(t, SaveMatrix(featuresPath, [][]float64{{1}, {2}, {3}}))
	require.NoError(t, SaveVector(targetPath, []float64{1, 2}))

	_, err := NewLoader().Load(context.Background(), featuresPath, targetPath)
	var shape *model.ShapeMismatchError
	require.ErrorAs(t, err, &shape)
}

func TestLoaderMissingFile(t *testing.T) {
	_, err := NewLoader().Load(context.Background(), "nope.gob", "missing.gob")
	require.Error(t, err)
}
