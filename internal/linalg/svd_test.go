package linalg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// reconstruct rebuilds M = U * diag(S) * Vt^T. Note SVDResult.Vt stores the
// right singular vectors as columns (i.e. it holds V itself, not V
// transposed) -- see the doc comment on SVDResult and its usage in
// triangulate/triangulate.go and align/align.go.
func reconstruct(r SVDResult) Matrix {
	rows, cols := r.U.Rows, r.Vt.Rows
	out := New(rows, cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			var acc float64
			for k := 0; k < len(r.S); k++ {
				acc += r.U.Get(i, k) * r.S[k] * r.Vt.Get(j, k)
			}
			out.Set(i, j, acc)
		}
	}
	return out
}

func TestSVD_ReconstructsSquareMatrix(t *testing.T) {
	m := FromRows([][]float64{
		{2, 0, 0},
		{0, 3, 4},
		{0, 4, -3},
	})
	result, err := SVD(m)
	require.NoError(t, err)

	got := reconstruct(result)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			assert.InDelta(t, m.Get(i, j), got.Get(i, j), 1e-8)
		}
	}
}

func TestSVD_ReconstructsTallMatrix(t *testing.T) {
	m := FromRows([][]float64{
		{1, 0},
		{0, 1},
		{1, 1},
	})
	result, err := SVD(m)
	require.NoError(t, err)

	got := reconstruct(result)
	for i := 0; i < 3; i++ {
		for j := 0; j < 2; j++ {
			assert.InDelta(t, m.Get(i, j), got.Get(i, j), 1e-8)
		}
	}
}

func TestSVD_RejectsMoreColumnsThanRows(t *testing.T) {
	m := New(2, 3)
	_, err := SVD(m)
	require.Error(t, err)
}
