package matrix_test

import (
	"fmt"
	"testing"

	"github.com/katalvlaran/gridmm/matrix"
	"github.com/stretchr/testify/require"
)

// fromRows builds a block from literal rows.
func fromRows(t *testing.T, rows [][]float32) *matrix.Block {
	t.Helper()
	m, err := matrix.New(len(rows))
	require.NoError(t, err)
	for i, r := range rows {
		for j, v := range r {
			m.Set(i, j, v)
		}
	}

	return m
}

// TestMulAddAccumulates verifies c += a×b keeps what c already holds.
func TestMulAddAccumulates(t *testing.T) {
	for _, k := range []matrix.Kernel{matrix.KernelNaive, matrix.KernelBLAS} {
		t.Run(k.String(), func(t *testing.T) {
			a := fromRows(t, [][]float32{{1, 2}, {3, 4}})
			b := fromRows(t, [][]float32{{5, 6}, {7, 8}})
			c := fromRows(t, [][]float32{{1, 1}, {1, 1}})

			require.NoError(t, matrix.MulAdd(a, b, c, k))
			require.Equal(t, []float32{20, 23, 44, 51}, c.View())

			require.NoError(t, matrix.MulAdd(a, b, c, k))
			require.Equal(t, []float32{39, 45, 87, 101}, c.View())
		})
	}
}

// TestMulAddGuards covers size mismatch and unknown kernels.
func TestMulAddGuards(t *testing.T) {
	a, _ := matrix.New(2)
	b, _ := matrix.New(3)
	c, _ := matrix.New(2)

	require.ErrorIs(t, matrix.MulAdd(a, b, c, matrix.KernelNaive), matrix.ErrDimensionMismatch)
	require.ErrorIs(t, matrix.MulAdd(a, a, c, matrix.Kernel(7)), matrix.ErrUnknownKernel)
	require.ErrorIs(t, matrix.MulAdd(a, nil, c, matrix.KernelNaive), matrix.ErrNilBlock)
}

// TestSeqProductClosedForm checks the full product of the closed-form
// initializers: C[i][j] = i * (N(N-1)/2 + N*j).
func TestSeqProductClosedForm(t *testing.T) {
	for _, n := range []int{1, 2, 4, 7} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			a, err := matrix.InitA(n, 0, 0)
			require.NoError(t, err)
			b, err := matrix.InitB(n, 0, 0)
			require.NoError(t, err)

			c, err := matrix.SeqProduct(a, b)
			require.NoError(t, err)
			for i := 0; i < n; i++ {
				for j := 0; j < n; j++ {
					want := float32(i * (n*(n-1)/2 + n*j))
					require.Equal(t, want, c.Get(i, j), "cell (%d,%d)", i, j)
				}
			}

			nf := float64(n)
			require.Equal(t, nf*nf*nf*(nf-1)*(nf-1)/2, matrix.Sum(c))
		})
	}
}

// TestEqual covers the epsilon semantics.
func TestEqual(t *testing.T) {
	a := fromRows(t, [][]float32{{1, 2}, {3, 4}})
	b := fromRows(t, [][]float32{{1, 2}, {3, 4.5}})

	ok, err := matrix.Equal(a, b, 0.5)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = matrix.Equal(a, b, 0.25)
	require.NoError(t, err)
	require.False(t, ok)

	small := fromRows(t, [][]float32{{1}})
	ok, err = matrix.Equal(a, small, 10)
	require.NoError(t, err)
	require.False(t, ok)

	_, err = matrix.Equal(nil, a, 0)
	require.ErrorIs(t, err, matrix.ErrNilBlock)
}

// TestStamp places a block at a grid offset inside a larger one.
func TestStamp(t *testing.T) {
	dst, err := matrix.New(4)
	require.NoError(t, err)
	src := fromRows(t, [][]float32{{1, 2}, {3, 4}})

	matrix.Stamp(dst, src, 2, 2)
	require.Equal(t, float32(1), dst.Get(2, 2))
	require.Equal(t, float32(4), dst.Get(3, 3))
	require.Equal(t, float32(0), dst.Get(0, 0))
	require.Equal(t, float64(10), matrix.Sum(dst))
}

// TestParseKernel covers the flag spellings.
func TestParseKernel(t *testing.T) {
	k, err := matrix.ParseKernel("blas")
	require.NoError(t, err)
	require.Equal(t, matrix.KernelBLAS, k)

	_, err = matrix.ParseKernel("avx")
	require.ErrorIs(t, err, matrix.ErrUnknownKernel)
}
