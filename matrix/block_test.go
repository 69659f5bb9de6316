// Package matrix_test contains unit tests for Block storage, allocators and
// initializers.
package matrix_test

import (
	"testing"

	"github.com/katalvlaran/gridmm/matrix"
	"github.com/stretchr/testify/require"
)

// TestNewInvalidDimensions ensures that New rejects non-positive sides.
func TestNewInvalidDimensions(t *testing.T) {
	_, err := matrix.New(0)
	require.ErrorIs(t, err, matrix.ErrInvalidDimensions)

	_, err = matrix.New(-3)
	require.ErrorIs(t, err, matrix.ErrInvalidDimensions)
}

// TestNewIsZeroed verifies the row-major layout and zero fill.
func TestNewIsZeroed(t *testing.T) {
	m, err := matrix.New(3)
	require.NoError(t, err)
	require.Equal(t, 3, m.Size())
	require.Len(t, m.View(), 9)
	for _, v := range m.View() {
		require.Zero(t, v)
	}
}

// TestGetSetRowMajor checks that Set(i,j) lands at offset i*n+j.
func TestGetSetRowMajor(t *testing.T) {
	m, err := matrix.New(4)
	require.NoError(t, err)

	m.Set(2, 1, 7.5)
	require.Equal(t, float32(7.5), m.Get(2, 1))
	require.Equal(t, float32(7.5), m.View()[2*4+1])
	require.Equal(t, []float32{0, 7.5, 0, 0}, m.Row(2))
}

// TestCloneIndependence ensures Clone does not share storage.
func TestCloneIndependence(t *testing.T) {
	m, err := matrix.New(2)
	require.NoError(t, err)
	m.Set(0, 0, 1)

	cp, err := m.Clone()
	require.NoError(t, err)
	cp.Set(0, 0, 3)

	require.Equal(t, float32(1), m.Get(0, 0))
	require.Equal(t, float32(3), cp.Get(0, 0))
}

// TestCopy covers the happy path and the size guard.
func TestCopy(t *testing.T) {
	src, err := matrix.InitB(2, 1, 0)
	require.NoError(t, err)
	dst, err := matrix.New(2)
	require.NoError(t, err)

	require.NoError(t, matrix.Copy(dst, src))
	require.Equal(t, src.View(), dst.View())

	small, err := matrix.New(1)
	require.NoError(t, err)
	require.ErrorIs(t, matrix.Copy(small, src), matrix.ErrDimensionMismatch)
	require.ErrorIs(t, matrix.Copy(nil, src), matrix.ErrNilBlock)
}

// TestFreeTwice ensures Free is idempotent and that a freed block is rejected.
func TestFreeTwice(t *testing.T) {
	m, err := matrix.New(2)
	require.NoError(t, err)
	require.NoError(t, m.Free())
	require.NoError(t, m.Free())

	_, err = m.Clone()
	require.ErrorIs(t, err, matrix.ErrFreed)
}

// TestStringOutput checks the "%6.3f" rendering used for debugging.
func TestStringOutput(t *testing.T) {
	m, err := matrix.InitA(2, 0, 0)
	require.NoError(t, err)

	require.Equal(t, " 0.000  0.000\n 1.000  1.000\n", m.String())
}

// TestInitializersUseGlobalIndices checks the closed forms at a non-zero
// grid offset: rank (1,2) of a grid with local side 2.
func TestInitializersUseGlobalIndices(t *testing.T) {
	const n, pi, pj = 2, 1, 2

	a, err := matrix.InitA(n, pi, pj)
	require.NoError(t, err)
	b, err := matrix.InitB(n, pi, pj)
	require.NoError(t, err)
	c, err := matrix.InitC(n)
	require.NoError(t, err)

	// global rows 2..3, global cols 4..5
	require.Equal(t, []float32{2, 2, 3, 3}, a.View())
	require.Equal(t, []float32{6, 7, 7, 8}, b.View())
	require.Equal(t, []float32{0, 0, 0, 0}, c.View())
}

// TestFillNegativeOffset ensures the initializer guard.
func TestFillNegativeOffset(t *testing.T) {
	m, err := matrix.New(2)
	require.NoError(t, err)
	require.ErrorIs(t, matrix.Fill(m, -1, 0, matrix.ValueA), matrix.ErrNegativeOffset)
}
