// SPDX-License-Identifier: MIT
// Package matrix_test contains unit tests for the matrix validators.
package matrix_test

import (
	"errors"
	"testing"

	"github.com/katalvlaran/gridmm/matrix"
	"github.com/stretchr/testify/require"
)

// TestValidateSameSize covers nil inputs, freed blocks, matching and mismatched sides.
func TestValidateSameSize(t *testing.T) {
	t.Parallel()

	block := func(n int) *matrix.Block {
		m, err := matrix.New(n)
		require.NoError(t, err)
		return m
	}
	freed := block(2)
	require.NoError(t, freed.Free())

	tests := []struct {
		name    string
		blocks  []*matrix.Block
		wantErr error
	}{
		{"no blocks", nil, nil},
		{"first nil", []*matrix.Block{nil, block(2)}, matrix.ErrNilBlock},
		{"second nil", []*matrix.Block{block(2), nil}, matrix.ErrNilBlock},
		{"freed", []*matrix.Block{block(2), freed}, matrix.ErrFreed},
		{"equal 3", []*matrix.Block{block(3), block(3), block(3)}, nil},
		{"side mismatch", []*matrix.Block{block(2), block(3)}, matrix.ErrDimensionMismatch},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := matrix.ValidateSameSize(tc.blocks...)
			if tc.wantErr == nil {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
				require.Truef(t, errors.Is(err, tc.wantErr),
					"expected errors.Is(%v, %v)", err, tc.wantErr)
			}
		})
	}
}

// TestValidateLive covers nil, live and freed blocks.
func TestValidateLive(t *testing.T) {
	t.Parallel()

	m, err := matrix.New(1)
	require.NoError(t, err)
	require.NoError(t, matrix.ValidateLive(m))
	require.ErrorIs(t, matrix.ValidateLive(nil), matrix.ErrNilBlock)

	require.NoError(t, m.Free())
	require.ErrorIs(t, matrix.ValidateLive(m), matrix.ErrFreed)
}
