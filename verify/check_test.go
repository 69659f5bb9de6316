package verify_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/gridmm/comm"
	"github.com/katalvlaran/gridmm/comm/local"
	"github.com/katalvlaran/gridmm/grid"
	"github.com/katalvlaran/gridmm/matmul"
	"github.com/katalvlaran/gridmm/matrix"
	"github.com/katalvlaran/gridmm/verify"
)

// blocks returns the A, B and zero C blocks of world rank r.
func blocks(g grid.Grid, r int) (a, b, c *matrix.Block, err error) {
	co := g.Coord(r)
	if a, err = matrix.InitA(g.LocalSize(), co.I, co.J); err != nil {
		return
	}
	if b, err = matrix.InitB(g.LocalSize(), co.I, co.J); err != nil {
		return
	}
	c, err = matrix.InitC(g.LocalSize())
	return
}

// TestGather reassembles A on rank 0 and compares it with the global A.
func TestGather(t *testing.T) {
	g, err := grid.New(9, 12)
	require.NoError(t, err)
	want, err := matrix.InitA(12, 0, 0)
	require.NoError(t, err)

	var got *matrix.Block
	err = local.Run(context.Background(), 9, func(ctx context.Context, w *comm.Comm) error {
		a, _, _, err := blocks(g, w.Rank())
		if err != nil {
			return err
		}
		m, err := verify.Gather(ctx, w, g, a, verify.TagGatherA)
		if err != nil {
			return err
		}
		if w.Rank() == 0 {
			got = m
		} else if m != nil {
			t.Errorf("rank %d got a global matrix", w.Rank())
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, want.View(), got.View())
}

// TestChecksAfterMultiply runs both checks on a correct product.
func TestChecksAfterMultiply(t *testing.T) {
	for _, tc := range []struct{ procs, size int }{{1, 5}, {4, 8}, {16, 16}} {
		g, err := grid.New(tc.procs, tc.size)
		require.NoError(t, err)
		err = local.Run(context.Background(), tc.procs, func(ctx context.Context, w *comm.Comm) error {
			a, b, c, err := blocks(g, w.Rank())
			if err != nil {
				return err
			}
			if _, err = matmul.Multiply(ctx, w, g, a, b, c); err != nil {
				return err
			}
			return verify.Run(ctx, w, g, verify.ModeBoth, a, b, c)
		})
		require.NoError(t, err, "P=%d N=%d", tc.procs, tc.size)
	}
}

// TestChecksDetectCorruption flips one cell of C and expects both checks to fail on rank 0.
func TestChecksDetectCorruption(t *testing.T) {
	g, err := grid.New(4, 8)
	require.NoError(t, err)

	run := func(mode verify.Mode) error {
		return local.Run(context.Background(), 4, func(ctx context.Context, w *comm.Comm) error {
			a, b, c, err := blocks(g, w.Rank())
			if err != nil {
				return err
			}
			if _, err = matmul.Multiply(ctx, w, g, a, b, c); err != nil {
				return err
			}
			if w.Rank() == 3 {
				c.Set(1, 1, c.Get(1, 1)+1000)
			}
			return verify.Run(ctx, w, g, mode, a, b, c)
		})
	}
	require.ErrorIs(t, run(verify.ModeFull), verify.ErrProductMismatch)
	require.ErrorIs(t, run(verify.ModeSum), verify.ErrSumMismatch)
	require.NoError(t, run(verify.ModeNone))
}

// TestExpectedSum pins the closed form.
func TestExpectedSum(t *testing.T) {
	require.Equal(t, 545469235200.0, verify.ExpectedSum(256))
	require.Equal(t, 0.0, verify.ExpectedSum(1))
	require.Equal(t, 54.0, verify.ExpectedSum(3))
}

// TestParseMode covers every spelling and the error path.
func TestParseMode(t *testing.T) {
	for _, m := range []verify.Mode{verify.ModeNone, verify.ModeSum, verify.ModeFull, verify.ModeBoth} {
		got, err := verify.ParseMode(m.String())
		require.NoError(t, err)
		require.Equal(t, m, got)
	}
	got, err := verify.ParseMode(" BOTH ")
	require.NoError(t, err)
	require.True(t, got.Full())
	require.True(t, got.Sum())
	require.False(t, verify.ModeSum.Full())

	_, err = verify.ParseMode("partial")
	require.ErrorIs(t, err, verify.ErrUnknownMode)
}
