// Package verify checks a distributed product after the timed multiply.
//
// Two checks exist. The full check gathers A, B and C on rank 0 and compares
// C with the sequential product; it is exact up to DefaultEpsilon but costs
// O(N²) memory and O(N³) time on the root. The sum check reduces the sum of
// every C block and compares it with N³(N−1)²/2, the closed form for the
// benchmark's initial values; it is cheap but only relative-precise.
package verify

import (
	"context"
	"fmt"
	"math"

	"github.com/katalvlaran/gridmm/comm"
	"github.com/katalvlaran/gridmm/grid"
	"github.com/katalvlaran/gridmm/matrix"
)

// Tags of the gathered matrices. Each matrix has its own so that gathers
// issued back to back never mix.
const (
	TagGatherA = 1
	TagGatherB = 2
	TagGatherC = 3
)

// SumTolerance is the relative tolerance of CheckSum.
const SumTolerance = 1e-6

// Gather assembles the global matrix on world rank 0 from every rank's
// block, using tag for the point-to-point traffic. Rank 0 receives the
// blocks in row-major grid order. It returns the global matrix on rank 0 and
// nil elsewhere.
func Gather(ctx context.Context, world *comm.Comm, g grid.Grid, blk *matrix.Block, tag int) (*matrix.Block, error) {
	if err := matrix.ValidateLive(blk); err != nil {
		return nil, fmt.Errorf("verify.Gather: %w", err)
	}
	if world.Rank() != 0 {
		if err := world.Send(ctx, blk.View(), 0, tag); err != nil {
			return nil, fmt.Errorf("verify.Gather: %w", err)
		}
		return nil, nil
	}

	global, err := matrix.New(g.GlobalSize())
	if err != nil {
		return nil, fmt.Errorf("verify.Gather: %w", err)
	}
	buf, err := matrix.New(g.LocalSize())
	if err != nil {
		return nil, fmt.Errorf("verify.Gather: %w", err)
	}
	for ip := 0; ip < g.Side(); ip++ {
		for jp := 0; jp < g.Side(); jp++ {
			c := grid.Coord{I: ip, J: jp}
			src := blk
			if r := g.Rank(c); r != 0 {
				if err = world.Recv(ctx, buf.View(), r, tag); err != nil {
					return nil, fmt.Errorf("verify.Gather: from rank %d: %w", r, err)
				}
				src = buf
			}
			row, col := g.Offset(c)
			matrix.Stamp(global, src, row, col)
		}
	}

	return global, nil
}

// CheckProduct gathers A, B and C and, on rank 0, compares C with the
// sequential A·B. Every rank must call it. Only rank 0 can fail with
// ErrProductMismatch.
func CheckProduct(ctx context.Context, world *comm.Comm, g grid.Grid, a, b, c *matrix.Block) error {
	ga, err := Gather(ctx, world, g, a, TagGatherA)
	if err != nil {
		return err
	}
	gb, err := Gather(ctx, world, g, b, TagGatherB)
	if err != nil {
		return err
	}
	gc, err := Gather(ctx, world, g, c, TagGatherC)
	if err != nil {
		return err
	}
	if world.Rank() != 0 {
		return nil
	}

	want, err := matrix.SeqProduct(ga, gb)
	if err != nil {
		return fmt.Errorf("verify.CheckProduct: %w", err)
	}
	ok, err := matrix.Equal(want, gc, matrix.DefaultEpsilon)
	if err != nil {
		return fmt.Errorf("verify.CheckProduct: %w", err)
	}
	if !ok {
		return fmt.Errorf("verify.CheckProduct: N=%d: %w", g.GlobalSize(), ErrProductMismatch)
	}

	return nil
}

// ExpectedSum is Σ C for C = A·B with the benchmark's A and B: N³(N−1)²/2.
func ExpectedSum(n int) float64 {
	fn := float64(n)

	return fn * fn * fn * (fn - 1) * (fn - 1) / 2
}

// CheckSum reduces the sum of every C block to rank 0 and compares it with
// ExpectedSum within SumTolerance. Every rank must call it.
func CheckSum(ctx context.Context, world *comm.Comm, g grid.Grid, c *matrix.Block) error {
	if err := matrix.ValidateLive(c); err != nil {
		return fmt.Errorf("verify.CheckSum: %w", err)
	}
	total, err := world.ReduceSum(ctx, matrix.Sum(c), 0)
	if err != nil {
		return fmt.Errorf("verify.CheckSum: %w", err)
	}
	if world.Rank() != 0 {
		return nil
	}

	expected := ExpectedSum(g.GlobalSize())
	diff := math.Abs(total - expected)
	if expected != 0 {
		diff /= expected
	}
	if diff > SumTolerance {
		return fmt.Errorf("verify.CheckSum: expected %f, observed %f: %w", expected, total, ErrSumMismatch)
	}

	return nil
}

// Run executes the checks selected by m, full before sum.
func Run(ctx context.Context, world *comm.Comm, g grid.Grid, m Mode, a, b, c *matrix.Block) error {
	if m.Full() {
		if err := CheckProduct(ctx, world, g, a, b, c); err != nil {
			return err
		}
	}
	if m.Sum() {
		if err := CheckSum(ctx, world, g, c); err != nil {
			return err
		}
	}

	return nil
}
