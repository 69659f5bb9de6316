// Package bench runs the distributed multiply benchmark on one world: it
// initialises the blocks, times the multiply between two barriers, prints the
// result lines and optionally verifies the product.
package bench

import (
	"context"
	"fmt"
	"io"
	"time"

	"k8s.io/klog/v2"

	"github.com/katalvlaran/gridmm/comm"
	"github.com/katalvlaran/gridmm/matmul"
	"github.com/katalvlaran/gridmm/matrix"
	"github.com/katalvlaran/gridmm/verify"
)

// Result is one rank's view of a run. Elapsed and Gflops are measured
// between the barriers around the multiply, so they agree across ranks up to
// barrier skew; rank 0's values are the ones reported.
type Result struct {
	Rank    int
	Procs   int
	Size    int
	Elapsed time.Duration
	Timing  matmul.Timing
	Gflops  float64
}

// Gflops is the rate of 2N³ floating-point operations over elapsed.
func Gflops(size int, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	n := float64(size)

	return 2 * n * n * n / elapsed.Seconds() / 1e9
}

// Run executes one benchmark as a collective over world and writes the
// result lines to out. Any error invalidates the whole run; the caller is
// expected to abort the world.
func Run(ctx context.Context, world *comm.Comm, cfg Config, out io.Writer) (Result, error) {
	g, err := cfg.Grid(world.Size())
	if err != nil {
		return Result{}, err
	}
	rank := world.Rank()
	coord := g.Coord(rank)
	n := g.LocalSize()
	bopts := cfg.blockOptions()

	a, err := matrix.InitA(n, coord.I, coord.J, bopts...)
	if err != nil {
		return Result{}, fmt.Errorf("bench.Run: %w", err)
	}
	defer a.Free()
	b, err := matrix.InitB(n, coord.I, coord.J, bopts...)
	if err != nil {
		return Result{}, fmt.Errorf("bench.Run: %w", err)
	}
	defer b.Free()
	c, err := matrix.InitC(n, bopts...)
	if err != nil {
		return Result{}, fmt.Errorf("bench.Run: %w", err)
	}
	defer c.Free()
	klog.V(1).InfoS("blocks ready", "rank", rank, "coord", coord, "local", n, "alloc", cfg.Alloc)

	if err = world.Barrier(ctx); err != nil {
		return Result{}, fmt.Errorf("bench.Run: %w", err)
	}
	start := comm.Now()
	tm, err := matmul.Multiply(ctx, world, g, a, b, c, cfg.multiplyOptions()...)
	if err != nil {
		return Result{}, fmt.Errorf("bench.Run: %w", err)
	}
	if err = WriteRankLine(out, rank, tm); err != nil {
		return Result{}, fmt.Errorf("bench.Run: %w", err)
	}
	if err = world.Barrier(ctx); err != nil {
		return Result{}, fmt.Errorf("bench.Run: %w", err)
	}
	elapsed := comm.Now().Sub(start)

	if err = verify.Run(ctx, world, g, cfg.Verify, a, b, c); err != nil {
		return Result{}, err
	}

	res := Result{
		Rank:    rank,
		Procs:   g.Procs(),
		Size:    g.GlobalSize(),
		Elapsed: elapsed,
		Timing:  tm,
		Gflops:  Gflops(g.GlobalSize(), elapsed),
	}
	if rank == 0 {
		if err = WriteSummary(out, res); err != nil {
			return res, fmt.Errorf("bench.Run: %w", err)
		}
	}

	return res, nil
}
