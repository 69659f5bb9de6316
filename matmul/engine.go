// Package matmul multiplies two block-distributed N×N matrices on an S×S
// process grid.
//
// Rank (I, J) owns A(I,J), B(I,J) and C(I,J). In round k the rank with J == k
// broadcasts its A block along its grid row and the rank with I == k
// broadcasts its B block along its grid column; every rank then adds
// A(I,k)·B(k,J) into its C block. After S rounds C(I,J) = Σ_k A(I,k)·B(k,J).
//
// With the naive kernel, every C cell accumulates its terms in the same
// global order as the sequential product, so results are bit-identical to
// matrix.SeqProduct.
package matmul

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"

	"github.com/katalvlaran/gridmm/comm"
	"github.com/katalvlaran/gridmm/grid"
	"github.com/katalvlaran/gridmm/matrix"
)

// role is a rank's part in one broadcast: it either sends its own block or
// receives into a scratch block. Either way block() is the operand to use.
type role interface {
	block() *matrix.Block
}

// source sends the block it owns; nothing is copied.
type source struct{ own *matrix.Block }

// receiver is overwritten by the broadcast.
type receiver struct{ scratch *matrix.Block }

func (s source) block() *matrix.Block   { return s.own }
func (r receiver) block() *matrix.Block { return r.scratch }

func pick(isSource bool, own, scratch *matrix.Block) role {
	if isSource {
		return source{own: own}
	}

	return receiver{scratch: scratch}
}

// groups are the row and column communicators of one rank.
type groups struct {
	row *comm.Comm // color I, ordered by J
	col *comm.Comm // color J, ordered by I
}

func newGroups(ctx context.Context, world *comm.Comm, c grid.Coord) (groups, error) {
	row, err := world.Split(ctx, c.I, c.J)
	if err != nil {
		return groups{}, fmt.Errorf("row group: %w", err)
	}
	col, err := world.Split(ctx, c.J, c.I)
	if err != nil {
		_ = row.Free()
		return groups{}, fmt.Errorf("column group: %w", err)
	}

	return groups{row: row, col: col}, nil
}

func (g groups) free() {
	_ = g.row.Free()
	_ = g.col.Free()
}

// Multiply adds A·B into the local C block of the calling rank. It is a
// collective over world: every rank must call it with its own blocks.
// C is accumulated into, never reset.
//
// Errors: ErrGridMismatch, ErrBlockSize, matrix validation errors, and any
// communication error, which leaves C partially updated.
func Multiply(ctx context.Context, world *comm.Comm, g grid.Grid, a, b, c *matrix.Block, opts ...Option) (Timing, error) {
	o := gatherOptions(opts...)
	if world.Size() != g.Procs() {
		return Timing{}, fmt.Errorf("matmul.Multiply: world %d, grid %d: %w", world.Size(), g.Procs(), ErrGridMismatch)
	}
	if err := matrix.ValidateSameSize(a, b, c); err != nil {
		return Timing{}, fmt.Errorf("matmul.Multiply: %w", err)
	}
	n := g.LocalSize()
	if a.Size() != n {
		return Timing{}, fmt.Errorf("matmul.Multiply: block %d, local %d: %w", a.Size(), n, ErrBlockSize)
	}

	coord := g.Coord(world.Rank())
	grp, err := newGroups(ctx, world, coord)
	if err != nil {
		return Timing{}, fmt.Errorf("matmul.Multiply: %w", err)
	}
	defer grp.free()

	scratchA, err := matrix.New(n, o.scratchO...)
	if err != nil {
		return Timing{}, fmt.Errorf("matmul.Multiply: %w", err)
	}
	defer scratchA.Free()
	scratchB, err := matrix.New(n, o.scratchO...)
	if err != nil {
		return Timing{}, fmt.Errorf("matmul.Multiply: %w", err)
	}
	defer scratchB.Free()

	var tm Timing
	for k := 0; k < g.Side(); k++ {
		ra := pick(coord.J == k, a, scratchA)
		rb := pick(coord.I == k, b, scratchB)

		t0 := o.clock()
		if err = o.broadcast(ctx, grp, ra, rb, k); err != nil {
			return tm, fmt.Errorf("matmul.Multiply: round %d: %w", k, err)
		}
		t1 := o.clock()
		if err = matrix.MulAdd(ra.block(), rb.block(), c, o.kernel); err != nil {
			return tm, fmt.Errorf("matmul.Multiply: round %d: %w", k, err)
		}
		t2 := o.clock()

		tm.Communication += t1.Sub(t0)
		tm.Computation += t2.Sub(t1)
		tm.Rounds++
		klog.V(3).InfoS("round done", "rank", world.Rank(), "coord", coord, "round", k,
			"comm", t1.Sub(t0), "comp", t2.Sub(t1))
	}

	return tm, nil
}

// broadcast moves A(I,k) along the row group and B(k,J) along the column
// group. Group rank k is the source in both.
func (o Options) broadcast(ctx context.Context, grp groups, ra, rb role, k int) error {
	if !o.overlap {
		if err := grp.row.Bcast(ctx, ra.block().View(), k); err != nil {
			return fmt.Errorf("broadcast A: %w", err)
		}
		if err := grp.col.Bcast(ctx, rb.block().View(), k); err != nil {
			return fmt.Errorf("broadcast B: %w", err)
		}
		return nil
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		if err := grp.row.Bcast(egCtx, ra.block().View(), k); err != nil {
			return fmt.Errorf("broadcast A: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		if err := grp.col.Bcast(egCtx, rb.block().View(), k); err != nil {
			return fmt.Errorf("broadcast B: %w", err)
		}
		return nil
	})

	return eg.Wait()
}
