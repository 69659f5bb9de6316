// Package grid maps a flat process rank onto an S×S process grid and maps
// indices of the global N×N matrix onto the local blocks owned by each grid
// cell.
//
// Layout is row-major over ranks: rank r sits at (I, J) = (r / S, r % S),
// and owns the global rows [I*n, (I+1)*n) and columns [J*n, (J+1)*n) where
// n = N / S is the local block side.
package grid

import "fmt"

// Coord is the position of a rank in the process grid.
type Coord struct {
	I, J int // grid row, grid column
}

// String formats the coordinate as "(i,j)".
func (c Coord) String() string { return fmt.Sprintf("(%d,%d)", c.I, c.J) }

// Grid is an immutable, validated S×S process grid over an N×N matrix.
// Values are cheap to copy; pass them by value.
type Grid struct {
	side   int // S = sqrt(P)
	global int // N
	local  int // N / S
}

// ISqrt returns floor(sqrt(n)) by Newton iteration on integers, starting from
// x = n and stopping as soon as the next iterate no longer decreases.
// ISqrt(0) == 0; negative inputs yield 0.
// Complexity: O(log n).
func ISqrt(n int) int {
	if n <= 0 {
		return 0
	}
	x := n
	y := x/2 + x%2
	for y < x {
		x = y
		y = (x + n/x) / 2
	}

	return x
}

// New validates a grid of numProcs processes over a globalSize×globalSize
// matrix. numProcs must be a perfect square and globalSize a multiple of its
// square root.
// Returns ErrInvalidSize, ErrNotSquare or ErrNotDivisible.
func New(numProcs, globalSize int) (Grid, error) {
	if numProcs <= 0 || globalSize <= 0 {
		return Grid{}, fmt.Errorf("grid.New(%d,%d): %w", numProcs, globalSize, ErrInvalidSize)
	}
	side := ISqrt(numProcs)
	if side*side != numProcs {
		return Grid{}, fmt.Errorf("grid.New: %d processes: %w", numProcs, ErrNotSquare)
	}
	if globalSize%side != 0 {
		return Grid{}, fmt.Errorf("grid.New: size %d, side %d: %w", globalSize, side, ErrNotDivisible)
	}

	return Grid{side: side, global: globalSize, local: globalSize / side}, nil
}

// Side returns S, the number of grid rows (and columns).
func (g Grid) Side() int { return g.side }

// Procs returns P = S².
func (g Grid) Procs() int { return g.side * g.side }

// GlobalSize returns N.
func (g Grid) GlobalSize() int { return g.global }

// LocalSize returns the local block side N / S.
func (g Grid) LocalSize() int { return g.local }

// Contains reports whether rank is a valid rank of the grid.
func (g Grid) Contains(rank int) bool { return rank >= 0 && rank < g.Procs() }

// Coord returns the grid coordinate of rank. The caller guarantees
// Contains(rank); use CoordOf for a checked variant.
func (g Grid) Coord(rank int) Coord {
	return Coord{I: rank / g.side, J: rank % g.side}
}

// CoordOf is Coord with a range check.
func (g Grid) CoordOf(rank int) (Coord, error) {
	if !g.Contains(rank) {
		return Coord{}, fmt.Errorf("grid.CoordOf(%d): %w", rank, ErrRankOutOfRange)
	}

	return g.Coord(rank), nil
}

// Rank is the inverse of Coord.
func (g Grid) Rank(c Coord) int { return c.I*g.side + c.J }

// LocalToGlobal maps local block indices of the block at c to global indices.
func (g Grid) LocalToGlobal(c Coord, li, lj int) (gi, gj int) {
	return c.I*g.local + li, c.J*g.local + lj
}

// GlobalToLocal maps global indices to indices inside the owning block.
func (g Grid) GlobalToLocal(gi, gj int) (li, lj int) {
	return gi % g.local, gj % g.local
}

// Owner returns the coordinate of the block holding global cell (gi, gj).
func (g Grid) Owner(gi, gj int) Coord {
	return Coord{I: gi / g.local, J: gj / g.local}
}

// Offset returns the global (row, col) of the top-left cell of the block at c.
func (g Grid) Offset(c Coord) (row, col int) {
	return c.I * g.local, c.J * g.local
}
