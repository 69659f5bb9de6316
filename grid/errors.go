package grid

import "errors"

// Sentinel errors for grid construction. The benchmark treats every one of
// them as a fatal configuration error for the whole process group.
var (
	// ErrInvalidSize indicates a non-positive process count or matrix size.
	ErrInvalidSize = errors.New("grid: process count and matrix size must be > 0")
	// ErrNotSquare indicates a process count that is not a perfect square.
	ErrNotSquare = errors.New("grid: number of processes is not a square")
	// ErrNotDivisible indicates a matrix size that is not a multiple of the grid side.
	ErrNotDivisible = errors.New("grid: matrix size is not a multiple of the grid side")
	// ErrRankOutOfRange indicates a rank outside [0, P).
	ErrRankOutOfRange = errors.New("grid: rank out of range")
)
