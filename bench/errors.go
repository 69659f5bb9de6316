package bench

import (
	"errors"

	"github.com/katalvlaran/gridmm/grid"
)

var (
	// ErrMissingSize indicates a run without a matrix size.
	ErrMissingSize = errors.New("bench: missing matrix size")

	// ErrInvalidSize indicates a matrix size that is not a positive integer.
	ErrInvalidSize = errors.New("bench: invalid matrix size")

	// ErrBadSweep indicates an empty or non-positive sweep axis.
	ErrBadSweep = errors.New("bench: invalid sweep")
)

// Usage messages printed by the command line for configuration errors.
const (
	MsgMissingSize   = "Missing <matrix size> argument"
	MsgInvalidSize   = "Matrix size must be a positive integer."
	MsgNotSquare     = "Number of processes is not a square."
	MsgNotDivisible  = "Matrix size is not a multiple of the square root of the number of processes."
	MsgInvalidConfig = "Invalid configuration."
)

// UsageMessage returns the user-facing message for a configuration error,
// and false for any other error.
func UsageMessage(err error) (string, bool) {
	switch {
	case errors.Is(err, ErrMissingSize):
		return MsgMissingSize, true
	case errors.Is(err, ErrInvalidSize):
		return MsgInvalidSize, true
	case errors.Is(err, grid.ErrNotSquare):
		return MsgNotSquare, true
	case errors.Is(err, grid.ErrNotDivisible):
		return MsgNotDivisible, true
	case errors.Is(err, grid.ErrInvalidSize), errors.Is(err, ErrBadSweep):
		return MsgInvalidConfig, true
	default:
		return "", false
	}
}
