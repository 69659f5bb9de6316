package comm

import (
	"errors"
	"fmt"
)

// Sentinel errors for communicator operations.
var (
	// ErrRankOutOfRange indicates a peer or root rank outside [0, Size()).
	ErrRankOutOfRange = errors.New("comm: rank out of range")
	// ErrReservedTag indicates a negative tag; those belong to collectives.
	ErrReservedTag = errors.New("comm: negative tags are reserved")
	// ErrCountMismatch indicates a received payload whose length differs from the receive buffer.
	ErrCountMismatch = errors.New("comm: message length does not match receive buffer")
	// ErrFreed indicates use of a communicator after Free.
	ErrFreed = errors.New("comm: communicator has been freed")
	// ErrClosed indicates use of a transport after Close.
	ErrClosed = errors.New("comm: transport closed")
	// ErrBadFrame indicates a frame that cannot be decoded.
	ErrBadFrame = errors.New("comm: malformed frame")
)

// AbortError is returned by every pending and future operation of a world
// after any of its ranks called Abort.
type AbortError struct {
	Rank int // world rank that aborted
	Code int // exit code requested by that rank
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("comm: aborted by rank %d with code %d", e.Rank, e.Code)
}

// IsAbort reports whether err is, or wraps, an *AbortError.
func IsAbort(err error) bool {
	var ae *AbortError
	return errors.As(err, &ae)
}

// opErrorf wraps err with the communicator operation tag.
func opErrorf(op string, err error) error {
	return fmt.Errorf("comm.%s: %w", op, err)
}
