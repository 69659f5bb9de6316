// SPDX-License-Identifier: MIT
// Package matrix: sentinel error set.
// This file defines ONLY package-level sentinel errors used across the matrix
// package. Every function returns these sentinels (possibly wrapped with an
// operation tag) and tests match them via errors.Is. No exported function
// panics on user-triggered conditions; option constructors panic on
// nonsensical values (programmer error).

package matrix

import "errors"

// Every message is prefixed with "matrix: ..." so it can be grepped in logs.
// Wrap with fmt.Errorf("Op: %w", ErrX) at the detection site; callers still
// use errors.Is.

var (
	// ErrInvalidDimensions indicates that a requested block side is not positive.
	ErrInvalidDimensions = errors.New("matrix: dimensions must be > 0")

	// ErrDimensionMismatch indicates operands of different sides, e.g. Copy
	// into a smaller block or MulAdd over blocks of unequal size.
	ErrDimensionMismatch = errors.New("matrix: dimension mismatch")

	// ErrNilBlock indicates that a nil *Block (receiver or argument) was used.
	ErrNilBlock = errors.New("matrix: nil block")

	// ErrFreed indicates use of a block after Free.
	ErrFreed = errors.New("matrix: block has been freed")

	// ErrAlloc indicates that the backing storage could not be obtained.
	ErrAlloc = errors.New("matrix: allocation failed")

	// ErrAllocUnsupported indicates an allocator that is not available on
	// the running platform (e.g. AllocMmap outside Linux).
	ErrAllocUnsupported = errors.New("matrix: allocator not supported on this platform")

	// ErrUnknownKernel indicates a Kernel value outside the defined set.
	ErrUnknownKernel = errors.New("matrix: unknown kernel")

	// ErrNegativeOffset indicates a negative grid offset passed to an initializer.
	ErrNegativeOffset = errors.New("matrix: grid offset must be >= 0")
)
