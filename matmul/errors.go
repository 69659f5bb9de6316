package matmul

import "errors"

var (
	// ErrGridMismatch indicates a world whose size differs from the grid's process count.
	ErrGridMismatch = errors.New("matmul: world size does not match grid")

	// ErrBlockSize indicates a local block whose side is not the grid's local size.
	ErrBlockSize = errors.New("matmul: block size does not match grid")
)
