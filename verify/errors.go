package verify

import "errors"

var (
	// ErrProductMismatch indicates a distributed product that differs from
	// the sequential one.
	ErrProductMismatch = errors.New("verify: sequential product and parallel product are not equal")

	// ErrSumMismatch indicates a global sum of C outside the relative
	// tolerance of its closed form.
	ErrSumMismatch = errors.New("verify: matrix sum differs from N^3(N-1)^2/2")

	// ErrUnknownMode indicates a verification mode name outside none|sum|full|both.
	ErrUnknownMode = errors.New("verify: unknown mode")
)
