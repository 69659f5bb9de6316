// SPDX-License-Identifier: MIT
// Package: matrix
//
// Purpose:
//   - Single source of truth for the guards shared by Copy, Equal and MulAdd.
//   - Return sentinel errors wrapped with the validator tag so call sites can
//     wrap once more with their own operation tag.
//
// All checks are pure, deterministic and allocate nothing.

package matrix

import "fmt"

// validatorErrorf wraps an underlying error with the given validator tag.
func validatorErrorf(tag string, err error) error {
	return fmt.Errorf("%s: %w", tag, err)
}

// ValidateLive ensures the block is non-nil and has not been freed.
// Complexity: O(1).
func ValidateLive(m *Block) error {
	if m == nil {
		return validatorErrorf("ValidateLive", ErrNilBlock)
	}
	if m.data == nil {
		return validatorErrorf("ValidateLive", ErrFreed)
	}

	return nil
}

// ValidateSameSize ensures every block is live and all share one side.
// Complexity: O(k) for k blocks.
func ValidateSameSize(blocks ...*Block) error {
	if len(blocks) == 0 {
		return nil
	}
	for _, b := range blocks {
		if err := ValidateLive(b); err != nil {
			return err
		}
	}
	for _, b := range blocks[1:] {
		if b.n != blocks[0].n {
			return validatorErrorf("ValidateSameSize", ErrDimensionMismatch)
		}
	}

	return nil
}
