// SPDX-License-Identifier: MIT

// Package matrix - Block storage (square, row-major float32).
//
// Purpose:
//   - Provide the local block every grid rank owns: a contiguous n×n float32
//     buffer with the explicit index formula i*n + j.
//   - Keep the hot path free of bounds bookkeeping: Get/Set rely on the
//     runtime slice check only, callers guarantee 0 ≤ i,j < n.
//   - Expose the flat buffer (View) so the communication layer can send and
//     receive a block without an intermediate copy.
//
// Complexity quicksheet:
//   - New: O(n²) zero-init; Get/Set: O(1); Clone/Copy: O(n²); View: O(1).

package matrix

import (
	"fmt"
	"strings"
)

// ---------- error context tags ----------

const (
	ctxNew   = "New"
	ctxCopy  = "Copy"
	ctxClone = "Clone"
	ctxFree  = "Free"
)

// ---------- Formatting literals ----------
const (
	_fmtCell = "%6.3f"
	_fmtSep  = " "
	_fmtEOL  = "\n"
)

// blockErrorf wraps an error with a uniform Block context.
func blockErrorf(method string, err error) error {
	return fmt.Errorf("Block.%s: %w", method, err)
}

// Block is a square row-major float32 matrix.
//   - n is the side; immutable after construction.
//   - data is a flat buffer of length n*n (offset = i*n + j).
//   - release returns non-heap storage to the OS; nil for heap blocks.
type Block struct {
	n       int
	data    []float32
	release func() error
}

var _ fmt.Stringer = (*Block)(nil)

// New allocates a zero-filled n×n block.
//
// Implementation:
//   - Stage 1: validate n > 0; else ErrInvalidDimensions.
//   - Stage 2: resolve options and obtain storage from the selected allocator.
//
// Errors:
//   - ErrInvalidDimensions, ErrAlloc, ErrAllocUnsupported.
//
// Complexity:
//   - Time O(n²), Space O(n²).
func New(n int, opts ...Option) (*Block, error) {
	if n <= 0 {
		return nil, blockErrorf(ctxNew, ErrInvalidDimensions)
	}
	o := gatherOptions(opts...)

	var (
		data    []float32
		release func() error
		err     error
	)
	switch o.alloc {
	case AllocMmap:
		data, release, err = mmapFloats(n*n, o.hugePages)
	default:
		data, err = heapFloats(n * n)
	}
	if err != nil {
		return nil, blockErrorf(ctxNew, err)
	}

	return &Block{n: n, data: data, release: release}, nil
}

// heapFloats allocates count zeroed floats on the Go heap, turning an
// out-of-memory panic of make into ErrAlloc.
func heapFloats(count int) (buf []float32, err error) {
	defer func() {
		if r := recover(); r != nil {
			buf, err = nil, fmt.Errorf("%v: %w", r, ErrAlloc)
		}
	}()

	return make([]float32, count), nil
}

// Size returns the side n. Complexity: O(1).
func (m *Block) Size() int { return m.n }

// Get returns the element at (i, j). No bounds checks beyond the runtime's.
func (m *Block) Get(i, j int) float32 { return m.data[i*m.n+j] }

// Set stores v at (i, j). No bounds checks beyond the runtime's.
func (m *Block) Set(i, j int, v float32) { m.data[i*m.n+j] = v }

// View returns the backing row-major buffer (len n*n). Writes through the
// returned slice mutate the block; this is how blocks travel over comm.
func (m *Block) View() []float32 { return m.data }

// Row returns row i as a sub-slice of the backing buffer.
func (m *Block) Row(i int) []float32 { return m.data[i*m.n : (i+1)*m.n] }

// Zero resets every cell to 0.
func (m *Block) Zero() { clear(m.data) }

// Clone returns a heap-backed deep copy.
func (m *Block) Clone() (*Block, error) {
	if m == nil {
		return nil, blockErrorf(ctxClone, ErrNilBlock)
	}
	if m.data == nil {
		return nil, blockErrorf(ctxClone, ErrFreed)
	}
	cp, err := New(m.n)
	if err != nil {
		return nil, blockErrorf(ctxClone, err)
	}
	copy(cp.data, m.data)

	return cp, nil
}

// Free releases the storage. The block must not be used afterwards.
// Calling Free twice, or on nil, is a no-op.
func (m *Block) Free() error {
	if m == nil || m.data == nil {
		return nil
	}
	rel := m.release
	m.data, m.release = nil, nil
	if rel == nil {
		return nil
	}
	if err := rel(); err != nil {
		return blockErrorf(ctxFree, err)
	}

	return nil
}

// String renders the block row by row with "%6.3f" cells.
// Intended for debugging small blocks; not for hot paths.
func (m *Block) String() string {
	var b strings.Builder
	for i := 0; i < m.n; i++ {
		row := m.Row(i)
		for j, v := range row {
			fmt.Fprintf(&b, _fmtCell, v)
			if j+1 < m.n {
				b.WriteString(_fmtSep)
			}
		}
		b.WriteString(_fmtEOL)
	}

	return b.String()
}

// Copy copies src into dst. Both blocks must have the same side.
// Complexity: O(n²).
func Copy(dst, src *Block) error {
	if err := ValidateSameSize(dst, src); err != nil {
		return blockErrorf(ctxCopy, err)
	}
	copy(dst.data, src.data)

	return nil
}
