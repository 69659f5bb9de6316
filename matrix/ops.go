// SPDX-License-Identifier: MIT

// Package matrix - block arithmetic used by the multiply engine and by
// verification.
//
// Determinism & Policy:
//   - KernelNaive accumulates each C cell over k in increasing order, one
//     c = c + a*b step at a time. The distributed product visits k in the
//     same global order (round by round), so it reproduces SeqProduct
//     bit for bit.
//   - KernelBLAS delegates to gonum's blas32.Gemm with beta = 1; its
//     summation order is implementation defined, compare it with a tolerance.

package matrix

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
)

const (
	opMulAdd     = "MulAdd"
	opEqual      = "Equal"
	opSeqProduct = "SeqProduct"
)

// Kernel selects the local multiply-accumulate implementation.
type Kernel int

const (
	// KernelNaive is the i-j-k triple loop over Get/Set addressing.
	KernelNaive Kernel = iota

	// KernelBLAS is gonum's pure-Go single precision GEMM.
	KernelBLAS
)

// DefaultKernel is the kernel used by the benchmark unless configured.
const DefaultKernel = KernelNaive

// String returns the flag spelling of the kernel.
func (k Kernel) String() string {
	switch k {
	case KernelNaive:
		return "naive"
	case KernelBLAS:
		return "blas"
	default:
		return fmt.Sprintf("Kernel(%d)", int(k))
	}
}

// ParseKernel maps a flag spelling ("naive", "blas") to a Kernel.
func ParseKernel(s string) (Kernel, error) {
	switch s {
	case "naive", "":
		return KernelNaive, nil
	case "blas":
		return KernelBLAS, nil
	default:
		return 0, fmt.Errorf("ParseKernel(%q): %w", s, ErrUnknownKernel)
	}
}

// MulAdd computes c += a × b for three n×n blocks.
//
// Errors:
//   - ErrNilBlock / ErrFreed / ErrDimensionMismatch from ValidateSameSize.
//   - ErrUnknownKernel.
//
// Complexity:
//   - Time O(n³), Space O(1).
func MulAdd(a, b, c *Block, k Kernel) error {
	if err := ValidateSameSize(a, b, c); err != nil {
		return fmt.Errorf("%s: %w", opMulAdd, err)
	}
	switch k {
	case KernelNaive:
		mulAddNaive(a, b, c)
	case KernelBLAS:
		mulAddBLAS(a, b, c)
	default:
		return fmt.Errorf("%s: %w", opMulAdd, ErrUnknownKernel)
	}

	return nil
}

// mulAddNaive is the reference i-j-k loop: c[i][j] += a[i][k]*b[k][j].
func mulAddNaive(a, b, c *Block) {
	n := a.n
	var i, j, k int
	for i = 0; i < n; i++ {
		for j = 0; j < n; j++ {
			for k = 0; k < n; k++ {
				c.Set(i, j, c.Get(i, j)+a.Get(i, k)*b.Get(k, j))
			}
		}
	}
}

// mulAddBLAS wraps the row-major buffers as blas32.General (stride = n)
// and runs C = 1·A·B + 1·C.
func mulAddBLAS(a, b, c *Block) {
	n := a.n
	ga := blas32.General{Rows: n, Cols: n, Stride: n, Data: a.data}
	gb := blas32.General{Rows: n, Cols: n, Stride: n, Data: b.data}
	gc := blas32.General{Rows: n, Cols: n, Stride: n, Data: c.data}
	blas32.Gemm(blas.NoTrans, blas.NoTrans, 1, ga, gb, 1, gc)
}

// SeqProduct returns a fresh heap block holding a × b, computed with the
// naive kernel. It is the O(n³) reference used by verification.
func SeqProduct(a, b *Block) (*Block, error) {
	if err := ValidateSameSize(a, b); err != nil {
		return nil, fmt.Errorf("%s: %w", opSeqProduct, err)
	}
	c, err := New(a.n)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opSeqProduct, err)
	}
	mulAddNaive(a, b, c)

	return c, nil
}

// Equal reports whether |a[i][j] - b[i][j]| <= eps for every cell.
// Blocks of different sides are never equal.
func Equal(a, b *Block, eps float64) (bool, error) {
	if err := ValidateLive(a); err != nil {
		return false, fmt.Errorf("%s: %w", opEqual, err)
	}
	if err := ValidateLive(b); err != nil {
		return false, fmt.Errorf("%s: %w", opEqual, err)
	}
	if a.n != b.n {
		return false, nil
	}
	for idx, av := range a.data {
		if math.Abs(float64(av)-float64(b.data[idx])) > eps {
			return false, nil
		}
	}

	return true, nil
}

// Sum returns the sum of every cell, accumulated in float64 row by row.
func Sum(m *Block) float64 {
	var s float64
	for _, v := range m.data {
		s += float64(v)
	}

	return s
}

// Stamp writes src into dst with its top-left corner at (r0, c0).
// dst must be large enough; the caller guarantees r0+src.n ≤ dst.n.
func Stamp(dst, src *Block, r0, c0 int) {
	n := src.n
	for i := 0; i < n; i++ {
		off := (r0+i)*dst.n + c0
		copy(dst.data[off:off+n], src.Row(i))
	}
}
