// SPDX-License-Identifier: MIT

// Package matrix - deterministic block initializers.
//
// The benchmark never stores a reference matrix. Every rank fills its blocks
// from closed forms over GLOBAL indices, gi = pi*n + i and gj = pj*n + j,
// where (pi, pj) is the rank's grid coordinate and n the local side:
//
//	A[gi][gj] = gi
//	B[gi][gj] = gi + gj
//	C[gi][gj] = 0
//
// so the distributed product can be checked against closed forms too.

package matrix

import "fmt"

const (
	ctxInitA = "InitA"
	ctxInitB = "InitB"
	ctxInitC = "InitC"
)

// InitA returns the n×n block of A owned by grid coordinate (pi, pj).
func InitA(n, pi, pj int, opts ...Option) (*Block, error) {
	return initBlock(ctxInitA, n, pi, pj, ValueA, opts)
}

// InitB returns the n×n block of B owned by grid coordinate (pi, pj).
func InitB(n, pi, pj int, opts ...Option) (*Block, error) {
	return initBlock(ctxInitB, n, pi, pj, ValueB, opts)
}

// InitC returns a zero n×n block, the accumulator of the product.
func InitC(n int, opts ...Option) (*Block, error) {
	m, err := New(n, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ctxInitC, err)
	}

	return m, nil
}

// Fill overwrites m from f over global indices of grid coordinate (pi, pj).
// It is the in-place form used when a run reuses its blocks.
func Fill(m *Block, pi, pj int, f func(gi, gj int) float32) error {
	if err := ValidateLive(m); err != nil {
		return err
	}
	if pi < 0 || pj < 0 {
		return ErrNegativeOffset
	}
	n := m.n
	var i, j, base, gi, gj0 int
	gj0 = pj * n
	for i = 0; i < n; i++ {
		gi = pi*n + i
		base = i * n
		for j = 0; j < n; j++ {
			m.data[base+j] = f(gi, gj0+j)
		}
	}

	return nil
}

// ValueA is the closed form of A at global (gi, gj).
func ValueA(gi, _ int) float32 { return float32(gi) }

// ValueB is the closed form of B at global (gi, gj).
func ValueB(gi, gj int) float32 { return float32(gi + gj) }

func initBlock(tag string, n, pi, pj int, f func(gi, gj int) float32, opts []Option) (*Block, error) {
	m, err := New(n, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", tag, err)
	}
	if err = Fill(m, pi, pj, f); err != nil {
		_ = m.Free()
		return nil, fmt.Errorf("%s(%d,%d): %w", tag, pi, pj, err)
	}

	return m, nil
}
