// SPDX-License-Identifier: MIT

// Package matrix is the local store of the grid benchmark: square row-major
// float32 blocks, their closed-form initializers and the multiply-accumulate
// kernels run once per protocol round.
//
// A Block is what one grid rank owns. Its backing buffer is exposed through
// View so a block can be broadcast or sent without being copied into an
// intermediate slice first.
//
//	a, _ := matrix.InitA(n, pi, pj)
//	b, _ := matrix.InitB(n, pi, pj)
//	c, _ := matrix.InitC(n)
//	_ = matrix.MulAdd(a, b, c, matrix.KernelNaive)
//
// Storage comes from the Go heap by default; WithAllocator(AllocMmap) maps
// anonymous memory instead (Linux), optionally advised as huge pages.
package matrix
