// Package gridmm is a distributed dense matrix-multiplication benchmark.
//
// An N×N float32 product is split over an S×S grid of ranks. Each rank owns
// one (N/S)×(N/S) block of A, B and C; in S rounds the blocks of A travel
// along grid rows and the blocks of B along grid columns, and every rank
// accumulates the product of what it received into its C block.
// Communication and computation time are measured separately per rank.
//
// Packages, leaf to root:
//
//	matrix/       - square row-major blocks, initializers, multiply kernels
//	grid/         - rank <-> (I, J) topology and index mapping
//	comm/         - message-passing runtime: point-to-point, collectives, Split
//	comm/local/   - in-process transport, one goroutine per rank
//	comm/grpcnet/ - gRPC transport, one OS process per rank
//	matmul/       - the round-based multiply engine
//	verify/       - gather, full-product and sum checks
//	bench/        - one timed run, output lines, sweeps and CSV
//	cmd/gridmm/   - the command line
//
// Quick ASCII example, P = 4 (S = 2), round k = 1:
//
//	    A(0,1) ──► (0,0) (0,1)      B(1,0) ─┐  B(1,1) ─┐
//	    A(1,1) ──► (1,0) (1,1)              ▼          ▼
//	                                 (0,0),(1,0)  (0,1),(1,1)
//
//	go install github.com/katalvlaran/gridmm/cmd/gridmm@latest
//	gridmm --np 4 --verify both 512
package gridmm
