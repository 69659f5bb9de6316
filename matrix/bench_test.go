// Package matrix_test provides benchmarks for the local multiply kernels.
package matrix_test

import (
	"fmt"
	"testing"

	"github.com/katalvlaran/gridmm/matrix"
)

// benchSizes are the block sides to benchmark.
var benchSizes = []int{64, 128, 256}

// sink to defeat dead-code elimination
var sinkF float64

func benchKernel(b *testing.B, k matrix.Kernel) {
	b.ReportAllocs()
	for _, n := range benchSizes {
		b.Run(fmt.Sprintf("n=%d", n), func(b *testing.B) {
			A, err := matrix.InitA(n, 0, 0)
			if err != nil {
				b.Fatal(err)
			}
			B, err := matrix.InitB(n, 0, 0)
			if err != nil {
				b.Fatal(err)
			}
			C, err := matrix.InitC(n)
			if err != nil {
				b.Fatal(err)
			}
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if err = matrix.MulAdd(A, B, C, k); err != nil {
					b.Fatal(err)
				}
			}
			sinkF = matrix.Sum(C)
		})
	}
}

func BenchmarkMulAddNaive(b *testing.B) { benchKernel(b, matrix.KernelNaive) }

func BenchmarkMulAddBLAS(b *testing.B) { benchKernel(b, matrix.KernelBLAS) }
