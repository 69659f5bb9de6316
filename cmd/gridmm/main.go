// Command gridmm benchmarks a distributed dense matrix multiplication on a
// square process grid.
//
// Usage:
//
//	gridmm --np 16 1024                      # 16 ranks in this process
//	gridmm launch --np 16 1024               # 16 ranks, one process each
//	gridmm --rank 0 --peers h0:7000,h1:7000 1024
//	gridmm sweep --procs 1,4,16 --sizes 256,512 --runs 3 --csv out.csv
//
// Every rank prints its communication/computation split; rank 0 prints the
// total time. The number of processes must be a perfect square and the
// matrix size a multiple of its square root.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"k8s.io/klog/v2"

	"github.com/katalvlaran/gridmm/bench"
)

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}

// execute runs the command line and maps the outcome to an exit code.
func execute(args []string, stdout, stderr io.Writer) int {
	defer klog.Flush()

	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	cmd, err := root.ExecuteC()
	if err == nil {
		return 0
	}
	if msg, ok := bench.UsageMessage(err); ok {
		fmt.Fprintln(stderr, msg)
		fmt.Fprint(stderr, cmd.UsageString())
		return 1
	}
	klog.ErrorS(err, "gridmm failed")
	fmt.Fprintf(stderr, "gridmm: %v\n", err)
	var ee *exitError
	if errors.As(err, &ee) && ee.code > 0 {
		return ee.code
	}

	return 1
}
