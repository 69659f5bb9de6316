package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/katalvlaran/gridmm/bench"
)

func newSweepCmd(stdout io.Writer) *cobra.Command {
	var (
		rf      runFlags
		procs   []int
		sizes   []int
		runs    int
		shuffle bool
		csvPath string
	)
	cmd := &cobra.Command{
		Use:   "sweep [flags]",
		Short: "Run the benchmark in-process over several process counts and sizes and write CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			base, err := rf.config([]string{"1"})
			if err != nil {
				return err
			}
			logHost()

			out := stdout
			if csvPath != "" && csvPath != "-" {
				f, err := os.Create(csvPath)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}
			w := bench.NewCSVWriter(out)
			s := bench.Sweep{Procs: procs, Sizes: sizes, Runs: runs, Shuffle: shuffle, Base: base}

			// Per-rank lines are only useful in a single run; the CSV carries the numbers.
			return bench.RunSweep(cmd.Context(), s, io.Discard, w.Write)
		},
	}

	fs := cmd.Flags()
	rf.register(fs)
	fs.IntSliceVar(&procs, "procs", []int{1, 4}, "process counts, each a perfect square")
	fs.IntSliceVar(&sizes, "sizes", []int{256}, "matrix sizes")
	fs.IntVar(&runs, "runs", 1, "repetitions of every (procs, size) pair")
	fs.BoolVar(&shuffle, "shuffle", false, "randomise the order of the experiments")
	fs.StringVar(&csvPath, "csv", "-", "CSV output file, - for stdout")

	return cmd
}
