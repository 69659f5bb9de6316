package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"k8s.io/klog/v2"

	"github.com/katalvlaran/gridmm/bench"
	"github.com/katalvlaran/gridmm/comm"
	"github.com/katalvlaran/gridmm/comm/grpcnet"
	"github.com/katalvlaran/gridmm/comm/local"
	"github.com/katalvlaran/gridmm/matrix"
	"github.com/katalvlaran/gridmm/verify"
)

// runFlags are the benchmark flags shared by the root and launch commands.
type runFlags struct {
	verify    string
	kernel    string
	alloc     string
	overlap   bool
	hugePages bool
}

func (f *runFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.verify, "verify", verify.ModeNone.String(), "verification after the multiply: none|sum|full|both")
	fs.StringVar(&f.kernel, "kernel", matrix.DefaultKernel.String(), "local multiply kernel: naive|blas")
	fs.StringVar(&f.alloc, "alloc", matrix.DefaultAllocator.String(), "block storage: heap|mmap")
	fs.BoolVar(&f.overlap, "overlap", false, "overlap the row and column broadcasts of each round")
	fs.BoolVar(&f.hugePages, "hugepages", false, "advise mmap blocks as transparent huge pages")
}

// forward renders the flags for a child process.
func (f *runFlags) forward() []string {
	return []string{
		"--verify=" + f.verify,
		"--kernel=" + f.kernel,
		"--alloc=" + f.alloc,
		"--overlap=" + strconv.FormatBool(f.overlap),
		"--hugepages=" + strconv.FormatBool(f.hugePages),
	}
}

// config builds a bench.Config from the flags and the size argument.
func (f *runFlags) config(args []string) (bench.Config, error) {
	if len(args) == 0 {
		return bench.Config{}, bench.ErrMissingSize
	}
	size, err := strconv.Atoi(args[0])
	if err != nil || size <= 0 {
		return bench.Config{}, fmt.Errorf("matrix size %q: %w", args[0], bench.ErrInvalidSize)
	}
	cfg := bench.DefaultConfig(size)
	if cfg.Verify, err = verify.ParseMode(f.verify); err != nil {
		return cfg, err
	}
	if cfg.Kernel, err = matrix.ParseKernel(f.kernel); err != nil {
		return cfg, err
	}
	if cfg.Alloc, err = matrix.ParseAllocator(f.alloc); err != nil {
		return cfg, err
	}
	cfg.Overlap = f.overlap
	cfg.HugePages = f.hugePages

	return cfg, cfg.Validate()
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var (
		rf          runFlags
		np          int
		rank        int
		peers       []string
		listen      string
		initTimeout time.Duration
	)

	root := &cobra.Command{
		Use:           "gridmm [flags] <matrix size>",
		Short:         "Distributed dense matrix multiplication benchmark",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rf.config(args)
			if err != nil {
				return err
			}
			logHost()
			if len(peers) > 0 {
				return runRank(cmd.Context(), grpcnet.Config{
					Rank:        rank,
					Peers:       peers,
					Listen:      listen,
					DialTimeout: initTimeout,
				}, cfg, stdout)
			}
			if _, err = cfg.Grid(np); err != nil {
				return err
			}
			return runLocal(cmd.Context(), np, cfg, stdout)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetContext(context.Background())

	fs := root.Flags()
	rf.register(fs)
	fs.IntVar(&np, "np", 1, "number of ranks to run in this process")
	fs.IntVar(&rank, "rank", 0, "world rank of this process (with --peers)")
	fs.StringSliceVar(&peers, "peers", nil, "host:port of every rank, in rank order; runs one rank over gRPC")
	fs.StringVar(&listen, "listen", "", "listen address, defaults to this rank's entry in --peers")
	fs.DurationVar(&initTimeout, "init-timeout", grpcnet.DefaultDialTimeout, "how long to wait for every peer to come up")

	goflags := flag.NewFlagSet("klog", flag.ContinueOnError)
	klog.InitFlags(goflags)
	root.PersistentFlags().AddGoFlagSet(goflags)

	root.AddCommand(newLaunchCmd(stdout, stderr), newSweepCmd(stdout))

	return root
}

// runLocal runs np ranks as goroutines of this process.
func runLocal(ctx context.Context, np int, cfg bench.Config, out io.Writer) error {
	sw := bench.NewSyncWriter(out)

	return local.Run(ctx, np, func(ctx context.Context, world *comm.Comm) error {
		_, err := bench.Run(ctx, world, cfg, sw)
		return err
	})
}

// runRank runs this process as one rank of a gRPC world. On failure the
// whole world is aborted.
func runRank(ctx context.Context, nc grpcnet.Config, cfg bench.Config, out io.Writer) error {
	t, err := grpcnet.Listen(nc)
	if err != nil {
		return err
	}
	if err = t.Connect(ctx); err != nil {
		t.Abort(1)
		_ = t.Close()
		return err
	}
	world := comm.NewWorld(t)
	klog.V(1).InfoS("world connected", "rank", world.Rank(), "size", world.Size())

	if _, err = bench.Run(ctx, world, cfg, out); err != nil {
		if !comm.IsAbort(err) {
			world.Abort(1)
		}
		_ = world.Finalize()
		return err
	}

	return world.Finalize()
}
