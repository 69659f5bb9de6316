package matmul

import (
	"time"

	"github.com/katalvlaran/gridmm/comm"
	"github.com/katalvlaran/gridmm/matrix"
)

const (
	// DefaultKernel is the local multiply used in every round.
	DefaultKernel = matrix.DefaultKernel

	// DefaultOverlap runs the row and column broadcasts of a round one after
	// the other.
	DefaultOverlap = false
)

const (
	panicKernelInvalid = "matmul: WithKernel: unknown kernel"
	panicClockNil      = "matmul: WithClock: nil clock"
)

// Option configures Multiply.
type Option func(*Options)

// Options is the resolved Multiply configuration.
type Options struct {
	kernel   matrix.Kernel
	overlap  bool
	clock    func() time.Time
	scratchO []matrix.Option
}

// WithKernel selects the local multiply-accumulate kernel.
// Panics on a kernel outside {KernelNaive, KernelBLAS}.
func WithKernel(k matrix.Kernel) Option {
	if k != matrix.KernelNaive && k != matrix.KernelBLAS {
		panic(panicKernelInvalid)
	}

	return func(o *Options) { o.kernel = k }
}

// WithOverlap issues the row and column broadcasts of each round
// concurrently. The round still waits for both before computing.
func WithOverlap(on bool) Option {
	return func(o *Options) { o.overlap = on }
}

// WithClock replaces the clock used for the timing split.
func WithClock(now func() time.Time) Option {
	if now == nil {
		panic(panicClockNil)
	}

	return func(o *Options) { o.clock = now }
}

// WithScratch sets the allocation options of the two receive buffers.
func WithScratch(opts ...matrix.Option) Option {
	return func(o *Options) { o.scratchO = append(o.scratchO, opts...) }
}

func gatherOptions(opts ...Option) Options {
	o := Options{
		kernel:  DefaultKernel,
		overlap: DefaultOverlap,
		clock:   comm.Now,
	}
	for _, fn := range opts {
		if fn != nil {
			fn(&o)
		}
	}

	return o
}
