package bench

import (
	"fmt"

	"github.com/katalvlaran/gridmm/grid"
	"github.com/katalvlaran/gridmm/matmul"
	"github.com/katalvlaran/gridmm/matrix"
	"github.com/katalvlaran/gridmm/verify"
)

// Config is one benchmark run as selected on the command line.
type Config struct {
	Size      int              // global matrix side N
	Verify    verify.Mode      // checks after the timed multiply
	Kernel    matrix.Kernel    // local multiply-accumulate
	Overlap   bool             // overlap the row and column broadcasts
	Alloc     matrix.Allocator // backing storage of every block
	HugePages bool             // advise mmap blocks as huge pages
}

// DefaultConfig returns the configuration of a plain run of side size.
func DefaultConfig(size int) Config {
	return Config{
		Size:   size,
		Verify: verify.ModeNone,
		Kernel: matrix.DefaultKernel,
		Alloc:  matrix.DefaultAllocator,
	}
}

// Validate checks the fields that do not depend on the world size.
func (c Config) Validate() error {
	if c.Size == 0 {
		return ErrMissingSize
	}
	if c.Size < 0 {
		return fmt.Errorf("bench: size %d: %w", c.Size, ErrInvalidSize)
	}
	if _, err := verify.ParseMode(c.Verify.String()); err != nil {
		return err
	}
	if _, err := matrix.ParseKernel(c.Kernel.String()); err != nil {
		return err
	}
	if _, err := matrix.ParseAllocator(c.Alloc.String()); err != nil {
		return err
	}

	return nil
}

// Grid validates the configuration against a world of procs ranks.
func (c Config) Grid(procs int) (grid.Grid, error) {
	if err := c.Validate(); err != nil {
		return grid.Grid{}, err
	}

	return grid.New(procs, c.Size)
}

func (c Config) blockOptions() []matrix.Option {
	return []matrix.Option{matrix.WithAllocator(c.Alloc), matrix.WithHugePages(c.HugePages)}
}

func (c Config) multiplyOptions() []matmul.Option {
	return []matmul.Option{
		matmul.WithKernel(c.Kernel),
		matmul.WithOverlap(c.Overlap),
		matmul.WithScratch(c.blockOptions()...),
	}
}
