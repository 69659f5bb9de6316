package bench

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math/rand/v2"
	"strconv"
	"sync"

	"k8s.io/klog/v2"

	"github.com/katalvlaran/gridmm/comm"
	"github.com/katalvlaran/gridmm/comm/local"
)

// Sweep is a grid of in-process runs over process counts and sizes.
type Sweep struct {
	Procs   []int
	Sizes   []int
	Runs    int  // repetitions of each (procs, size) pair
	Shuffle bool // randomise the order of the pairs
	Base    Config
}

// Record is one CSV row. Time is rank 0's elapsed seconds; the split
// columns are the largest value over all ranks.
type Record struct {
	Procs         int
	Size          int
	Run           int
	Time          float64
	Gflops        float64
	Communication float64
	Computation   float64
}

// csvHeader names the Record columns in order.
var csvHeader = []string{"nb_proc", "size", "run", "time", "Gflops", "communication_time", "computation_time"}

type experiment struct{ procs, size int }

// Validate rejects empty axes, non-positive values and grids that cannot be built.
func (s Sweep) Validate() error {
	if len(s.Procs) == 0 || len(s.Sizes) == 0 || s.Runs <= 0 {
		return fmt.Errorf("bench: %d procs, %d sizes, %d runs: %w", len(s.Procs), len(s.Sizes), s.Runs, ErrBadSweep)
	}
	for _, p := range s.Procs {
		for _, n := range s.Sizes {
			cfg := s.Base
			cfg.Size = n
			if _, err := cfg.Grid(p); err != nil {
				return fmt.Errorf("bench: procs %d, size %d: %w", p, n, err)
			}
		}
	}

	return nil
}

func (s Sweep) experiments() []experiment {
	exps := make([]experiment, 0, len(s.Procs)*len(s.Sizes))
	for _, p := range s.Procs {
		for _, n := range s.Sizes {
			exps = append(exps, experiment{procs: p, size: n})
		}
	}
	if s.Shuffle {
		rand.Shuffle(len(exps), func(i, j int) { exps[i], exps[j] = exps[j], exps[i] })
	}

	return exps
}

// RunSweep runs every experiment Runs times on an in-process world and hands
// each record to emit. Result lines of the individual runs go to out.
func RunSweep(ctx context.Context, s Sweep, out io.Writer, emit func(Record) error) error {
	if err := s.Validate(); err != nil {
		return err
	}
	sw := NewSyncWriter(out)
	for _, e := range s.experiments() {
		cfg := s.Base
		cfg.Size = e.size
		for run := 0; run < s.Runs; run++ {
			rec, err := runOnce(ctx, e.procs, cfg, sw)
			if err != nil {
				return fmt.Errorf("bench: procs %d, size %d, run %d: %w", e.procs, e.size, run, err)
			}
			rec.Run = run
			klog.V(1).InfoS("sweep point", "procs", rec.Procs, "size", rec.Size, "run", run, "time", rec.Time)
			if err = emit(rec); err != nil {
				return err
			}
		}
	}

	return nil
}

func runOnce(ctx context.Context, procs int, cfg Config, out io.Writer) (Record, error) {
	var (
		mu  sync.Mutex
		rec = Record{Procs: procs, Size: cfg.Size}
	)
	err := local.Run(ctx, procs, func(ctx context.Context, world *comm.Comm) error {
		res, err := Run(ctx, world, cfg, out)
		if err != nil {
			return err
		}
		mu.Lock()
		defer mu.Unlock()
		if res.Rank == 0 {
			rec.Time = res.Elapsed.Seconds()
			rec.Gflops = res.Gflops
		}
		rec.Communication = max(rec.Communication, res.Timing.Communication.Seconds())
		rec.Computation = max(rec.Computation, res.Timing.Computation.Seconds())
		return nil
	})

	return rec, err
}

// CSVWriter writes sweep records with a header row.
type CSVWriter struct {
	w      *csv.Writer
	header bool
}

// NewCSVWriter wraps w. The header is written before the first record.
func NewCSVWriter(w io.Writer) *CSVWriter { return &CSVWriter{w: csv.NewWriter(w)} }

// Write appends one record and flushes it.
func (c *CSVWriter) Write(r Record) error {
	if !c.header {
		if err := c.w.Write(csvHeader); err != nil {
			return err
		}
		c.header = true
	}
	row := []string{
		strconv.Itoa(r.Procs),
		strconv.Itoa(r.Size),
		strconv.Itoa(r.Run),
		strconv.FormatFloat(r.Time, 'f', 8, 64),
		strconv.FormatFloat(r.Gflops, 'f', 6, 64),
		strconv.FormatFloat(r.Communication, 'f', 8, 64),
		strconv.FormatFloat(r.Computation, 'f', 8, 64),
	}
	if err := c.w.Write(row); err != nil {
		return err
	}
	c.w.Flush()

	return c.w.Error()
}
