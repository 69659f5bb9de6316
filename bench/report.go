package bench

import (
	"fmt"
	"io"
	"sync"

	"github.com/katalvlaran/gridmm/matmul"
)

// Output line formats. They are parsed by external tooling; keep them stable.
const (
	rankLineFormat    = "rank: %4d | communication_time: %.8f | computation_time: %.8f\n"
	summaryLineFormat = "number_procs: %d | matrix_size: %d |  time: %.8f seconds\n"
)

// WriteRankLine prints the per-rank timing split of one multiply.
func WriteRankLine(w io.Writer, rank int, t matmul.Timing) error {
	_, err := fmt.Fprintf(w, rankLineFormat, rank, t.Communication.Seconds(), t.Computation.Seconds())

	return err
}

// WriteSummary prints the run summary written by rank 0.
func WriteSummary(w io.Writer, r Result) error {
	_, err := fmt.Fprintf(w, summaryLineFormat, r.Procs, r.Size, r.Elapsed.Seconds())

	return err
}

// SyncWriter serialises writes from the ranks of an in-process world so
// that their lines never interleave.
type SyncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewSyncWriter wraps w.
func NewSyncWriter(w io.Writer) *SyncWriter { return &SyncWriter{w: w} }

func (s *SyncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.w.Write(p)
}
