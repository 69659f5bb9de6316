package bench_test

import (
	"bytes"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/katalvlaran/gridmm/bench"
	"github.com/katalvlaran/gridmm/comm"
	"github.com/katalvlaran/gridmm/comm/grpcnet"
	"github.com/katalvlaran/gridmm/matrix"
	"github.com/katalvlaran/gridmm/verify"
)

// grpcWorld connects n gRPC transports over loopback listeners.
func grpcWorld(t *testing.T, n int) []*grpcnet.Transport {
	t.Helper()
	listeners := make([]net.Listener, n)
	peers := make([]string, n)
	for r := range listeners {
		lis, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		listeners[r] = lis
		peers[r] = lis.Addr().String()
	}

	ts := make([]*grpcnet.Transport, n)
	for r := range ts {
		tr, err := grpcnet.New(grpcnet.Config{Rank: r, Peers: peers, DialTimeout: 10 * time.Second}, listeners[r])
		require.NoError(t, err)
		ts[r] = tr
	}

	var eg errgroup.Group
	for _, tr := range ts {
		eg.Go(func() error { return tr.Connect(context.Background()) })
	}
	require.NoError(t, eg.Wait())

	return ts
}

// TestRunOverGRPC runs a verified 2×2 benchmark with one gRPC transport per
// rank, the way launch wires separate processes.
func TestRunOverGRPC(t *testing.T) {
	const procs, size = 4, 8
	ts := grpcWorld(t, procs)

	var buf bytes.Buffer
	out := bench.NewSyncWriter(&buf)
	cfg := bench.DefaultConfig(size)
	cfg.Verify = verify.ModeBoth
	cfg.Kernel = matrix.KernelBLAS
	cfg.Overlap = true

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var eg errgroup.Group
	for _, tr := range ts {
		eg.Go(func() error {
			w := comm.NewWorld(tr)
			res, err := bench.Run(ctx, w, cfg, out)
			if err != nil {
				w.Abort(1)
				_ = w.Finalize()
				return err
			}
			if res.Timing.Rounds != 2 || res.Procs != procs || res.Size != size {
				t.Errorf("rank %d: unexpected result %+v", w.Rank(), res)
			}
			return w.Finalize()
		})
	}
	require.NoError(t, eg.Wait())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, procs+1)
	for _, l := range lines[:procs] {
		require.Regexp(t, rankLine, l)
	}
	require.Regexp(t, summaryLine, lines[procs])
}
