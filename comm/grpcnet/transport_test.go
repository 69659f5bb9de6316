package grpcnet_test

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/katalvlaran/gridmm/comm"
	"github.com/katalvlaran/gridmm/comm/grpcnet"
)

// startWorld opens n loopback listeners, builds one transport per rank and
// connects them all.
func startWorld(t *testing.T, n int) []*grpcnet.Transport {
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

// TestConfigValidate rejects ranks outside the peer list.
func TestConfigValidate(t *testing.T) {
	require.ErrorIs(t, grpcnet.Config{}.Validate(), grpcnet.ErrBadConfig)
	require.ErrorIs(t, grpcnet.Config{Rank: 2, Peers: []string{"a:1", "b:2"}}.Validate(), grpcnet.ErrBadConfig)
	require.ErrorIs(t, grpcnet.Config{Rank: 0, Peers: []string{"a:1", ""}}.Validate(), grpcnet.ErrBadConfig)
	require.NoError(t, grpcnet.Config{Rank: 1, Peers: []string{"a:1", "b:2"}}.Validate())
}

// TestCollectivesOverGRPC runs point-to-point and collectives on four processes' worth of transports.
func TestCollectivesOverGRPC(t *testing.T) {
	const n = 4
	ts := startWorld(t, n)

	var eg errgroup.Group
	for _, tr := range ts {
		eg.Go(func() error {
			ctx := context.Background()
			w := comm.NewWorld(tr)
			if err := w.Barrier(ctx); err != nil {
				return err
			}

			buf := make([]float32, 1024)
			if w.Rank() == 1 {
				for i := range buf {
					buf[i] = float32(i)
				}
			}
			if err := w.Bcast(ctx, buf, 1); err != nil {
				return err
			}
			if buf[1023] != 1023 {
				return errors.New("bcast payload mismatch")
			}

			row, err := w.Split(ctx, w.Rank()/2, w.Rank()%2)
			if err != nil {
				return err
			}
			s, err := row.ReduceSum(ctx, float64(w.Rank()), 0)
			if err != nil {
				return err
			}
			if row.Rank() == 0 && s != float64(2*w.Rank()+1) {
				return errors.New("row reduce mismatch")
			}
			if err = row.Free(); err != nil {
				return err
			}

			next := (w.Rank() + 1) % n
			prev := (w.Rank() + n - 1) % n
			if err = w.Send(ctx, []float32{float32(w.Rank())}, next, 3); err != nil {
				return err
			}
			got := make([]float32, 1)
			if err = w.Recv(ctx, got, prev, 3); err != nil {
				return err
			}
			if got[0] != float32(prev) {
				return errors.New("ring payload mismatch")
			}
			if err = w.Barrier(ctx); err != nil {
				return err
			}
			return w.Finalize()
		})
	}
	require.NoError(t, eg.Wait())
}

// TestAbortOverGRPC checks that an abort frame unblocks a peer's receive.
func TestAbortOverGRPC(t *testing.T) {
	ts := startWorld(t, 2)
	w0, w1 := comm.NewWorld(ts[0]), comm.NewWorld(ts[1])

	errc := make(chan error, 1)
	go func() { errc <- w1.Recv(context.Background(), make([]float32, 1), 0, 0) }()
	time.Sleep(20 * time.Millisecond)
	w0.Abort(3)

	select {
	case err := <-errc:
		var ae *comm.AbortError
		require.ErrorAs(t, err, &ae)
		require.Equal(t, 0, ae.Rank)
		require.Equal(t, 3, ae.Code)
	case <-time.After(10 * time.Second):
		t.Fatal("receive not unblocked by abort")
	}

	var eg errgroup.Group
	eg.Go(w0.Finalize)
	eg.Go(w1.Finalize)
	_ = eg.Wait()
}
