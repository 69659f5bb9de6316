// Package grpcnet is a comm.Transport over gRPC, for worlds whose ranks are
// separate OS processes.
//
// Every rank serves one client-streaming Deliver method and keeps one
// long-lived outbound stream per peer. A single stream per (sender, receiver)
// pair is what gives comm its per-pair ordering. Frames travel through a raw
// codec; there is no protobuf schema.
package grpcnet

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"
	"k8s.io/klog/v2"

	"github.com/katalvlaran/gridmm/comm"
)

// Defaults.
const (
	DefaultDialTimeout = 30 * time.Second
	DefaultStopTimeout = 5 * time.Second
)

var (
	// ErrBadConfig indicates an inconsistent rank/peer configuration.
	ErrBadConfig = errors.New("grpcnet: invalid configuration")
	// ErrNotConnected indicates a Send before Connect succeeded.
	ErrNotConnected = errors.New("grpcnet: transport not connected")
)

// Config describes one rank of a gRPC world.
type Config struct {
	Rank        int           // this process's world rank
	Peers       []string      // host:port of every rank, indexed by rank
	Listen      string        // listen address; defaults to Peers[Rank]
	DialTimeout time.Duration // bound on Connect; DefaultDialTimeout when zero
}

// Validate checks the rank against the peer list.
func (c Config) Validate() error {
	if len(c.Peers) == 0 {
		return fmt.Errorf("no peers: %w", ErrBadConfig)
	}
	if c.Rank < 0 || c.Rank >= len(c.Peers) {
		return fmt.Errorf("rank %d with %d peers: %w", c.Rank, len(c.Peers), ErrBadConfig)
	}
	for i, p := range c.Peers {
		if p == "" {
			return fmt.Errorf("empty address for rank %d: %w", i, ErrBadConfig)
		}
	}

	return nil
}

type peer struct {
	mu     sync.Mutex
	conn   *grpc.ClientConn
	stream grpc.ClientStream
}

// Transport is one rank's endpoint of a gRPC world.
type Transport struct {
	cfg    Config
	inbox  *comm.Mailbox
	srv    *grpc.Server
	lis    net.Listener
	ctx    context.Context // lives as long as the outbound streams
	cancel context.CancelFunc
	peers  []*peer // nil at own rank

	served    chan struct{}
	abortOnce sync.Once
	closeOnce sync.Once
	closeErr  error
}

var _ comm.Transport = (*Transport)(nil)

// Listen opens the listener for cfg and starts serving.
func Listen(cfg Config) (*Transport, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	addr := cfg.Listen
	if addr == "" {
		addr = cfg.Peers[cfg.Rank]
	}
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("grpcnet.Listen %s: %w", addr, err)
	}

	return New(cfg, lis)
}

// New starts serving on lis. Call Connect before the first Send.
func New(cfg Config, lis net.Listener) (*Transport, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = DefaultDialTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())
	t := &Transport{
		cfg:    cfg,
		inbox:  comm.NewMailbox(),
		lis:    lis,
		ctx:    ctx,
		cancel: cancel,
		peers:  make([]*peer, len(cfg.Peers)),
		served: make(chan struct{}),
		srv: grpc.NewServer(
			grpc.ForceServerCodec(frameCodec{}),
			grpc.MaxRecvMsgSize(math.MaxInt32),
			grpc.MaxSendMsgSize(math.MaxInt32),
		),
	}
	t.srv.RegisterService(&transportServiceDesc, t)

	go func() {
		defer close(t.served)
		if err := t.srv.Serve(lis); err != nil {
			klog.V(2).InfoS("grpc server stopped", "rank", cfg.Rank, "err", err)
		}
	}()
	klog.V(2).InfoS("rank listening", "rank", cfg.Rank, "addr", lis.Addr().String())

	return t, nil
}

// Addr returns the listener address, useful with ":0" listeners.
func (t *Transport) Addr() net.Addr { return t.lis.Addr() }

// Connect dials every peer, waits until each connection is ready and opens
// the outbound streams. It is bounded by Config.DialTimeout.
func (t *Transport) Connect(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, t.cfg.DialTimeout)
	defer cancel()

	for r, addr := range t.cfg.Peers {
		if r == t.cfg.Rank {
			continue
		}
		p, err := t.dial(ctx, addr)
		if err != nil {
			return fmt.Errorf("grpcnet.Connect rank %d -> %d (%s): %w", t.cfg.Rank, r, addr, err)
		}
		t.peers[r] = p
		klog.V(2).InfoS("peer connected", "rank", t.cfg.Rank, "peer", r, "addr", addr)
	}

	return nil
}

func (t *Transport) dial(ctx context.Context, addr string) (*peer, error) {
	conn, err := grpc.NewClient(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(
			grpc.ForceCodec(frameCodec{}),
			grpc.MaxCallSendMsgSize(math.MaxInt32),
			grpc.MaxCallRecvMsgSize(math.MaxInt32),
		),
	)
	if err != nil {
		return nil, err
	}
	if err = waitReady(ctx, conn); err != nil {
		conn.Close()
		return nil, err
	}
	stream, err := conn.NewStream(t.ctx, &transportServiceDesc.Streams[0], deliverMethod, grpc.WaitForReady(true))
	if err != nil {
		conn.Close()
		return nil, err
	}

	return &peer{conn: conn, stream: stream}, nil
}

// waitReady blocks until conn is Ready, retrying through transient failures
// while the peer process is still starting.
func waitReady(ctx context.Context, conn *grpc.ClientConn) error {
	for {
		s := conn.GetState()
		switch s {
		case connectivity.Ready:
			return nil
		case connectivity.Idle:
			conn.Connect()
		case connectivity.Shutdown:
			return comm.ErrClosed
		}
		if !conn.WaitForStateChange(ctx, s) {
			return ctx.Err()
		}
	}
}

func (t *Transport) Rank() int { return t.cfg.Rank }

func (t *Transport) Size() int { return len(t.cfg.Peers) }

// Inbox returns the mailbox fed by the Deliver handler.
func (t *Transport) Inbox() *comm.Mailbox { return t.inbox }

// Send writes f on the stream to dst. Frames to the same peer are serialised.
func (t *Transport) Send(ctx context.Context, dst int, f *comm.Frame) error {
	if dst < 0 || dst >= len(t.peers) {
		return fmt.Errorf("grpcnet.Send to %d: %w", dst, comm.ErrRankOutOfRange)
	}
	if err := t.inbox.Err(); err != nil {
		return err
	}
	if dst == t.cfg.Rank {
		cp := *f
		cp.Payload = append([]byte(nil), f.Payload...)
		t.inbox.Deliver(&cp)
		return nil
	}
	p := t.peers[dst]
	if p == nil {
		return fmt.Errorf("grpcnet.Send to %d: %w", dst, ErrNotConnected)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.stream.SendMsg(f); err != nil {
		return fmt.Errorf("grpcnet.Send to %d: %w", dst, err)
	}

	return nil
}

// Abort tells every peer to fail with code, then fails the local inbox.
// Delivery to peers is best effort.
func (t *Transport) Abort(code int) {
	t.abortOnce.Do(func() {
		klog.V(2).InfoS("aborting world", "rank", t.cfg.Rank, "code", code)
		f := &comm.Frame{Kind: comm.KindAbort, Src: t.cfg.Rank, Tag: code}
		for r, p := range t.peers {
			if p == nil {
				continue
			}
			p.mu.Lock()
			if err := p.stream.SendMsg(f); err != nil {
				klog.V(2).InfoS("abort not delivered", "rank", t.cfg.Rank, "peer", r, "err", err)
			}
			p.mu.Unlock()
		}
		t.inbox.Fail(&comm.AbortError{Rank: t.cfg.Rank, Code: code})
	})
}

// Close drains the outbound streams, waits for peers to drain theirs and
// stops the server. Every rank of the world must call Close.
func (t *Transport) Close() error {
	t.closeOnce.Do(func() {
		for r, p := range t.peers {
			if p == nil {
				continue
			}
			p.mu.Lock()
			if err := p.stream.CloseSend(); err == nil {
				ack := new(comm.Frame)
				if err = p.stream.RecvMsg(ack); err != nil {
					klog.V(2).InfoS("no close ack", "rank", t.cfg.Rank, "peer", r, "err", err)
				}
			}
			p.mu.Unlock()
			if err := p.conn.Close(); err != nil && t.closeErr == nil {
				t.closeErr = err
			}
		}

		stopped := make(chan struct{})
		go func() {
			t.srv.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-time.After(DefaultStopTimeout):
			klog.V(2).InfoS("graceful stop timed out", "rank", t.cfg.Rank)
			t.srv.Stop()
		}
		<-t.served
		t.cancel()
		t.inbox.Fail(comm.ErrClosed)
	})

	return t.closeErr
}
