// Package local runs a whole comm world inside one process, one goroutine
// per rank. Ranks share nothing but their inboxes: every Send copies its
// payload.
package local

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"

	"github.com/katalvlaran/gridmm/comm"
)

// ErrInvalidWorld indicates a world of fewer than one rank.
var ErrInvalidWorld = errors.New("local: world size must be > 0")

// world is the state shared by the transports of one in-process world.
type world struct {
	inboxes   []*comm.Mailbox
	abortOnce sync.Once
}

// Transport is one rank's endpoint of an in-process world.
type Transport struct {
	w      *world
	rank   int
	closed sync.Once
}

var _ comm.Transport = (*Transport)(nil)

// NewWorld returns the n connected transports of a fresh world, indexed by rank.
func NewWorld(n int) ([]*Transport, error) {
	if n <= 0 {
		return nil, fmt.Errorf("local.NewWorld(%d): %w", n, ErrInvalidWorld)
	}
	w := &world{inboxes: make([]*comm.Mailbox, n)}
	ts := make([]*Transport, n)
	for r := range ts {
		w.inboxes[r] = comm.NewMailbox()
		ts[r] = &Transport{w: w, rank: r}
	}

	return ts, nil
}

func (t *Transport) Rank() int { return t.rank }

func (t *Transport) Size() int { return len(t.w.inboxes) }

func (t *Transport) Inbox() *comm.Mailbox { return t.w.inboxes[t.rank] }

// Send copies f into dst's inbox. It never blocks on the receiver.
func (t *Transport) Send(ctx context.Context, dst int, f *comm.Frame) error {
	if dst < 0 || dst >= len(t.w.inboxes) {
		return fmt.Errorf("local.Send to %d: %w", dst, comm.ErrRankOutOfRange)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := t.Inbox().Err(); err != nil {
		return err
	}
	cp := *f
	cp.Payload = append([]byte(nil), f.Payload...)
	t.w.inboxes[dst].Deliver(&cp)

	return nil
}

// Abort fails every inbox of the world. Only the first abort is recorded.
func (t *Transport) Abort(code int) {
	t.w.abortOnce.Do(func() {
		klog.V(2).InfoS("local world aborted", "rank", t.rank, "code", code)
		for _, in := range t.w.inboxes {
			in.Fail(&comm.AbortError{Rank: t.rank, Code: code})
		}
	})
}

// Close fails this rank's own inbox with ErrClosed. Peers are unaffected.
func (t *Transport) Close() error {
	t.closed.Do(func() { t.Inbox().Fail(comm.ErrClosed) })

	return nil
}

// Run starts an n-rank world and calls fn once per rank, each on its own
// goroutine with the rank's world communicator. When a rank returns an
// error the world is aborted with code 1, so peers blocked in communication
// return too. Run returns the first error that was not itself caused by the
// abort.
func Run(ctx context.Context, n int, fn func(ctx context.Context, world *comm.Comm) error) error {
	ts, err := NewWorld(n)
	if err != nil {
		return err
	}

	var (
		mu    sync.Mutex
		cause error
	)
	eg, egCtx := errgroup.WithContext(ctx)
	for _, t := range ts {
		eg.Go(func() error {
			defer t.Close()
			err := fn(egCtx, comm.NewWorld(t))
			if err == nil {
				return nil
			}
			mu.Lock()
			if cause == nil && !comm.IsAbort(err) {
				cause = fmt.Errorf("rank %d: %w", t.rank, err)
			}
			mu.Unlock()
			t.Abort(1)
			return err
		})
	}
	err = eg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if cause != nil {
		return cause
	}

	return err
}
