package comm

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
)

// WorldID is the context id of the world communicator.
const WorldID = "w"

// Comm is a communicator: an ordered subset of the world's ranks sharing a
// private message context. A Comm is safe for concurrent use by the
// goroutines of its own rank, as long as concurrent operations use
// different tags or different communicators.
type Comm struct {
	t       Transport
	id      string
	members []int // world rank of each group rank
	rank    int   // own group rank
	splits  atomic.Int64
	freed   atomic.Bool
}

// NewWorld returns the world communicator over t.
func NewWorld(t Transport) *Comm {
	members := make([]int, t.Size())
	for i := range members {
		members[i] = i
	}

	return &Comm{t: t, id: WorldID, members: members, rank: t.Rank()}
}

// Rank returns the calling rank's index in the communicator.
func (c *Comm) Rank() int { return c.rank }

// Size returns the number of ranks in the communicator.
func (c *Comm) Size() int { return len(c.members) }

// ID returns the communicator's context id.
func (c *Comm) ID() string { return c.id }

// WorldRank maps a rank of c to the corresponding world rank.
func (c *Comm) WorldRank(r int) (int, error) {
	if r < 0 || r >= len(c.members) {
		return 0, fmt.Errorf("rank %d of %d: %w", r, len(c.members), ErrRankOutOfRange)
	}

	return c.members[r], nil
}

// Send copies buf to rank dst under tag. It returns once the message has been
// handed to the transport; it does not wait for the matching Recv.
func (c *Comm) Send(ctx context.Context, buf []float32, dst, tag int) error {
	if tag < 0 {
		return opErrorf("Send", ErrReservedTag)
	}
	if err := c.send(ctx, EncodeFloat32s(buf), dst, tag); err != nil {
		return opErrorf("Send", err)
	}

	return nil
}

// Recv blocks until a message from src with tag arrives and decodes it into
// buf. The message length must equal len(buf).
func (c *Comm) Recv(ctx context.Context, buf []float32, src, tag int) error {
	if tag < 0 {
		return opErrorf("Recv", ErrReservedTag)
	}
	payload, err := c.recv(ctx, src, tag)
	if err != nil {
		return opErrorf("Recv", err)
	}
	if err = DecodeFloat32s(buf, payload); err != nil {
		return opErrorf("Recv", err)
	}

	return nil
}

// Free releases the communicator. Any later operation fails with ErrFreed.
func (c *Comm) Free() error {
	if !c.freed.CompareAndSwap(false, true) {
		return opErrorf("Free", ErrFreed)
	}

	return nil
}

// Abort tears down the whole world with the given exit code.
func (c *Comm) Abort(code int) { c.t.Abort(code) }

// Finalize closes the underlying transport. Call it once, on the world
// communicator, after the last operation of the rank.
func (c *Comm) Finalize() error { return c.t.Close() }

// Now is the wall clock used for benchmark timing. Its readings carry the
// monotonic clock, so differences are immune to wall-clock steps.
func Now() time.Time { return time.Now() }

// ---------- internal point-to-point on raw payloads ----------

func (c *Comm) send(ctx context.Context, payload []byte, dst, tag int) error {
	if c.freed.Load() {
		return ErrFreed
	}
	wdst, err := c.WorldRank(dst)
	if err != nil {
		return err
	}
	f := &Frame{Kind: KindData, Src: c.t.Rank(), Tag: tag, Context: c.id, Payload: payload}
	if wdst == c.t.Rank() {
		if err = c.t.Inbox().Err(); err != nil {
			return err
		}
		f.Payload = append([]byte(nil), payload...)
		c.t.Inbox().Deliver(f)
		return nil
	}

	return c.t.Send(ctx, wdst, f)
}

func (c *Comm) recv(ctx context.Context, src, tag int) ([]byte, error) {
	if c.freed.Load() {
		return nil, ErrFreed
	}
	wsrc, err := c.WorldRank(src)
	if err != nil {
		return nil, err
	}
	f, err := c.t.Inbox().Take(ctx, c.id, wsrc, tag)
	if err != nil {
		return nil, err
	}

	return f.Payload, nil
}
