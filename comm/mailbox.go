package comm

import (
	"context"
	"sync"
)

// matchKey identifies a FIFO of frames: one per (communicator, source, tag).
type matchKey struct {
	ctx string
	src int
	tag int
}

// Mailbox is the receive side shared by every transport. Transports call
// Deliver for each inbound frame; communicators call Take to block until a
// matching frame arrives.
//
// Deliver never blocks, so senders never wait for receivers. Per matchKey,
// frames are handed out in delivery order. After Fail every Take returns the
// failure and later frames are dropped.
type Mailbox struct {
	mu      sync.Mutex
	queues  map[matchKey][]*Frame
	waiters map[matchKey][]chan *Frame
	dead    chan struct{}
	err     error
}

// NewMailbox returns an empty, live mailbox.
func NewMailbox() *Mailbox {
	return &Mailbox{
		queues:  make(map[matchKey][]*Frame),
		waiters: make(map[matchKey][]chan *Frame),
		dead:    make(chan struct{}),
	}
}

// Deliver enqueues f, or hands it straight to a waiting Take.
// An abort frame fails the mailbox with an *AbortError instead.
func (m *Mailbox) Deliver(f *Frame) {
	if f.Kind == KindAbort {
		m.Fail(&AbortError{Rank: f.Src, Code: f.Tag})
		return
	}
	if f.Kind != KindData {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return
	}
	m.push(matchKey{ctx: f.Context, src: f.Src, tag: f.Tag}, f, false)
}

// push must be called with m.mu held.
func (m *Mailbox) push(k matchKey, f *Frame, front bool) {
	if ws := m.waiters[k]; len(ws) > 0 {
		ch := ws[0]
		if len(ws) == 1 {
			delete(m.waiters, k)
		} else {
			m.waiters[k] = ws[1:]
		}
		ch <- f // buffered(1), never blocks
		return
	}
	if front {
		m.queues[k] = append([]*Frame{f}, m.queues[k]...)
		return
	}
	m.queues[k] = append(m.queues[k], f)
}

// Take blocks until a frame for (ctxID, src, tag) is available, ctx is done,
// or the mailbox fails.
func (m *Mailbox) Take(ctx context.Context, ctxID string, src, tag int) (*Frame, error) {
	k := matchKey{ctx: ctxID, src: src, tag: tag}

	m.mu.Lock()
	if m.err != nil {
		err := m.err
		m.mu.Unlock()
		return nil, err
	}
	if q := m.queues[k]; len(q) > 0 {
		f := q[0]
		if len(q) == 1 {
			delete(m.queues, k)
		} else {
			q[0] = nil
			m.queues[k] = q[1:]
		}
		m.mu.Unlock()
		return f, nil
	}
	ch := make(chan *Frame, 1)
	m.waiters[k] = append(m.waiters[k], ch)
	m.mu.Unlock()

	select {
	case f := <-ch:
		return f, nil
	case <-m.dead:
		return nil, m.Err()
	case <-ctx.Done():
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.err != nil {
			return nil, m.err
		}
		if !m.dropWaiter(k, ch) {
			// A frame was handed over while we were leaving; keep it for the next Take.
			// push fills ch under m.mu, so it is ready here.
			select {
			case f := <-ch:
				m.push(k, f, true)
			default:
			}
		}
		return nil, ctx.Err()
	}
}

// dropWaiter must be called with m.mu held. It reports whether ch was still registered.
func (m *Mailbox) dropWaiter(k matchKey, ch chan *Frame) bool {
	ws := m.waiters[k]
	for i, w := range ws {
		if w != ch {
			continue
		}
		ws = append(ws[:i], ws[i+1:]...)
		if len(ws) == 0 {
			delete(m.waiters, k)
		} else {
			m.waiters[k] = ws
		}
		return true
	}

	return false
}

// Fail makes every pending and future Take return err. The first failure wins.
func (m *Mailbox) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return
	}
	m.err = err
	m.queues = nil
	m.waiters = nil
	close(m.dead)
}

// Err returns the failure recorded by Fail, or nil.
func (m *Mailbox) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.err
}

// Pending returns the number of queued, undelivered frames.
func (m *Mailbox) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, q := range m.queues {
		n += len(q)
	}

	return n
}
