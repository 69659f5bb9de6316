package comm

import "context"

// Transport moves frames between the ranks of one world.
//
// Send addresses WORLD ranks and must preserve order per (sender, receiver)
// pair. Inbound frames land in Inbox. Abort makes every rank's pending and
// future receives fail with an *AbortError; Close releases the transport and
// is the last call a rank makes.
type Transport interface {
	Rank() int
	Size() int
	Send(ctx context.Context, dst int, f *Frame) error
	Inbox() *Mailbox
	Abort(code int)
	Close() error
}
