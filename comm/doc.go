// Package comm is a small message-passing runtime for a fixed world of ranks.
//
// A world is a set of Size() ranks joined by a Transport (see the local and
// grpcnet sub-packages). NewWorld wraps the transport in the world
// communicator; Split derives sub-communicators whose ranks are renumbered
// by key.
//
// Point-to-point messages are matched on (communicator, source, tag) and,
// per match key, delivered in send order. Negative tags belong to the
// collectives. Every blocking call takes a context.Context and returns as
// soon as the context is done or the world is aborted.
//
// Collectives:
//   - Barrier: linear gather to rank 0, then release.
//   - Bcast: binomial tree rooted at root.
//   - ReduceSum: linear reduction to root, summed in rank order.
//   - Split: gather of (color, key) to rank 0, then table broadcast.
package comm
