package comm

import (
	"context"
	"fmt"
	"sort"
)

// Reserved tags of the collectives.
const (
	tagBarrier = -1 - iota
	tagRelease
	tagBcast
	tagReduce
	tagSplit
	tagSplitTable
)

// Undefined as a Split color leaves the caller out of every new communicator.
const Undefined = -1

// Barrier blocks until every rank of c has entered it.
func (c *Comm) Barrier(ctx context.Context) error {
	if err := c.barrier(ctx); err != nil {
		return opErrorf("Barrier", err)
	}

	return nil
}

func (c *Comm) barrier(ctx context.Context) error {
	if c.rank != 0 {
		if err := c.send(ctx, nil, 0, tagBarrier); err != nil {
			return err
		}
		_, err := c.recv(ctx, 0, tagRelease)
		return err
	}
	for r := 1; r < c.Size(); r++ {
		if _, err := c.recv(ctx, r, tagBarrier); err != nil {
			return err
		}
	}
	for r := 1; r < c.Size(); r++ {
		if err := c.send(ctx, nil, r, tagRelease); err != nil {
			return err
		}
	}

	return nil
}

// Bcast copies root's buf into buf on every other rank of c, along a
// binomial tree. Every rank must pass a buffer of the same length.
// Root's buf is read, never written.
func (c *Comm) Bcast(ctx context.Context, buf []float32, root int) error {
	if root < 0 || root >= c.Size() {
		return opErrorf("Bcast", fmt.Errorf("root %d: %w", root, ErrRankOutOfRange))
	}
	var payload []byte
	if c.rank == root {
		payload = EncodeFloat32s(buf)
	}
	payload, err := c.bcastBytes(ctx, payload, root)
	if err != nil {
		return opErrorf("Bcast", err)
	}
	if c.rank == root {
		return nil
	}
	if err = DecodeFloat32s(buf, payload); err != nil {
		return opErrorf("Bcast", err)
	}

	return nil
}

// bcastBytes runs the binomial tree over raw bytes and returns the payload
// every rank ends up with.
func (c *Comm) bcastBytes(ctx context.Context, payload []byte, root int) ([]byte, error) {
	size := c.Size()
	rel := (c.rank - root + size) % size

	mask := 1
	for mask < size {
		if rel&mask != 0 {
			src := (c.rank - mask + size) % size
			got, err := c.recv(ctx, src, tagBcast)
			if err != nil {
				return nil, err
			}
			payload = got
			break
		}
		mask <<= 1
	}

	for mask >>= 1; mask > 0; mask >>= 1 {
		if rel+mask < size {
			dst := (c.rank + mask) % size
			if err := c.send(ctx, payload, dst, tagBcast); err != nil {
				return nil, err
			}
		}
	}

	return payload, nil
}

// ReduceSum adds v over every rank of c. The total, accumulated in rank
// order, is returned on root; other ranks get 0.
func (c *Comm) ReduceSum(ctx context.Context, v float64, root int) (float64, error) {
	if root < 0 || root >= c.Size() {
		return 0, opErrorf("ReduceSum", fmt.Errorf("root %d: %w", root, ErrRankOutOfRange))
	}
	if c.rank != root {
		if err := c.send(ctx, encodeFloat64(v), root, tagReduce); err != nil {
			return 0, opErrorf("ReduceSum", err)
		}
		return 0, nil
	}

	var total float64
	for r := 0; r < c.Size(); r++ {
		if r == root {
			total += v
			continue
		}
		payload, err := c.recv(ctx, r, tagReduce)
		if err != nil {
			return 0, opErrorf("ReduceSum", err)
		}
		x, err := decodeFloat64(payload)
		if err != nil {
			return 0, opErrorf("ReduceSum", err)
		}
		total += x
	}

	return total, nil
}

// Split partitions c into disjoint communicators, one per distinct color.
// Within a new communicator ranks are ordered by key, ties broken by rank in
// c. Every rank of c must call Split. A rank passing Undefined gets nil.
func (c *Comm) Split(ctx context.Context, color, key int) (*Comm, error) {
	if color < Undefined {
		return nil, opErrorf("Split", fmt.Errorf("color %d", color))
	}
	seq := c.splits.Add(1) - 1

	table, err := c.splitTable(ctx, color, key)
	if err != nil {
		return nil, opErrorf("Split", err)
	}
	if color == Undefined {
		return nil, nil
	}

	type entry struct{ parent, key int }
	var group []entry
	for r := 0; r < c.Size(); r++ {
		if table[2*r] == color {
			group = append(group, entry{parent: r, key: table[2*r+1]})
		}
	}
	sort.Slice(group, func(x, y int) bool {
		if group[x].key != group[y].key {
			return group[x].key < group[y].key
		}
		return group[x].parent < group[y].parent
	})

	child := &Comm{
		t:       c.t,
		id:      fmt.Sprintf("%s/%d.%d", c.id, seq, color),
		members: make([]int, len(group)),
	}
	for i, e := range group {
		child.members[i] = c.members[e.parent]
		if e.parent == c.rank {
			child.rank = i
		}
	}

	return child, nil
}

// splitTable gathers (color, key) of every rank to rank 0 and hands the
// flattened table back to everyone.
func (c *Comm) splitTable(ctx context.Context, color, key int) ([]int, error) {
	if c.rank != 0 {
		if err := c.send(ctx, encodeInts(color, key), 0, tagSplit); err != nil {
			return nil, err
		}
		payload, err := c.recv(ctx, 0, tagSplitTable)
		if err != nil {
			return nil, err
		}
		table, err := decodeInts(payload)
		if err != nil {
			return nil, err
		}
		if len(table) != 2*c.Size() {
			return nil, fmt.Errorf("split table of %d entries: %w", len(table), ErrCountMismatch)
		}
		return table, nil
	}

	table := make([]int, 2*c.Size())
	table[0], table[1] = color, key
	for r := 1; r < c.Size(); r++ {
		payload, err := c.recv(ctx, r, tagSplit)
		if err != nil {
			return nil, err
		}
		pair, err := decodeInts(payload)
		if err != nil {
			return nil, err
		}
		if len(pair) != 2 {
			return nil, fmt.Errorf("split entry of %d ints: %w", len(pair), ErrCountMismatch)
		}
		table[2*r], table[2*r+1] = pair[0], pair[1]
	}
	out := encodeInts(table...)
	for r := 1; r < c.Size(); r++ {
		if err := c.send(ctx, out, r, tagSplitTable); err != nil {
			return nil, err
		}
	}

	return table, nil
}
