// SPDX-License-Identifier: MIT

// Package matrix: functional configuration for block allocation.
// This file defines:
//   - Allocator (where the backing buffer of a Block lives),
//   - documented defaults (constants),
//   - WithX constructors with strong validation (panic on nonsensical values),
//   - gatherOptions helper (internal).
//
// Design goals:
//   - Deterministic behavior: no global state; options are resolved per call.
//   - No dead switches: each option changes how New obtains memory and is
//     covered by tests.
package matrix

import "fmt"

// Allocator selects the backing storage of a Block.
type Allocator int

const (
	// AllocHeap backs a Block with an ordinary Go slice (GC managed).
	AllocHeap Allocator = iota

	// AllocMmap backs a Block with an anonymous private memory mapping.
	// Free unmaps it. Linux only; other platforms report ErrAllocUnsupported.
	AllocMmap
)

// String returns the flag spelling of the allocator.
func (a Allocator) String() string {
	switch a {
	case AllocHeap:
		return "heap"
	case AllocMmap:
		return "mmap"
	default:
		return fmt.Sprintf("Allocator(%d)", int(a))
	}
}

// ParseAllocator maps a flag spelling ("heap", "mmap") to an Allocator.
func ParseAllocator(s string) (Allocator, error) {
	switch s {
	case "heap", "":
		return AllocHeap, nil
	case "mmap":
		return AllocMmap, nil
	default:
		return 0, fmt.Errorf("ParseAllocator(%q): %w", s, ErrAllocUnsupported)
	}
}

// ---------- Defaults (single source of truth) ----------

const (
	// DefaultAllocator is the allocator used when no WithAllocator is given.
	DefaultAllocator = AllocHeap

	// DefaultHugePages asks mmap-backed blocks to be advised as huge-page
	// candidates (MADV_HUGEPAGE). Ignored for heap blocks.
	DefaultHugePages = false

	// DefaultEpsilon is the tolerance used by verification when comparing
	// a distributed product to the sequential one.
	DefaultEpsilon = 1e-6
)

const panicAllocatorInvalid = "matrix: WithAllocator: unknown allocator"

// Option mutates internal options. Safe to apply repeatedly (idempotent).
type Option func(*Options)

// Options stores the effective configuration after applying Option setters.
type Options struct {
	alloc     Allocator // DefaultAllocator
	hugePages bool      // DefaultHugePages
}

// WithAllocator selects the backing storage for newly created blocks.
// Panics on values outside {AllocHeap, AllocMmap}.
func WithAllocator(a Allocator) Option {
	if a != AllocHeap && a != AllocMmap {
		panic(panicAllocatorInvalid)
	}

	return func(o *Options) { o.alloc = a }
}

// WithHugePages advises mmap-backed blocks as transparent huge pages.
func WithHugePages(on bool) Option {
	return func(o *Options) { o.hugePages = on }
}

// gatherOptions resolves opts on top of the defaults.
func gatherOptions(opts ...Option) Options {
	o := Options{
		alloc:     DefaultAllocator,
		hugePages: DefaultHugePages,
	}
	for _, fn := range opts {
		if fn != nil {
			fn(&o)
		}
	}

	return o
}
