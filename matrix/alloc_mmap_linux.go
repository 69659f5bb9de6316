// SPDX-License-Identifier: MIT

//go:build linux

package matrix

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

const float32Bytes = 4

// mmapFloats maps count zeroed float32 cells of anonymous private memory.
// The returned release func unmaps them; the slice must not be used after.
func mmapFloats(count int, hugePages bool) ([]float32, func() error, error) {
	mem, err := unix.Mmap(-1, 0, count*float32Bytes,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, nil, fmt.Errorf("mmap %d bytes: %v: %w", count*float32Bytes, err, ErrAlloc)
	}
	if hugePages {
		// Advisory only: kernels without THP return EINVAL, the mapping stays usable.
		_ = unix.Madvise(mem, unix.MADV_HUGEPAGE)
	}
	data := unsafe.Slice((*float32)(unsafe.Pointer(&mem[0])), count)

	return data, func() error { return unix.Munmap(mem) }, nil
}
