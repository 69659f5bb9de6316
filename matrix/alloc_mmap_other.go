// SPDX-License-Identifier: MIT

//go:build !linux

package matrix

func mmapFloats(int, bool) ([]float32, func() error, error) {
	return nil, nil, ErrAllocUnsupported
}
