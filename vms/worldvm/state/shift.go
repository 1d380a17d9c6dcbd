// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import "fmt"

// shift moves buf[start:end] by delta bytes in a single block move. The
// source and destination may overlap. Both ranges must lie inside buf.
func shift(buf []byte, start, end, delta int) error {
	if start < 0 || end < start || end > len(buf) {
		return fmt.Errorf("%w: source [%d:%d] outside %d bytes", ErrLayoutCorruption, start, end, len(buf))
	}
	dst := start + delta
	if dst < 0 || dst+(end-start) > len(buf) {
		return fmt.Errorf("%w: destination %d outside %d bytes", ErrLayoutCorruption, dst, len(buf))
	}
	copy(buf[dst:], buf[start:end])
	return nil
}

// grow opens a gap of n bytes at offset at, moving everything from at to the
// end of buf forward. The gap is carved out of buf's spare capacity.
func grow(buf []byte, at, n int) ([]byte, error) {
	size := len(buf)
	if at < 0 || at > size {
		return buf, fmt.Errorf("%w: insert offset %d outside %d bytes", ErrLayoutCorruption, at, size)
	}
	if cap(buf)-size < n {
		return buf, fmt.Errorf("%w: need %d bytes past %d, have %d", ErrInsufficientCapacity, n, size, cap(buf)-size)
	}
	buf = buf[:size+n]
	if err := shift(buf, at, size, n); err != nil {
		return buf[:size], err
	}
	return buf, nil
}

// collapse removes the n bytes at offset at, moving everything after them
// backward. The released tail is zeroed.
func collapse(buf []byte, at, n int) ([]byte, error) {
	size := len(buf)
	if at < 0 || n < 0 || at+n > size {
		return buf, fmt.Errorf("%w: remove range [%d:%d] outside %d bytes", ErrLayoutCorruption, at, at+n, size)
	}
	if err := shift(buf, at+n, size, -n); err != nil {
		return buf, err
	}
	clear(buf[size-n : size])
	return buf[:size-n], nil
}
