// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cpi

import (
	"errors"
	"fmt"
	"math"

	"github.com/luxfi/world/utils/wrappers"
	"github.com/luxfi/world/vms/worldvm/state"
)

var (
	ErrMissingReturnData  = errors.New("system returned no data")
	ErrInvalidOutputCount = errors.New("invalid output count")
)

// ParseOutputs walks a system result buffer:
//
//	count u32, then count times: length u32, length bytes
//
// and returns the first want segments, each still carrying its length
// prefix. The buffer is untrusted: every declared length is checked against
// limit and the bytes left, and bytes past the last segment are rejected. In
// strict mode count must equal want; otherwise it must be at least want.
func ParseOutputs(ret []byte, want int, strict bool, limit uint32) ([][]byte, error) {
	if ret == nil {
		return nil, ErrMissingReturnData
	}

	p := wrappers.Packer{Bytes: ret}
	count := p.UnpackInt()
	if p.Err != nil {
		return nil, fmt.Errorf("%w: reading output count: %w", state.ErrLayoutCorruption, p.Err)
	}
	switch {
	case strict && uint64(count) != uint64(want):
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidOutputCount, count, want)
	case uint64(count) < uint64(want):
		return nil, fmt.Errorf("%w: got %d, want at least %d", ErrInvalidOutputCount, count, want)
	}

	segments := make([][]byte, 0, want)
	for i := uint32(0); i < count; i++ {
		start := p.Offset
		p.UnpackLimitedBytes(limit)
		if errors.Is(p.Err, wrappers.ErrOversized) {
			return nil, fmt.Errorf("%w: output %d: %w", ErrPayloadTooLarge, i, p.Err)
		}
		if p.Err != nil {
			return nil, fmt.Errorf("%w: output %d at offset %d: %w", state.ErrLayoutCorruption, i, start, p.Err)
		}
		if len(segments) < want {
			segments = append(segments, ret[start:p.Offset])
		}
	}
	if p.Remaining() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes after %d outputs", state.ErrLayoutCorruption, p.Remaining(), count)
	}
	return segments, nil
}

// SegmentLimit returns the largest output segment that still fits an update
// payload of maxUpdateDataLen bytes once framed, and tagged if tagged is set.
// A zero maxUpdateDataLen means no limit.
func SegmentLimit(maxUpdateDataLen int, tagged bool) uint32 {
	if maxUpdateDataLen <= 0 {
		return math.MaxUint32
	}
	limit := maxUpdateDataLen - wrappers.IntLen
	if tagged {
		limit -= DiscriminatorLen
	}
	return uint32(max(limit, 0))
}

// PackOutputs frames segments the way systems return them. It is the
// inverse of ParseOutputs and is used by systems written in Go.
func PackOutputs(segments ...[]byte) ([]byte, error) {
	size := wrappers.IntLen
	for _, s := range segments {
		size += wrappers.IntLen + len(s)
	}
	p := wrappers.Packer{
		Bytes:   make([]byte, 0, size),
		MaxSize: size,
	}
	p.PackInt(uint32(len(segments)))
	for _, s := range segments {
		p.PackBytes(s)
	}
	return p.Bytes, p.Err
}
