// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package state implements the packed byte layouts of the records owned by
// the world program and the in-place list resizing performed on them.
package state

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"sort"

	"github.com/luxfi/ids"

	"github.com/luxfi/world/utils/wrappers"
)

// World record layout, offsets in bytes from the start of the buffer:
//
//	discriminator   u64
//	id              u64
//	entities        u64
//	authority count u32
//	authorities     32 * authority count
//	permissionless  u8
//	system count    u32
//	systems         32 * system count, sorted ascending
const (
	WorldDiscriminator uint64 = 0

	discriminatorOffset  = 0
	idOffset             = discriminatorOffset + wrappers.LongLen
	entitiesOffset       = idOffset + wrappers.LongLen
	authorityCountOffset = entitiesOffset + wrappers.LongLen
	authoritiesOffset    = authorityCountOffset + wrappers.IntLen

	// MetadataLen is the size of the fixed header.
	MetadataLen = authorityCountOffset
	// WorldInitSize is the size of a freshly bootstrapped world record.
	WorldInitSize = MetadataLen + wrappers.IntLen + wrappers.BoolLen + wrappers.IntLen
	// ElementLen is the size of one list element.
	ElementLen = wrappers.IDLen
)

var (
	ErrLayoutCorruption     = errors.New("world record layout corruption")
	ErrInsufficientCapacity = errors.New("insufficient buffer capacity")
	ErrIndexOutOfRange      = errors.New("list index out of range")
)

// WorldSize returns the byte size of a world record holding the given
// number of authorities and systems.
func WorldSize(authorities, systems int) int {
	return WorldInitSize + ElementLen*(authorities+systems)
}

// offsets of the variable part of a world record, computed from the
// authority count alone.
type offsets struct {
	permissionless int
	systemCount    int
	systems        int
}

func offsetsFor(authorities uint32) offsets {
	end := authoritiesOffset + ElementLen*int(authorities)
	return offsets{
		permissionless: end,
		systemCount:    end + wrappers.BoolLen,
		systems:        end + wrappers.BoolLen + wrappers.IntLen,
	}
}

// validate checks that buf holds a complete, well formed world record.
func validate(buf []byte) error {
	if len(buf) < authoritiesOffset {
		return fmt.Errorf("%w: %d bytes is shorter than the header", ErrLayoutCorruption, len(buf))
	}
	if d := binary.LittleEndian.Uint64(buf[discriminatorOffset:]); d != WorldDiscriminator {
		return fmt.Errorf("%w: unexpected discriminator %d", ErrLayoutCorruption, d)
	}

	authorities := binary.LittleEndian.Uint32(buf[authorityCountOffset:])
	// compare in uint64 so a hostile count cannot wrap the offset arithmetic
	if uint64(authoritiesOffset)+uint64(ElementLen)*uint64(authorities)+wrappers.BoolLen+wrappers.IntLen > uint64(len(buf)) {
		return fmt.Errorf("%w: %d authorities overrun %d bytes", ErrLayoutCorruption, authorities, len(buf))
	}
	off := offsetsFor(authorities)

	p := wrappers.Packer{Bytes: buf, Offset: off.permissionless}
	p.UnpackBool()
	systems := p.UnpackInt()
	if p.Err != nil {
		return fmt.Errorf("%w: permissionless flag %d: %w", ErrLayoutCorruption, buf[off.permissionless], p.Err)
	}
	want := uint64(off.systems) + uint64(ElementLen)*uint64(systems)
	if want != uint64(len(buf)) {
		return fmt.Errorf("%w: declared size %d, buffer size %d", ErrLayoutCorruption, want, len(buf))
	}

	list := IDs(buf[off.systems:])
	for i := 1; i < list.Len(); i++ {
		if bytes.Compare(list.bytesAt(i-1), list.bytesAt(i)) >= 0 {
			return fmt.Errorf("%w: system list unsorted at index %d", ErrLayoutCorruption, i)
		}
	}
	return nil
}

// IDs is a read view over a packed list of identities. It borrows the
// underlying buffer and is invalidated by any resize of the record.
type IDs []byte

// Len returns the number of identities in the list.
func (l IDs) Len() int {
	return len(l) / ElementLen
}

// At returns the identity at index i.
func (l IDs) At(i int) ids.ID {
	var id ids.ID
	copy(id[:], l.bytesAt(i))
	return id
}

func (l IDs) bytesAt(i int) []byte {
	return l[i*ElementLen : (i+1)*ElementLen]
}

// Index returns the position of id using a linear scan, or -1.
func (l IDs) Index(id ids.ID) int {
	for i := 0; i < l.Len(); i++ {
		if bytes.Equal(l.bytesAt(i), id[:]) {
			return i
		}
	}
	return -1
}

// Contains reports whether id is in the list using a linear scan.
func (l IDs) Contains(id ids.ID) bool {
	return l.Index(id) >= 0
}

// Search returns the position at which id is, or would be inserted, in a
// sorted list, and whether it is present.
func (l IDs) Search(id ids.ID) (int, bool) {
	n := l.Len()
	i := sort.Search(n, func(i int) bool {
		return bytes.Compare(l.bytesAt(i), id[:]) >= 0
	})
	return i, i < n && bytes.Equal(l.bytesAt(i), id[:])
}

// List copies the identities out of the view.
func (l IDs) List() []ids.ID {
	out := make([]ids.ID, l.Len())
	for i := range out {
		out[i] = l.At(i)
	}
	return out
}
