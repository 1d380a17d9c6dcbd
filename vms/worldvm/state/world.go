// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"encoding/binary"
	"fmt"

	"github.com/luxfi/ids"

	"github.com/luxfi/world/utils/wrappers"

	safemath "github.com/luxfi/world/utils/math"
)

// World is a mutable view over a packed world record. It borrows the
// caller's buffer; the buffer must not be touched through any other path
// while the World is in use.
//
// Every accessor derives its offsets from the counts currently stored in the
// buffer, so views returned before a resize must not be used after it.
type World struct {
	buf []byte
}

// Load validates buf and returns a view over it. Spare capacity past
// len(buf) is used by inserts.
func Load(buf []byte) (*World, error) {
	if err := validate(buf); err != nil {
		return nil, err
	}
	return &World{buf: buf}, nil
}

// InitWorld writes a bootstrap world record into buf, which must be exactly
// WorldInitSize bytes: no authorities, permissionless, no systems.
func InitWorld(buf []byte, id uint64) (*World, error) {
	if len(buf) != WorldInitSize {
		return nil, fmt.Errorf("%w: init buffer is %d bytes, want %d", ErrLayoutCorruption, len(buf), WorldInitSize)
	}
	p := wrappers.Packer{Bytes: buf[:0], MaxSize: WorldInitSize}
	p.PackLong(WorldDiscriminator)
	p.PackLong(id)
	p.PackLong(0)
	p.PackInt(0)
	p.PackBool(true)
	p.PackInt(0)
	if p.Err != nil {
		return nil, p.Err
	}
	return &World{buf: buf}, nil
}

// Bytes returns the current record bytes.
func (w *World) Bytes() []byte {
	return w.buf
}

// Size returns the current record size in bytes.
func (w *World) Size() int {
	return len(w.buf)
}

// ID returns the world id.
func (w *World) ID() uint64 {
	return binary.LittleEndian.Uint64(w.buf[idOffset:])
}

// Entities returns the entity counter.
func (w *World) Entities() uint64 {
	return binary.LittleEndian.Uint64(w.buf[entitiesOffset:])
}

// IncrementEntities bumps the entity counter and returns its previous value.
func (w *World) IncrementEntities() (uint64, error) {
	prev := w.Entities()
	next, err := safemath.Add(prev, 1)
	if err != nil {
		return 0, err
	}
	binary.LittleEndian.PutUint64(w.buf[entitiesOffset:], next)
	return prev, nil
}

func (w *World) authorityCount() uint32 {
	return binary.LittleEndian.Uint32(w.buf[authorityCountOffset:])
}

func (w *World) offsets() offsets {
	return offsetsFor(w.authorityCount())
}

func (w *World) systemCount() uint32 {
	return binary.LittleEndian.Uint32(w.buf[w.offsets().systemCount:])
}

// Authorities returns a view of the authority list.
func (w *World) Authorities() IDs {
	return IDs(w.buf[authoritiesOffset:w.offsets().permissionless])
}

// HasAuthority reports whether id is an authority.
func (w *World) HasAuthority(id ids.ID) bool {
	return w.Authorities().Contains(id)
}

// Permissionless reports whether any system may be applied.
func (w *World) Permissionless() bool {
	return w.buf[w.offsets().permissionless] == 1
}

// SetPermissionless sets the permissionless flag.
func (w *World) SetPermissionless(permissionless bool) {
	var b byte
	if permissionless {
		b = 1
	}
	w.buf[w.offsets().permissionless] = b
}

// Systems returns a view of the sorted system list.
func (w *World) Systems() IDs {
	return IDs(w.buf[w.offsets().systems:])
}

// HasSystem reports whether id is an approved system.
func (w *World) HasSystem(id ids.ID) bool {
	_, found := w.Systems().Search(id)
	return found
}

// InsertAuthority appends id to the authority list. Membership is not
// checked.
func (w *World) InsertAuthority(id ids.ID) error {
	n := w.authorityCount()
	end := w.offsets().permissionless
	buf, err := grow(w.buf, end, ElementLen)
	if err != nil {
		return err
	}
	copy(buf[end:], id[:])
	binary.LittleEndian.PutUint32(buf[authorityCountOffset:], n+1)
	w.buf = buf
	return nil
}

// RemoveAuthorityAt removes the authority at index i.
func (w *World) RemoveAuthorityAt(i int) error {
	n := w.authorityCount()
	if i < 0 || i >= int(n) {
		return fmt.Errorf("%w: authority %d of %d", ErrIndexOutOfRange, i, n)
	}
	buf, err := collapse(w.buf, authoritiesOffset+i*ElementLen, ElementLen)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(buf[authorityCountOffset:], n-1)
	w.buf = buf
	return nil
}

// RemoveAuthority removes id from the authority list if present and returns
// the number of bytes released.
func (w *World) RemoveAuthority(id ids.ID) (int, error) {
	i := w.Authorities().Index(id)
	if i < 0 {
		return 0, nil
	}
	if err := w.RemoveAuthorityAt(i); err != nil {
		return 0, err
	}
	return ElementLen, nil
}

// InsertSystem adds id to the sorted system list if absent and returns the
// number of bytes added.
func (w *World) InsertSystem(id ids.ID) (int, error) {
	i, found := w.Systems().Search(id)
	if found {
		return 0, nil
	}
	off := w.offsets()
	m := w.systemCount()
	at := off.systems + i*ElementLen
	buf, err := grow(w.buf, at, ElementLen)
	if err != nil {
		return 0, err
	}
	copy(buf[at:], id[:])
	binary.LittleEndian.PutUint32(buf[off.systemCount:], m+1)
	w.buf = buf
	return ElementLen, nil
}

// RemoveSystemAt removes the system at index i, keeping the list sorted.
func (w *World) RemoveSystemAt(i int) error {
	off := w.offsets()
	m := w.systemCount()
	if i < 0 || i >= int(m) {
		return fmt.Errorf("%w: system %d of %d", ErrIndexOutOfRange, i, m)
	}
	buf, err := collapse(w.buf, off.systems+i*ElementLen, ElementLen)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(buf[off.systemCount:], m-1)
	w.buf = buf
	return nil
}

// RemoveSystem removes id from the system list if present and returns the
// number of bytes released.
func (w *World) RemoveSystem(id ids.ID) (int, error) {
	i, found := w.Systems().Search(id)
	if !found {
		return 0, nil
	}
	if err := w.RemoveSystemAt(i); err != nil {
		return 0, err
	}
	return ElementLen, nil
}
