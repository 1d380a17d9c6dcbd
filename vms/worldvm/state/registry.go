// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"encoding/binary"
	"fmt"

	"github.com/luxfi/world/utils/wrappers"

	safemath "github.com/luxfi/world/utils/math"
)

const (
	RegistryDiscriminator uint64 = 1
	EntityDiscriminator   uint64 = 2

	// RegistryLen is the size of the registry record: discriminator, worlds.
	RegistryLen = 2 * wrappers.LongLen
	// EntityLen is the size of an entity record: discriminator, id.
	EntityLen = 2 * wrappers.LongLen
)

// Registry is a view over the registry record, which counts the worlds
// created so far.
type Registry struct {
	buf []byte
}

// InitRegistry writes an empty registry record into buf.
func InitRegistry(buf []byte) (*Registry, error) {
	if len(buf) != RegistryLen {
		return nil, fmt.Errorf("%w: registry is %d bytes, want %d", ErrLayoutCorruption, len(buf), RegistryLen)
	}
	binary.LittleEndian.PutUint64(buf, RegistryDiscriminator)
	binary.LittleEndian.PutUint64(buf[wrappers.LongLen:], 0)
	return &Registry{buf: buf}, nil
}

// LoadRegistry validates buf as a registry record.
func LoadRegistry(buf []byte) (*Registry, error) {
	if err := checkFixed(buf, RegistryLen, RegistryDiscriminator); err != nil {
		return nil, err
	}
	return &Registry{buf: buf}, nil
}

// Worlds returns the number of worlds created.
func (r *Registry) Worlds() uint64 {
	return binary.LittleEndian.Uint64(r.buf[wrappers.LongLen:])
}

// IncrementWorlds bumps the world counter and returns its previous value.
func (r *Registry) IncrementWorlds() (uint64, error) {
	prev := r.Worlds()
	next, err := safemath.Add(prev, 1)
	if err != nil {
		return 0, err
	}
	binary.LittleEndian.PutUint64(r.buf[wrappers.LongLen:], next)
	return prev, nil
}

// InitEntity writes an entity record with the given id into buf.
func InitEntity(buf []byte, id uint64) error {
	if len(buf) != EntityLen {
		return fmt.Errorf("%w: entity is %d bytes, want %d", ErrLayoutCorruption, len(buf), EntityLen)
	}
	binary.LittleEndian.PutUint64(buf, EntityDiscriminator)
	binary.LittleEndian.PutUint64(buf[wrappers.LongLen:], id)
	return nil
}

// EntityID validates buf as an entity record and returns its id.
func EntityID(buf []byte) (uint64, error) {
	if err := checkFixed(buf, EntityLen, EntityDiscriminator); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf[wrappers.LongLen:]), nil
}

func checkFixed(buf []byte, size int, discriminator uint64) error {
	if len(buf) != size {
		return fmt.Errorf("%w: record is %d bytes, want %d", ErrLayoutCorruption, len(buf), size)
	}
	if d := binary.LittleEndian.Uint64(buf); d != discriminator {
		return fmt.Errorf("%w: discriminator %d, want %d", ErrLayoutCorruption, d, discriminator)
	}
	return nil
}
