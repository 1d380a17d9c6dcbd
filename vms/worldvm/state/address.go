// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/luxfi/crypto/hash"
	"github.com/luxfi/ids"
)

const (
	MaxSeeds      = 16
	MaxSeedLength = 32
)

var (
	ErrMaxSeedLengthExceeded = errors.New("max seed length exceeded")

	pdaMarker = []byte("ProgramDerivedAddress")

	registrySeed = []byte("registry")
	worldSeed    = []byte("world")
	entitySeed   = []byte("entity")
)

// CreateProgramAddress derives the address owned by programID for seeds and
// bump.
func CreateProgramAddress(seeds [][]byte, bump uint8, programID ids.ID) (ids.ID, error) {
	if len(seeds) >= MaxSeeds {
		return ids.Empty, fmt.Errorf("%w: %d seeds", ErrMaxSeedLengthExceeded, len(seeds)+1)
	}
	size := len(pdaMarker) + len(programID) + 1
	for _, seed := range seeds {
		if len(seed) > MaxSeedLength {
			return ids.Empty, fmt.Errorf("%w: seed of %d bytes", ErrMaxSeedLengthExceeded, len(seed))
		}
		size += len(seed)
	}

	preimage := make([]byte, 0, size)
	for _, seed := range seeds {
		preimage = append(preimage, seed...)
	}
	preimage = append(preimage, bump)
	preimage = append(preimage, programID[:]...)
	preimage = append(preimage, pdaMarker...)
	return ids.ID(hash.ComputeHash256Array(preimage)), nil
}

// FindProgramAddress returns the canonical address and bump for seeds.
// Curve membership is not modelled, so the canonical bump is always the
// highest one.
func FindProgramAddress(seeds [][]byte, programID ids.ID) (ids.ID, uint8, error) {
	const bump = ^uint8(0)
	addr, err := CreateProgramAddress(seeds, bump, programID)
	return addr, bump, err
}

// RegistrySeeds returns the seeds of the registry address.
func RegistrySeeds() [][]byte {
	return [][]byte{registrySeed}
}

// WorldSeeds returns the seeds of the address of world id.
func WorldSeeds(id uint64) [][]byte {
	return [][]byte{worldSeed, binary.BigEndian.AppendUint64(nil, id)}
}

// EntitySeeds returns the seeds of an entity address. extra is an optional
// caller-chosen seed.
func EntitySeeds(worldID, entity uint64, extra []byte) [][]byte {
	seeds := [][]byte{
		entitySeed,
		binary.BigEndian.AppendUint64(nil, worldID),
		binary.BigEndian.AppendUint64(nil, entity),
	}
	if len(extra) > 0 {
		seeds = append(seeds, extra)
	}
	return seeds
}
