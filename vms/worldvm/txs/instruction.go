// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package txs decodes the instructions accepted by the world program.
package txs

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/luxfi/world/utils/wrappers"
)

// BaseDiscriminator is the discriminator of the first instruction. The rest
// follow contiguously.
const BaseDiscriminator uint64 = 1000

var ErrInvalidInstruction = errors.New("invalid instruction data")

// Instruction identifies a world program operation.
type Instruction uint64

const (
	InitializeRegistry Instruction = Instruction(BaseDiscriminator) + iota
	InitializeWorld
	AddAuthority
	RemoveAuthority
	ApproveSystem
	RemoveSystem
	AddEntity
	InitializeComponent
	Apply
	ApplyWithSession
)

func (i Instruction) String() string {
	switch i {
	case InitializeRegistry:
		return "initialize_registry"
	case InitializeWorld:
		return "initialize_world"
	case AddAuthority:
		return "add_authority"
	case RemoveAuthority:
		return "remove_authority"
	case ApproveSystem:
		return "approve_system"
	case RemoveSystem:
		return "remove_system"
	case AddEntity:
		return "add_entity"
	case InitializeComponent:
		return "initialize_component"
	case Apply:
		return "apply"
	case ApplyWithSession:
		return "apply_with_session"
	default:
		return fmt.Sprintf("unknown(%d)", uint64(i))
	}
}

// ToInstruction converts a raw discriminator, rejecting unknown values.
func ToInstruction(raw uint64) (Instruction, error) {
	switch i := Instruction(raw); i {
	case InitializeRegistry,
		InitializeWorld,
		AddAuthority,
		RemoveAuthority,
		ApproveSystem,
		RemoveSystem,
		AddEntity,
		InitializeComponent,
		Apply,
		ApplyWithSession:
		return i, nil
	default:
		return 0, fmt.Errorf("%w: unknown discriminator %d", ErrInvalidInstruction, raw)
	}
}

// Parse splits instruction data into its operation and payload.
func Parse(data []byte) (Instruction, []byte, error) {
	if len(data) < wrappers.LongLen {
		return 0, nil, fmt.Errorf("%w: %d bytes is shorter than a discriminator", ErrInvalidInstruction, len(data))
	}
	i, err := ToInstruction(binary.LittleEndian.Uint64(data))
	if err != nil {
		return 0, nil, err
	}
	return i, data[wrappers.LongLen:], nil
}

// Encode prefixes payload with the discriminator of i.
func Encode(i Instruction, payload []byte) []byte {
	out := make([]byte, wrappers.LongLen, wrappers.LongLen+len(payload))
	binary.LittleEndian.PutUint64(out, uint64(i))
	return append(out, payload...)
}
