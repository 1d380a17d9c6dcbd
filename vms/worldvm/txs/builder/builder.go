// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package builder assembles world program instructions with the account
// lists each instruction expects.
package builder

import (
	"encoding/binary"

	"github.com/luxfi/cache/lru"
	"github.com/luxfi/ids"

	"github.com/luxfi/world/vms/worldvm/account"
	"github.com/luxfi/world/vms/worldvm/runtime"
	"github.com/luxfi/world/vms/worldvm/state"
	"github.com/luxfi/world/vms/worldvm/system"
	"github.com/luxfi/world/vms/worldvm/txs"
)

// Component is a component account and the program that owns it.
type Component struct {
	Program ids.ID
	Account ids.ID
}

const addressCacheSize = 1024

const (
	registryAddress byte = iota
	worldAddress
	entityAddress
)

type addressKey struct {
	kind   byte
	world  uint64
	entity uint64
	seed   string
}

type Builder struct {
	ProgramID ids.ID

	// Derived addresses, keyed by what they were derived from
	addresses *lru.Cache[addressKey, ids.ID]
}

func New(programID ids.ID) *Builder {
	return &Builder{
		ProgramID: programID,
		addresses: lru.NewCache[addressKey, ids.ID](addressCacheSize),
	}
}

// RegistryAddress returns the address of the registry.
func (b *Builder) RegistryAddress() (ids.ID, error) {
	return b.address(addressKey{kind: registryAddress}, state.RegistrySeeds())
}

// WorldAddress returns the address of world id.
func (b *Builder) WorldAddress(id uint64) (ids.ID, error) {
	return b.address(addressKey{kind: worldAddress, world: id}, state.WorldSeeds(id))
}

// EntityAddress returns the address of an entity of world worldID.
func (b *Builder) EntityAddress(worldID, entity uint64, seed []byte) (ids.ID, error) {
	key := addressKey{
		kind:   entityAddress,
		world:  worldID,
		entity: entity,
		seed:   string(seed),
	}
	return b.address(key, state.EntitySeeds(worldID, entity, seed))
}

func (b *Builder) address(key addressKey, seeds [][]byte) (ids.ID, error) {
	if addr, ok := b.addresses.Get(key); ok {
		return addr, nil
	}
	addr, _, err := state.FindProgramAddress(seeds, b.ProgramID)
	if err != nil {
		return ids.Empty, err
	}
	b.addresses.Put(key, addr)
	return addr, nil
}

func (b *Builder) instruction(op txs.Instruction, payload []byte, metas ...account.Meta) account.Instruction {
	return account.Instruction{
		ProgramID: b.ProgramID,
		Accounts:  metas,
		Data:      txs.Encode(op, payload),
	}
}

func (b *Builder) InitializeRegistry(payer ids.ID) (account.Instruction, error) {
	registry, err := b.RegistryAddress()
	if err != nil {
		return account.Instruction{}, err
	}
	return b.instruction(txs.InitializeRegistry, nil,
		account.Writable(registry),
		account.WritableSigner(payer),
		account.Readonly(system.ID),
	), nil
}

// InitializeWorld creates world id, which must be the registry's current
// world count.
func (b *Builder) InitializeWorld(payer ids.ID, id uint64) (account.Instruction, error) {
	registry, err := b.RegistryAddress()
	if err != nil {
		return account.Instruction{}, err
	}
	world, err := b.WorldAddress(id)
	if err != nil {
		return account.Instruction{}, err
	}
	return b.instruction(txs.InitializeWorld, nil,
		account.WritableSigner(payer),
		account.Writable(world),
		account.Writable(registry),
		account.Readonly(system.ID),
	), nil
}

func (b *Builder) AddAuthority(authority, newAuthority, world ids.ID, worldID uint64) account.Instruction {
	return b.instruction(txs.AddAuthority, binary.LittleEndian.AppendUint64(nil, worldID),
		account.WritableSigner(authority),
		account.Readonly(newAuthority),
		account.Writable(world),
		account.Readonly(system.ID),
	)
}

func (b *Builder) RemoveAuthority(authority, target, world ids.ID, worldID uint64) account.Instruction {
	return b.instruction(txs.RemoveAuthority, binary.LittleEndian.AppendUint64(nil, worldID),
		account.WritableSigner(authority),
		account.Readonly(target),
		account.Writable(world),
		account.Readonly(system.ID),
	)
}

func (b *Builder) ApproveSystem(authority, world, sys ids.ID) account.Instruction {
	return b.instruction(txs.ApproveSystem, nil,
		account.WritableSigner(authority),
		account.Writable(world),
		account.Readonly(sys),
		account.Readonly(system.ID),
	)
}

func (b *Builder) RemoveSystem(authority, world, sys ids.ID) account.Instruction {
	return b.instruction(txs.RemoveSystem, nil,
		account.WritableSigner(authority),
		account.Writable(world),
		account.Readonly(sys),
		account.Readonly(system.ID),
	)
}

// AddEntity creates entity number entity of world worldID.
func (b *Builder) AddEntity(payer, world ids.ID, worldID, entity uint64, seed []byte) (account.Instruction, error) {
	addr, err := b.EntityAddress(worldID, entity, seed)
	if err != nil {
		return account.Instruction{}, err
	}
	return b.instruction(txs.AddEntity, seed,
		account.WritableSigner(payer),
		account.Writable(addr),
		account.Writable(world),
		account.Readonly(system.ID),
	), nil
}

func (b *Builder) InitializeComponent(payer ids.ID, c Component, entity, authority ids.ID) account.Instruction {
	return b.instruction(txs.InitializeComponent, nil,
		account.WritableSigner(payer),
		account.Writable(c.Account),
		account.Readonly(c.Program),
		account.Readonly(entity),
		account.ReadonlySigner(authority),
		account.Readonly(runtime.InstructionsSysvarID),
		account.Readonly(system.ID),
	)
}

// Apply runs sys against components. extras are passed to the system after
// the components.
func (b *Builder) Apply(sys, authority, world ids.ID, components []Component, extras []ids.ID, args []byte) account.Instruction {
	metas := []account.Meta{
		account.Readonly(sys),
		account.ReadonlySigner(authority),
		account.Readonly(runtime.InstructionsSysvarID),
		account.Readonly(world),
	}
	metas = b.appendRemaining(metas, components, extras)
	return b.instruction(txs.Apply, args, metas...)
}

// ApplyWithSession is Apply on behalf of a session token.
func (b *Builder) ApplyWithSession(sys, authority, world, session ids.ID, components []Component, extras []ids.ID, args []byte) account.Instruction {
	metas := []account.Meta{
		account.Readonly(sys),
		account.ReadonlySigner(authority),
		account.Readonly(runtime.InstructionsSysvarID),
		account.Readonly(world),
		account.Readonly(session),
	}
	metas = b.appendRemaining(metas, components, extras)
	return b.instruction(txs.ApplyWithSession, args, metas...)
}

func (b *Builder) appendRemaining(metas []account.Meta, components []Component, extras []ids.ID) []account.Meta {
	for _, c := range components {
		metas = append(metas,
			account.Readonly(c.Program),
			account.Writable(c.Account),
		)
	}
	if len(extras) == 0 {
		return metas
	}
	metas = append(metas, account.Readonly(b.ProgramID))
	for _, extra := range extras {
		metas = append(metas, account.Readonly(extra))
	}
	return metas
}
