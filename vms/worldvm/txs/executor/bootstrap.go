// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package executor

import (
	"context"
	"fmt"

	"github.com/luxfi/log"

	"github.com/luxfi/world/vms/worldvm/account"
	"github.com/luxfi/world/vms/worldvm/cpi"
	"github.com/luxfi/world/vms/worldvm/state"
	"github.com/luxfi/world/vms/worldvm/system"
)

// InitializeRegistry creates the registry record.
//
// Accounts: registry, payer, system program.
func (e *Executor) InitializeRegistry(ctx context.Context, accounts []*account.Account, _ []byte) error {
	if err := account.Require(accounts, 3); err != nil {
		return err
	}
	var (
		registry = accounts[0]
		payer    = accounts[1]
	)
	if err := e.create(ctx, payer, registry, state.RegistryLen, state.RegistrySeeds()); err != nil {
		return err
	}
	buf, release, err := registry.BorrowMutData()
	if err != nil {
		return err
	}
	defer release()

	_, err = state.InitRegistry(buf)
	return err
}

// InitializeWorld creates the next world, with no authorities and
// permissionless mode on.
//
// Accounts: payer, world, registry, system program.
func (e *Executor) InitializeWorld(ctx context.Context, accounts []*account.Account, _ []byte) error {
	if err := account.Require(accounts, 4); err != nil {
		return err
	}
	var (
		payer     = accounts[0]
		worldAcct = accounts[1]
		registry  = accounts[2]
	)
	if err := e.checkOwner(registry); err != nil {
		return err
	}
	regBuf, releaseRegistry, err := registry.BorrowMutData()
	if err != nil {
		return err
	}
	defer releaseRegistry()

	reg, err := state.LoadRegistry(regBuf)
	if err != nil {
		return err
	}
	id := reg.Worlds()
	if err := e.create(ctx, payer, worldAcct, state.WorldInitSize, state.WorldSeeds(id)); err != nil {
		return err
	}

	buf, release, err := worldAcct.BorrowMutData()
	if err != nil {
		return err
	}
	defer release()

	if _, err := state.InitWorld(buf, id); err != nil {
		return err
	}
	if _, err := reg.IncrementWorlds(); err != nil {
		return err
	}
	e.Log.Info("initialized world",
		log.Uint64("worldID", id),
		log.Stringer("address", worldAcct.Key),
	)
	return nil
}

// AddEntity creates the next entity of a world. The payload is an optional
// extra seed for the entity address.
//
// Accounts: payer, entity, world, system program.
func (e *Executor) AddEntity(ctx context.Context, accounts []*account.Account, seed []byte) error {
	if err := account.Require(accounts, 4); err != nil {
		return err
	}
	var (
		payer     = accounts[0]
		entity    = accounts[1]
		worldAcct = accounts[2]
	)
	if err := e.checkOwner(worldAcct); err != nil {
		return err
	}
	worldBuf, releaseWorld, err := worldAcct.BorrowMutData()
	if err != nil {
		return err
	}
	defer releaseWorld()

	w, err := state.Load(worldBuf)
	if err != nil {
		return err
	}
	id := w.Entities()
	if err := e.create(ctx, payer, entity, state.EntityLen, state.EntitySeeds(w.ID(), id, seed)); err != nil {
		return err
	}

	buf, release, err := entity.BorrowMutData()
	if err != nil {
		return err
	}
	defer release()

	if err := state.InitEntity(buf, id); err != nil {
		return err
	}
	if _, err := w.IncrementEntities(); err != nil {
		return err
	}
	e.Log.Debug("added entity",
		log.Uint64("worldID", w.ID()),
		log.Uint64("entityID", id),
	)
	return nil
}

// InitializeComponent asks a component program to create the component
// account of an entity.
//
// Accounts: payer, component, component program, entity, authority,
// instruction sysvar, system program.
func (e *Executor) InitializeComponent(ctx context.Context, accounts []*account.Account, _ []byte) error {
	if err := account.Require(accounts, 7); err != nil {
		return err
	}
	entity := accounts[3]
	if err := e.checkOwner(entity); err != nil {
		return err
	}
	if _, err := state.EntityID(entity.Data()); err != nil {
		return err
	}

	ix := &cpi.Initialize{
		ComponentProgram:  accounts[2].Key,
		Payer:             accounts[0],
		Component:         accounts[1],
		Entity:            entity,
		Authority:         accounts[4],
		InstructionSysvar: accounts[5],
		SystemProgram:     accounts[6],
	}
	return ix.Invoke(ctx, e.Invoker)
}

// create makes acct a zero-filled account of size bytes owned by the world
// program. acct must be the address derived from seeds.
func (e *Executor) create(ctx context.Context, payer, acct *account.Account, size int, seeds [][]byte) error {
	addr, bump, err := state.FindProgramAddress(seeds, e.ProgramID)
	if err != nil {
		return err
	}
	if acct.Key != addr {
		return fmt.Errorf("%w: got %s, want %s", ErrInvalidAddress, acct.Key, addr)
	}

	signer := make([][]byte, 0, len(seeds)+1)
	signer = append(signer, seeds...)
	signer = append(signer, []byte{bump})

	c := &system.CreateAccount{
		From:     payer,
		To:       acct,
		Lamports: e.Rent.MinimumBalance(size),
		Space:    uint64(size),
		Owner:    e.ProgramID,
	}
	return c.Invoke(ctx, e.Invoker, signer)
}
