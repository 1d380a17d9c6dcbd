// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package executor

import (
	"context"
	"fmt"

	"github.com/luxfi/log"

	"github.com/luxfi/world/vms/worldvm/account"
	"github.com/luxfi/world/vms/worldvm/cpi"
)

// Apply runs a system against the components listed in the trailing
// accounts and writes the system's results back through the owning
// component programs.
//
// Accounts: system, authority, instruction sysvar, world, then alternating
// component program and component accounts, optionally followed by the
// world program id and extra accounts for the system.
func (e *Executor) Apply(ctx context.Context, accounts []*account.Account, args []byte) error {
	if err := account.Require(accounts, 4); err != nil {
		return err
	}
	return e.apply(ctx, relay{
		system:    accounts[0],
		authority: accounts[1],
		sysvar:    accounts[2],
		world:     accounts[3],
		remaining: accounts[4:],
		args:      args,
	})
}

// ApplyWithSession is Apply for callers acting through a session token,
// which is passed on to every component update. Payloads are forwarded
// without operation tags.
//
// Accounts: as Apply, with the session token between world and the
// component accounts.
func (e *Executor) ApplyWithSession(ctx context.Context, accounts []*account.Account, args []byte) error {
	if err := account.Require(accounts, 5); err != nil {
		return err
	}
	return e.apply(ctx, relay{
		system:    accounts[0],
		authority: accounts[1],
		sysvar:    accounts[2],
		world:     accounts[3],
		session:   accounts[4],
		remaining: accounts[5:],
		args:      args,
	})
}

type relay struct {
	system    *account.Account
	authority *account.Account
	sysvar    *account.Account
	world     *account.Account
	// nil unless the caller acts through a session token
	session   *account.Account
	remaining []*account.Account
	args      []byte
}

func (r *relay) tag(discriminator [cpi.DiscriminatorLen]byte, data []byte) []byte {
	if r.session != nil {
		return data
	}
	return cpi.Tagged(discriminator, data)
}

func (e *Executor) apply(ctx context.Context, r relay) error {
	if !r.authority.IsSigner && r.authority.Key != e.ProgramID {
		return fmt.Errorf("%w: %s did not sign", ErrInvalidAuthority, r.authority.Key)
	}

	w, err := e.loadWorld(r.world)
	if err != nil {
		return err
	}
	if !w.Permissionless() && !w.HasSystem(r.system.Key) {
		return fmt.Errorf("%w: %s in world %d", ErrSystemNotApproved, r.system.Key, w.ID())
	}

	partition, err := cpi.Split(r.remaining, e.ProgramID)
	if err != nil {
		return err
	}

	exec := &cpi.Execute{
		System:     r.system.Key,
		Authority:  r.authority,
		Components: partition.Components(),
		Remaining:  partition.Extras,
		Data:       r.tag(cpi.ExecuteDiscriminator, r.args),
	}
	if err := cpi.CheckLimits(exec.Instruction(), e.Config.MaxCPIAccounts, e.Config.MaxRelayDataLen); err != nil {
		return err
	}
	ret, err := exec.Invoke(ctx, e.Invoker)
	if err != nil {
		return err
	}

	limit := cpi.SegmentLimit(e.Config.MaxUpdateDataLen, r.session == nil)
	segments, err := cpi.ParseOutputs(ret, len(partition.Pairs), e.Config.StrictOutputCount, limit)
	if err != nil {
		return err
	}
	for i, pair := range partition.Pairs {
		update := &cpi.Update{
			ComponentProgram:  pair.Program.Key,
			Component:         pair.Component,
			Authority:         r.authority,
			InstructionSysvar: r.sysvar,
			SessionToken:      r.session,
			Data:              r.tag(cpi.UpdateDiscriminator, segments[i]),
		}
		if err := cpi.CheckLimits(update.Instruction(), e.Config.MaxCPIAccounts, e.Config.MaxUpdateDataLen); err != nil {
			return err
		}
		if err := update.Invoke(ctx, e.Invoker); err != nil {
			return fmt.Errorf("updating component %s: %w", pair.Component.Key, err)
		}
	}

	e.Metrics.MarkRelay(len(partition.Pairs))
	e.Log.Debug("applied system",
		log.Uint64("worldID", w.ID()),
		log.Stringer("system", r.system.Key),
		log.Int("components", len(partition.Pairs)),
		log.Bool("session", r.session != nil),
	)
	return nil
}
