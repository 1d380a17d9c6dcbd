// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package executor

import (
	"context"

	"github.com/luxfi/log"

	"github.com/luxfi/world/vms/worldvm/account"
	"github.com/luxfi/world/vms/worldvm/state"
)

// ApproveSystem adds accounts[2] to the approved systems of the world held by
// accounts[1] and turns off permissionless mode, even when the system was
// already approved.
//
// Accounts: authority, world, system, system program.
func (e *Executor) ApproveSystem(ctx context.Context, accounts []*account.Account, _ []byte) error {
	if err := account.Require(accounts, 4); err != nil {
		return err
	}
	var (
		caller    = accounts[0]
		worldAcct = accounts[1]
		sys       = accounts[2]
	)
	return e.updateWorld(ctx, worldAcct, caller, func(w *state.World) error {
		if err := checkAuthority(w, caller); err != nil {
			return err
		}
		w.SetPermissionless(false)
		added, err := w.InsertSystem(sys.Key)
		if err != nil || added == 0 {
			return err
		}
		e.Log.Info("approved system",
			log.Uint64("worldID", w.ID()),
			log.Stringer("system", sys.Key),
		)
		return nil
	})
}

// RemoveSystem removes accounts[2] from the approved systems of the world
// held by accounts[1]. The permissionless flag is left alone.
//
// Accounts: authority, world, system, system program.
func (e *Executor) RemoveSystem(ctx context.Context, accounts []*account.Account, _ []byte) error {
	if err := account.Require(accounts, 4); err != nil {
		return err
	}
	var (
		caller    = accounts[0]
		worldAcct = accounts[1]
		sys       = accounts[2]
	)
	return e.updateWorld(ctx, worldAcct, caller, func(w *state.World) error {
		if err := checkAuthority(w, caller); err != nil {
			return err
		}
		removed, err := w.RemoveSystem(sys.Key)
		if err != nil || removed == 0 {
			return err
		}
		e.Log.Info("removed system",
			log.Uint64("worldID", w.ID()),
			log.Stringer("system", sys.Key),
		)
		return nil
	})
}
