// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package executor

import (
	"context"
	"fmt"

	"github.com/luxfi/log"

	"github.com/luxfi/world/vms/worldvm/account"
	"github.com/luxfi/world/vms/worldvm/state"
)

// AddAuthority adds accounts[1] to the authorities of the world held by
// accounts[2].
//
// Accounts: authority, new authority, world, system program. The payload
// names the world id and is not checked.
//
// While a world has no authorities anyone may claim it. Afterwards only an
// existing authority may add another, and adding an existing authority
// changes nothing.
func (e *Executor) AddAuthority(ctx context.Context, accounts []*account.Account, _ []byte) error {
	if err := account.Require(accounts, 4); err != nil {
		return err
	}
	var (
		caller       = accounts[0]
		newAuthority = accounts[1]
		worldAcct    = accounts[2]
	)
	return e.updateWorld(ctx, worldAcct, caller, func(w *state.World) error {
		if w.Authorities().Len() != 0 {
			if err := checkAuthority(w, caller); err != nil {
				return err
			}
			if w.HasAuthority(newAuthority.Key) {
				return nil
			}
		}
		if err := w.InsertAuthority(newAuthority.Key); err != nil {
			return err
		}
		e.Log.Info("added authority",
			log.Uint64("worldID", w.ID()),
			log.Stringer("authority", newAuthority.Key),
		)
		return nil
	})
}

// RemoveAuthority removes accounts[1] from the authorities of the world
// held by accounts[2]. The freed deposit is refunded to the caller. A world
// keeps at least one authority once claimed.
//
// Accounts: authority, target, world, system program.
func (e *Executor) RemoveAuthority(ctx context.Context, accounts []*account.Account, _ []byte) error {
	if err := account.Require(accounts, 4); err != nil {
		return err
	}
	var (
		caller    = accounts[0]
		target    = accounts[1]
		worldAcct = accounts[2]
	)
	return e.updateWorld(ctx, worldAcct, caller, func(w *state.World) error {
		if err := checkAuthority(w, caller); err != nil {
			return err
		}
		if w.Authorities().Len() == 1 && w.HasAuthority(target.Key) {
			return fmt.Errorf("%w: %s in world %d", ErrLastAuthority, target.Key, w.ID())
		}
		released, err := w.RemoveAuthority(target.Key)
		if err != nil || released == 0 {
			return err
		}
		e.Log.Info("removed authority",
			log.Uint64("worldID", w.ID()),
			log.Stringer("authority", target.Key),
			log.Int("bytes", released),
		)
		return nil
	})
}
