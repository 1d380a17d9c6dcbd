// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package executor carries out the world program's instructions against the
// accounts of a single invocation.
package executor

import (
	"context"
	"fmt"

	"github.com/luxfi/log"

	"github.com/luxfi/world/vms/worldvm/account"
	"github.com/luxfi/world/vms/worldvm/cpi"
	"github.com/luxfi/world/vms/worldvm/fee"
	"github.com/luxfi/world/vms/worldvm/state"
	"github.com/luxfi/world/vms/worldvm/system"
)

// Executor runs instructions for one invocation of the world program.
// Invoker is the runtime's entry point for calls made during that
// invocation.
type Executor struct {
	*Backend

	Invoker cpi.Invoker
}

func New(backend *Backend, invoker cpi.Invoker) *Executor {
	return &Executor{
		Backend: backend,
		Invoker: invoker,
	}
}

func (e *Executor) checkOwner(acct *account.Account) error {
	if acct.Owner != e.ProgramID {
		return fmt.Errorf("%w: %s is owned by %s", ErrIllegalOwner, acct.Key, acct.Owner)
	}
	return nil
}

// loadWorld returns a read-only view of the world record held by acct.
func (e *Executor) loadWorld(acct *account.Account) (*state.World, error) {
	if err := e.checkOwner(acct); err != nil {
		return nil, err
	}
	if acct.Borrowed() {
		return nil, fmt.Errorf("%w: %s", account.ErrAccountBorrowFailed, acct.Key)
	}
	return state.Load(acct.Data())
}

// updateWorld borrows the world record held by worldAcct and applies f to
// it. If f changed the size of the record, the record's deposit is then
// reconciled against payer and the account resized.
func (e *Executor) updateWorld(
	ctx context.Context,
	worldAcct *account.Account,
	payer *account.Account,
	f func(w *state.World) error,
) error {
	if err := e.checkOwner(worldAcct); err != nil {
		return err
	}
	buf, release, err := worldAcct.BorrowMutData()
	if err != nil {
		return err
	}
	w, err := state.Load(buf)
	if err != nil {
		release()
		return err
	}

	oldSize := w.Size()
	err = f(w)
	newSize := w.Size()
	release()
	if err != nil || newSize == oldSize {
		return err
	}
	return e.reconcile(ctx, worldAcct, payer, newSize)
}

func (e *Executor) reconcile(ctx context.Context, record, counterparty *account.Account, size int) error {
	r := fee.Reconciler{
		Rent:       e.Rent,
		Transferer: &system.Transferer{Invoker: e.Invoker},
	}
	result, err := r.Reconcile(ctx, fee.Reconciliation{
		Record:       record,
		Counterparty: counterparty,
		NewSize:      size,
	})
	if err != nil {
		return err
	}
	e.Metrics.MarkFees(result.ToppedUp, result.Refunded)
	e.Log.Debug("resized world",
		log.Stringer("world", record.Key),
		log.Int("size", size),
		log.Uint64("toppedUp", result.ToppedUp),
		log.Uint64("refunded", result.Refunded),
	)
	return nil
}

// checkAuthority returns an error unless caller signed and is one of the
// world's authorities.
func checkAuthority(w *state.World, caller *account.Account) error {
	if !caller.IsSigner {
		return fmt.Errorf("%w: %s did not sign", ErrInvalidAuthority, caller.Key)
	}
	if !w.HasAuthority(caller.Key) {
		return fmt.Errorf("%w: %s", ErrInvalidAuthority, caller.Key)
	}
	return nil
}
