// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package fee keeps the storage deposit of a resized account in line with
// its new size.
package fee

import (
	"context"
	"errors"
	"fmt"

	"github.com/luxfi/world/vms/worldvm/account"

	safemath "github.com/luxfi/world/utils/math"
)

var ErrTransferFailed = errors.New("storage fee transfer failed")

// Transferer moves balance between accounts through the external value
// transfer primitive.
type Transferer interface {
	Transfer(ctx context.Context, from, to *account.Account, amount uint64) error
}

// Reconciliation describes one resize.
type Reconciliation struct {
	// Account being resized
	Record *account.Account
	// Pays any shortfall and receives any excess
	Counterparty *account.Account
	// Size of the account data after the resize
	NewSize int
}

// Result reports the balance moved by a reconciliation. At most one of the
// fields is non-zero.
type Result struct {
	ToppedUp uint64
	Refunded uint64
}

type Reconciler struct {
	Rent       Rent
	Transferer Transferer
}

// Reconcile tops up or refunds the record's deposit for its new size and then
// resizes the record. The resize happens last so that a failed transfer
// never leaves the record at a size its deposit does not cover.
func (r *Reconciler) Reconcile(ctx context.Context, rc Reconciliation) (Result, error) {
	var (
		result  Result
		minimum = r.Rent.MinimumBalance(rc.NewSize)
		balance = rc.Record.Balance
	)
	switch {
	case minimum > balance:
		shortfall := minimum - balance
		if err := r.Transferer.Transfer(ctx, rc.Counterparty, rc.Record, shortfall); err != nil {
			return Result{}, fmt.Errorf("%w: %d from %s: %w", ErrTransferFailed, shortfall, rc.Counterparty.Key, err)
		}
		result.ToppedUp = shortfall
	case balance > minimum:
		excess := balance - minimum
		credited, err := safemath.Add(rc.Counterparty.Balance, excess)
		if err != nil {
			return Result{}, err
		}
		if !rc.Counterparty.IsWritable {
			return Result{}, fmt.Errorf("%w: refund recipient %s", account.ErrNotWritable, rc.Counterparty.Key)
		}
		rc.Record.Balance = minimum
		rc.Counterparty.Balance = credited
		result.Refunded = excess
	}

	if err := rc.Record.Realloc(rc.NewSize); err != nil {
		return Result{}, err
	}
	return result, nil
}
