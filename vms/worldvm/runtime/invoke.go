// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package runtime

import (
	"bytes"
	"context"
	"fmt"

	"github.com/luxfi/ids"
	"github.com/luxfi/math/set"

	"github.com/luxfi/world/vms/worldvm/account"
	"github.com/luxfi/world/vms/worldvm/cpi"
	"github.com/luxfi/world/vms/worldvm/state"

	safemath "github.com/luxfi/world/utils/math"
)

var _ cpi.Env = (*frame)(nil)

// frame is one program invocation.
type frame struct {
	txn       *txn
	programID ids.ID
	depth     int
	snapshots map[*account.Account]*snapshot
	// sum of the balances of all accounts when the frame started
	total      uint64
	returnData []byte
}

type snapshot struct {
	owner    ids.ID
	balance  uint64
	data     []byte
	writable bool
}

func (f *frame) ProgramID() ids.ID {
	return f.programID
}

func (f *frame) SetReturnData(data []byte) {
	f.returnData = bytes.Clone(data)
}

// Invoke calls another program on behalf of the executing program. Callee
// privileges may not exceed the caller's, except that the caller may sign
// for addresses it derives from signers.
func (f *frame) Invoke(ctx context.Context, ix account.Instruction, accounts []*account.Account, signers ...[][]byte) ([]byte, error) {
	derived := set.NewSet[ids.ID](len(signers))
	for _, seeds := range signers {
		if len(seeds) == 0 || len(seeds[len(seeds)-1]) != 1 {
			return nil, fmt.Errorf("%w: malformed signer seeds", ErrPrivilegeEscalation)
		}
		bump := seeds[len(seeds)-1][0]
		addr, err := state.CreateProgramAddress(seeds[:len(seeds)-1], bump, f.programID)
		if err != nil {
			return nil, err
		}
		derived.Add(addr)
	}

	if len(accounts) != len(ix.Accounts) {
		return nil, fmt.Errorf("%w: %d accounts for %d metas", ErrAccountMismatch, len(accounts), len(ix.Accounts))
	}
	for i, meta := range ix.Accounts {
		a := accounts[i]
		switch {
		case a.Key != meta.Key:
			return nil, fmt.Errorf("%w: account %d is %s, want %s", ErrAccountMismatch, i, a.Key, meta.Key)
		case meta.IsWritable && !a.IsWritable:
			return nil, fmt.Errorf("%w: %s is not writable", ErrPrivilegeEscalation, a.Key)
		case meta.IsSigner && !a.IsSigner && !derived.Contains(a.Key):
			return nil, fmt.Errorf("%w: %s did not sign", ErrPrivilegeEscalation, a.Key)
		case meta.IsWritable && a.Borrowed():
			return nil, fmt.Errorf("%w: %s", account.ErrAccountBorrowFailed, a.Key)
		}
	}

	// Changes made so far must hold up before the callee may build on them.
	for _, a := range accounts {
		if s, ok := f.snapshots[a]; ok {
			if err := f.check(a, s); err != nil {
				return nil, err
			}
		}
	}

	type privileges struct{ signer, writable bool }
	saved := make(map[*account.Account]privileges, len(accounts))
	for i, meta := range ix.Accounts {
		a := accounts[i]
		if _, ok := saved[a]; !ok {
			saved[a] = privileges{a.IsSigner, a.IsWritable}
			a.IsSigner = false
			a.IsWritable = false
		}
		a.IsSigner = a.IsSigner || meta.IsSigner
		a.IsWritable = a.IsWritable || meta.IsWritable
	}
	defer func() {
		for a, p := range saved {
			a.IsSigner = p.signer
			a.IsWritable = p.writable
		}
	}()

	ret, err := f.txn.invoke(ctx, f.depth+1, ix, accounts)
	if err != nil {
		return nil, fmt.Errorf("%w: program %s: %w", ErrExternalCall, ix.ProgramID, err)
	}
	// The callee's changes were checked against the callee and the caller's
	// against its snapshots above, so the current state is the new baseline.
	for a := range saved {
		if s, ok := f.snapshots[a]; ok {
			s.owner = a.Owner
			s.balance = a.Balance
			s.data = bytes.Clone(a.Data())
		}
	}
	return ret, nil
}

// invoke runs ix with accounts whose privileges are already set.
func (t *txn) invoke(ctx context.Context, depth int, ix account.Instruction, accounts []*account.Account) ([]byte, error) {
	if depth > t.runtime.config.MaxInvokeDepth {
		return nil, fmt.Errorf("%w: %d", ErrCallDepthExceeded, depth)
	}
	program, ok := t.runtime.programs[ix.ProgramID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProgramNotFound, ix.ProgramID)
	}

	f := &frame{
		txn:       t,
		programID: ix.ProgramID,
		depth:     depth,
		snapshots: make(map[*account.Account]*snapshot, len(accounts)),
	}
	for _, a := range accounts {
		if _, ok := f.snapshots[a]; ok {
			continue
		}
		total, err := safemath.Add(f.total, a.Balance)
		if err != nil {
			return nil, err
		}
		f.total = total
		f.snapshots[a] = &snapshot{
			owner:    a.Owner,
			balance:  a.Balance,
			data:     bytes.Clone(a.Data()),
			writable: a.IsWritable,
		}
	}

	if err := program.Execute(ctx, f, accounts, bytes.Clone(ix.Data)); err != nil {
		return nil, err
	}
	if err := f.verify(); err != nil {
		return nil, err
	}
	return f.returnData, nil
}

// verify checks the changes the program made to its accounts and that the
// total balance is preserved.
func (f *frame) verify() error {
	var total uint64
	for a, s := range f.snapshots {
		var err error
		if total, err = safemath.Add(total, a.Balance); err != nil {
			return err
		}
		if err := f.check(a, s); err != nil {
			return err
		}
	}
	if total != f.total {
		return fmt.Errorf("%w: %d before, %d after", ErrUnbalancedInstruction, f.total, total)
	}
	return nil
}

// check compares a with its snapshot. Only the owner of an account may
// change its data or owner or lower its balance, and read-only accounts may
// not change at all.
func (f *frame) check(a *account.Account, s *snapshot) error {
	var (
		dataChanged  = !bytes.Equal(s.data, a.Data())
		ownerChanged = s.owner != a.Owner
		changed      = dataChanged || ownerChanged || s.balance != a.Balance
	)
	switch {
	case changed && !s.writable:
		return fmt.Errorf("%w: %s", ErrReadonlyModification, a.Key)
	case s.owner == f.programID:
	case dataChanged || ownerChanged || a.Balance < s.balance:
		return fmt.Errorf("%w: %s owned by %s", ErrExternalModification, a.Key, s.owner)
	}
	return nil
}
