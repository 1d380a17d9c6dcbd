// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package system implements the built-in program that creates accounts and
// moves balance between them.
package system

import (
	"context"
	"errors"
	"fmt"

	"github.com/luxfi/ids"

	"github.com/luxfi/world/utils/wrappers"
	"github.com/luxfi/world/vms/worldvm/account"
	"github.com/luxfi/world/vms/worldvm/cpi"

	safemath "github.com/luxfi/world/utils/math"
)

const (
	CreateAccountOp uint32 = 0
	TransferOp      uint32 = 2

	createAccountLen = wrappers.IntLen + 2*wrappers.LongLen + wrappers.IDLen
	transferLen      = wrappers.IntLen + wrappers.LongLen
)

var (
	// ID is the id of the system program. Accounts nobody has claimed are
	// owned by it.
	ID = ids.Empty

	ErrInvalidInstruction   = errors.New("invalid system instruction")
	ErrMissingSignature     = errors.New("missing required signature")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrAccountAlreadyInUse  = errors.New("account already in use")
	ErrInvalidAccountLength = errors.New("invalid account data length")

	_ cpi.Program = (*Program)(nil)
)

// CreateAccount funds a new account, sizes its data and assigns it to
// Owner.
type CreateAccount struct {
	From     *account.Account
	To       *account.Account
	Lamports uint64
	Space    uint64
	Owner    ids.ID
}

func (c *CreateAccount) Instruction() account.Instruction {
	p := wrappers.Packer{
		Bytes:   make([]byte, 0, createAccountLen),
		MaxSize: createAccountLen,
	}
	p.PackInt(CreateAccountOp)
	p.PackLong(c.Lamports)
	p.PackLong(c.Space)
	p.PackID(c.Owner)
	return account.Instruction{
		ProgramID: ID,
		Accounts: []account.Meta{
			account.WritableSigner(c.From.Key),
			account.WritableSigner(c.To.Key),
		},
		Data: p.Bytes,
	}
}

// Invoke creates the account. signers carries the seeds of To when To is a
// program derived address of the caller.
func (c *CreateAccount) Invoke(ctx context.Context, invoker cpi.Invoker, signers ...[][]byte) error {
	_, err := invoker.Invoke(ctx, c.Instruction(), []*account.Account{c.From, c.To}, signers...)
	return err
}

// Transfer moves Lamports from From to To.
type Transfer struct {
	From     *account.Account
	To       *account.Account
	Lamports uint64
}

func (t *Transfer) Instruction() account.Instruction {
	p := wrappers.Packer{
		Bytes:   make([]byte, 0, transferLen),
		MaxSize: transferLen,
	}
	p.PackInt(TransferOp)
	p.PackLong(t.Lamports)
	return account.Instruction{
		ProgramID: ID,
		Accounts: []account.Meta{
			account.WritableSigner(t.From.Key),
			account.Writable(t.To.Key),
		},
		Data: p.Bytes,
	}
}

func (t *Transfer) Invoke(ctx context.Context, invoker cpi.Invoker, signers ...[][]byte) error {
	_, err := invoker.Invoke(ctx, t.Instruction(), []*account.Account{t.From, t.To}, signers...)
	return err
}

// Transferer moves storage fees through the system program.
type Transferer struct {
	Invoker cpi.Invoker
}

func (t *Transferer) Transfer(ctx context.Context, from, to *account.Account, amount uint64) error {
	tx := &Transfer{
		From:     from,
		To:       to,
		Lamports: amount,
	}
	return tx.Invoke(ctx, t.Invoker)
}

// Program executes system instructions.
type Program struct{}

func (*Program) Execute(_ context.Context, _ cpi.Env, accounts []*account.Account, data []byte) error {
	p := wrappers.Packer{Bytes: data}
	op := p.UnpackInt()
	if p.Err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInstruction, p.Err)
	}

	switch op {
	case CreateAccountOp:
		lamports := p.UnpackLong()
		space := p.UnpackLong()
		owner := p.UnpackID()
		if err := done(&p); err != nil {
			return err
		}
		if err := account.Require(accounts, 2); err != nil {
			return err
		}
		return createAccount(accounts[0], accounts[1], lamports, space, owner)
	case TransferOp:
		lamports := p.UnpackLong()
		if err := done(&p); err != nil {
			return err
		}
		if err := account.Require(accounts, 2); err != nil {
			return err
		}
		return transfer(accounts[0], accounts[1], lamports)
	default:
		return fmt.Errorf("%w: unknown op %d", ErrInvalidInstruction, op)
	}
}

func done(p *wrappers.Packer) error {
	switch {
	case p.Err != nil:
		return fmt.Errorf("%w: %w", ErrInvalidInstruction, p.Err)
	case p.Remaining() != 0:
		return fmt.Errorf("%w: %d trailing bytes", ErrInvalidInstruction, p.Remaining())
	default:
		return nil
	}
}

func createAccount(from, to *account.Account, lamports, space uint64, owner ids.ID) error {
	if !to.IsSigner {
		return fmt.Errorf("%w: new account %s", ErrMissingSignature, to.Key)
	}
	if to.Owner != ID || to.DataLen() != 0 || to.Balance != 0 {
		return fmt.Errorf("%w: %s", ErrAccountAlreadyInUse, to.Key)
	}
	if space > uint64(to.Capacity()) {
		return fmt.Errorf("%w: %d bytes", ErrInvalidAccountLength, space)
	}
	if err := transfer(from, to, lamports); err != nil {
		return err
	}
	if err := to.Realloc(int(space)); err != nil {
		return err
	}
	to.Owner = owner
	return nil
}

func transfer(from, to *account.Account, lamports uint64) error {
	if !from.IsSigner {
		return fmt.Errorf("%w: %s", ErrMissingSignature, from.Key)
	}
	if !from.IsWritable || !to.IsWritable {
		return account.ErrNotWritable
	}
	if from.Owner != ID {
		return fmt.Errorf("%w: %s is not a system account", ErrInvalidInstruction, from.Key)
	}
	debited, err := safemath.Sub(from.Balance, lamports)
	if err != nil {
		return fmt.Errorf("%w: have %d, need %d", ErrInsufficientFunds, from.Balance, lamports)
	}
	if from.Key == to.Key {
		return nil
	}
	credited, err := safemath.Add(to.Balance, lamports)
	if err != nil {
		return err
	}
	from.Balance = debited
	to.Balance = credited
	return nil
}
