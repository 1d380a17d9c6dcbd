// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package cpi defines the wire formats the world program uses to call
// systems and components, and parses the framed results systems return.
package cpi

import (
	"context"
	"errors"
	"fmt"

	"github.com/luxfi/ids"

	"github.com/luxfi/world/vms/worldvm/account"
)

// DiscriminatorLen is the size of the operation tag leading every payload.
const DiscriminatorLen = 8

var (
	// ExecuteDiscriminator tags relay calls into a system.
	ExecuteDiscriminator = [DiscriminatorLen]byte{130, 221, 242, 154, 13, 193, 189, 29}
	// UpdateDiscriminator tags update calls into a component.
	UpdateDiscriminator = [DiscriminatorLen]byte{219, 200, 88, 176, 158, 63, 253, 127}
	// InitializeDiscriminator tags initialize calls into a component.
	InitializeDiscriminator = [DiscriminatorLen]byte{175, 175, 109, 31, 13, 152, 155, 237}

	ErrTooManyAccounts = errors.New("too many accounts for cross-program call")
	ErrPayloadTooLarge = errors.New("cross-program payload too large")
)

// Invoker performs a synchronous call into another program and returns the
// data the callee left as its return value, or nil if it set none.
//
// Each entry of signers is the seed list, bump included, of a program
// derived address of the calling program that signs the call.
type Invoker interface {
	Invoke(ctx context.Context, ix account.Instruction, accounts []*account.Account, signers ...[][]byte) ([]byte, error)
}

// Env is the view a program has of the runtime during one invocation.
type Env interface {
	Invoker

	// ProgramID returns the id of the executing program.
	ProgramID() ids.ID
	// SetReturnData sets the value returned to the caller.
	SetReturnData(data []byte)
}

// Program is an executable program.
type Program interface {
	Execute(ctx context.Context, env Env, accounts []*account.Account, data []byte) error
}

// Tagged returns tag followed by data in a new buffer.
func Tagged(tag [DiscriminatorLen]byte, data []byte) []byte {
	out := make([]byte, 0, DiscriminatorLen+len(data))
	out = append(out, tag[:]...)
	return append(out, data...)
}

// Execute is the relay call into a system.
type Execute struct {
	System     ids.ID
	Authority  *account.Account
	Components []*account.Account
	Remaining  []*account.Account
	// Full payload, including any tag
	Data []byte
}

// Accounts returns the accounts passed to the system, in order.
func (e *Execute) Accounts() []*account.Account {
	accounts := make([]*account.Account, 0, 1+len(e.Components)+len(e.Remaining))
	accounts = append(accounts, e.Authority)
	accounts = append(accounts, e.Components...)
	return append(accounts, e.Remaining...)
}

// Instruction returns the instruction for the call. Accounts keep the
// privileges they were passed to the world program with.
func (e *Execute) Instruction() account.Instruction {
	accounts := e.Accounts()
	metas := make([]account.Meta, len(accounts))
	for i, a := range accounts {
		metas[i] = account.MetaOf(a)
	}
	return account.Instruction{
		ProgramID: e.System,
		Accounts:  metas,
		Data:      e.Data,
	}
}

// Invoke performs the relay call and returns the system's result buffer.
func (e *Execute) Invoke(ctx context.Context, invoker Invoker) ([]byte, error) {
	return invoker.Invoke(ctx, e.Instruction(), e.Accounts())
}

// Update is an update call into a component program.
type Update struct {
	ComponentProgram  ids.ID
	Component         *account.Account
	Authority         *account.Account
	InstructionSysvar *account.Account
	// Present only for session updates
	SessionToken *account.Account
	// Full payload, including any tag
	Data []byte
}

// Accounts returns the accounts passed to the component, in order.
func (u *Update) Accounts() []*account.Account {
	accounts := []*account.Account{u.Component, u.Authority, u.InstructionSysvar}
	if u.SessionToken != nil {
		accounts = append(accounts, u.SessionToken)
	}
	return accounts
}

// Instruction returns the instruction for the call: the component is
// writable, the authority keeps its signer flag, the rest are read-only.
func (u *Update) Instruction() account.Instruction {
	metas := []account.Meta{
		account.Writable(u.Component.Key),
		{Key: u.Authority.Key, IsSigner: u.Authority.IsSigner},
		account.Readonly(u.InstructionSysvar.Key),
	}
	if u.SessionToken != nil {
		metas = append(metas, account.Readonly(u.SessionToken.Key))
	}
	return account.Instruction{
		ProgramID: u.ComponentProgram,
		Accounts:  metas,
		Data:      u.Data,
	}
}

// Invoke performs the update call.
func (u *Update) Invoke(ctx context.Context, invoker Invoker) error {
	_, err := invoker.Invoke(ctx, u.Instruction(), u.Accounts())
	return err
}

// Initialize is the call that asks a component program to create the
// component account of an entity.
type Initialize struct {
	ComponentProgram  ids.ID
	Payer             *account.Account
	Component         *account.Account
	Entity            *account.Account
	Authority         *account.Account
	InstructionSysvar *account.Account
	SystemProgram     *account.Account
}

func (i *Initialize) accounts() []*account.Account {
	return []*account.Account{
		i.Payer,
		i.Component,
		i.Entity,
		i.Authority,
		i.InstructionSysvar,
		i.SystemProgram,
	}
}

// Instruction returns the instruction for the call.
func (i *Initialize) Instruction() account.Instruction {
	return account.Instruction{
		ProgramID: i.ComponentProgram,
		Accounts: []account.Meta{
			account.WritableSigner(i.Payer.Key),
			account.Writable(i.Component.Key),
			account.Readonly(i.Entity.Key),
			{Key: i.Authority.Key, IsSigner: i.Authority.IsSigner},
			account.Readonly(i.InstructionSysvar.Key),
			account.Readonly(i.SystemProgram.Key),
		},
		Data: InitializeDiscriminator[:],
	}
}

// Invoke performs the initialize call.
func (i *Initialize) Invoke(ctx context.Context, invoker Invoker) error {
	_, err := invoker.Invoke(ctx, i.Instruction(), i.accounts())
	return err
}

// CheckLimits returns an error if a call would exceed the given account or
// payload limits. Zero disables a limit.
func CheckLimits(ix account.Instruction, maxAccounts, maxData int) error {
	if maxAccounts > 0 && len(ix.Accounts) > maxAccounts {
		return fmt.Errorf("%w: %d > %d", ErrTooManyAccounts, len(ix.Accounts), maxAccounts)
	}
	if maxData > 0 && len(ix.Data) > maxData {
		return fmt.Errorf("%w: %d > %d", ErrPayloadTooLarge, len(ix.Data), maxData)
	}
	return nil
}
