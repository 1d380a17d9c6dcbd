// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package account defines the account handles passed to world program
// instructions and the instruction format used for cross-program calls.
package account

import (
	"errors"
	"fmt"

	"github.com/luxfi/ids"
)

// MaxPermittedDataIncrease is the spare capacity given to every account
// buffer for the duration of one invocation. A single invocation may grow an
// account by at most this many bytes.
const MaxPermittedDataIncrease = 10 * 1024

var (
	ErrNotEnoughAccountKeys = errors.New("not enough account keys")
	ErrAccountBorrowFailed  = errors.New("account data already borrowed")
	ErrInvalidRealloc       = errors.New("invalid account data realloc")
	ErrNotWritable          = errors.New("account is not writable")
)

// Account is the view of a single account handed to a program for the
// duration of one invocation.
type Account struct {
	Key        ids.ID
	Owner      ids.ID
	Balance    uint64
	Executable bool
	IsSigner   bool
	IsWritable bool

	data     []byte
	borrowed bool
}

// New returns an account holding a copy of data with room to grow by
// MaxPermittedDataIncrease bytes.
func New(key, owner ids.ID, balance uint64, data []byte) *Account {
	a := &Account{
		Key:     key,
		Owner:   owner,
		Balance: balance,
	}
	a.SetData(data)
	return a
}

// SetData replaces the account data with a copy of data and resets the spare
// capacity.
func (a *Account) SetData(data []byte) {
	buf := make([]byte, len(data), len(data)+MaxPermittedDataIncrease)
	copy(buf, data)
	a.data = buf
}

// Data returns the account data. Callers must not modify the returned slice;
// writers go through BorrowMutData.
func (a *Account) Data() []byte {
	return a.data
}

// DataLen returns the current size of the account data.
func (a *Account) DataLen() int {
	return len(a.data)
}

// Capacity returns the largest size the account data may be reallocated to.
func (a *Account) Capacity() int {
	return cap(a.data)
}

// BorrowMutData hands out exclusive write access to the account data. The
// returned buffer has the account's spare capacity available past its
// length. Only one borrow may be outstanding; release ends it.
func (a *Account) BorrowMutData() ([]byte, func(), error) {
	if !a.IsWritable {
		return nil, nil, fmt.Errorf("%w: %s", ErrNotWritable, a.Key)
	}
	if a.borrowed {
		return nil, nil, fmt.Errorf("%w: %s", ErrAccountBorrowFailed, a.Key)
	}
	a.borrowed = true
	return a.data, func() { a.borrowed = false }, nil
}

// Borrowed reports whether the account data is currently borrowed.
func (a *Account) Borrowed() bool {
	return a.borrowed
}

// Realloc resizes the account data. Growing does not zero the newly exposed
// bytes, so anything a borrower already wrote past the old length is kept.
// Shrinking zeroes the released tail.
func (a *Account) Realloc(size int) error {
	if !a.IsWritable {
		return fmt.Errorf("%w: %s", ErrNotWritable, a.Key)
	}
	if size < 0 || size > cap(a.data) {
		return fmt.Errorf("%w: size %d exceeds capacity %d", ErrInvalidRealloc, size, cap(a.data))
	}
	if size < len(a.data) {
		clear(a.data[size:])
	}
	a.data = a.data[:size]
	return nil
}

// Meta describes how an account is passed to an instruction.
type Meta struct {
	Key        ids.ID `serialize:"true" json:"key"`
	IsSigner   bool   `serialize:"true" json:"isSigner"`
	IsWritable bool   `serialize:"true" json:"isWritable"`
}

// Writable returns a writable, non-signer meta for key.
func Writable(key ids.ID) Meta {
	return Meta{Key: key, IsWritable: true}
}

// WritableSigner returns a writable signer meta for key.
func WritableSigner(key ids.ID) Meta {
	return Meta{Key: key, IsSigner: true, IsWritable: true}
}

// Readonly returns a read-only, non-signer meta for key.
func Readonly(key ids.ID) Meta {
	return Meta{Key: key}
}

// ReadonlySigner returns a read-only signer meta for key.
func ReadonlySigner(key ids.ID) Meta {
	return Meta{Key: key, IsSigner: true}
}

// MetaOf returns the meta that passes a through with its current privileges.
func MetaOf(a *Account) Meta {
	return Meta{Key: a.Key, IsSigner: a.IsSigner, IsWritable: a.IsWritable}
}

// Instruction is a call into a program.
type Instruction struct {
	ProgramID ids.ID `serialize:"true" json:"programID"`
	Accounts  []Meta `serialize:"true" json:"accounts"`
	Data      []byte `serialize:"true" json:"data"`
}

// Require returns an error if fewer than n accounts were supplied.
func Require(accounts []*Account, n int) error {
	if len(accounts) < n {
		return fmt.Errorf("%w: want %d, have %d", ErrNotEnoughAccountKeys, n, len(accounts))
	}
	return nil
}
