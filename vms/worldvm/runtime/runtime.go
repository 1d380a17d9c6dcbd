// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package runtime hosts programs: it stores accounts, verifies and executes
// signed transactions and carries cross-program calls between programs.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/luxfi/database"
	"github.com/luxfi/database/prefixdb"
	"github.com/luxfi/database/versiondb"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"
	"github.com/luxfi/math/set"

	"github.com/luxfi/world/utils/timer/mockable"
	"github.com/luxfi/world/vms/worldvm/account"
	"github.com/luxfi/world/vms/worldvm/config"
	"github.com/luxfi/world/vms/worldvm/cpi"
	"github.com/luxfi/world/vms/worldvm/system"
)

var accountPrefix = []byte("account")

// AccountState is the persisted form of an account.
type AccountState struct {
	Owner      ids.ID `serialize:"true" json:"owner"`
	Balance    uint64 `serialize:"true" json:"balance"`
	Executable bool   `serialize:"true" json:"executable"`
	Data       []byte `serialize:"true" json:"data"`
}

// Runtime executes transactions one at a time. A transaction either applies
// all of its instructions or none of them.
type Runtime struct {
	lock sync.Mutex

	config   *config.Config
	log      log.Logger
	clock    *mockable.Clock
	db       database.Database
	programs map[ids.ID]cpi.Program
}

// New returns a runtime storing accounts in db, with the system program
// registered.
func New(cfg *config.Config, logger log.Logger, db database.Database, clock *mockable.Clock) (*Runtime, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r := &Runtime{
		config:   cfg,
		log:      logger,
		clock:    clock,
		db:       prefixdb.New(accountPrefix, db),
		programs: make(map[ids.ID]cpi.Program),
	}
	return r, r.Register(system.ID, &system.Program{})
}

// Register deploys p at id.
func (r *Runtime) Register(id ids.ID, p cpi.Program) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if _, ok := r.programs[id]; ok {
		return fmt.Errorf("%w: %s", ErrProgramExists, id)
	}
	r.programs[id] = p
	return nil
}

// SetAccount overwrites the stored state of key.
func (r *Runtime) SetAccount(key ids.ID, state *AccountState) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	return putAccount(r.db, key, state)
}

// GetAccount returns the stored state of key. Accounts never written are
// empty and owned by the system program.
func (r *Runtime) GetAccount(key ids.ID) (*AccountState, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	return getAccount(r.db, key)
}

// Process verifies and executes tx.
func (r *Runtime) Process(ctx context.Context, tx *Tx) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if len(tx.Message.Instructions) == 0 {
		return ErrEmptyTx
	}
	signers, err := tx.Signers()
	if err != nil {
		return err
	}

	vdb := versiondb.New(r.db)
	defer vdb.Abort()

	t := &txn{
		runtime:  r,
		db:       vdb,
		accounts: make(map[ids.ID]*account.Account),
	}
	count := len(tx.Message.Instructions)
	for i, ix := range tx.Message.Instructions {
		accounts, err := t.prepare(ix, signers)
		if err != nil {
			return fmt.Errorf("instruction %d: %w", i, err)
		}
		t.setSysvar(&InstructionsSysvar{
			Timestamp: r.clock.Unix(),
			Index:     uint32(i),
			Count:     uint32(count),
		})
		if _, err := t.invoke(ctx, 1, ix, accounts); err != nil {
			r.log.Debug("transaction failed",
				log.Int("instruction", i),
				log.Stringer("programID", ix.ProgramID),
				log.Err(err),
			)
			return fmt.Errorf("instruction %d: %w", i, err)
		}
	}
	if err := t.flush(); err != nil {
		return err
	}
	return vdb.Commit()
}

// txn holds the accounts loaded by one transaction.
type txn struct {
	runtime  *Runtime
	db       database.Database
	accounts map[ids.ID]*account.Account
}

func (t *txn) load(key ids.ID) (*account.Account, error) {
	if a, ok := t.accounts[key]; ok {
		return a, nil
	}
	var a *account.Account
	if isSysvar(key) {
		a = account.New(key, SysvarOwnerID, 0, nil)
	} else {
		state, err := getAccount(t.db, key)
		if err != nil {
			return nil, err
		}
		a = account.New(key, state.Owner, state.Balance, state.Data)
		a.Executable = state.Executable
	}
	if _, ok := t.runtime.programs[key]; ok {
		a.Executable = true
	}
	t.accounts[key] = a
	return a, nil
}

// prepare loads the accounts of a top level instruction and sets their
// privileges from the verified signers.
func (t *txn) prepare(ix account.Instruction, signers set.Set[ids.ID]) ([]*account.Account, error) {
	accounts := make([]*account.Account, len(ix.Accounts))
	for i, meta := range ix.Accounts {
		if meta.IsSigner && !signers.Contains(meta.Key) {
			return nil, fmt.Errorf("%w: %s", ErrMissingSignature, meta.Key)
		}
		a, err := t.load(meta.Key)
		if err != nil {
			return nil, err
		}
		a.IsSigner = false
		a.IsWritable = false
		accounts[i] = a
	}
	for i, meta := range ix.Accounts {
		a := accounts[i]
		a.IsSigner = a.IsSigner || meta.IsSigner
		a.IsWritable = a.IsWritable || (meta.IsWritable && !a.Executable && !isSysvar(a.Key))
	}
	return accounts, nil
}

func (t *txn) setSysvar(s *InstructionsSysvar) {
	// Loading a sysvar never touches the database.
	a, _ := t.load(InstructionsSysvarID)
	a.SetData(s.Bytes())
}

func (t *txn) flush() error {
	for key, a := range t.accounts {
		if isSysvar(key) {
			continue
		}
		if a.Owner == system.ID && a.Balance == 0 && a.DataLen() == 0 && !a.Executable {
			if err := t.db.Delete(key[:]); err != nil {
				return err
			}
			continue
		}
		err := putAccount(t.db, key, &AccountState{
			Owner:      a.Owner,
			Balance:    a.Balance,
			Executable: a.Executable,
			Data:       a.Data(),
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func getAccount(db database.KeyValueReader, key ids.ID) (*AccountState, error) {
	b, err := db.Get(key[:])
	if errors.Is(err, database.ErrNotFound) {
		return &AccountState{Owner: system.ID}, nil
	}
	if err != nil {
		return nil, err
	}
	state := &AccountState{}
	if _, err := Codec.Unmarshal(b, state); err != nil {
		return nil, fmt.Errorf("account %s: %w", key, err)
	}
	return state, nil
}

func putAccount(db database.KeyValueWriter, key ids.ID, state *AccountState) error {
	b, err := Codec.Marshal(CodecVersion, state)
	if err != nil {
		return err
	}
	return db.Put(key[:], b)
}
