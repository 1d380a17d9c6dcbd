// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package runtime

import (
	"context"
	"crypto/ed25519"
	"errors"
	"testing"
	"time"

	"github.com/luxfi/database/memdb"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/luxfi/world/utils/timer/mockable"
	"github.com/luxfi/world/vms/worldvm/account"
	"github.com/luxfi/world/vms/worldvm/config"
	"github.com/luxfi/world/vms/worldvm/cpi"
	"github.com/luxfi/world/vms/worldvm/state"
	"github.com/luxfi/world/vms/worldvm/system"
)

var errProgramFailed = errors.New("program failed")

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type testProgram struct {
	executeF func(ctx context.Context, env cpi.Env, accounts []*account.Account, data []byte) error
}

func (p *testProgram) Execute(ctx context.Context, env cpi.Env, accounts []*account.Account, data []byte) error {
	return p.executeF(ctx, env, accounts, data)
}

func newKey(i byte) ed25519.PrivateKey {
	seed := make([]byte, ed25519.SeedSize)
	seed[0] = i
	return ed25519.NewKeyFromSeed(seed)
}

func newRuntime(t *testing.T) *Runtime {
	cfg := config.DefaultConfig()
	r, err := New(&cfg, log.NewNoOpLogger(), memdb.New(), &mockable.Clock{})
	require.NoError(t, err)
	return r
}

func fund(t *testing.T, r *Runtime, key ids.ID, balance uint64) {
	require.NoError(t, r.SetAccount(key, &AccountState{Owner: system.ID, Balance: balance}))
}

func balanceOf(t *testing.T, r *Runtime, key ids.ID) uint64 {
	state, err := r.GetAccount(key)
	require.NoError(t, err)
	return state.Balance
}

func transfer(from, to ids.ID, amount uint64) account.Instruction {
	ix := (&system.Transfer{
		From:     account.New(from, system.ID, 0, nil),
		To:       account.New(to, system.ID, 0, nil),
		Lamports: amount,
	}).Instruction()
	return ix
}

func TestProcessTransfer(t *testing.T) {
	require := require.New(t)

	r := newRuntime(t)
	alice := newKey(1)
	aliceID := KeyID(alice)
	bobID := ids.GenerateTestID()
	fund(t, r, aliceID, 1_000)

	tx, err := Sign(Message{Instructions: []account.Instruction{
		transfer(aliceID, bobID, 300),
		transfer(aliceID, bobID, 200),
	}}, alice)
	require.NoError(err)
	require.NoError(r.Process(context.Background(), tx))

	require.Equal(uint64(500), balanceOf(t, r, aliceID))
	require.Equal(uint64(500), balanceOf(t, r, bobID))
}

func TestProcessRollsBackFailedTx(t *testing.T) {
	require := require.New(t)

	r := newRuntime(t)
	alice := newKey(1)
	aliceID := KeyID(alice)
	bobID := ids.GenerateTestID()
	fund(t, r, aliceID, 1_000)

	tx, err := Sign(Message{Instructions: []account.Instruction{
		transfer(aliceID, bobID, 300),
		transfer(aliceID, bobID, 800),
	}}, alice)
	require.NoError(err)
	err = r.Process(context.Background(), tx)
	require.ErrorIs(err, system.ErrInsufficientFunds)

	require.Equal(uint64(1_000), balanceOf(t, r, aliceID))
	require.Zero(balanceOf(t, r, bobID))
}

func TestProcessSignatures(t *testing.T) {
	alice := newKey(1)
	mallory := newKey(2)
	bobID := ids.GenerateTestID()

	tests := []struct {
		name        string
		sign        func(msg Message) *Tx
		expectedErr error
	}{
		{
			name: "unsigned",
			sign: func(msg Message) *Tx {
				return &Tx{Message: msg}
			},
			expectedErr: ErrMissingSignature,
		},
		{
			name: "wrong signer",
			sign: func(msg Message) *Tx {
				tx, err := Sign(msg, mallory)
				require.NoError(t, err)
				return tx
			},
			expectedErr: ErrMissingSignature,
		},
		{
			name: "forged signature",
			sign: func(msg Message) *Tx {
				tx, err := Sign(msg, mallory)
				require.NoError(t, err)
				tx.Credentials[0].PublicKey = KeyID(alice)
				return tx
			},
			expectedErr: ErrInvalidSignature,
		},
		{
			name: "tampered message",
			sign: func(msg Message) *Tx {
				tx, err := Sign(msg, alice)
				require.NoError(t, err)
				tx.Message.Instructions[0].Data[len(tx.Message.Instructions[0].Data)-1]++
				return tx
			},
			expectedErr: ErrInvalidSignature,
		},
		{
			name: "empty",
			sign: func(Message) *Tx {
				return &Tx{}
			},
			expectedErr: ErrEmptyTx,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require := require.New(t)

			r := newRuntime(t)
			fund(t, r, KeyID(alice), 1_000)

			msg := Message{Instructions: []account.Instruction{transfer(KeyID(alice), bobID, 1)}}
			err := r.Process(context.Background(), test.sign(msg))
			require.ErrorIs(err, test.expectedErr)
			require.Equal(uint64(1_000), balanceOf(t, r, KeyID(alice)))
		})
	}
}

func TestInvokeReturnData(t *testing.T) {
	require := require.New(t)

	var (
		r        = newRuntime(t)
		callerID = ids.GenerateTestID()
		calleeID = ids.GenerateTestID()
		payer    = newKey(1)
		got      []byte
	)
	require.NoError(r.Register(calleeID, &testProgram{
		executeF: func(_ context.Context, env cpi.Env, _ []*account.Account, data []byte) error {
			require.Equal(calleeID, env.ProgramID())
			env.SetReturnData(append(data, '!'))
			return nil
		},
	}))
	require.NoError(r.Register(callerID, &testProgram{
		executeF: func(ctx context.Context, env cpi.Env, _ []*account.Account, _ []byte) error {
			ret, err := env.Invoke(ctx, account.Instruction{ProgramID: calleeID, Data: []byte("hi")}, nil)
			got = ret
			return err
		},
	}))

	tx, err := Sign(Message{Instructions: []account.Instruction{{
		ProgramID: callerID,
		Accounts:  []account.Meta{account.ReadonlySigner(KeyID(payer))},
	}}}, payer)
	require.NoError(err)
	require.NoError(r.Process(context.Background(), tx))
	require.Equal([]byte("hi!"), got)
}

func TestInvokeFailures(t *testing.T) {
	var (
		payer      = newKey(1)
		payerID    = KeyID(payer)
		callerID   = ids.GenerateTestID()
		calleeID   = ids.GenerateTestID()
		readonlyID = ids.GenerateTestID()
	)

	tests := []struct {
		name        string
		caller      func(ctx context.Context, env cpi.Env, accounts []*account.Account) error
		callee      func(accounts []*account.Account) error
		expectedErr error
	}{
		{
			name: "callee error is wrapped",
			caller: func(ctx context.Context, env cpi.Env, _ []*account.Account) error {
				_, err := env.Invoke(ctx, account.Instruction{ProgramID: calleeID}, nil)
				return err
			},
			callee: func([]*account.Account) error {
				return errProgramFailed
			},
			expectedErr: ErrExternalCall,
		},
		{
			name: "unknown program",
			caller: func(ctx context.Context, env cpi.Env, _ []*account.Account) error {
				_, err := env.Invoke(ctx, account.Instruction{ProgramID: ids.GenerateTestID()}, nil)
				return err
			},
			expectedErr: ErrProgramNotFound,
		},
		{
			name: "writable escalation",
			caller: func(ctx context.Context, env cpi.Env, accounts []*account.Account) error {
				ix := account.Instruction{
					ProgramID: calleeID,
					Accounts:  []account.Meta{account.Writable(readonlyID)},
				}
				_, err := env.Invoke(ctx, ix, accounts[1:])
				return err
			},
			expectedErr: ErrPrivilegeEscalation,
		},
		{
			name: "signer escalation",
			caller: func(ctx context.Context, env cpi.Env, accounts []*account.Account) error {
				ix := account.Instruction{
					ProgramID: calleeID,
					Accounts:  []account.Meta{account.ReadonlySigner(readonlyID)},
				}
				_, err := env.Invoke(ctx, ix, accounts[1:])
				return err
			},
			expectedErr: ErrPrivilegeEscalation,
		},
		{
			name: "account mismatch",
			caller: func(ctx context.Context, env cpi.Env, accounts []*account.Account) error {
				ix := account.Instruction{
					ProgramID: calleeID,
					Accounts:  []account.Meta{account.Readonly(payerID)},
				}
				_, err := env.Invoke(ctx, ix, accounts[1:])
				return err
			},
			expectedErr: ErrAccountMismatch,
		},
		{
			name: "spending an account owned by another program",
			caller: func(_ context.Context, _ cpi.Env, accounts []*account.Account) error {
				accounts[0].Balance--
				return nil
			},
			expectedErr: ErrExternalModification,
		},
		{
			name: "minting balance",
			caller: func(_ context.Context, _ cpi.Env, accounts []*account.Account) error {
				accounts[0].Balance++
				return nil
			},
			expectedErr: ErrUnbalancedInstruction,
		},
		{
			name: "spending a foreign account before a nested call",
			caller: func(ctx context.Context, env cpi.Env, accounts []*account.Account) error {
				accounts[0].Balance -= 500
				ix := account.Instruction{
					ProgramID: calleeID,
					Accounts:  []account.Meta{account.Writable(payerID)},
				}
				_, err := env.Invoke(ctx, ix, accounts[:1])
				return err
			},
			expectedErr: ErrExternalModification,
		},
		{
			name: "minting balance before a nested call",
			caller: func(ctx context.Context, env cpi.Env, accounts []*account.Account) error {
				accounts[0].Balance += 500
				ix := account.Instruction{
					ProgramID: calleeID,
					Accounts:  []account.Meta{account.Writable(payerID)},
				}
				_, err := env.Invoke(ctx, ix, accounts[:1])
				return err
			},
			expectedErr: ErrUnbalancedInstruction,
		},
		{
			name: "unbounded recursion",
			caller: func(ctx context.Context, env cpi.Env, _ []*account.Account) error {
				_, err := env.Invoke(ctx, account.Instruction{ProgramID: callerID}, nil)
				return err
			},
			expectedErr: ErrCallDepthExceeded,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require := require.New(t)

			r := newRuntime(t)
			fund(t, r, payerID, 1_000)
			require.NoError(r.Register(callerID, &testProgram{
				executeF: func(ctx context.Context, env cpi.Env, accounts []*account.Account, _ []byte) error {
					return test.caller(ctx, env, accounts)
				},
			}))
			require.NoError(r.Register(calleeID, &testProgram{
				executeF: func(_ context.Context, _ cpi.Env, accounts []*account.Account, _ []byte) error {
					if test.callee == nil {
						return nil
					}
					return test.callee(accounts)
				},
			}))

			tx, err := Sign(Message{Instructions: []account.Instruction{{
				ProgramID: callerID,
				Accounts: []account.Meta{
					account.WritableSigner(payerID),
					account.Readonly(readonlyID),
				},
			}}}, payer)
			require.NoError(err)

			err = r.Process(context.Background(), tx)
			require.ErrorIs(err, test.expectedErr)
			require.Equal(uint64(1_000), balanceOf(t, r, payerID))
		})
	}
}

func TestInvokeSignedByDerivedAddress(t *testing.T) {
	require := require.New(t)

	var (
		r         = newRuntime(t)
		payer     = newKey(1)
		payerID   = KeyID(payer)
		programID = ids.GenerateTestID()
		seeds     = [][]byte{[]byte("vault")}
	)
	vaultID, bump, err := state.FindProgramAddress(seeds, programID)
	require.NoError(err)
	fund(t, r, payerID, 1_000)

	require.NoError(r.Register(programID, &testProgram{
		executeF: func(ctx context.Context, env cpi.Env, accounts []*account.Account, _ []byte) error {
			create := &system.CreateAccount{
				From:     accounts[0],
				To:       accounts[1],
				Lamports: 100,
				Space:    8,
				Owner:    env.ProgramID(),
			}
			if err := create.Invoke(ctx, env, append(seeds, []byte{bump})); err != nil {
				return err
			}
			buf, release, err := accounts[1].BorrowMutData()
			if err != nil {
				return err
			}
			defer release()
			copy(buf, "vaulted!")
			return nil
		},
	}))

	tx, err := Sign(Message{Instructions: []account.Instruction{{
		ProgramID: programID,
		Accounts: []account.Meta{
			account.WritableSigner(payerID),
			account.Writable(vaultID),
		},
	}}}, payer)
	require.NoError(err)
	require.NoError(r.Process(context.Background(), tx))

	vault, err := r.GetAccount(vaultID)
	require.NoError(err)
	require.Equal(programID, vault.Owner)
	require.Equal(uint64(100), vault.Balance)
	require.Equal([]byte("vaulted!"), vault.Data)
	require.Equal(uint64(900), balanceOf(t, r, payerID))

	// Without the seeds the program cannot sign for the address.
	r = newRuntime(t)
	fund(t, r, payerID, 1_000)
	require.NoError(r.Register(programID, &testProgram{
		executeF: func(ctx context.Context, env cpi.Env, accounts []*account.Account, _ []byte) error {
			create := &system.CreateAccount{
				From:  accounts[0],
				To:    accounts[1],
				Space: 8,
				Owner: env.ProgramID(),
			}
			return create.Invoke(ctx, env)
		},
	}))
	err = r.Process(context.Background(), tx)
	require.ErrorIs(err, ErrPrivilegeEscalation)
}

func TestInstructionsSysvar(t *testing.T) {
	require := require.New(t)

	var (
		clock     = &mockable.Clock{}
		cfg       = config.DefaultConfig()
		payer     = newKey(1)
		programID = ids.GenerateTestID()
		seen      []*InstructionsSysvar
	)
	now := time.Unix(1_700_000_000, 0)
	clock.Set(now)
	r, err := New(&cfg, log.NewNoOpLogger(), memdb.New(), clock)
	require.NoError(err)
	require.NoError(r.Register(programID, &testProgram{
		executeF: func(_ context.Context, _ cpi.Env, accounts []*account.Account, _ []byte) error {
			require.False(accounts[0].IsWritable)
			s, err := ParseInstructionsSysvar(accounts[0].Data())
			if err != nil {
				return err
			}
			seen = append(seen, s)
			return nil
		},
	}))

	ix := account.Instruction{
		ProgramID: programID,
		Accounts:  []account.Meta{account.Writable(InstructionsSysvarID)},
	}
	tx, err := Sign(Message{Instructions: []account.Instruction{ix, ix}}, payer)
	require.NoError(err)
	require.NoError(r.Process(context.Background(), tx))

	require.Equal([]*InstructionsSysvar{
		{Timestamp: uint64(now.Unix()), Index: 0, Count: 2},
		{Timestamp: uint64(now.Unix()), Index: 1, Count: 2},
	}, seen)
}

func TestRegisterTwice(t *testing.T) {
	r := newRuntime(t)
	err := r.Register(system.ID, &system.Program{})
	require.ErrorIs(t, err, ErrProgramExists)
}
