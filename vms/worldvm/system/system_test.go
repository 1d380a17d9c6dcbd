// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package system

import (
	"context"
	"testing"

	"github.com/luxfi/ids"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/world/vms/worldvm/account"
)

// execInvoker runs system instructions directly, applying the privileges the
// instruction metas request.
type execInvoker struct {
	calls int
}

func (i *execInvoker) Invoke(ctx context.Context, ix account.Instruction, accounts []*account.Account, _ ...[][]byte) ([]byte, error) {
	i.calls++
	for j, meta := range ix.Accounts {
		accounts[j].IsSigner = accounts[j].IsSigner || meta.IsSigner
		accounts[j].IsWritable = meta.IsWritable
	}
	return nil, (&Program{}).Execute(ctx, nil, accounts, ix.Data)
}

func wallet(balance uint64) *account.Account {
	a := account.New(ids.GenerateTestID(), ID, balance, nil)
	a.IsSigner = true
	a.IsWritable = true
	return a
}

func TestTransfer(t *testing.T) {
	tests := []struct {
		name        string
		balance     uint64
		amount      uint64
		signer      bool
		expectedErr error
	}{
		{
			name:    "moves balance",
			balance: 100,
			amount:  40,
			signer:  true,
		},
		{
			name:        "insufficient funds",
			balance:     10,
			amount:      40,
			signer:      true,
			expectedErr: ErrInsufficientFunds,
		},
		{
			name:        "unsigned source",
			balance:     100,
			amount:      40,
			expectedErr: ErrMissingSignature,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require := require.New(t)

			from := wallet(test.balance)
			from.IsSigner = test.signer
			to := wallet(5)
			ix := (&Transfer{From: from, To: to, Lamports: test.amount}).Instruction()

			err := (&Program{}).Execute(context.Background(), nil, []*account.Account{from, to}, ix.Data)
			require.ErrorIs(err, test.expectedErr)
			if test.expectedErr != nil {
				require.Equal(test.balance, from.Balance)
				require.Equal(uint64(5), to.Balance)
				return
			}
			require.Equal(test.balance-test.amount, from.Balance)
			require.Equal(5+test.amount, to.Balance)
		})
	}
}

func TestTransferer(t *testing.T) {
	require := require.New(t)

	invoker := &execInvoker{}
	from := wallet(100)
	to := wallet(0)
	to.IsSigner = false

	tr := &Transferer{Invoker: invoker}
	require.NoError(tr.Transfer(context.Background(), from, to, 30))
	require.Equal(1, invoker.calls)
	require.Equal(uint64(70), from.Balance)
	require.Equal(uint64(30), to.Balance)
}

func TestCreateAccount(t *testing.T) {
	require := require.New(t)

	owner := ids.GenerateTestID()
	payer := wallet(1_000)
	created := account.New(ids.GenerateTestID(), ID, 0, nil)

	c := &CreateAccount{
		From:     payer,
		To:       created,
		Lamports: 300,
		Space:    33,
		Owner:    owner,
	}
	require.NoError(c.Invoke(context.Background(), &execInvoker{}))
	require.Equal(owner, created.Owner)
	require.Equal(33, created.DataLen())
	require.Equal(uint64(300), created.Balance)
	require.Equal(uint64(700), payer.Balance)

	// A second creation of the same account fails.
	created.Owner = ID
	err := c.Invoke(context.Background(), &execInvoker{})
	require.ErrorIs(err, ErrAccountAlreadyInUse)
}

func TestCreateAccountTooLarge(t *testing.T) {
	c := &CreateAccount{
		From:  wallet(1_000),
		To:    account.New(ids.GenerateTestID(), ID, 0, nil),
		Space: account.MaxPermittedDataIncrease + 1,
	}
	err := c.Invoke(context.Background(), &execInvoker{})
	require.ErrorIs(t, err, ErrInvalidAccountLength)
}

func TestExecuteInvalidData(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{
			name: "empty",
		},
		{
			name: "unknown op",
			data: []byte{9, 0, 0, 0},
		},
		{
			name: "truncated transfer",
			data: []byte{2, 0, 0, 0, 1},
		},
		{
			name: "trailing bytes",
			data: []byte{2, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0, 7},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := (&Program{}).Execute(context.Background(), nil, []*account.Account{wallet(1), wallet(1)}, test.data)
			require.ErrorIs(t, err, ErrInvalidInstruction)
		})
	}
}
