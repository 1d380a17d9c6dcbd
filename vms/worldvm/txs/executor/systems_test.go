// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package executor

import (
	"context"
	"testing"

	"github.com/luxfi/ids"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/world/vms/worldvm/account"
	"github.com/luxfi/world/vms/worldvm/state"
	"github.com/luxfi/world/vms/worldvm/system"
)

func TestApproveSystem(t *testing.T) {
	systems := sortedIDs(3)

	tests := []struct {
		name            string
		permissionless  bool
		systems         []ids.ID
		approve         ids.ID
		expectedSystems []ids.ID
		expectedGrowth  int
	}{
		{
			name:            "first system",
			permissionless:  true,
			systems:         []ids.ID{},
			approve:         systems[1],
			expectedSystems: []ids.ID{systems[1]},
			expectedGrowth:  state.ElementLen,
		},
		{
			name:            "inserted in order",
			systems:         []ids.ID{systems[0], systems[2]},
			approve:         systems[1],
			expectedSystems: systems,
			expectedGrowth:  state.ElementLen,
		},
		{
			name:            "duplicate still clears permissionless",
			permissionless:  true,
			systems:         []ids.ID{systems[1]},
			approve:         systems[1],
			expectedSystems: []ids.ID{systems[1]},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require := require.New(t)

			env := newTestEnv(true)
			caller := newWallet(1_000_000)
			worldAcct := env.newWorldAccount(t, &state.WorldRecord{
				Authorities:    []ids.ID{caller.Key},
				Permissionless: test.permissionless,
				Systems:        test.systems,
			})
			size := worldAcct.DataLen()
			balance := worldAcct.Balance

			err := env.executor.ApproveSystem(
				context.Background(),
				[]*account.Account{caller, worldAcct, account.New(test.approve, system.ID, 0, nil), newReadonly()},
				nil,
			)
			require.NoError(err)

			record := decodeWorld(t, worldAcct)
			require.False(record.Permissionless)
			require.Equal(test.expectedSystems, record.Systems)
			require.Equal(size+test.expectedGrowth, worldAcct.DataLen())
			if test.expectedGrowth == 0 {
				require.Equal(balance, worldAcct.Balance)
				require.Empty(env.host.calls)
			}
		})
	}
}

func TestApproveSystemUnauthorized(t *testing.T) {
	require := require.New(t)

	env := newTestEnv(true)
	worldAcct := env.newWorldAccount(t, &state.WorldRecord{
		Authorities:    []ids.ID{ids.GenerateTestID()},
		Permissionless: true,
	})

	err := env.executor.ApproveSystem(
		context.Background(),
		[]*account.Account{newWallet(1_000_000), worldAcct, newReadonly(), newReadonly()},
		nil,
	)
	require.ErrorIs(err, ErrInvalidAuthority)
	require.True(decodeWorld(t, worldAcct).Permissionless)
}

func TestRemoveSystem(t *testing.T) {
	systems := sortedIDs(3)

	tests := []struct {
		name            string
		remove          ids.ID
		expectedSystems []ids.ID
	}{
		{
			name:            "middle keeps order",
			remove:          systems[1],
			expectedSystems: []ids.ID{systems[0], systems[2]},
		},
		{
			name:            "last",
			remove:          systems[2],
			expectedSystems: systems[:2],
		},
		{
			name:            "missing is a no-op",
			remove:          ids.GenerateTestID(),
			expectedSystems: systems,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require := require.New(t)

			env := newTestEnv(true)
			caller := newWallet(0)
			worldAcct := env.newWorldAccount(t, &state.WorldRecord{
				Authorities:    []ids.ID{caller.Key},
				Permissionless: true,
				Systems:        systems,
			})
			balance := worldAcct.Balance

			err := env.executor.RemoveSystem(
				context.Background(),
				[]*account.Account{caller, worldAcct, account.New(test.remove, system.ID, 0, nil), newReadonly()},
				nil,
			)
			require.NoError(err)

			record := decodeWorld(t, worldAcct)
			require.Equal(test.expectedSystems, record.Systems)
			require.True(record.Permissionless)
			require.Equal(state.WorldSize(1, len(test.expectedSystems)), worldAcct.DataLen())
			require.Equal(env.rent.MinimumBalance(worldAcct.DataLen()), worldAcct.Balance)
			require.Equal(balance-worldAcct.Balance, caller.Balance)
		})
	}
}

func TestRemoveSystemReadonlyCallerCannotTakeRefund(t *testing.T) {
	require := require.New(t)

	env := newTestEnv(true)
	caller := newWallet(0)
	caller.IsWritable = false
	systems := sortedIDs(1)
	worldAcct := env.newWorldAccount(t, &state.WorldRecord{
		Authorities: []ids.ID{caller.Key},
		Systems:     systems,
	})

	err := env.executor.RemoveSystem(
		context.Background(),
		[]*account.Account{caller, worldAcct, account.New(systems[0], system.ID, 0, nil), newReadonly()},
		nil,
	)
	require.ErrorIs(err, account.ErrNotWritable)
}
