// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package executor

import (
	"context"
	"errors"
	"testing"

	"github.com/luxfi/ids"
	"github.com/luxfi/log"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/world/vms/worldvm/account"
	"github.com/luxfi/world/vms/worldvm/config"
	"github.com/luxfi/world/vms/worldvm/fee"
	"github.com/luxfi/world/vms/worldvm/metrics"
	"github.com/luxfi/world/vms/worldvm/state"
	"github.com/luxfi/world/vms/worldvm/system"
)

var (
	programID = ids.GenerateTestID()

	errUnknownProgram = errors.New("unknown program")
)

type call struct {
	programID ids.ID
	keys      []ids.ID
	data      []byte
}

type handler func(accounts []*account.Account, data []byte) ([]byte, error)

// testHost routes calls to the system program or to per-program handlers
// and records every call it sees.
type testHost struct {
	calls    []call
	handlers map[ids.ID]handler
}

func newTestHost() *testHost {
	return &testHost{
		handlers: make(map[ids.ID]handler),
	}
}

func (h *testHost) Invoke(ctx context.Context, ix account.Instruction, accounts []*account.Account, signers ...[][]byte) ([]byte, error) {
	keys := make([]ids.ID, len(accounts))
	for i, a := range accounts {
		keys[i] = a.Key
	}
	h.calls = append(h.calls, call{
		programID: ix.ProgramID,
		keys:      keys,
		data:      append([]byte(nil), ix.Data...),
	})

	if ix.ProgramID == system.ID {
		for _, seeds := range signers {
			addr, err := state.CreateProgramAddress(seeds[:len(seeds)-1], seeds[len(seeds)-1][0], programID)
			if err != nil {
				return nil, err
			}
			for _, a := range accounts {
				if a.Key == addr {
					a.IsSigner = true
					a.IsWritable = true
				}
			}
		}
		return nil, (&system.Program{}).Execute(ctx, nil, accounts, ix.Data)
	}

	f, ok := h.handlers[ix.ProgramID]
	if !ok {
		return nil, errUnknownProgram
	}
	return f(accounts, ix.Data)
}

// callsTo returns the calls made to programID, in order.
func (h *testHost) callsTo(programID ids.ID) []call {
	var calls []call
	for _, c := range h.calls {
		if c.programID == programID {
			calls = append(calls, c)
		}
	}
	return calls
}

type testEnv struct {
	host     *testHost
	backend  *Backend
	executor *Executor
	rent     fee.Rent
}

func newTestEnv(strict bool) *testEnv {
	cfg := config.DefaultConfig()
	cfg.StrictOutputCount = strict
	rent := fee.NewCalculator(cfg.Rent)
	backend := &Backend{
		Config:    &cfg,
		ProgramID: programID,
		Rent:      rent,
		Metrics:   metrics.Noop(),
		Log:       log.NewNoOpLogger(),
	}
	host := newTestHost()
	return &testEnv{
		host:     host,
		backend:  backend,
		executor: New(backend, host),
		rent:     rent,
	}
}

func newWallet(balance uint64) *account.Account {
	a := account.New(ids.GenerateTestID(), system.ID, balance, nil)
	a.IsSigner = true
	a.IsWritable = true
	return a
}

func newReadonly() *account.Account {
	return account.New(ids.GenerateTestID(), system.ID, 0, nil)
}

// newWorldAccount returns a writable world account holding record and
// exactly the minimum balance for its size.
func (env *testEnv) newWorldAccount(t *testing.T, record *state.WorldRecord) *account.Account {
	buf, err := state.Encode(record)
	require.NoError(t, err)
	a := account.New(ids.GenerateTestID(), programID, env.rent.MinimumBalance(len(buf)), buf)
	a.IsWritable = true
	return a
}

func decodeWorld(t *testing.T, a *account.Account) *state.WorldRecord {
	record, err := state.Decode(a.Data())
	require.NoError(t, err)
	return record
}

func sortedIDs(n int) []ids.ID {
	out := make([]ids.ID, n)
	for i := range out {
		out[i][0] = byte(i + 1)
	}
	return out
}
