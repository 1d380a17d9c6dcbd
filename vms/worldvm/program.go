// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package worldvm is the world program: it administers world records and
// relays system calls to the components of a world's entities.
package worldvm

import (
	"context"
	"fmt"

	"github.com/luxfi/ids"
	"github.com/luxfi/log"

	"github.com/luxfi/world/vms/worldvm/account"
	"github.com/luxfi/world/vms/worldvm/config"
	"github.com/luxfi/world/vms/worldvm/cpi"
	"github.com/luxfi/world/vms/worldvm/fee"
	"github.com/luxfi/world/vms/worldvm/metrics"
	"github.com/luxfi/world/vms/worldvm/txs"
	"github.com/luxfi/world/vms/worldvm/txs/executor"
)

var _ cpi.Program = (*Program)(nil)

type handler func(e *executor.Executor, ctx context.Context, accounts []*account.Account, payload []byte) error

var handlers = map[txs.Instruction]handler{
	txs.InitializeRegistry:  (*executor.Executor).InitializeRegistry,
	txs.InitializeWorld:     (*executor.Executor).InitializeWorld,
	txs.AddAuthority:        (*executor.Executor).AddAuthority,
	txs.RemoveAuthority:     (*executor.Executor).RemoveAuthority,
	txs.ApproveSystem:       (*executor.Executor).ApproveSystem,
	txs.RemoveSystem:        (*executor.Executor).RemoveSystem,
	txs.AddEntity:           (*executor.Executor).AddEntity,
	txs.InitializeComponent: (*executor.Executor).InitializeComponent,
	txs.Apply:               (*executor.Executor).Apply,
	txs.ApplyWithSession:    (*executor.Executor).ApplyWithSession,
}

// Program is the world program. It holds no state between invocations.
type Program struct {
	backend *executor.Backend
}

// New returns the world program deployed at id.
func New(id ids.ID, cfg config.Config, m metrics.Metrics, logger log.Logger) (*Program, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Program{
		backend: &executor.Backend{
			Config:    &cfg,
			ProgramID: id,
			Rent:      fee.NewCalculator(cfg.Rent),
			Metrics:   m,
			Log:       logger,
		},
	}, nil
}

func (p *Program) ID() ids.ID {
	return p.backend.ProgramID
}

func (p *Program) Execute(ctx context.Context, env cpi.Env, accounts []*account.Account, data []byte) error {
	ix, payload, err := txs.Parse(data)
	if err != nil {
		p.backend.Metrics.MarkInstruction("unknown", err)
		return err
	}
	h, ok := handlers[ix]
	if !ok {
		return fmt.Errorf("%w: no handler for %s", txs.ErrInvalidInstruction, ix)
	}

	err = h(executor.New(p.backend, env), ctx, accounts, payload)
	p.backend.Metrics.MarkInstruction(ix.String(), err)
	if err != nil {
		p.backend.Log.Debug("instruction failed",
			log.Stringer("instruction", ix),
			log.Err(err),
		)
	}
	return err
}
