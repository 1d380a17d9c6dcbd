// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package scenario

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/luxfi/crypto/hash"
	"github.com/luxfi/database/memdb"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"

	"github.com/luxfi/world/utils/timer/mockable"
	"github.com/luxfi/world/vms/worldvm"
	"github.com/luxfi/world/vms/worldvm/account"
	"github.com/luxfi/world/vms/worldvm/config"
	"github.com/luxfi/world/vms/worldvm/fee"
	"github.com/luxfi/world/vms/worldvm/metrics"
	"github.com/luxfi/world/vms/worldvm/runtime"
	"github.com/luxfi/world/vms/worldvm/state"
	"github.com/luxfi/world/vms/worldvm/system"
	"github.com/luxfi/world/vms/worldvm/txs"
	"github.com/luxfi/world/vms/worldvm/txs/builder"
)

const (
	WorldProgram  = "world"
	MirrorProgram = "mirror"
	StoreProgram  = "store"
	SystemProgram = "system"

	defaultMaxValueLen = 32
)

// programs are the names scenarios may use for deployed programs.
var programs = map[string]ids.ID{
	WorldProgram:  ProgramID(WorldProgram),
	MirrorProgram: ProgramID(MirrorProgram),
	StoreProgram:  ProgramID(StoreProgram),
	SystemProgram: system.ID,
}

// ProgramID returns the address a named program is deployed at.
func ProgramID(name string) ids.ID {
	return ids.ID(hash.ComputeHash256Array([]byte("program/" + name)))
}

// Key returns the signing key of a named scenario key.
func Key(name string) ed25519.PrivateKey {
	seed := hash.ComputeHash256Array([]byte("key/" + name))
	return ed25519.NewKeyFromSeed(seed[:])
}

// ComponentAddress returns the address of the store component of entity.
func ComponentAddress(entity ids.ID) (ids.ID, error) {
	addr, _, err := state.FindProgramAddress([][]byte{componentSeed, entity[:]}, programs[StoreProgram])
	return addr, err
}

// StepResult is the outcome of one step.
type StepResult struct {
	Op   string `json:"op"`
	TxID ids.ID `json:"txID"`
	// Unix time the step ran at
	Time  uint64 `json:"time"`
	Error string `json:"error,omitempty"`
}

// Report is the outcome of a scenario.
type Report struct {
	Name   string               `json:"name"`
	Steps  []StepResult         `json:"steps"`
	Worlds []*state.WorldRecord `json:"worlds"`
}

// Runner executes scenarios. Each run starts from an empty database.
type Runner struct {
	Config  config.Config
	Metrics metrics.Metrics
	Log     log.Logger
}

// Run executes every step of s and checks its assertions. The report is
// returned even when the run fails.
func (r *Runner) Run(ctx context.Context, s *Scenario) (*Report, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	cfg := r.Config
	if s.LenientOutputCount {
		cfg.StrictOutputCount = false
	}
	maxValueLen := s.MaxValueLen
	if maxValueLen == 0 {
		maxValueLen = defaultMaxValueLen
	}

	m := r.Metrics
	if m == nil {
		m = metrics.Noop()
	}
	logger := r.Log
	if logger == nil {
		logger = log.NewNoOpLogger()
	}

	clock := &mockable.Clock{}
	clock.Set(time.Unix(s.Timestamp, 0))
	rt, err := runtime.New(&cfg, logger, memdb.New(), clock)
	if err != nil {
		return nil, err
	}
	world, err := worldvm.New(programs[WorldProgram], cfg, m, logger)
	if err != nil {
		return nil, err
	}
	if err := rt.Register(world.ID(), world); err != nil {
		return nil, err
	}
	if err := rt.Register(programs[MirrorProgram], &Mirror{}); err != nil {
		return nil, err
	}
	store := &Store{
		MaxValueLen: maxValueLen,
		Rent:        fee.NewCalculator(cfg.Rent),
	}
	if err := rt.Register(programs[StoreProgram], store); err != nil {
		return nil, err
	}

	e := &env{
		clock:   clock,
		runtime: rt,
		builder: builder.New(world.ID()),
		keys:    make(map[string]ed25519.PrivateKey, len(s.Keys)),
	}
	for _, name := range s.Keys {
		e.keys[name] = Key(name)
	}
	for name, balance := range s.Balances {
		err := rt.SetAccount(runtime.KeyID(e.keys[name]), &runtime.AccountState{
			Owner:   system.ID,
			Balance: balance,
		})
		if err != nil {
			return nil, err
		}
	}

	report := &Report{Name: s.Name}
	for i := range s.Steps {
		step := &s.Steps[i]
		result, err := e.run(ctx, step)
		if err != nil {
			return report, fmt.Errorf("step %d (%s): %w", i, step.Op, err)
		}
		report.Steps = append(report.Steps, result)

		switch {
		case step.ExpectError == "" && result.Error != "":
			return report, fmt.Errorf("%w: step %d (%s) failed: %s", ErrUnexpectedError, i, step.Op, result.Error)
		case step.ExpectError != "" && !strings.Contains(result.Error, step.ExpectError):
			return report, fmt.Errorf("%w: step %d (%s): got %q, want error containing %q",
				ErrUnexpectedError, i, step.Op, result.Error, step.ExpectError)
		}
	}

	report.Worlds, err = e.worlds()
	if err != nil {
		return report, err
	}
	for i := range s.Assertions {
		if err := e.check(&s.Assertions[i]); err != nil {
			return report, fmt.Errorf("assertion %d: %w", i, err)
		}
	}
	return report, nil
}

type env struct {
	clock   *mockable.Clock
	runtime *runtime.Runtime
	builder *builder.Builder
	keys    map[string]ed25519.PrivateKey
}

func (e *env) address(name string) (ids.ID, error) {
	if key, ok := e.keys[name]; ok {
		return runtime.KeyID(key), nil
	}
	if id, ok := programs[name]; ok {
		return id, nil
	}
	return ids.Empty, fmt.Errorf("%w: unknown account %q", ErrInvalidScenario, name)
}

// run signs and processes the step. Only errors in building the
// transaction are returned; processing errors are recorded in the result.
func (e *env) run(ctx context.Context, step *Step) (StepResult, error) {
	e.clock.Advance(step.Advance)
	result := StepResult{
		Op:   step.Op,
		Time: e.clock.Unix(),
	}
	ix, err := e.instruction(step)
	if err != nil {
		return result, err
	}
	tx, err := runtime.Sign(runtime.Message{Instructions: []account.Instruction{ix}}, e.keys[step.Signer])
	if err != nil {
		return result, err
	}
	result.TxID, err = tx.ID()
	if err != nil {
		return result, err
	}
	if err := e.runtime.Process(ctx, tx); err != nil {
		result.Error = err.Error()
	}
	return result, nil
}

func (e *env) instruction(step *Step) (account.Instruction, error) {
	signer := runtime.KeyID(e.keys[step.Signer])
	world, err := e.builder.WorldAddress(step.World)
	if err != nil {
		return account.Instruction{}, err
	}

	switch op := ops[step.Op]; op {
	case txs.InitializeRegistry:
		return e.builder.InitializeRegistry(signer)
	case txs.InitializeWorld:
		return e.builder.InitializeWorld(signer, step.World)
	case txs.AddAuthority, txs.RemoveAuthority:
		target, err := e.address(step.Target)
		if err != nil {
			return account.Instruction{}, err
		}
		if op == txs.AddAuthority {
			return e.builder.AddAuthority(signer, target, world, step.World), nil
		}
		return e.builder.RemoveAuthority(signer, target, world, step.World), nil
	case txs.ApproveSystem, txs.RemoveSystem:
		sys, err := e.address(step.System)
		if err != nil {
			return account.Instruction{}, err
		}
		if op == txs.ApproveSystem {
			return e.builder.ApproveSystem(signer, world, sys), nil
		}
		return e.builder.RemoveSystem(signer, world, sys), nil
	case txs.AddEntity:
		return e.builder.AddEntity(signer, world, step.World, step.Entity, nil)
	case txs.InitializeComponent:
		c, entity, err := e.component(step.World, step.Entity)
		if err != nil {
			return account.Instruction{}, err
		}
		return e.builder.InitializeComponent(signer, c, entity, signer), nil
	case txs.Apply, txs.ApplyWithSession:
		return e.apply(step, op, signer, world)
	default:
		return account.Instruction{}, fmt.Errorf("%w: unknown op %q", ErrInvalidScenario, step.Op)
	}
}

func (e *env) apply(step *Step, op txs.Instruction, signer, world ids.ID) (account.Instruction, error) {
	sys, err := e.address(step.System)
	if err != nil {
		return account.Instruction{}, err
	}
	args, err := hex.DecodeString(step.Args)
	if err != nil {
		return account.Instruction{}, fmt.Errorf("%w: args: %w", ErrInvalidScenario, err)
	}
	components := make([]builder.Component, len(step.Components))
	for i, entity := range step.Components {
		components[i], _, err = e.component(step.World, entity)
		if err != nil {
			return account.Instruction{}, err
		}
	}
	extras := make([]ids.ID, len(step.Extras))
	for i, name := range step.Extras {
		if extras[i], err = e.address(name); err != nil {
			return account.Instruction{}, err
		}
	}

	if op == txs.Apply {
		return e.builder.Apply(sys, signer, world, components, extras, args), nil
	}
	session, err := e.address(step.Session)
	if err != nil {
		return account.Instruction{}, err
	}
	return e.builder.ApplyWithSession(sys, signer, world, session, components, extras, args), nil
}

// component returns the store component of an entity and the entity's
// address.
func (e *env) component(worldID, entity uint64) (builder.Component, ids.ID, error) {
	entityAddr, err := e.builder.EntityAddress(worldID, entity, nil)
	if err != nil {
		return builder.Component{}, ids.Empty, err
	}
	addr, err := ComponentAddress(entityAddr)
	if err != nil {
		return builder.Component{}, ids.Empty, err
	}
	return builder.Component{
		Program: programs[StoreProgram],
		Account: addr,
	}, entityAddr, nil
}

// worlds decodes every world the registry counts.
func (e *env) worlds() ([]*state.WorldRecord, error) {
	registry, err := e.builder.RegistryAddress()
	if err != nil {
		return nil, err
	}
	acct, err := e.runtime.GetAccount(registry)
	if err != nil {
		return nil, err
	}
	if len(acct.Data) == 0 {
		return nil, nil
	}
	reg, err := state.LoadRegistry(acct.Data)
	if err != nil {
		return nil, err
	}

	records := make([]*state.WorldRecord, 0, reg.Worlds())
	for id := range reg.Worlds() {
		record, err := e.world(id)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func (e *env) world(id uint64) (*state.WorldRecord, error) {
	addr, err := e.builder.WorldAddress(id)
	if err != nil {
		return nil, err
	}
	acct, err := e.runtime.GetAccount(addr)
	if err != nil {
		return nil, err
	}
	return state.Decode(acct.Data)
}

func (e *env) check(a *Assertion) error {
	record, err := e.world(a.World)
	if err != nil {
		return fmt.Errorf("world %d: %w", a.World, err)
	}
	if a.Entities != nil && record.Entities != *a.Entities {
		return fmt.Errorf("%w: world %d has %d entities, want %d", ErrAssertionFailed, a.World, record.Entities, *a.Entities)
	}
	if a.Permissionless != nil && record.Permissionless != *a.Permissionless {
		return fmt.Errorf("%w: world %d permissionless is %t, want %t", ErrAssertionFailed, a.World, record.Permissionless, *a.Permissionless)
	}
	if a.Authorities != nil {
		if err := e.sameIDs("authorities", record.Authorities, a.Authorities); err != nil {
			return err
		}
	}
	if a.Systems != nil {
		if err := e.sameIDs("systems", record.Systems, a.Systems); err != nil {
			return err
		}
	}

	for _, want := range a.Components {
		c, _, err := e.component(a.World, want.Entity)
		if err != nil {
			return err
		}
		acct, err := e.runtime.GetAccount(c.Account)
		if err != nil {
			return err
		}
		value, err := ComponentValue(acct.Data)
		if err != nil {
			return fmt.Errorf("%w: entity %d has no store component: %w", ErrAssertionFailed, want.Entity, err)
		}
		if hex.EncodeToString(value) != strings.ToLower(want.Value) {
			return fmt.Errorf("%w: entity %d holds %x, want %s", ErrAssertionFailed, want.Entity, value, want.Value)
		}
	}
	return nil
}

// sameIDs compares got with the addresses of names, ignoring order.
func (e *env) sameIDs(field string, got []ids.ID, names []string) error {
	want := make([]ids.ID, len(names))
	for i, name := range names {
		var err error
		if want[i], err = e.address(name); err != nil {
			return err
		}
	}
	got = slices.Clone(got)
	compare := func(a, b ids.ID) int { return bytes.Compare(a[:], b[:]) }
	slices.SortFunc(got, compare)
	slices.SortFunc(want, compare)
	if !slices.Equal(got, want) {
		return fmt.Errorf("%w: %s are %v, want %v", ErrAssertionFailed, field, got, names)
	}
	return nil
}
