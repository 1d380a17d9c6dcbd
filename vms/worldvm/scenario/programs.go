// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package scenario

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/luxfi/world/utils/wrappers"
	"github.com/luxfi/world/vms/worldvm/account"
	"github.com/luxfi/world/vms/worldvm/cpi"
	"github.com/luxfi/world/vms/worldvm/fee"
	"github.com/luxfi/world/vms/worldvm/state"
	"github.com/luxfi/world/vms/worldvm/system"
)

var (
	errInvalidComponent = errors.New("invalid component account")
	errValueTooLarge    = errors.New("value too large for component")

	componentSeed = []byte("component")

	_ cpi.Program = (*Mirror)(nil)
	_ cpi.Program = (*Store)(nil)
)

// Mirror is a system that hands its arguments back as the new value of
// every writable account it is given after the authority.
type Mirror struct{}

func (*Mirror) Execute(_ context.Context, env cpi.Env, accounts []*account.Account, data []byte) error {
	args := bytes.TrimPrefix(data, cpi.ExecuteDiscriminator[:])

	var segments [][]byte
	for _, a := range accounts[min(1, len(accounts)):] {
		if a.IsWritable {
			segments = append(segments, args)
		}
	}
	ret, err := cpi.PackOutputs(segments...)
	if err != nil {
		return err
	}
	env.SetReturnData(ret)
	return nil
}

// Store is a component program keeping the last value written to each of
// its components. A component of an entity lives at the address derived
// from the entity's address.
type Store struct {
	// Largest value a component can hold
	MaxValueLen int
	Rent        fee.Rent
}

func (s *Store) Execute(ctx context.Context, env cpi.Env, accounts []*account.Account, data []byte) error {
	if bytes.Equal(data, cpi.InitializeDiscriminator[:]) {
		return s.initialize(ctx, env, accounts)
	}

	if err := account.Require(accounts, 3); err != nil {
		return err
	}
	if len(accounts) == 3 {
		// Sessionless updates are tagged.
		if !bytes.HasPrefix(data, cpi.UpdateDiscriminator[:]) {
			return fmt.Errorf("%w: missing update tag", errInvalidComponent)
		}
		data = data[cpi.DiscriminatorLen:]
	}

	component := accounts[0]
	if component.Owner != env.ProgramID() {
		return fmt.Errorf("%w: %s is owned by %s", errInvalidComponent, component.Key, component.Owner)
	}
	p := wrappers.Packer{Bytes: data}
	value := p.UnpackBytes()
	if p.Err != nil || p.Remaining() != 0 {
		return fmt.Errorf("%w: malformed value", errInvalidComponent)
	}
	if len(value) > s.MaxValueLen {
		return fmt.Errorf("%w: %d > %d", errValueTooLarge, len(value), s.MaxValueLen)
	}

	buf, release, err := component.BorrowMutData()
	if err != nil {
		return err
	}
	defer release()

	clear(buf)
	copy(buf, data)
	return nil
}

func (s *Store) initialize(ctx context.Context, env cpi.Env, accounts []*account.Account) error {
	if err := account.Require(accounts, 3); err != nil {
		return err
	}
	var (
		payer     = accounts[0]
		component = accounts[1]
		entity    = accounts[2]
		seeds     = [][]byte{componentSeed, entity.Key[:]}
	)
	addr, bump, err := state.FindProgramAddress(seeds, env.ProgramID())
	if err != nil {
		return err
	}
	if component.Key != addr {
		return fmt.Errorf("%w: got %s, want %s", errInvalidComponent, component.Key, addr)
	}

	size := wrappers.IntLen + s.MaxValueLen
	create := &system.CreateAccount{
		From:     payer,
		To:       component,
		Lamports: s.Rent.MinimumBalance(size),
		Space:    uint64(size),
		Owner:    env.ProgramID(),
	}
	return create.Invoke(ctx, env, append(seeds, []byte{bump}))
}

// ComponentValue returns the value held by a Store component.
func ComponentValue(data []byte) ([]byte, error) {
	p := wrappers.Packer{Bytes: data}
	value := p.UnpackBytes()
	return value, p.Err
}
