// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cpi

import (
	"errors"
	"fmt"

	"github.com/luxfi/ids"

	"github.com/luxfi/world/vms/worldvm/account"
)

var ErrInvalidSeparator = errors.New("invalid component separator")

// Pair is a component account and the program that owns it.
type Pair struct {
	Program   *account.Account
	Component *account.Account
}

// Partition is the split of the trailing accounts of an apply call.
type Partition struct {
	Pairs  []Pair
	Extras []*account.Account
}

// Components returns the component account of every pair, in order.
func (p *Partition) Components() []*account.Account {
	components := make([]*account.Account, len(p.Pairs))
	for i, pair := range p.Pairs {
		components[i] = pair.Component
	}
	return components
}

// Split partitions remaining into (program, component) pairs followed by an
// optional separator and extra accounts:
//
//	program0, component0, ..., programN, componentN, separator, extras...
//
// The separator may only occupy a program slot and may appear at most once.
// Without a separator every account belongs to a pair.
func Split(remaining []*account.Account, separator ids.ID) (*Partition, error) {
	end := len(remaining)
	for i, a := range remaining {
		if a.Key != separator {
			continue
		}
		if end != len(remaining) {
			return nil, fmt.Errorf("%w: repeated at index %d", ErrInvalidSeparator, i)
		}
		if i%2 != 0 {
			return nil, fmt.Errorf("%w: component slot %d", ErrInvalidSeparator, i)
		}
		end = i
	}
	if end%2 != 0 {
		return nil, fmt.Errorf("%w: program %s has no component", account.ErrNotEnoughAccountKeys, remaining[end-1].Key)
	}

	p := &Partition{
		Pairs: make([]Pair, 0, end/2),
	}
	for i := 0; i < end; i += 2 {
		p.Pairs = append(p.Pairs, Pair{
			Program:   remaining[i],
			Component: remaining[i+1],
		})
	}
	if end+1 < len(remaining) {
		p.Extras = remaining[end+1:]
	}
	return p, nil
}
