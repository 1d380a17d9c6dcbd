// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/luxfi/ids"

	"github.com/luxfi/world/utils/wrappers"
)

var errUnsortedSystems = errors.New("systems must be sorted and unique")

// WorldRecord is a decoded copy of a world record.
type WorldRecord struct {
	ID             uint64   `json:"id"`
	Entities       uint64   `json:"entities"`
	Authorities    []ids.ID `json:"authorities"`
	Permissionless bool     `json:"permissionless"`
	Systems        []ids.ID `json:"systems"`
}

// Encode packs r into a new buffer.
func Encode(r *WorldRecord) ([]byte, error) {
	for i := 1; i < len(r.Systems); i++ {
		if bytes.Compare(r.Systems[i-1][:], r.Systems[i][:]) >= 0 {
			return nil, fmt.Errorf("%w: index %d", errUnsortedSystems, i)
		}
	}

	size := WorldSize(len(r.Authorities), len(r.Systems))
	p := wrappers.Packer{
		Bytes:   make([]byte, 0, size),
		MaxSize: size,
	}
	p.PackLong(WorldDiscriminator)
	p.PackLong(r.ID)
	p.PackLong(r.Entities)
	p.PackInt(uint32(len(r.Authorities)))
	for _, id := range r.Authorities {
		p.PackID(id)
	}
	p.PackBool(r.Permissionless)
	p.PackInt(uint32(len(r.Systems)))
	for _, id := range r.Systems {
		p.PackID(id)
	}
	return p.Bytes, p.Err
}

// Decode validates buf and copies the world record out of it.
func Decode(buf []byte) (*WorldRecord, error) {
	w, err := Load(buf)
	if err != nil {
		return nil, err
	}
	return w.Record(), nil
}

// Record copies the current contents of the view.
func (w *World) Record() *WorldRecord {
	return &WorldRecord{
		ID:             w.ID(),
		Entities:       w.Entities(),
		Authorities:    w.Authorities().List(),
		Permissionless: w.Permissionless(),
		Systems:        w.Systems().List(),
	}
}
