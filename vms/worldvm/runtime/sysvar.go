// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package runtime

import (
	"github.com/luxfi/crypto/hash"
	"github.com/luxfi/ids"

	"github.com/luxfi/world/utils/wrappers"
)

// InstructionsSysvarLen is the size of the instructions sysvar:
// timestamp u64, instruction index u32, instruction count u32.
const InstructionsSysvarLen = wrappers.LongLen + 2*wrappers.IntLen

var (
	// SysvarOwnerID owns every sysvar account.
	SysvarOwnerID = ids.ID(hash.ComputeHash256Array([]byte("sysvar")))
	// InstructionsSysvarID holds the clock and the position of the
	// instruction being executed within its transaction.
	InstructionsSysvarID = ids.ID(hash.ComputeHash256Array([]byte("sysvar:instructions")))
)

// InstructionsSysvar is the decoded instructions sysvar.
type InstructionsSysvar struct {
	Timestamp uint64
	Index     uint32
	Count     uint32
}

func (s *InstructionsSysvar) Bytes() []byte {
	p := wrappers.Packer{
		Bytes:   make([]byte, 0, InstructionsSysvarLen),
		MaxSize: InstructionsSysvarLen,
	}
	p.PackLong(s.Timestamp)
	p.PackInt(s.Index)
	p.PackInt(s.Count)
	return p.Bytes
}

// ParseInstructionsSysvar decodes the instructions sysvar.
func ParseInstructionsSysvar(b []byte) (*InstructionsSysvar, error) {
	p := wrappers.Packer{Bytes: b}
	s := &InstructionsSysvar{
		Timestamp: p.UnpackLong(),
		Index:     p.UnpackInt(),
		Count:     p.UnpackInt(),
	}
	return s, p.Err
}

func isSysvar(id ids.ID) bool {
	return id == InstructionsSysvarID
}
