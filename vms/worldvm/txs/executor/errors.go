// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package executor

import (
	"errors"

	"github.com/luxfi/world/vms/worldvm/account"
)

var (
	// ErrAccountShortage is returned when an instruction is given fewer
	// accounts than it names.
	ErrAccountShortage = account.ErrNotEnoughAccountKeys

	ErrInvalidAuthority  = errors.New("invalid authority")
	ErrLastAuthority     = errors.New("cannot remove the last authority")
	ErrSystemNotApproved = errors.New("system not approved for world")
	ErrIllegalOwner      = errors.New("account not owned by the world program")
	ErrInvalidAddress    = errors.New("account address does not match its seeds")
)
