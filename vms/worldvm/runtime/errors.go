// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package runtime

import "errors"

var (
	// ErrExternalCall wraps the error of a failed cross-program call.
	ErrExternalCall = errors.New("cross-program call failed")

	ErrProgramNotFound       = errors.New("program not found")
	ErrProgramExists         = errors.New("program already registered")
	ErrCallDepthExceeded     = errors.New("call depth exceeded")
	ErrAccountMismatch       = errors.New("accounts do not match instruction")
	ErrPrivilegeEscalation   = errors.New("privilege escalation")
	ErrMissingSignature      = errors.New("missing required signature")
	ErrInvalidSignature      = errors.New("invalid signature")
	ErrEmptyTx               = errors.New("transaction has no instructions")
	ErrUnbalancedInstruction = errors.New("instruction changed total balance")
	ErrExternalModification  = errors.New("account modified by a program that does not own it")
	ErrReadonlyModification  = errors.New("read-only account modified")
)
