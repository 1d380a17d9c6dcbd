// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package math holds overflow-checked arithmetic for balances and counters.
package math

import "errors"

var (
	ErrOverflow  = errors.New("overflow")
	ErrUnderflow = errors.New("underflow")
)

// Unsigned is any unsigned integer type.
type Unsigned interface {
	~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

// Add returns a + b, or ErrOverflow if the sum does not fit in T.
func Add[T Unsigned](a, b T) (T, error) {
	sum := a + b
	if sum < a {
		return 0, ErrOverflow
	}
	return sum, nil
}

// Sub returns a - b, or ErrUnderflow if b is larger than a.
func Sub[T Unsigned](a, b T) (T, error) {
	if b > a {
		return 0, ErrUnderflow
	}
	return a - b, nil
}
