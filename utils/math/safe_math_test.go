// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package math

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAdd(t *testing.T) {
	tests := []struct {
		name        string
		a, b        uint64
		expected    uint64
		expectedErr error
	}{
		{name: "small", a: 1, b: 2, expected: 3},
		{name: "to max", a: math.MaxUint64 - 1, b: 1, expected: math.MaxUint64},
		{name: "overflow", a: math.MaxUint64, b: 1, expectedErr: ErrOverflow},
		{name: "overflow both large", a: math.MaxUint64 / 2, b: math.MaxUint64/2 + 2, expectedErr: ErrOverflow},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			sum, err := Add(test.a, test.b)
			require.ErrorIs(t, err, test.expectedErr)
			require.Equal(t, test.expected, sum)
		})
	}
}

func TestAddNarrow(t *testing.T) {
	_, err := Add[uint32](math.MaxUint32, 1)
	require.ErrorIs(t, err, ErrOverflow)
}

func TestSub(t *testing.T) {
	require := require.New(t)

	diff, err := Sub[uint64](3, 2)
	require.NoError(err)
	require.Equal(uint64(1), diff)

	diff, err = Sub[uint64](2, 2)
	require.NoError(err)
	require.Zero(diff)

	_, err = Sub[uint64](2, 3)
	require.ErrorIs(err, ErrUnderflow)
}
