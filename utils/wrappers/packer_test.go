// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package wrappers

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/ids"
)

func TestPackerLittleEndian(t *testing.T) {
	require := require.New(t)

	p := Packer{MaxSize: 64}
	p.PackInt(0x01020304)
	p.PackLong(0x0102030405060708)
	p.PackBool(true)
	require.NoError(p.Err)
	require.Equal([]byte{
		0x04, 0x03, 0x02, 0x01,
		0x08, 0x07, 0x06, 0x05, 0x04, 0x03, 0x02, 0x01,
		0x01,
	}, p.Bytes)

	p = Packer{Bytes: p.Bytes}
	require.Equal(uint32(0x01020304), p.UnpackInt())
	require.Equal(uint64(0x0102030405060708), p.UnpackLong())
	require.True(p.UnpackBool())
	require.NoError(p.Err)
	require.Zero(p.Remaining())
}

func TestPackerMaxSize(t *testing.T) {
	require := require.New(t)

	p := Packer{MaxSize: 3}
	p.PackInt(1)
	require.ErrorIs(p.Err, ErrInsufficientLength)
}

func TestPackerBadBool(t *testing.T) {
	require := require.New(t)

	p := Packer{Bytes: []byte{2}}
	require.False(p.UnpackBool())
	require.ErrorIs(p.Err, errBadBool)
}

func TestPackerBytes(t *testing.T) {
	require := require.New(t)

	p := Packer{MaxSize: 64}
	p.PackBytes([]byte("abc"))
	p.PackBytes(nil)
	require.NoError(p.Err)
	require.Equal([]byte{3, 0, 0, 0, 'a', 'b', 'c', 0, 0, 0, 0}, p.Bytes)

	p = Packer{Bytes: p.Bytes}
	require.Equal([]byte("abc"), p.UnpackBytes())
	require.Empty(p.UnpackBytes())
	require.NoError(p.Err)
}

func TestPackerBytesOutOfBounds(t *testing.T) {
	tests := []struct {
		name  string
		bytes []byte
	}{
		{
			name:  "short length prefix",
			bytes: []byte{1, 0},
		},
		{
			name:  "length past end",
			bytes: []byte{5, 0, 0, 0, 'a'},
		},
		{
			name:  "huge length",
			bytes: []byte{0xff, 0xff, 0xff, 0xff, 'a'},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require := require.New(t)

			p := Packer{Bytes: test.bytes}
			require.Nil(p.UnpackBytes())
			require.ErrorIs(p.Err, ErrInsufficientLength)
		})
	}
}

func TestPackerLimitedBytes(t *testing.T) {
	require := require.New(t)

	p := Packer{Bytes: []byte{3, 0, 0, 0, 'a', 'b', 'c'}}
	require.Nil(p.UnpackLimitedBytes(2))
	require.ErrorIs(p.Err, ErrOversized)
}

func TestPackerID(t *testing.T) {
	require := require.New(t)

	id := ids.GenerateTestID()
	p := Packer{MaxSize: IDLen}
	p.PackID(id)
	require.NoError(p.Err)

	p = Packer{Bytes: p.Bytes}
	require.Equal(id, p.UnpackID())
	require.NoError(p.Err)
}

func TestErrsKeepsFirst(t *testing.T) {
	require := require.New(t)

	var errs Errs
	errs.Add(nil, errInvalidInput, ErrOversized)
	errs.Add(errBadBool)
	require.ErrorIs(errs.Err, errInvalidInput)
	require.True(errs.Errored())
}
