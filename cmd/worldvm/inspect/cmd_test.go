// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package inspect

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/luxfi/ids"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/world/vms/worldvm/state"
)

func run(t *testing.T, args ...string) (*state.WorldRecord, error) {
	c := Command()
	out := &bytes.Buffer{}
	c.SetOut(out)
	c.SetArgs(append([]string{}, args...))
	if err := c.Execute(); err != nil {
		return nil, err
	}

	record := &state.WorldRecord{}
	require.NoError(t, json.Unmarshal(out.Bytes(), record))
	return record, nil
}

func TestInspect(t *testing.T) {
	require := require.New(t)

	want := &state.WorldRecord{
		ID:             7,
		Entities:       3,
		Authorities:    []ids.ID{ids.GenerateTestID()},
		Permissionless: true,
		Systems:        []ids.ID{},
	}
	raw, err := state.Encode(want)
	require.NoError(err)

	got, err := run(t, "--data", hex.EncodeToString(raw))
	require.NoError(err)
	require.Equal(want, got)

	path := filepath.Join(t.TempDir(), "world.bin")
	require.NoError(os.WriteFile(path, raw, 0o600))
	got, err = run(t, "--file", path)
	require.NoError(err)
	require.Equal(want, got)
}

func TestInspectErrors(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		expectedErr error
	}{
		{
			name:        "no input",
			expectedErr: errNoInput,
		},
		{
			name:        "both inputs",
			args:        []string{"--data", "00", "--file", "world.bin"},
			expectedErr: errNoInput,
		},
		{
			name:        "truncated record",
			args:        []string{"--data", "0102"},
			expectedErr: state.ErrLayoutCorruption,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := run(t, test.args...)
			require.ErrorIs(t, err, test.expectedErr)
		})
	}
}
