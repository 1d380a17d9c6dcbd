// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package mockable

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClockSet(t *testing.T) {
	require := require.New(t)

	c := &Clock{}
	c.Set(time.Unix(1_700_000_000, 0))
	require.Equal(uint64(1_700_000_000), c.Unix())

	c.Advance(90 * time.Second)
	require.Equal(uint64(1_700_000_090), c.Unix())

	c.Set(time.Unix(-5, 0))
	require.Zero(c.Unix())
}

func TestClockUnpinned(t *testing.T) {
	c := &Clock{}
	require.WithinDuration(t, time.Now(), c.Time(), time.Minute)
}

func TestClockAdvanceUnpinned(t *testing.T) {
	c := &Clock{}
	before := time.Now()
	c.Advance(time.Hour)
	require.False(t, c.Time().Before(before.Add(time.Hour)))
}
