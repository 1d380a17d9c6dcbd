// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package inspect

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/luxfi/world/vms/worldvm/state"
)

func Command() *cobra.Command {
	c := &cobra.Command{
		Use:   "inspect",
		Short: "Decodes a world record",
		RunE:  inspectFunc,
	}
	flags := c.Flags()
	AddFlags(flags)
	return c
}

func inspectFunc(c *cobra.Command, args []string) error {
	flags := c.Flags()
	config, err := ParseFlags(flags, args)
	if err != nil {
		return err
	}

	record, err := state.Decode(config.Record)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(c.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(record)
}
