// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/luxfi/world/cmd/worldvm/inspect"
	"github.com/luxfi/world/cmd/worldvm/simulate"
)

func main() {
	cmd := &cobra.Command{
		Use:          "worldvm",
		Short:        "Inspects world records and simulates world programs",
		SilenceUsage: true,
	}
	cmd.AddCommand(
		inspect.Command(),
		simulate.Command(),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "command failed %v\n", err)
		os.Exit(1)
	}
}
