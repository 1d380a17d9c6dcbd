// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package simulate

import (
	"encoding/json"
	"fmt"

	"github.com/luxfi/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/luxfi/world/vms/worldvm/metrics"
	"github.com/luxfi/world/vms/worldvm/scenario"
)

func Command() *cobra.Command {
	c := &cobra.Command{
		Use:   "simulate",
		Short: "Runs scenarios against in-memory world programs",
		RunE:  simulateFunc,
	}
	flags := c.Flags()
	AddFlags(flags)
	return c
}

func simulateFunc(c *cobra.Command, args []string) error {
	flags := c.Flags()
	config, err := ParseFlags(flags, args)
	if err != nil {
		return err
	}

	var logger log.Logger = log.NewNoOpLogger()
	if config.Verbose {
		logger = log.NewLogger("worldvm")
	}
	runner := &scenario.Runner{
		Config:  config.Program,
		Metrics: metrics.Noop(),
		Log:     logger,
	}

	reports := make([]*scenario.Report, len(config.Scenarios))
	g, ctx := errgroup.WithContext(c.Context())
	for i, s := range config.Scenarios {
		g.Go(func() error {
			report, err := runner.Run(ctx, s)
			reports[i] = report
			if err != nil {
				return fmt.Errorf("scenario %s: %w", s.Name, err)
			}
			return nil
		})
	}
	runErr := g.Wait()

	enc := json.NewEncoder(c.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(reports); err != nil {
		return err
	}
	return runErr
}
