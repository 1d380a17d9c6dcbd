// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package simulate

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/luxfi/world/vms/worldvm/config"
	"github.com/luxfi/world/vms/worldvm/scenario"
)

const (
	ScenarioKey = "scenario"
	ConfigKey   = "config"
	VerboseKey  = "verbose"
)

var errNoScenario = errors.New("at least one --scenario is required")

func AddFlags(flags *pflag.FlagSet) {
	flags.StringSlice(ScenarioKey, nil, "YAML scenarios to run, each against its own runtime (required)")
	flags.String(ConfigKey, "", "JSON file overriding the default program config")
	flags.Bool(VerboseKey, false, "Log program activity")
}

type Config struct {
	Scenarios []*scenario.Scenario
	Program   config.Config
	Verbose   bool
}

func ParseFlags(flags *pflag.FlagSet, args []string) (*Config, error) {
	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	paths, err := flags.GetStringSlice(ScenarioKey)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, errNoScenario
	}
	scenarios := make([]*scenario.Scenario, len(paths))
	for i, path := range paths {
		scenarios[i], err = scenario.Load(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	configPath, err := flags.GetString(ConfigKey)
	if err != nil {
		return nil, err
	}
	var configBytes []byte
	if configPath != "" {
		configBytes, err = os.ReadFile(configPath)
		if err != nil {
			return nil, err
		}
	}
	programConfig, err := config.ParseConfig(configBytes)
	if err != nil {
		return nil, err
	}

	verbose, err := flags.GetBool(VerboseKey)
	if err != nil {
		return nil, err
	}

	return &Config{
		Scenarios: scenarios,
		Program:   programConfig,
		Verbose:   verbose,
	}, nil
}
