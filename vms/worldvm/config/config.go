// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/luxfi/world/vms/worldvm/fee"
)

var (
	ErrInvalidRent   = errors.New("invalid rent configuration")
	ErrInvalidLimits = errors.New("invalid cross-program limits")
)

// Config holds the parameters of the world program and the runtime that
// hosts it.
type Config struct {
	// Storage fee parameters
	Rent fee.RentConfig `json:"rent"`

	// Require a system to return exactly one output per component pair.
	// When false, surplus outputs are ignored.
	StrictOutputCount bool `json:"strictOutputCount"`

	// Cross-program call limits
	MaxCPIAccounts   int `json:"maxCpiAccounts"`
	MaxRelayDataLen  int `json:"maxRelayDataLen"`
	MaxUpdateDataLen int `json:"maxUpdateDataLen"`
	MaxInvokeDepth   int `json:"maxInvokeDepth"`
}

// DefaultConfig returns a config with default values.
func DefaultConfig() Config {
	return Config{
		Rent:              fee.DefaultRentConfig(),
		StrictOutputCount: true,
		MaxCPIAccounts:    64,
		MaxRelayDataLen:   1024,
		MaxUpdateDataLen:  256 + 8,
		MaxInvokeDepth:    4,
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Rent.ExemptionThreshold <= 0 {
		return fmt.Errorf("%w: exemption threshold %v", ErrInvalidRent, c.Rent.ExemptionThreshold)
	}
	switch {
	case c.MaxCPIAccounts < 0, c.MaxRelayDataLen < 0, c.MaxUpdateDataLen < 0:
		return fmt.Errorf("%w: negative limit", ErrInvalidLimits)
	case c.MaxInvokeDepth < 1:
		return fmt.Errorf("%w: invoke depth %d", ErrInvalidLimits, c.MaxInvokeDepth)
	}
	return nil
}

// ParseConfig parses configuration from JSON bytes on top of the defaults.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if len(data) == 0 {
		return cfg, nil
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
