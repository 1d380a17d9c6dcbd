// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package scenario runs scripted sequences of world program instructions
// against an in-memory runtime.
package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/luxfi/world/vms/worldvm/txs"
)

var (
	ErrInvalidScenario = errors.New("invalid scenario")
	ErrUnexpectedError = errors.New("unexpected step outcome")
	ErrAssertionFailed = errors.New("assertion failed")
)

// Scenario is a scripted run of the world program.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`

	// Unix time reported through the instruction sysvar
	Timestamp int64 `yaml:"timestamp,omitempty"`

	// Accept systems that return more outputs than there are components.
	LenientOutputCount bool `yaml:"lenient_output_count,omitempty"`

	// Largest value a store component can hold. Defaults to 32 bytes.
	MaxValueLen int `yaml:"max_value_len,omitempty"`

	// Named signing keys. Each key is derived from its name.
	Keys []string `yaml:"keys"`

	// Starting balances of named keys
	Balances map[string]uint64 `yaml:"balances,omitempty"`

	Steps      []Step      `yaml:"steps"`
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one transaction holding a single world program instruction.
type Step struct {
	// Instruction name, such as "add_authority"
	Op string `yaml:"op"`

	// Key that signs and pays. It is also the authority of the instruction.
	Signer string `yaml:"signer"`

	World  uint64 `yaml:"world"`
	Entity uint64 `yaml:"entity,omitempty"`

	// Key added or removed by authority instructions
	Target string `yaml:"target,omitempty"`

	// Program approved, removed or applied
	System string `yaml:"system,omitempty"`

	// Entities whose store components are passed to apply
	Components []uint64 `yaml:"components,omitempty"`

	// Names of keys or programs passed after the components
	Extras []string `yaml:"extras,omitempty"`

	Session string `yaml:"session,omitempty"`

	// Hex encoded arguments of apply
	Args string `yaml:"args,omitempty"`

	// Time the clock moves forward before the step runs, such as "90s"
	Advance time.Duration `yaml:"advance,omitempty"`

	// Substring of the expected error. Empty means the step must succeed.
	ExpectError string `yaml:"expect_error,omitempty"`
}

// Assertion checks a world record, and optionally store components of its
// entities, after all steps ran.
type Assertion struct {
	World          uint64              `yaml:"world"`
	Entities       *uint64             `yaml:"entities,omitempty"`
	Authorities    []string            `yaml:"authorities,omitempty"`
	Systems        []string            `yaml:"systems,omitempty"`
	Permissionless *bool               `yaml:"permissionless,omitempty"`
	Components     []ExpectedComponent `yaml:"components,omitempty"`
}

// ExpectedComponent is the expected hex encoded value of an entity's store
// component.
type ExpectedComponent struct {
	Entity uint64 `yaml:"entity"`
	Value  string `yaml:"value"`
}

// Load reads the scenario at path.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return Parse(bytes.NewReader(data))
}

// Parse decodes a scenario, rejecting unknown fields.
func Parse(r io.Reader) (*Scenario, error) {
	var s Scenario
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks that every step names a known instruction and that every
// name used refers to a declared key or a known program.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidScenario)
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("%w: no steps", ErrInvalidScenario)
	}
	if s.MaxValueLen < 0 {
		return fmt.Errorf("%w: negative max_value_len", ErrInvalidScenario)
	}

	keys := make(map[string]bool, len(s.Keys))
	for _, k := range s.Keys {
		if keys[k] {
			return fmt.Errorf("%w: duplicate key %q", ErrInvalidScenario, k)
		}
		if _, ok := programs[k]; ok {
			return fmt.Errorf("%w: key %q shadows a program", ErrInvalidScenario, k)
		}
		keys[k] = true
	}
	known := func(name string) bool {
		_, ok := programs[name]
		return keys[name] || ok
	}
	for k := range s.Balances {
		if !keys[k] {
			return fmt.Errorf("%w: balance for unknown key %q", ErrInvalidScenario, k)
		}
	}

	for i, step := range s.Steps {
		if _, ok := ops[step.Op]; !ok {
			return fmt.Errorf("%w: step %d: unknown op %q", ErrInvalidScenario, i, step.Op)
		}
		if step.Advance < 0 {
			return fmt.Errorf("%w: step %d: negative advance", ErrInvalidScenario, i)
		}
		if !keys[step.Signer] {
			return fmt.Errorf("%w: step %d: unknown signer %q", ErrInvalidScenario, i, step.Signer)
		}
		for _, name := range slices.Concat([]string{step.Target, step.System, step.Session}, step.Extras) {
			if name != "" && !known(name) {
				return fmt.Errorf("%w: step %d: unknown account %q", ErrInvalidScenario, i, name)
			}
		}
	}
	for i, a := range s.Assertions {
		for _, name := range slices.Concat(a.Authorities, a.Systems) {
			if !known(name) {
				return fmt.Errorf("%w: assertion %d: unknown account %q", ErrInvalidScenario, i, name)
			}
		}
	}
	return nil
}

// ops maps step names to instructions.
var ops = func() map[string]txs.Instruction {
	m := make(map[string]txs.Instruction)
	for i := txs.InitializeRegistry; i <= txs.ApplyWithSession; i++ {
		m[i.String()] = i
	}
	return m
}()
