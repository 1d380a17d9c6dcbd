// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package fee

import "math"

// Rent returns the balance an account of a given byte size must hold to be
// exempt from storage fees.
type Rent interface {
	MinimumBalance(size int) uint64
}

type RentConfig struct {
	// Balance charged per byte for one year of storage
	LamportsPerByteYear uint64 `json:"lamportsPerByteYear"`

	// Number of years of storage an account must prepay to be exempt
	ExemptionThreshold float64 `json:"exemptionThreshold"`

	// Bytes charged for every account on top of its data
	StorageOverhead uint64 `json:"storageOverhead"`
}

// DefaultRentConfig returns the storage fee parameters used on mainnet.
func DefaultRentConfig() RentConfig {
	return RentConfig{
		LamportsPerByteYear: 3480,
		ExemptionThreshold:  2,
		StorageOverhead:     128,
	}
}

var _ Rent = (*Calculator)(nil)

// Calculator computes exemption balances from a RentConfig.
type Calculator struct {
	config RentConfig
}

func NewCalculator(config RentConfig) *Calculator {
	return &Calculator{
		config: config,
	}
}

// MinimumBalance returns the exemption balance for size bytes, saturating at
// the maximum representable balance.
func (c *Calculator) MinimumBalance(size int) uint64 {
	if size < 0 {
		size = 0
	}
	bytes := float64(c.config.StorageOverhead) + float64(size)
	balance := bytes * float64(c.config.LamportsPerByteYear) * c.config.ExemptionThreshold
	if balance >= math.MaxUint64 {
		return math.MaxUint64
	}
	return uint64(balance)
}
