// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package executor

import (
	"github.com/luxfi/ids"
	"github.com/luxfi/log"

	"github.com/luxfi/world/vms/worldvm/config"
	"github.com/luxfi/world/vms/worldvm/fee"
	"github.com/luxfi/world/vms/worldvm/metrics"
)

type Backend struct {
	Config    *config.Config
	ProgramID ids.ID
	Rent      fee.Rent
	Metrics   metrics.Metrics
	Log       log.Logger
}
