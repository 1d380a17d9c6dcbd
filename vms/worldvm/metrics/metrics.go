// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	instructionLabel = "instruction"
	resultLabel      = "result"
)

var _ Metrics = (*metrics)(nil)

type Metrics interface {
	// MarkInstruction records the outcome of one top-level instruction.
	MarkInstruction(instruction string, err error)
	// MarkRelay records one relay call and the number of updates it fanned
	// out to.
	MarkRelay(updates int)
	// MarkFees records storage deposit moved by a resize.
	MarkFees(toppedUp, refunded uint64)
}

type metrics struct {
	instructions *prometheus.CounterVec
	relays       prometheus.Counter
	updates      prometheus.Counter
	toppedUp     prometheus.Counter
	refunded     prometheus.Counter
}

func New(registerer prometheus.Registerer) (Metrics, error) {
	m := &metrics{
		instructions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "world_instructions",
				Help: "number of world program instructions processed",
			},
			[]string{instructionLabel, resultLabel},
		),
		relays: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "world_relays",
			Help: "number of relay calls made to systems",
		}),
		updates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "world_component_updates",
			Help: "number of update calls fanned out to components",
		}),
		toppedUp: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "world_fee_topped_up",
			Help: "storage deposit transferred into resized records",
		}),
		refunded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "world_fee_refunded",
			Help: "storage deposit refunded from shrunk records",
		}),
	}

	err := errors.Join(
		registerer.Register(m.instructions),
		registerer.Register(m.relays),
		registerer.Register(m.updates),
		registerer.Register(m.toppedUp),
		registerer.Register(m.refunded),
	)
	return m, err
}

func (m *metrics) MarkInstruction(instruction string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.instructions.With(prometheus.Labels{
		instructionLabel: instruction,
		resultLabel:      result,
	}).Inc()
}

func (m *metrics) MarkRelay(updates int) {
	m.relays.Inc()
	m.updates.Add(float64(updates))
}

func (m *metrics) MarkFees(toppedUp, refunded uint64) {
	m.toppedUp.Add(float64(toppedUp))
	m.refunded.Add(float64(refunded))
}

// Noop returns metrics that record nothing.
func Noop() Metrics {
	return noop{}
}

type noop struct{}

func (noop) MarkInstruction(string, error) {}

func (noop) MarkRelay(int) {}

func (noop) MarkFees(uint64, uint64) {}
