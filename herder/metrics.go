// Copyright (C) 2019-2024 Algorand, Inc.
// This file is part of go-algorand
//
// go-algorand is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// go-algorand is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with go-algorand.  If not, see <https://www.gnu.org/licenses/>.

package herder

import (
	"github.com/algorand/go-herder/util/metrics"
)

// discard reasons, used as metric labels
const (
	discardStale       = "stale"
	discardDuplicate   = "duplicate"
	discardNotInQuorum = "not_in_quorum"
	discardSlotClosed  = "slot_closed"
	discardInvalid     = "invalid"
)

type herderMetrics struct {
	received          *metrics.Counter
	discarded         *metrics.Counter
	ready             *metrics.Counter
	popped            *metrics.Counter
	pending           *metrics.Gauge
	workQueueMaxDepth *metrics.Gauge
}

func makeHerderMetrics(reg *metrics.Registry) *herderMetrics {
	m := &herderMetrics{
		received:          metrics.NewCounter(metrics.HerderEnvelopesReceived),
		discarded:         metrics.NewCounter(metrics.HerderEnvelopesDiscarded),
		ready:             metrics.NewCounter(metrics.HerderEnvelopesReady),
		popped:            metrics.NewCounter(metrics.HerderEnvelopesPopped),
		pending:           metrics.NewGauge(metrics.HerderPendingEnvelopes),
		workQueueMaxDepth: metrics.NewGauge(metrics.HerderWorkQueueMaxDepth),
	}
	for _, c := range []*metrics.Counter{m.received, m.discarded, m.ready, m.popped} {
		c.Register(reg)
	}
	m.pending.Register(reg)
	m.workQueueMaxDepth.Register(reg)
	return m
}

func (m *herderMetrics) discard(reason string) {
	m.discarded.Inc(map[string]string{"reason": reason})
}
