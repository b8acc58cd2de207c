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
	"github.com/algorand/go-herder/fetcher"
)

// SlotInfo counts the envelopes held for one slot.
type SlotInfo struct {
	Slot      uint64 `codec:"slot"`
	Processed int    `codec:"processed"`
	Fetching  int    `codec:"fetching"`
	Pending   int    `codec:"pending"`
	Discarded int    `codec:"discarded"`
	Closed    bool   `codec:"closed"`
}

// CacheInfo describes the occupancy of a bounded cache.
type CacheInfo struct {
	Len int `codec:"len"`
	Cap int `codec:"cap"`
}

// Info is a point-in-time snapshot of the herder state, for diagnostics.
type Info struct {
	MinSlot uint64     `codec:"minslot"`
	Slots   []SlotInfo `codec:"slots"`

	QuorumSets    CacheInfo `codec:"qsets"`
	TxSets        CacheInfo `codec:"txsets"`
	NodesInQuorum CacheInfo `codec:"inquorum"`

	QuorumSetFetcher fetcher.Info `codec:"qsetfetcher"`
	TxSetFetcher     fetcher.Info `codec:"txsetfetcher"`

	WorkQueueDepth    int    `codec:"workdepth"`
	WorkQueueMaxDepth int    `codec:"workmaxdepth"`
	TasksExecuted     uint64 `codec:"tasks"`
}

// Info returns a snapshot of the most recent limit slots, in ascending order.
// A limit of zero or less reports every slot.
func (pe *PendingEnvelopes) Info(limit int) Info {
	slots := pe.sortedSlots()
	if limit > 0 && len(slots) > limit {
		slots = slots[len(slots)-limit:]
	}
	info := Info{
		MinSlot:           pe.minSlot,
		Slots:             make([]SlotInfo, 0, len(slots)),
		QuorumSets:        CacheInfo{Len: pe.qsetCache.len(), Cap: pe.qsetCache.cap},
		TxSets:            CacheInfo{Len: pe.txsetCache.len(), Cap: pe.txsetCache.cap},
		NodesInQuorum:     CacheInfo{Len: pe.quorum.memoised(), Cap: pe.cfg.NodesInQuorumCacheSize},
		QuorumSetFetcher:  pe.qsetFetcher.Info(),
		TxSetFetcher:      pe.txsetFetcher.Info(),
		WorkQueueDepth:    len(pe.work),
		WorkQueueMaxDepth: pe.maxWorkDepth,
		TasksExecuted:     pe.tasksExecuted,
	}
	for _, slot := range slots {
		se := pe.slots[slot]
		info.Slots = append(info.Slots, SlotInfo{
			Slot:      slot,
			Processed: len(se.processed),
			Fetching:  len(se.fetching),
			Pending:   len(se.pending),
			Discarded: len(se.discarded),
			Closed:    se.closed,
		})
	}
	return info
}
