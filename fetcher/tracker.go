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

package fetcher

import (
	"github.com/algorand/go-herder/crypto"
	"github.com/algorand/go-herder/network"
	"github.com/algorand/go-herder/util"
)

// tracker follows the retrieval of a single item.
type tracker struct {
	// slots that are waiting for the item
	slots        util.Set[uint64]
	lastSeenSlot uint64

	// peersToAsk is consumed from the front
	peersToAsk []network.Peer
	lastAsked  network.Peer
	rebuilds   int
	exhausted  bool
}

func makeTracker(slot uint64) *tracker {
	return &tracker{
		slots:        util.MakeSet(slot),
		lastSeenSlot: slot,
	}
}

func (t *tracker) listen(slot uint64) {
	t.slots.Add(slot)
	if slot > t.lastSeenSlot {
		t.lastSeenSlot = slot
	}
}

// resetPeers replaces the candidate list with a shuffled copy of peers so
// concurrent trackers spread their requests.
func (t *tracker) resetPeers(peers []network.Peer) {
	t.peersToAsk = append(t.peersToAsk[:0], peers...)
	for i := len(t.peersToAsk) - 1; i > 0; i-- {
		j := int(crypto.RandUint64() % uint64(i+1))
		t.peersToAsk[i], t.peersToAsk[j] = t.peersToAsk[j], t.peersToAsk[i]
	}
}

func (t *tracker) nextPeer() (network.Peer, bool) {
	if len(t.peersToAsk) == 0 {
		return nil, false
	}
	peer := t.peersToAsk[0]
	t.peersToAsk[0] = nil
	t.peersToAsk = t.peersToAsk[1:]
	t.lastAsked = peer
	return peer, true
}
