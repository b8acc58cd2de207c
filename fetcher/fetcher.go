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

// Package fetcher coordinates retrieval of content-addressed items from peers.
// Each ItemFetcher keeps at most one outstanding request per hash, however many
// slots are waiting on it.
package fetcher

import (
	"github.com/algorand/go-herder/crypto"
	"github.com/algorand/go-herder/logging"
	"github.com/algorand/go-herder/network"
	"github.com/algorand/go-herder/protocol"
	"github.com/algorand/go-herder/util"
	"github.com/algorand/go-herder/util/metrics"
)

// Network is the transport the fetcher asks for items.
type Network interface {
	// GetPeers returns the peers that may be asked for an item.
	GetPeers() []network.Peer
	// RequestItem asks peer for the item of kind tag with the given hash.
	// The answer arrives asynchronously as a Recv or a DoesntHave.
	RequestItem(tag protocol.Tag, hash crypto.Digest, peer network.Peer)
	// CancelItem reports that the item is no longer wanted.
	CancelItem(tag protocol.Tag, hash crypto.Digest)
}

// Metrics are the counters shared by every ItemFetcher of a node. They are labeled by item tag.
type Metrics struct {
	RequestsSent      *metrics.Counter
	RequestsCoalesced *metrics.Counter
	DontHave          *metrics.Counter
	Exhausted         *metrics.Counter
}

// MakeMetrics creates the fetcher counters and registers them with reg (nil for the default registry).
func MakeMetrics(reg *metrics.Registry) *Metrics {
	m := &Metrics{
		RequestsSent:      metrics.NewCounter(metrics.FetcherRequestsSent),
		RequestsCoalesced: metrics.NewCounter(metrics.FetcherRequestsCoalesced),
		DontHave:          metrics.NewCounter(metrics.FetcherDontHave),
		Exhausted:         metrics.NewCounter(metrics.FetcherExhausted),
	}
	for _, c := range []*metrics.Counter{m.RequestsSent, m.RequestsCoalesced, m.DontHave, m.Exhausted} {
		c.Register(reg)
	}
	return m
}

// Info is a snapshot of a fetcher's outstanding work.
type Info struct {
	Tag       protocol.Tag `codec:"tag"`
	Trackers  int          `codec:"trackers"`
	Exhausted int          `codec:"exhausted"`
}

// ItemFetcher tracks the items of one kind that are being fetched.
// It is not safe for concurrent use; the herder owns it and calls it from its own goroutine.
type ItemFetcher struct {
	tag         protocol.Tag
	net         Network
	log         logging.Logger
	maxRebuilds int
	metrics     *Metrics
	labels      map[string]string

	trackers map[crypto.Digest]*tracker
}

// MakeItemFetcher creates a fetcher for items of kind tag. A tracker whose peers all
// reported not having the item rebuilds its peer list at most maxRebuilds times.
func MakeItemFetcher(tag protocol.Tag, net Network, maxRebuilds int, m *Metrics, log logging.Logger) *ItemFetcher {
	if m == nil {
		m = MakeMetrics(metrics.MakeRegistry())
	}
	return &ItemFetcher{
		tag:         tag,
		net:         net,
		log:         log,
		maxRebuilds: maxRebuilds,
		metrics:     m,
		labels:      map[string]string{"item": string(tag)},
		trackers:    make(map[crypto.Digest]*tracker),
	}
}

// Fetch registers slot's interest in hash. A network request is started only if no
// tracker exists for hash yet; it reports whether that happened.
func (f *ItemFetcher) Fetch(hash crypto.Digest, slot uint64) bool {
	if t, has := f.trackers[hash]; has {
		t.listen(slot)
		f.metrics.RequestsCoalesced.Inc(f.labels)
		return false
	}
	t := makeTracker(slot)
	f.trackers[hash] = t
	t.resetPeers(f.net.GetPeers())
	f.tryNextPeer(hash, t)
	return true
}

// StopFetching drops slot's interest in hash. The request is cancelled once no slot is left.
func (f *ItemFetcher) StopFetching(hash crypto.Digest, slot uint64) {
	t, has := f.trackers[hash]
	if !has {
		return
	}
	t.slots.Remove(slot)
	if t.slots.Empty() {
		f.cancel(hash)
	}
}

// StopFetchingBelow drops the interest of every slot below slot.
func (f *ItemFetcher) StopFetchingBelow(slot uint64) {
	for hash, t := range f.trackers {
		for s := range t.slots {
			if s < slot {
				delete(t.slots, s)
			}
		}
		if t.slots.Empty() {
			f.cancel(hash)
		}
	}
}

func (f *ItemFetcher) cancel(hash crypto.Digest) {
	delete(f.trackers, hash)
	f.net.CancelItem(f.tag, hash)
}

// DoesntHave handles a peer's answer that it lacks hash. Answers from any peer other
// than the one most recently asked are stale and ignored.
func (f *ItemFetcher) DoesntHave(hash crypto.Digest, peer network.Peer) {
	t, has := f.trackers[hash]
	if !has || t.exhausted {
		return
	}
	if t.lastAsked == nil || peer == nil || t.lastAsked.GetAddress() != peer.GetAddress() {
		f.log.Debugf("fetcher(%s): ignoring stale doesn't-have for %s", f.tag, hash)
		return
	}
	f.metrics.DontHave.Inc(f.labels)
	f.tryNextPeer(hash, t)
}

func (f *ItemFetcher) tryNextPeer(hash crypto.Digest, t *tracker) {
	for {
		if peer, ok := t.nextPeer(); ok {
			f.metrics.RequestsSent.Inc(f.labels)
			f.net.RequestItem(f.tag, hash, peer)
			return
		}
		if t.rebuilds >= f.maxRebuilds {
			break
		}
		t.rebuilds++
		peers := f.net.GetPeers()
		if len(peers) == 0 {
			break
		}
		t.resetPeers(peers)
	}
	// parked until the item is delivered some other way or every slot loses interest
	t.exhausted = true
	t.lastAsked = nil
	f.metrics.Exhausted.Inc(f.labels)
	f.log.Debugf("fetcher(%s): no peer has %s after %d rebuilds", f.tag, hash, t.rebuilds)
}

// Recv reports the arrival of hash. It returns the slots that were waiting for it
// in ascending order, and whether the item had been requested at all.
func (f *ItemFetcher) Recv(hash crypto.Digest) (slots []uint64, requested bool) {
	t, has := f.trackers[hash]
	if !has {
		return nil, false
	}
	delete(f.trackers, hash)
	return util.Sorted(t.slots), true
}

// IsFetching reports whether a tracker exists for hash.
func (f *ItemFetcher) IsFetching(hash crypto.Digest) bool {
	_, has := f.trackers[hash]
	return has
}

// LastSeenSlotIndex returns the highest slot that ever registered interest in hash, or 0.
func (f *ItemFetcher) LastSeenSlotIndex(hash crypto.Digest) uint64 {
	if t, has := f.trackers[hash]; has {
		return t.lastSeenSlot
	}
	return 0
}

// Info returns a snapshot of the fetcher's trackers.
func (f *ItemFetcher) Info() Info {
	info := Info{Tag: f.tag, Trackers: len(f.trackers)}
	for _, t := range f.trackers {
		if t.exhausted {
			info.Exhausted++
		}
	}
	return info
}
