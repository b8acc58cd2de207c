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
	"errors"
	"fmt"
	"sort"

	"github.com/algorand/go-herder/config"
	"github.com/algorand/go-herder/crypto"
	"github.com/algorand/go-herder/data/consensus"
	"github.com/algorand/go-herder/fetcher"
	"github.com/algorand/go-herder/logging"
	"github.com/algorand/go-herder/network"
	"github.com/algorand/go-herder/protocol"
	"github.com/algorand/go-herder/util/metrics"
)

// Engine is the consensus engine the herder feeds.
type Engine interface {
	// EnvelopeReady notifies the engine that env can be popped from its slot.
	// The engine may call back into the PendingEnvelopes that notified it.
	EnvelopeReady(env consensus.Envelope)
}

// Params holds the collaborators and settings of a PendingEnvelopes.
type Params struct {
	Config config.Local
	Log    logging.Logger

	// LocalNode and LocalQuorumSet are the root of the quorum membership walk.
	LocalNode      consensus.NodeID
	LocalQuorumSet consensus.QuorumSet

	Engine  Engine
	Network fetcher.Network

	// Registry receives the herder and fetcher metrics. Nil means the default registry.
	Registry *metrics.Registry
}

var errNoEngine = errors.New("herder: no engine")
var errNoNetwork = errors.New("herder: no network")

// slotEnvelopes holds the envelopes of one slot. An envelope id is in at most one of
// processed, fetching, pending and discarded.
type slotEnvelopes struct {
	processed  map[crypto.Digest]consensus.Envelope
	fetching   map[crypto.Digest]parkedEnvelope
	pending    []consensus.Envelope
	pendingIDs map[crypto.Digest]struct{}
	discarded  map[crypto.Digest]struct{}
	closed     bool
}

type parkedEnvelope struct {
	env consensus.Envelope
	// seq orders parked envelopes by arrival
	seq uint64
}

func makeSlotEnvelopes() *slotEnvelopes {
	return &slotEnvelopes{
		processed:  make(map[crypto.Digest]consensus.Envelope),
		fetching:   make(map[crypto.Digest]parkedEnvelope),
		pendingIDs: make(map[crypto.Digest]struct{}),
		discarded:  make(map[crypto.Digest]struct{}),
	}
}

func (se *slotEnvelopes) seen(id crypto.Digest) (where string, ok bool) {
	if _, ok := se.processed[id]; ok {
		return "processed", true
	}
	if _, ok := se.pendingIDs[id]; ok {
		return "pending", true
	}
	if _, ok := se.fetching[id]; ok {
		return "fetching", true
	}
	if _, ok := se.discarded[id]; ok {
		return "discarded", true
	}
	return "", false
}

// A dependency is an object an envelope needs before the engine can use it.
type dependency struct {
	tag  protocol.Tag
	hash crypto.Digest
}

func dependencies(env consensus.Envelope) []dependency {
	qset, txset := env.Dependencies()
	deps := make([]dependency, 0, 2)
	if !qset.IsZero() {
		deps = append(deps, dependency{tag: protocol.QuorumSetTag, hash: qset})
	}
	if !txset.IsZero() {
		deps = append(deps, dependency{tag: protocol.TxSetTag, hash: txset})
	}
	return deps
}

// PendingEnvelopes holds the envelopes that have been received but not yet consumed by
// the engine, and fetches the objects they depend on.
//
// It is not safe for concurrent use. Every call must come from one goroutine, which is
// what Service provides. Calls made while a call is in progress, typically by the engine
// from EnvelopeReady, are queued and run before the outermost call returns.
type PendingEnvelopes struct {
	cfg     config.Local
	log     logging.Logger
	engine  Engine
	metrics *herderMetrics

	slots map[uint64]*slotEnvelopes
	// minSlot is the lowest slot that may hold state
	minSlot uint64
	seq     uint64

	qsetCache  *objectCache[consensus.QuorumSet]
	txsetCache *objectCache[consensus.TxSet]
	quorum     *quorumMembership

	qsetFetcher  *fetcher.ItemFetcher
	txsetFetcher *fetcher.ItemFetcher

	work          []func()
	draining      bool
	maxWorkDepth  int
	tasksExecuted uint64
}

// MakePendingEnvelopes creates the admission engine. The local quorum set is cached
// without a slot so that it is never erased with old slots.
func MakePendingEnvelopes(p Params) (*PendingEnvelopes, error) {
	if err := p.Config.Validate(); err != nil {
		return nil, err
	}
	if err := p.LocalQuorumSet.Validate(); err != nil {
		return nil, fmt.Errorf("local quorum set: %w", err)
	}
	if p.Engine == nil {
		return nil, errNoEngine
	}
	if p.Network == nil {
		return nil, errNoNetwork
	}
	log := p.Log
	if log == nil {
		log = logging.Base()
	}
	reg := p.Registry
	if reg == nil {
		reg = metrics.DefaultRegistry()
	}

	fetcherMetrics := fetcher.MakeMetrics(reg)
	pe := &PendingEnvelopes{
		cfg:          p.Config,
		log:          log,
		engine:       p.Engine,
		metrics:      makeHerderMetrics(reg),
		slots:        make(map[uint64]*slotEnvelopes),
		qsetCache:    makeObjectCache[consensus.QuorumSet](p.Config.QuorumSetCacheSize),
		txsetCache:   makeObjectCache[consensus.TxSet](p.Config.TxSetCacheSize),
		qsetFetcher:  fetcher.MakeItemFetcher(protocol.QuorumSetTag, p.Network, p.Config.MaxFetchListRebuilds, fetcherMetrics, log),
		txsetFetcher: fetcher.MakeItemFetcher(protocol.TxSetTag, p.Network, p.Config.MaxFetchListRebuilds, fetcherMetrics, log),
	}
	root := p.LocalQuorumSet.Hash()
	pe.qsetCache.put(root, 0, p.LocalQuorumSet)
	pe.quorum = makeQuorumMembership(p.LocalNode, p.LocalQuorumSet, p.Config.MaxQuorumDepth, pe.qsetCache,
		p.Config.DeclaredQuorumSetCacheSize, p.Config.NodesInQuorumCacheSize)
	pe.quorum.declare(p.LocalNode, 0, root)
	return pe, nil
}

// run queues task and, unless a call is already draining the queue, drains it.
func (pe *PendingEnvelopes) run(task func()) {
	pe.work = append(pe.work, task)
	if len(pe.work) > pe.maxWorkDepth {
		pe.maxWorkDepth = len(pe.work)
		pe.metrics.workQueueMaxDepth.SetUint64(uint64(pe.maxWorkDepth))
	}
	if pe.draining {
		return
	}
	pe.draining = true
	defer func() {
		pe.draining = false
	}()
	for len(pe.work) > 0 {
		next := pe.work[0]
		pe.work[0] = nil
		pe.work = pe.work[1:]
		next()
		pe.tasksExecuted++
	}
	pe.work = nil
	pe.metrics.pending.SetUint64(uint64(pe.unconsumed()))
}

// WorkQueueDepth returns the number of queued tasks. It is non-zero only while a call is in progress.
func (pe *PendingEnvelopes) WorkQueueDepth() int {
	return len(pe.work)
}

// MaxWorkQueueDepth returns the deepest the work queue has ever been.
func (pe *PendingEnvelopes) MaxWorkQueueDepth() int {
	return pe.maxWorkDepth
}

func (pe *PendingEnvelopes) unconsumed() (n int) {
	for _, se := range pe.slots {
		n += len(se.fetching) + len(se.pending)
	}
	return
}

// RecvEnvelope admits env. Duplicates, envelopes for erased slots and envelopes from
// nodes known to be outside the local quorum are dropped. Otherwise env becomes ready
// at once if every object it depends on is cached, or waits while they are fetched.
func (pe *PendingEnvelopes) RecvEnvelope(env consensus.Envelope) {
	pe.run(func() { pe.recvEnvelope(env) })
}

func (pe *PendingEnvelopes) recvEnvelope(env consensus.Envelope) {
	pe.metrics.received.Inc(nil)
	slot := env.Slot()
	if slot < pe.minSlot {
		pe.metrics.discard(discardStale)
		pe.log.Debugf("herder: dropping %v below slot %d", env, pe.minSlot)
		return
	}

	id := env.ID()
	se := pe.slots[slot]
	if se != nil {
		if where, seen := se.seen(id); seen {
			pe.metrics.discard(discardDuplicate)
			pe.log.Debugf("herder: dropping %v, already %s", env, where)
			return
		}
	}

	if pe.quorum.isNodeInQuorum(env.Sender()) == quorumOut {
		pe.metrics.discard(discardNotInQuorum)
		pe.log.Debugf("herder: dropping %v, sender not in quorum", env)
		return
	}
	if se == nil {
		se = makeSlotEnvelopes()
		pe.slots[slot] = se
	}
	qsetHash, _ := env.Dependencies()
	pe.quorum.declare(env.Sender(), slot, qsetHash)

	deps := dependencies(env)
	for _, d := range deps {
		switch d.tag {
		case protocol.QuorumSetTag:
			pe.qsetCache.touch(d.hash, slot)
		case protocol.TxSetTag:
			pe.txsetCache.touch(d.hash, slot)
		}
	}

	if pe.IsFullyFetched(env) {
		pe.promote(se, id, env)
		return
	}
	if se.closed {
		pe.metrics.discard(discardSlotClosed)
		pe.log.Debugf("herder: dropping incomplete %v, slot closed", env)
		return
	}

	pe.seq++
	se.fetching[id] = parkedEnvelope{env: env, seq: pe.seq}
	pe.startFetch(slot, deps)
}

func (pe *PendingEnvelopes) startFetch(slot uint64, deps []dependency) {
	for _, d := range deps {
		if !pe.has(d) {
			pe.fetcherFor(d.tag).Fetch(d.hash, slot)
		}
	}
}

// promote moves a complete envelope into the slot's pending queue and schedules the
// engine notification. The sender is checked again since its quorum status may have
// become known while the envelope was waiting.
func (pe *PendingEnvelopes) promote(se *slotEnvelopes, id crypto.Digest, env consensus.Envelope) {
	if pe.quorum.isNodeInQuorum(env.Sender()) == quorumOut {
		se.discarded[id] = struct{}{}
		pe.metrics.discard(discardNotInQuorum)
		pe.log.Debugf("herder: dropping %v, sender not in quorum", env)
		return
	}
	se.pending = append(se.pending, env)
	se.pendingIDs[id] = struct{}{}
	pe.metrics.ready.Inc(nil)
	pe.work = append(pe.work, func() { pe.engine.EnvelopeReady(env) })
	if len(pe.work) > pe.maxWorkDepth {
		pe.maxWorkDepth = len(pe.work)
		pe.metrics.workQueueMaxDepth.SetUint64(uint64(pe.maxWorkDepth))
	}
}

func (pe *PendingEnvelopes) fetcherFor(tag protocol.Tag) *fetcher.ItemFetcher {
	switch tag {
	case protocol.QuorumSetTag:
		return pe.qsetFetcher
	case protocol.TxSetTag:
		return pe.txsetFetcher
	default:
		return nil
	}
}

func (pe *PendingEnvelopes) has(d dependency) bool {
	switch d.tag {
	case protocol.QuorumSetTag:
		_, ok := pe.quorum.quorumSet(d.hash)
		return ok
	case protocol.TxSetTag:
		return pe.txsetCache.contains(d.hash)
	default:
		return false
	}
}

// IsFullyFetched reports whether every object env depends on is cached.
func (pe *PendingEnvelopes) IsFullyFetched(env consensus.Envelope) bool {
	for _, d := range dependencies(env) {
		if !pe.has(d) {
			return false
		}
	}
	return true
}

// AddQuorumSet caches qset under hash as used by slot, and promotes the envelopes that were waiting for it.
func (pe *PendingEnvelopes) AddQuorumSet(hash crypto.Digest, slot uint64, qset consensus.QuorumSet) {
	pe.run(func() { pe.addQuorumSet(hash, slot, qset) })
}

func (pe *PendingEnvelopes) addQuorumSet(hash crypto.Digest, slot uint64, qset consensus.QuorumSet) {
	pe.qsetCache.put(hash, slot, qset)
	pe.qsetFetcher.Recv(hash)
	pe.rescan(dependency{tag: protocol.QuorumSetTag, hash: hash})
}

// AddTxSet caches txset under hash as used by slot, and promotes the envelopes that were waiting for it.
func (pe *PendingEnvelopes) AddTxSet(hash crypto.Digest, slot uint64, txset consensus.TxSet) {
	pe.run(func() { pe.addTxSet(hash, slot, txset) })
}

func (pe *PendingEnvelopes) addTxSet(hash crypto.Digest, slot uint64, txset consensus.TxSet) {
	pe.txsetCache.put(hash, slot, txset)
	pe.txsetFetcher.Recv(hash)
	pe.rescan(dependency{tag: protocol.TxSetTag, hash: hash})
}

// RecvQuorumSet handles a quorum set that arrived from peer. It is ignored unless it was
// requested. A set that does not match hash or is malformed counts as peer not having it.
func (pe *PendingEnvelopes) RecvQuorumSet(hash crypto.Digest, qset consensus.QuorumSet, peer network.Peer) {
	pe.run(func() {
		if !pe.qsetFetcher.IsFetching(hash) {
			pe.log.Debugf("herder: ignoring unrequested quorum set %s", hash)
			return
		}
		if got := qset.Hash(); got != hash {
			pe.log.Warnf("herder: quorum set from %s hashes to %s, expected %s", peerAddress(peer), got, hash)
			pe.qsetFetcher.DoesntHave(hash, peer)
			return
		}
		if err := qset.Validate(); err != nil {
			pe.log.Warnf("herder: malformed quorum set %s from %s: %v", hash, peerAddress(peer), err)
			pe.qsetFetcher.DoesntHave(hash, peer)
			return
		}
		pe.addQuorumSet(hash, pe.qsetFetcher.LastSeenSlotIndex(hash), qset)
	})
}

// RecvTxSet handles a transaction set that arrived from peer. It is ignored unless it was
// requested. A set that does not match hash counts as peer not having it.
func (pe *PendingEnvelopes) RecvTxSet(hash crypto.Digest, txset consensus.TxSet, peer network.Peer) {
	pe.run(func() {
		if !pe.txsetFetcher.IsFetching(hash) {
			pe.log.Debugf("herder: ignoring unrequested transaction set %s", hash)
			return
		}
		if got := txset.Hash(); got != hash {
			pe.log.Warnf("herder: transaction set from %s hashes to %s, expected %s", peerAddress(peer), got, hash)
			pe.txsetFetcher.DoesntHave(hash, peer)
			return
		}
		pe.addTxSet(hash, pe.txsetFetcher.LastSeenSlotIndex(hash), txset)
	})
}

func peerAddress(peer network.Peer) string {
	if peer == nil {
		return "<nil>"
	}
	return peer.GetAddress()
}

// rescan promotes every parked envelope that depends on d and is now complete, in slot
// order and arrival order within a slot. Envelopes still missing something else get
// their fetches renewed, since an object cached earlier may have been evicted.
func (pe *PendingEnvelopes) rescan(d dependency) {
	for _, slot := range pe.sortedSlots() {
		se := pe.slots[slot]
		var waiting []parkedEnvelope
		for _, p := range se.fetching {
			for _, dep := range dependencies(p.env) {
				if dep == d {
					waiting = append(waiting, p)
					break
				}
			}
		}
		sort.Slice(waiting, func(i, j int) bool { return waiting[i].seq < waiting[j].seq })

		for _, p := range waiting {
			if !pe.IsFullyFetched(p.env) {
				pe.startFetch(slot, dependencies(p.env))
				continue
			}
			id := p.env.ID()
			delete(se.fetching, id)
			pe.promote(se, id, p.env)
		}
	}
}

func (pe *PendingEnvelopes) sortedSlots() []uint64 {
	slots := make([]uint64, 0, len(pe.slots))
	for s := range pe.slots {
		slots = append(slots, s)
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i] < slots[j] })
	return slots
}

// Pop removes the oldest ready envelope of slot and marks it processed.
func (pe *PendingEnvelopes) Pop(slot uint64) (consensus.Envelope, bool) {
	se := pe.slots[slot]
	if se == nil || len(se.pending) == 0 {
		return consensus.Envelope{}, false
	}
	env := se.pending[0]
	se.pending[0] = consensus.Envelope{}
	se.pending = se.pending[1:]
	id := env.ID()
	delete(se.pendingIDs, id)
	se.processed[id] = env
	pe.metrics.popped.Inc(nil)
	if !pe.draining {
		pe.metrics.pending.SetUint64(uint64(pe.unconsumed()))
	}
	return env, true
}

// ReadySlots returns the slots that have ready envelopes, in ascending order.
func (pe *PendingEnvelopes) ReadySlots() []uint64 {
	var ready []uint64
	for _, slot := range pe.sortedSlots() {
		if len(pe.slots[slot].pending) > 0 {
			ready = append(ready, slot)
		}
	}
	return ready
}

// EraseBelow forgets every slot below slot, withdraws their fetch interest and drops
// transaction sets only those slots used. Envelopes for those slots are dropped from now on.
func (pe *PendingEnvelopes) EraseBelow(slot uint64) {
	pe.run(func() { pe.eraseBelow(slot) })
}

func (pe *PendingEnvelopes) eraseBelow(slot uint64) {
	if slot <= pe.minSlot {
		return
	}
	pe.minSlot = slot
	for s := range pe.slots {
		if s < slot {
			delete(pe.slots, s)
		}
	}
	pe.qsetFetcher.StopFetchingBelow(slot)
	pe.txsetFetcher.StopFetchingBelow(slot)
	if erased := pe.txsetCache.eraseBelow(slot); erased > 0 {
		pe.log.Debugf("herder: erased %d transaction sets below slot %d", erased, slot)
	}
}

// SlotClosed releases the envelopes of slot that are still waiting for objects, since
// the slot has been decided. Ready and processed envelopes are kept. Slots that fall
// out of the MaxSlotsToRemember window are erased.
func (pe *PendingEnvelopes) SlotClosed(slot uint64) {
	pe.run(func() {
		if slot < pe.minSlot {
			return
		}
		se := pe.slots[slot]
		if se == nil {
			se = makeSlotEnvelopes()
			pe.slots[slot] = se
		}
		se.closed = true
		for id, p := range se.fetching {
			for _, d := range dependencies(p.env) {
				pe.fetcherFor(d.tag).StopFetching(d.hash, slot)
			}
			delete(se.fetching, id)
		}
		if slot+1 > pe.cfg.MaxSlotsToRemember {
			pe.eraseBelow(slot + 1 - pe.cfg.MaxSlotsToRemember)
		}
	})
}

// Discard marks env as invalid. It is removed from the waiting and ready queues and
// replays of it are dropped. An envelope already consumed by the engine stays processed.
func (pe *PendingEnvelopes) Discard(env consensus.Envelope) {
	pe.run(func() {
		slot := env.Slot()
		if slot < pe.minSlot {
			return
		}
		se := pe.slots[slot]
		if se == nil {
			se = makeSlotEnvelopes()
			pe.slots[slot] = se
		}
		id := env.ID()
		if _, done := se.processed[id]; done {
			return
		}
		if p, parked := se.fetching[id]; parked {
			delete(se.fetching, id)
			for _, d := range dependencies(p.env) {
				if !pe.slotNeeds(se, d) {
					pe.fetcherFor(d.tag).StopFetching(d.hash, slot)
				}
			}
		}
		if _, ready := se.pendingIDs[id]; ready {
			delete(se.pendingIDs, id)
			for i, e := range se.pending {
				if e.ID() == id {
					se.pending = append(se.pending[:i], se.pending[i+1:]...)
					break
				}
			}
		}
		se.discarded[id] = struct{}{}
		pe.metrics.discard(discardInvalid)
	})
}

// slotNeeds reports whether another envelope parked in se still waits for d.
func (pe *PendingEnvelopes) slotNeeds(se *slotEnvelopes, d dependency) bool {
	for _, p := range se.fetching {
		for _, dep := range dependencies(p.env) {
			if dep == d {
				return true
			}
		}
	}
	return false
}

// PeerDoesntHave reports that peer lacks the object of kind tag with the given hash.
// Request tags are accepted as well as object tags.
func (pe *PendingEnvelopes) PeerDoesntHave(tag protocol.Tag, hash crypto.Digest, peer network.Peer) {
	pe.run(func() {
		f := pe.fetcherFor(tag)
		if f == nil {
			f = pe.fetcherFor(tag.Complement())
		}
		if f == nil {
			pe.log.Warnf("herder: doesn't-have for unknown item kind %q from %s", tag, peerAddress(peer))
			return
		}
		f.DoesntHave(hash, peer)
	})
}

// GetQuorumSet returns the cached quorum set with the given hash.
func (pe *PendingEnvelopes) GetQuorumSet(hash crypto.Digest) (consensus.QuorumSet, bool) {
	if qset, ok := pe.qsetCache.get(hash); ok {
		return qset, true
	}
	return pe.quorum.quorumSet(hash)
}

// GetTxSet returns the cached transaction set with the given hash.
func (pe *PendingEnvelopes) GetTxSet(hash crypto.Digest) (consensus.TxSet, bool) {
	return pe.txsetCache.get(hash)
}

// checkInvariants verifies that no envelope is in two queues of its slot and that no
// slot below the erase floor holds state.
func (pe *PendingEnvelopes) checkInvariants() error {
	for slot, se := range pe.slots {
		if slot < pe.minSlot {
			return fmt.Errorf("slot %d below erase floor %d still has state", slot, pe.minSlot)
		}
		if len(se.pending) != len(se.pendingIDs) {
			return fmt.Errorf("slot %d: %d pending envelopes but %d pending ids", slot, len(se.pending), len(se.pendingIDs))
		}
		seen := make(map[crypto.Digest]string)
		mark := func(id crypto.Digest, where string) error {
			if prev, dup := seen[id]; dup {
				return fmt.Errorf("slot %d: envelope %s is both %s and %s", slot, id, prev, where)
			}
			seen[id] = where
			return nil
		}
		for id, env := range se.processed {
			if env.Slot() != slot {
				return fmt.Errorf("slot %d holds processed envelope for slot %d", slot, env.Slot())
			}
			if err := mark(id, "processed"); err != nil {
				return err
			}
		}
		for id, p := range se.fetching {
			if p.env.Slot() != slot {
				return fmt.Errorf("slot %d holds parked envelope for slot %d", slot, p.env.Slot())
			}
			if err := mark(id, "fetching"); err != nil {
				return err
			}
		}
		for _, env := range se.pending {
			id := env.ID()
			if _, ok := se.pendingIDs[id]; !ok {
				return fmt.Errorf("slot %d: pending envelope %s missing from pending ids", slot, id)
			}
			if err := mark(id, "pending"); err != nil {
				return err
			}
		}
		for id := range se.discarded {
			if err := mark(id, "discarded"); err != nil {
				return err
			}
		}
	}
	return nil
}
