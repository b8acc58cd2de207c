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
	"context"
	"errors"

	"github.com/algorand/go-herder/config"
	"github.com/algorand/go-herder/data/consensus"
	"github.com/algorand/go-herder/logging"
	"github.com/algorand/go-herder/network"
	"github.com/algorand/go-herder/protocol"
	"github.com/algorand/go-herder/util/metrics"
)

const serviceTaskBacklog = 1024

// ErrServiceStopped is returned by calls made after Shutdown.
var ErrServiceStopped = errors.New("herder service stopped")

// ServiceParameters holds the parameters necessary to run a herder service.
type ServiceParameters struct {
	config.Local
	logging.Logger

	Node           network.GossipNode
	LocalNode      consensus.NodeID
	LocalQuorumSet consensus.QuorumSet
	Engine         Engine
	Registry       *metrics.Registry
}

// Service runs a PendingEnvelopes on a single goroutine and connects it to a gossip node.
// All of its methods are safe for concurrent use. Engine callbacks run on the service
// goroutine and may use the PendingEnvelopes returned by Herder directly.
type Service struct {
	pe   *PendingEnvelopes
	node network.GossipNode
	log  logging.Logger

	tasks chan func()
	quit  chan struct{}
	done  chan struct{}
}

// MakeService creates a new herder Service instance given a set of ServiceParameters.
//
// Call Start to start execution and Shutdown to finish execution.
func MakeService(p ServiceParameters) (*Service, error) {
	log := p.Logger
	if log == nil {
		log = logging.Base()
	}
	fetchNet := &gossipFetchNetwork{node: p.Node, log: log}
	pe, err := MakePendingEnvelopes(Params{
		Config:         p.Local,
		Log:            log,
		LocalNode:      p.LocalNode,
		LocalQuorumSet: p.LocalQuorumSet,
		Engine:         p.Engine,
		Network:        fetchNet,
		Registry:       p.Registry,
	})
	if err != nil {
		return nil, err
	}
	// requests are only sent from inside PendingEnvelopes calls, so this is queued, not nested
	fetchNet.onSendError = pe.PeerDoesntHave

	return &Service{
		pe:    pe,
		node:  p.Node,
		log:   log,
		tasks: make(chan func(), serviceTaskBacklog),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}, nil
}

// Herder returns the PendingEnvelopes the service drives. It must only be used from the
// service goroutine, that is from Engine callbacks or functions passed to Do.
func (s *Service) Herder() *PendingEnvelopes {
	return s.pe
}

// Start registers the network handlers and starts the service goroutine.
func (s *Service) Start() {
	s.node.RegisterHandlers(s.handlers())
	go s.mainLoop()
}

// Shutdown stops the service goroutine and deregisters the network handlers.
//
// This method returns after the goroutine has exited.
func (s *Service) Shutdown() {
	s.log.Debug("herder service is stopping")
	defer s.log.Debug("herder service has stopped")

	close(s.quit)
	<-s.done
	s.node.ClearHandlers()
}

func (s *Service) mainLoop() {
	defer close(s.done)
	for {
		select {
		case <-s.quit:
			return
		case task := <-s.tasks:
			task()
		}
	}
}

// post queues fn on the service goroutine without waiting for it.
func (s *Service) post(fn func(pe *PendingEnvelopes)) bool {
	select {
	case s.tasks <- func() { fn(s.pe) }:
		return true
	case <-s.quit:
		return false
	}
}

// Do runs fn on the service goroutine and waits for it to return.
func (s *Service) Do(ctx context.Context, fn func(pe *PendingEnvelopes)) error {
	finished := make(chan struct{})
	task := func() {
		defer close(finished)
		fn(s.pe)
	}
	select {
	case s.tasks <- task:
	case <-s.quit:
		return ErrServiceStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		select {
		case <-finished:
			return nil
		default:
			return ErrServiceStopped
		}
	}
}

// RecvEnvelope queues env for admission.
func (s *Service) RecvEnvelope(env consensus.Envelope) {
	s.post(func(pe *PendingEnvelopes) { pe.RecvEnvelope(env) })
}

// Submit admits a locally produced envelope and gossips it to every peer.
func (s *Service) Submit(env consensus.Envelope) error {
	s.RecvEnvelope(env)
	return s.node.Broadcast(protocol.EnvelopeTag, protocol.Encode(&env), nil)
}

// AddQuorumSet queues qset for caching, for instance one embedded in another message.
func (s *Service) AddQuorumSet(slot uint64, qset consensus.QuorumSet) {
	hash := qset.Hash()
	s.post(func(pe *PendingEnvelopes) { pe.AddQuorumSet(hash, slot, qset) })
}

// AddTxSet queues txset for caching.
func (s *Service) AddTxSet(slot uint64, txset consensus.TxSet) {
	hash := txset.Hash()
	s.post(func(pe *PendingEnvelopes) { pe.AddTxSet(hash, slot, txset) })
}

// EraseBelow queues the erasure of every slot below slot.
func (s *Service) EraseBelow(slot uint64) {
	s.post(func(pe *PendingEnvelopes) { pe.EraseBelow(slot) })
}

// SlotClosed queues the closing of slot.
func (s *Service) SlotClosed(slot uint64) {
	s.post(func(pe *PendingEnvelopes) { pe.SlotClosed(slot) })
}

// Pop removes the oldest ready envelope of slot.
func (s *Service) Pop(ctx context.Context, slot uint64) (env consensus.Envelope, ok bool, err error) {
	err = s.Do(ctx, func(pe *PendingEnvelopes) { env, ok = pe.Pop(slot) })
	return
}

// ReadySlots returns the slots with ready envelopes, in ascending order.
func (s *Service) ReadySlots(ctx context.Context) (slots []uint64, err error) {
	err = s.Do(ctx, func(pe *PendingEnvelopes) { slots = pe.ReadySlots() })
	return
}

// Info returns a diagnostics snapshot of the most recent limit slots.
func (s *Service) Info(ctx context.Context, limit int) (info Info, err error) {
	err = s.Do(ctx, func(pe *PendingEnvelopes) { info = pe.Info(limit) })
	return
}

func (s *Service) handlers() []network.TaggedMessageHandler {
	return []network.TaggedMessageHandler{
		{Tag: protocol.EnvelopeTag, MessageHandler: network.HandlerFunc(s.handleEnvelope)},
		{Tag: protocol.GetQuorumSetTag, MessageHandler: network.HandlerFunc(s.handleGetQuorumSet)},
		{Tag: protocol.GetTxSetTag, MessageHandler: network.HandlerFunc(s.handleGetTxSet)},
		{Tag: protocol.QuorumSetTag, MessageHandler: network.HandlerFunc(s.handleQuorumSet)},
		{Tag: protocol.TxSetTag, MessageHandler: network.HandlerFunc(s.handleTxSet)},
		{Tag: protocol.DontHaveTag, MessageHandler: network.HandlerFunc(s.handleDontHave)},
	}
}

func (s *Service) decode(msg network.IncomingMessage, objptr interface{}) bool {
	if err := protocol.Decode(msg.Data, objptr); err != nil {
		s.log.Warnf("herder: malformed %s message from %s: %v", msg.Tag, msg.Sender.GetAddress(), err)
		return false
	}
	return true
}

func (s *Service) handleEnvelope(msg network.IncomingMessage) {
	var env consensus.Envelope
	if s.decode(msg, &env) {
		s.RecvEnvelope(env)
	}
}

func (s *Service) handleGetQuorumSet(msg network.IncomingMessage) {
	var req itemRequest
	if !s.decode(msg, &req) {
		return
	}
	s.post(func(pe *PendingEnvelopes) {
		if qset, ok := pe.GetQuorumSet(req.Hash); ok {
			s.reply(msg.Sender, protocol.QuorumSetTag, &quorumSetResponse{Hash: req.Hash, QuorumSet: qset})
			return
		}
		s.reply(msg.Sender, protocol.DontHaveTag, &dontHaveResponse{Tag: protocol.QuorumSetTag, Hash: req.Hash})
	})
}

func (s *Service) handleGetTxSet(msg network.IncomingMessage) {
	var req itemRequest
	if !s.decode(msg, &req) {
		return
	}
	s.post(func(pe *PendingEnvelopes) {
		if txset, ok := pe.GetTxSet(req.Hash); ok {
			s.reply(msg.Sender, protocol.TxSetTag, &txSetResponse{Hash: req.Hash, TxSet: txset})
			return
		}
		s.reply(msg.Sender, protocol.DontHaveTag, &dontHaveResponse{Tag: protocol.TxSetTag, Hash: req.Hash})
	})
}

func (s *Service) reply(peer network.Peer, tag protocol.Tag, obj interface{}) {
	if err := s.node.Send(peer, tag, protocol.Encode(obj)); err != nil {
		s.log.Warnf("herder: replying %s to %s: %v", tag, peer.GetAddress(), err)
	}
}

func (s *Service) handleQuorumSet(msg network.IncomingMessage) {
	var resp quorumSetResponse
	if s.decode(msg, &resp) {
		s.post(func(pe *PendingEnvelopes) { pe.RecvQuorumSet(resp.Hash, resp.QuorumSet, msg.Sender) })
	}
}

func (s *Service) handleTxSet(msg network.IncomingMessage) {
	var resp txSetResponse
	if s.decode(msg, &resp) {
		s.post(func(pe *PendingEnvelopes) { pe.RecvTxSet(resp.Hash, resp.TxSet, msg.Sender) })
	}
}

func (s *Service) handleDontHave(msg network.IncomingMessage) {
	var resp dontHaveResponse
	if s.decode(msg, &resp) {
		s.post(func(pe *PendingEnvelopes) { pe.PeerDoesntHave(resp.Tag, resp.Hash, msg.Sender) })
	}
}
