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

package network

import (
	"context"
	"errors"
	"fmt"

	"github.com/algorand/go-deadlock"

	"github.com/algorand/go-herder/logging"
	"github.com/algorand/go-herder/protocol"
)

// ErrUnknownPeer is returned when sending to an address that is not part of the network.
var ErrUnknownPeer = errors.New("unknown peer")

// LoopbackNetwork is an in-process network connecting a set of LoopbackNodes.
// Messages are queued and delivered one at a time, either by an explicit
// Step/Drain or by Run, so a handler never runs on the sender's stack.
type LoopbackNetwork struct {
	log logging.Logger

	mu      deadlock.Mutex
	nodes   map[string]*LoopbackNode
	order   []string
	queue   []delivery
	blocked map[link]bool
	wake    chan struct{}
}

type delivery struct {
	to  *LoopbackNode
	msg IncomingMessage
}

type link struct {
	from, to string
}

// MakeLoopbackNetwork creates an empty network.
func MakeLoopbackNetwork(log logging.Logger) *LoopbackNetwork {
	return &LoopbackNetwork{
		log:     log,
		nodes:   make(map[string]*LoopbackNode),
		blocked: make(map[link]bool),
		wake:    make(chan struct{}, 1),
	}
}

// AddNode creates a node answering on address. Adding an existing address returns the existing node.
func (n *LoopbackNetwork) AddNode(address string) *LoopbackNode {
	n.mu.Lock()
	defer n.mu.Unlock()
	if node, has := n.nodes[address]; has {
		return node
	}
	node := &LoopbackNode{address: address, net: n, mux: MakeMultiplexer()}
	n.nodes[address] = node
	n.order = append(n.order, address)
	return node
}

// Block drops every message sent from one address to another until Unblock is called.
func (n *LoopbackNetwork) Block(from, to string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.blocked[link{from, to}] = true
}

// Unblock restores delivery from one address to another.
func (n *LoopbackNetwork) Unblock(from, to string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.blocked, link{from, to})
}

// Pending returns the number of queued messages.
func (n *LoopbackNetwork) Pending() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.queue)
}

// Step delivers the oldest queued message. It returns false if the queue was empty.
func (n *LoopbackNetwork) Step() bool {
	n.mu.Lock()
	if len(n.queue) == 0 {
		n.mu.Unlock()
		return false
	}
	d := n.queue[0]
	n.queue[0] = delivery{}
	n.queue = n.queue[1:]
	n.mu.Unlock()

	if !d.to.mux.Handle(d.msg) {
		n.log.Debugf("loopback: %s has no handler for tag %s from %s", d.to.address, d.msg.Tag, d.msg.Sender.GetAddress())
	}
	return true
}

// Drain delivers messages until the queue is empty, including messages sent by the handlers
// themselves, and returns how many were delivered.
func (n *LoopbackNetwork) Drain() (delivered int) {
	for n.Step() {
		delivered++
	}
	return
}

// Run delivers messages as they are sent until ctx is cancelled.
func (n *LoopbackNetwork) Run(ctx context.Context) error {
	for {
		n.Drain()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-n.wake:
		}
	}
}

func (n *LoopbackNetwork) enqueue(from *LoopbackNode, to string, tag protocol.Tag, data []byte) error {
	n.mu.Lock()
	target, has := n.nodes[to]
	if !has {
		n.mu.Unlock()
		return fmt.Errorf("%s: %w", to, ErrUnknownPeer)
	}
	if n.blocked[link{from.address, to}] {
		n.mu.Unlock()
		return nil
	}
	msg := IncomingMessage{Sender: from, Tag: tag, Data: append([]byte(nil), data...)}
	n.queue = append(n.queue, delivery{to: target, msg: msg})
	n.mu.Unlock()

	select {
	case n.wake <- struct{}{}:
	default:
	}
	return nil
}

// LoopbackNode is one endpoint of a LoopbackNetwork. It is both a GossipNode and a Peer.
type LoopbackNode struct {
	address string
	net     *LoopbackNetwork
	mux     *Multiplexer
}

// GetAddress implements Peer.
func (node *LoopbackNode) GetAddress() string {
	return node.address
}

// Address implements GossipNode.
func (node *LoopbackNode) Address() string {
	return node.address
}

// Send implements GossipNode.
func (node *LoopbackNode) Send(peer Peer, tag protocol.Tag, data []byte) error {
	return node.net.enqueue(node, peer.GetAddress(), tag, data)
}

// Broadcast implements GossipNode.
func (node *LoopbackNode) Broadcast(tag protocol.Tag, data []byte, except Peer) error {
	for _, peer := range node.GetPeers() {
		if except != nil && peer.GetAddress() == except.GetAddress() {
			continue
		}
		if err := node.Send(peer, tag, data); err != nil {
			return err
		}
	}
	return nil
}

// GetPeers implements GossipNode. Peers are returned in the order they joined the network.
func (node *LoopbackNode) GetPeers() []Peer {
	node.net.mu.Lock()
	defer node.net.mu.Unlock()
	peers := make([]Peer, 0, len(node.net.order))
	for _, addr := range node.net.order {
		if addr == node.address {
			continue
		}
		peers = append(peers, node.net.nodes[addr])
	}
	return peers
}

// RegisterHandlers implements GossipNode.
func (node *LoopbackNode) RegisterHandlers(dispatch []TaggedMessageHandler) {
	node.mux.RegisterHandlers(dispatch)
}

// ClearHandlers implements GossipNode.
func (node *LoopbackNode) ClearHandlers() {
	node.mux.ClearHandlers(nil)
}
