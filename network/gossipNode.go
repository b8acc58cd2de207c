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
	"github.com/algorand/go-herder/protocol"
)

// Peer is what the herder knows about a remote node: enough to address a request to it.
type Peer interface {
	GetAddress() string
}

// GossipNode represents a node in the gossip network
type GossipNode interface {
	// Address returns the address this node answers on.
	Address() string
	// Send delivers a tagged message to a single peer. It never blocks on the peer.
	Send(peer Peer, tag protocol.Tag, data []byte) error
	// Broadcast sends a tagged message to every peer except the one given.
	Broadcast(tag protocol.Tag, data []byte, except Peer) error
	// GetPeers returns the peers currently reachable from this node.
	GetPeers() []Peer
	// RegisterHandlers adds to the set of given message handlers.
	RegisterHandlers(dispatch []TaggedMessageHandler)
	// ClearHandlers deregisters all the existing message handlers.
	ClearHandlers()
}

// IncomingMessage represents a message arriving from some peer in our p2p network
type IncomingMessage struct {
	Sender Peer
	Tag    protocol.Tag
	Data   []byte
}

// MessageHandler takes a IncomingMessage (e.g., envelope, quorum set) and processes it.
type MessageHandler interface {
	Handle(message IncomingMessage)
}

// HandlerFunc represents an implementation of the MessageHandler interface
type HandlerFunc func(message IncomingMessage)

// Handle implements MessageHandler.Handle, calling the handler with the IncomingMessage
func (f HandlerFunc) Handle(message IncomingMessage) {
	f(message)
}

// TaggedMessageHandler receives one type of broadcast messages
type TaggedMessageHandler struct {
	protocol.Tag
	MessageHandler
}
