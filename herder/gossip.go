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
	"github.com/algorand/go-herder/crypto"
	"github.com/algorand/go-herder/data/consensus"
	"github.com/algorand/go-herder/logging"
	"github.com/algorand/go-herder/network"
	"github.com/algorand/go-herder/protocol"
)

// itemRequest is the payload of GetQuorumSetTag and GetTxSetTag messages.
type itemRequest struct {
	_struct struct{} `codec:",omitempty,omitemptyarray"`

	Hash crypto.Digest `codec:"h"`
}

// quorumSetResponse is the payload of QuorumSetTag messages.
type quorumSetResponse struct {
	_struct struct{} `codec:",omitempty,omitemptyarray"`

	Hash      crypto.Digest       `codec:"h"`
	QuorumSet consensus.QuorumSet `codec:"qs"`
}

// txSetResponse is the payload of TxSetTag messages.
type txSetResponse struct {
	_struct struct{} `codec:",omitempty,omitemptyarray"`

	Hash  crypto.Digest   `codec:"h"`
	TxSet consensus.TxSet `codec:"ts"`
}

// dontHaveResponse is the payload of DontHaveTag messages. Tag is the kind of item that was asked for.
type dontHaveResponse struct {
	_struct struct{} `codec:",omitempty,omitemptyarray"`

	Tag  protocol.Tag  `codec:"t"`
	Hash crypto.Digest `codec:"h"`
}

// gossipFetchNetwork lets the fetchers request items over a gossip node.
type gossipFetchNetwork struct {
	node network.GossipNode
	log  logging.Logger
	// onSendError is told about requests that could not be sent, so the fetcher moves on.
	onSendError func(tag protocol.Tag, hash crypto.Digest, peer network.Peer)
}

func (g *gossipFetchNetwork) GetPeers() []network.Peer {
	return g.node.GetPeers()
}

func (g *gossipFetchNetwork) RequestItem(tag protocol.Tag, hash crypto.Digest, peer network.Peer) {
	err := g.node.Send(peer, tag.Complement(), protocol.Encode(&itemRequest{Hash: hash}))
	if err != nil {
		g.log.Warnf("herder: requesting %s %s from %s: %v", tag, hash, peer.GetAddress(), err)
		if g.onSendError != nil {
			g.onSendError(tag, hash, peer)
		}
	}
}

// CancelItem has nothing to withdraw: requests are one-shot and late answers are ignored.
func (g *gossipFetchNetwork) CancelItem(tag protocol.Tag, hash crypto.Digest) {
	g.log.Debugf("herder: no longer fetching %s %s", tag, hash)
}
