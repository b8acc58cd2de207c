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
	"fmt"
	"sync/atomic"

	"github.com/stretchr/testify/require"

	"github.com/algorand/go-herder/config"
	"github.com/algorand/go-herder/crypto"
	"github.com/algorand/go-herder/data/consensus"
	"github.com/algorand/go-herder/logging"
	"github.com/algorand/go-herder/network"
	"github.com/algorand/go-herder/protocol"
	"github.com/algorand/go-herder/util/metrics"
)

type testPeer string

func (p testPeer) GetAddress() string { return string(p) }

type itemRequestRecord struct {
	tag  protocol.Tag
	hash crypto.Digest
	peer network.Peer
}

// recordingNetwork implements fetcher.Network and remembers every request.
type recordingNetwork struct {
	peers     []network.Peer
	requests  []itemRequestRecord
	cancelled []crypto.Digest
}

func makeRecordingNetwork(n int) *recordingNetwork {
	net := &recordingNetwork{}
	for i := 0; i < n; i++ {
		net.peers = append(net.peers, testPeer(fmt.Sprintf("peer-%d", i)))
	}
	return net
}

func (n *recordingNetwork) GetPeers() []network.Peer {
	return append([]network.Peer(nil), n.peers...)
}

func (n *recordingNetwork) RequestItem(tag protocol.Tag, hash crypto.Digest, peer network.Peer) {
	n.requests = append(n.requests, itemRequestRecord{tag: tag, hash: hash, peer: peer})
}

func (n *recordingNetwork) CancelItem(tag protocol.Tag, hash crypto.Digest) {
	n.cancelled = append(n.cancelled, hash)
}

func (n *recordingNetwork) requestsFor(hash crypto.Digest) (reqs []itemRequestRecord) {
	for _, r := range n.requests {
		if r.hash == hash {
			reqs = append(reqs, r)
		}
	}
	return
}

func (n *recordingNetwork) lastRequestFor(hash crypto.Digest) itemRequestRecord {
	reqs := n.requestsFor(hash)
	return reqs[len(reqs)-1]
}

// recordingEngine records ready notifications. onReady, if set, runs inside the notification.
type recordingEngine struct {
	ready   []consensus.Envelope
	onReady func(env consensus.Envelope)
}

func (e *recordingEngine) EnvelopeReady(env consensus.Envelope) {
	e.ready = append(e.ready, env)
	if e.onReady != nil {
		e.onReady(env)
	}
}

// fixtureT is satisfied by both *testing.T and *rapid.T.
type fixtureT interface {
	require.TestingT
	logging.TestingT
}

type fixture struct {
	t      fixtureT
	pe     *PendingEnvelopes
	engine *recordingEngine
	net    *recordingNetwork
	reg    *metrics.Registry

	// validators[0] is the local node; all of them form the local quorum set
	validators []consensus.NodeID
	root       consensus.QuorumSet
	rootHash   crypto.Digest
}

func randomNodeID() (n consensus.NodeID) {
	crypto.RandBytes(n[:])
	return
}

func makeFixture(t fixtureT, adjust ...func(*config.Local)) *fixture {
	cfg := config.GetDefaultLocal()
	for _, f := range adjust {
		f(&cfg)
	}
	fx := &fixture{
		t:      t,
		engine: &recordingEngine{},
		net:    makeRecordingNetwork(3),
		reg:    metrics.MakeRegistry(),
	}
	for i := 0; i < 4; i++ {
		fx.validators = append(fx.validators, randomNodeID())
	}
	fx.root = consensus.QuorumSet{Threshold: 3, Validators: fx.validators}
	fx.rootHash = fx.root.Hash()

	pe, err := MakePendingEnvelopes(Params{
		Config:         cfg,
		Log:            logging.TestingLog(t),
		LocalNode:      fx.validators[0],
		LocalQuorumSet: fx.root,
		Engine:         fx.engine,
		Network:        fx.net,
		Registry:       fx.reg,
	})
	require.NoError(t, err)
	fx.pe = pe
	return fx
}

var ballotCounter atomic.Uint64

// envelope builds a distinct envelope. Zero hashes mean no dependency.
func (fx *fixture) envelope(sender consensus.NodeID, slot uint64, qset, txset crypto.Digest) consensus.Envelope {
	n := ballotCounter.Add(1)
	return consensus.Envelope{
		Statement: consensus.Statement{
			NodeID:        sender,
			SlotIndex:     slot,
			Type:          consensus.Prepare,
			QuorumSetHash: qset,
			TxSetHash:     txset,
			Ballot:        []byte(fmt.Sprintf("ballot-%d", n)),
		},
		Signature: []byte("sig"),
	}
}

func (fx *fixture) popAll(slot uint64) (envs []consensus.Envelope) {
	for {
		env, ok := fx.pe.Pop(slot)
		if !ok {
			return
		}
		envs = append(envs, env)
	}
}

func (fx *fixture) requireInvariants() {
	require.NoError(fx.t, fx.pe.checkInvariants())
}

func (fx *fixture) discarded(reason string) uint64 {
	return fx.pe.metrics.discarded.GetUint64ValueForLabels(map[string]string{"reason": reason})
}

func makeTxSet(name string) (consensus.TxSet, crypto.Digest) {
	ts := consensus.TxSet{Transactions: [][]byte{[]byte(name)}}
	return ts, ts.Hash()
}

func makeQuorumSet(threshold uint32, validators ...consensus.NodeID) (consensus.QuorumSet, crypto.Digest) {
	qs := consensus.QuorumSet{Threshold: threshold, Validators: validators}
	return qs, qs.Hash()
}

func ids(envs []consensus.Envelope) []crypto.Digest {
	out := make([]crypto.Digest, len(envs))
	for i, env := range envs {
		out[i] = env.ID()
	}
	return out
}
