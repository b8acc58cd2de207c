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

// Package consensus holds the messages exchanged by the agreement protocol
// and the content-addressed objects they depend on.
package consensus

import (
	"fmt"

	"github.com/algorand/go-herder/crypto"
	"github.com/algorand/go-herder/protocol"
)

// NodeID identifies the signer of an envelope.
type NodeID = crypto.PublicKey

// StatementType is the phase of the agreement protocol a statement belongs to.
type StatementType uint8

const (
	// Nominate statements propose candidate values for a slot.
	Nominate StatementType = iota
	// Prepare statements vote to prepare a ballot.
	Prepare
	// Confirm statements vote to commit a prepared ballot.
	Confirm
	// Externalize statements announce the decided value of a slot.
	Externalize
)

func (t StatementType) String() string {
	switch t {
	case Nominate:
		return "nominate"
	case Prepare:
		return "prepare"
	case Confirm:
		return "confirm"
	case Externalize:
		return "externalize"
	default:
		return fmt.Sprintf("statement(%d)", uint8(t))
	}
}

// A Statement is the signed content of an envelope.
//
// A zero QuorumSetHash or TxSetHash means the statement does not depend on that object.
type Statement struct {
	_struct struct{} `codec:",omitempty,omitemptyarray"`

	NodeID        NodeID        `codec:"n"`
	SlotIndex     uint64        `codec:"s"`
	Type          StatementType `codec:"t"`
	QuorumSetHash crypto.Digest `codec:"q"`
	TxSetHash     crypto.Digest `codec:"x"`

	// Ballot is interpreted only by the agreement engine.
	Ballot []byte `codec:"b"`
}

// An Envelope is a statement together with its signer's signature.
type Envelope struct {
	_struct struct{} `codec:",omitempty,omitemptyarray"`

	Statement Statement `codec:"st"`
	Signature []byte    `codec:"sig"`
}

// ToBeHashed implements the crypto.Hashable interface.
func (e Envelope) ToBeHashed() (protocol.HashID, []byte) {
	return protocol.Envelope, protocol.Encode(&e)
}

// ID returns the content identity of the envelope.
// Two envelopes with the same signer, slot, statement and signature share an ID.
func (e Envelope) ID() crypto.Digest {
	return crypto.HashObj(e)
}

// Slot returns the slot index the envelope belongs to.
func (e Envelope) Slot() uint64 {
	return e.Statement.SlotIndex
}

// Sender returns the node that signed the envelope.
func (e Envelope) Sender() NodeID {
	return e.Statement.NodeID
}

// Dependencies returns the object hashes the envelope needs before the
// agreement engine can evaluate it. Absent dependencies are left zero.
func (e Envelope) Dependencies() (qset crypto.Digest, txset crypto.Digest) {
	return e.Statement.QuorumSetHash, e.Statement.TxSetHash
}

func (e Envelope) String() string {
	return fmt.Sprintf("envelope{node=%s slot=%d type=%s}", e.Statement.NodeID, e.Statement.SlotIndex, e.Statement.Type)
}
