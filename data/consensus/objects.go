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

package consensus

import (
	"errors"
	"fmt"

	"github.com/algorand/go-herder/crypto"
	"github.com/algorand/go-herder/protocol"
)

// MaxQuorumSetMembers bounds the number of direct members (validators and inner sets) of a quorum set.
const MaxQuorumSetMembers = 1000

var (
	errZeroThreshold     = errors.New("quorum set threshold is zero")
	errThresholdTooLarge = errors.New("quorum set threshold exceeds member count")
	errTooManyMembers    = errors.New("quorum set has too many members")
	errDuplicateMember   = errors.New("quorum set lists a member twice")
)

// A QuorumSet describes whom a node trusts: Threshold of its members must agree.
// Members are validators and nested quorum sets, the latter referenced by hash so the
// whole structure forms a content-addressed graph.
type QuorumSet struct {
	_struct struct{} `codec:",omitempty,omitemptyarray"`

	Threshold  uint32          `codec:"th"`
	Validators []NodeID        `codec:"v"`
	InnerSets  []crypto.Digest `codec:"i"`
}

// ToBeHashed implements the crypto.Hashable interface.
func (q QuorumSet) ToBeHashed() (protocol.HashID, []byte) {
	return protocol.QuorumSet, protocol.Encode(&q)
}

// Hash returns the content hash other objects use to reference q.
func (q QuorumSet) Hash() crypto.Digest {
	return crypto.HashObj(q)
}

// Validate checks that the quorum set is well formed on its own.
// Nested sets are checked when they are resolved.
func (q QuorumSet) Validate() error {
	members := len(q.Validators) + len(q.InnerSets)
	if members > MaxQuorumSetMembers {
		return fmt.Errorf("%d members: %w", members, errTooManyMembers)
	}
	if q.Threshold == 0 {
		return errZeroThreshold
	}
	if int(q.Threshold) > members {
		return fmt.Errorf("threshold %d with %d members: %w", q.Threshold, members, errThresholdTooLarge)
	}

	seen := make(map[NodeID]struct{}, len(q.Validators))
	for _, v := range q.Validators {
		if _, dup := seen[v]; dup {
			return fmt.Errorf("validator %s: %w", v, errDuplicateMember)
		}
		seen[v] = struct{}{}
	}
	inner := make(map[crypto.Digest]struct{}, len(q.InnerSets))
	for _, h := range q.InnerSets {
		if _, dup := inner[h]; dup {
			return fmt.Errorf("inner set %s: %w", h, errDuplicateMember)
		}
		inner[h] = struct{}{}
	}
	return nil
}

// A TxSet is a batch of transactions proposed for a slot.
// The herder treats it as an opaque content-addressed object.
type TxSet struct {
	_struct struct{} `codec:",omitempty,omitemptyarray"`

	PreviousLedgerHash crypto.Digest `codec:"prev"`
	Transactions       [][]byte      `codec:"txs"`
}

// ToBeHashed implements the crypto.Hashable interface.
func (ts TxSet) ToBeHashed() (protocol.HashID, []byte) {
	return protocol.TxSet, protocol.Encode(&ts)
}

// Hash returns the content hash envelopes use to reference ts.
func (ts TxSet) Hash() crypto.Digest {
	return crypto.HashObj(ts)
}
