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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/algorand/go-herder/crypto"
	"github.com/algorand/go-herder/protocol"
	"github.com/algorand/go-herder/test/partitiontest"
)

func randomNode() (n NodeID) {
	crypto.RandBytes(n[:])
	return
}

func randomDigest() (d crypto.Digest) {
	crypto.RandBytes(d[:])
	return
}

func TestEnvelopeIDStable(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	env := Envelope{
		Statement: Statement{
			NodeID:        randomNode(),
			SlotIndex:     7,
			Type:          Prepare,
			QuorumSetHash: randomDigest(),
			Ballot:        []byte("ballot"),
		},
		Signature: []byte("sig"),
	}
	cp := env
	cp.Statement.Ballot = append([]byte(nil), env.Statement.Ballot...)
	require.Equal(t, env.ID(), cp.ID())

	cp.Signature = []byte("other")
	require.NotEqual(t, env.ID(), cp.ID())

	cp = env
	cp.Statement.SlotIndex++
	require.NotEqual(t, env.ID(), cp.ID())
	require.Equal(t, uint64(7), env.Slot())
	require.Equal(t, env.Statement.NodeID, env.Sender())
}

func TestEnvelopeDecodeRoundTrip(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	env := Envelope{
		Statement: Statement{
			NodeID:    randomNode(),
			SlotIndex: 3,
			Type:      Externalize,
			TxSetHash: randomDigest(),
		},
		Signature: []byte{1, 2, 3},
	}
	var decoded Envelope
	require.NoError(t, protocol.Decode(protocol.Encode(&env), &decoded))
	require.Equal(t, env.ID(), decoded.ID())

	q, tx := decoded.Dependencies()
	require.True(t, q.IsZero())
	require.Equal(t, env.Statement.TxSetHash, tx)
}

func TestQuorumSetValidate(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	a, b := randomNode(), randomNode()
	inner := randomDigest()

	ok := QuorumSet{Threshold: 2, Validators: []NodeID{a, b}, InnerSets: []crypto.Digest{inner}}
	require.NoError(t, ok.Validate())

	zero := ok
	zero.Threshold = 0
	require.True(t, errors.Is(zero.Validate(), errZeroThreshold))

	high := ok
	high.Threshold = 4
	require.True(t, errors.Is(high.Validate(), errThresholdTooLarge))

	dup := QuorumSet{Threshold: 1, Validators: []NodeID{a, a}}
	require.True(t, errors.Is(dup.Validate(), errDuplicateMember))

	dupInner := QuorumSet{Threshold: 1, InnerSets: []crypto.Digest{inner, inner}}
	require.True(t, errors.Is(dupInner.Validate(), errDuplicateMember))

	big := QuorumSet{Threshold: 1, Validators: make([]NodeID, MaxQuorumSetMembers+1)}
	require.True(t, errors.Is(big.Validate(), errTooManyMembers))
}

func TestObjectHashesAreDomainSeparated(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	qs := QuorumSet{Threshold: 1, Validators: []NodeID{randomNode()}}
	require.Equal(t, qs.Hash(), QuorumSet{Threshold: 1, Validators: qs.Validators}.Hash())

	empty := TxSet{}
	require.NotEqual(t, empty.Hash(), QuorumSet{}.Hash())

	ts := TxSet{PreviousLedgerHash: randomDigest(), Transactions: [][]byte{[]byte("tx")}}
	require.NotEqual(t, empty.Hash(), ts.Hash())
}
